package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/alan-christopher/qkdsim/qkd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault(t *testing.T) {
	cfg := Default()
	require.NoError(t, cfg.Validate())
	assert.Equal(t, 1000, cfg.Qubits)
	assert.Equal(t, 0.1, cfg.LossRate)
	assert.Equal(t, 0.05, cfg.ErrorRate)
	assert.Equal(t, int64(42), cfg.Seed)
	assert.Len(t, cfg.Relay.Hops, 3)

	ps, err := cfg.ProtocolList()
	require.NoError(t, err)
	assert.Equal(t, []qkd.Protocol{qkd.BB84, qkd.B92, qkd.E91}, ps)
}

func TestParseOverridesDefaults(t *testing.T) {
	cfg, err := Parse(strings.NewReader(`
qubits: 5000
error_rate: 0.02
participants:
  eve: Mallory
protocols: [bb84, e91]
relay:
  hops:
    - {from: Alice, to: Bob, delay_ms: 0.5}
classical:
  link_delay_ms: 2
`))
	require.NoError(t, err)
	assert.Equal(t, 5000, cfg.Qubits)
	assert.Equal(t, 0.02, cfg.ErrorRate)
	assert.Equal(t, 0.1, cfg.LossRate)
	assert.Equal(t, "Mallory", cfg.Participants.Eve)
	assert.Equal(t, "Alice", cfg.Participants.Alice)
	assert.Len(t, cfg.Relay.Hops, 1)
	assert.Equal(t, 2*time.Millisecond, cfg.LinkDelay())

	ps, err := cfg.ProtocolList()
	require.NoError(t, err)
	assert.Equal(t, []qkd.Protocol{qkd.BB84, qkd.E91}, ps)
}

func TestParseEmpty(t *testing.T) {
	cfg, err := Parse(strings.NewReader(""))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestParseRejects(t *testing.T) {
	tcs := []struct {
		name    string
		yaml    string
		invalid bool
	}{
		{"negative qubits", "qubits: -1", true},
		{"loss above one", "loss_rate: 1.5", true},
		{"negative noise", "error_rate: -0.1", true},
		{"unknown protocol", "protocols: [SARG04]", true},
		{"duplicate protocol", "protocols: [BB84, bb84]", true},
		{"no protocols", "protocols: []", true},
		{"empty relay chain", "relay: {hops: []}", true},
		{"negative relay delay", "relay: {hops: [{from: A, to: B, delay_ms: -1}]}", true},
		{"zero trials", "trials: 0", true},
		{"unknown key", "qbits: 10", false},
		{"malformed", "qubits: [", false},
	}
	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tc.yaml))
			require.Error(t, err)
			assert.Equal(t, tc.invalid, errors.Is(err, qkd.ErrInvalidConfig), "err = %v", err)
		})
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)

	want := Default()
	want.Qubits = 256
	want.Seed = 7
	data, err := Marshal(want)
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "scenario.yaml")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	got, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, want, got)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
