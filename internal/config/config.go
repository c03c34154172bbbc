// Package config loads simulation scenarios from YAML.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"time"

	"github.com/alan-christopher/qkdsim/qkd"
	"github.com/alan-christopher/qkdsim/relay"
	"gopkg.in/yaml.v3"
)

// Config is a complete simulation scenario.
type Config struct {
	Qubits    int     `yaml:"qubits"`
	LossRate  float64 `yaml:"loss_rate"`
	ErrorRate float64 `yaml:"error_rate"`
	Seed      int64   `yaml:"seed"`

	Participants Participants `yaml:"participants"`

	// Protocols lists the protocols to compare, by name.
	Protocols []string `yaml:"protocols"`

	// Trials is the number of repetitions for multi-trial statistics.
	Trials int `yaml:"trials"`

	Output    Output    `yaml:"output"`
	Relay     Relay     `yaml:"relay"`
	Classical Classical `yaml:"classical"`
}

// Participants names the parties.
type Participants struct {
	Alice string `yaml:"alice"`
	Bob   string `yaml:"bob"`
	Eve   string `yaml:"eve"`
}

// Output says where logs go.
type Output struct {
	Dir           string `yaml:"dir"`
	ComparisonLog string `yaml:"comparison_log"`
	Records       string `yaml:"records"`
}

// Relay describes the multi-hop chain.
type Relay struct {
	Hops        []relay.Hop `yaml:"hops"`
	SourceRate  float64     `yaml:"source_rate"`
	LossDBPerKm float64     `yaml:"loss_db_per_km"`
}

// Classical parameterises the classical baseline.
type Classical struct {
	LinkDelayMs  float64 `yaml:"link_delay_ms"`
	PayloadBytes int     `yaml:"payload_bytes"`
}

// Default returns the stock scenario.
func Default() Config {
	return Config{
		Qubits:    1000,
		LossRate:  0.1,
		ErrorRate: 0.05,
		Seed:      42,
		Participants: Participants{
			Alice: qkd.DefaultAlice,
			Bob:   qkd.DefaultBob,
			Eve:   qkd.DefaultEve,
		},
		Protocols: []string{"BB84", "B92", "E91"},
		Trials:    10,
		Output: Output{
			Dir:           "results",
			ComparisonLog: "comparison_log.txt",
		},
		Relay: Relay{
			Hops:        relay.DefaultHops(),
			SourceRate:  relay.DefaultSourceRate,
			LossDBPerKm: relay.DefaultLossDBPerKm,
		},
		Classical: Classical{
			LinkDelayMs:  0.1,
			PayloadBytes: 1 << 20,
		},
	}
}

// Load reads the scenario at path over the defaults. An empty path returns
// the defaults.
func Load(path string) (Config, error) {
	if path == "" {
		return Default(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("reading config: %w", err)
	}
	cfg, err := Parse(bytes.NewReader(data))
	if err != nil {
		return Config{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes a YAML scenario over the defaults and validates it. Unknown
// keys are rejected.
func Parse(r io.Reader) (Config, error) {
	cfg := Default()
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("decoding config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Marshal encodes cfg as YAML.
func Marshal(cfg Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}

// Validate fails on the first invalid setting. Nothing is clamped.
func (c Config) Validate() error {
	if c.Qubits < 0 {
		return fmt.Errorf("qubits %d is negative: %w", c.Qubits, qkd.ErrInvalidConfig)
	}
	if !(c.LossRate >= 0 && c.LossRate <= 1) {
		return fmt.Errorf("loss_rate %v outside [0, 1]: %w", c.LossRate, qkd.ErrInvalidConfig)
	}
	if !(c.ErrorRate >= 0 && c.ErrorRate <= 1) {
		return fmt.Errorf("error_rate %v outside [0, 1]: %w", c.ErrorRate, qkd.ErrInvalidConfig)
	}
	if c.Trials < 1 {
		return fmt.Errorf("trials %d must be at least 1: %w", c.Trials, qkd.ErrInvalidConfig)
	}
	if len(c.Protocols) == 0 {
		return fmt.Errorf("no protocols selected: %w", qkd.ErrInvalidConfig)
	}
	if _, err := c.ProtocolList(); err != nil {
		return err
	}
	if len(c.Relay.Hops) == 0 {
		return fmt.Errorf("relay chain is empty: %w", qkd.ErrInvalidConfig)
	}
	for i, h := range c.Relay.Hops {
		if !(h.DelayMs >= 0) || math.IsInf(h.DelayMs, 0) {
			return fmt.Errorf("relay hop %d has delay %v ms: %w", i+1, h.DelayMs, qkd.ErrInvalidConfig)
		}
	}
	if c.Relay.SourceRate < 0 || c.Relay.LossDBPerKm < 0 {
		return fmt.Errorf("relay source_rate and loss_db_per_km must be non-negative: %w", qkd.ErrInvalidConfig)
	}
	if c.Classical.LinkDelayMs < 0 || c.Classical.PayloadBytes < 0 {
		return fmt.Errorf("classical link_delay_ms and payload_bytes must be non-negative: %w", qkd.ErrInvalidConfig)
	}
	if c.Output.ComparisonLog == "" {
		return fmt.Errorf("output.comparison_log is empty: %w", qkd.ErrInvalidConfig)
	}
	return nil
}

// ProtocolList resolves the configured protocol names.
func (c Config) ProtocolList() ([]qkd.Protocol, error) {
	ps := make([]qkd.Protocol, 0, len(c.Protocols))
	seen := make(map[qkd.Protocol]bool)
	for _, name := range c.Protocols {
		p, err := qkd.ParseProtocol(name)
		if err != nil {
			return nil, err
		}
		if seen[p] {
			return nil, fmt.Errorf("protocol %v listed twice: %w", p, qkd.ErrInvalidConfig)
		}
		seen[p] = true
		ps = append(ps, p)
	}
	return ps, nil
}

// QKDParticipants converts the configured names.
func (c Config) QKDParticipants() qkd.Participants {
	return qkd.Participants{Alice: c.Participants.Alice, Bob: c.Participants.Bob, Eve: c.Participants.Eve}
}

// LinkDelay returns the classical link delay as a Duration.
func (c Config) LinkDelay() time.Duration {
	return time.Duration(c.Classical.LinkDelayMs * float64(time.Millisecond))
}
