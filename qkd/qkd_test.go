package qkd

import (
	"errors"
	"math"
	"testing"
)

func TestInvalidConfigConsumesNoRandomness(t *testing.T) {
	tcs := []struct {
		name string
		opts Opts
	}{
		{"negative qubits", Opts{Qubits: -1}},
		{"error rate above one", Opts{Qubits: 10, ErrorRate: 1.5}},
		{"negative error rate", Opts{Qubits: 10, ErrorRate: -0.1}},
		{"loss rate above one", Opts{Qubits: 10, LossRate: 2}},
		{"NaN loss rate", Opts{Qubits: 10, LossRate: math.NaN()}},
	}
	for _, tc := range tcs {
		for _, p := range Protocols {
			t.Run(tc.name+"/"+p.String(), func(t *testing.T) {
				src := NewSequenceSource(0.5)
				opts := tc.opts
				opts.Rand = src
				_, _, err := Run(p, opts)
				if !errors.Is(err, ErrInvalidConfig) {
					t.Errorf("Run() error = %v, want ErrInvalidConfig", err)
				}
				if src.Draws() != 0 {
					t.Errorf("Run() consumed %d variates before failing", src.Draws())
				}
			})
		}
	}
}

func TestNilRand(t *testing.T) {
	if _, _, err := RunBB84(Opts{Qubits: 10}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("RunBB84() error = %v, want ErrInvalidConfig", err)
	}
}

func TestZeroQubits(t *testing.T) {
	for _, p := range Protocols {
		for _, eve := range []bool{false, true} {
			res, stats, err := Run(p, Opts{Qubits: 0, Eavesdrop: eve, Rand: Seeded(1)})
			if err != nil {
				t.Fatalf("%v: unexpected error: %v", p, err)
			}
			if res.Accepted || res.RawKeyLength != 0 || res.FinalKeyLength != 0 {
				t.Errorf("%v: got %+v, want rejected empty result", p, res)
			}
			if res.Reason != ReasonInsufficientMaterial {
				t.Errorf("%v: reason = %q, want %q", p, res.Reason, ReasonInsufficientMaterial)
			}
			if res.ErrorRate != 0 {
				t.Errorf("%v: error rate = %v, want 0", p, res.ErrorRate)
			}
			if got := stats.States[len(stats.States)-1]; got != StateAborted {
				t.Errorf("%v: final state %v, want %v", p, got, StateAborted)
			}
		}
	}
}

func TestFullLossAborts(t *testing.T) {
	res, stats, err := RunBB84(Opts{Qubits: 500, LossRate: 1, Rand: Seeded(3)})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if stats.Lost != 500 {
		t.Errorf("lost %d qubits, want 500", stats.Lost)
	}
	if res.Accepted || res.Reason != ReasonInsufficientMaterial {
		t.Errorf("got %+v, want abort for insufficient key material", res)
	}
}

func TestUnknownProtocol(t *testing.T) {
	if _, _, err := Run(Protocol(42), Opts{Rand: Seeded(1)}); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("Run(42) error = %v, want ErrInvalidConfig", err)
	}
}

func TestParseProtocol(t *testing.T) {
	for _, p := range Protocols {
		got, err := ParseProtocol(p.String())
		if err != nil || got != p {
			t.Errorf("ParseProtocol(%q) = (%v, %v), want %v", p.String(), got, err, p)
		}
	}
	if got, err := ParseProtocol("bb84"); err != nil || got != BB84 {
		t.Errorf("ParseProtocol(\"bb84\") = (%v, %v), want BB84", got, err)
	}
	if _, err := ParseProtocol("SARG04"); !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("ParseProtocol(\"SARG04\") error = %v, want ErrInvalidConfig", err)
	}
}

func TestDetected(t *testing.T) {
	tcs := []struct {
		reason Reason
		want   bool
	}{
		{ReasonNone, false},
		{ReasonInsufficientMaterial, false},
		{ReasonThreshold, true},
		{ReasonBellSatisfied, true},
	}
	for _, tc := range tcs {
		if got := (Result{Reason: tc.reason}).Detected(); got != tc.want {
			t.Errorf("Detected() with reason %q == %v, want %v", tc.reason, got, tc.want)
		}
	}
}
