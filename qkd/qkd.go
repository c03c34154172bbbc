// Package qkd simulates quantum key distribution between two parties over a
// lossy, noisy channel, optionally in the presence of an intercept-resend
// eavesdropper. Three protocols are provided (BB84, B92 and E91); each shares
// the same pipeline of transmission, measurement, sifting, error estimation,
// an accept/abort decision and, on acceptance, error checking and privacy
// amplification.
//
// The model is discrete: qubits are records of (bit, basis, lost) and every
// measurement rule is a probability over classical outcomes. It says nothing
// about real photon transport.
package qkd

import (
	"errors"
	"fmt"
	"io"
	"math"
	"math/rand"
	"strings"

	"github.com/alan-christopher/qkdsim/qkd/photon"
)

// Acceptance thresholds on the sifted-key error rate. E91 has no numeric
// threshold; it is decided by its Bell test.
const (
	BB84Threshold = 0.15
	B92Threshold  = 0.12
)

// Default participant handles used when Opts leaves them blank.
const (
	DefaultAlice = "Alice"
	DefaultBob   = "Bob"
	DefaultEve   = "Eve"
)

// ErrInvalidConfig is returned, wrapped, for options that make no sense. It
// is always reported before any randomness is consumed.
var ErrInvalidConfig = errors.New("invalid configuration")

// A Source provides uniform variates in [0, 1).
type Source = photon.Source

// Seeded returns a deterministic Source derived from seed.
func Seeded(seed int64) Source {
	return rand.New(rand.NewSource(seed))
}

// A Protocol selects one of the supported key distribution schemes.
type Protocol int

const (
	BB84 Protocol = iota
	B92
	E91
)

// Protocols lists every supported protocol in reporting order.
var Protocols = []Protocol{BB84, B92, E91}

func (p Protocol) String() string {
	switch p {
	case BB84:
		return "BB84"
	case B92:
		return "B92"
	case E91:
		return "E91"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// ParseProtocol converts a protocol name, case-insensitively, to a Protocol.
func ParseProtocol(s string) (Protocol, error) {
	for _, p := range Protocols {
		if strings.EqualFold(s, p.String()) {
			return p, nil
		}
	}
	return 0, fmt.Errorf("unknown protocol %q: %w", s, ErrInvalidConfig)
}

// Threshold returns the maximum accepted error rate for p, or NaN for E91.
func (p Protocol) Threshold() float64 {
	switch p {
	case BB84:
		return BB84Threshold
	case B92:
		return B92Threshold
	default:
		return math.NaN()
	}
}

// Participants names the parties of a run for narration.
type Participants struct {
	Alice string
	Bob   string
	Eve   string
}

func (p Participants) withDefaults() Participants {
	if p.Alice == "" {
		p.Alice = DefaultAlice
	}
	if p.Bob == "" {
		p.Bob = DefaultBob
	}
	if p.Eve == "" {
		p.Eve = DefaultEve
	}
	return p
}

// Opts packages together the arguments of a single protocol run. Unlike most
// option structs, a zero Qubits is meaningful (a run with no key material),
// so nothing except the participant names is defaulted.
type Opts struct {
	Participants Participants

	// Log receives a human-readable narration of the run. May be nil.
	Log io.Writer

	// Eavesdrop places an intercept-resend attacker on the channel.
	Eavesdrop bool

	// ErrorRate is the probability that channel noise flips an otherwise
	// correct conclusive result. Must lie in [0, 1].
	ErrorRate float64

	// LossRate is the probability that a qubit never arrives. Must lie in
	// [0, 1].
	LossRate float64

	// Qubits is the number of qubits (or entangled pairs) to send. Must be
	// non-negative.
	Qubits int

	// Rand provides the run's randomness. Must be non-nil.
	Rand Source
}

// Validate reports the first invalid option, wrapping ErrInvalidConfig.
func (o Opts) Validate() error {
	if o.Qubits < 0 {
		return fmt.Errorf("qubit count %d is negative: %w", o.Qubits, ErrInvalidConfig)
	}
	if !isProbability(o.ErrorRate) {
		return fmt.Errorf("error rate %v outside [0, 1]: %w", o.ErrorRate, ErrInvalidConfig)
	}
	if !isProbability(o.LossRate) {
		return fmt.Errorf("loss rate %v outside [0, 1]: %w", o.LossRate, ErrInvalidConfig)
	}
	if o.Rand == nil {
		return fmt.Errorf("must provide Rand: %w", ErrInvalidConfig)
	}
	return nil
}

func isProbability(p float64) bool {
	return p >= 0 && p <= 1
}

// A Reason explains why a run was aborted.
type Reason string

const (
	ReasonNone                 Reason = ""
	ReasonInsufficientMaterial Reason = "insufficient key material"
	ReasonThreshold            Reason = "error rate above threshold"
	ReasonBellSatisfied        Reason = "bell inequality satisfied"
)

// A Result is the outcome of one protocol run.
type Result struct {
	Protocol       Protocol
	Eavesdropping  bool
	Accepted       bool
	ErrorRate      float64
	RawKeyLength   int
	FinalKeyLength int
	Reason         Reason
}

// Detected reports whether the run aborted for a reason that signals
// tampering, as opposed to simply running out of key material.
func (r Result) Detected() bool {
	return r.Reason == ReasonThreshold || r.Reason == ReasonBellSatisfied
}

// Stats packages together diagnostics about a run that are not part of its
// Result.
type Stats struct {
	Qubits int
	Lost   int

	// Conclusive counts the receiver's conclusive outcomes.
	Conclusive int

	// BellTestPairs counts surviving E91 pairs measured at non-key angles.
	BellTestPairs int
	BellViolated  bool

	Correction Correction
	States     []State
}

// Run dispatches to the entry point for p.
func Run(p Protocol, opts Opts) (Result, Stats, error) {
	switch p {
	case BB84:
		return RunBB84(opts)
	case B92:
		return RunB92(opts)
	case E91:
		return RunE91(opts)
	default:
		return Result{}, Stats{}, fmt.Errorf("running %v: %w", p, ErrInvalidConfig)
	}
}
