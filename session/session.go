// Package session runs batches of protocol simulations: side-by-side
// comparisons with and without an eavesdropper, and repeated trials for
// statistics.
package session

import (
	"fmt"
	"time"

	"github.com/alan-christopher/qkdsim/internal/telemetry"
	"github.com/alan-christopher/qkdsim/qkd"
	"go.uber.org/zap"
)

// Opts packages together the parameters shared by every run of a session.
type Opts struct {
	Protocols    []qkd.Protocol
	Participants qkd.Participants
	Qubits       int
	LossRate     float64
	ErrorRate    float64

	// Seed is the root from which each run's seed is derived.
	Seed int64

	// LinkDelay and PayloadBytes parameterise the classical baseline.
	LinkDelay    time.Duration
	PayloadBytes int

	// Parallelism bounds the number of concurrent runs. Zero means no bound.
	Parallelism int

	Logger  *zap.Logger
	Metrics *telemetry.Metrics
	Tracer  *telemetry.Tracer
}

// A Session runs simulations under a fixed set of options.
type Session struct {
	opts Opts
	log  *zap.Logger
}

// New validates opts and returns a Session. Engine parameters are checked up
// front so that no run starts under a configuration that would fail.
func New(opts Opts) (*Session, error) {
	if len(opts.Protocols) == 0 {
		return nil, fmt.Errorf("session: no protocols: %w", qkd.ErrInvalidConfig)
	}
	for _, p := range opts.Protocols {
		if _, err := qkd.ParseProtocol(p.String()); err != nil {
			return nil, fmt.Errorf("session: %w", err)
		}
	}
	if opts.Parallelism < 0 {
		return nil, fmt.Errorf("session: parallelism %d is negative: %w", opts.Parallelism, qkd.ErrInvalidConfig)
	}
	probe := qkd.Opts{
		Qubits:    opts.Qubits,
		LossRate:  opts.LossRate,
		ErrorRate: opts.ErrorRate,
		Rand:      qkd.Seeded(opts.Seed),
	}
	if err := probe.Validate(); err != nil {
		return nil, fmt.Errorf("session: %w", err)
	}
	if opts.LinkDelay < 0 || opts.PayloadBytes < 0 {
		return nil, fmt.Errorf("session: negative classical link delay or payload: %w", qkd.ErrInvalidConfig)
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	return &Session{opts: opts, log: opts.Logger}, nil
}

func (s *Session) engineOpts(eavesdrop bool, seed int64) qkd.Opts {
	return qkd.Opts{
		Participants: s.opts.Participants,
		Eavesdrop:    eavesdrop,
		ErrorRate:    s.opts.ErrorRate,
		LossRate:     s.opts.LossRate,
		Qubits:       s.opts.Qubits,
		Rand:         qkd.Seeded(seed),
	}
}

// deriveSeed mixes the root seed with the coordinates of a run so that
// every run of a session draws from an independent stream.
func deriveSeed(root int64, coords ...int64) int64 {
	x := uint64(root)
	for _, c := range coords {
		x = splitmix64(x ^ splitmix64(uint64(c)))
	}
	return int64(x >> 1)
}

func splitmix64(x uint64) uint64 {
	x += 0x9e3779b97f4a7c15
	x = (x ^ (x >> 30)) * 0xbf58476d1ce4e5b9
	x = (x ^ (x >> 27)) * 0x94d049bb133111eb
	return x ^ (x >> 31)
}

func boolCoord(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
