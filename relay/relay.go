// Package relay estimates how key rate degrades across a chain of trusted
// relays joined by optical fibre.
package relay

import (
	"fmt"
	"io"
	"math"

	"github.com/alan-christopher/qkdsim/qkd"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/floats"
)

const (
	// KmPerMs converts one-way propagation delay to fibre length.
	KmPerMs = 200.0

	// DefaultLossDBPerKm is the attenuation of standard telecom fibre.
	DefaultLossDBPerKm = 0.2

	// DefaultSourceRate is the raw key rate, in bits per second, of a link
	// with no attenuation.
	DefaultSourceRate = 1e6

	// WeakThreshold is the attenuation below which a link is reported as too
	// weak to carry useful key material.
	WeakThreshold = 1e-3
)

// A Hop is one fibre link of a relay chain.
type Hop struct {
	From    string  `yaml:"from"`
	To      string  `yaml:"to"`
	DelayMs float64 `yaml:"delay_ms"`
}

// DefaultHops is a three-hop chain from Alice to Bob through two relays.
func DefaultHops() []Hop {
	return []Hop{
		{From: qkd.DefaultAlice, To: "Relay1", DelayMs: 0.1},
		{From: "Relay1", To: "Relay2", DelayMs: 0.15},
		{From: "Relay2", To: qkd.DefaultBob, DelayMs: 0.1},
	}
}

// A Link is a Hop together with its derived figures.
type Link struct {
	Hop
	DistanceKm  float64
	Attenuation float64
	KeyRate     float64
	Weak        bool
}

// A Chain is the evaluated relay chain.
type Chain struct {
	Links []Link

	// Attenuation is the product of every link's attenuation.
	Attenuation float64

	// KeyRate is the slowest link's key rate divided by the number of hops.
	KeyRate float64
}

// Weak reports whether any link fell below WeakThreshold.
func (c Chain) Weak() bool {
	for _, l := range c.Links {
		if l.Weak {
			return true
		}
	}
	return false
}

// Opts packages together the parameters of a relay evaluation. Zero or nil
// values select the defaults.
type Opts struct {
	// SourceRate is the unattenuated key rate in bits per second.
	SourceRate float64

	// LossDBPerKm is the fibre attenuation in dB per km. Nil selects
	// DefaultLossDBPerKm; a zero value models lossless fibre.
	LossDBPerKm *float64

	// Log receives a human-readable report. May be nil.
	Log io.Writer

	// Logger receives weak-signal warnings. May be nil.
	Logger *zap.Logger
}

func (o Opts) withDefaults() Opts {
	if o.SourceRate == 0 {
		o.SourceRate = DefaultSourceRate
	}
	if o.LossDBPerKm == nil {
		db := DefaultLossDBPerKm
		o.LossDBPerKm = &db
	}
	if o.Logger == nil {
		o.Logger = zap.NewNop()
	}
	return o
}

func (o Opts) validate() error {
	if !(o.SourceRate > 0) || math.IsInf(o.SourceRate, 0) {
		return fmt.Errorf("source rate %v must be positive: %w", o.SourceRate, qkd.ErrInvalidConfig)
	}
	if db := *o.LossDBPerKm; !(db >= 0) || math.IsInf(db, 0) {
		return fmt.Errorf("fibre loss %v dB/km must be non-negative: %w", db, qkd.ErrInvalidConfig)
	}
	return nil
}

// LossCoefficient converts a loss in dB/km to the exponent k of
// e^(-k·distance).
func LossCoefficient(dbPerKm float64) float64 {
	return dbPerKm * math.Ln10 / 10
}

// Evaluate derives distance, attenuation and key rate for every hop and
// combines them into end-to-end figures. Weak links are reported but never
// stop the evaluation.
func Evaluate(hops []Hop, opts Opts) (Chain, error) {
	opts = opts.withDefaults()
	if err := opts.validate(); err != nil {
		return Chain{}, fmt.Errorf("relay: %w", err)
	}
	if len(hops) == 0 {
		return Chain{}, fmt.Errorf("relay: empty chain: %w", qkd.ErrInvalidConfig)
	}
	for i, h := range hops {
		if !(h.DelayMs >= 0) || math.IsInf(h.DelayMs, 0) {
			return Chain{}, fmt.Errorf("relay: hop %d (%s -> %s) has delay %v ms: %w",
				i+1, h.From, h.To, h.DelayMs, qkd.ErrInvalidConfig)
		}
	}

	k := LossCoefficient(*opts.LossDBPerKm)
	c := Chain{Links: make([]Link, len(hops))}
	atts := make([]float64, len(hops))
	rates := make([]float64, len(hops))
	for i, h := range hops {
		l := Link{Hop: h, DistanceKm: h.DelayMs * KmPerMs}
		l.Attenuation = math.Exp(-k * l.DistanceKm)
		l.KeyRate = opts.SourceRate * l.Attenuation
		l.Weak = l.Attenuation < WeakThreshold
		if l.Weak {
			opts.Logger.Warn("signal too weak",
				zap.Int("link", i+1),
				zap.String("from", h.From),
				zap.String("to", h.To),
				zap.Float64("attenuation", l.Attenuation))
		}
		c.Links[i] = l
		atts[i] = l.Attenuation
		rates[i] = l.KeyRate
	}
	c.Attenuation = floats.Prod(atts)
	c.KeyRate = floats.Min(rates) / float64(len(hops))

	if opts.Log != nil {
		if err := render(opts.Log, c); err != nil {
			return c, fmt.Errorf("writing relay log: %w", err)
		}
	}
	return c, nil
}
