package session

import (
	"bytes"
	"context"
	"fmt"

	"github.com/alan-christopher/qkdsim/classical"
	"github.com/alan-christopher/qkdsim/internal/telemetry"
	"github.com/alan-christopher/qkdsim/qkd"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// A Run is one completed protocol simulation.
type Run struct {
	ID     uuid.UUID
	Seed   int64
	Result qkd.Result
	Stats  qkd.Stats

	// Log is the run's narration.
	Log []byte
}

// A Comparison holds every run of Session.Compare.
type Comparison struct {
	Qubits    int
	LossRate  float64
	ErrorRate float64

	// Clean and Eavesdropped are indexed like the session's protocols.
	Clean        []Run
	Eavesdropped []Run

	// Classical holds the baseline without and with a listener.
	Classical [2]classical.Result
}

// Compare runs every protocol once without and once with an eavesdropper,
// plus the classical baseline. Runs are independent and execute
// concurrently; the returned Comparison is deterministic for a given seed.
func (s *Session) Compare(ctx context.Context) (Comparison, error) {
	ps := s.opts.Protocols
	c := Comparison{
		Qubits:       s.opts.Qubits,
		LossRate:     s.opts.LossRate,
		ErrorRate:    s.opts.ErrorRate,
		Clean:        make([]Run, len(ps)),
		Eavesdropped: make([]Run, len(ps)),
	}

	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Parallelism > 0 {
		g.SetLimit(s.opts.Parallelism)
	}
	for i, p := range ps {
		g.Go(func() error {
			r, err := s.run(gctx, p, false, deriveSeed(s.opts.Seed, int64(p), 0))
			c.Clean[i] = r
			return err
		})
		g.Go(func() error {
			r, err := s.run(gctx, p, true, deriveSeed(s.opts.Seed, int64(p), 1))
			c.Eavesdropped[i] = r
			return err
		})
	}
	for i, eve := range []bool{false, true} {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := classical.Exchange(classical.Opts{
				Participants: s.opts.Participants,
				Eavesdrop:    eve,
				LinkDelay:    s.opts.LinkDelay,
				PayloadBytes: s.opts.PayloadBytes,
				Rand:         qkd.Seeded(deriveSeed(s.opts.Seed, -1, boolCoord(eve))),
			})
			if err != nil {
				return err
			}
			s.opts.Metrics.ObserveClassical(res)
			c.Classical[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return Comparison{}, fmt.Errorf("comparing protocols: %w", err)
	}
	return c, nil
}

// run performs one traced, logged protocol run with its own source and log
// buffer.
func (s *Session) run(ctx context.Context, p qkd.Protocol, eavesdrop bool, seed int64) (Run, error) {
	if err := ctx.Err(); err != nil {
		return Run{}, err
	}
	r := Run{ID: uuid.New(), Seed: seed}
	ctx, end := s.opts.Tracer.StartRun(ctx, r.ID.String(), p, eavesdrop)

	var buf bytes.Buffer
	opts := s.engineOpts(eavesdrop, seed)
	opts.Log = &buf
	res, stats, err := qkd.Run(p, opts)
	if err == nil {
		telemetry.AnnotateRun(ctx, res)
	}
	end(err)
	if err != nil {
		return Run{}, fmt.Errorf("run %s: %w", r.ID, err)
	}
	r.Result, r.Stats, r.Log = res, stats, buf.Bytes()

	s.opts.Metrics.ObserveRun(res)
	s.log.Debug("run finished",
		zap.Stringer("id", r.ID),
		zap.Stringer("protocol", p),
		zap.Bool("eavesdropping", eavesdrop),
		zap.Bool("accepted", res.Accepted),
		zap.Float64("qber", res.ErrorRate),
		zap.Int("raw_key_bits", res.RawKeyLength),
		zap.Int("final_key_bits", res.FinalKeyLength),
		zap.String("reason", string(res.Reason)))
	return r, nil
}
