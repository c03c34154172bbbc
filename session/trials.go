package session

import (
	"context"
	"fmt"
	"io"
	"math"

	"github.com/alan-christopher/qkdsim/qkd"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"
)

// Confidence is the two-sided confidence level of TrialStats intervals.
const Confidence = 0.95

// TrialStats summarises repeated runs of one protocol.
type TrialStats struct {
	Protocol      qkd.Protocol
	Eavesdropping bool
	Trials        int

	MeanQBER   float64
	StdDevQBER float64

	// CILow and CIHigh bound the mean error rate at the Confidence level,
	// using Student's t distribution.
	CILow  float64
	CIHigh float64

	AcceptRate   float64
	DetectRate   float64
	MeanFinalKey float64
	MeanRawKey   float64
	Runs         []Run
}

// Trials repeats a run of p k times, each with its own derived seed, and
// summarises the error rates.
func (s *Session) Trials(ctx context.Context, p qkd.Protocol, eavesdrop bool, k int) (TrialStats, error) {
	if k < 1 {
		return TrialStats{}, fmt.Errorf("trials: count %d must be positive: %w", k, qkd.ErrInvalidConfig)
	}
	if _, err := qkd.ParseProtocol(p.String()); err != nil {
		return TrialStats{}, fmt.Errorf("trials: %w", err)
	}

	runs := make([]Run, k)
	g, gctx := errgroup.WithContext(ctx)
	if s.opts.Parallelism > 0 {
		g.SetLimit(s.opts.Parallelism)
	}
	for i := range runs {
		g.Go(func() error {
			r, err := s.run(gctx, p, eavesdrop, deriveSeed(s.opts.Seed, int64(p), boolCoord(eavesdrop), int64(i)+1))
			runs[i] = r
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return TrialStats{}, fmt.Errorf("trials of %v: %w", p, err)
	}

	ts := summarise(runs)
	ts.Protocol = p
	ts.Eavesdropping = eavesdrop
	s.log.Info("trials finished",
		zap.Stringer("protocol", p),
		zap.Bool("eavesdropping", eavesdrop),
		zap.Int("trials", k),
		zap.Float64("mean_qber", ts.MeanQBER),
		zap.Float64("ci_low", ts.CILow),
		zap.Float64("ci_high", ts.CIHigh),
		zap.Float64("accept_rate", ts.AcceptRate))
	return ts, nil
}

func summarise(runs []Run) TrialStats {
	k := len(runs)
	qbers := make([]float64, k)
	finals := make([]float64, k)
	raws := make([]float64, k)
	var accepted, detected int
	for i, r := range runs {
		qbers[i] = r.Result.ErrorRate
		finals[i] = float64(r.Result.FinalKeyLength)
		raws[i] = float64(r.Result.RawKeyLength)
		if r.Result.Accepted {
			accepted++
		}
		if r.Result.Detected() {
			detected++
		}
	}
	ts := TrialStats{
		Trials:       k,
		AcceptRate:   float64(accepted) / float64(k),
		DetectRate:   float64(detected) / float64(k),
		MeanFinalKey: stat.Mean(finals, nil),
		MeanRawKey:   stat.Mean(raws, nil),
		Runs:         runs,
	}
	if k == 1 {
		ts.MeanQBER = qbers[0]
		ts.CILow, ts.CIHigh = qbers[0], qbers[0]
		return ts
	}
	ts.MeanQBER, ts.StdDevQBER = stat.MeanStdDev(qbers, nil)
	t := distuv.StudentsT{Mu: 0, Sigma: 1, Nu: float64(k - 1)}.Quantile(1 - (1-Confidence)/2)
	half := t * ts.StdDevQBER / math.Sqrt(float64(k))
	ts.CILow, ts.CIHigh = ts.MeanQBER-half, ts.MeanQBER+half
	return ts
}

// WriteTrials renders a trial summary.
func WriteTrials(w io.Writer, ts TrialStats) error {
	eve := "None"
	if ts.Eavesdropping {
		eve = "Active"
	}
	_, err := fmt.Fprintf(w,
		"=== %v Trials ===\nEavesdropping: %s\nTrials: %d\nMean QBER: %.4f\nQBER std-dev: %.4f\n%.0f%% CI: [%.4f, %.4f]\nAcceptance rate: %.2f%%\nDetection rate: %.2f%%\nMean raw key length: %.1f bits\nMean final key length: %.1f bits\n",
		ts.Protocol, eve, ts.Trials, ts.MeanQBER, ts.StdDevQBER, 100*Confidence, ts.CILow, ts.CIHigh,
		100*ts.AcceptRate, 100*ts.DetectRate, ts.MeanRawKey, ts.MeanFinalKey)
	return err
}
