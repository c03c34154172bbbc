package qkd

import (
	"fmt"

	"github.com/alan-christopher/qkdsim/qkd/bitmap"
	"github.com/alan-christopher/qkdsim/qkd/photon"
)

// A run is the context of a single protocol invocation. It is owned by the
// caller's goroutine and discarded when the invocation returns.
type run struct {
	proto   Protocol
	opts    Opts
	machine *stateMachine
	stats   Stats
	tr      transcript
}

func newRun(p Protocol, opts Opts) *run {
	opts.Participants = opts.Participants.withDefaults()
	return &run{
		proto:   p,
		opts:    opts,
		machine: newStateMachine(),
		stats:   Stats{Qubits: opts.Qubits},
		tr: transcript{
			protocol:     p,
			participants: opts.Participants,
			eavesdrop:    opts.Eavesdrop,
			qubits:       opts.Qubits,
			lossRate:     opts.LossRate,
			errorRate:    opts.ErrorRate,
			threshold:    p.Threshold(),
		},
	}
}

func (r *run) src() Source {
	return r.opts.Rand
}

// flipNoise flips a conclusive outcome with the configured channel error rate.
func (r *run) flipNoise(v *photon.Outcome) {
	if photon.Bernoulli(r.src(), r.opts.ErrorRate) {
		*v = v.Flipped()
	}
}

// A bellOutcome is the result of E91's Bell inequality check.
type bellOutcome struct {
	pairs    int
	violated bool
}

// finish estimates the error rate of k, decides, and on acceptance runs the
// parity check and privacy amplification. bell is nil for protocols decided
// on a numeric threshold.
func (r *run) finish(k siftedKey, bell *bellOutcome) (Result, Stats, error) {
	qber := errorRate(k)
	r.machine.advance(StateErrorEstimated)

	res := Result{
		Protocol:      r.proto,
		Eavesdropping: r.opts.Eavesdrop,
		ErrorRate:     qber,
		RawKeyLength:  k.Len(),
	}
	if bell != nil {
		// E91 reports no numeric error rate.
		res.ErrorRate = 0
		r.stats.BellTestPairs = bell.pairs
		r.stats.BellViolated = bell.violated
	}

	switch {
	case k.Len() == 0:
		res.Reason = ReasonInsufficientMaterial
	case bell != nil && !bell.violated:
		res.Reason = ReasonBellSatisfied
	case bell == nil && qber > r.proto.Threshold():
		res.Reason = ReasonThreshold
	}

	if res.Reason != ReasonNone {
		r.machine.advance(StateAborted)
	} else {
		r.machine.advance(StateAccepted)
		corr, err := checkParity(k, ParityBlockSize)
		if err != nil {
			return Result{}, Stats{}, fmt.Errorf("%v error correction: %w", r.proto, err)
		}
		r.stats.Correction = corr
		res.Accepted = true
		res.FinalKeyLength = amplify(k.Len())
	}
	r.stats.States = r.machine.history()

	r.tr.sifted = k.Len()
	r.tr.siftedKey = bitmap.Prefix(k.alice, DumpPrefix)
	r.tr.qber = res.ErrorRate
	r.tr.bell = bell
	r.tr.correction = r.stats.Correction
	r.tr.result = res
	if r.opts.Log != nil {
		if err := r.tr.render(r.opts.Log); err != nil {
			return res, r.stats, fmt.Errorf("writing %v log: %w", r.proto, err)
		}
	}
	return res, r.stats, nil
}
