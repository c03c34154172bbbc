package qkd

import (
	"fmt"

	"github.com/alan-christopher/qkdsim/qkd/photon"
)

type e91Exchange struct {
	pairs  []photon.Pair
	alice  []photon.Measurement
	bob    []photon.Measurement
	sifted siftedKey
	bell   bellOutcome
}

// RunE91 performs one E91 run over entangled pairs. Equal analyser angles
// give key material; the other settings feed a Bell test, which is the only
// eavesdropping check. Interference with the pairs destroys the Bell
// violation, so an eavesdropped run always aborts.
//
// The Bell test is binary rather than an estimate of the CHSH value from the
// recorded outcomes.
func RunE91(opts Opts) (Result, Stats, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, Stats{}, fmt.Errorf("e91: %w", err)
	}
	r := newRun(E91, opts)
	ex := r.exchangeE91()
	return r.finish(ex.sifted, &ex.bell)
}

func (r *run) exchangeE91() e91Exchange {
	var ex e91Exchange
	ex.pairs = photon.EmitPairs(r.opts.Qubits, r.opts.LossRate, r.src())
	r.machine.advance(StateTransmitted)

	ex.alice, ex.bob = photon.MeasurePairs(ex.pairs, r.src())
	for i, p := range ex.pairs {
		if p.KeyGenerating() && ex.bob[i].Value.Conclusive() {
			r.flipNoise(&ex.bob[i].Value)
		}
	}
	r.machine.advance(StateMeasured)

	ex.sifted = siftPairs(ex.pairs, ex.alice, ex.bob)
	r.machine.advance(StateSifted)

	ex.bell = bellTest(ex.pairs, r.opts.Eavesdrop)

	for i, p := range ex.pairs {
		if p.Lost {
			r.stats.Lost++
		}
		if ex.bob[i].Value.Conclusive() {
			r.stats.Conclusive++
		}
	}
	r.tr.lost = r.stats.Lost
	r.tr.conclusive = r.stats.Conclusive
	r.tr.pairs = ex.pairs
	r.tr.aliceResults = ex.alice
	r.tr.bob = ex.bob
	return ex
}

// bellTest counts the surviving pairs measured at non-key angles and reports
// whether the Bell inequality is violated, which holds exactly when nobody
// disturbed the entanglement.
func bellTest(ps []photon.Pair, eavesdrop bool) bellOutcome {
	var b bellOutcome
	for _, p := range ps {
		if !p.Lost && !p.KeyGenerating() {
			b.pairs++
		}
	}
	b.violated = !eavesdrop
	return b
}
