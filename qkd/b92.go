package qkd

import (
	"fmt"

	"github.com/alan-christopher/qkdsim/qkd/photon"
)

type b92Exchange struct {
	sent     []photon.Qubit
	eve      *photon.Interception
	bobBases []photon.Basis
	bob      []photon.Measurement
	sifted   siftedKey
}

// RunB92 performs one B92 run. Alice encodes 0 and 1 in two non-orthogonal
// states; Bob keeps only the positions where his measurement was conclusive.
// The run is accepted iff the error rate of the sifted key is at most
// B92Threshold.
func RunB92(opts Opts) (Result, Stats, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, Stats{}, fmt.Errorf("b92: %w", err)
	}
	r := newRun(B92, opts)
	ex := r.exchangeB92()
	return r.finish(ex.sifted, nil)
}

func (r *run) exchangeB92() b92Exchange {
	var ex b92Exchange
	ex.sent = photon.PrepareStates(r.opts.Qubits, r.opts.LossRate, r.src())
	r.machine.advance(StateTransmitted)

	inFlight := ex.sent
	if r.opts.Eavesdrop {
		ic := photon.InterceptB92(ex.sent, r.src())
		ex.eve = &ic
		inFlight = ic.Resent
	}

	ex.bobBases = photon.RandomBases(len(inFlight), r.src())
	ex.bob = photon.MeasureAllB92(inFlight, ex.bobBases, r.src())
	for i := range ex.bob {
		if ex.bob[i].Value.Conclusive() {
			r.flipNoise(&ex.bob[i].Value)
		}
	}
	r.machine.advance(StateMeasured)

	ex.sifted = siftConclusive(ex.sent, ex.bob)
	r.machine.advance(StateSifted)

	r.recordQubits(ex.sent, ex.eve, ex.bobBases, ex.bob)
	return ex
}
