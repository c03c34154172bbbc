package qkd

import (
	"fmt"

	"github.com/alan-christopher/qkdsim/qkd/photon"
)

// A bb84Exchange holds everything produced on the quantum channel during a
// BB84 run.
type bb84Exchange struct {
	sent     []photon.Qubit
	eve      *photon.Interception
	bobBases []photon.Basis
	bob      []photon.Measurement
	sifted   siftedKey
}

// RunBB84 performs one BB84 run: Alice sends Qubits random bits in random
// conjugate bases, Bob measures in random bases, and the two keep the
// positions where their bases agree. The run is accepted iff the error rate of
// the sifted key is at most BB84Threshold.
func RunBB84(opts Opts) (Result, Stats, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, Stats{}, fmt.Errorf("bb84: %w", err)
	}
	r := newRun(BB84, opts)
	ex := r.exchangeBB84()
	return r.finish(ex.sifted, nil)
}

func (r *run) exchangeBB84() bb84Exchange {
	var ex bb84Exchange
	ex.sent = photon.Prepare(r.opts.Qubits, r.opts.LossRate, r.src())
	r.machine.advance(StateTransmitted)

	inFlight := ex.sent
	if r.opts.Eavesdrop {
		ic := photon.Intercept(ex.sent, r.src())
		ex.eve = &ic
		inFlight = ic.Resent
	}

	ex.bobBases = photon.RandomBases(len(inFlight), r.src())
	ex.bob = photon.MeasureAll(inFlight, ex.bobBases, r.src())
	for i := range ex.bob {
		if ex.bob[i].Value.Conclusive() && ex.bobBases[i] == ex.sent[i].Basis {
			r.flipNoise(&ex.bob[i].Value)
		}
	}
	r.machine.advance(StateMeasured)

	ex.sifted = siftByBasis(ex.sent, ex.bobBases, ex.bob)
	r.machine.advance(StateSifted)

	r.recordQubits(ex.sent, ex.eve, ex.bobBases, ex.bob)
	return ex
}

// recordQubits fills in the statistics and transcript common to the
// prepare-and-measure protocols.
func (r *run) recordQubits(sent []photon.Qubit, eve *photon.Interception, bobBases []photon.Basis, bob []photon.Measurement) {
	for i, q := range sent {
		if q.Lost {
			r.stats.Lost++
		}
		if bob[i].Value.Conclusive() {
			r.stats.Conclusive++
		}
	}
	r.tr.lost = r.stats.Lost
	r.tr.conclusive = r.stats.Conclusive
	r.tr.sent = sent
	r.tr.bobBases = bobBases
	r.tr.bob = bob
	if eve != nil {
		r.tr.eveBases = eve.Bases
	}
}
