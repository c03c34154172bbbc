package qkd

import (
	"bytes"
	"math"
	"math/rand"
	"testing"

	"github.com/alan-christopher/qkdsim/qkd/bitmap"
	"gonum.org/v1/gonum/stat"
)

func TestBB84SiftingWithoutDisturbance(t *testing.T) {
	for _, n := range []int{0, 1, 7, 100, 4096} {
		for seed := int64(1); seed <= 5; seed++ {
			r := newRun(BB84, Opts{Qubits: n, Rand: rand.New(rand.NewSource(seed))})
			ex := r.exchangeBB84()

			matching := 0
			for i, q := range ex.sent {
				if q.Basis == ex.bobBases[i] {
					matching++
				}
			}
			if ex.sifted.Len() != matching {
				t.Errorf("n=%d seed=%d: sifted %d bits, want %d matching bases", n, seed, ex.sifted.Len(), matching)
			}
			if !bitmap.Equal(ex.sifted.alice, ex.sifted.bob) {
				t.Errorf("n=%d seed=%d: Alice and Bob disagree on sifted bits", n, seed)
			}
			if qber := errorRate(ex.sifted); qber != 0 {
				t.Errorf("n=%d seed=%d: error rate %v, want 0", n, seed, qber)
			}
			for i := 1; i < len(ex.sifted.positions); i++ {
				if ex.sifted.positions[i] <= ex.sifted.positions[i-1] {
					t.Fatalf("n=%d seed=%d: positions not strictly increasing at %d", n, seed, i)
				}
			}
		}
	}
}

func TestBB84SkipsLostQubits(t *testing.T) {
	r := newRun(BB84, Opts{Qubits: 2000, LossRate: 0.3, Rand: rand.New(rand.NewSource(11))})
	ex := r.exchangeBB84()
	for _, pos := range ex.sifted.positions {
		if ex.sent[pos].Lost {
			t.Fatalf("lost qubit at position %d made it into the sifted key", pos)
		}
	}
	if !bitmap.Equal(ex.sifted.alice, ex.sifted.bob) {
		t.Errorf("Alice and Bob disagree on sifted bits without noise")
	}
}

func TestBB84InterceptResendSignature(t *testing.T) {
	const (
		trials = 10
		qubits = 5000
	)
	var qbers []float64
	for i := 0; i < trials; i++ {
		res, _, err := RunBB84(Opts{
			Qubits:    qubits,
			Eavesdrop: true,
			Rand:      rand.New(rand.NewSource(int64(100 + i))),
		})
		if err != nil {
			t.Fatalf("trial %d: unexpected error: %v", i, err)
		}
		if res.Accepted {
			t.Errorf("trial %d: eavesdropped run accepted with error rate %v", i, res.ErrorRate)
		}
		if res.Reason != ReasonThreshold {
			t.Errorf("trial %d: reason %q, want %q", i, res.Reason, ReasonThreshold)
		}
		qbers = append(qbers, res.ErrorRate)
	}
	if mean := stat.Mean(qbers, nil); math.Abs(mean-0.25) > 0.02 {
		t.Errorf("mean error rate under intercept-resend = %.4f, want 0.25 ± 0.02", mean)
	}
}

func TestBB84Scenario(t *testing.T) {
	res, stats, err := RunBB84(Opts{
		Qubits:    1000,
		LossRate:  0.1,
		ErrorRate: 0.05,
		Rand:      Seeded(42),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Accepted {
		t.Fatalf("run aborted (%s) with error rate %v", res.Reason, res.ErrorRate)
	}
	if res.ErrorRate > BB84Threshold {
		t.Errorf("error rate %v above threshold", res.ErrorRate)
	}
	if want := int(math.Floor(AmplificationFactor * float64(res.RawKeyLength))); res.FinalKeyLength != want {
		t.Errorf("final key length %d, want %d", res.FinalKeyLength, want)
	}
	wantStates := []State{StateInit, StateTransmitted, StateMeasured, StateSifted, StateErrorEstimated, StateAccepted}
	if len(stats.States) != len(wantStates) {
		t.Fatalf("visited %v, want %v", stats.States, wantStates)
	}
	for i := range wantStates {
		if stats.States[i] != wantStates[i] {
			t.Errorf("state %d = %v, want %v", i, stats.States[i], wantStates[i])
		}
	}
	if stats.Correction.Skipped || stats.Correction.Blocks == 0 {
		t.Errorf("expected parity blocks to be checked, got %+v", stats.Correction)
	}
}

func TestDeterministicRecords(t *testing.T) {
	seq := []float64{0.12, 0.71, 0.43, 0.95, 0.28, 0.56, 0.03, 0.84}
	for _, p := range Protocols {
		for _, eve := range []bool{false, true} {
			var logs [2]bytes.Buffer
			var recs [2][]byte
			for i := range recs {
				res, _, err := Run(p, Opts{
					Qubits:    300,
					Eavesdrop: eve,
					ErrorRate: 0.05,
					LossRate:  0.1,
					Log:       &logs[i],
					Rand:      NewSequenceSource(seq...),
				})
				if err != nil {
					t.Fatalf("%v: unexpected error: %v", p, err)
				}
				recs[i] = MarshalResult(res)
			}
			if !bytes.Equal(recs[0], recs[1]) {
				t.Errorf("%v eve=%v: records differ: %x != %x", p, eve, recs[0], recs[1])
			}
			if !bytes.Equal(logs[0].Bytes(), logs[1].Bytes()) {
				t.Errorf("%v eve=%v: logs differ", p, eve)
			}
		}
	}
}
