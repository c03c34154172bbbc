package qkd

import (
	"github.com/alan-christopher/qkdsim/qkd/bitmap"
	"github.com/alan-christopher/qkdsim/qkd/photon"
)

// A siftedKey holds the position-aligned key material kept by both parties
// after reconciliation. Positions are strictly increasing.
type siftedKey struct {
	positions []int
	alice     bitmap.Dense
	bob       bitmap.Dense
}

func (k siftedKey) Len() int {
	return len(k.positions)
}

func (k *siftedKey) keep(pos int, aliceBit, bobBit uint8) {
	k.positions = append(k.positions, pos)
	k.alice.AppendBit(aliceBit == 1)
	k.bob.AppendBit(bobBit == 1)
}

// siftByBasis keeps the positions at which Bob detected the qubit and chose
// the basis Alice prepared it in.
func siftByBasis(sent []photon.Qubit, bobBases []photon.Basis, bob []photon.Measurement) siftedKey {
	var k siftedKey
	for i, q := range sent {
		m := bob[i]
		if !m.Value.Conclusive() || bobBases[i] != q.Basis {
			continue
		}
		k.keep(i, q.Bit, m.Value.Bit())
	}
	return k
}

// siftConclusive keeps every position at which Bob's result was conclusive.
func siftConclusive(sent []photon.Qubit, bob []photon.Measurement) siftedKey {
	var k siftedKey
	for i, q := range sent {
		m := bob[i]
		if !m.Value.Conclusive() {
			continue
		}
		k.keep(i, q.Bit, m.Value.Bit())
	}
	return k
}

// siftPairs keeps the key-generating pairs Bob detected. Bob's outcomes at
// equal angles are anti-correlated with Alice's, so he inverts them.
func siftPairs(ps []photon.Pair, alice, bob []photon.Measurement) siftedKey {
	var k siftedKey
	for i, p := range ps {
		m := bob[i]
		if !p.KeyGenerating() || !m.Value.Conclusive() {
			continue
		}
		k.keep(i, alice[i].Value.Bit(), m.Value.Flipped().Bit())
	}
	return k
}

// errorRate returns the fraction of sifted positions at which the parties
// disagree, defined as 0 for an empty key.
func errorRate(k siftedKey) float64 {
	if k.Len() == 0 {
		return 0
	}
	diff, err := bitmap.Differences(k.alice, k.bob)
	if err != nil {
		// keep() always appends to both sides.
		panic(err)
	}
	return float64(diff) / float64(k.Len())
}
