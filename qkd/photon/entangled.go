package photon

import "math"

// Analyser angles, in radians, for the two E91 parties. Only equal angles
// yield key material; the remaining combinations feed the Bell test.
var (
	AliceAngles = [3]float64{0, math.Pi / 4, math.Pi / 2}
	BobAngles   = [3]float64{math.Pi / 4, math.Pi / 2, 3 * math.Pi / 4}
)

// A Pair is one entangled photon pair shared by Alice and Bob, with the
// analyser settings each chose for it.
type Pair struct {
	AliceAngle int
	BobAngle   int
	Lost       bool
}

// KeyGenerating reports whether both analysers were set to the same angle.
func (p Pair) KeyGenerating() bool {
	return AliceAngles[p.AliceAngle] == BobAngles[p.BobAngle]
}

// EmitPairs produces n pairs with independently uniform analyser settings on
// each side. Each pair is lost with probability pLoss.
func EmitPairs(n int, pLoss float64, src Source) []Pair {
	ps := make([]Pair, n)
	for i := range ps {
		ps[i].AliceAngle = Index(src, len(AliceAngles))
		ps[i].BobAngle = Index(src, len(BobAngles))
	}
	for i := range ps {
		ps[i].Lost = Bernoulli(src, pLoss)
	}
	return ps
}

// MeasurePairs returns both parties' raw outcomes. Alice's outcome is uniform.
// At equal angles Bob's outcome is anti-correlated with hers; at any other
// setting it is independent. Bob's outcome for a lost pair is inconclusive.
func MeasurePairs(ps []Pair, src Source) (alice, bob []Measurement) {
	alice = make([]Measurement, len(ps))
	bob = make([]Measurement, len(ps))
	for i, p := range ps {
		a := OutcomeOf(Coin(src))
		alice[i] = Measurement{Value: a, Position: i}
		bob[i].Position = i
		switch {
		case p.Lost:
			bob[i].Value = Inconclusive
		case p.KeyGenerating():
			bob[i].Value = a.Flipped()
		default:
			bob[i].Value = OutcomeOf(Coin(src))
		}
	}
	return alice, bob
}
