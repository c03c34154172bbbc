// Package photon models qubits carried by single photons: preparation by a
// sender, loss in the channel, interception by an eavesdropper, and
// measurement by a receiver. Nothing here tracks quantum amplitudes; every
// measurement rule is expressed directly as a probability over discrete
// outcomes.
package photon

// A Source provides uniformly distributed variates in [0, 1). A *math/rand.Rand
// satisfies it; tests may substitute a fixed sequence.
type Source interface {
	Float64() float64
}

// A Basis identifies one of the two conjugate polarisation bases.
type Basis uint8

const (
	// Rectilinear is the {0°, 90°} basis, written "+".
	Rectilinear Basis = iota
	// Diagonal is the {45°, 135°} basis, written "x".
	Diagonal
)

func (b Basis) String() string {
	if b == Diagonal {
		return "x"
	}
	return "+"
}

// Other returns the conjugate basis.
func (b Basis) Other() Basis {
	return 1 - b
}

// A Qubit is a record of a single prepared photon. Once handed to a receiver
// it is never mutated; an eavesdropper produces fresh records when resending.
type Qubit struct {
	Bit   uint8
	Basis Basis
	Lost  bool
}

// An Outcome is the result of a single measurement.
type Outcome int8

const (
	Zero Outcome = iota
	One
	Inconclusive
)

func (o Outcome) String() string {
	switch o {
	case Zero:
		return "0"
	case One:
		return "1"
	default:
		return "-"
	}
}

// Conclusive reports whether o carries a bit value.
func (o Outcome) Conclusive() bool {
	return o == Zero || o == One
}

// Bit returns the bit value of a conclusive outcome.
func (o Outcome) Bit() uint8 {
	if o == One {
		return 1
	}
	return 0
}

// Flipped returns the opposite bit for a conclusive outcome, and o unchanged
// otherwise.
func (o Outcome) Flipped() Outcome {
	switch o {
	case Zero:
		return One
	case One:
		return Zero
	default:
		return o
	}
}

// OutcomeOf converts a bit into a conclusive outcome.
func OutcomeOf(bit uint8) Outcome {
	if bit != 0 {
		return One
	}
	return Zero
}

// A Measurement is one party's result for the qubit at Position.
type Measurement struct {
	Value    Outcome
	Position int
}

// Coin returns a fair random bit drawn from src.
func Coin(src Source) uint8 {
	if src.Float64() < 0.5 {
		return 1
	}
	return 0
}

// Bernoulli returns true with probability p.
func Bernoulli(src Source, p float64) bool {
	return src.Float64() < p
}

// Index returns a uniformly chosen integer in [0, k).
func Index(src Source, k int) int {
	i := int(src.Float64() * float64(k))
	if i >= k {
		i = k - 1
	}
	return i
}

// RandomBases draws n independent, uniformly chosen bases.
func RandomBases(n int, src Source) []Basis {
	bases := make([]Basis, n)
	for i := range bases {
		bases[i] = Basis(Coin(src))
	}
	return bases
}
