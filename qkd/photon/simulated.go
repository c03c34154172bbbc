package photon

// Prepare returns n qubits with independently uniform bits and bases. Each is
// marked lost with probability pLoss, drawn separately from its content so
// that loss carries no information about the encoded bit.
func Prepare(n int, pLoss float64, src Source) []Qubit {
	qs := make([]Qubit, n)
	for i := range qs {
		qs[i].Bit = Coin(src)
		qs[i].Basis = Basis(Coin(src))
	}
	for i := range qs {
		qs[i].Lost = Bernoulli(src, pLoss)
	}
	return qs
}

// PrepareStates is like Prepare, but encodes each bit in a fixed state per
// value, as B92 does: bit 0 in the rectilinear basis and bit 1 in the
// diagonal basis.
func PrepareStates(n int, pLoss float64, src Source) []Qubit {
	qs := make([]Qubit, n)
	for i := range qs {
		qs[i] = StateFor(Coin(src))
	}
	for i := range qs {
		qs[i].Lost = Bernoulli(src, pLoss)
	}
	return qs
}

// StateFor returns the B92 state encoding bit.
func StateFor(bit uint8) Qubit {
	return Qubit{Bit: bit, Basis: Basis(bit)}
}

// Measure measures q in basis b. A lost qubit is inconclusive. A matching
// basis recovers the encoded bit exactly; a mismatched basis yields a uniform
// random bit.
func Measure(q Qubit, b Basis, src Source) Outcome {
	if q.Lost {
		return Inconclusive
	}
	if q.Basis == b {
		return OutcomeOf(q.Bit)
	}
	return OutcomeOf(Coin(src))
}

// MeasureAll measures qs[i] in bases[i] for every i.
func MeasureAll(qs []Qubit, bases []Basis, src Source) []Measurement {
	ms := make([]Measurement, len(qs))
	for i, q := range qs {
		ms[i] = Measurement{Value: Measure(q, bases[i], src), Position: i}
	}
	return ms
}

// An Interception is what an intercept-resend eavesdropper leaves behind: her
// own measurements and the qubits she forwarded in place of the originals.
type Interception struct {
	Bases    []Basis
	Measured []Measurement
	Resent   []Qubit
}

// Intercept measures every surviving qubit in an independently chosen basis
// and resends the measured bit prepared in that basis. Lost qubits are skipped
// and stay lost.
func Intercept(qs []Qubit, src Source) Interception {
	ic := Interception{
		Bases:    make([]Basis, len(qs)),
		Measured: make([]Measurement, len(qs)),
		Resent:   make([]Qubit, len(qs)),
	}
	for i, q := range qs {
		ic.Measured[i].Position = i
		if q.Lost {
			ic.Measured[i].Value = Inconclusive
			ic.Resent[i] = Qubit{Lost: true}
			continue
		}
		b := Basis(Coin(src))
		v := Measure(q, b, src)
		ic.Bases[i] = b
		ic.Measured[i].Value = v
		ic.Resent[i] = Qubit{Bit: v.Bit(), Basis: b}
	}
	return ic
}
