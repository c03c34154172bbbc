package photon

// ConclusiveProbability is the chance that a B92 measurement in the basis
// conjugate to the incoming state gives the outcome that rules the other state
// out. It is a fixed policy constant rather than a function of state overlap.
const ConclusiveProbability = 0.5

// MeasureB92 performs the unambiguous B92 measurement of q in basis b. When b
// matches the state's basis the result can always have come from either state
// and is inconclusive. Otherwise, with ConclusiveProbability, the result
// excludes the state prepared in b, revealing the bit encoded in the other
// basis.
func MeasureB92(q Qubit, b Basis, src Source) Outcome {
	if q.Lost || q.Basis == b {
		return Inconclusive
	}
	if !Bernoulli(src, ConclusiveProbability) {
		return Inconclusive
	}
	return OutcomeOf(uint8(b.Other()))
}

// MeasureAllB92 applies MeasureB92 position by position.
func MeasureAllB92(qs []Qubit, bases []Basis, src Source) []Measurement {
	ms := make([]Measurement, len(qs))
	for i, q := range qs {
		ms[i] = Measurement{Value: MeasureB92(q, bases[i], src), Position: i}
	}
	return ms
}

// InterceptB92 is the B92 analogue of Intercept. Eve performs the same
// unambiguous measurement as Bob; a conclusive result lets her resend the
// right state, otherwise she has to guess.
func InterceptB92(qs []Qubit, src Source) Interception {
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
		v := MeasureB92(q, b, src)
		ic.Bases[i] = b
		ic.Measured[i].Value = v
		if v.Conclusive() {
			ic.Resent[i] = StateFor(v.Bit())
		} else {
			ic.Resent[i] = StateFor(Coin(src))
		}
	}
	return ic
}
