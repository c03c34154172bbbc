package qkd

// A SequenceSource replays a fixed list of variates, starting over once the
// list is exhausted. It makes runs reproducible without depending on a
// particular pseudo-random generator.
type SequenceSource struct {
	vals []float64
	next int
}

// NewSequenceSource returns a SequenceSource cycling through vals, which must
// be non-empty and lie in [0, 1). It panics if vals is empty.
func NewSequenceSource(vals ...float64) *SequenceSource {
	if len(vals) == 0 {
		panic("qkd: SequenceSource needs at least one value")
	}
	return &SequenceSource{vals: vals}
}

// Float64 implements Source.
func (s *SequenceSource) Float64() float64 {
	v := s.vals[s.next%len(s.vals)]
	s.next++
	return v
}

// Draws returns the number of variates handed out so far.
func (s *SequenceSource) Draws() int {
	return s.next
}
