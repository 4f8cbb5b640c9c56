package dice

import "sync"

// Sequence is a deterministic Source that replays a fixed list of values,
// wrapping around when exhausted. Used for replays and tests.
type Sequence struct {
	mu     sync.Mutex
	values []float64
	next   int
}

// NewSequence returns a Sequence that yields values in order.
//
// Precondition: every value is in [0, 1); at least one value is supplied.
func NewSequence(values ...float64) *Sequence {
	if len(values) == 0 {
		panic("dice: NewSequence requires at least one value")
	}
	cp := make([]float64, len(values))
	copy(cp, values)
	return &Sequence{values: cp}
}

// Float64 returns the next value of the sequence.
func (s *Sequence) Float64() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	v := s.values[s.next]
	s.next = (s.next + 1) % len(s.values)
	return v
}

// Draws reports how many values have been consumed modulo the sequence length.
func (s *Sequence) Draws() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.next
}
