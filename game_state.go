package jotto

import (
	"github.com/pkg/errors"
)

// GameState tracks which words are still consistent with the feedback
// received so far in one play session. The possible set only ever shrinks
// until Reset. A GameState is not safe for concurrent use; each session or
// simulated game owns its own.
type GameState struct {
	m           *FeedbackMatrix
	possible    []bool
	numPossible int
}

// NewGameState returns a state in which every word is possible.
func NewGameState(m *FeedbackMatrix) *GameState {
	gs := &GameState{
		m:        m,
		possible: make([]bool, m.Len()),
	}
	gs.Reset()
	return gs
}

// Reset marks every word as possible again.
func (gs *GameState) Reset() {
	for i := range gs.possible {
		gs.possible[i] = true
	}
	gs.numPossible = len(gs.possible)
}

// Eliminate keeps exactly the possible words i for which guessing guess
// would have produced the given feedback if i were the secret.
//
// If no word survives, the (empty) state is kept and ErrExhaustedState is
// returned: the feedback history is contradictory.
func (gs *GameState) Eliminate(guess, feedback int) error {
	if guess < 0 || guess >= len(gs.possible) {
		return errors.Errorf("guess index %d out of range [0, %d)", guess, len(gs.possible))
	}
	if feedback < 0 || feedback > gs.m.WordLength() {
		return errors.Errorf("feedback %d out of range [0, %d]", feedback, gs.m.WordLength())
	}

	row := gs.m.Row(guess)
	n := 0
	for i, ok := range gs.possible {
		if !ok {
			continue
		}

		if int(row[i]) == feedback {
			n++
		} else {
			gs.possible[i] = false
		}
	}

	gs.numPossible = n
	if n == 0 {
		return ErrExhaustedState
	}

	return nil
}

// IsPossible returns whether word i is still consistent with all feedback.
func (gs *GameState) IsPossible(i int) bool {
	return gs.possible[i]
}

// NumPossible returns the number of words still possible.
func (gs *GameState) NumPossible() int {
	return gs.numPossible
}

// PossibleIndices returns the indices of the words still possible,
// in increasing order.
func (gs *GameState) PossibleIndices() []int {
	return gs.AppendPossibleIndices(make([]int, 0, gs.numPossible))
}

// AppendPossibleIndices appends the possible indices to buf, so that
// callers in a hot loop can reuse their slice.
func (gs *GameState) AppendPossibleIndices(buf []int) []int {
	for i, ok := range gs.possible {
		if ok {
			buf = append(buf, i)
		}
	}
	return buf
}

// Len returns the number of words in the corpus the state was built over.
func (gs *GameState) Len() int {
	return len(gs.possible)
}

// Clone returns an independent copy of the state.
func (gs *GameState) Clone() *GameState {
	result := &GameState{
		m:           gs.m,
		possible:    make([]bool, len(gs.possible)),
		numPossible: gs.numPossible,
	}
	copy(result.possible, gs.possible)
	return result
}

// Key returns a compact string identifying the possible set, suitable as a
// map or cache key.
func (gs *GameState) Key() string {
	buf := make([]byte, (len(gs.possible)+7)/8)
	for i, ok := range gs.possible {
		if ok {
			buf[i/8] |= 1 << uint(i%8)
		}
	}
	return string(buf)
}
