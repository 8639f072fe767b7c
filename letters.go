package jotto

import (
	"math/bits"
	"strings"
)

// The number of distinct letters a word may be built from.
const NumLetters = 26

// LetterSet represents the unordered set of distinct letters in a word.
// Bit i is set if the letter 'a'+i is present, so every set fits in a uint32.
type LetterSet uint32

// NewLetterSet returns the set of letters in word and whether every byte
// of word was a lowercase ASCII letter.
func NewLetterSet(word string) (LetterSet, bool) {
	var s LetterSet
	for i := 0; i < len(word); i++ {
		c := word[i]
		if c < 'a' || c > 'z' {
			return s, false
		}
		s |= 1 << (c - 'a')
	}

	return s, true
}

// Contains returns whether the set contains the given letter.
func (s LetterSet) Contains(c byte) bool {
	if c < 'a' || c > 'z' {
		return false
	}
	return s&(1<<(c-'a')) != 0
}

// Intersect returns the letters present in both sets.
func (s LetterSet) Intersect(other LetterSet) LetterSet {
	return s & other
}

// Len gets the number of distinct letters in the set.
func (s LetterSet) Len() int {
	return bits.OnesCount32(uint32(s))
}

// String returns the letters of the set in alphabetical order. Two words are
// anagrams of each other iff they have the same String and length.
func (s LetterSet) String() string {
	var b strings.Builder
	for c := byte(0); c < NumLetters; c++ {
		if s&(1<<c) != 0 {
			b.WriteByte('a' + c)
		}
	}
	return b.String()
}
