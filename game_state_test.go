package jotto

import (
	"reflect"
	"testing"

	"github.com/pkg/errors"
)

var testWords = []string{"crane", "slate", "pious", "jumbo", "wight", "fjord", "blank", "shrew"}

func TestGameState_Reset(t *testing.T) {
	m := PrecomputeFeedbackMatrix(mustCorpus(t, testWords, 5))
	gs := NewGameState(m)
	if gs.NumPossible() != len(testWords) {
		t.Errorf("got %d possible words, expected %d", gs.NumPossible(), len(testWords))
	}

	if err := gs.Eliminate(0, 0); err != nil {
		t.Fatal(err)
	}
	gs.Reset()
	if gs.NumPossible() != len(testWords) {
		t.Errorf("after reset got %d possible words, expected %d", gs.NumPossible(), len(testWords))
	}
}

func TestGameState_Eliminate(t *testing.T) {
	c := mustCorpus(t, testWords, 5)
	m := PrecomputeFeedbackMatrix(c)
	gs := NewGameState(m)

	// "crane" shares no letters with pious, jumbo and wight only.
	if err := gs.Eliminate(0, 0); err != nil {
		t.Fatal(err)
	}
	expected := []int{2, 3, 4}
	if !reflect.DeepEqual(gs.PossibleIndices(), expected) {
		t.Errorf("got %v, expected %v", gs.PossibleIndices(), expected)
	}
	for _, i := range gs.PossibleIndices() {
		if m.Get(0, i) != 0 {
			t.Errorf("word %q kept with feedback %d", c.Word(i), m.Get(0, i))
		}
	}
}

func TestGameState_EliminateIsFilteringOnly(t *testing.T) {
	m := PrecomputeFeedbackMatrix(mustCorpus(t, testWords, 5))
	for guess := 0; guess < m.Len(); guess++ {
		for secret := 0; secret < m.Len(); secret++ {
			gs := NewGameState(m)
			for step := 0; step < m.Len(); step++ {
				g := (guess + step) % m.Len()
				before := gs.Clone()
				if err := gs.Eliminate(g, m.Get(g, secret)); err != nil {
					t.Fatalf("consistent feedback exhausted the state: %v", err)
				}

				for _, i := range gs.PossibleIndices() {
					if !before.IsPossible(i) {
						t.Errorf("word %d became possible after elimination", i)
					}
				}
				if !gs.IsPossible(secret) {
					t.Errorf("secret %d was eliminated by its own feedback", secret)
				}
			}
		}
	}
}

func TestGameState_Exhausted(t *testing.T) {
	m := PrecomputeFeedbackMatrix(mustCorpus(t, testWords, 5))
	gs := NewGameState(m)
	// No word shares exactly 4 letters with "crane".
	err := gs.Eliminate(0, 4)
	if errors.Cause(err) != ErrExhaustedState {
		t.Errorf("got error %v, expected %v", err, ErrExhaustedState)
	}
	if gs.NumPossible() != 0 {
		t.Errorf("got %d possible words, expected 0", gs.NumPossible())
	}
}

func TestGameState_EliminateInvalid(t *testing.T) {
	m := PrecomputeFeedbackMatrix(mustCorpus(t, testWords, 5))
	gs := NewGameState(m)
	if err := gs.Eliminate(0, 6); err == nil {
		t.Error("expected error for feedback above word length")
	}
	if err := gs.Eliminate(len(testWords), 0); err == nil {
		t.Error("expected error for guess out of range")
	}
	if gs.NumPossible() != len(testWords) {
		t.Error("invalid input should not change the state")
	}
}

func TestGameState_Key(t *testing.T) {
	m := PrecomputeFeedbackMatrix(mustCorpus(t, testWords, 5))
	a := NewGameState(m)
	b := NewGameState(m)
	if a.Key() != b.Key() {
		t.Error("identical states should have identical keys")
	}

	if err := a.Eliminate(0, 0); err != nil {
		t.Fatal(err)
	}
	if a.Key() == b.Key() {
		t.Error("different states should have different keys")
	}
}
