package jotto

import (
	"github.com/pkg/errors"
)

var (
	// ErrMissingArtifact is returned when a precomputed input (corpus or
	// feedback matrix) is not present on disk. The precompute step must be
	// run before training or play.
	ErrMissingArtifact = errors.New("missing precomputed artifact")
	// ErrExhaustedState is returned by GameState.Eliminate when no word is
	// consistent with the feedback received so far.
	ErrExhaustedState = errors.New("no words consistent with feedback")
)
