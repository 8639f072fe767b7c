package oracle

import (
	"math/rand"
	"strconv"

	"github.com/pkg/errors"
	"github.com/timpalpant/go-cfr/sampling"

	"github.com/timpalpant/jotto"
)

// SampledGuesser plays the Guesser's average strategy at play time: every
// guess responds to a hider strategy drawn uniformly from the training
// history. The history is never modified, so one SampledGuesser may serve
// many concurrent sessions as long as each brings its own rng and state.
type SampledGuesser struct {
	m       *jotto.FeedbackMatrix
	history [][]float64
	weights []float32
	cache   *ResponseCache
}

func NewSampledGuesser(m *jotto.FeedbackMatrix, history [][]float64, cacheSize int) (*SampledGuesser, error) {
	if len(history) == 0 {
		return nil, errors.New("strategy history is empty")
	}
	for i, s := range history {
		if len(s) != m.Len() {
			return nil, errors.Errorf("strategy %d has %d entries, expected %d", i, len(s), m.Len())
		}
	}

	cache, err := NewResponseCache(cacheSize)
	if err != nil {
		return nil, err
	}

	return &SampledGuesser{
		m:       m,
		history: history,
		weights: uniformWeights(len(history)),
		cache:   cache,
	}, nil
}

// NumStrategies returns the number of hider strategies sampled from.
func (sg *SampledGuesser) NumStrategies() int {
	return len(sg.history)
}

// Guess samples a hider strategy and returns the response to it, along with
// the index of the sampled strategy. It returns ErrExhaustedState if no word
// is possible.
func (sg *SampledGuesser) Guess(rng *rand.Rand, state *jotto.GameState) (int, int, error) {
	if state.NumPossible() == 0 {
		return 0, 0, jotto.ErrExhaustedState
	}

	selected := sampling.SampleOne(sg.weights, rng.Float32())
	key := strconv.Itoa(selected) + ":" + state.Key()
	guess := sg.cache.GetOrCompute(key, func() int {
		return GuesserResponse(sg.m, state, sg.history[selected])
	})

	return guess, selected, nil
}
