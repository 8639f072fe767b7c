package fictitiousplay

import (
	"context"
	"math/rand"
	"sync"

	"github.com/pkg/errors"
	"github.com/timpalpant/go-cfr/sampling"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/oracle"
)

// EvaluationResult summarizes games between a hider strategy and a
// SampledGuesser.
type EvaluationResult struct {
	NumGames    int
	MeanGuesses float64
	MaxGuesses  int
	// Number of games that needed each number of guesses.
	Histogram map[int]int
}

// Evaluate plays numGames games in which the secret is drawn from hider and
// the Guesser plays guesser's mixed strategy. Games run on at most
// maxWorkers goroutines; game i uses its own rng seeded with seed+i, so the
// result does not depend on scheduling.
func Evaluate(ctx context.Context, m *jotto.FeedbackMatrix, hider []float64, guesser *oracle.SampledGuesser,
	numGames, maxWorkers int, seed int64) (*EvaluationResult, error) {
	if len(hider) != m.Len() {
		return nil, errors.Errorf("hider strategy has %d entries, expected %d", len(hider), m.Len())
	}
	if numGames < 1 {
		return nil, errors.Errorf("number of games must be positive, got %d", numGames)
	}
	if maxWorkers < 1 {
		return nil, errors.Errorf("number of workers must be positive, got %d", maxWorkers)
	}

	weights := make([]float32, len(hider))
	for i, p := range hider {
		weights[i] = float32(p)
	}

	result := &EvaluationResult{Histogram: make(map[int]int)}
	var wg sync.WaitGroup
	var mu sync.Mutex
	var retErr error
	sem := make(chan struct{}, maxWorkers)
	total := 0
	for i := 0; i < numGames; i++ {
		if err := ctx.Err(); err != nil {
			mu.Lock()
			if retErr == nil {
				retErr = err
			}
			mu.Unlock()
			break
		}

		sem <- struct{}{}
		wg.Add(1)
		go func(i int) {
			defer func() { <-sem }()
			defer wg.Done()

			rng := rand.New(rand.NewSource(seed + int64(i)))
			secret := sampling.SampleOne(weights, rng.Float32())
			n, err := SimulateGame(m, secret, func(state *jotto.GameState) (int, error) {
				guess, _, err := guesser.Guess(rng, state)
				return guess, err
			})

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if retErr == nil {
					retErr = err
				}
				return
			}

			result.NumGames++
			result.Histogram[n]++
			total += n
			if n > result.MaxGuesses {
				result.MaxGuesses = n
			}
		}(i)
	}

	wg.Wait()
	if retErr != nil {
		return nil, retErr
	}

	result.MeanGuesses = float64(total) / float64(result.NumGames)
	return result, nil
}
