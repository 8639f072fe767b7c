package fictitiousplay

import (
	"context"
	"expvar"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/oracle"
)

var gamesSimulated = expvar.NewInt("fictitious_play/games_simulated")

// ResponseFunc chooses the next guess for a game state.
type ResponseFunc func(state *jotto.GameState) (int, error)

// SimulateGame plays a full game against the given secret and returns the
// number of guesses needed, including the final correct one.
func SimulateGame(m *jotto.FeedbackMatrix, secret int, respond ResponseFunc) (int, error) {
	state := jotto.NewGameState(m)
	for n := 1; n <= m.Len(); n++ {
		guess, err := respond(state)
		if err != nil {
			return n, errors.Wrapf(err, "secret %d, choosing guess number %d", secret, n)
		}

		feedback := m.Get(guess, secret)
		if feedback == m.WordLength() {
			return n, nil
		}

		if err := state.Eliminate(guess, feedback); err != nil {
			return n, errors.Wrapf(err, "secret %d, guess %d", secret, guess)
		}
	}

	return m.Len(), errors.Errorf("secret %d not found after %d guesses", secret, m.Len())
}

// SimulateAll plays one game per corpus word against the Guesser's response
// to hider, using at most maxWorkers goroutines. The returned slice holds
// the number of guesses for each secret. hider is only read, never written.
func SimulateAll(ctx context.Context, m *jotto.FeedbackMatrix, hider []float64, maxWorkers, cacheSize int) ([]float64, error) {
	// Every game starts from the same state and the guesser is deterministic,
	// so games share their opening guesses through the cache.
	cache, err := oracle.NewResponseCache(cacheSize)
	if err != nil {
		return nil, err
	}
	respond := func(state *jotto.GameState) (int, error) {
		guess := cache.GetOrCompute(state.Key(), func() int {
			return oracle.GuesserResponse(m, state, hider)
		})
		return guess, nil
	}

	result := make([]float64, m.Len())
	g, gCtx := errgroup.WithContext(ctx)
	g.SetLimit(maxWorkers)
	for secret := range result {
		secret := secret
		g.Go(func() error {
			if err := gCtx.Err(); err != nil {
				return err
			}

			n, err := SimulateGame(m, secret, respond)
			if err != nil {
				return err
			}

			result[secret] = float64(n)
			gamesSimulated.Add(1)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	return result, nil
}
