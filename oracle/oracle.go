// Package oracle computes best responses for both players of Jotto.
//
// The Hider's payoff for a secret is the number of guesses the Guesser needs
// to find it. The Hider best-responds to the time-averaged guess counts; the
// Guesser responds greedily to a Hider distribution by choosing the guess
// that eliminates the most candidates in expectation. Every function here is
// pure given its explicit inputs and is safe to call concurrently.
package oracle

import (
	"math/rand"

	"github.com/pkg/errors"
	"github.com/timpalpant/go-cfr/sampling"

	"github.com/timpalpant/jotto"
)

// HiderBestResponse returns the distribution that splits mass equally among
// all words attaining the maximum average number of guesses.
func HiderBestResponse(avgNumGuesses []float64) []float64 {
	result := make([]float64, len(avgNumGuesses))
	if len(avgNumGuesses) == 0 {
		return result
	}

	best := avgNumGuesses[0]
	for _, v := range avgNumGuesses[1:] {
		if v > best {
			best = v
		}
	}

	k := 0
	for _, v := range avgNumGuesses {
		if v == best {
			k++
		}
	}

	p := 1.0 / float64(k)
	for i, v := range avgNumGuesses {
		if v == best {
			result[i] = p
		}
	}

	return result
}

// GuesserResponse returns the possible word that maximizes the expected
// number of candidates eliminated, when the secret is drawn from hider
// restricted to the possible words. Ties go to the lowest index.
//
// The state must have at least one possible word: GuesserResponse panics
// with ErrExhaustedState otherwise. Callers that cannot guarantee this, such
// as interactive sessions, should use SampledGuesser or SampledResponse,
// which report it as an error.
func GuesserResponse(m *jotto.FeedbackMatrix, state *jotto.GameState, hider []float64) int {
	possible := allocIntSlice()
	possible = state.AppendPossibleIndices(possible)
	defer freeIntSlice(possible)
	if len(possible) == 0 {
		panic(jotto.ErrExhaustedState)
	}

	probs := make([]float64, m.WordLength()+1)
	counts := make([]int, m.WordLength()+1)
	bestGuess := possible[0]
	bestValue := -1.0
	for _, g := range possible {
		answerDistribution(m.Row(g), possible, hider, probs, counts)
		value := expectedEliminations(len(possible), probs, counts)
		if value > bestValue {
			bestValue = value
			bestGuess = g
		}
	}

	return bestGuess
}

// SampledResponse draws one hider strategy uniformly from history and
// returns the Guesser's response to it. Repeated calls thereby play the
// uniform mixture of the Guesser's responses over all training iterations.
// It returns ErrExhaustedState if no word is possible.
func SampledResponse(rng *rand.Rand, m *jotto.FeedbackMatrix, state *jotto.GameState, history [][]float64) (int, error) {
	if len(history) == 0 {
		return 0, errors.New("strategy history is empty")
	}
	if state.NumPossible() == 0 {
		return 0, jotto.ErrExhaustedState
	}

	weights := uniformWeights(len(history))
	selected := sampling.SampleOne(weights, rng.Float32())
	return GuesserResponse(m, state, history[selected]), nil
}

// AnswerDistribution returns, for each feedback value 0..WordLength, the
// probability of receiving it after guessing guess, given that the secret
// is drawn from hider restricted to the possible words. It is all zeros if
// hider puts no mass on any possible word.
func AnswerDistribution(m *jotto.FeedbackMatrix, state *jotto.GameState, hider []float64, guess int) []float64 {
	possible := state.PossibleIndices()
	probs := make([]float64, m.WordLength()+1)
	counts := make([]int, m.WordLength()+1)
	answerDistribution(m.Row(guess), possible, hider, probs, counts)
	return probs
}

// ExpectedEliminations returns the expected number of possible words that
// guessing guess rules out, under hider restricted to the possible words.
func ExpectedEliminations(m *jotto.FeedbackMatrix, state *jotto.GameState, hider []float64, guess int) float64 {
	possible := state.PossibleIndices()
	probs := make([]float64, m.WordLength()+1)
	counts := make([]int, m.WordLength()+1)
	answerDistribution(m.Row(guess), possible, hider, probs, counts)
	return expectedEliminations(len(possible), probs, counts)
}

// answerDistribution fills probs with the normalized hider mass per feedback
// value and counts with the number of possible words per feedback value.
func answerDistribution(row []uint8, possible []int, hider []float64, probs []float64, counts []int) {
	for f := range probs {
		probs[f] = 0
		counts[f] = 0
	}

	total := 0.0
	for _, i := range possible {
		f := row[i]
		probs[f] += hider[i]
		counts[f]++
		total += hider[i]
	}

	if total > 0 {
		for f := range probs {
			probs[f] /= total
		}
	}
}

func expectedEliminations(numPossible int, probs []float64, counts []int) float64 {
	result := 0.0
	for f, p := range probs {
		if p == 0 {
			continue
		}
		result += p * float64(numPossible-counts[f])
	}
	return result
}

// UniformDistribution returns the distribution with mass 1/n on each of n items.
func UniformDistribution(n int) []float64 {
	result := make([]float64, n)
	for i := range result {
		result[i] = 1.0 / float64(n)
	}
	return result
}

func uniformWeights(n int) []float32 {
	result := make([]float32, n)
	for i := range result {
		result[i] = 1.0 / float32(n)
	}
	return result
}
