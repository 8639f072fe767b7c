package fictitiousplay

import (
	"context"
	"math"
	"math/rand"
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/oracle"
)

func newTestMatrix(tb testing.TB, words []string, wordLength int) *jotto.FeedbackMatrix {
	c, err := jotto.NewCorpus(words, wordLength)
	if err != nil {
		tb.Fatal(err)
	}
	return jotto.PrecomputeFeedbackMatrix(c)
}

// wordsFromAlphabet returns every 3-letter word with increasing letters
// drawn from the first n letters of the alphabet.
func wordsFromAlphabet(n int) []string {
	var words []string
	for i := byte(0); i < byte(n); i++ {
		for j := i + 1; j < byte(n); j++ {
			for k := j + 1; k < byte(n); k++ {
				words = append(words, string([]byte{'a' + i, 'a' + j, 'a' + k}))
			}
		}
	}
	return words
}

func testConfig(wordLength, iterations int) jotto.Config {
	cfg := jotto.DefaultConfig()
	cfg.WordLength = wordLength
	cfg.NumIterations = iterations
	cfg.MaxParallelGames = 4
	cfg.ResponseCacheSize = 1000
	cfg.CheckpointDir = ""
	return cfg
}

func TestFictitiousPlay_BetCatDog(t *testing.T) {
	// Feedback matrix: bet/cat share "t"; dog shares nothing.
	//   [[3 1 0]
	//    [1 3 0]
	//    [0 0 3]]
	// With a uniform (and later {cat, dog}) hider, bet and cat tie at 2
	// expected eliminations and the tie goes to bet. So bet is found in one
	// guess and cat, dog in two, at every iteration.
	m := newTestMatrix(t, []string{"bet", "cat", "dog"}, 3)
	s, err := NewSolver(testConfig(3, 2), m)
	if err != nil {
		t.Fatal(err)
	}

	ckpt, err := s.Run(context.Background())
	if err != nil {
		t.Fatal(err)
	}

	if ckpt.Iteration != 2 {
		t.Errorf("completed %d iterations, expected 2", ckpt.Iteration)
	}
	if expected := []float64{1, 2, 2}; !reflect.DeepEqual(ckpt.AvgNumGuesses, expected) {
		t.Errorf("average guesses: got %v, expected %v", ckpt.AvgNumGuesses, expected)
	}
	if expected := []float64{0, 0.5, 0.5}; !reflect.DeepEqual(ckpt.HiderStrategy, expected) {
		t.Errorf("hider strategy: got %v, expected %v", ckpt.HiderStrategy, expected)
	}
	// Best response against [1 2 2] at both iterations.
	expectedHistory := [][]float64{oracle.UniformDistribution(3), {0, 0.5, 0.5}, {0, 0.5, 0.5}}
	if !reflect.DeepEqual(ckpt.StrategyHistory, expectedHistory) {
		t.Errorf("strategy history: got %v, expected %v", ckpt.StrategyHistory, expectedHistory)
	}
	// Hider gap is 0; Guesser gap is 2 - 1 = 1.
	if expected := []float64{1, 1}; !reflect.DeepEqual(ckpt.EpsilonHistory, expected) {
		t.Errorf("epsilon history: got %v, expected %v", ckpt.EpsilonHistory, expected)
	}
	if eps, iter := s.BestEpsilon(); eps != 1 || iter != 1 {
		t.Errorf("best epsilon %v at iteration %d, expected 1 at iteration 1", eps, iter)
	}
	if s.Status() != Completed {
		t.Errorf("status %v, expected %v", s.Status(), Completed)
	}
}

func TestSolver_StrategyHistoryHoldsBestResponses(t *testing.T) {
	m := newTestMatrix(t, wordsFromAlphabet(6), 3)
	s, err := NewSolver(testConfig(3, 3), m)
	if err != nil {
		t.Fatal(err)
	}

	ctx := context.Background()
	for i := 0; i < 3; i++ {
		if err := s.Step(ctx); err != nil {
			t.Fatal(err)
		}

		ckpt := s.Checkpoint()
		iter := ckpt.Iteration
		expected := oracle.HiderBestResponse(ckpt.AvgNumGuesses)
		if got := ckpt.StrategyHistory[iter]; !reflect.DeepEqual(got, expected) {
			t.Errorf("iteration %d: history entry %v, expected best response %v", iter, got, expected)
		}

		// The Hider's average strategy is the mean of its best responses.
		for w := range ckpt.HiderStrategy {
			total := 0.0
			for _, br := range ckpt.StrategyHistory[1:] {
				total += br[w]
			}
			if mean := total / float64(iter); math.Abs(ckpt.HiderStrategy[w]-mean) > 1e-12 {
				t.Errorf("iteration %d, word %d: average strategy %v, mean of best responses %v",
					iter, w, ckpt.HiderStrategy[w], mean)
			}
		}
	}

	if !reflect.DeepEqual(s.Checkpoint().StrategyHistory[0], oracle.UniformDistribution(m.Len())) {
		t.Errorf("first history entry is not uniform: %v", s.Checkpoint().StrategyHistory[0])
	}
}

func TestUpdateRunningMean(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	const n = 5
	for trial := 0; trial < 20; trial++ {
		steps := 1 + rng.Intn(50)
		avg := make([]float64, n)
		sum := make([]float64, n)
		for step := 1; step <= steps; step++ {
			x := make([]float64, n)
			for i := range x {
				x[i] = float64(1 + rng.Intn(10))
				sum[i] += x[i]
			}
			avg = UpdateRunningMean(avg, x, step)

			for i := range avg {
				if expected := sum[i] / float64(step); math.Abs(avg[i]-expected) > 1e-9 {
					t.Errorf("after %d steps: running mean %v, arithmetic mean %v", step, avg[i], expected)
				}
			}
		}
	}
}

func TestExploitability(t *testing.T) {
	testCases := []struct {
		avg, hider []float64
		expected   float64
	}{
		{[]float64{1, 2, 2}, []float64{0, 0.5, 0.5}, 1},
		{[]float64{1, 2, 2}, []float64{1, 0, 0}, 1},
		{[]float64{2, 2, 2}, []float64{0.2, 0.3, 0.5}, 0},
		{[]float64{1, 3}, []float64{0.5, 0.5}, 1},
		{[]float64{1, 3}, []float64{0.25, 0.75}, 1.5},
	}

	for _, tc := range testCases {
		if eps := Exploitability(tc.avg, tc.hider); math.Abs(eps-tc.expected) > 1e-12 {
			t.Errorf("Exploitability(%v, %v) = %v, expected %v", tc.avg, tc.hider, eps, tc.expected)
		}
	}
}

func TestSolver_EpsilonTracking(t *testing.T) {
	m := newTestMatrix(t, wordsFromAlphabet(8), 3)
	s, err := NewSolver(testConfig(3, 8), m)
	if err != nil {
		t.Fatal(err)
	}

	prevBest := math.Inf(1)
	ctx := context.Background()
	for i := 0; i < 8; i++ {
		if err := s.Step(ctx); err != nil {
			t.Fatal(err)
		}

		ckpt := s.Checkpoint()
		eps := ckpt.EpsilonHistory[len(ckpt.EpsilonHistory)-1]
		if eps < 0 {
			t.Errorf("iteration %d: negative epsilon %v", s.Iteration(), eps)
		}

		best, _ := s.BestEpsilon()
		if best > prevBest {
			t.Errorf("iteration %d: best epsilon increased from %v to %v", s.Iteration(), prevBest, best)
		}
		if best > eps {
			t.Errorf("iteration %d: best epsilon %v above current %v", s.Iteration(), best, eps)
		}
		prevBest = best

		if err := oracle.ValidateDistribution(ckpt.HiderStrategy); err != nil {
			t.Errorf("iteration %d: hider strategy is not a distribution: %v", s.Iteration(), err)
		}
		if len(ckpt.StrategyHistory) != s.Iteration()+1 {
			t.Errorf("iteration %d: %d strategies in history", s.Iteration(), len(ckpt.StrategyHistory))
		}
	}
}

func TestSolver_ResumeEquivalence(t *testing.T) {
	m := newTestMatrix(t, wordsFromAlphabet(8), 3)
	ctx := context.Background()

	uninterrupted, err := NewSolver(testConfig(3, 6), m)
	if err != nil {
		t.Fatal(err)
	}
	expected, err := uninterrupted.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	cfg := testConfig(3, 3)
	cfg.CheckpointDir = filepath.Join(t.TempDir(), "checkpoints")
	cfg.CheckpointInterval = 2
	first, err := NewSolver(cfg, m)
	if err != nil {
		t.Fatal(err)
	}
	if err := first.Resume(); err != nil {
		t.Fatal(err)
	}
	if _, err := first.Run(ctx); err != nil {
		t.Fatal(err)
	}

	cfg.NumIterations = 6
	second, err := NewSolver(cfg, m)
	if err != nil {
		t.Fatal(err)
	}
	if err := second.Resume(); err != nil {
		t.Fatal(err)
	}
	if second.Iteration() != 3 {
		t.Fatalf("resumed at iteration %d, expected 3", second.Iteration())
	}
	result, err := second.Run(ctx)
	if err != nil {
		t.Fatal(err)
	}

	if !reflect.DeepEqual(result, expected) {
		t.Errorf("resumed run differs from uninterrupted run:\ngot:      %+v\nexpected: %+v", result, expected)
	}
	gotEps, gotIter := second.BestEpsilon()
	expectedEps, expectedIter := uninterrupted.BestEpsilon()
	if gotEps != expectedEps || gotIter != expectedIter {
		t.Errorf("best epsilon %v at %d, expected %v at %d", gotEps, gotIter, expectedEps, expectedIter)
	}
}

func TestSolver_ColdStart(t *testing.T) {
	m := newTestMatrix(t, []string{"bet", "cat", "dog"}, 3)
	cfg := testConfig(3, 1)
	cfg.CheckpointDir = filepath.Join(t.TempDir(), "does-not-exist")
	s, err := NewSolver(cfg, m)
	if err != nil {
		t.Fatal(err)
	}

	if err := s.Resume(); err != nil {
		t.Errorf("missing checkpoint should be a cold start, got %v", err)
	}
	if s.Iteration() != 0 {
		t.Errorf("cold start at iteration %d, expected 0", s.Iteration())
	}
	if s.Status() != NotStarted {
		t.Errorf("status %v, expected %v", s.Status(), NotStarted)
	}
}

func TestSolver_ColdStartFromEmptyDirectory(t *testing.T) {
	m := newTestMatrix(t, []string{"bet", "cat", "dog"}, 3)
	cfg := testConfig(3, 2)
	cfg.CheckpointDir = filepath.Join(t.TempDir(), "checkpoints")
	if err := os.Mkdir(cfg.CheckpointDir, 0755); err != nil {
		t.Fatal(err)
	}

	s, err := NewSolver(cfg, m)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Resume(); err != nil {
		t.Fatalf("empty checkpoint directory should be a cold start, got %v", err)
	}
	if s.Iteration() != 0 {
		t.Errorf("cold start at iteration %d, expected 0", s.Iteration())
	}

	// Training proceeds and checkpoints into the existing directory.
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	ckpt, err := LoadCheckpoint(cfg.CheckpointDir)
	if err != nil {
		t.Fatal(err)
	}
	if ckpt.Iteration != 2 {
		t.Errorf("checkpoint at iteration %d, expected 2", ckpt.Iteration)
	}
}

func TestSolver_CheckpointInterval(t *testing.T) {
	m := newTestMatrix(t, wordsFromAlphabet(6), 3)
	cfg := testConfig(3, 5)
	cfg.CheckpointDir = filepath.Join(t.TempDir(), "checkpoints")
	cfg.CheckpointInterval = 2

	s, err := NewSolver(cfg, m)
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()
	for i := 1; i <= 3; i++ {
		if err := s.Step(ctx); err != nil {
			t.Fatal(err)
		}
		if i%cfg.CheckpointInterval == 0 {
			if err := s.saveCheckpoint(); err != nil {
				t.Fatal(err)
			}
			if s.Status() != Checkpointed {
				t.Errorf("status %v after checkpoint, expected %v", s.Status(), Checkpointed)
			}
		}
	}

	// Only the checkpoint from iteration 2 is on disk.
	ckpt, err := LoadCheckpoint(cfg.CheckpointDir)
	if err != nil {
		t.Fatal(err)
	}
	if ckpt.Iteration != 2 {
		t.Errorf("checkpoint at iteration %d, expected 2", ckpt.Iteration)
	}

	// The final iteration is always checkpointed.
	if _, err := s.Run(ctx); err != nil {
		t.Fatal(err)
	}
	if ckpt, err = LoadCheckpoint(cfg.CheckpointDir); err != nil {
		t.Fatal(err)
	}
	if ckpt.Iteration != 5 {
		t.Errorf("checkpoint at iteration %d, expected 5", ckpt.Iteration)
	}
}

func TestSolver_Canceled(t *testing.T) {
	m := newTestMatrix(t, wordsFromAlphabet(6), 3)
	s, err := NewSolver(testConfig(3, 3), m)
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := s.Run(ctx); err == nil {
		t.Error("expected error from canceled context")
	}
	if s.Status() != Failed {
		t.Errorf("status %v, expected %v", s.Status(), Failed)
	}
	if s.Iteration() != 0 {
		t.Errorf("canceled run completed %d iterations", s.Iteration())
	}
}

func TestSolver_SaveStrategies(t *testing.T) {
	m := newTestMatrix(t, []string{"bet", "cat", "dog"}, 3)
	cfg := testConfig(3, 2)
	cfg.StrategyDir = filepath.Join(t.TempDir(), "strategies")
	s, err := NewSolver(cfg, m)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.Run(context.Background()); err != nil {
		t.Fatal(err)
	}
	if err := s.SaveStrategies(); err != nil {
		t.Fatal(err)
	}

	hider, err := oracle.LoadHiderStrategy(filepath.Join(cfg.StrategyDir, HiderStrategyFile))
	if err != nil {
		t.Fatal(err)
	}
	if !reflect.DeepEqual(hider, []float64{0, 0.5, 0.5}) {
		t.Errorf("got hider strategy %v", hider)
	}
	history, err := oracle.LoadStrategyHistory(filepath.Join(cfg.StrategyDir, StrategyHistoryFile))
	if err != nil {
		t.Fatal(err)
	}
	if len(history) != 3 {
		t.Errorf("got %d strategies, expected 3", len(history))
	}
}

func TestNewSolver_WordLengthMismatch(t *testing.T) {
	m := newTestMatrix(t, []string{"bet", "cat", "dog"}, 3)
	if _, err := NewSolver(testConfig(5, 1), m); err == nil {
		t.Error("expected error for mismatched word length")
	}
}
