// Package fictitiousplay approximates the equilibrium of Jotto by
// fictitious play: each iteration the Guesser responds to the Hider's
// average strategy in every possible game, and the Hider best-responds to
// the Guesser's average performance.
package fictitiousplay

import (
	"context"
	"expvar"
	"math"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/oracle"
)

var (
	iterationsCompleted = expvar.NewInt("fictitious_play/iterations")
	currentEpsilon      = expvar.NewFloat("fictitious_play/epsilon")
	bestEpsilonVar      = expvar.NewFloat("fictitious_play/best_epsilon")
	checkpointsSaved    = expvar.NewInt("fictitious_play/checkpoints_saved")
)

// Status is the lifecycle state of a Solver.
type Status int

const (
	NotStarted Status = iota
	Running
	Checkpointed
	Completed
	Failed
)

var statusStr = [...]string{
	"NotStarted",
	"Running",
	"Checkpointed",
	"Completed",
	"Failed",
}

func (s Status) String() string {
	return statusStr[s]
}

// Solver runs fictitious play over a fixed feedback matrix.
// It is driven from a single goroutine; parallelism is internal to Step.
type Solver struct {
	cfg    jotto.Config
	m      *jotto.FeedbackMatrix
	status Status

	state         *Checkpoint
	bestEpsilon   float64
	bestIteration int
}

// NewSolver returns a Solver at iteration 0 with a uniform Hider strategy.
func NewSolver(cfg jotto.Config, m *jotto.FeedbackMatrix) (*Solver, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.WordLength != m.WordLength() {
		return nil, errors.Errorf("config word length %d does not match feedback matrix word length %d",
			cfg.WordLength, m.WordLength())
	}
	if m.Len() == 0 {
		return nil, errors.New("cannot solve an empty corpus")
	}

	return &Solver{
		cfg:         cfg,
		m:           m,
		state:       newCheckpoint(m.Len()),
		bestEpsilon: math.Inf(1),
	}, nil
}

// Resume restores the latest checkpoint in the configured checkpoint
// directory. A missing checkpoint is not an error: the solver starts fresh.
func (s *Solver) Resume() error {
	if s.cfg.CheckpointDir == "" {
		return nil
	}
	return s.ResumeFrom(s.cfg.CheckpointDir)
}

// ResumeFrom restores the checkpoint in dir, e.g. one downloaded from a
// remote mirror. Subsequent checkpoints are still written to the configured
// checkpoint directory.
func (s *Solver) ResumeFrom(dir string) error {
	if s.status != NotStarted {
		return errors.Errorf("cannot resume a solver in state %v", s.status)
	}

	c, err := LoadCheckpoint(dir)
	if err == ErrNoCheckpoint {
		glog.Infof("No checkpoint in %v, starting from iteration 0", dir)
		return nil
	} else if err != nil {
		return err
	}

	if err := c.Validate(s.m.Len()); err != nil {
		return errors.Wrapf(err, "checkpoint in %v does not match corpus", dir)
	}

	s.state = c
	s.bestEpsilon, s.bestIteration = c.BestEpsilon()
	glog.Infof("Resuming from iteration %d (best epsilon %.4f at iteration %d)",
		c.Iteration, s.bestEpsilon, s.bestIteration)
	return nil
}

// Run performs iterations until the configured number is reached,
// checkpointing every CheckpointInterval iterations and after the last one.
// It returns a copy of the final training state.
func (s *Solver) Run(ctx context.Context) (*Checkpoint, error) {
	start := time.Now()
	startIter := s.state.Iteration
	for s.state.Iteration < s.cfg.NumIterations {
		s.status = Running
		if err := s.Step(ctx); err != nil {
			s.status = Failed
			return nil, err
		}

		t := s.state.Iteration
		if t%s.cfg.CheckpointInterval == 0 || t == s.cfg.NumIterations {
			if err := s.saveCheckpoint(); err != nil {
				s.status = Failed
				return nil, errors.Wrapf(err, "saving checkpoint for iteration %d", t)
			}
		}
	}

	s.status = Completed
	if n := s.state.Iteration - startIter; n > 0 {
		elapsed := time.Since(start)
		glog.Infof("Finished %d iterations (took %v, %v/iteration)",
			n, elapsed, elapsed/time.Duration(n))
	}
	glog.Infof("Best epsilon: %.4f at iteration %d", s.bestEpsilon, s.bestIteration)
	return s.Checkpoint(), nil
}

// Step performs one iteration of fictitious play.
// The solver state is only updated once the whole iteration has succeeded.
func (s *Solver) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	t := s.state.Iteration + 1
	hider := append([]float64(nil), s.state.HiderStrategy...)
	start := time.Now()
	numGuesses, err := SimulateAll(ctx, s.m, hider, s.cfg.MaxParallelGames, s.cfg.ResponseCacheSize)
	if err != nil {
		return errors.Wrapf(err, "simulating games for iteration %d", t)
	}
	glog.V(1).Infof("Simulated %d games in %v", len(numGuesses), time.Since(start))

	avg := UpdateRunningMean(s.state.AvgNumGuesses, numGuesses, t)
	br := oracle.HiderBestResponse(avg)
	hiderAvg := UpdateRunningMean(s.state.HiderStrategy, br, t)
	epsilon := Exploitability(avg, hiderAvg)

	s.state.Iteration = t
	s.state.AvgNumGuesses = avg
	s.state.HiderStrategy = hiderAvg
	s.state.StrategyHistory = append(s.state.StrategyHistory, br)
	s.state.EpsilonHistory = append(s.state.EpsilonHistory, epsilon)
	if epsilon < s.bestEpsilon {
		s.bestEpsilon = epsilon
		s.bestIteration = t
	}

	iterationsCompleted.Add(1)
	currentEpsilon.Set(epsilon)
	bestEpsilonVar.Set(s.bestEpsilon)
	glog.Infof("Iteration %d, epsilon: %.4f, best epsilon: %.4f (iteration %d), mean guesses: %.4f",
		t, epsilon, s.bestEpsilon, s.bestIteration, mean(numGuesses))
	return nil
}

func (s *Solver) saveCheckpoint() error {
	if s.cfg.CheckpointDir == "" {
		return nil
	}

	if err := SaveCheckpoint(s.cfg.CheckpointDir, s.state); err != nil {
		return err
	}

	s.status = Checkpointed
	checkpointsSaved.Add(1)
	return nil
}

// SaveStrategies writes the current Hider strategy and strategy history to
// the configured strategy directory for use during play.
func (s *Solver) SaveStrategies() error {
	if err := os.MkdirAll(s.cfg.StrategyDir, 0755); err != nil {
		return err
	}

	glog.Infof("Saving strategies to %v", s.cfg.StrategyDir)
	if err := oracle.SaveHiderStrategy(filepath.Join(s.cfg.StrategyDir, HiderStrategyFile), s.state.HiderStrategy); err != nil {
		return err
	}
	return oracle.SaveStrategyHistory(filepath.Join(s.cfg.StrategyDir, StrategyHistoryFile), s.state.StrategyHistory)
}

// Status returns the lifecycle state of the solver.
func (s *Solver) Status() Status {
	return s.status
}

// Iteration returns the number of completed iterations.
func (s *Solver) Iteration() int {
	return s.state.Iteration
}

// BestEpsilon returns the lowest exploitability seen and its iteration.
func (s *Solver) BestEpsilon() (float64, int) {
	return s.bestEpsilon, s.bestIteration
}

// Checkpoint returns a copy of the current training state.
func (s *Solver) Checkpoint() *Checkpoint {
	return s.state.Clone()
}

// UpdateRunningMean returns the arithmetic mean over t observations given
// the mean over the first t-1 observations and the t'th observation.
func UpdateRunningMean(prev, x []float64, t int) []float64 {
	result := make([]float64, len(prev))
	a := float64(t-1) / float64(t)
	b := 1 / float64(t)
	for i := range result {
		result[i] = a*prev[i] + b*x[i]
	}
	return result
}

// Exploitability returns how much either player could gain by deviating
// from the current averages: the Hider by moving to the hardest word, the
// Guesser by achieving the fewest guesses.
func Exploitability(avgNumGuesses, hider []float64) float64 {
	value := 0.0
	best, worst := math.Inf(-1), math.Inf(1)
	for i, v := range avgNumGuesses {
		value += v * hider[i]
		best = math.Max(best, v)
		worst = math.Min(worst, v)
	}

	hiderGap := best - value
	guesserGap := value - worst
	return math.Max(0, math.Max(hiderGap, guesserGap))
}

func mean(v []float64) float64 {
	total := 0.0
	for _, x := range v {
		total += x
	}
	return total / float64(len(v))
}
