package fictitiousplay

import (
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/jotto/internal/npyio"
	"github.com/timpalpant/jotto/oracle"
)

// ErrNoCheckpoint is returned by LoadCheckpoint when the directory holds no
// checkpoint. Callers should treat it as a cold start.
var ErrNoCheckpoint = errors.New("no checkpoint found")

// Names of the artifacts within a checkpoint directory.
const (
	HiderStrategyFile   = "hider_strategy.npy"
	StrategyHistoryFile = "strategy_history.npy"
	AvgNumGuessesFile   = "avg_num_guesses.npy"
	EpsilonHistoryFile  = "epsilon_history.npy"
	IterationFile       = "iteration.txt"
)

const (
	stagingSuffix = ".staging"
	oldSuffix     = ".old"
)

// Checkpoint holds the sufficient statistics of a training run. Resuming
// from a Checkpoint needs nothing else.
type Checkpoint struct {
	// Number of completed iterations.
	Iteration int
	// The Hider's average strategy.
	HiderStrategy []float64
	// The initial uniform strategy followed by the Hider's best response
	// (not its average) at each completed iteration. The play-time Guesser
	// samples from these.
	StrategyHistory [][]float64
	// Running mean over iterations of the guesses needed for each word.
	AvgNumGuesses []float64
	// Exploitability after each completed iteration.
	EpsilonHistory []float64
}

func newCheckpoint(n int) *Checkpoint {
	uniform := oracle.UniformDistribution(n)
	return &Checkpoint{
		HiderStrategy:   uniform,
		StrategyHistory: [][]float64{append([]float64(nil), uniform...)},
		AvgNumGuesses:   make([]float64, n),
	}
}

// Clone returns a deep copy of the checkpoint.
func (c *Checkpoint) Clone() *Checkpoint {
	result := &Checkpoint{
		Iteration:       c.Iteration,
		HiderStrategy:   append([]float64(nil), c.HiderStrategy...),
		StrategyHistory: make([][]float64, len(c.StrategyHistory)),
		AvgNumGuesses:   append([]float64(nil), c.AvgNumGuesses...),
		EpsilonHistory:  append([]float64(nil), c.EpsilonHistory...),
	}
	for i, s := range c.StrategyHistory {
		result.StrategyHistory[i] = append([]float64(nil), s...)
	}
	return result
}

// BestEpsilon returns the lowest exploitability reached and the iteration
// (1-based) that reached it. Before any iteration it is +Inf at iteration 0.
func (c *Checkpoint) BestEpsilon() (float64, int) {
	best, bestIter := math.Inf(1), 0
	for i, eps := range c.EpsilonHistory {
		if eps < best {
			best, bestIter = eps, i+1
		}
	}
	return best, bestIter
}

// Validate checks that the checkpoint is consistent for a corpus of n words.
func (c *Checkpoint) Validate(n int) error {
	switch {
	case c.Iteration < 0:
		return errors.Errorf("negative iteration %d", c.Iteration)
	case len(c.HiderStrategy) != n:
		return errors.Errorf("hider strategy has %d entries, expected %d", len(c.HiderStrategy), n)
	case len(c.AvgNumGuesses) != n:
		return errors.Errorf("average guesses has %d entries, expected %d", len(c.AvgNumGuesses), n)
	case len(c.StrategyHistory) != c.Iteration+1:
		return errors.Errorf("strategy history has %d entries after %d iterations",
			len(c.StrategyHistory), c.Iteration)
	case len(c.EpsilonHistory) != c.Iteration:
		return errors.Errorf("epsilon history has %d entries after %d iterations",
			len(c.EpsilonHistory), c.Iteration)
	}

	for i, s := range c.StrategyHistory {
		if len(s) != n {
			return errors.Errorf("strategy %d has %d entries, expected %d", i, len(s), n)
		}
	}

	return nil
}

// SaveCheckpoint writes c to dir. The artifacts are written and synced in a
// staging directory which then replaces dir, so a concurrent or later reader
// sees either the previous checkpoint or this one, never a mix.
func SaveCheckpoint(dir string, c *Checkpoint) error {
	dir = filepath.Clean(dir)
	if err := os.MkdirAll(filepath.Dir(dir), 0755); err != nil {
		return err
	}

	staging := dir + stagingSuffix
	if err := os.RemoveAll(staging); err != nil {
		return err
	}
	if err := os.Mkdir(staging, 0755); err != nil {
		return err
	}

	if err := writeArtifacts(staging, c); err != nil {
		return errors.Wrapf(err, "writing checkpoint to %v", staging)
	}
	if err := syncDir(staging); err != nil {
		return err
	}

	old := dir + oldSuffix
	if err := os.RemoveAll(old); err != nil {
		return err
	}
	if _, err := os.Stat(dir); err == nil {
		if err := os.Rename(dir, old); err != nil {
			return err
		}
	}
	if err := os.Rename(staging, dir); err != nil {
		return err
	}
	if err := syncDir(filepath.Dir(dir)); err != nil {
		return err
	}

	glog.V(1).Infof("Saved checkpoint for iteration %d to %v", c.Iteration, dir)
	return os.RemoveAll(old)
}

func writeArtifacts(dir string, c *Checkpoint) error {
	if err := npyio.SaveFloat64s(filepath.Join(dir, HiderStrategyFile), c.HiderStrategy); err != nil {
		return err
	}
	if err := oracle.SaveStrategyHistory(filepath.Join(dir, StrategyHistoryFile), c.StrategyHistory); err != nil {
		return err
	}
	if err := npyio.SaveFloat64s(filepath.Join(dir, AvgNumGuessesFile), c.AvgNumGuesses); err != nil {
		return err
	}
	if err := npyio.SaveFloat64s(filepath.Join(dir, EpsilonHistoryFile), c.EpsilonHistory); err != nil {
		return err
	}

	return writeFileSync(filepath.Join(dir, IterationFile), []byte(strconv.Itoa(c.Iteration)+"\n"))
}

// LoadCheckpoint reads the checkpoint in dir. If a previous save was
// interrupted while swapping directories, the prior checkpoint is used.
// A directory without an iteration counter holds no checkpoint.
func LoadCheckpoint(dir string) (*Checkpoint, error) {
	dir = filepath.Clean(dir)
	for _, candidate := range []string{dir, dir + oldSuffix} {
		if _, err := os.Stat(filepath.Join(candidate, IterationFile)); os.IsNotExist(err) {
			continue
		} else if err != nil {
			return nil, err
		}

		c, err := readArtifacts(candidate)
		if err != nil {
			return nil, errors.Wrapf(err, "loading checkpoint from %v", candidate)
		}

		glog.Infof("Loaded checkpoint for iteration %d from %v", c.Iteration, candidate)
		return c, nil
	}

	return nil, ErrNoCheckpoint
}

func readArtifacts(dir string) (*Checkpoint, error) {
	buf, err := os.ReadFile(filepath.Join(dir, IterationFile))
	if err != nil {
		return nil, err
	}
	iter, err := strconv.Atoi(strings.TrimSpace(string(buf)))
	if err != nil {
		return nil, errors.Wrap(err, "parsing iteration counter")
	}

	c := &Checkpoint{Iteration: iter}
	if c.HiderStrategy, err = oracle.LoadHiderStrategy(filepath.Join(dir, HiderStrategyFile)); err != nil {
		return nil, err
	}
	if c.StrategyHistory, err = oracle.LoadStrategyHistory(filepath.Join(dir, StrategyHistoryFile)); err != nil {
		return nil, err
	}
	if c.AvgNumGuesses, _, err = npyio.LoadFloat64s(filepath.Join(dir, AvgNumGuessesFile)); err != nil {
		return nil, err
	}
	if c.EpsilonHistory, _, err = npyio.LoadFloat64s(filepath.Join(dir, EpsilonHistoryFile)); err != nil {
		return nil, err
	}

	if err := c.Validate(len(c.HiderStrategy)); err != nil {
		return nil, err
	}

	return c, nil
}

func writeFileSync(path string, data []byte) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if _, err := f.Write(data); err != nil {
		f.Close()
		return err
	}
	if err := f.Sync(); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
