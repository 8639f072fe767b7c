package oracle

import (
	"math"
	"os"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/internal/npyio"
)

// Tolerance used when checking that a loaded strategy sums to one.
const distributionTolerance = 1e-6

// SaveHiderStrategy writes a hider strategy as a 1-D float64 npy file.
func SaveHiderStrategy(path string, strategy []float64) error {
	glog.V(1).Infof("Saving hider strategy to: %v", path)
	return npyio.SaveFloat64s(path, strategy)
}

// LoadHiderStrategy reads a hider strategy and checks that it is a
// probability distribution.
func LoadHiderStrategy(path string) ([]float64, error) {
	v, h, err := npyio.LoadFloat64s(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(jotto.ErrMissingArtifact, "hider strategy %v", path)
	} else if err != nil {
		return nil, err
	}
	if len(h.Shape) != 1 {
		return nil, errors.Errorf("hider strategy %v has shape %v, expected 1-D", path, h.Shape)
	}
	if err := ValidateDistribution(v); err != nil {
		return nil, errors.Wrapf(err, "hider strategy %v", path)
	}

	return v, nil
}

// SaveStrategyHistory writes the history as a 2-D float64 npy file with one
// row per strategy.
func SaveStrategyHistory(path string, history [][]float64) error {
	glog.V(1).Infof("Saving %d strategies to: %v", len(history), path)
	n := 0
	if len(history) > 0 {
		n = len(history[0])
	}

	flat := make([]float64, 0, len(history)*n)
	for i, s := range history {
		if len(s) != n {
			return errors.Errorf("strategy %d has %d entries, expected %d", i, len(s), n)
		}
		flat = append(flat, s...)
	}

	return npyio.SaveFloat64s(path, flat, len(history), n)
}

// LoadStrategyHistory reads a history written by SaveStrategyHistory.
func LoadStrategyHistory(path string) ([][]float64, error) {
	v, h, err := npyio.LoadFloat64s(path)
	if os.IsNotExist(err) {
		return nil, errors.Wrapf(jotto.ErrMissingArtifact, "strategy history %v", path)
	} else if err != nil {
		return nil, err
	}
	if len(h.Shape) != 2 {
		return nil, errors.Errorf("strategy history %v has shape %v, expected 2-D", path, h.Shape)
	}

	nRows, n := h.Shape[0], h.Shape[1]
	result := make([][]float64, nRows)
	for i := range result {
		result[i] = v[i*n : (i+1)*n : (i+1)*n]
		if err := ValidateDistribution(result[i]); err != nil {
			return nil, errors.Wrapf(err, "strategy %d of %v", i, path)
		}
	}

	return result, nil
}

// ValidateDistribution checks that p is non-negative and sums to one.
func ValidateDistribution(p []float64) error {
	total := 0.0
	for i, x := range p {
		if x < 0 || math.IsNaN(x) {
			return errors.Errorf("entry %d is %v", i, x)
		}
		total += x
	}

	if math.Abs(total-1) > distributionTolerance {
		return errors.Errorf("distribution sums to %v", total)
	}

	return nil
}
