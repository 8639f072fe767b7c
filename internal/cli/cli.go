// Package cli holds the loading steps shared by the command binaries.
// Errors for missing inputs say which step produces them.
package cli

import (
	"flag"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/oracle"
)

// LoadConfig reads the YAML config at path (or the defaults if path is
// empty) and applies every config flag that was set on fs.
func LoadConfig(path string, fs *flag.FlagSet) (jotto.Config, error) {
	cfg := jotto.DefaultConfig()
	if path != "" {
		var err error
		if cfg, err = jotto.LoadConfig(path); err != nil {
			return cfg, err
		}
	}

	if err := cfg.OverrideFromFlags(fs); err != nil {
		return cfg, err
	}

	return cfg, nil
}

// LoadCorpus loads the dictionary named by cfg.
func LoadCorpus(cfg jotto.Config) (*jotto.Corpus, error) {
	glog.Infof("Loading %d-letter words from: %v", cfg.WordLength, cfg.DictionaryFile)
	c, err := jotto.LoadCorpus(cfg.DictionaryFile, cfg.WordLength)
	if err != nil {
		return nil, withHint(err, "set -dictionary to an existing word list")
	}

	return c, nil
}

// LoadArtifacts loads the dictionary and precomputed feedback matrix named
// by cfg.
func LoadArtifacts(cfg jotto.Config) (*jotto.Corpus, *jotto.FeedbackMatrix, error) {
	c, err := LoadCorpus(cfg)
	if err != nil {
		return nil, nil, err
	}

	m, err := jotto.LoadCorpusFeedbackMatrix(cfg.FeedbackMatrixFile, c)
	if err != nil {
		return nil, nil, withHint(err, "run precompute_feedback_matrix first")
	}

	glog.Infof("Loaded %d %d-letter words", c.Len(), c.WordLength())
	return c, m, nil
}

// LoadHider loads a trained hider strategy.
func LoadHider(path string) ([]float64, error) {
	glog.Infof("Loading hider strategy from: %v", path)
	hider, err := oracle.LoadHiderStrategy(path)
	if err != nil {
		return nil, withHint(err, "run train first")
	}

	return hider, nil
}

// LoadGuesser loads a trained strategy history and returns the play-time
// guesser that samples from it.
func LoadGuesser(path string, m *jotto.FeedbackMatrix, cacheSize int) (*oracle.SampledGuesser, error) {
	glog.Infof("Loading strategy history from: %v", path)
	history, err := oracle.LoadStrategyHistory(path)
	if err != nil {
		return nil, withHint(err, "run train first")
	}

	return oracle.NewSampledGuesser(m, history, cacheSize)
}

// withHint adds hint to errors caused by a missing artifact. The cause is
// preserved for errors.Cause.
func withHint(err error, hint string) error {
	if errors.Cause(err) != jotto.ErrMissingArtifact {
		return err
	}
	return errors.WithMessage(err, hint)
}
