package jotto

import (
	"flag"
	"os"
	"runtime"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// Config holds every tunable of a training or play run. It is passed by
// value; nothing in this module reads configuration from globals.
type Config struct {
	WordLength         int   `yaml:"word_length"`
	NumIterations      int   `yaml:"num_iterations"`
	CheckpointInterval int   `yaml:"checkpoint_interval"`
	MaxParallelGames   int   `yaml:"max_parallel_games"`
	ResponseCacheSize  int   `yaml:"response_cache_size"`
	Seed               int64 `yaml:"seed"`

	DictionaryFile     string `yaml:"dictionary_file"`
	FeedbackMatrixFile string `yaml:"feedback_matrix_file"`
	StrategyDir        string `yaml:"strategy_dir"`
	CheckpointDir      string `yaml:"checkpoint_dir"`
}

func DefaultConfig() Config {
	return Config{
		WordLength:         5,
		NumIterations:      10,
		CheckpointInterval: 1,
		MaxParallelGames:   runtime.NumCPU(),
		ResponseCacheSize:  100000,
		Seed:               123,
		DictionaryFile:     "data/dictionary.txt",
		FeedbackMatrixFile: "data/common_letters.npy",
		StrategyDir:        "strategies",
		CheckpointDir:      "checkpoints",
	}
}

// LoadConfig reads a YAML file over DefaultConfig. Fields absent from the
// file keep their default values.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, errors.Wrapf(err, "reading config %v", path)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, errors.Wrapf(err, "parsing config %v", path)
	}

	return cfg, cfg.Validate()
}

// RegisterFlags binds the fields of c to flags on fs, with the current
// values as defaults.
func (c *Config) RegisterFlags(fs *flag.FlagSet) {
	fs.IntVar(&c.WordLength, "word_length", c.WordLength, "Number of letters per word")
	fs.IntVar(&c.NumIterations, "iterations", c.NumIterations, "Number of fictitious play iterations")
	fs.IntVar(&c.CheckpointInterval, "checkpoint_interval", c.CheckpointInterval,
		"Number of iterations between checkpoints")
	fs.IntVar(&c.MaxParallelGames, "max_parallel_games", c.MaxParallelGames,
		"Number of games to simulate in parallel")
	fs.IntVar(&c.ResponseCacheSize, "cache_size", c.ResponseCacheSize, "Number of guesser responses to cache")
	fs.Int64Var(&c.Seed, "seed", c.Seed, "Random seed")
	fs.StringVar(&c.DictionaryFile, "dictionary", c.DictionaryFile, "Newline-delimited word list (optionally gzipped)")
	fs.StringVar(&c.FeedbackMatrixFile, "feedback_matrix", c.FeedbackMatrixFile, "Precomputed feedback matrix (.npy)")
	fs.StringVar(&c.StrategyDir, "strategy_dir", c.StrategyDir, "Directory for trained strategies")
	fs.StringVar(&c.CheckpointDir, "checkpoint_dir", c.CheckpointDir, "Directory for training checkpoints")
}

// OverrideFromFlags copies into c the value of every config flag that was
// set on fs, so that explicit flags take precedence over a config file.
func (c *Config) OverrideFromFlags(fs *flag.FlagSet) error {
	bound := flag.NewFlagSet("config", flag.ContinueOnError)
	c.RegisterFlags(bound)

	var err error
	fs.Visit(func(f *flag.Flag) {
		if err != nil || bound.Lookup(f.Name) == nil {
			return
		}
		err = bound.Set(f.Name, f.Value.String())
	})
	if err != nil {
		return err
	}

	return c.Validate()
}

func (c Config) Validate() error {
	switch {
	case c.WordLength < 1 || c.WordLength > NumLetters:
		return errors.Errorf("word length must be in [1, %d], got %d", NumLetters, c.WordLength)
	case c.NumIterations < 0:
		return errors.Errorf("number of iterations must be non-negative, got %d", c.NumIterations)
	case c.CheckpointInterval < 1:
		return errors.Errorf("checkpoint interval must be positive, got %d", c.CheckpointInterval)
	case c.MaxParallelGames < 1:
		return errors.Errorf("max parallel games must be positive, got %d", c.MaxParallelGames)
	case c.ResponseCacheSize < 1:
		return errors.Errorf("response cache size must be positive, got %d", c.ResponseCacheSize)
	}

	return nil
}
