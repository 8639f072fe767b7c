// Play Jotto against a trained guesser. You think of a word and tell the
// computer how many letters each of its guesses shares with your word.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"io"
	"math/rand"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/golang/glog"
	"github.com/pkg/errors"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/fictitiousplay"
	"github.com/timpalpant/jotto/internal/cli"
	"github.com/timpalpant/jotto/oracle"
)

var stdin = bufio.NewReader(os.Stdin)

func main() {
	configFile := flag.String("config", "", "YAML config file; flags override its values")
	flags := jotto.DefaultConfig()
	flags.RegisterFlags(flag.CommandLine)
	flag.Parse()

	go http.ListenAndServe("localhost:4123", nil)

	cfg, err := cli.LoadConfig(*configFile, flag.CommandLine)
	if err != nil {
		glog.Fatal(err)
	}
	c, m, err := cli.LoadArtifacts(cfg)
	if err != nil {
		glog.Fatal(err)
	}
	guesser, err := cli.LoadGuesser(filepath.Join(cfg.StrategyDir, fictitiousplay.StrategyHistoryFile),
		m, cfg.ResponseCacheSize)
	if err != nil {
		glog.Fatal(err)
	}
	rng := rand.New(rand.NewSource(cfg.Seed))

	glog.Infof("Think of a %d-letter word with no repeated letters", cfg.WordLength)
	for {
		if err := playGame(rng, c, m, guesser); err == io.EOF {
			return
		} else if err != nil {
			glog.Fatal(err)
		}
	}
}

func playGame(rng *rand.Rand, c *jotto.Corpus, m *jotto.FeedbackMatrix, guesser *oracle.SampledGuesser) error {
	state := jotto.NewGameState(m)
	for n := 1; ; n++ {
		guess, selected, err := guesser.Guess(rng, state)
		if err != nil {
			return err
		}

		glog.V(1).Infof("Responding to strategy %d of %d, %d words remaining",
			selected, guesser.NumStrategies(), state.NumPossible())
		fmt.Printf("Guess %d: %s\n", n, c.Word(guess))
		feedback, err := prompt("How many letters in common? ", m.WordLength())
		if err != nil {
			return err
		}

		if feedback == m.WordLength() {
			glog.Infof("Solved in %d guesses", n)
			return nil
		}

		if err := state.Eliminate(guess, feedback); errors.Cause(err) == jotto.ErrExhaustedState {
			glog.Warning("No word in the dictionary matches your answers, starting a new game")
			return nil
		} else if err != nil {
			return err
		}
	}
}

// prompt reads an integer in [0, maxFeedback] from stdin.
func prompt(msg string, maxFeedback int) (int, error) {
	for {
		fmt.Print(msg)
		result, err := stdin.ReadString('\n')
		if err != nil {
			return 0, err
		}

		result = strings.TrimSpace(result)
		i, err := strconv.Atoi(result)
		if err != nil || i < 0 || i > maxFeedback {
			glog.Errorf("Invalid feedback: %q", result)
			continue
		}

		return i, nil
	}
}
