// Watch a trained guesser find a word you choose. Feedback is computed
// automatically.
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
	"strings"

	"github.com/golang/glog"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/fictitiousplay"
	"github.com/timpalpant/jotto/internal/cli"
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

	for {
		secret, err := promptWord(c)
		if err == io.EOF {
			return
		} else if err != nil {
			glog.Fatal(err)
		}

		n, err := fictitiousplay.SimulateGame(m, secret, func(state *jotto.GameState) (int, error) {
			guess, _, err := guesser.Guess(rng, state)
			if err != nil {
				return 0, err
			}

			fmt.Printf("%s: %d letters in common (%d words remaining)\n",
				c.Word(guess), m.Get(guess, secret), state.NumPossible())
			return guess, nil
		})
		if err != nil {
			glog.Fatal(err)
		}

		glog.Infof("Found %v in %d guesses", c.Word(secret), n)
	}
}

func promptWord(c *jotto.Corpus) (int, error) {
	for {
		fmt.Printf("Enter a %d-letter word: ", c.WordLength())
		result, err := stdin.ReadString('\n')
		if err != nil {
			return 0, err
		}

		result = strings.TrimSpace(result)
		i, ok := c.Index(result)
		if !ok {
			glog.Errorf("%q is not in the dictionary", result)
			continue
		}

		return i, nil
	}
}
