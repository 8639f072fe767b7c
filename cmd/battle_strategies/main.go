// Play many games between a trained hider strategy and a trained guesser
// and report how many guesses were needed.
package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"path/filepath"
	"sort"
	"time"

	"github.com/golang/glog"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/fictitiousplay"
	"github.com/timpalpant/jotto/internal/cli"
)

func main() {
	configFile := flag.String("config", "", "YAML config file; flags override its values")
	hiderFile := flag.String("hider", "", "Hider strategy (defaults to the one in -strategy_dir)")
	guesserFile := flag.String("guesser", "", "Strategy history for the guesser (defaults to the one in -strategy_dir)")
	numGames := flag.Int("num_games", 10000, "Number of random games to play")
	flags := jotto.DefaultConfig()
	flags.RegisterFlags(flag.CommandLine)
	flag.Parse()

	go http.ListenAndServe("localhost:4123", nil)

	cfg, err := cli.LoadConfig(*configFile, flag.CommandLine)
	if err != nil {
		glog.Fatal(err)
	}
	if *hiderFile == "" {
		*hiderFile = filepath.Join(cfg.StrategyDir, fictitiousplay.HiderStrategyFile)
	}
	if *guesserFile == "" {
		*guesserFile = filepath.Join(cfg.StrategyDir, fictitiousplay.StrategyHistoryFile)
	}

	_, m, err := cli.LoadArtifacts(cfg)
	if err != nil {
		glog.Fatal(err)
	}
	hider, err := cli.LoadHider(*hiderFile)
	if err != nil {
		glog.Fatal(err)
	}
	guesser, err := cli.LoadGuesser(*guesserFile, m, cfg.ResponseCacheSize)
	if err != nil {
		glog.Fatal(err)
	}

	glog.Infof("Playing %d games", *numGames)
	start := time.Now()
	result, err := fictitiousplay.Evaluate(context.Background(), m, hider, guesser,
		*numGames, cfg.MaxParallelGames, cfg.Seed)
	if err != nil {
		glog.Fatalf("Evaluating strategies: %v", err)
	}

	glog.Infof("Played %d games in %v", result.NumGames, time.Since(start))
	glog.Infof("Mean guesses: %.4f, max guesses: %d", result.MeanGuesses, result.MaxGuesses)
	counts := make([]int, 0, len(result.Histogram))
	for n := range result.Histogram {
		counts = append(counts, n)
	}
	sort.Ints(counts)
	for _, n := range counts {
		k := result.Histogram[n]
		glog.Infof("%d guesses: %d games (%.3f %%)", n, k, 100*float64(k)/float64(result.NumGames))
	}
}
