// Precompute the number of letters shared by every pair of dictionary words.
package main

import (
	"flag"
	"net/http"
	_ "net/http/pprof"
	"time"

	"github.com/golang/glog"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/internal/cli"
)

func main() {
	configFile := flag.String("config", "", "YAML config file; flags override its values")
	output := flag.String("output", "", "Output file (defaults to the configured feedback matrix)")
	flags := jotto.DefaultConfig()
	flags.RegisterFlags(flag.CommandLine)
	flag.Parse()

	go http.ListenAndServe("localhost:4123", nil)

	cfg, err := cli.LoadConfig(*configFile, flag.CommandLine)
	if err != nil {
		glog.Fatal(err)
	}
	if *output == "" {
		*output = cfg.FeedbackMatrixFile
	}

	c, err := cli.LoadCorpus(cfg)
	if err != nil {
		glog.Fatal(err)
	}

	start := time.Now()
	m := jotto.PrecomputeFeedbackMatrix(c)
	glog.Infof("Computed feedback for %d words in %v", c.Len(), time.Since(start))

	if err := jotto.SaveFeedbackMatrix(*output, m); err != nil {
		glog.Fatal(err)
	}
}
