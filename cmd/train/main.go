// Train Jotto strategies by fictitious play, resuming from the latest
// checkpoint if one exists.
package main

import (
	"context"
	"flag"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"

	"github.com/golang/glog"

	"github.com/timpalpant/jotto"
	"github.com/timpalpant/jotto/fictitiousplay"
	"github.com/timpalpant/jotto/internal/cli"
)

func main() {
	configFile := flag.String("config", "", "YAML config file; flags override its values")
	mirrorDir := flag.String("mirror_dir", "", "If set, also archive checkpoints to this directory")
	flags := jotto.DefaultConfig()
	flags.RegisterFlags(flag.CommandLine)
	flag.Parse()

	go http.ListenAndServe("localhost:4123", nil)

	cfg, err := cli.LoadConfig(*configFile, flag.CommandLine)
	if err != nil {
		glog.Fatal(err)
	}
	_, m, err := cli.LoadArtifacts(cfg)
	if err != nil {
		glog.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	solver, err := fictitiousplay.NewSolver(cfg, m)
	if err != nil {
		glog.Fatal(err)
	}

	var mirror *fictitiousplay.ArchiveMirror
	if *mirrorDir != "" {
		mirror = fictitiousplay.NewArchiveMirror(*mirrorDir)
	}

	if err := resume(ctx, solver, cfg, mirror); err != nil {
		glog.Fatal(err)
	}

	glog.Infof("Training for %d iterations (%d words, %d workers)",
		cfg.NumIterations, m.Len(), cfg.MaxParallelGames)
	_, runErr := solver.Run(ctx)
	if runErr == nil {
		if err := solver.SaveStrategies(); err != nil {
			glog.Fatal(err)
		}
	}

	// The last local checkpoint is mirrored even if training was interrupted.
	if mirror != nil && cfg.CheckpointDir != "" && solver.Iteration() > 0 {
		if _, err := mirror.Upload(context.Background(), cfg.CheckpointDir); err != nil {
			glog.Errorf("Unable to mirror checkpoint: %v", err)
		}
	}

	if runErr != nil {
		glog.Fatalf("Training stopped after %d iterations: %v", solver.Iteration(), runErr)
	}
}

// resume restores the local checkpoint, falling back to the latest mirrored
// one if there is no local checkpoint.
func resume(ctx context.Context, solver *fictitiousplay.Solver, cfg jotto.Config, mirror *fictitiousplay.ArchiveMirror) error {
	if mirror == nil || cfg.CheckpointDir == "" {
		return solver.Resume()
	}
	if _, err := fictitiousplay.LoadCheckpoint(cfg.CheckpointDir); err != fictitiousplay.ErrNoCheckpoint {
		return solver.Resume()
	}

	handle, err := mirror.Latest(ctx)
	if err == fictitiousplay.ErrNoCheckpoint {
		return nil
	} else if err != nil {
		glog.Errorf("Unable to list mirrored checkpoints: %v", err)
		return nil
	}

	dir, err := mirror.Download(ctx, handle)
	if err != nil {
		glog.Errorf("Unable to download checkpoint %v: %v", handle, err)
		return nil
	}
	defer os.RemoveAll(dir)

	return solver.ResumeFrom(dir)
}
