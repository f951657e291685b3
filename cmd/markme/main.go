package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"markme/internal/cli"
	"markme/internal/config"
	"markme/internal/logging"
	"markme/internal/pipeline"
	"markme/internal/storage"
	"markme/internal/tasks"
)

func main() {
	os.Exit(run())
}

func run() int {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		return 1
	}

	logger, err := logging.Setup(cfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to set up logging: %v\n", err)
		return 1
	}

	// History is optional; batches still run without a database.
	store, err := storage.New(cfg.Paths.DatabasePath)
	if err != nil {
		logger.Warn("history database unavailable", "path", cfg.Paths.DatabasePath, "error", err)
		store = nil
	} else {
		defer store.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	viewer := tasks.NewExternalViewer(logger, "")
	runner := tasks.NewBatchRunner(logger, viewer)
	pipe := pipeline.New(ctx, 16, logger, store, runner, cfg.Output)
	defer pipe.Stop()

	if err := cli.NewRootCmd(cfg, logger, store, pipe, viewer).ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		return 1
	}
	return 0
}
