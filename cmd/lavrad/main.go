package main

import (
	"context"
	"log"
	"os/signal"
	"path/filepath"
	"syscall"

	"lavra/internal/casestore"
	"lavra/internal/config"
	"lavra/internal/daemon"
	"lavra/internal/logging"
	"lavra/internal/workflow"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, _, _, err := config.Load("")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.EnsureDirectories(); err != nil {
		log.Fatalf("prepare directories: %v", err)
	}

	logger, err := logging.New(logging.Options{
		Level:       cfg.Logging.Level,
		Format:      cfg.Logging.Format,
		OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "lavra.log")},
	})
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}

	store, err := casestore.Open(cfg)
	if err != nil {
		logger.Error("open case store", logging.Error(err))
		return
	}

	manager := workflow.NewManager(cfg, store, logger)

	d, err := daemon.New(cfg, store, logger, manager)
	if err != nil {
		logger.Error("create daemon", logging.Error(err))
		_ = store.Close()
		return
	}
	defer d.Close()

	if err := d.Start(ctx); err != nil {
		logger.Error("daemon start", logging.Error(err))
		return
	}

	<-ctx.Done()
	logger.Info("lavrad shutting down")
}
