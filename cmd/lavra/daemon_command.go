package main

import (
	"fmt"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"lavra/internal/casestore"
	"lavra/internal/daemon"
	"lavra/internal/logging"
	"lavra/internal/workflow"
)

// newDaemonRunCommand runs the daemon in the foreground, mirroring lavrad.
// Useful for development and systemd units that prefer a single binary.
func newDaemonRunCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "daemon",
		Short: "Executa o daemon em primeiro plano",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.New(logging.Options{
				Level:       cfg.Logging.Level,
				Format:      cfg.Logging.Format,
				OutputPaths: []string{"stdout", filepath.Join(cfg.Paths.LogDir, "lavra.log")},
			})
			if err != nil {
				return fmt.Errorf("init logger: %w", err)
			}

			store, err := casestore.Open(cfg)
			if err != nil {
				return fmt.Errorf("open case store: %w", err)
			}

			manager := workflow.NewManager(cfg, store, logger)
			d, err := daemon.New(cfg, store, logger, manager)
			if err != nil {
				_ = store.Close()
				return err
			}
			defer d.Close()

			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := d.Start(runCtx); err != nil {
				return err
			}
			<-runCtx.Done()
			return nil
		},
	}
}
