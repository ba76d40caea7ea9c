package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"medialink/internal/config"
	"medialink/internal/daemon"
	"medialink/internal/logging"
)

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:           "medialinkd",
		Short:         "Media library organizer daemon",
		Long:          "medialinkd watches a source directory, identifies media files, and hard links them into a canonical library layout.",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), configPath)
		},
	}
	cmd.Flags().StringVarP(&configPath, "config", "c", "", "path to config file")
	return cmd
}

func run(ctx context.Context, configPath string) error {
	cfg, resolvedPath, exists, err := config.Load(configPath)
	if err != nil {
		return err
	}

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return err
	}
	if !exists {
		logger.Info("no config file found, using defaults and environment",
			logging.String("looked_at", resolvedPath))
	}

	d, err := daemon.New(cfg, logger)
	if err != nil {
		if errors.Is(err, daemon.ErrAlreadyRunning) {
			return err
		}
		return fmt.Errorf("start daemon: %w", err)
	}
	defer d.Close()

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	return d.Run(ctx)
}
