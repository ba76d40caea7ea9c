package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"medialink/internal/config"
	"medialink/internal/media"
)

var configPath string

func newRootCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "medialink",
		Short:         "Inspect and manage the medialink library queue",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to config file")

	cmd.AddCommand(newStatusCommand())
	cmd.AddCommand(newQueueCommand())
	cmd.AddCommand(newConfigCommand())
	return cmd
}

func loadConfig() (*config.Config, string, error) {
	cfg, resolvedPath, _, err := config.Load(configPath)
	if err != nil {
		return nil, "", err
	}
	return cfg, resolvedPath, nil
}

// openStore opens the daemon's database for inspection. The daemon can be
// running at the same time; SQLite's WAL mode allows concurrent readers.
func openStore() (*media.Store, error) {
	cfg, _, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return media.OpenPath(filepath.Join(cfg.Paths.LogDir, "medialink.db"))
}
