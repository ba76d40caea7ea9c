package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"medialink/internal/config"
)

func newConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the medialink configuration file",
	}
	cmd.AddCommand(newConfigInitCommand())
	cmd.AddCommand(newConfigShowCommand())
	return cmd
}

func newConfigInitCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [path]",
		Short: "Write a commented sample config file",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := configPath
			if len(args) == 1 {
				path = args[0]
			}
			if path == "" {
				defaultPath, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = defaultPath
			}
			expanded, err := config.ExpandPath(path)
			if err != nil {
				return err
			}

			if _, err := os.Stat(expanded); err == nil && !force {
				return fmt.Errorf("%s already exists, pass --force to overwrite", expanded)
			}
			if err := config.CreateSample(expanded); err != nil {
				return err
			}
			fmt.Printf("wrote %s\n", expanded)
			return nil
		},
	}
	cmd.Flags().BoolVarP(&force, "force", "f", false, "overwrite an existing file")
	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the resolved configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, resolvedPath, err := loadConfig()
			if err != nil {
				return err
			}

			// API keys never reach stdout.
			redacted := *cfg
			if redacted.TMDB.APIKey != "" {
				redacted.TMDB.APIKey = "<redacted>"
			}
			if redacted.LLM.APIKey != "" {
				redacted.LLM.APIKey = "<redacted>"
			}

			encoded, err := toml.Marshal(redacted)
			if err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			fmt.Printf("# resolved from %s\n%s", resolvedPath, encoded)
			return nil
		},
	}
}
