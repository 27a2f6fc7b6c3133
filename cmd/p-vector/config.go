package main

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/cobra"

	"github.com/aosc-dev/p-vector/internal/config"
)

// createConfigCommand creates the config subcommand
func createConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long: `Manage the p-vector configuration file.

Available commands:
  init    Write a new configuration file with default values`,
	}
	cmd.AddCommand(createConfigInitCommand())
	return cmd
}

// createConfigInitCommand creates the config init subcommand
func createConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init [config-file]",
		Short: "Write a new configuration file with default values",
		Args:  cobra.MaximumNArgs(1),
		RunE:  executeConfigInit,
	}
}

func executeConfigInit(cmd *cobra.Command, args []string) error {
	path := "p-vector.toml"
	if len(args) > 0 {
		path = args[0]
	}

	defaults := config.Default()
	data, err := toml.Marshal(defaults)
	if err != nil {
		return fmt.Errorf("marshaling default configuration: %w", err)
	}

	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	fmt.Printf("Configuration file created at: %s\n", path)
	fmt.Printf("Edit db_pgconn, path, and certificate before running \"full\".\n")
	return nil
}
