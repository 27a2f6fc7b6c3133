package main

import (
	"github.com/spf13/cobra"

	"github.com/aosc-dev/p-vector/internal/utils/logger"
)

// createSyncCommand creates the sync subcommand. abbs-meta/piss sync is
// an external collaborator out of scope for this tool (spec.md §1); the
// command exists so the CLI surface matches §6, but performs no work.
func createSyncCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "sync",
		Short: "Sync externally-maintained tables (abbs-meta, piss)",
		Long: `Sync is a placeholder for the external abbs-meta/piss sync
collaborator, which is out of scope for this tool. It exists only so the
command surface matches the documented CLI.`,
		RunE: executeSync,
	}
}

func executeSync(cmd *cobra.Command, args []string) error {
	logger.Logger().Warn("sync is not implemented: abbs-meta/piss sync is an external collaborator")
	return nil
}
