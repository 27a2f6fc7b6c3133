package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aosc-dev/p-vector/internal/config"
	"github.com/aosc-dev/p-vector/internal/scan"
	"github.com/aosc-dev/p-vector/internal/utils/logger"
)

// createScanCommand creates the scan subcommand: the Scan Orchestrator
// alone, with no materializer refresh, notification, or index emission.
func createScanCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "scan",
		Short: "Scan the pool and reconcile the package index",
		Long: `Scan walks the configured pool directory, extracts metadata from
every new or changed .deb file, and reconciles the database against
what it finds. It does not refresh the materialized relations or emit
dists/ files; use "analyze" and "release" for those, or "full" to run
every stage in sequence.`,
		RunE: executeScan,
	}
}

func executeScan(cmd *cobra.Command, args []string) error {
	cfg := config.Global()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	result, err := scan.Scan(ctx, st, cfg, cfg.Path)
	if err != nil {
		return fatal(err)
	}

	logger.Logger().Infow("scan complete",
		"scanned", result.Scanned, "unchanged", result.Unchanged, "renamed", result.Renamed,
		"upserted", result.Upserted, "duplicate", result.Duplicate, "deleted", result.Deleted,
		"failed", result.Failed)
	return nil
}
