package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aosc-dev/p-vector/internal/config"
	"github.com/aosc-dev/p-vector/internal/index"
	"github.com/aosc-dev/p-vector/internal/materialize"
	"github.com/aosc-dev/p-vector/internal/notify"
	"github.com/aosc-dev/p-vector/internal/scan"
	"github.com/aosc-dev/p-vector/internal/schedule"
	"github.com/aosc-dev/p-vector/internal/utils/logger"
)

// createFullCommand creates the full subcommand: scan, materialize,
// notify, and emit in sequence, guarded by a repository-root file lock
// per spec.md §4.8.
func createFullCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "full",
		Short: "Run scan, analyze, and release in sequence",
		Long: `Full runs every stage against the configured pool: scan reconciles
the package index, analyze refreshes the materialized relations,
a change notification is published for every repo whose latest set
changed, and release publishes the dists/ index files. A file lock at
the repository root prevents two runs from overlapping; a collision
exits with code 2.`,
		RunE: executeFull,
	}
}

func executeFull(cmd *cobra.Command, args []string) error {
	cfg := config.Global()
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	log := logger.Logger()

	lock, err := schedule.AcquireRunLock(cfg.Path)
	if err != nil {
		return err
	}
	defer func() {
		if relErr := lock.Release(); relErr != nil {
			log.Warnw("failed to release run lock", "error", relErr)
		}
	}()

	st, err := openStore(ctx, cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	signer, err := loadSigner(cfg)
	if err != nil {
		return err
	}
	notifier, err := loadNotifier(cfg)
	if err != nil {
		return err
	}
	if closer, ok := notifier.(interface{ Close() error }); ok {
		defer closer.Close()
	}

	before, err := materialize.Snapshot(ctx, st.Pool())
	if err != nil {
		return fatal(err)
	}

	result, err := scan.Scan(ctx, st, cfg, cfg.Path)
	if err != nil {
		return fatal(err)
	}
	log.Infow("scan complete",
		"scanned", result.Scanned, "unchanged", result.Unchanged, "renamed", result.Renamed,
		"upserted", result.Upserted, "duplicate", result.Duplicate, "deleted", result.Deleted,
		"failed", result.Failed)

	if err := materialize.Refresh(ctx, st); err != nil {
		return fatal(err)
	}

	after, err := materialize.Snapshot(ctx, st.Pool())
	if err != nil {
		return fatal(err)
	}
	diffs := materialize.DiffSnapshots(before, after)
	notify.PublishDiffs(ctx, notifier, changeNotificationChannel, diffs)
	log.Infow("change notifications published", "changed_repos", len(diffs))

	if err := index.Emit(ctx, st, cfg, cfg.Path, signer); err != nil {
		return fatal(err)
	}

	log.Info("full run complete")
	return nil
}
