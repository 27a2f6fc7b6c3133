package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/aosc-dev/p-vector/internal/config"
	"github.com/aosc-dev/p-vector/internal/index"
	"github.com/aosc-dev/p-vector/internal/utils/logger"
)

// createReleaseCommand creates the release subcommand: the Index
// Emitter alone, publishing dists/ from whatever the materialized
// relations currently contain.
func createReleaseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "release",
		Short: "Render and publish the Packages/Contents/Release index files",
		RunE:  executeRelease,
	}
}

func executeRelease(cmd *cobra.Command, args []string) error {
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

	signer, err := loadSigner(cfg)
	if err != nil {
		return err
	}

	if err := index.Emit(ctx, st, cfg, cfg.Path, signer); err != nil {
		return fatal(err)
	}
	logger.Logger().Info("release complete")
	return nil
}
