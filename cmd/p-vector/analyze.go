package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aosc-dev/p-vector/internal/config"
	"github.com/aosc-dev/p-vector/internal/materialize"
	"github.com/aosc-dev/p-vector/internal/utils/logger"
)

var analyzeReport bool

// createAnalyzeCommand creates the analyze subcommand: the Derived-
// Index Materializer alone, per spec.md §4.8 ("analyze (materializer
// only)").
func createAnalyzeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Refresh the materialized relations (latest, ranked, SONAME breaks)",
		RunE:  executeAnalyze,
	}
	cmd.Flags().BoolVar(&analyzeReport, "report", false,
		"Print relation counts instead of refreshing them (read-only, performs no writes)")
	return cmd
}

func executeAnalyze(cmd *cobra.Command, args []string) error {
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

	if analyzeReport {
		report, err := st.CountsReport(ctx)
		if err != nil {
			return fatal(err)
		}
		fmt.Printf("packages:        %d\n", report.Packages)
		fmt.Printf("duplicates:      %d\n", report.Duplicates)
		fmt.Printf("so-break edges:  %d\n", report.SOBreaks)
		fmt.Printf("open issues:     %d\n", report.OpenIssues)
		return nil
	}

	if err := materialize.Refresh(ctx, st); err != nil {
		return fatal(err)
	}
	logger.Logger().Info("analyze complete")
	return nil
}
