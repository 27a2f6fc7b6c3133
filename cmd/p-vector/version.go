package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/aosc-dev/p-vector/internal/buildinfo"
)

// createVersionCommand creates the version subcommand
func createVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Display version information",
		Run:   executeVersion,
	}
}

func executeVersion(cmd *cobra.Command, args []string) {
	fmt.Printf("%s v%s\n", buildinfo.Toolname, buildinfo.Version)
	fmt.Printf("Build Date: %s\n", buildinfo.BuildDate)
	fmt.Printf("Commit: %s\n", buildinfo.CommitSHA)
	fmt.Printf("Organization: %s\n", buildinfo.Organization)
}
