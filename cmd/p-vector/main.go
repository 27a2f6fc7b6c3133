package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/aosc-dev/p-vector/internal/config"
	"github.com/aosc-dev/p-vector/internal/utils/logger"
	"github.com/aosc-dev/p-vector/internal/utils/security"
)

// Command-line flags that can override config file settings
var (
	configFile       string = "" // Path to config file
	logLevel         string = "" // Empty means use config file value
	actualConfigFile string = "" // Actual config file path found during init
	loggerCleanup    func()
)

func main() {
	cobra.OnInitialize(initConfig)

	defer func() {
		if loggerCleanup != nil {
			loggerCleanup()
		}
	}()

	rootCmd := createRootCommand()
	security.AttachRecursive(rootCmd, security.DefaultLimits())

	if err := rootCmd.Execute(); err != nil {
		os.Exit(exitCodeFor(err))
	}
}

// initConfig reads the TOML configuration file and sets up logging
// before any subcommand runs.
func initConfig() {
	configFilePath := configFile
	if configFilePath == "" {
		configFilePath = config.FindConfigFile()
	}
	actualConfigFile = configFilePath

	cfg, err := config.Load(configFilePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading configuration: %v\n", err)
		os.Exit(1)
	}
	config.SetGlobal(cfg)

	_, cleanup, logErr := logger.InitWithConfig(logger.Config{
		Level:    cfg.LogLevel,
		FilePath: cfg.LogFile,
	})
	if logErr != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logger: %v\n", logErr)
		os.Exit(1)
	}
	loggerCleanup = cleanup
}

// createRootCommand creates and configures the root cobra command with
// all subcommands.
func createRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "p-vector",
		Short: "APT/dpkg repository manager",
		Long: `p-vector scans a pool of .deb packages, indexes their metadata and
file listings into a relational store, and emits the Packages/Contents/
Release family of files APT clients fetch. It also materializes
cross-package quality relations such as shared-library break chains.

Use 'p-vector --help' to see available commands.
Use 'p-vector <command> --help' for more information about a command.`,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			if logLevel != "" {
				cfg := config.Global()
				cfg.LogLevel = logLevel
				config.SetGlobal(cfg)
				logger.SetLogLevel(logLevel)
			}

			log := logger.Logger()
			if actualConfigFile != "" {
				log.Infof("Using configuration from: %s", actualConfigFile)
			}
			log.Debugf("Config: path=%s, db_pgconn set=%t, branches=%d",
				config.Global().Path, config.Global().DBConnString != "", len(config.Global().Branches))
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "",
		"Path to configuration file")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level (debug, info, warn, error)")

	rootCmd.AddCommand(createFullCommand())
	rootCmd.AddCommand(createScanCommand())
	rootCmd.AddCommand(createReleaseCommand())
	rootCmd.AddCommand(createAnalyzeCommand())
	rootCmd.AddCommand(createGenKeyCommand())
	rootCmd.AddCommand(createSyncCommand())
	rootCmd.AddCommand(createVersionCommand())
	rootCmd.AddCommand(createConfigCommand())
	rootCmd.AddCommand(createInstallCompletionCommand())

	return rootCmd
}

// exitCodeFor maps a top-level command error to the process exit code
// spec.md §6's exit-code table mandates: 0 success (unreachable here,
// Execute only returns non-nil on failure), 2 lock contention, 3 fatal
// runtime error, 1 everything else (usage/argument errors cobra itself
// reports).
func exitCodeFor(err error) int {
	if code, ok := exitCodeFromError(err); ok {
		return code
	}
	return 1
}
