// Package main implements the foldersort CLI: a batch classification and
// cleanup-planning pipeline over one or more messy source directory
// trees, driven by the scan/classify/move/report/all subcommands plus a
// handful of ancillary thin-shell commands (analyze, rules-check,
// db-dump).
//
// # File Index
//
//   - main.go          - entry point, rootCmd, global flags, zap setup
//   - cmd_scan.go      - scanCmd
//   - cmd_classify.go  - classifyCmd
//   - cmd_move.go      - moveCmd
//   - cmd_report.go    - reportCmd
//   - cmd_all.go       - allCmd
//   - cmd_analyze.go   - analyzeCmd
//   - cmd_rules_check.go - rulesCheckCmd
//   - cmd_db_dump.go   - dbDumpCmd
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"foldersort/internal/config"
	"foldersort/internal/logging"
)

var (
	verbose    bool
	configPath string
	workspace  string

	cfg    *config.Config
	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "foldersort",
	Short: "Classify and plan a cleanup of one or more messy source directories",
	Long: `foldersort scans one or more source directory trees, classifies every
file into a configured category taxonomy (by rule first, then optionally
by AI), synthesizes a destination path for each, and emits a reviewable
cleanup report plus an rsync copy-plan script. It never moves a file on
its own; the move subcommand only runs a plan you already have on disk.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		zapCfg := zap.NewProductionConfig()
		if verbose {
			zapCfg.Level = zap.NewAtomicLevelAt(zapcore.DebugLevel)
		}
		var err error
		logger, err = zapCfg.Build()
		if err != nil {
			return fmt.Errorf("initializing logger: %w", err)
		}

		level := logging.LevelInfo
		if verbose {
			level = logging.LevelDebug
		}
		if err := logging.Initialize(workspace, verbose, level); err != nil {
			fmt.Fprintf(os.Stderr, "warning: failed to initialize file logging: %v\n", err)
		}

		loaded, err := config.Load(configPath)
		if err != nil {
			return err
		}
		cfg = loaded
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
		logging.CloseAll()
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose logging")
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "path to a YAML config file")
	rootCmd.PersistentFlags().StringVarP(&workspace, "workspace", "w", "", "workspace directory for debug log files")

	rootCmd.AddCommand(scanCmd, classifyCmd, moveCmd, reportCmd, allCmd, analyzeCmd, rulesCheckCmd, dbDumpCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
