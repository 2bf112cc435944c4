package main

import (
	"github.com/spf13/cobra"

	"foldersort/internal/config"
	"foldersort/internal/orchestrator"
)

var allCmd = &cobra.Command{
	Use:   "all",
	Short: "Run scan, classify, and report in sequence",
	Long: `all runs scan, classify, and report back to back. It never runs move:
that is always a separate, explicitly reviewed step.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := orchestrator.Build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer o.Close()

		if err := o.RunMode(cmd.Context(), config.ModeAll, cfg.ReportDir); err != nil {
			return err
		}
		logger.Sugar().Infof("run %s: scan+classify+report complete", o.RunID)
		return nil
	},
}
