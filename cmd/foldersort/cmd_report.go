package main

import (
	"github.com/spf13/cobra"

	"foldersort/internal/orchestrator"
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Write the cleanup report, duplicate-folders report, and move plan",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := orchestrator.Build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer o.Close()

		if err := o.RunReport(cmd.Context(), cfg.ReportDir); err != nil {
			return err
		}
		logger.Sugar().Infof("run %s: report written to %s", o.RunID, cfg.ReportDir)
		return nil
	},
}
