package main

import (
	"github.com/spf13/cobra"

	"foldersort/internal/orchestrator"
)

var classifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Drain unclassified catalog rows through the rule/AI pipeline",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := orchestrator.Build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer o.Close()

		total, err := o.RunClassify(cmd.Context())
		if err != nil {
			return err
		}
		logger.Sugar().Infof("run %s: classified %d file(s)", o.RunID, total)
		return nil
	},
}
