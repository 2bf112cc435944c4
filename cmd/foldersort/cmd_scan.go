package main

import (
	"github.com/spf13/cobra"

	"foldersort/internal/orchestrator"
)

var scanCmd = &cobra.Command{
	Use:   "scan",
	Short: "Walk the configured source roots and populate the catalog",
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := orchestrator.Build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer o.Close()

		inserted, err := o.RunScan(cmd.Context())
		if err != nil {
			return err
		}
		logger.Sugar().Infof("run %s: scan inserted %d new file(s)", o.RunID, inserted)
		return nil
	},
}
