package main

import (
	"path/filepath"

	"github.com/spf13/cobra"

	"foldersort/internal/catalog"
	"foldersort/internal/orchestrator"
)

var (
	moveScriptPath string
	moveDryRun     bool
)

var moveCmd = &cobra.Command{
	Use:   "move",
	Short: "Execute a previously generated copy-plan script",
	Long: `move shells out to the rsync script produced by "foldersort report"
and, on success, marks every currently planned file as moved in the
catalog. It never decides what to move on its own -- run report first
and review move_plan.sh before running this command for real.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		o, err := orchestrator.Build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer o.Close()

		scriptPath := moveScriptPath
		if scriptPath == "" {
			scriptPath = filepath.Join(cfg.ReportDir, "move_plan.sh")
		}

		planned, err := o.AllClassified(cmd.Context())
		if err != nil {
			return err
		}
		var movedPaths []string
		for _, rec := range planned {
			if rec.Status == catalog.StatusPlanned {
				movedPaths = append(movedPaths, rec.Path)
			}
		}

		if err := o.RunMove(cmd.Context(), scriptPath, movedPaths, moveDryRun); err != nil {
			return err
		}
		logger.Sugar().Infof("run %s: move script %s executed (%d file(s) marked moved, dry-run=%v)",
			o.RunID, scriptPath, len(movedPaths), moveDryRun)
		return nil
	},
}

func init() {
	moveCmd.Flags().StringVar(&moveScriptPath, "script", "", "path to the copy-plan script (default <report-dir>/move_plan.sh)")
	moveCmd.Flags().BoolVar(&moveDryRun, "dry-run", false, "print what would run without executing it")
}
