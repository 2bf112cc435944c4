package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"foldersort/internal/rules"
)

var rulesCheckCmd = &cobra.Command{
	Use:   "rules-check",
	Short: "Load the configured rules file and report any diagnostics",
	Long: `rules-check loads the rules file at --config's rules_path (or the
FOLDERSORT_RULES_PATH override) without touching the catalog, and prints
every accumulated load error. It exits non-zero when the table has any
diagnostic, matching the same ensure_available() gate the orchestrator
applies before a non-manual run.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		table, err := rules.LoadFile(cfg.RulesPath)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d rule(s) loaded\n", cfg.RulesPath, len(table.Rules()))
		diags := table.Diagnostics()
		for _, d := range diags {
			fmt.Printf("line %d: %s: %q\n", d.Line, d.Reason, d.Row)
		}

		if !table.EnsureAvailable() {
			return fmt.Errorf("%s: %d rule(s) failed to load", cfg.RulesPath, len(diags))
		}
		logger.Sugar().Infof("rules-check: %s is clean (%d rules)", cfg.RulesPath, len(table.Rules()))
		return nil
	},
}
