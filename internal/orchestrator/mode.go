package orchestrator

import (
	"context"
	"fmt"

	"foldersort/internal/config"
	"foldersort/internal/logging"
)

// RunMode drives the single mode passed in mode. ModeAll runs scan, classify, and report in
// sequence; move is never part of "all" since it is the one step that
// physically mutates the filesystem and should always be an explicit,
// reviewed step.
func (o *Orchestrator) RunMode(ctx context.Context, mode config.Mode, reportDir string) error {
	log := logging.Get(logging.CategoryOrchestrate)
	switch mode {
	case config.ModeScan:
		_, err := o.RunScan(ctx)
		return err
	case config.ModeClassify:
		_, err := o.RunClassify(ctx)
		return err
	case config.ModeReport:
		return o.RunReport(ctx, reportDir)
	case config.ModeMove:
		return fmt.Errorf("move mode requires an explicit script path; use RunMove directly")
	case config.ModeAll:
		if _, err := o.RunScan(ctx); err != nil {
			return fmt.Errorf("scan stage: %w", err)
		}
		if _, err := o.RunClassify(ctx); err != nil {
			return fmt.Errorf("classify stage: %w", err)
		}
		if err := o.RunReport(ctx, reportDir); err != nil {
			return fmt.Errorf("report stage: %w", err)
		}
		log.Info("run %s: all stages complete", o.RunID)
		return nil
	default:
		return fmt.Errorf("unknown mode %q", mode)
	}
}
