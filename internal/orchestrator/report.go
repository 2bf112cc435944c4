package orchestrator

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"foldersort/internal/logging"
	"foldersort/internal/report"
)

// RunReport streams the catalog's classified files and duplicate-folder
// groups into three files under reportDir: cleanup.psv, a pipe-separated
// cleanup report; duplicate_folders.psv, a pipe-separated duplicate
// folders report; and move_plan.sh, an executable rsync copy-plan
// script covering every classified file.
//
// Folders resolved KEEP/KEEP_EXCEPT are not folded into a single
// whole-directory copy item here: every file keeps its own per-file
// copy item, and pathsynth.Synthesize preserves a kept folder's path
// segments in each file's own destination. The plan contains no
// directory-level rsync items.
func (o *Orchestrator) RunReport(ctx context.Context, reportDir string) error {
	log := logging.Get(logging.CategoryReport)
	if err := os.MkdirAll(reportDir, 0o755); err != nil {
		return fmt.Errorf("creating report directory %s: %w", reportDir, err)
	}

	files, err := o.Store.AllClassified(ctx)
	if err != nil {
		return err
	}
	if err := writeReportFile(filepath.Join(reportDir, "cleanup.psv"), func(f *os.File) error {
		return report.WriteCleanupReport(f, files)
	}); err != nil {
		return err
	}

	groups, err := o.Store.SelectDuplicateFolders(ctx)
	if err != nil {
		return err
	}
	if err := writeReportFile(filepath.Join(reportDir, "duplicate_folders.psv"), func(f *os.File) error {
		return report.WriteDuplicateFoldersReport(f, groups)
	}); err != nil {
		return err
	}

	items := make([]report.CopyItem, 0, len(files))
	for _, rec := range files {
		if rec.Destination == "" {
			continue
		}
		items = append(items, report.CopyItem{
			SourcePath: rec.Path,
			DestPath:   filepath.Join(o.Cfg.TargetRoot, rec.Destination),
			ByteSize:   rec.Size,
			Category:   rec.Category,
		})
	}
	batches := report.BuildPlan(items)
	script := report.RenderScript(batches)
	if err := os.WriteFile(filepath.Join(reportDir, "move_plan.sh"), []byte(script), 0o755); err != nil {
		return fmt.Errorf("writing move plan script: %w", err)
	}

	stats, err := o.Store.Summarize(ctx)
	if err != nil {
		return err
	}
	log.Info("run %s: report written to %s (%d files, %d batches, %d duplicate-folder groups)",
		o.RunID, reportDir, stats.Total, len(batches), len(groups))
	return nil
}

func writeReportFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating report file %s: %w", path, err)
	}
	defer f.Close()
	return write(f)
}
