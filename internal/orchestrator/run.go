package orchestrator

import (
	"context"
	"fmt"

	"foldersort/internal/catalog"
	"foldersort/internal/logging"
	"foldersort/internal/mover"
	"foldersort/internal/scan"
)

// RunScan walks every configured source root, hashes each file's
// content, inserts newly discovered rows into the catalog, and upserts
// every folder's content hash.
func (o *Orchestrator) RunScan(ctx context.Context) (inserted int, err error) {
	log := logging.Get(logging.CategoryOrchestrate)
	log.Info("run %s: scanning %d source root(s)", o.RunID, len(o.Cfg.SourceRoots))

	result, err := scan.Walk(ctx, o.Cfg.SourceRoots, o.Cfg.ScanWorkers)
	if err != nil {
		return 0, fmt.Errorf("scanning source roots: %w", err)
	}

	n, err := o.Store.BulkInsert(ctx, result.Files)
	if err != nil {
		return 0, err
	}
	if err := o.Store.UpsertFolderHashes(ctx, result.FolderHashes); err != nil {
		return n, err
	}

	log.Info("run %s: scan found %d files (%d new), %d folders hashed",
		o.RunID, len(result.Files), n, len(result.FolderHashes))
	return n, nil
}

// RunClassify drains the catalog's unclassified rows in batches of
// cfg.BatchSize until none remain, running the classifier orchestrator
// to exhaustion.
func (o *Orchestrator) RunClassify(ctx context.Context) (total int, err error) {
	log := logging.Get(logging.CategoryOrchestrate)
	batchSize := o.Cfg.BatchSize
	if batchSize <= 0 {
		batchSize = 500
	}

	for {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		n, err := o.Classify.RunBatch(ctx, batchSize)
		if err != nil {
			return total, err
		}
		if n == 0 {
			break
		}
		total += n
		log.Info("run %s: classified batch of %d (total %d)", o.RunID, n, total)
		if o.Metrics != nil {
			o.Metrics.Refresh()
		}
	}
	return total, nil
}

// RunMove shells out to a previously generated copy-plan script and, on
// success, marks every path in movedPaths as moved in the catalog.
func (o *Orchestrator) RunMove(ctx context.Context, scriptPath string, movedPaths []string, dryRun bool) error {
	m := &mover.Mover{DryRun: dryRun}
	if err := m.RunScript(ctx, scriptPath); err != nil {
		return err
	}
	if dryRun {
		return nil
	}
	return o.Store.MarkMoved(ctx, movedPaths)
}

// AllClassified exposes the catalog's classified rows for the report
// stage without leaking *catalog.Store to callers that only need reads.
func (o *Orchestrator) AllClassified(ctx context.Context) ([]catalog.FileRecord, error) {
	return o.Store.AllClassified(ctx)
}

// DuplicateFolders exposes the catalog's duplicate-folder groups for the
// report stage.
func (o *Orchestrator) DuplicateFolders(ctx context.Context) ([]catalog.DuplicateFolderGroup, error) {
	return o.Store.SelectDuplicateFolders(ctx)
}

// Summarize exposes the catalog's status breakdown for the report stage.
func (o *Orchestrator) Summarize(ctx context.Context) (catalog.Stats, error) {
	return o.Store.Summarize(ctx)
}
