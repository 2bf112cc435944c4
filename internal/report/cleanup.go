// Package report implements the pipeline's reporting surface: the
// pipe-separated cleanup and duplicate-folders reports, the rsync
// copy-plan shell script, and an optional Prometheus metrics endpoint
// fed by the classifier multiplexer's snapshot.
package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"foldersort/internal/catalog"
)

// cleanupHeader is the fixed column order for the cleanup report: one
// row per classified file.
var cleanupHeader = []string{
	"source_path", "destination", "category", "rule_category", "ai_category", "size", "status",
}

// WriteCleanupReport streams one pipe-separated row per record in
// records, in the order given (callers sort beforehand if a stable
// report order matters).
func WriteCleanupReport(w io.Writer, records []catalog.FileRecord) error {
	cw := csv.NewWriter(w)
	cw.Comma = '|'

	if err := cw.Write(cleanupHeader); err != nil {
		return fmt.Errorf("writing cleanup report header: %w", err)
	}
	for _, r := range records {
		row := []string{
			r.Path,
			r.Destination,
			r.Category,
			r.RuleCategory,
			r.AICategory,
			fmt.Sprintf("%d", r.Size),
			r.Status,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing cleanup report row for %s: %w", r.Path, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// duplicateFoldersHeader is the fixed column order for the
// duplicate-folders report.
var duplicateFoldersHeader = []string{"folder_hash", "file_count", "byte_size", "paths"}

// WriteDuplicateFoldersReport streams one row per duplicate-folder
// group, paths comma-joined within the pipe-separated row.
func WriteDuplicateFoldersReport(w io.Writer, groups []catalog.DuplicateFolderGroup) error {
	cw := csv.NewWriter(w)
	cw.Comma = '|'

	if err := cw.Write(duplicateFoldersHeader); err != nil {
		return fmt.Errorf("writing duplicate-folders report header: %w", err)
	}
	for _, g := range groups {
		row := []string{
			g.ContentHash,
			fmt.Sprintf("%d", g.FileCount),
			fmt.Sprintf("%d", g.ByteSize),
			joinComma(g.Paths),
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("writing duplicate-folders report row for %s: %w", g.ContentHash, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

func joinComma(items []string) string {
	out := ""
	for i, s := range items {
		if i > 0 {
			out += ","
		}
		out += s
	}
	return out
}
