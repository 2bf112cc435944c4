package report

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"
)

// maxBatchBytes and maxBatchFiles are the chunking thresholds: a batch
// closes as soon as either limit would be exceeded by the next item.
const (
	maxBatchBytes = 5 * 1 << 30 // 5 GiB
	maxBatchFiles = 200
)

// CopyItem is one unit the copy plan moves: either a whole folder that
// remains intact (an ancestor resolved to KEEP/KEEP_EXCEPT, copied as a
// single directory) or one individually classified file.
type CopyItem struct {
	SourcePath string
	DestPath   string
	IsDir      bool
	ByteSize   int64
	Category   string
}

// Batch is one grouped rsync invocation: a set of items small enough to
// stay under the byte/file ceiling, plus its running totals for the
// script's comment header.
type Batch struct {
	Items      []CopyItem
	TotalBytes int64
	TotalFiles int
}

// categories returns the distinct, sorted category labels present in a
// batch, for the summary comment header.
func (b Batch) categories() []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range b.Items {
		if it.Category == "" || seen[it.Category] {
			continue
		}
		seen[it.Category] = true
		out = append(out, it.Category)
	}
	sort.Strings(out)
	return out
}

// BuildPlan groups items into size/count-bounded batches. Items are
// consumed in the order given; a caller wanting directory copies grouped
// ahead of loose files should sort items first (kept folders naturally
// sort first when IsDir is used as the primary sort key).
func BuildPlan(items []CopyItem) []Batch {
	var batches []Batch
	var cur Batch

	for _, it := range items {
		wouldExceedBytes := cur.TotalBytes+it.ByteSize > maxBatchBytes && len(cur.Items) > 0
		wouldExceedFiles := cur.TotalFiles+1 > maxBatchFiles && len(cur.Items) > 0
		if wouldExceedBytes || wouldExceedFiles {
			batches = append(batches, cur)
			cur = Batch{}
		}
		cur.Items = append(cur.Items, it)
		cur.TotalBytes += it.ByteSize
		cur.TotalFiles++
	}
	if len(cur.Items) > 0 {
		batches = append(batches, cur)
	}
	return batches
}

// RenderScript renders batches as an executable POSIX shell script:
// each batch gets a comment header summarizing its categories and
// sizes, followed by a `mkdir -p` for every distinct destination
// directory and one `rsync -a --partial --append-verify` per item. A
// directory item is rsynced with a trailing slash on both sides so its
// full contents land under the destination directory.
func RenderScript(batches []Batch) string {
	var sb strings.Builder
	sb.WriteString("#!/bin/sh\n")
	sb.WriteString("# generated copy plan: each batch groups items under a 5 GiB / 200 file ceiling\n")
	sb.WriteString("set -e\n\n")

	for i, b := range batches {
		fmt.Fprintf(&sb, "# batch %d: files=%d bytes=%d categories=%s\n",
			i+1, b.TotalFiles, b.TotalBytes, strings.Join(b.categories(), ","))

		dirs := distinctDestDirs(b.Items)
		for _, d := range dirs {
			fmt.Fprintf(&sb, "mkdir -p %s\n", shQuote(d))
		}
		for _, it := range b.Items {
			src, dst := it.SourcePath, it.DestPath
			if it.IsDir {
				src = strings.TrimRight(src, "/") + "/"
				dst = strings.TrimRight(dst, "/") + "/"
			}
			fmt.Fprintf(&sb, "rsync -a --partial --append-verify %s %s\n", shQuote(src), shQuote(dst))
		}
		sb.WriteString("\n")
	}
	return sb.String()
}

// distinctDestDirs returns the set of directories that must exist before
// a batch's rsync calls run: an item's own dest path for a directory
// copy, or its parent directory for a file copy.
func distinctDestDirs(items []CopyItem) []string {
	seen := map[string]bool{}
	var out []string
	for _, it := range items {
		dir := it.DestPath
		if !it.IsDir {
			dir = filepath.Dir(it.DestPath)
		}
		if seen[dir] {
			continue
		}
		seen[dir] = true
		out = append(out, dir)
	}
	sort.Strings(out)
	return out
}

// shQuote wraps s in single quotes, escaping any embedded single quote
// the POSIX-shell way ('\'').
func shQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
