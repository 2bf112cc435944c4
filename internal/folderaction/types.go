// Package folderaction implements the folder-action resolver: a pure
// function from (folder samples, persisted actions, classifier chain)
// to an actions map.
package folderaction

import (
	"path/filepath"
	"sort"
	"strings"

	"foldersort/internal/aiclient"
)

// Action is the resolved folder decision, reusing the same vocabulary as
// rules.FolderAction (KEEP/KEEP_EXCEPT/DISAGGREGATE; KEEP_PARENT only
// ever appears as a rule marker, never as a resolved folder action).
type Action string

const (
	ActionKeep         Action = "keep"
	ActionKeepExcept   Action = "keep_except"
	ActionDisaggregate Action = "disaggregate"
)

// ChildSample is one direct child of a folder, used to build the
// FolderActionRequest shown to classifiers.
type ChildSample struct {
	Name        string
	IsDir       bool
	Mime        string
	Size        int64
	FilesInside int
}

// FolderSample is the per-folder input computed by the scan/orchestrator
// stage: every direct child plus the total file count of the subtree
// rooted at this folder. Folder samples never recurse past one level of
// listing.
type FolderSample struct {
	Path       string
	Children   []ChildSample
	TotalFiles int
}

// Decision is the resolved action for one folder plus provenance.
type Decision struct {
	Action         Action
	DecisionSource string // e.g. "rules:decision:keep", "ai:decision:disaggregate", "chain_exhausted"
}

// Classifier is the capability every link in the classifier chain
// exposes: either a final Decision or a Delegation carrying a hint for
// the next classifier.
type Classifier interface {
	Name() string
	Evaluate(req aiclient.FolderActionRequest) aiclient.FolderActionResponse
}

func depth(path string) int {
	path = strings.Trim(filepath.ToSlash(path), "/")
	if path == "" {
		return 0
	}
	return strings.Count(path, "/") + 1
}

// sortedByDepth returns folder paths from samples ordered by ascending
// path depth (root-most first), so parents are always resolved before
// children -- this is what lets inheritance short-circuit descendant
// evaluation.
func sortedByDepth(samples map[string]FolderSample) []string {
	paths := make([]string, 0, len(samples))
	for p := range samples {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool {
		di, dj := depth(paths[i]), depth(paths[j])
		if di != dj {
			return di < dj
		}
		return paths[i] < paths[j]
	})
	return paths
}

func isAncestor(ancestor, descendant string) bool {
	ancestor = filepath.Clean(ancestor)
	descendant = filepath.Clean(descendant)
	if ancestor == descendant {
		return false
	}
	rel, err := filepath.Rel(ancestor, descendant)
	if err != nil {
		return false
	}
	return rel != "." && !strings.HasPrefix(rel, "..")
}

func parentOf(path string) string {
	return filepath.Dir(filepath.Clean(path))
}
