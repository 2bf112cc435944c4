package classify

import (
	"path/filepath"
	"sort"
	"strings"

	"foldersort/internal/catalog"
	"foldersort/internal/folderaction"
)

// BuildFolderSamples reconstructs the one-level-deep FolderSample tree
// for every ancestor directory of every file in records, computed from
// the flat catalog listing rather than a live filesystem walk. This is
// what lets a `classify` run resolve folder actions correctly even when
// it isn't in the same process as the `scan` that discovered the files.
func BuildFolderSamples(records []catalog.FileRecord) map[string]folderaction.FolderSample {
	type state struct {
		children map[string]folderaction.ChildSample
		files    int
	}
	states := make(map[string]*state)

	ensure := func(path string) *state {
		st, ok := states[path]
		if !ok {
			st = &state{children: make(map[string]folderaction.ChildSample)}
			states[path] = st
		}
		return st
	}

	for _, r := range records {
		path := filepath.ToSlash(r.Path)
		root := filepath.ToSlash(r.SourceRoot)
		dir := filepath.ToSlash(filepath.Dir(path))

		ensure(dir).children[filepath.Base(path)] = folderaction.ChildSample{
			Name: filepath.Base(path), IsDir: false, Mime: r.Mime, Size: r.Size,
		}
		ensure(dir).files++

		// Walk every ancestor directory between dir and root (exclusive of
		// root's own parent), registering each as a dir-child of its
		// parent so the tree has no gaps even when an intermediate folder
		// has no files of its own.
		cur := dir
		for cur != root && cur != "." && cur != "/" {
			parent := filepath.ToSlash(filepath.Dir(cur))
			name := filepath.Base(cur)
			ps := ensure(parent)
			if _, ok := ps.children[name]; !ok {
				ps.children[name] = folderaction.ChildSample{Name: name, IsDir: true}
			}
			if parent == cur {
				break
			}
			cur = parent
		}
		ensure(root)
	}

	// Roll up total file counts: a folder's TotalFiles is its own direct
	// file count plus every descendant's, computed bottom-up by depth.
	paths := make([]string, 0, len(states))
	for p := range states {
		paths = append(paths, p)
	}
	sort.Slice(paths, func(i, j int) bool { return depthOf(paths[i]) > depthOf(paths[j]) })

	totals := make(map[string]int, len(states))
	for _, p := range paths {
		st := states[p]
		total := st.files
		for _, c := range st.children {
			if c.IsDir {
				childPath := filepath.ToSlash(filepath.Join(p, c.Name))
				total += totals[childPath]
			}
		}
		totals[p] = total
	}

	out := make(map[string]folderaction.FolderSample, len(states))
	for p, st := range states {
		children := make([]folderaction.ChildSample, 0, len(st.children))
		for _, c := range st.children {
			if c.IsDir {
				childPath := filepath.ToSlash(filepath.Join(p, c.Name))
				c.FilesInside = totals[childPath]
			}
			children = append(children, c)
		}
		sort.Slice(children, func(i, j int) bool { return children[i].Name < children[j].Name })
		out[p] = folderaction.FolderSample{Path: p, Children: children, TotalFiles: totals[p]}
	}
	return out
}

func depthOf(path string) int {
	path = strings.Trim(filepath.ToSlash(path), "/")
	if path == "" {
		return 0
	}
	return strings.Count(path, "/") + 1
}

// ToDecisions converts persisted FolderActionRecord rows into the
// folderaction.Decision map Resolve expects.
func ToDecisions(records map[string]catalog.FolderActionRecord) map[string]folderaction.Decision {
	out := make(map[string]folderaction.Decision, len(records))
	for path, r := range records {
		out[path] = folderaction.Decision{Action: folderaction.Action(r.Action), DecisionSource: r.DecisionSource}
	}
	return out
}

// FromDecisions converts a resolved decisions map back into persistable
// FolderActionRecord rows.
func FromDecisions(decisions map[string]folderaction.Decision) []catalog.FolderActionRecord {
	out := make([]catalog.FolderActionRecord, 0, len(decisions))
	for path, d := range decisions {
		out = append(out, catalog.FolderActionRecord{Path: path, Action: string(d.Action), DecisionSource: d.DecisionSource})
	}
	return out
}
