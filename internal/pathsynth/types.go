// Package pathsynth turns a classified file's original location plus
// its ancestors' resolved folder actions into a destination path, via
// a five-step algorithm: prefix strip, keep-pivot detection, template
// selection, render, explain.
package pathsynth

import "foldersort/internal/categories"

// ParentEntry is one ancestor folder between a source root and a file,
// carrying the folder action resolved for it. An empty Action means "no
// decision was recorded for this folder" -- per the resolver's
// contract (folderaction.Resolve never stores an inherited decision),
// that can only happen below an ancestor already marked KEEP, where the
// keep-pivot walk keeps every remaining entry regardless of its own
// Action field. So an empty Action is never itself load-bearing: above
// a pivot it's equivalent to disaggregate, at or below one it's kept
// anyway.
type ParentEntry struct {
	Name   string
	Action string // "keep", "keep_except", "disaggregate", or ""
}

const (
	actionKeep         = "keep"
	actionKeepExcept   = "keep_except"
	actionDisaggregate = "disaggregate"
)

// Options bundles the prefix-stripping configuration that applies to
// every file synthesized in one run.
type Options struct {
	// StripList is a set of folder names removed wherever they appear as
	// a leading segment, applied repeatedly top-down (so "Backups/old/My
	// Files/doc.pdf" with StripList=["Backups","old"] becomes "My
	// Files/doc.pdf" before wrapper/pivot logic runs).
	StripList []string

	// SourceWrapperRegexp, if set, is matched against the first
	// remaining segment after StripList is applied; a match is dropped
	// the same way a StripList entry is. The caller compiles it once
	// (a *regexp.Regexp satisfies Matcher) to avoid recompiling per file.
	SourceWrapperRegexp Matcher

	Sanitize bool
}

// Matcher is the minimal regexp surface Options needs, so tests can pass
// a stub instead of a real *regexp.Regexp.
type Matcher interface {
	MatchString(s string) bool
}

// FileInput is everything the synthesizer needs for one file.
type FileInput struct {
	RelPath  []string // path segments relative to the matched source root, filename last
	Parents  []ParentEntry
	Category categories.CategoryPath
	Metadata map[string]string
	Filename string
}

// ClassifiedPath is the synthesizer's output: the rendered destination
// plus enough provenance to explain it in a report.
type ClassifiedPath struct {
	Destination  string
	KeptPath     []string
	PivotIndex   int // -1 if no pivot was found
	PivotAction  string
	Explanation  string
}
