// Package classify implements the per-file classifier orchestrator: for
// every unclassified catalog row it resolves the applicable folder
// actions, applies the rule engine, optionally consults the AI
// classifier (directly or through the multiplexer), and hands the
// result to the path synthesizer before persisting the batch.
package classify

import (
	"foldersort/internal/categories"
	"foldersort/internal/pathsynth"
)

// FileNode is the immutable, in-memory record assembled for one file
// during classification It is serialized to JSON
// and stored in FileRecord.FileNodeJSON for later inspection (the
// db-dump CLI, reports) without needing to re-run the pipeline.
type FileNode struct {
	Path         string                     `json:"path"`
	SourceRoot   string                     `json:"source_root"`
	SourcePrefix string                     `json:"source_prefix"`
	RelParts     []string                   `json:"rel_parts"`
	RuleMatched  bool                       `json:"rule_matched"`
	RuleCategory categories.CategoryPath    `json:"rule_category,omitempty"`
	AICategory   categories.CategoryPath    `json:"ai_category,omitempty"`
	Category     categories.CategoryPath    `json:"category"`
	Metadata     map[string]string          `json:"metadata,omitempty"`
	Parents      []pathsynth.ParentEntry    `json:"parents"`
}
