// Package aiclient implements the AI backend adapter:
// two HTTP-based client flavors (a chat-style "native"/Ollama-style
// protocol and an OpenAI-compatible protocol) plus a Gemini SDK-backed
// third flavor, all behind one sealed Backend interface so the
// multiplexer never needs to know which wire format a worker speaks.
package aiclient

import (
	"context"

	"foldersort/internal/categories"
)

// ChildEntry is one direct child of a folder, as shown to rules and AI.
// Folder samples never recurse past this one level.
type ChildEntry struct {
	Name        string `json:"name"`
	Type        string `json:"type"` // "dir" or "file"
	Mime        string `json:"mime,omitempty"`
	Size        int64  `json:"size,omitempty"`
	FilesInside int    `json:"files_inside,omitempty"`
}

// ClassifyRequest is the per-file classification call.
type ClassifyRequest struct {
	Name     string
	RelPath  string
	Mime     string
	Hint     string
	Metadata map[string]string
	Preview  string
}

// ClassifyMetrics carries the non-fatal diagnostics a classification
// call produces: captured Thought/Reasoning lines, latency, and any
// error encountered, all surfaced without ever raising to the caller.
type ClassifyMetrics struct {
	LatencyMillis int64
	Thoughts      []string
	Err           error
}

// ClassifyResponse is always well-formed, even on failure: Category
// falls back to categories.Unknown and Metrics.Err carries the cause.
type ClassifyResponse struct {
	Category categories.CategoryPath
	RawReply string
	Metrics  ClassifyMetrics
}

// FolderActionRequest is what the folder-action resolver shows the
// classifier chain: only direct children, never a deep recursive
// listing.
type FolderActionRequest struct {
	FolderPath string
	FolderName string
	Children   []ChildEntry
	TotalFiles int
	RuleHint   string
}

// FolderActionResponse is a two-state machine: either a final Decision
// (Delegate == false) or a Delegation (Delegate == true) carrying an
// optional Hint for the next classifier in the chain.
type FolderActionResponse struct {
	Delegate bool
	Action   string // meaningful when Delegate == false
	Hint     string // meaningful when Delegate == true
	Reason   string
}

// Backend is the sealed capability set every AI adapter implements. The
// multiplexer depends only on this interface, never on a concrete
// client type, replacing the dynamic duck typing the source used.
type Backend interface {
	Classify(ctx context.Context, req ClassifyRequest, catalog *categories.Catalog) ClassifyResponse
	AdviseFolderAction(ctx context.Context, req FolderActionRequest) FolderActionResponse
	EnsureAvailable(ctx context.Context) bool
	Close() error
	DisplayName() string
	IsAI() bool
}
