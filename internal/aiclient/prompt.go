package aiclient

import (
	"fmt"
	"sort"
	"strings"
)

const categoriesPlaceholder = "{categories_json}"

// BuildSystemPrompt inlines the category catalog's compact JSON into a
// user-provided template, substituting the {categories_json} placeholder
// when present, or appending the JSON as a trailing block when it is not.
func BuildSystemPrompt(template, catalogJSON string) string {
	if strings.Contains(template, categoriesPlaceholder) {
		return strings.ReplaceAll(template, categoriesPlaceholder, catalogJSON)
	}
	return template + "\n\nKnown categories:\n" + catalogJSON
}

const maxMetadataLines = 10

// BuildUserMessage assembles the per-file classification prompt body:
// filename, relative path, MIME, an optional rule hint, up to ten
// metadata lines (sorted for determinism), and the truncated content
// sample.
func BuildUserMessage(req ClassifyRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Filename: %s\n", req.Name)
	fmt.Fprintf(&sb, "Path: %s\n", req.RelPath)
	fmt.Fprintf(&sb, "MIME: %s\n", req.Mime)
	if req.Hint != "" {
		fmt.Fprintf(&sb, "Rule Hint: %s\n", req.Hint)
	}

	keys := make([]string, 0, len(req.Metadata))
	for k := range req.Metadata {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	if len(keys) > maxMetadataLines {
		keys = keys[:maxMetadataLines]
	}
	for _, k := range keys {
		fmt.Fprintf(&sb, "%s: %s\n", k, req.Metadata[k])
	}

	if req.Preview != "" {
		sb.WriteString("\nContent sample:\n")
		sb.WriteString(req.Preview)
	}
	return sb.String()
}

// BuildFolderAdvicePrompt assembles the folder-action advisory prompt:
// the folder's direct children, one per line, plus the total descendant
// file count and any rule hint carried over from the rules classifier.
func BuildFolderAdvicePrompt(req FolderActionRequest) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Folder: %s\n", req.FolderPath)
	fmt.Fprintf(&sb, "Total files in subtree: %d\n", req.TotalFiles)
	if req.RuleHint != "" {
		fmt.Fprintf(&sb, "Rule Hint: %s\n", req.RuleHint)
	}
	sb.WriteString("Direct children:\n")
	for _, c := range req.Children {
		if c.Type == "dir" {
			fmt.Fprintf(&sb, "- %s/ (dir, %d files inside)\n", c.Name, c.FilesInside)
		} else {
			fmt.Fprintf(&sb, "- %s (file, %s, %d bytes)\n", c.Name, c.Mime, c.Size)
		}
	}
	sb.WriteString("\nRespond with one of: keep, keep_except, disaggregate.\n")
	return sb.String()
}

// ParsedReply is the outcome of line-by-line parsing a backend's reply.
type ParsedReply struct {
	Answer   string
	Thoughts []string
}

// ParseReply scans reply line-by-line: the first "Answer:" line supplies
// the category (or action token), and any "Thought:"/"Reasoning:" lines
// are captured for metrics but otherwise ignored.
func ParseReply(reply string) ParsedReply {
	var parsed ParsedReply
	for _, line := range strings.Split(reply, "\n") {
		line = strings.TrimSpace(line)
		switch {
		case parsed.Answer == "" && hasCaseInsensitivePrefix(line, "answer:"):
			parsed.Answer = strings.TrimSpace(line[len("answer:"):])
		case hasCaseInsensitivePrefix(line, "thought:"):
			parsed.Thoughts = append(parsed.Thoughts, strings.TrimSpace(line[len("thought:"):]))
		case hasCaseInsensitivePrefix(line, "reasoning:"):
			parsed.Thoughts = append(parsed.Thoughts, strings.TrimSpace(line[len("reasoning:"):]))
		}
	}
	return parsed
}

func hasCaseInsensitivePrefix(s, prefix string) bool {
	return len(s) >= len(prefix) && strings.EqualFold(s[:len(prefix)], prefix)
}
