package rules

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"foldersort/internal/categories"
	"foldersort/internal/errkind"
)

// Table is the ordered, first-match-wins rule list plus the load errors
// accumulated while building it.
type Table struct {
	rules  []*Rule
	errors []LoadError
}

// LoadFile reads a rules CSV from path. A malformed row is skipped and
// recorded, not fatal; only an I/O failure reading the file itself
// returns an error.
func LoadFile(path string) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening rules file %s: %w: %w", path, errkind.IO, err)
	}
	defer f.Close()
	return Load(f)
}

// Load reads a rules CSV from r.
func Load(r io.Reader) (*Table, error) {
	t := &Table{}
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		rule, loadErr := parseRuleRow(line)
		if loadErr != nil {
			loadErr.Line = lineNo
			t.errors = append(t.errors, *loadErr)
			continue
		}
		t.rules = append(t.rules, rule)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning rules file: %w: %w", errkind.Parse, err)
	}
	return t, nil
}

// parseRuleRow parses "path_regex, mime_regex, category_path,
// folder_action, requires_ai". A nil *LoadError with a nil *Rule never
// happens: either a Rule or a populated LoadError (sans Line) is
// returned.
func parseRuleRow(row string) (*Rule, *LoadError) {
	fields := splitCSVFields(row)
	if len(fields) != 5 {
		return nil, &LoadError{Row: row, Reason: fmt.Sprintf("expected 5 columns, got %d", len(fields))}
	}

	pathPattern := strings.TrimSpace(fields[0])
	mimePattern := strings.TrimSpace(fields[1])
	categoryStr := strings.TrimSpace(fields[2])
	actionStr := strings.TrimSpace(fields[3])
	requiresStr := strings.TrimSpace(fields[4])

	pathRe, err := compilePattern(pathPattern)
	if err != nil {
		return nil, &LoadError{Row: row, Reason: fmt.Sprintf("invalid path regex: %v", err)}
	}
	mimeRe, err := compilePattern(mimePattern)
	if err != nil {
		return nil, &LoadError{Row: row, Reason: fmt.Sprintf("invalid mime regex: %v", err)}
	}

	var category categories.CategoryPath
	if categoryStr != "" {
		cp, ok := categories.ParsePath(categoryStr)
		if !ok {
			return nil, &LoadError{Row: row, Reason: fmt.Sprintf("invalid category path %q", categoryStr)}
		}
		category = cp
	}

	action, ok := ParseFolderAction(actionStr)
	if !ok {
		return nil, &LoadError{Row: row, Reason: fmt.Sprintf("unknown folder_action %q", actionStr)}
	}

	var requires RequiresAI
	if requiresStr != "" {
		r, ok := ParseRequiresAI(requiresStr)
		if !ok {
			return nil, &LoadError{Row: row, Reason: fmt.Sprintf("unknown requires_ai %q", requiresStr)}
		}
		requires = r
	}

	return &Rule{
		PathPattern:  pathPattern,
		MimePattern:  mimePattern,
		Category:     category,
		FolderAction: action,
		RequiresAI:   requires,
		pathRe:       pathRe,
		mimeRe:       mimeRe,
	}, nil
}

// splitCSVFields splits a row on commas. The rule grammar has no quoted
// fields with embedded commas (category paths use '/', regexes are not
// expected to contain literal commas), so a plain split matches the
// source format.
func splitCSVFields(row string) []string {
	return strings.Split(row, ",")
}

// Match walks the table in file order and returns the first rule whose
// path and mime patterns both match, or nil if none do.
func (t *Table) Match(relPath, mime string) *MatchInfo {
	for _, r := range t.rules {
		if info, ok := r.Match(relPath, mime); ok {
			return info
		}
	}
	return nil
}

// Rules returns the compiled rule list in file order. Callers must not
// mutate the returned slice.
func (t *Table) Rules() []*Rule {
	return t.rules
}

// Diagnostics returns every accumulated load error, in file order.
func (t *Table) Diagnostics() []LoadError {
	return t.errors
}

// EnsureAvailable reports false when any row failed to load, matching
// the source contract that a rule-load error makes the table
// unavailable for strict (non-manual) modes.
func (t *Table) EnsureAvailable() bool {
	return len(t.errors) == 0
}
