// Package categories implements the category catalog and template
// engine: parsing a category tree plus per-category templates from CSV
// or JSON, normalizing AI-proposed category labels against the known
// tree, and rendering destination path fragments from templates.
package categories

import (
	"strings"
)

// CategoryPath is an ordered, non-empty sequence of non-empty ASCII
// segments. Equality is by segments; rendering joins with "/". Segments
// are compared case-insensitively but stored case-preserving.
type CategoryPath []string

// Unknown is the sentinel category used when classification fails.
var Unknown = CategoryPath{"unknown"}

// String renders the path as a slash-separated string.
func (p CategoryPath) String() string {
	return strings.Join(p, "/")
}

// Equal compares two paths segment-by-segment, case-insensitively.
func (p CategoryPath) Equal(other CategoryPath) bool {
	if len(p) != len(other) {
		return false
	}
	for i := range p {
		if !strings.EqualFold(p[i], other[i]) {
			return false
		}
	}
	return true
}

// IsUnknown reports whether p is the Unknown sentinel.
func (p CategoryPath) IsUnknown() bool {
	return p.Equal(Unknown)
}

// Key returns a lower-cased, slash-joined form suitable for map lookups.
func (p CategoryPath) Key() string {
	lowered := make([]string, len(p))
	for i, s := range p {
		lowered[i] = strings.ToLower(s)
	}
	return strings.Join(lowered, "/")
}

// ParsePath splits a slash-separated string into a CategoryPath,
// rejecting empty segments and segments containing control characters.
func ParsePath(s string) (CategoryPath, bool) {
	s = strings.Trim(strings.TrimSpace(s), "/")
	if s == "" {
		return nil, false
	}
	parts := strings.Split(s, "/")
	out := make(CategoryPath, 0, len(parts))
	for _, part := range parts {
		part = strings.TrimSpace(part)
		if part == "" || !validSegment(part) {
			return nil, false
		}
		out = append(out, part)
	}
	if len(out) == 0 {
		return nil, false
	}
	return out, true
}

func validSegment(s string) bool {
	for _, r := range s {
		if r == '/' || r < 0x20 || r == 0x7f {
			return false
		}
	}
	return true
}
