package categories

import (
	"path/filepath"
	"strings"
)

// filenameKeys are metadata keys that, when they appear as the ONLY
// placeholder in a template's final segment, mark that segment as the
// rendered filename rather than a path directory.
var filenameKeys = map[string]bool{
	"title":    true,
	"name":     true,
	"filename": true,
}

const (
	tokenSuffix     = "suffix"
	tokenAICategory = "ai_category"
)

// placeholder is one `{name1|name2|...|fallback}` expression.
type placeholder struct {
	tokens []string
}

// segmentPart is either a literal run of text or a placeholder.
type segmentPart struct {
	literal string
	ph      *placeholder
}

type templateSegment struct {
	parts []segmentPart
}

// Template is a parsed `/`-separated, `{placeholder}`-interleaved
// destination fragment.
type Template struct {
	raw      string
	segments []templateSegment
}

// ParseTemplate compiles a template string. An unterminated `{` is
// treated as literal text rather than an error, matching a lenient
// "best effort" template language.
func ParseTemplate(raw string) *Template {
	t := &Template{raw: raw}
	raw = strings.Trim(raw, "/")
	if raw == "" {
		return t
	}
	for _, segStr := range strings.Split(raw, "/") {
		t.segments = append(t.segments, parseSegment(segStr))
	}
	return t
}

func parseSegment(s string) templateSegment {
	var seg templateSegment
	var lit strings.Builder
	i := 0
	for i < len(s) {
		if s[i] == '{' {
			end := strings.IndexByte(s[i:], '}')
			if end < 0 {
				lit.WriteByte(s[i])
				i++
				continue
			}
			if lit.Len() > 0 {
				seg.parts = append(seg.parts, segmentPart{literal: lit.String()})
				lit.Reset()
			}
			expr := s[i+1 : i+end]
			tokens := strings.Split(expr, "|")
			for k := range tokens {
				tokens[k] = strings.TrimSpace(tokens[k])
			}
			seg.parts = append(seg.parts, segmentPart{ph: &placeholder{tokens: tokens}})
			i += end + 1
			continue
		}
		lit.WriteByte(s[i])
		i++
	}
	if lit.Len() > 0 {
		seg.parts = append(seg.parts, segmentPart{literal: lit.String()})
	}
	return seg
}

// IsDefault reports whether this template is textually empty (used by
// the path synthesizer to distinguish "no real template" from a parsed
// __default__ fallback with no meaningful placeholders).
func (t *Template) IsDefault() bool {
	return len(t.segments) == 0
}

// HasMeaningfulPlaceholders reports whether the template contains at
// least one `{...}` expression (as opposed to pure literal segments).
func (t *Template) HasMeaningfulPlaceholders() bool {
	for _, seg := range t.segments {
		for _, p := range seg.parts {
			if p.ph != nil {
				return true
			}
		}
	}
	return false
}

// RenderOptions bundles the inputs to Render.
type RenderOptions struct {
	Metadata     map[string]string
	CategoryPath CategoryPath
	KeptPath     []string
	Filename     string
	Sanitize     bool
}

// Render assembles `category / rendered-template-parts / kept-path
// (deduped) / filename`, honoring the `suffix` and `ai_category` special
// tokens. When the template's last segment renders through a
// filename-ish key (title/name/filename), that rendered value becomes
// the filename itself: the original filename's extension is appended if
// the rendered value lacks one, and neither kept_path nor filename is
// separately appended.
func (t *Template) Render(opts RenderOptions) string {
	seen := make([]string, 0, len(opts.CategoryPath)+len(t.segments)+len(opts.KeptPath))
	for _, c := range opts.CategoryPath {
		seen = append(seen, normalizeDedup(c))
	}

	out := make([]string, 0, len(opts.CategoryPath)+len(t.segments)+2)
	out = append(out, []string(opts.CategoryPath)...)

	consumedSuffix := false
	lastIsFilenameKey := false
	var lastRendered string

	for i, seg := range t.segments {
		val, usedSuffix, usedFilenameKey := renderSegment(seg, opts.Metadata, opts.KeptPath, &seen)
		if usedSuffix {
			consumedSuffix = true
		}
		if val == "" {
			continue
		}
		out = append(out, val)
		seen = append(seen, normalizeDedup(val))
		if i == len(t.segments)-1 {
			lastIsFilenameKey = usedFilenameKey
			lastRendered = val
		}
	}

	if lastIsFilenameKey {
		name := lastRendered
		if opts.Filename != "" {
			origExt := filepath.Ext(opts.Filename)
			if origExt != "" && filepath.Ext(name) == "" {
				name = name + origExt
			}
		}
		out[len(out)-1] = sanitizeSegment(name, opts.Sanitize)
		return strings.Join(out, "/")
	}

	if !consumedSuffix && len(opts.KeptPath) > 0 {
		kept := dedupAgainst(opts.KeptPath, seen)
		for _, k := range kept {
			out = append(out, sanitizeSegment(k, opts.Sanitize))
			seen = append(seen, normalizeDedup(k))
		}
	}
	if opts.Filename != "" {
		out = append(out, sanitizeSegment(opts.Filename, opts.Sanitize))
	}
	return strings.Join(out, "/")
}

// renderSegment resolves every part of a template segment and
// concatenates them. It reports whether the `suffix` special token was
// resolved anywhere in the segment, and whether the segment consists
// solely of a single placeholder whose token list contains a
// filename-ish key.
func renderSegment(seg templateSegment, metadata map[string]string, keptPath []string, seen *[]string) (value string, usedSuffix bool, usedFilenameKey bool) {
	if len(seg.parts) == 1 && seg.parts[0].ph != nil {
		ph := seg.parts[0].ph
		for _, tok := range ph.tokens {
			if strings.EqualFold(tok, tokenSuffix) {
				usedFilenameKey = false
			}
			if filenameKeys[strings.ToLower(tok)] {
				usedFilenameKey = true
			}
		}
	}

	var b strings.Builder
	for _, part := range seg.parts {
		if part.ph == nil {
			b.WriteString(part.literal)
			continue
		}
		v, isSuffix := resolvePlaceholder(part.ph, metadata, keptPath, seen)
		if isSuffix {
			usedSuffix = true
		}
		b.WriteString(v)
	}
	return b.String(), usedSuffix, usedFilenameKey
}

// resolvePlaceholder tries each token in order as a metadata key; the
// first non-empty, trimmed metadata value wins. If no key matches, the
// final token is emitted as a literal fallback. The special tokens
// "suffix" and "ai_category" are resolved from derived values instead of
// the metadata map.
func resolvePlaceholder(ph *placeholder, metadata map[string]string, keptPath []string, seen *[]string) (string, bool) {
	for i, tok := range ph.tokens {
		lower := strings.ToLower(tok)
		isLast := i == len(ph.tokens)-1

		switch lower {
		case tokenSuffix:
			kept := dedupAgainst(keptPath, *seen)
			if len(kept) == 0 {
				if isLast {
					return "", true
				}
				continue
			}
			val := strings.Join(kept, "/")
			return val, true
		case tokenAICategory:
			raw := strings.TrimSpace(metadata["ai_category"])
			if raw == "" {
				if isLast {
					return "", false
				}
				continue
			}
			return stripRedundantCategoryPrefix(raw, metadata["category"]), false
		}

		if v, ok := metadata[tok]; ok {
			v = strings.TrimSpace(v)
			if v != "" {
				return v, false
			}
		}
		if isLast {
			return tok, false
		}
	}
	return "", false
}

// stripRedundantCategoryPrefix removes a leading "category/" prefix from
// an AI-proposed category string when it duplicates the base category.
func stripRedundantCategoryPrefix(aiCategory, baseCategory string) string {
	if baseCategory == "" {
		return aiCategory
	}
	prefix := baseCategory + "/"
	if strings.HasPrefix(strings.ToLower(aiCategory), strings.ToLower(prefix)) {
		return aiCategory[len(prefix):]
	}
	return aiCategory
}

// normalizeDedup canonicalizes a string for the suffix de-duplication
// comparison: lower-cased, with whitespace/underscore/dash collapsed.
func normalizeDedup(s string) string {
	s = strings.ToLower(s)
	var b strings.Builder
	for _, r := range s {
		switch r {
		case ' ', '_', '-', '\t':
			continue
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

// dedupAgainst drops entries of candidates whose normalized form already
// appears in seen.
func dedupAgainst(candidates []string, seen []string) []string {
	seenSet := make(map[string]bool, len(seen))
	for _, s := range seen {
		seenSet[s] = true
	}
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		norm := normalizeDedup(c)
		if seenSet[norm] {
			continue
		}
		out = append(out, c)
		seenSet[norm] = true
	}
	return out
}

// sanitizeSegment replaces path separators and disallowed characters in
// a single path segment before it is assembled into a destination.
func sanitizeSegment(s string, sanitize bool) string {
	if !sanitize {
		return s
	}
	s = strings.ReplaceAll(s, "/", "_")
	replacer := strings.NewReplacer("<", "", ">", "", ":", "", "|", "", "?", "", "*", "")
	return replacer.Replace(s)
}
