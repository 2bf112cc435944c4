package pathsynth

import (
	"fmt"
	"strings"

	"foldersort/internal/categories"
)

// Synthesize runs the five-step algorithm for one file: strip known
// prefixes from the parent chain, find the keep pivot (if any), select
// the category's template, and render the destination.
func Synthesize(in FileInput, catalog *categories.Catalog, opts Options) ClassifiedPath {
	parents := stripPrefixes(in.Parents, opts)

	pivotIndex, pivotAction := findPivot(parents)
	kept := keptSegments(parents, pivotIndex, pivotAction)
	kept = stripCategoryPrefix(kept, in.Category)

	tmpl := catalog.TemplateFor(in.Category)
	if tmpl == nil {
		tmpl = defaultTemplate()
	}

	dest := tmpl.Render(categories.RenderOptions{
		Metadata:     in.Metadata,
		CategoryPath: in.Category,
		KeptPath:     kept,
		Filename:     in.Filename,
		Sanitize:     opts.Sanitize,
	})

	return ClassifiedPath{
		Destination: dest,
		KeptPath:    kept,
		PivotIndex:  pivotIndex,
		PivotAction: pivotAction,
		Explanation: explain(in, parents, pivotIndex, pivotAction, kept, dest),
	}
}

var defaultTmpl *categories.Template

func defaultTemplate() *categories.Template {
	if defaultTmpl == nil {
		defaultTmpl = categories.ParseTemplate("{suffix}")
	}
	return defaultTmpl
}

// stripPrefixes removes leading StripList entries (applied repeatedly,
// since a stripped dir can expose another one beneath it) and at most
// one leading source-wrapper match.
func stripPrefixes(parents []ParentEntry, opts Options) []ParentEntry {
	stripSet := make(map[string]bool, len(opts.StripList))
	for _, s := range opts.StripList {
		stripSet[strings.ToLower(s)] = true
	}

	i := 0
	for i < len(parents) && stripSet[strings.ToLower(parents[i].Name)] {
		i++
	}
	if i < len(parents) && opts.SourceWrapperRegexp != nil && opts.SourceWrapperRegexp.MatchString(parents[i].Name) {
		i++
	}
	return parents[i:]
}

// stripCategoryPrefix drops a leading kept segment whose name duplicates
// the file's own resolved category's first segment, so a folder named
// "Music" that was classified into category "Music" doesn't also
// contribute a literal "Music" ancestor on top of the template's own
// rendering of that category.
func stripCategoryPrefix(kept []string, category categories.CategoryPath) []string {
	if len(kept) == 0 || len(category) == 0 {
		return kept
	}
	if strings.EqualFold(kept[0], category[0]) {
		return kept[1:]
	}
	return kept
}

// findPivot returns the index of the first KEEP or KEEP_EXCEPT folder in
// the (already-stripped) parent chain, or (-1, "") if none.
func findPivot(parents []ParentEntry) (int, string) {
	for i, p := range parents {
		switch p.Action {
		case actionKeep, actionKeepExcept:
			return i, p.Action
		}
	}
	return -1, ""
}

// keptSegments returns the ancestor names, from the pivot to the end of
// the chain, that survive into the destination path verbatim. A KEEP
// pivot keeps every remaining ancestor unconditionally. A KEEP_EXCEPT
// pivot keeps ancestors until the first explicit DISAGGREGATE entry
// after the pivot, at which point it flips to "disaggregated" and stays
// flipped for the rest of the chain -- those later ancestors are dropped
// from the kept path since their contents are re-templated individually
// instead of carried along as a folder name.
func keptSegments(parents []ParentEntry, pivotIndex int, pivotAction string) []string {
	if pivotIndex < 0 {
		return nil
	}

	var kept []string
	flipped := false
	for i := pivotIndex; i < len(parents); i++ {
		p := parents[i]
		if pivotAction == actionKeepExcept && i > pivotIndex && p.Action == actionDisaggregate {
			flipped = true
		}
		if flipped {
			continue
		}
		kept = append(kept, p.Name)
	}
	return kept
}

func explain(in FileInput, stripped []ParentEntry, pivotIndex int, pivotAction string, kept []string, dest string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "category=%s", in.Category.String())
	if pivotIndex < 0 {
		b.WriteString("; no keep pivot, fully disaggregated")
	} else {
		fmt.Fprintf(&b, "; pivot at %q (%s)", stripped[pivotIndex].Name, pivotAction)
		if len(kept) > 0 {
			fmt.Fprintf(&b, "; kept=%s", strings.Join(kept, "/"))
		}
	}
	fmt.Fprintf(&b, "; destination=%s", dest)
	return b.String()
}
