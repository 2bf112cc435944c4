package classify

import (
	"context"
	"encoding/json"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/sync/errgroup"

	"foldersort/internal/aiclient"
	"foldersort/internal/catalog"
	"foldersort/internal/categories"
	"foldersort/internal/folderaction"
	"foldersort/internal/logging"
	"foldersort/internal/metadata"
	"foldersort/internal/pathsynth"
	"foldersort/internal/preview"
	"foldersort/internal/rules"
)

// AI is the capability set the orchestrator needs from an AI backend;
// satisfied by both a single aiclient.Backend and a *multiplex.Multiplexer.
type AI interface {
	Classify(ctx context.Context, req aiclient.ClassifyRequest, catalog *categories.Catalog) aiclient.ClassifyResponse
	AdviseFolderAction(ctx context.Context, req aiclient.FolderActionRequest) aiclient.FolderActionResponse
}

// Options configures one Orchestrator run.
type Options struct {
	SourceRoots         []string
	StripDirs           []string
	SourceWrapperRegexp pathsynth.Matcher
	ContentPeekBytes    int
	RulesOnly           bool // true in manual mode: AI is never consulted
	Concurrency         int
}

// Orchestrator drives the classifier pipeline over repeated batches of
// unclassified catalog rows.
type Orchestrator struct {
	Store      *catalog.Store
	Rules      *rules.Table
	Categories *categories.Catalog
	Preview    *preview.Registry
	AI         AI
	Opts       Options
}

// RunBatch resolves this batch's folder actions (merging with whatever
// the catalog already persisted), classifies up to limit unclassified
// rows, synthesizes their destinations, and writes the batch back in one
// transaction. It returns how many rows were processed; 0 with a nil
// error means the catalog has nothing left to classify.
func (o *Orchestrator) RunBatch(ctx context.Context, limit int) (int, error) {
	rows, err := o.Store.SelectUnclassified(ctx, limit)
	if err != nil {
		return 0, err
	}
	if len(rows) == 0 {
		return 0, nil
	}

	sort.Slice(rows, func(i, j int) bool {
		di, dj := depthOf(rows[i].Path), depthOf(rows[j].Path)
		if di != dj {
			return di < dj
		}
		return rows[i].Path < rows[j].Path
	})

	decisions, err := o.resolveFolderActions(ctx)
	if err != nil {
		return 0, err
	}

	concurrency := o.Opts.Concurrency
	if concurrency <= 0 {
		concurrency = 4
	}

	results := make([]catalog.FileRecord, len(rows))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)

	for i, row := range rows {
		i, row := i, row
		g.Go(func() error {
			rec, err := o.classifyOne(gctx, row, decisions)
			if err != nil {
				logging.Get(logging.CategoryClassify).Warn("classifying %s: %v", row.Path, err)
				rec = row
				rec.Category = categories.Unknown.String()
			}
			results[i] = rec
			return nil // per-file errors never abort the batch
		})
	}
	_ = g.Wait()

	if err := o.Store.UpdateCategoryDestBatch(ctx, results); err != nil {
		return 0, err
	}
	return len(results), nil
}

// resolveFolderActions rebuilds the folder-sample tree from every known
// file (not just this batch's unclassified rows, since siblings already
// classified still count toward a folder's children/total-files view),
// merges it against persisted decisions, runs the classifier chain for
// anything not yet decided, and persists whatever is new.
func (o *Orchestrator) resolveFolderActions(ctx context.Context) (map[string]folderaction.Decision, error) {
	all, err := o.Store.AllFiles(ctx)
	if err != nil {
		return nil, err
	}
	samples := BuildFolderSamples(all)

	persistedRecords, err := o.Store.GetFolderActions(ctx)
	if err != nil {
		return nil, err
	}
	persisted := ToDecisions(persistedRecords)

	chain := []folderaction.Classifier{&folderaction.RuleClassifier{Table: o.Rules}}
	if !o.Opts.RulesOnly && o.AI != nil {
		chain = append(chain, &folderaction.AIClassifier{Advisor: o.AI, Ctx: ctx})
	}

	resolved := folderaction.Resolve(samples, persisted, chain)

	var fresh []catalog.FolderActionRecord
	for path, d := range resolved {
		if prior, ok := persisted[path]; !ok || prior.Action != d.Action || prior.DecisionSource != d.DecisionSource {
			fresh = append(fresh, catalog.FolderActionRecord{Path: path, Action: string(d.Action), DecisionSource: d.DecisionSource})
		}
	}
	if len(fresh) > 0 {
		if err := o.Store.SaveFolderActions(ctx, fresh); err != nil {
			return nil, err
		}
	}
	return resolved, nil
}

// classifyOne runs the four-step classify procedure for one file: apply
// the rule table, consult AI if the rule requires it or none matched,
// normalize the resulting category, then synthesize its destination.
func (o *Orchestrator) classifyOne(ctx context.Context, row catalog.FileRecord, decisions map[string]folderaction.Decision) (catalog.FileRecord, error) {
	root, prefix := matchSourceRoot(row.Path, o.Opts.SourceRoots)
	relParts := relativeParts(row.Path, root)
	if len(relParts) == 0 {
		relParts = []string{filepath.Base(row.Path)}
	}

	ruleRelParts := stripWrapper(relParts, o.Opts.SourceWrapperRegexp)
	ruleRelPath := strings.Join(ruleRelParts, "/")

	var ruleCategory categories.CategoryPath
	ruleMatched := false
	info := o.Rules.Match(ruleRelPath, row.Mime)
	if info != nil && len(info.Rule.Category) > 0 {
		ruleCategory = info.Rule.Category
		ruleMatched = true
	}

	ruleIsFinal := ruleMatched && (info.Rule.RequiresAI == rules.RequiresFinal || info.Rule.RequiresAI == "")
	takeRule := ruleIsFinal || o.Opts.RulesOnly || o.AI == nil

	var finalCategory, aiCategory categories.CategoryPath
	var meta map[string]string
	var previewText string

	if takeRule {
		finalCategory = ruleCategory
		if finalCategory == nil {
			finalCategory = categories.Unknown
		}
		meta, _ = metadata.Collect(row.Path, row.Mime)
	} else {
		meta, _ = metadata.Collect(row.Path, row.Mime)
		if o.Preview != nil {
			previewText, _ = o.Preview.Extract(row.Path, row.Mime, o.Opts.ContentPeekBytes)
		}

		hint := ""
		if ruleMatched {
			hint = ruleCategory.String()
		}

		resp := o.AI.Classify(ctx, aiclient.ClassifyRequest{
			Name:     filepath.Base(row.Path),
			RelPath:  ruleRelPath,
			Mime:     row.Mime,
			Hint:     hint,
			Metadata: meta,
			Preview:  previewText,
		}, o.Categories)

		aiCategory = resp.Category
		finalCategory = resp.Category
		if finalCategory == nil {
			finalCategory = categories.Unknown
		}
	}

	dirParts := relParts
	if len(dirParts) > 0 {
		dirParts = dirParts[:len(dirParts)-1]
	}
	parents := buildParents(root, dirParts, decisions)

	synthIn := pathsynth.FileInput{
		RelPath:  relParts,
		Parents:  parents,
		Category: finalCategory,
		Metadata: meta,
		Filename: filepath.Base(row.Path),
	}
	cp := pathsynth.Synthesize(synthIn, o.Categories, pathsynth.Options{
		StripList:           o.Opts.StripDirs,
		SourceWrapperRegexp: o.Opts.SourceWrapperRegexp,
		Sanitize:            true,
	})

	node := FileNode{
		Path:         row.Path,
		SourceRoot:   root,
		SourcePrefix: prefix,
		RelParts:     relParts,
		RuleMatched:  ruleMatched,
		RuleCategory: ruleCategory,
		AICategory:   aiCategory,
		Category:     finalCategory,
		Metadata:     meta,
		Parents:      parents,
	}
	nodeJSON, _ := json.Marshal(node)
	metaJSON, _ := json.Marshal(meta)

	return catalog.FileRecord{
		Path:         row.Path,
		SourceRoot:   root,
		Size:         row.Size,
		Mime:         row.Mime,
		Category:     finalCategory.String(),
		Destination:  cp.Destination,
		RuleCategory: ruleCategory.String(),
		AICategory:   aiCategory.String(),
		MetadataJSON: string(metaJSON),
		Preview:      previewText,
		FileNodeJSON: string(nodeJSON),
	}, nil
}

// matchSourceRoot finds the longest configured source root that prefixes
// path, returning (root, root) -- the "source prefix" is the matched
// root itself in this implementation (no additional alias table), kept
// as a distinct return value so FileNode can record it independently of
// root if a future config layer introduces root aliasing.
func matchSourceRoot(path string, roots []string) (root, prefix string) {
	path = filepath.ToSlash(path)
	best := ""
	for _, r := range roots {
		r = filepath.ToSlash(r)
		if path == r || strings.HasPrefix(path, r+"/") {
			if len(r) > len(best) {
				best = r
			}
		}
	}
	return best, best
}

// relativeParts splits path into segments relative to root (filename
// last). If root doesn't prefix path, the full path (minus leading
// slash) is used as-is.
func relativeParts(path, root string) []string {
	path = filepath.ToSlash(path)
	root = filepath.ToSlash(root)
	rel := path
	if root != "" && strings.HasPrefix(path, root+"/") {
		rel = strings.TrimPrefix(path, root+"/")
	}
	rel = strings.Trim(rel, "/")
	if rel == "" {
		return nil
	}
	return strings.Split(rel, "/")
}

// stripWrapper drops the first path segment if it matches the
// configured source-wrapper pattern.
func stripWrapper(parts []string, wrapper pathsynth.Matcher) []string {
	if wrapper == nil || len(parts) == 0 {
		return parts
	}
	if wrapper.MatchString(parts[0]) {
		return parts[1:]
	}
	return parts
}

// buildParents walks from the matched source root down to (but not
// including) the file itself, building a pathsynth.ParentEntry per
// directory segment. A segment with no explicit decision recorded is
// left with an empty Action: per the Resolve contract, that can only
// happen when the segment is the implicit descendant of an ancestor
// already marked KEEP (inheritance is never stored), and pathsynth's
// keep-pivot walk treats everything from a KEEP pivot onward as kept
// regardless of the individual entries' own Action field.
func buildParents(root string, dirParts []string, decisions map[string]folderaction.Decision) []pathsynth.ParentEntry {
	out := make([]pathsynth.ParentEntry, 0, len(dirParts))
	cur := filepath.ToSlash(root)
	for _, name := range dirParts {
		cur = cur + "/" + name
		action := ""
		if d, ok := decisions[cur]; ok {
			action = string(d.Action)
		}
		out = append(out, pathsynth.ParentEntry{Name: name, Action: action})
	}
	return out
}
