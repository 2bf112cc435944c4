package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/spf13/cobra"

	"foldersort/internal/aiclient"
	"foldersort/internal/categories"
	"foldersort/internal/classify"
	"foldersort/internal/folderaction"
	"foldersort/internal/metadata"
	"foldersort/internal/orchestrator"
	"foldersort/internal/pathsynth"
	"foldersort/internal/rules"
	"foldersort/internal/scan"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <path>",
	Short: "Run the classification pipeline against a single file and print the result",
	Args:  cobra.ExactArgs(1),
	Long: `analyze runs the same rule-match / metadata / preview / AI-classify /
path-synthesis pipeline the classify subcommand runs in bulk, but against
one file, without inserting or updating anything in the catalog. The
destination it prints is a preview: folder actions are read from
whatever the catalog has already persisted (if any), not freshly
resolved, since a single file has no sibling batch to resolve against.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := args[0]
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat %s: %w", path, err)
		}
		if info.IsDir() {
			return fmt.Errorf("%s is a directory, analyze takes a single file", path)
		}

		o, err := orchestrator.Build(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer o.Close()

		result, err := analyzeOne(cmd.Context(), o, path)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	},
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeFormat, "format", "json", "output format (only json is supported today)")
}

// analyzeResult is the single-file analyze report.
type analyzeResult struct {
	Path         string            `json:"path"`
	SourceRoot   string            `json:"source_root,omitempty"`
	Mime         string            `json:"mime"`
	RuleMatched  bool              `json:"rule_matched"`
	RuleCategory string            `json:"rule_category,omitempty"`
	AICategory   string            `json:"ai_category,omitempty"`
	Category     string            `json:"category"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	Preview      string            `json:"preview,omitempty"`
	Destination  string            `json:"destination_preview"`
	Explanation  string            `json:"explanation"`
}

func analyzeOne(ctx context.Context, o *orchestrator.Orchestrator, path string) (*analyzeResult, error) {
	mime := scan.GuessMime(path)
	root, relParts := matchSourceRootForAnalyze(path, o.Cfg.SourceRoots)

	var wrapper *regexp.Regexp
	if o.Cfg.SourceWrapperRegex != "" {
		re, err := regexp.Compile(o.Cfg.SourceWrapperRegex)
		if err != nil {
			return nil, fmt.Errorf("compiling source wrapper regex %q: %w", o.Cfg.SourceWrapperRegex, err)
		}
		wrapper = re
	}
	ruleRelParts := relParts
	if wrapper != nil && len(ruleRelParts) > 0 && wrapper.MatchString(ruleRelParts[0]) {
		ruleRelParts = ruleRelParts[1:]
	}
	ruleRelPath := strings.Join(ruleRelParts, "/")

	var ruleCategory categories.CategoryPath
	ruleMatched := false
	info := o.Rules.Match(ruleRelPath, mime)
	if info != nil && len(info.Rule.Category) > 0 {
		ruleCategory = info.Rule.Category
		ruleMatched = true
	}
	ruleIsFinal := ruleMatched && (info.Rule.RequiresAI == rules.RequiresFinal || info.Rule.RequiresAI == "")
	takeRule := ruleIsFinal || o.Classify.Opts.RulesOnly || o.AI == nil

	meta, _ := metadata.Collect(path, mime)

	var aiCategory, finalCategory categories.CategoryPath
	var previewText string

	if takeRule {
		finalCategory = ruleCategory
		if finalCategory == nil {
			finalCategory = categories.Unknown
		}
	} else {
		if o.Preview != nil {
			previewText, _ = o.Preview.Extract(path, mime, o.Cfg.ContentPeekBytes)
		}
		hint := ""
		if ruleMatched {
			hint = ruleCategory.String()
		}
		resp := o.AI.Classify(ctx, aiclient.ClassifyRequest{
			Name:     filepath.Base(path),
			RelPath:  ruleRelPath,
			Mime:     mime,
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

	persistedRecords, err := o.Store.GetFolderActions(ctx)
	if err != nil {
		return nil, err
	}
	decisions := classify.ToDecisions(persistedRecords)

	dirParts := relParts
	if len(dirParts) > 0 {
		dirParts = dirParts[:len(dirParts)-1]
	}
	parents := buildParentsForAnalyze(root, dirParts, decisions)

	synthIn := pathsynth.FileInput{
		RelPath:  relParts,
		Parents:  parents,
		Category: finalCategory,
		Metadata: meta,
		Filename: filepath.Base(path),
	}
	cp := pathsynth.Synthesize(synthIn, o.Categories, pathsynth.Options{
		StripList:           o.Cfg.StripDirs,
		SourceWrapperRegexp: wrapper,
		Sanitize:            true,
	})

	return &analyzeResult{
		Path:         path,
		SourceRoot:   root,
		Mime:         mime,
		RuleMatched:  ruleMatched,
		RuleCategory: ruleCategory.String(),
		AICategory:   aiCategory.String(),
		Category:     finalCategory.String(),
		Metadata:     meta,
		Preview:      previewText,
		Destination:  cp.Destination,
		Explanation:  cp.Explanation,
	}, nil
}

// matchSourceRootForAnalyze finds the longest configured source root
// that prefixes path and splits the remainder into segments (filename
// last). A path outside every configured root is treated as relative to
// its own parent directory, so analyze still works against an ad hoc
// file during rule/template tuning.
func matchSourceRootForAnalyze(path string, roots []string) (root string, relParts []string) {
	path = filepath.ToSlash(path)
	best := ""
	for _, r := range roots {
		r = filepath.ToSlash(r)
		if (path == r || strings.HasPrefix(path, r+"/")) && len(r) > len(best) {
			best = r
		}
	}
	if best == "" {
		return "", []string{filepath.Base(path)}
	}
	rel := strings.TrimPrefix(strings.TrimPrefix(path, best), "/")
	if rel == "" {
		return best, nil
	}
	return best, strings.Split(rel, "/")
}

// buildParentsForAnalyze mirrors classify.Orchestrator's internal
// buildParents: walk from root down to the file's directory, attaching
// whatever folder action the catalog already has on record for each
// ancestor (an unlabeled entry is fine -- see pathsynth.ParentEntry's
// doc comment on why).
func buildParentsForAnalyze(root string, dirParts []string, decisions map[string]folderaction.Decision) []pathsynth.ParentEntry {
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
