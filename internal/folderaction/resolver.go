package folderaction

import (
	"fmt"

	"foldersort/internal/aiclient"
)

// Resolve runs the depth-ascending resolution pass. samples holds every
// folder discovered by the scan stage; persisted holds decisions
// already recorded in the catalog from a previous run (these take
// precedence over re-derivation); chain is the ordered list of
// classifiers consulted for any folder not covered by inheritance or
// persistence -- typically [rules classifier, AI classifier], with the
// AI classifier always final.
//
// The returned map contains only folders that required an explicit
// decision. A folder whose nearest ancestor decision is KEEP is never
// given its own entry: its action is implicitly KEEP, inherited without
// being stored, and none of its descendants are evaluated either.
func Resolve(samples map[string]FolderSample, persisted map[string]Decision, chain []Classifier) map[string]Decision {
	result := make(map[string]Decision, len(samples))
	var keptRoots []string

	for _, path := range sortedByDepth(samples) {
		if underAnyRoot(path, keptRoots) {
			continue
		}

		decision, ok := persisted[path]
		if !ok {
			decision = runChain(samples[path], chain)
		}
		result[path] = decision

		if decision.Action == ActionKeep {
			keptRoots = append(keptRoots, path)
		}
	}
	return result
}

func underAnyRoot(path string, roots []string) bool {
	for _, root := range roots {
		if isAncestor(root, path) {
			return true
		}
	}
	return false
}

// runChain walks the classifier chain for one folder, threading the
// evolving hint from each delegation into the next classifier's request
// until one returns a final decision. The AI classifier is always the
// last link and is expected to always return a final decision, falling
// back to the accumulated hint (or DISAGGREGATE) on any
// empty/invalid/error outcome -- but the loop itself defends against a
// misconfigured chain that delegates past its end.
func runChain(sample FolderSample, chain []Classifier) Decision {
	req := buildRequest(sample)
	hint := ""

	for _, c := range chain {
		req.RuleHint = hint
		resp := c.Evaluate(req)
		if !resp.Delegate {
			return Decision{Action: normalizeAction(resp.Action, hint), DecisionSource: fmt.Sprintf("%s:decision:%s", c.Name(), resp.Action)}
		}
		hint = fallbackHint(resp.Hint, hint)
	}

	return Decision{Action: normalizeAction(hint, ""), DecisionSource: "chain_exhausted"}
}

func fallbackHint(hint, previous string) string {
	if hint != "" {
		return hint
	}
	if previous != "" {
		return previous
	}
	return string(ActionDisaggregate)
}

func normalizeAction(action, fallback string) Action {
	switch Action(action) {
	case ActionKeep, ActionKeepExcept, ActionDisaggregate:
		return Action(action)
	default:
		if fallback != "" {
			return normalizeAction(fallback, "")
		}
		return ActionDisaggregate
	}
}

func buildRequest(sample FolderSample) aiclient.FolderActionRequest {
	children := make([]aiclient.ChildEntry, 0, len(sample.Children))
	for _, c := range sample.Children {
		typ := "file"
		if c.IsDir {
			typ = "dir"
		}
		children = append(children, aiclient.ChildEntry{
			Name:        c.Name,
			Type:        typ,
			Mime:        c.Mime,
			Size:        c.Size,
			FilesInside: c.FilesInside,
		})
	}
	return aiclient.FolderActionRequest{
		FolderPath: sample.Path,
		FolderName: baseName(sample.Path),
		Children:   children,
		TotalFiles: sample.TotalFiles,
	}
}

func baseName(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' || path[i] == '\\' {
			return path[i+1:]
		}
	}
	return path
}
