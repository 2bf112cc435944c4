package folderaction

import (
	"context"
	"strings"

	"foldersort/internal/aiclient"
	"foldersort/internal/rules"
)

// RuleClassifier is the first link in the chain: it matches the folder's
// own relative path against the rule table first, then falls back to
// scanning direct children for structural markers (rule rows whose
// folder_action is KEEP_PARENT, e.g. a ".git" or "package.json" child)
// that force the folder itself to KEEP. The folder-level rule is checked
// first and wins outright whenever it yields a final decision, even if a
// child's keep_parent marker would otherwise say otherwise -- this is the
// deliberate precedence spec.md §9 calls for ("the source gives
// precedence to the folder-level rule"). A folder matching nothing
// delegates onward with hint DISAGGREGATE.
type RuleClassifier struct {
	Table *rules.Table
}

func (c *RuleClassifier) Name() string { return "rules" }

func (c *RuleClassifier) Evaluate(req aiclient.FolderActionRequest) aiclient.FolderActionResponse {
	if c.Table == nil {
		return aiclient.FolderActionResponse{Delegate: true, Hint: string(ActionDisaggregate), Reason: "rules:unavailable"}
	}

	if info := c.Table.Match(req.FolderPath, ""); info != nil {
		action := info.Rule.FolderAction
		switch info.Rule.RequiresAI {
		case rules.RequiresFinal:
			if action != "" {
				return aiclient.FolderActionResponse{Delegate: false, Action: string(action), Reason: "rules:final"}
			}
		case rules.RequiresAIHop:
			if action != "" {
				return aiclient.FolderActionResponse{Delegate: true, Hint: string(action), Reason: "rules:hop"}
			}
		default:
			if action != "" {
				return aiclient.FolderActionResponse{Delegate: false, Action: string(action), Reason: "rules:implicit_final"}
			}
		}
	}

	for _, child := range req.Children {
		info := c.Table.Match(child.Name, child.Mime)
		if info != nil && info.Rule.FolderAction == rules.KeepParent {
			return aiclient.FolderActionResponse{
				Delegate: false,
				Action:   string(ActionKeep),
				Reason:   "rules:keep_parent:" + child.Name,
			}
		}
	}

	return aiclient.FolderActionResponse{Delegate: true, Hint: string(ActionDisaggregate), Reason: "rules:no_match"}
}

// folderAdvisor is the subset of aiclient.Backend (or
// multiplex.Multiplexer) the AI classifier needs, kept local so this
// package doesn't have to choose between depending on a single backend
// or the multiplexer -- either satisfies it.
type folderAdvisor interface {
	AdviseFolderAction(ctx context.Context, req aiclient.FolderActionRequest) aiclient.FolderActionResponse
}

// AIClassifier is always the last link in the chain: it calls the
// configured advisor and falls back to the accumulated hint (or
// DISAGGREGATE) whenever the advisor delegates, errors, or returns an
// action string that doesn't parse as a known FolderAction.
type AIClassifier struct {
	Advisor folderAdvisor
	Ctx     context.Context
}

func (c *AIClassifier) Name() string { return "ai" }

func (c *AIClassifier) Evaluate(req aiclient.FolderActionRequest) aiclient.FolderActionResponse {
	ctx := c.Ctx
	if ctx == nil {
		ctx = context.Background()
	}

	resp := c.Advisor.AdviseFolderAction(ctx, req)
	if resp.Delegate {
		return aiclient.FolderActionResponse{Delegate: false, Action: fallbackHint(resp.Hint, req.RuleHint), Reason: "ai:fallback:" + resp.Reason}
	}

	action := strings.ToLower(strings.TrimSpace(resp.Action))
	switch Action(action) {
	case ActionKeep, ActionKeepExcept, ActionDisaggregate:
		return aiclient.FolderActionResponse{Delegate: false, Action: action, Reason: "ai:decision"}
	default:
		return aiclient.FolderActionResponse{Delegate: false, Action: fallbackHint(req.RuleHint, ""), Reason: "ai:invalid_action_fallback"}
	}
}
