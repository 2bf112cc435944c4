package aiclient

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"foldersort/internal/categories"
	"foldersort/internal/logging"
)

// GenAIConfig configures a GenAIClient, the third backend flavor wired
// in: Google's Gemini SDK rather than a hand-rolled
// HTTP client, alongside the native and OpenAI-compatible adapters.
type GenAIConfig struct {
	APIKey           string
	Model            string
	MaxAttempts      int
	ThrottleInterval time.Duration
	SystemPrompt     string
}

func DefaultGenAIConfig() GenAIConfig {
	return GenAIConfig{
		Model:            "gemini-2.0-flash",
		MaxAttempts:      3,
		ThrottleInterval: 200 * time.Millisecond,
		SystemPrompt:     defaultSystemPrompt,
	}
}

// GenAIClient implements Backend over the google.golang.org/genai SDK.
// Unlike the two HTTP adapters, request framing is handled by the SDK;
// this client still applies the shared throttle/retry helpers so all
// three backends honor the same per-worker pacing contract.
type GenAIClient struct {
	cfg      GenAIConfig
	client   *genai.Client
	throttle *throttle
}

func NewGenAIClient(ctx context.Context, cfg GenAIConfig) (*GenAIClient, error) {
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultGenAIConfig().MaxAttempts
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("creating genai client: %w", err)
	}
	return &GenAIClient{
		cfg:      cfg,
		client:   client,
		throttle: newThrottle(cfg.ThrottleInterval),
	}, nil
}

func (c *GenAIClient) DisplayName() string { return "genai:" + c.cfg.Model }
func (c *GenAIClient) IsAI() bool          { return true }
func (c *GenAIClient) Close() error        { return nil }

func (c *GenAIClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := retryConfig{MaxAttempts: c.cfg.MaxAttempts, Throttle: c.cfg.ThrottleInterval}

	return withRetry(ctx, cfg, func(attempt int) (string, bool, error) {
		if err := c.throttle.wait(ctx); err != nil {
			return "", false, err
		}

		prompt := systemPrompt + "\n\n" + userPrompt
		result, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text(prompt), nil)
		if err != nil {
			return "", true, fmt.Errorf("genai generate content: %w", err)
		}
		return result.Text(), false, nil
	})
}

func (c *GenAIClient) Classify(ctx context.Context, req ClassifyRequest, catalog *categories.Catalog) ClassifyResponse {
	start := time.Now()
	catalogJSON, _ := catalog.CompactJSON()
	system := BuildSystemPrompt(c.cfg.SystemPrompt, catalogJSON)
	user := BuildUserMessage(req)

	reply, err := c.complete(ctx, system, user)
	metrics := ClassifyMetrics{LatencyMillis: time.Since(start).Milliseconds()}
	if err != nil {
		metrics.Err = err
		logging.Get(logging.CategoryAI).Warn("genai classify failed for %s: %v", req.RelPath, err)
		return ClassifyResponse{Category: categories.Unknown, Metrics: metrics}
	}

	parsed := ParseReply(reply)
	metrics.Thoughts = parsed.Thoughts

	category := categories.Unknown
	if parsed.Answer != "" {
		if cp, ok := categories.ParsePath(parsed.Answer); ok {
			if normalized, ok := catalog.Normalize(cp); ok {
				category = normalized
			}
		}
	}
	return ClassifyResponse{Category: category, RawReply: reply, Metrics: metrics}
}

func (c *GenAIClient) AdviseFolderAction(ctx context.Context, req FolderActionRequest) FolderActionResponse {
	fallback := FolderActionResponse{Delegate: true, Hint: fallbackHint(req.RuleHint), Reason: "ai:fallback"}
	if len(req.Children) == 0 {
		return fallback
	}

	reply, err := c.complete(ctx, folderAdvisorSystemPrompt, BuildFolderAdvicePrompt(req))
	if err != nil {
		return fallback
	}
	action := normalizeActionToken(ParseReply(reply).Answer)
	if action == "" {
		return fallback
	}
	return FolderActionResponse{Delegate: false, Action: action, Reason: "ai:decision:" + action}
}

// EnsureAvailable performs a warm-up generation call for the configured
// model and reports whether it returns a usable (non-empty) reply,
// without depending on the SDK's paginated model-listing shape.
func (c *GenAIClient) EnsureAvailable(ctx context.Context) bool {
	result, err := c.client.Models.GenerateContent(ctx, c.cfg.Model, genai.Text("Reply with: ready"), nil)
	if err != nil {
		return false
	}
	return strings.TrimSpace(result.Text()) != ""
}
