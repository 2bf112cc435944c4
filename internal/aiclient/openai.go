package aiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"foldersort/internal/categories"
	"foldersort/internal/logging"
)

// OpenAIConfig configures an OpenAIClient.
type OpenAIConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	Timeout         time.Duration
	MaxAttempts     int
	ThrottleInterval time.Duration
	SystemPrompt    string
}

func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Timeout:          60 * time.Second,
		MaxAttempts:      3,
		ThrottleInterval: 200 * time.Millisecond,
		SystemPrompt:     defaultSystemPrompt,
	}
}

const defaultSystemPrompt = "You are a file classification assistant. Reply with a single line " +
	"\"Answer: <category path>\" naming the best matching category from the list below, " +
	"using '/' to separate nested segments. You may add \"Thought:\" lines before the answer.\n\n" +
	categoriesPlaceholder

// OpenAIClient speaks the OpenAI-compatible /v1/chat/completions and
// /v1/models contract.
type OpenAIClient struct {
	cfg        OpenAIConfig
	httpClient *http.Client
	throttle   *throttle
}

func NewOpenAIClient(cfg OpenAIConfig) *OpenAIClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultOpenAIConfig().Timeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultOpenAIConfig().MaxAttempts
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	return &OpenAIClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		throttle:   newThrottle(cfg.ThrottleInterval),
	}
}

func (c *OpenAIClient) DisplayName() string { return "openai:" + c.cfg.Model + "@" + c.cfg.BaseURL }
func (c *OpenAIClient) IsAI() bool          { return true }
func (c *OpenAIClient) Close() error        { return nil }

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatCompletionRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// complete posts one chat-completion request with throttle + retry, and
// returns the raw assistant reply text.
func (c *OpenAIClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := retryConfig{MaxAttempts: c.cfg.MaxAttempts, Throttle: c.cfg.ThrottleInterval}

	return withRetry(ctx, cfg, func(attempt int) (string, bool, error) {
		if err := c.throttle.wait(ctx); err != nil {
			return "", false, err
		}

		reqBody := chatCompletionRequest{
			Model: c.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
		}
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return "", false, fmt.Errorf("marshaling openai request: %w", err)
		}

		url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/chat/completions"
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", false, err
		}
		httpReq.Header.Set("Content-Type", "application/json")
		if c.cfg.APIKey != "" {
			httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
		}

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return "", true, fmt.Errorf("openai request: %w", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", true, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(body))
		}
		if resp.StatusCode != http.StatusOK {
			return "", false, fmt.Errorf("openai status %d: %s", resp.StatusCode, string(body))
		}

		var parsed chatCompletionResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", false, fmt.Errorf("parsing openai response: %w", err)
		}
		if len(parsed.Choices) == 0 {
			return "", false, fmt.Errorf("openai response has no choices")
		}
		return parsed.Choices[0].Message.Content, nil
	})
}

func (c *OpenAIClient) Classify(ctx context.Context, req ClassifyRequest, catalog *categories.Catalog) ClassifyResponse {
	start := time.Now()
	catalogJSON, _ := catalog.CompactJSON()
	system := BuildSystemPrompt(c.cfg.SystemPrompt, catalogJSON)
	user := BuildUserMessage(req)

	reply, err := c.complete(ctx, system, user)
	metrics := ClassifyMetrics{LatencyMillis: time.Since(start).Milliseconds()}
	if err != nil {
		metrics.Err = err
		logging.Get(logging.CategoryAI).Warn("openai classify failed for %s: %v", req.RelPath, err)
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

func (c *OpenAIClient) AdviseFolderAction(ctx context.Context, req FolderActionRequest) FolderActionResponse {
	fallback := FolderActionResponse{Delegate: true, Hint: fallbackHint(req.RuleHint), Reason: "ai:fallback"}

	if len(req.Children) == 0 {
		return fallback
	}

	reply, err := c.complete(ctx, folderAdvisorSystemPrompt, BuildFolderAdvicePrompt(req))
	if err != nil {
		return fallback
	}

	parsed := ParseReply(reply)
	action := normalizeActionToken(parsed.Answer)
	if action == "" {
		return fallback
	}
	return FolderActionResponse{Delegate: false, Action: action, Reason: "ai:decision:" + action}
}

const folderAdvisorSystemPrompt = "You advise whether a folder's structure should be preserved when " +
	"relocating files. Respond with exactly one line \"Answer: <action>\" where action is one of " +
	"keep, keep_except, or disaggregate."

func fallbackHint(hint string) string {
	if hint == "" {
		return "disaggregate"
	}
	return hint
}

func normalizeActionToken(s string) string {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "keep":
		return "keep"
	case "keep_except", "keep-except":
		return "keep_except"
	case "disaggregate":
		return "disaggregate"
	default:
		return ""
	}
}

func (c *OpenAIClient) EnsureAvailable(ctx context.Context) bool {
	url := strings.TrimRight(c.cfg.BaseURL, "/") + "/v1/models"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	if c.cfg.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}
