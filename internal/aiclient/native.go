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

// NativeConfig configures a NativeClient speaking the Ollama-style
// native chat protocol.
type NativeConfig struct {
	BaseURL          string
	Model            string
	Timeout          time.Duration
	MaxAttempts      int
	ThrottleInterval time.Duration
	SystemPrompt     string
}

func DefaultNativeConfig() NativeConfig {
	return NativeConfig{
		Timeout:          60 * time.Second,
		MaxAttempts:      3,
		ThrottleInterval: 200 * time.Millisecond,
		SystemPrompt:     defaultSystemPrompt,
	}
}

// NativeClient implements Backend over POST /api/chat, GET /api/tags,
// and GET /api/version: the Ollama-style "native" chat flavor.
type NativeClient struct {
	cfg        NativeConfig
	httpClient *http.Client
	throttle   *throttle
}

func NewNativeClient(cfg NativeConfig) *NativeClient {
	if cfg.Timeout == 0 {
		cfg.Timeout = DefaultNativeConfig().Timeout
	}
	if cfg.MaxAttempts == 0 {
		cfg.MaxAttempts = DefaultNativeConfig().MaxAttempts
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = defaultSystemPrompt
	}
	return &NativeClient{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		throttle:   newThrottle(cfg.ThrottleInterval),
	}
}

func (c *NativeClient) DisplayName() string { return "native:" + c.cfg.Model + "@" + c.cfg.BaseURL }
func (c *NativeClient) IsAI() bool          { return true }
func (c *NativeClient) Close() error        { return nil }

type nativeChatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Stream   bool          `json:"stream"`
	Options  map[string]any `json:"options,omitempty"`
}

type nativeChatResponse struct {
	Message chatMessage `json:"message"`
}

func (c *NativeClient) complete(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	cfg := retryConfig{MaxAttempts: c.cfg.MaxAttempts, Throttle: c.cfg.ThrottleInterval}

	return withRetry(ctx, cfg, func(attempt int) (string, bool, error) {
		if err := c.throttle.wait(ctx); err != nil {
			return "", false, err
		}

		reqBody := nativeChatRequest{
			Model: c.cfg.Model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: userPrompt},
			},
			Stream: false,
		}
		payload, err := json.Marshal(reqBody)
		if err != nil {
			return "", false, fmt.Errorf("marshaling native request: %w", err)
		}

		url := strings.TrimRight(c.cfg.BaseURL, "/") + "/api/chat"
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
		if err != nil {
			return "", false, err
		}
		httpReq.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(httpReq)
		if err != nil {
			return "", true, fmt.Errorf("native request: %w", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)

		if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
			return "", true, fmt.Errorf("native status %d: %s", resp.StatusCode, string(body))
		}
		if resp.StatusCode != http.StatusOK {
			return "", false, fmt.Errorf("native status %d: %s", resp.StatusCode, string(body))
		}

		var parsed nativeChatResponse
		if err := json.Unmarshal(body, &parsed); err != nil {
			return "", false, fmt.Errorf("parsing native response: %w", err)
		}
		return parsed.Message.Content, nil
	})
}

func (c *NativeClient) Classify(ctx context.Context, req ClassifyRequest, catalog *categories.Catalog) ClassifyResponse {
	start := time.Now()
	catalogJSON, _ := catalog.CompactJSON()
	system := BuildSystemPrompt(c.cfg.SystemPrompt, catalogJSON)
	user := BuildUserMessage(req)

	reply, err := c.complete(ctx, system, user)
	metrics := ClassifyMetrics{LatencyMillis: time.Since(start).Milliseconds()}
	if err != nil {
		metrics.Err = err
		logging.Get(logging.CategoryAI).Warn("native classify failed for %s: %v", req.RelPath, err)
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

func (c *NativeClient) AdviseFolderAction(ctx context.Context, req FolderActionRequest) FolderActionResponse {
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

func (c *NativeClient) EnsureAvailable(ctx context.Context) bool {
	base := strings.TrimRight(c.cfg.BaseURL, "/")

	tags, err := c.get(ctx, base+"/api/tags")
	if err != nil {
		return false
	}
	if c.cfg.Model != "" && !strings.Contains(tags, c.cfg.Model) {
		return false
	}

	if _, err := c.get(ctx, base+"/api/version"); err != nil {
		return false
	}
	return true
}

func (c *NativeClient) get(ctx context.Context, url string) (string, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", err
	}
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("status %d", resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	return string(body), err
}
