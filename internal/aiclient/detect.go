package aiclient

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"
)

// Flavor identifies which HTTP contract a base URL speaks.
type Flavor string

const (
	FlavorNative Flavor = "native"
	FlavorOpenAI Flavor = "openai"
)

var (
	detectMu    sync.Mutex
	detectCache = map[string]Flavor{}
)

// Detect probes baseURL to determine which protocol flavor it speaks,
// trying URL-pattern heuristics first (a path already ending in
// /v1 or a well-known OpenAI-compatible gateway name) before falling
// back to live probes of GET /v1/models and GET /api/tags|version. The
// result is cached per base URL so repeated calls in one run don't
// re-probe.
func Detect(ctx context.Context, baseURL string, timeout time.Duration) Flavor {
	detectMu.Lock()
	if f, ok := detectCache[baseURL]; ok {
		detectMu.Unlock()
		return f
	}
	detectMu.Unlock()

	flavor := detectByHeuristic(baseURL)
	if flavor == "" {
		flavor = detectByProbe(ctx, baseURL, timeout)
	}

	detectMu.Lock()
	detectCache[baseURL] = flavor
	detectMu.Unlock()
	return flavor
}

func detectByHeuristic(baseURL string) Flavor {
	lower := strings.ToLower(baseURL)
	switch {
	case strings.Contains(lower, "openai.com"), strings.HasSuffix(strings.TrimRight(lower, "/"), "/v1"):
		return FlavorOpenAI
	case strings.Contains(lower, "11434"), strings.Contains(lower, "ollama"):
		return FlavorNative
	default:
		return ""
	}
}

func detectByProbe(ctx context.Context, baseURL string, timeout time.Duration) Flavor {
	client := &http.Client{Timeout: timeout}
	base := strings.TrimRight(baseURL, "/")

	if probeGet(ctx, client, base+"/v1/models") {
		return FlavorOpenAI
	}
	if probeGet(ctx, client, base+"/api/tags") || probeGet(ctx, client, base+"/api/version") {
		return FlavorNative
	}
	// Default to OpenAI-compatible: it is the more common gateway shape
	// for unrecognized endpoints.
	return FlavorOpenAI
}

func probeGet(ctx context.Context, client *http.Client, url string) bool {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return false
	}
	resp, err := client.Do(req)
	if err != nil {
		return false
	}
	defer resp.Body.Close()
	return resp.StatusCode == http.StatusOK
}

// ResetDetectCacheForTests clears the process-wide detection cache; used
// only by tests exercising Detect against multiple fake servers.
func ResetDetectCacheForTests() {
	detectMu.Lock()
	defer detectMu.Unlock()
	detectCache = map[string]Flavor{}
}
