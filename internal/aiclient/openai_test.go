package aiclient

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"foldersort/internal/categories"
)

func TestOpenAIClientClassifySuccessfulReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/v1/chat/completions", r.URL.Path)
		require.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		resp := chatCompletionResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: "Thought: music file\nAnswer: Media/Music\n"}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cat := categories.NewCatalog()
	require.NoError(t, cat.Insert(categories.CategoryPath{"Media", "Music"}, nil))

	client := NewOpenAIClient(OpenAIConfig{
		BaseURL:          srv.URL,
		APIKey:           "secret",
		Model:            "gpt-4o-mini",
		ThrottleInterval: time.Millisecond,
	})

	resp := client.Classify(t.Context(), ClassifyRequest{Name: "track.flac", RelPath: "Music/track.flac", Mime: "audio/flac"}, cat)
	require.Equal(t, "Media/Music", resp.Category.String())
	require.Equal(t, []string{"music file"}, resp.Metrics.Thoughts)
	require.NoError(t, resp.Metrics.Err)
}

func TestOpenAIClientClassifyFallsBackOnUnknownCategory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		resp := chatCompletionResponse{Choices: []struct {
			Message chatMessage `json:"message"`
		}{{Message: chatMessage{Role: "assistant", Content: "Answer: Spreadsheets/Weird\n"}}}}
		json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	cat := categories.NewCatalog()
	require.NoError(t, cat.Insert(categories.CategoryPath{"Media", "Music"}, nil))

	client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, Model: "gpt-4o-mini", ThrottleInterval: time.Millisecond})
	resp := client.Classify(t.Context(), ClassifyRequest{Name: "f.bin"}, cat)
	require.True(t, resp.Category.IsUnknown())
}

func TestOpenAIClientClassifyDegradesOnServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	cat := categories.NewCatalog()
	client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, Model: "gpt-4o-mini", MaxAttempts: 1, ThrottleInterval: time.Millisecond})
	resp := client.Classify(t.Context(), ClassifyRequest{Name: "f.bin"}, cat)
	require.True(t, resp.Category.IsUnknown())
	require.Error(t, resp.Metrics.Err)
}

func TestOpenAIClientEnsureAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/v1/models" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewOpenAIClient(OpenAIConfig{BaseURL: srv.URL, Model: "gpt-4o-mini"})
	require.True(t, client.EnsureAvailable(t.Context()))
}
