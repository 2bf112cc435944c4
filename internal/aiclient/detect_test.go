package aiclient

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDetectByHeuristic(t *testing.T) {
	require.Equal(t, FlavorOpenAI, detectByHeuristic("https://api.openai.com/v1"))
	require.Equal(t, FlavorNative, detectByHeuristic("http://localhost:11434"))
	require.Equal(t, Flavor(""), detectByHeuristic("http://internal-gateway:8080"))
}

func TestDetectProbesNativeServer(t *testing.T) {
	ResetDetectCacheForTests()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/tags" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	flavor := Detect(t.Context(), srv.URL, time.Second)
	require.Equal(t, FlavorNative, flavor)
}

func TestDetectCachesResult(t *testing.T) {
	ResetDetectCacheForTests()
	calls := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		if r.URL.Path == "/v1/models" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	f1 := Detect(t.Context(), srv.URL, time.Second)
	f2 := Detect(t.Context(), srv.URL, time.Second)
	require.Equal(t, FlavorOpenAI, f1)
	require.Equal(t, f1, f2)
	require.Equal(t, 1, calls, "second Detect call should hit the cache, not the server")
}
