package snippetrun_test

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loykin/snippetrun"
)

// end-to-end: snippet -> parse -> inject -> validate -> relay -> upstream.
func TestPipelineRunThroughRelay(t *testing.T) {
	var gotAuth string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items": []}`))
	}))
	defer upstream.Close()

	relay := httptest.NewServer(snippetrun.NewRelayServer(snippetrun.RelayConfig{DevMode: true}).Handler())
	defer relay.Close()

	snippet := fmt.Sprintf(`curl %s/v1/items -H "Authorization: Bearer YOUR_API_KEY"`, upstream.URL)

	p := snippetrun.Pipeline{
		RelayURL: relay.URL,
		Auth:     snippetrun.AuthMode{Type: "api_key", Key: "abc"},
	}
	res := p.Run(context.Background(), snippet, snippetrun.LangCurl)
	if res.Err != nil {
		t.Fatalf("run failed: %v", res.Err)
	}
	if res.Response == nil || res.Response.Status != http.StatusOK {
		t.Fatalf("unexpected response: %+v", res.Response)
	}
	if gotAuth != "Bearer abc" {
		t.Fatalf("credential not injected upstream: %q", gotAuth)
	}
	if res.RequestID == "" {
		t.Fatalf("request id missing")
	}
}

func TestPipelineFallbackSnippet(t *testing.T) {
	p := snippetrun.Pipeline{RelayURL: "http://127.0.0.1:0"}
	res := p.Run(context.Background(), "definitely not a request", snippetrun.LangJavaScript)
	if res.Err == nil {
		t.Fatalf("fallback snippet must produce an error")
	}
	if res.Err.Category != "VALIDATION" {
		t.Fatalf("unexpected category: %s", res.Err.Category)
	}
	if res.Response != nil {
		t.Fatalf("fallback must never be executed")
	}
}

func TestPipelineValidationBlocksExecution(t *testing.T) {
	// The relay URL is unroutable; reaching it would fail loudly.
	p := snippetrun.Pipeline{RelayURL: "http://127.0.0.1:0"}
	snippet := `fetch('https://api.example.com/v1/users/{userId}')`
	res := p.Run(context.Background(), snippet, snippetrun.LangJavaScript)
	if res.Err == nil || res.Err.Category != "VALIDATION" {
		t.Fatalf("expected validation error, got %+v", res.Err)
	}
	if len(res.Err.Validation) == 0 {
		t.Fatalf("validation error list missing")
	}
	if res.Response != nil {
		t.Fatalf("invalid request must not execute")
	}
}

func TestPipelineUpstreamErrorClassified(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error": "bad key"}`))
	}))
	defer upstream.Close()

	relay := httptest.NewServer(snippetrun.NewRelayServer(snippetrun.RelayConfig{DevMode: true}).Handler())
	defer relay.Close()

	p := snippetrun.Pipeline{RelayURL: relay.URL}
	res := p.Run(context.Background(), fmt.Sprintf("curl %s/v1/me", upstream.URL), snippetrun.LangCurl)
	if res.Err == nil {
		t.Fatalf("401 upstream must classify as an error")
	}
	if res.Err.Category != "AUTHENTICATION" {
		t.Fatalf("unexpected category: %s", res.Err.Category)
	}
	// The envelope survives alongside the classified error.
	if res.Response == nil || res.Response.Status != http.StatusUnauthorized {
		t.Fatalf("envelope lost: %+v", res.Response)
	}
}

func TestPipelineMissingSecret(t *testing.T) {
	p := snippetrun.Pipeline{
		RelayURL: "http://127.0.0.1:0",
		Auth:     snippetrun.AuthMode{Type: "api_key"},
	}
	res := p.Run(context.Background(), "curl https://api.example.com/v1/items", snippetrun.LangCurl)
	if res.Err == nil || res.Err.Category != "AUTHENTICATION" {
		t.Fatalf("missing secret must classify as AUTHENTICATION, got %+v", res.Err)
	}
}
