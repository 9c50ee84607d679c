package executor

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/loykin/snippetrun/internal/descriptor"
)

func relayStub(t *testing.T, handler http.HandlerFunc) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return srv
}

func TestExecuteSuccess(t *testing.T) {
	var got proxyRequest
	srv := relayStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/proxy-api" || r.Method != http.MethodPost {
			t.Fatalf("unexpected relay call: %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Fatalf("decode relay payload: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     200,
			"statusText": "OK",
			"headers":    map[string]string{"Content-Type": "application/json"},
			"url":        "https://api.example.com/v1/items",
			"data":       map[string]any{"ok": true},
		})
	})

	d := &descriptor.Descriptor{URL: "https://api.example.com/v1/items", Method: "get"}
	d.Headers.Set("Accept", "application/json")

	env, err := New(srv.URL).Execute(context.Background(), d)
	if err != nil {
		t.Fatalf("execute failed: %v", err)
	}
	if env.Status != 200 || env.StatusText != "OK" {
		t.Fatalf("unexpected envelope: %+v", env)
	}
	if got.Method != "GET" {
		t.Fatalf("method not upper-cased on the wire: %q", got.Method)
	}
	if got.Headers["Accept"] != "application/json" {
		t.Fatalf("headers not forwarded: %v", got.Headers)
	}
}

func TestExecuteUpstreamFailureKeepsEnvelope(t *testing.T) {
	srv := relayStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status":     404,
			"statusText": "Not Found",
			"data":       map[string]any{"detail": "no such item"},
		})
	})

	d := &descriptor.Descriptor{URL: "https://api.example.com/v1/items/9", Method: "GET"}
	env, err := New(srv.URL).Execute(context.Background(), d)
	if env == nil {
		t.Fatalf("envelope must survive upstream failure")
	}
	var statusErr *StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.Envelope.Status != 404 {
		t.Fatalf("unexpected status: %d", statusErr.Envelope.Status)
	}
}

func TestExecuteRelayRejection(t *testing.T) {
	srv := relayStub(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "Access to localhost is blocked for security reasons"})
	})

	d := &descriptor.Descriptor{URL: "http://localhost:9999/admin", Method: "GET"}
	env, err := New(srv.URL).Execute(context.Background(), d)
	if env != nil {
		t.Fatalf("no envelope expected on relay rejection")
	}
	var relayErr *RelayError
	if !errors.As(err, &relayErr) {
		t.Fatalf("expected RelayError, got %v", err)
	}
	if relayErr.Status != http.StatusForbidden {
		t.Fatalf("unexpected relay status: %d", relayErr.Status)
	}
}

func TestFetchDocs(t *testing.T) {
	srv := relayStub(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/proxy-docs" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		if r.URL.Query().Get("url") != "https://docs.example.com" {
			t.Fatalf("url query missing: %s", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(DocsResult{
			Status: 200, ContentType: "text/html", Content: "<html></html>",
			URL: "https://docs.example.com", OK: true,
		})
	})

	out, err := New(srv.URL).FetchDocs(context.Background(), "https://docs.example.com")
	if err != nil {
		t.Fatalf("docs fetch failed: %v", err)
	}
	if !out.OK || out.ContentType != "text/html" {
		t.Fatalf("unexpected docs result: %+v", out)
	}
}

func TestDataText(t *testing.T) {
	env := &ResponseEnvelope{Data: map[string]any{"a": float64(1)}}
	if env.DataText() != `{"a":1}` {
		t.Fatalf("unexpected data text: %q", env.DataText())
	}
	env = &ResponseEnvelope{Data: "raw"}
	if env.DataText() != "raw" {
		t.Fatalf("string payload must pass through: %q", env.DataText())
	}
}
