package apierror

import (
	"errors"
	"strings"
	"testing"

	"github.com/loykin/snippetrun/internal/executor"
	"github.com/loykin/snippetrun/internal/validate"
)

func envelope(status int, data any) *executor.ResponseEnvelope {
	return &executor.ResponseEnvelope{Status: status, Data: data}
}

func TestClassifyTimeout(t *testing.T) {
	e := Classify(errors.New("context deadline exceeded"), nil, "req-1")
	if e.Category != CategoryTimeout {
		t.Fatalf("expected TIMEOUT, got %s", e.Category)
	}
	if e.RequestID != "req-1" {
		t.Fatalf("request id lost: %q", e.RequestID)
	}
}

func TestClassifyNetwork(t *testing.T) {
	e := Classify(errors.New("dial tcp: connection refused"), nil, "")
	if e.Category != CategoryNetwork {
		t.Fatalf("expected NETWORK, got %s", e.Category)
	}
	if e.UserMessage == "" || len(e.Suggestions) == 0 {
		t.Fatalf("network error must carry user message and suggestions")
	}
}

func TestClassifyAuthStatuses(t *testing.T) {
	for _, status := range []int{401, 403} {
		e := Classify(nil, envelope(status, `{"error": "bad key"}`), "")
		if e.Category != CategoryAuthentication {
			t.Fatalf("status %d: expected AUTHENTICATION, got %s", status, e.Category)
		}
		if e.StatusCode != status {
			t.Fatalf("status %d not carried: %d", status, e.StatusCode)
		}
	}
}

func TestClassifyRateLimitRetryAfter(t *testing.T) {
	e := Classify(nil, envelope(429, `{"retry_after": 30}`), "")
	if e.Category != CategoryRateLimit {
		t.Fatalf("expected RATE_LIMIT, got %s", e.Category)
	}
	found := false
	for _, s := range e.Suggestions {
		if strings.Contains(s, "30") {
			found = true
		}
	}
	if !found {
		t.Fatalf("retry_after hint missing from suggestions: %v", e.Suggestions)
	}
}

func TestClassifyClientAndServer(t *testing.T) {
	if e := Classify(nil, envelope(404, nil), ""); e.Category != CategoryClientError {
		t.Fatalf("404: expected CLIENT_ERROR, got %s", e.Category)
	}
	if e := Classify(nil, envelope(503, nil), ""); e.Category != CategoryServerError {
		t.Fatalf("503: expected SERVER_ERROR, got %s", e.Category)
	}
}

func TestClassifyKeepsBody(t *testing.T) {
	e := Classify(nil, envelope(400, `{"detail": "name is required"}`), "")
	m, ok := e.Body.(map[string]any)
	if !ok {
		t.Fatalf("JSON body not parsed: %T", e.Body)
	}
	if m["detail"] != "name is required" {
		t.Fatalf("body content lost: %v", m)
	}

	e = Classify(nil, envelope(500, "plain text oops"), "")
	if e.Body != "plain text oops" {
		t.Fatalf("raw body lost: %v", e.Body)
	}
}

func TestFromValidation(t *testing.T) {
	result := validate.Result{
		Valid: false,
		Errors: []validate.ValidationError{
			{Field: "body", Code: "missing_body", Message: "POST requests must include a valid JSON body"},
			{Field: "path", Code: "unresolved_placeholders", Message: "Path contains unresolved placeholders"},
		},
	}
	e := FromValidation(result, "req-2")
	if e.Category != CategoryValidation {
		t.Fatalf("expected VALIDATION, got %s", e.Category)
	}
	if len(e.Validation) != 2 {
		t.Fatalf("full error list must be carried, got %d", len(e.Validation))
	}
}

func TestFromParseFallback(t *testing.T) {
	e := FromParseFallback("javascript", "req-3")
	if e.Category != CategoryValidation {
		t.Fatalf("expected VALIDATION, got %s", e.Category)
	}
	if !strings.Contains(e.Message, "javascript") {
		t.Fatalf("language missing from message: %q", e.Message)
	}
}
