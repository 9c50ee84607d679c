package validate

import (
	"testing"

	"github.com/loykin/snippetrun/internal/descriptor"
)

func hasCode(t *testing.T, result Result, code string) bool {
	t.Helper()
	for _, e := range result.Errors {
		if e.Code == code {
			return true
		}
	}
	return false
}

func validPost() Request {
	r := Request{
		BaseURL: "https://api.example.com",
		Path:    "/v1/orders",
		Method:  "POST",
		Body:    `{"name": "widget"}`,
		Auth:    descriptor.NoAuth(),
	}
	r.Headers.Set("Content-Type", "application/json")
	return r
}

func TestValidatePasses(t *testing.T) {
	result := Validate(validPost())
	if !result.Valid {
		t.Fatalf("expected valid, got %v", result.Errors)
	}
}

func TestValidateGetWithBody(t *testing.T) {
	r := Request{
		BaseURL: "https://api.example.com",
		Path:    "/v1/items",
		Method:  "GET",
		Body:    `{"x": 1}`,
		Auth:    descriptor.NoAuth(),
	}
	result := Validate(r)
	if result.Valid || !hasCode(t, result, "unexpected_body") {
		t.Fatalf("GET with body must fail: %v", result.Errors)
	}
}

func TestValidatePostWithoutBody(t *testing.T) {
	r := validPost()
	r.Body = ""
	result := Validate(r)
	if result.Valid || !hasCode(t, result, "missing_body") {
		t.Fatalf("POST without body must fail: %v", result.Errors)
	}
}

func TestValidateBodyMustBeJSONObject(t *testing.T) {
	r := validPost()
	r.Body = `[1, 2, 3]`
	result := Validate(r)
	if !hasCode(t, result, "invalid_body_format") {
		t.Fatalf("array body with json content type must fail: %v", result.Errors)
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	r := Request{
		Method: "FETCH",
		Body:   "",
		Auth:   descriptor.AuthMode{Type: descriptor.AuthBearer},
	}
	result := Validate(r)
	if result.Valid {
		t.Fatalf("expected invalid")
	}
	for _, code := range []string{"missing_base_url", "missing_path", "invalid_method", "missing_bearer_token"} {
		if !hasCode(t, result, code) {
			t.Fatalf("missing %q in %v", code, result.Errors)
		}
	}
}

func TestValidatePathPlaceholders(t *testing.T) {
	r := validPost()
	r.Method = "GET"
	r.Body = ""
	r.Path = "/v1/users/{userId}/orders"
	result := Validate(r)
	if !hasCode(t, result, "unresolved_placeholders") {
		t.Fatalf("placeholder path must fail: %v", result.Errors)
	}
}

func TestValidateQueryParams(t *testing.T) {
	r := validPost()
	r.QueryParams = map[string]string{"q": "widget", "page": "undefined"}
	result := Validate(r)
	if !hasCode(t, result, "invalid_query_params") {
		t.Fatalf("undefined query value must fail: %v", result.Errors)
	}
}

func TestValidateURLFormat(t *testing.T) {
	r := validPost()
	r.BaseURL = "https://api.example.com"
	r.Path = "/v1//orders"
	result := Validate(r)
	if !hasCode(t, result, "double_slashes") {
		t.Fatalf("double slash path must fail: %v", result.Errors)
	}

	r = validPost()
	r.BaseURL = "https://undefined.example.com"
	result = Validate(r)
	if !hasCode(t, result, "malformed_url") {
		t.Fatalf("undefined in url must fail: %v", result.Errors)
	}
}

func TestValidateDates(t *testing.T) {
	r := validPost()
	r.Body = `{"checkin_date": "2026-03-15", "checkout_date": "15/03/2026"}`
	result := Validate(r)
	if !hasCode(t, result, "invalid_date_format") {
		t.Fatalf("non ISO date must fail: %v", result.Errors)
	}

	// Shape-valid but impossible on the calendar.
	r = validPost()
	r.Body = `{"checkin_date": "2025-02-30"}`
	result = Validate(r)
	if !hasCode(t, result, "invalid_date_value") {
		t.Fatalf("2025-02-30 must be rejected: %v", result.Errors)
	}

	r = validPost()
	r.Body = `{"checkin_date": "2026-03-15"}`
	result = Validate(r)
	if !result.Valid {
		t.Fatalf("valid date rejected: %v", result.Errors)
	}
}

func TestValidateDuplicateHeaders(t *testing.T) {
	r := validPost()
	r.Headers = descriptor.Headers{
		{Name: "Content-Type", Value: "application/json"},
		{Name: "content-type", Value: "text/plain"},
	}
	result := Validate(r)
	if !hasCode(t, result, "duplicate_headers") {
		t.Fatalf("case-insensitive duplicate must fail: %v", result.Errors)
	}
}

func TestValidateAuthNoneWithStrayFields(t *testing.T) {
	r := validPost()
	r.Auth = descriptor.AuthMode{Type: descriptor.AuthNone, Token: "leftover"}
	result := Validate(r)
	if !hasCode(t, result, "unexpected_auth_fields") {
		t.Fatalf("stray auth fields must fail: %v", result.Errors)
	}
}

func TestFromDescriptorKeepsRawQuery(t *testing.T) {
	d := &descriptor.Descriptor{
		URL:    "https://api.example.com/v1/items?token=${token}&q=widget",
		Method: "GET",
	}
	r := FromDescriptor(d, descriptor.NoAuth())
	if r.BaseURL != "https://api.example.com" || r.Path != "/v1/items" {
		t.Fatalf("unexpected split: %q %q", r.BaseURL, r.Path)
	}
	if r.QueryParams["token"] != "${token}" {
		t.Fatalf("raw query value lost: %q", r.QueryParams["token"])
	}
}
