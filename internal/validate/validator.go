// Package validate performs the stateless structural and semantic check of a
// request before it is handed to the executor. Every rule is evaluated; the
// result carries the complete violation list so a user can fix all problems
// in one edit cycle instead of replaying first-error-wins rounds.
package validate

import (
	"encoding/json"
	"fmt"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/loykin/snippetrun/internal/descriptor"
)

// ValidationError is one structural violation, named by field and stable code.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Result is the outcome of a validation pass.
type Result struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationError `json:"errors"`
}

// Request is the validator's input: a descriptor split into the parts the
// rules operate on, plus the auth mode selected for the run.
type Request struct {
	BaseURL     string
	Path        string
	Method      string
	Body        string
	QueryParams map[string]string
	Headers     descriptor.Headers
	Auth        descriptor.AuthMode
}

// FromDescriptor splits a descriptor's URL into base/path/query form.
// An unparseable URL keeps everything in BaseURL so the URL rules still see it.
func FromDescriptor(d *descriptor.Descriptor, auth descriptor.AuthMode) Request {
	r := Request{
		Method:      d.Method,
		Body:        d.Body,
		Headers:     d.Headers,
		Auth:        auth,
		QueryParams: map[string]string{},
	}
	u, err := url.Parse(d.URL)
	if err != nil || u.Host == "" {
		r.BaseURL = d.URL
		return r
	}
	r.BaseURL = u.Scheme + "://" + u.Host
	r.Path = u.Path
	if r.Path == "" {
		r.Path = "/"
	}
	// RawQuery is split by hand: placeholder values like ${token} are not
	// form-encoded and must survive verbatim for the rules to flag.
	for _, pair := range strings.Split(u.RawQuery, "&") {
		if pair == "" {
			continue
		}
		k, v, _ := strings.Cut(pair, "=")
		r.QueryParams[k] = v
	}
	return r
}

const absentNull = "null"
const absentUndefined = "undefined"

// absent reports values treated as missing: empty, "null" and "undefined".
func absent(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "" || v == absentNull || v == absentUndefined
}

var methodsWithoutBody = map[string]struct{}{
	"GET": {}, "DELETE": {}, "HEAD": {}, "OPTIONS": {},
}
var methodsWithBody = map[string]struct{}{
	"POST": {}, "PUT": {}, "PATCH": {},
}

// Validate runs every rule and returns the full violation list.
func Validate(r Request) Result {
	v := &validator{}
	method := strings.ToUpper(strings.TrimSpace(r.Method))

	v.requiredFields(r, method)
	v.methodBody(r, method)
	v.auth(r.Auth)
	v.pathPlaceholders(r.Path)
	v.queryParams(r.QueryParams)
	v.urlFormat(r.BaseURL, r.Path)
	v.dates(bodyFields(r.Body), "body")
	v.dates(r.QueryParams, "queryParams")
	v.dates(r.Headers.Map(), "headers")
	v.headers(r.Headers)

	return Result{Valid: len(v.errors) == 0, Errors: v.errors}
}

type validator struct {
	errors []ValidationError
}

func (v *validator) add(field, code, message string) {
	v.errors = append(v.errors, ValidationError{Field: field, Code: code, Message: message})
}

func (v *validator) requiredFields(r Request, method string) {
	if absent(r.BaseURL) {
		v.add("baseUrl", "missing_base_url", "Base URL is required and cannot be empty, null, or undefined")
	}
	if absent(r.Path) {
		v.add("path", "missing_path", "Path is required and cannot be empty, null, or undefined")
	}
	if absent(method) {
		v.add("method", "missing_method", "HTTP method is required and cannot be empty, null, or undefined")
	} else if !descriptor.IsValidMethod(method) {
		v.add("method", "invalid_method",
			"Invalid HTTP method. Must be one of: "+strings.Join(descriptor.ValidMethods, ", "))
	}
}

func (v *validator) methodBody(r Request, method string) {
	if _, ok := methodsWithoutBody[method]; ok {
		if strings.TrimSpace(r.Body) != "" {
			v.add("body", "unexpected_body", method+" requests must not include a body")
		}
		return
	}
	if _, ok := methodsWithBody[method]; !ok {
		return
	}
	if strings.TrimSpace(r.Body) == "" {
		v.add("body", "missing_body", method+" requests must include a valid JSON body")
		return
	}
	if !jsonContentType(r.Headers) {
		return
	}
	var parsed any
	if err := json.Unmarshal([]byte(r.Body), &parsed); err != nil {
		v.add("body", "invalid_json", "Request body must be valid JSON")
		return
	}
	if _, ok := parsed.(map[string]any); !ok {
		v.add("body", "invalid_body_format", "Request body must be a JSON object")
	}
}

func jsonContentType(hs descriptor.Headers) bool {
	ct, ok := hs.Get("Content-Type")
	return ok && strings.Contains(strings.ToLower(ct), "application/json")
}

func (v *validator) auth(a descriptor.AuthMode) {
	a = a.Normalized()
	switch a.Type {
	case descriptor.AuthBearer:
		if absent(a.Token) {
			v.add("auth.token", "missing_bearer_token", `Bearer token is required when auth type is "bearer"`)
		}
	case descriptor.AuthBasic:
		if absent(a.Username) {
			v.add("auth.username", "missing_username", "Username is required for basic authentication")
		}
		if absent(a.Password) {
			v.add("auth.password", "missing_password", "Password is required for basic authentication")
		}
	case descriptor.AuthHeader:
		if absent(a.HeaderName) {
			v.add("auth.headerName", "missing_header_name", "Header name is required for header authentication")
		}
		if absent(a.HeaderValue) {
			v.add("auth.headerValue", "missing_header_value", "Header value is required for header authentication")
		}
	case descriptor.AuthAPIKey:
		if absent(a.Key) {
			v.add("auth.key", "missing_api_key", `API key is required when auth type is "api_key"`)
		}
	case descriptor.AuthNone:
		if a.Key != "" || a.Token != "" || a.Username != "" || a.Password != "" ||
			a.HeaderName != "" || a.HeaderValue != "" {
			v.add("auth", "unexpected_auth_fields", `Auth type is "none" but authentication fields are present`)
		}
	}
}

var placeholderRe = regexp.MustCompile(`\{[a-zA-Z_][a-zA-Z0-9_]*\}`)

func (v *validator) pathPlaceholders(path string) {
	if path == "" {
		return
	}
	placeholders := placeholderRe.FindAllString(path, -1)
	if len(placeholders) > 0 {
		v.add("path", "unresolved_placeholders",
			"Path contains unresolved placeholders: "+strings.Join(placeholders, ", ")+". Please replace them with actual values.")
	}
}

func (v *validator) queryParams(params map[string]string) {
	var invalid []string
	for k, val := range params {
		if absent(val) {
			invalid = append(invalid, k)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		v.add("queryParams", "invalid_query_params",
			"Query parameters contain null/undefined/empty values: "+strings.Join(invalid, ", "))
	}
}

func (v *validator) urlFormat(baseURL, path string) {
	if baseURL == "" || path == "" {
		return
	}
	combined := strings.ToLower(baseURL + "/" + path)
	if strings.Contains(combined, absentUndefined) || strings.Contains(combined, absentNull) {
		v.add("url", "malformed_url", `URL contains "undefined" or "null" - please provide valid values`)
	}

	stripped := strings.TrimPrefix(strings.TrimPrefix(baseURL, "https://"), "http://")
	if strings.Contains(stripped, "//") || strings.Contains(path, "//") {
		v.add("url", "double_slashes", "URL contains double slashes - please check baseUrl and path")
	}

	if !strings.HasSuffix(baseURL, "/") && !strings.HasPrefix(path, "/") {
		v.add("url", "missing_slash", `BaseUrl should end with "/" or path should start with "/"`)
	}
}

// dateFieldNames are the substrings that mark a field as date-bearing.
var dateFieldNames = []string{"date", "checkin", "checkout", "startdate", "enddate", "createdat", "updatedat"}

var dateShapeRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

func (v *validator) dates(fields map[string]string, prefix string) {
	if len(fields) == 0 {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if !dateField(key) {
			continue
		}
		val := strings.TrimSpace(fields[key])
		if val == "" {
			continue
		}
		if !dateShapeRe.MatchString(val) {
			v.add(prefix+"."+key, "invalid_date_format", "Date must follow YYYY-MM-DD format, got: "+val)
			continue
		}
		// The shape check passes impossible dates like 2025-02-30; the
		// calendar parse is what rejects them.
		if _, err := time.Parse("2006-01-02", val); err != nil {
			v.add(prefix+"."+key, "invalid_date_value",
				fmt.Sprintf("Invalid date value: %s (e.g., month > 12, day > 31)", val))
		}
	}
}

func dateField(key string) bool {
	lower := strings.ToLower(key)
	for _, name := range dateFieldNames {
		if strings.Contains(lower, name) {
			return true
		}
	}
	return false
}

func (v *validator) headers(hs descriptor.Headers) {
	var invalid []string
	for _, h := range hs {
		if absent(h.Value) {
			invalid = append(invalid, h.Name)
		}
	}
	if len(invalid) > 0 {
		v.add("headers", "invalid_header_values",
			"Headers contain empty/null/undefined values: "+strings.Join(invalid, ", "))
	}

	seen := map[string]struct{}{}
	dup := false
	for _, h := range hs {
		lower := strings.ToLower(h.Name)
		if _, ok := seen[lower]; ok {
			dup = true
			break
		}
		seen[lower] = struct{}{}
	}
	if dup {
		v.add("headers", "duplicate_headers", "Headers contain duplicate keys (case-insensitive)")
	}
}

// bodyFields flattens the top level of a JSON object body for date checks.
// Non-JSON bodies contribute nothing.
func bodyFields(body string) map[string]string {
	body = strings.TrimSpace(body)
	if body == "" || !strings.HasPrefix(body, "{") {
		return nil
	}
	var parsed map[string]any
	if err := json.Unmarshal([]byte(body), &parsed); err != nil {
		return nil
	}
	out := make(map[string]string, len(parsed))
	for k, val := range parsed {
		if s, ok := val.(string); ok {
			out[k] = s
		}
	}
	return out
}
