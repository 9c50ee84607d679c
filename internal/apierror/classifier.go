// Package apierror maps every pipeline failure (parse fallback, validation,
// network, HTTP status) into one fixed taxonomy. Each category carries a
// technical message for logs, a user-safe message for display and a list of
// remediation suggestions, so nothing in the pipeline ever surfaces a raw,
// unclassified error to the UI.
package apierror

import (
	"fmt"
	"strings"
	"time"

	"github.com/loykin/snippetrun/internal/executor"
	"github.com/loykin/snippetrun/internal/validate"
	"github.com/tidwall/gjson"
)

// Category is the stable failure taxonomy.
type Category string

const (
	CategoryNetwork        Category = "NETWORK"
	CategoryTimeout        Category = "TIMEOUT"
	CategoryValidation     Category = "VALIDATION"
	CategoryClientError    Category = "CLIENT_ERROR"
	CategoryServerError    Category = "SERVER_ERROR"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryRateLimit      Category = "RATE_LIMIT"
	CategoryUnknown        Category = "UNKNOWN"
)

// ApiError is the classified, user-facing error produced at the end of a
// failed run. Message retains full technical detail for logs; UserMessage is
// safe to render directly.
type ApiError struct {
	Category    Category                   `json:"category"`
	StatusCode  int                        `json:"status_code,omitempty"`
	Message     string                     `json:"message"`
	UserMessage string                     `json:"user_message"`
	Suggestions []string                   `json:"suggestions"`
	Validation  []validate.ValidationError `json:"validation_errors,omitempty"`
	RequestID   string                     `json:"request_id,omitempty"`
	Timestamp   time.Time                  `json:"timestamp"`
	// Body keeps the upstream response payload, parsed or raw; it is never
	// discarded.
	Body any `json:"body,omitempty"`
}

func (e *ApiError) Error() string {
	return fmt.Sprintf("%s: %s", e.Category, e.Message)
}

func base(cat Category, message, userMessage string, suggestions []string) *ApiError {
	return &ApiError{
		Category:    cat,
		Message:     message,
		UserMessage: userMessage,
		Suggestions: suggestions,
		Timestamp:   time.Now().UTC(),
	}
}

var networkSuggestions = []string{
	"Check your internet connection",
	"Verify the API endpoint URL is reachable",
	"Try again in a few moments",
}

var timeoutSuggestions = []string{
	"The server took too long to respond",
	"Try again in a few moments",
	"Check if the API endpoint is experiencing issues",
}

var authSuggestions = []string{
	"Provide valid authentication credentials",
	"Check if your API key or token is correct",
	"Verify your credentials have not expired",
}

var clientSuggestions = []string{
	"Check the request URL, parameters and body for mistakes",
	"Consult the API documentation for the expected format",
}

var serverSuggestions = []string{
	"This is not your fault - the server encountered an error",
	"Please try again in a few moments",
	"Check the service status page for updates",
}

var validationSuggestions = []string{
	"Please fix the validation errors listed in details",
}

var unknownSuggestions = []string{
	"An unexpected error occurred",
	"Try again, and contact support if the problem persists",
}

// Classify maps a failure to its ApiError. When resp is nil the failure never
// reached the upstream (timeout vs network, judged from the error text);
// otherwise the status code decides, checking the authentication and
// rate-limit statuses before the generic 4xx/5xx buckets.
func Classify(err error, resp *executor.ResponseEnvelope, requestID string) *ApiError {
	var out *ApiError
	switch {
	case resp == nil:
		out = classifyTransport(err)
	default:
		out = classifyStatus(err, resp)
	}
	out.RequestID = requestID
	return out
}

func classifyTransport(err error) *ApiError {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	lower := strings.ToLower(msg)
	if strings.Contains(lower, "timeout") || strings.Contains(lower, "deadline exceeded") ||
		strings.Contains(lower, "timed out") {
		return base(CategoryTimeout, msg,
			"The request timed out before the server responded.", timeoutSuggestions)
	}
	return base(CategoryNetwork, msg,
		"Could not reach the server. Check your connection and the URL.", networkSuggestions)
}

func classifyStatus(err error, resp *executor.ResponseEnvelope) *ApiError {
	msg := fmt.Sprintf("upstream returned status %d", resp.Status)
	if err != nil {
		msg = err.Error()
	}

	var out *ApiError
	switch {
	case resp.Status == 401 || resp.Status == 403:
		out = base(CategoryAuthentication, msg,
			"Authentication failed. Check your credentials.", authSuggestions)
	case resp.Status == 429:
		out = base(CategoryRateLimit, msg,
			"Too many requests. Please slow down.", rateLimitSuggestions(resp))
	case resp.Status >= 400 && resp.Status < 500:
		out = base(CategoryClientError, msg,
			"The request was rejected by the server. Check the request details.", clientSuggestions)
	case resp.Status >= 500:
		out = base(CategoryServerError, msg,
			"The server encountered an error. Try again later.", serverSuggestions)
	default:
		out = base(CategoryUnknown, msg,
			"Something unexpected happened.", unknownSuggestions)
	}
	out.StatusCode = resp.Status
	out.Body = parsedBody(resp)
	return out
}

// rateLimitSuggestions mentions the server's retry_after hint when the 429
// body carries one.
func rateLimitSuggestions(resp *executor.ResponseEnvelope) []string {
	suggestions := []string{"You have made too many requests in a short time"}
	retryAfter := gjson.Get(resp.DataText(), "retry_after")
	if !retryAfter.Exists() {
		retryAfter = gjson.Get(resp.DataText(), "retryAfter")
	}
	if retryAfter.Exists() {
		suggestions = append(suggestions,
			fmt.Sprintf("Please wait %s seconds before trying again", retryAfter.String()))
	} else {
		suggestions = append(suggestions, "Please wait a moment before trying again")
	}
	return suggestions
}

// parsedBody returns the response payload, opportunistically parsed as JSON
// with a raw-text fallback.
func parsedBody(resp *executor.ResponseEnvelope) any {
	if resp.Data == nil {
		return nil
	}
	if s, ok := resp.Data.(string); ok {
		if gjson.Valid(s) {
			return gjson.Parse(s).Value()
		}
		return s
	}
	return resp.Data
}

// FromValidation wraps a failed validation result. The complete error list is
// carried so the user can fix every problem in one pass.
func FromValidation(result validate.Result, requestID string) *ApiError {
	fields := make([]string, 0, len(result.Errors))
	for _, e := range result.Errors {
		fields = append(fields, e.Field)
	}
	out := base(CategoryValidation,
		"request validation failed: "+strings.Join(fields, ", "),
		"The request has invalid or missing fields.", validationSuggestions)
	out.Validation = result.Errors
	out.RequestID = requestID
	return out
}

// FromAuthError wraps an auth-injection failure. Injection errors block
// execution; a request is never sent with an unresolved credential.
func FromAuthError(err error, requestID string) *ApiError {
	out := base(CategoryAuthentication, err.Error(),
		"Authentication is not fully configured for this request.", authSuggestions)
	out.RequestID = requestID
	return out
}

// FromParseFallback reports that the snippet yielded no recognizable request.
// The fallback descriptor must never be executed as if it were user intent.
func FromParseFallback(lang string, requestID string) *ApiError {
	out := base(CategoryValidation,
		"no recognizable "+lang+" request found in snippet",
		"Could not find an HTTP request in the provided code snippet.",
		[]string{
			"Make sure the snippet contains a complete request (fetch call, requests call, or curl command)",
			"Check the selected snippet language matches the code",
		})
	out.RequestID = requestID
	return out
}
