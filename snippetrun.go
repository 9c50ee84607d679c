package snippetrun

import (
	"context"
	"crypto/tls"
	"fmt"

	"github.com/loykin/snippetrun/internal/apierror"
	"github.com/loykin/snippetrun/internal/authinject"
	"github.com/loykin/snippetrun/internal/common"
	"github.com/loykin/snippetrun/internal/descriptor"
	"github.com/loykin/snippetrun/internal/executor"
	"github.com/loykin/snippetrun/internal/parser"
	"github.com/loykin/snippetrun/internal/relay"
	"github.com/loykin/snippetrun/internal/resolver"
	"github.com/loykin/snippetrun/internal/validate"

	"github.com/google/uuid"
)

// Re-export commonly used types for public API

// Descriptor is the canonical request produced by parsing a snippet.
type Descriptor = descriptor.Descriptor

// SnippetLanguage selects the parser dialect.
type SnippetLanguage = descriptor.SnippetLanguage

const (
	LangJavaScript = descriptor.LangJavaScript
	LangPython     = descriptor.LangPython
	LangCurl       = descriptor.LangCurl
)

// AuthMode describes the credentials to inject before execution.
type AuthMode = descriptor.AuthMode

// ResponseEnvelope is the normalized upstream response.
type ResponseEnvelope = executor.ResponseEnvelope

// ApiError is the classified failure produced by a pipeline run.
type ApiError = apierror.ApiError

// ValidationResult carries the full list of request validation errors.
type ValidationResult = validate.Result

// RelayConfig configures a relay server instance.
type RelayConfig = relay.Config

// ParseLanguage maps a language name ("javascript", "python", "curl" and
// their aliases) to its SnippetLanguage.
func ParseLanguage(s string) (SnippetLanguage, error) {
	lang, ok := descriptor.ParseLanguage(s)
	if !ok {
		return "", fmt.Errorf("unknown snippet language: %q", s)
	}
	return lang, nil
}

// ParseSnippet extracts a request descriptor from snippet text without
// resolving templates or injecting credentials.
func ParseSnippet(text string, lang SnippetLanguage) *Descriptor {
	return parser.Parse(text, lang)
}

// NewRelayServer builds a relay server from cfg.
func NewRelayServer(cfg RelayConfig) *relay.Server { return relay.NewServer(cfg) }

// SetLogger replaces the process-wide logger used by all pipeline stages.
func SetLogger(l *common.Logger) { common.SetDefaultLogger(l) }

// Pipeline runs snippets end to end: parse, resolve templates, inject
// credentials, validate, then execute through the relay and classify any
// failure. The zero Auth value means "fail on unresolved placeholders",
// matching the rule that a request is never sent with a placeholder
// credential.
type Pipeline struct {
	// RelayURL is the base URL of the relay server, e.g. "http://localhost:8080".
	RelayURL string
	// Auth is applied to every descriptor before validation.
	Auth AuthMode
	// TlsConfig applies to the relay connection when set.
	TlsConfig *tls.Config
}

// Result is the outcome of a pipeline run. Exactly one of Response and Err is
// meaningful for success reporting, but a failed upstream call carries both:
// the envelope with the real status and body, and the classified error.
type Result struct {
	Descriptor *Descriptor
	Response   *ResponseEnvelope
	Err        *ApiError
	RequestID  string
}

// Run executes snippet text written in lang. It never returns a Go error:
// every failure mode is classified into Result.Err.
func (p *Pipeline) Run(ctx context.Context, text string, lang SnippetLanguage) Result {
	requestID := uuid.NewString()
	logger := common.GetLogger().WithComponent("pipeline").WithRequestID(requestID)

	d := parser.Parse(text, lang)
	res := Result{Descriptor: d, RequestID: requestID}
	if d.Fallback {
		res.Err = apierror.FromParseFallback(string(lang), requestID)
		return res
	}

	resolver.Resolve(d)

	if err := authinject.Inject(d, p.Auth); err != nil {
		logger.Warn("auth injection failed", "error", err)
		res.Err = apierror.FromAuthError(err, requestID)
		return res
	}

	req := validate.FromDescriptor(d, p.Auth)
	if result := validate.Validate(req); !result.Valid {
		logger.Warn("validation failed", "errors", len(result.Errors))
		res.Err = apierror.FromValidation(result, requestID)
		return res
	}

	exec := executor.New(p.RelayURL)
	exec.TlsConfig = p.TlsConfig
	env, err := exec.Execute(ctx, d)
	res.Response = env
	if err != nil {
		res.Err = apierror.Classify(err, env, requestID)
		return res
	}
	logger.Info("run completed", "status", env.Status)
	return res
}

// Check parses, resolves and validates a snippet without executing it. The
// returned descriptor reflects template resolution and auth injection.
func (p *Pipeline) Check(text string, lang SnippetLanguage) (*Descriptor, ValidationResult, error) {
	d := parser.Parse(text, lang)
	if d.Fallback {
		return d, validate.Result{Valid: false}, &parser.FallbackError{Language: string(lang)}
	}
	resolver.Resolve(d)
	if err := authinject.Inject(d, p.Auth); err != nil {
		return d, validate.Result{Valid: false}, err
	}
	req := validate.FromDescriptor(d, p.Auth)
	return d, validate.Validate(req), nil
}
