// Package authinject rewrites placeholder credential fields in a descriptor
// according to the caller's selected auth mode. Rewrites are driven by the
// detected placeholder shape, so switching modes between runs works directly
// on the already-rewritten descriptor: basic -> api_key -> basic lands on the
// same header as a single basic injection, with no re-parse.
package authinject

import (
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/loykin/snippetrun/internal/common"
	"github.com/loykin/snippetrun/internal/descriptor"
)

// MissingSecretError reports a selected auth mode whose required secret was
// not supplied. Field names the exact input to fix.
type MissingSecretError struct {
	Field string
	Mode  descriptor.AuthType
}

func (e *MissingSecretError) Error() string {
	return fmt.Sprintf("auth mode %q requires %s", e.Mode, e.Field)
}

// UnresolvedCredentialError reports a credential placeholder that survived
// injection. Execution must be blocked; a request is never sent with an
// unresolved credential.
type UnresolvedCredentialError struct {
	Where string
}

func (e *UnresolvedCredentialError) Error() string {
	return fmt.Sprintf("unresolved credential placeholder in %s", e.Where)
}

// shape classifies a header value's credential form.
type shape int

const (
	shapeNone shape = iota
	shapePlaceholder // contains the canonical token or a known placeholder
	shapeBearer      // Bearer <value>
	shapeBasic       // already-built Basic <base64>
	shapeBtoa        // btoa(...) or equivalent base64-encode expression
	shapeUserPass    // literal user:pass pair (e.g. YOUR_USERNAME:YOUR_PASSWORD)
)

// knownPlaceholders are the placeholder spellings generators emit for an API
// key, checked case-insensitively alongside the canonical token.
// Longer spellings come first so substring replacement never clips a longer
// placeholder by matching a shorter one inside it.
var knownPlaceholders = []string{
	"YOUR_API_KEY_HERE",
	"your-api-key-here",
	"<your-api-key>",
	descriptor.KeyPlaceholder,
	"YOUR-API-KEY",
	"${apiKey}",
	"apiKey",
}

// IsPlaceholderKey reports whether value is a known API-key placeholder
// rather than a real credential.
func IsPlaceholderKey(value string) bool {
	v := strings.TrimSpace(value)
	for _, p := range knownPlaceholders {
		if strings.EqualFold(v, p) {
			return true
		}
	}
	return false
}

// containsPlaceholder reports whether any known placeholder occurs inside s.
func containsPlaceholder(s string) bool {
	lower := strings.ToLower(s)
	for _, p := range knownPlaceholders {
		if strings.Contains(lower, strings.ToLower(p)) {
			return true
		}
	}
	return false
}

func detectShape(value string) shape {
	v := strings.TrimSpace(value)
	switch {
	case strings.Contains(v, "btoa("):
		return shapeBtoa
	case strings.HasPrefix(v, "Basic "):
		return shapeBasic
	case strings.HasPrefix(v, "Bearer "):
		return shapeBearer
	case containsPlaceholder(v):
		return shapePlaceholder
	case isUserPassPair(v):
		return shapeUserPass
	default:
		return shapeNone
	}
}

// isUserPassPair matches a bare user:pass literal, the form curl -u produces
// and generators emit as YOUR_USERNAME:YOUR_PASSWORD.
func isUserPassPair(v string) bool {
	if strings.ContainsAny(v, " \t") {
		return false
	}
	idx := strings.IndexByte(v, ':')
	return idx > 0 && idx < len(v)-1 && strings.Count(v, ":") == 1
}

// credentialHeaderName reports whether the header name itself denotes a
// credential slot (x-api-key and friends, or Authorization).
func credentialHeaderName(name string) bool {
	lower := strings.ToLower(strings.TrimSpace(name))
	switch lower {
	case "authorization", "x-api-key", "api-key", "x-apikey", "apikey":
		return true
	}
	return false
}

func isAuthorization(name string) bool {
	return strings.EqualFold(strings.TrimSpace(name), "Authorization")
}

// Inject applies the auth mode to the descriptor in place. It fails fast with
// a field-specific error when the mode lacks its secret, and with an
// UnresolvedCredentialError when mode none leaves a placeholder in place.
func Inject(d *descriptor.Descriptor, mode descriptor.AuthMode) error {
	mode = mode.Normalized()
	if err := checkSecrets(mode); err != nil {
		return err
	}
	logger := common.GetLogger().WithComponent("authinject")

	switch mode.Type {
	case descriptor.AuthAPIKey:
		injectValue(d, "Bearer "+mode.Key, mode.Key)
	case descriptor.AuthBearer:
		injectValue(d, "Bearer "+mode.Token, mode.Token)
	case descriptor.AuthBasic:
		cred := base64.StdEncoding.EncodeToString([]byte(mode.Username + ":" + mode.Password))
		injectBasic(d, "Basic "+cred)
	case descriptor.AuthHeader:
		injectCustomHeader(d, mode.HeaderName, mode.HeaderValue)
	case descriptor.AuthNone:
		if where, ok := findPlaceholder(d); ok {
			return &UnresolvedCredentialError{Where: where}
		}
	}
	logger.Debug("auth injected", "mode", string(mode.Type))
	return nil
}

func checkSecrets(mode descriptor.AuthMode) error {
	missing := func(field string) error {
		return &MissingSecretError{Field: field, Mode: mode.Type}
	}
	switch mode.Type {
	case descriptor.AuthAPIKey:
		if strings.TrimSpace(mode.Key) == "" {
			return missing("auth.key")
		}
	case descriptor.AuthBearer:
		if strings.TrimSpace(mode.Token) == "" {
			return missing("auth.token")
		}
	case descriptor.AuthBasic:
		if strings.TrimSpace(mode.Username) == "" {
			return missing("auth.username")
		}
		if strings.TrimSpace(mode.Password) == "" {
			return missing("auth.password")
		}
	case descriptor.AuthHeader:
		if strings.TrimSpace(mode.HeaderName) == "" {
			return missing("auth.headerName")
		}
		if strings.TrimSpace(mode.HeaderValue) == "" {
			return missing("auth.headerValue")
		}
	}
	return nil
}

// injectValue handles api_key and bearer modes. authValue is the full
// Authorization form ("Bearer <secret>"); bare is the secret alone, used when
// the slot is an api-key style header or a placeholder embedded in a larger
// value (so "Bearer YOUR_API_KEY" keeps its Bearer prefix).
func injectValue(d *descriptor.Descriptor, authValue, bare string) {
	for i, h := range d.Headers {
		s := detectShape(h.Value)
		if s == shapeNone && !credentialHeaderName(h.Name) {
			continue
		}
		switch {
		case s == shapePlaceholder:
			d.Headers[i].Value = replacePlaceholder(h.Value, bare)
		case isAuthorization(h.Name):
			// Basic/btoa/user:pass or a previous injection: rewrite whole value.
			d.Headers[i].Value = authValue
		case credentialHeaderName(h.Name):
			d.Headers[i].Value = bare
		}
	}
	d.URL = replacePlaceholder(d.URL, bare)
}

// injectBasic rewrites every detected credential slot into the built Basic
// header. Api-key style headers collapse into Authorization.
func injectBasic(d *descriptor.Descriptor, basicValue string) {
	dropAPIKeyHeader := false
	for i, h := range d.Headers {
		s := detectShape(h.Value)
		if s == shapeNone && !credentialHeaderName(h.Name) {
			continue
		}
		if isAuthorization(h.Name) {
			d.Headers[i].Value = basicValue
		} else if credentialHeaderName(h.Name) {
			dropAPIKeyHeader = true
		}
	}
	if dropAPIKeyHeader {
		for _, name := range []string{"x-api-key", "api-key", "x-apikey", "apikey"} {
			d.Headers.Delete(name)
		}
	}
	if _, ok := d.Headers.Get("Authorization"); !ok {
		d.Headers.Set("Authorization", basicValue)
	}
}

// injectCustomHeader replaces recognized credential slots with one custom
// header. Unrecognized caller headers are left untouched.
func injectCustomHeader(d *descriptor.Descriptor, name, value string) {
	var drop []string
	for _, h := range d.Headers {
		if detectShape(h.Value) != shapeNone && credentialHeaderName(h.Name) && !strings.EqualFold(h.Name, name) {
			drop = append(drop, h.Name)
		}
	}
	for _, n := range drop {
		d.Headers.Delete(n)
	}
	d.Headers.Set(name, value)
}

// replacePlaceholder substitutes every known placeholder spelling inside s.
func replacePlaceholder(s, with string) string {
	out := s
	for _, p := range knownPlaceholders {
		if p == "apiKey" {
			// Too generic to substring-replace; only swap exact matches.
			if strings.TrimSpace(out) == p {
				out = with
			}
			continue
		}
		lowerP := strings.ToLower(p)
		var b strings.Builder
		for {
			idx := strings.Index(strings.ToLower(out), lowerP)
			if idx < 0 {
				b.WriteString(out)
				break
			}
			b.WriteString(out[:idx])
			b.WriteString(with)
			out = out[idx+len(p):]
		}
		out = b.String()
	}
	return out
}

// findPlaceholder locates any remaining credential placeholder for the none
// mode check.
func findPlaceholder(d *descriptor.Descriptor) (string, bool) {
	if containsPlaceholder(d.URL) {
		return "url", true
	}
	for _, h := range d.Headers {
		// A placeholder may sit behind a Bearer/Basic prefix; check the raw
		// value before the shape.
		if containsPlaceholder(h.Value) {
			return "header " + h.Name, true
		}
		switch detectShape(h.Value) {
		case shapeBtoa:
			return "header " + h.Name, true
		case shapeUserPass:
			if strings.Contains(h.Value, descriptor.UsernamePlaceholder) ||
				strings.Contains(h.Value, descriptor.PasswordPlaceholder) {
				return "header " + h.Name, true
			}
		}
	}
	return "", false
}
