package descriptor

import "strings"

// AuthType enumerates the authentication strategies a run can use.
type AuthType string

const (
	AuthNone   AuthType = "none"
	AuthAPIKey AuthType = "api_key"
	AuthBasic  AuthType = "basic"
	AuthBearer AuthType = "bearer"
	AuthHeader AuthType = "header"
)

// AuthMode is the authentication strategy selected for a single run together
// with the caller-supplied secrets. Exactly one variant is active; the unused
// fields stay empty. Secrets are session-scoped plaintext and are never
// persisted by the pipeline.
type AuthMode struct {
	Type        AuthType
	Key         string
	Username    string
	Password    string
	Token       string
	HeaderName  string
	HeaderValue string
}

// APIKey returns an api_key mode carrying the given key.
func APIKey(key string) AuthMode { return AuthMode{Type: AuthAPIKey, Key: key} }

// Basic returns a basic mode carrying username and password.
func Basic(username, password string) AuthMode {
	return AuthMode{Type: AuthBasic, Username: username, Password: password}
}

// Bearer returns a bearer mode carrying the token.
func Bearer(token string) AuthMode { return AuthMode{Type: AuthBearer, Token: token} }

// CustomHeader returns a header mode carrying a custom header name and value.
func CustomHeader(name, value string) AuthMode {
	return AuthMode{Type: AuthHeader, HeaderName: name, HeaderValue: value}
}

// NoAuth returns the none mode.
func NoAuth() AuthMode { return AuthMode{Type: AuthNone} }

// Normalized returns the mode with its type lower-cased and defaulted to none.
func (m AuthMode) Normalized() AuthMode {
	m.Type = AuthType(strings.ToLower(strings.TrimSpace(string(m.Type))))
	if m.Type == "" {
		m.Type = AuthNone
	}
	return m
}
