package common

import (
	"regexp"
	"strings"
)

// SensitivePattern describes one kind of credential-shaped value to mask
// before it reaches a log line.
type SensitivePattern struct {
	Name        string
	Regex       *regexp.Regexp
	Replacement string
	Keys        []string // header/field names masked outright (case-insensitive)
}

// DefaultSensitivePatterns covers the credential shapes the pipeline handles:
// API keys, bearer/basic Authorization values, passwords and generic tokens.
var DefaultSensitivePatterns = []SensitivePattern{
	{
		Name:        "api_key",
		Regex:       regexp.MustCompile(`(?i)(x-api-key|api[_-]?key|apikey)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}: ***MASKED***`,
		Keys:        []string{"x-api-key", "api-key", "api_key", "apikey"},
	},
	{
		Name:        "bearer_token",
		Regex:       regexp.MustCompile(`(?i)Bearer\s+[A-Za-z0-9\-._~+/]+=*`),
		Replacement: "Bearer ***MASKED***",
	},
	{
		Name:        "basic_auth",
		Regex:       regexp.MustCompile(`(?i)Basic\s+[A-Za-z0-9+/]+=*`),
		Replacement: "Basic ***MASKED***",
	},
	{
		Name:        "authorization",
		Regex:       regexp.MustCompile(`(?i)(authorization)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}: ***MASKED***`,
		Keys:        []string{"authorization", "proxy-authorization"},
	},
	{
		Name:        "password",
		Regex:       regexp.MustCompile(`(?i)(password|passwd|pwd)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}: ***MASKED***`,
		Keys:        []string{"password", "passwd", "pwd"},
	},
	{
		Name:        "token",
		Regex:       regexp.MustCompile(`(?i)(token|access[_-]?token|auth[_-]?token)["'\s]*[:=]["'\s]*([^"',}\]\s]+)`),
		Replacement: `${1}: ***MASKED***`,
		Keys:        []string{"token", "access_token", "auth_token"},
	},
}

// Masker redacts credential-shaped values from strings and header maps.
type Masker struct {
	patterns []SensitivePattern
	enabled  bool
}

// NewMasker creates a masker with the default patterns.
func NewMasker() *Masker {
	return &Masker{patterns: DefaultSensitivePatterns, enabled: true}
}

// SetEnabled enables or disables masking
func (m *Masker) SetEnabled(enabled bool) { m.enabled = enabled }

// IsEnabled returns whether masking is enabled
func (m *Masker) IsEnabled() bool { return m.enabled }

// MaskString masks sensitive information in a string
func (m *Masker) MaskString(input string) string {
	if !m.enabled {
		return input
	}
	result := input
	for _, p := range m.patterns {
		result = p.Regex.ReplaceAllString(result, p.Replacement)
	}
	return result
}

// MaskHeaderValue masks the value when the header name itself is sensitive,
// then applies the value patterns (a Bearer token inside a custom header is
// still a Bearer token).
func (m *Masker) MaskHeaderValue(name, value string) string {
	if !m.enabled {
		return value
	}
	lower := strings.ToLower(strings.TrimSpace(name))
	for _, p := range m.patterns {
		for _, k := range p.Keys {
			if lower == k {
				return "***MASKED***"
			}
		}
	}
	return m.MaskString(value)
}

// MaskHeaders returns a copy of headers safe to log.
func (m *Masker) MaskHeaders(headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = m.MaskHeaderValue(k, v)
	}
	return out
}

// Global masker instance
var globalMasker = NewMasker()

// SetGlobalMasker sets the global masker instance
func SetGlobalMasker(masker *Masker) { globalMasker = masker }

// GetGlobalMasker returns the global masker instance
func GetGlobalMasker() *Masker { return globalMasker }

// MaskSensitiveData masks sensitive data using the global masker
func MaskSensitiveData(input string) string { return globalMasker.MaskString(input) }

// EnableMasking enables/disables global masking
func EnableMasking(enabled bool) { globalMasker.SetEnabled(enabled) }
