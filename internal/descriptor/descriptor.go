package descriptor

import (
	"net/http"
	"strings"
)

// KeyPlaceholder is the canonical credential placeholder token. The resolver
// normalizes every api-key-shaped identifier to this one form so downstream
// stages have a single shape to detect.
const KeyPlaceholder = "YOUR_API_KEY"

// Username/password placeholder pair emitted by generators for basic auth.
const (
	UsernamePlaceholder = "YOUR_USERNAME"
	PasswordPlaceholder = "YOUR_PASSWORD"
)

// SnippetLanguage identifies the source syntax a code snippet is written in.
type SnippetLanguage string

const (
	LangJavaScript SnippetLanguage = "javascript"
	LangPython     SnippetLanguage = "python"
	LangCurl       SnippetLanguage = "curl"
)

// ParseLanguage normalizes a user-supplied language name.
// Unknown values return "" and false.
func ParseLanguage(s string) (SnippetLanguage, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "javascript", "js", "fetch":
		return LangJavaScript, true
	case "python", "py", "requests":
		return LangPython, true
	case "curl", "bash", "sh", "shell":
		return LangCurl, true
	default:
		return "", false
	}
}

// Header is a single header key-value pair. Headers are kept as an ordered
// slice so the request is sent with the same header order the snippet used.
type Header struct {
	Name  string
	Value string
}

// Headers is an insertion-ordered header collection with case-insensitive lookup.
type Headers []Header

// Get returns the value for name (case-insensitive) and whether it was found.
func (hs Headers) Get(name string) (string, bool) {
	for _, h := range hs {
		if strings.EqualFold(h.Name, name) {
			return h.Value, true
		}
	}
	return "", false
}

// Set replaces the first header matching name (case-insensitive) or appends
// a new one, preserving the position of an existing entry.
func (hs *Headers) Set(name, value string) {
	for i, h := range *hs {
		if strings.EqualFold(h.Name, name) {
			(*hs)[i].Value = value
			return
		}
	}
	*hs = append(*hs, Header{Name: name, Value: value})
}

// Delete removes every header matching name (case-insensitive).
func (hs *Headers) Delete(name string) {
	out := (*hs)[:0]
	for _, h := range *hs {
		if !strings.EqualFold(h.Name, name) {
			out = append(out, h)
		}
	}
	*hs = out
}

// Map returns the headers as a plain map. Later duplicates win, matching how
// most HTTP clients collapse repeated header assignments.
func (hs Headers) Map() map[string]string {
	m := make(map[string]string, len(hs))
	for _, h := range hs {
		m[h.Name] = h.Value
	}
	return m
}

// Clone returns a deep copy so callers can rewrite headers without aliasing.
func (hs Headers) Clone() Headers {
	out := make(Headers, len(hs))
	copy(out, hs)
	return out
}

// Descriptor is the canonical structured form of one HTTP call extracted from
// a code snippet. It is created fresh per run, mutated only by the pipeline
// stages in sequence, and discarded when the run finishes.
type Descriptor struct {
	URL     string
	Method  string
	Headers Headers
	Body    string
	// SourceText preserves the full snippet the descriptor was extracted from.
	// The resolver re-scans it for variable declarations that the extracted
	// fragments lost when they were cut out of their lexical scope.
	SourceText string
	Language   SnippetLanguage
	// Fallback marks a descriptor synthesized because nothing recognizable was
	// found in the snippet. Callers must surface this instead of treating the
	// placeholder target as user intent.
	Fallback bool
}

// methodsWithoutBody per RFC semantics as enforced by the validator.
var methodsWithoutBody = map[string]struct{}{
	http.MethodGet:     {},
	http.MethodHead:    {},
	http.MethodDelete:  {},
	http.MethodOptions: {},
}

// AllowsBody reports whether the descriptor's method may carry a body.
func (d *Descriptor) AllowsBody() bool {
	_, no := methodsWithoutBody[strings.ToUpper(d.Method)]
	return !no
}

// Clone returns a deep copy of the descriptor.
func (d *Descriptor) Clone() *Descriptor {
	cp := *d
	cp.Headers = d.Headers.Clone()
	return &cp
}

// ValidMethods is the accepted HTTP method set, in canonical order.
var ValidMethods = []string{
	http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete,
	http.MethodPatch, http.MethodHead, http.MethodOptions,
}

// IsValidMethod reports whether m (upper-cased) is a supported HTTP method.
func IsValidMethod(m string) bool {
	m = strings.ToUpper(strings.TrimSpace(m))
	for _, v := range ValidMethods {
		if m == v {
			return true
		}
	}
	return false
}
