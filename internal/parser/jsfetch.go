package parser

import (
	"net/http"
	"strings"

	"github.com/loykin/snippetrun/internal/descriptor"
)

// parseJSFetch extracts a request from the first fetch(...) call in text.
// It recognizes the three literal quoting styles for the URL (including
// template literals, whose ${...} parts stay verbatim for the resolver) and
// pulls method, headers and body out of the sibling options object with the
// string-literal-aware scanner.
func parseJSFetch(text string) (*descriptor.Descriptor, bool) {
	idx := strings.Index(text, "fetch(")
	if idx < 0 {
		return nil, false
	}
	i := skipSpace(text, idx+len("fetch("))
	if i >= len(text) {
		return nil, false
	}
	rawURL, next, ok := stringAt(text, i)
	if !ok || strings.TrimSpace(rawURL) == "" {
		return nil, false
	}
	d := &descriptor.Descriptor{
		URL:        strings.TrimSpace(rawURL),
		Method:     http.MethodGet,
		SourceText: text,
		Language:   descriptor.LangJavaScript,
	}

	// Optional second argument: the options object.
	i = skipSpace(text, next)
	if i < len(text) && text[i] == ',' {
		i = skipSpace(text, i+1)
		if i < len(text) && text[i] == '{' {
			if opts, ok := balancedAt(text, i); ok {
				applyFetchOptions(d, opts)
			}
		}
	}
	return d, true
}

func applyFetchOptions(d *descriptor.Descriptor, opts string) {
	for _, e := range parseObjectEntries(opts) {
		switch strings.ToLower(e.Key) {
		case "method":
			if e.Quoted && strings.TrimSpace(e.Value) != "" {
				d.Method = strings.ToUpper(strings.TrimSpace(e.Value))
			}
		case "headers":
			if strings.HasPrefix(strings.TrimSpace(e.Value), "{") {
				for _, h := range parseObjectEntries(strings.TrimSpace(e.Value)) {
					d.Headers.Set(h.Key, h.Value)
				}
			}
		case "body":
			d.Body = fetchBody(e)
		}
	}
}

// fetchBody normalizes the body option. JSON.stringify(obj) unwraps to the
// object literal converted to JSON; string literals keep their content; a
// bare object literal is converted directly. Anything else (a variable
// reference, FormData, ...) stays verbatim so validation reports it rather
// than silently dropping it.
func fetchBody(e objectEntry) string {
	if e.Quoted {
		return e.Value
	}
	raw := strings.TrimSpace(e.Value)
	if arg, ok := callArgument(raw, "JSON.stringify"); ok {
		arg = strings.TrimSpace(arg)
		if content, ok := wholeString(arg); ok {
			return content
		}
		if strings.HasPrefix(arg, "{") || strings.HasPrefix(arg, "[") {
			return objectToJSON(arg)
		}
		return arg
	}
	if strings.HasPrefix(raw, "{") || strings.HasPrefix(raw, "[") {
		return objectToJSON(raw)
	}
	return raw
}

// callArgument returns the argument list source of fn(...) when raw is a
// call to fn, without the surrounding parentheses.
func callArgument(raw, fn string) (string, bool) {
	if !strings.HasPrefix(raw, fn) {
		return "", false
	}
	i := skipSpace(raw, len(fn))
	if i >= len(raw) || raw[i] != '(' {
		return "", false
	}
	inner, ok := balancedAt(raw, i)
	if !ok || len(inner) < 2 {
		return "", false
	}
	return inner[1 : len(inner)-1], true
}
