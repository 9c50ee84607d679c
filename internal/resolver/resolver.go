// Package resolver substitutes interpolation expressions captured verbatim by
// the parser. The extracted URL and header fragments have lost their lexical
// scope, so resolution re-scans the original snippet text for matching
// variable declarations and splices in their literal values. Expressions that
// cannot be resolved are left verbatim, never dropped, so validation and
// execution can flag them explicitly.
package resolver

import (
	"net/url"
	"regexp"
	"strings"

	"github.com/loykin/snippetrun/internal/common"
	"github.com/loykin/snippetrun/internal/descriptor"
)

var interpRe = regexp.MustCompile(`\$\{([^{}]*)\}`)

// Resolve rewrites ${...} interpolations in the descriptor's URL and header
// values, and normalizes credential-named identifiers to the canonical
// placeholder token. The descriptor is modified in place.
func Resolve(d *descriptor.Descriptor) {
	logger := common.GetLogger().WithComponent("resolver")
	d.URL = resolveString(d.URL, d.SourceText)
	for i, h := range d.Headers {
		d.Headers[i].Value = resolveHeaderValue(h.Value, d.SourceText)
	}
	if interpRe.MatchString(d.URL) {
		logger.Warn("url still contains unresolved interpolation", "url", common.MaskSensitiveData(d.URL))
	}
}

// resolveString substitutes each ${expr} whose expression resolves; the rest
// stay verbatim.
func resolveString(s, source string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return interpRe.ReplaceAllStringFunc(s, func(m string) string {
		expr := m[2 : len(m)-1]
		if v, ok := resolveExpr(expr, source); ok {
			return v
		}
		return m
	})
}

// resolveHeaderValue handles header values that are whole expressions rather
// than interpolated strings: a bare credential-named identifier or a
// concatenation like 'Bearer ' + apiKey. Plain values pass through untouched.
func resolveHeaderValue(v, source string) string {
	raw := strings.TrimSpace(v)
	if isIdentifier(raw) {
		if credentialName(raw) {
			return descriptor.KeyPlaceholder
		}
		return resolveString(v, source)
	}
	if looksLikeConcat(raw) {
		if resolved, ok := resolveExpr(raw, source); ok {
			return resolved
		}
	}
	return resolveString(v, source)
}

// resolveExpr resolves one expression against the snippet source. Supported
// forms: string literals, identifiers (declared in source, or credential-named
// and normalized), top-level + concatenation of supported forms, and an
// encodeURIComponent(x) wrapper applied after resolving x.
func resolveExpr(expr, source string) (string, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return "", false
	}
	if inner, ok := callArg(expr, "encodeURIComponent"); ok {
		v, ok := resolveExpr(inner, source)
		if !ok {
			return "", false
		}
		return url.QueryEscape(v), true
	}
	if len(expr) >= 2 {
		if q := expr[0]; (q == '\'' || q == '"' || q == '`') && expr[len(expr)-1] == q {
			return expr[1 : len(expr)-1], true
		}
	}
	if parts := splitConcat(expr); len(parts) > 1 {
		var b strings.Builder
		for _, p := range parts {
			v, ok := resolveExpr(p, source)
			if !ok {
				return "", false
			}
			b.WriteString(v)
		}
		return b.String(), true
	}
	if isIdentifier(expr) {
		if credentialName(expr) {
			return descriptor.KeyPlaceholder, true
		}
		return lookupDeclaration(expr, source)
	}
	return "", false
}

var identRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*$`)

func isIdentifier(s string) bool { return identRe.MatchString(s) }

// credentialName reports whether an identifier denotes an API key: its name
// contains both "api" and "key" in any casing.
func credentialName(name string) bool {
	lower := strings.ToLower(name)
	return strings.Contains(lower, "api") && strings.Contains(lower, "key")
}

// lookupDeclaration finds a literal declaration of name in the snippet text.
// JS const/let/var declarations and Python-style assignments are recognized;
// only plain string literals qualify.
func lookupDeclaration(name, source string) (string, bool) {
	// Go's regexp has no backreferences, so each quote style gets its own
	// pattern instead of a (['"`])...\1 pair.
	q := regexp.QuoteMeta(name)
	var patterns []string
	for _, quote := range []string{`'`, `"`, "`"} {
		lit := quote + `((?:\\.|[^\\` + quote + `])*)` + quote
		patterns = append(patterns, `(?m)(?:const|let|var)\s+`+q+`\s*=\s*`+lit)
		if quote != "`" {
			patterns = append(patterns, `(?m)^\s*`+q+`\s*=\s*f?`+lit)
		}
	}
	for _, p := range patterns {
		re, err := regexp.Compile(p)
		if err != nil {
			continue
		}
		if m := re.FindStringSubmatch(source); m != nil {
			return m[1], true
		}
	}
	return "", false
}

// callArg returns the inner argument text when expr is fn( ... ).
func callArg(expr, fn string) (string, bool) {
	if !strings.HasPrefix(expr, fn) {
		return "", false
	}
	rest := strings.TrimSpace(expr[len(fn):])
	if len(rest) < 2 || rest[0] != '(' || rest[len(rest)-1] != ')' {
		return "", false
	}
	return strings.TrimSpace(rest[1 : len(rest)-1]), true
}

// splitConcat splits an expression at top-level + signs, respecting quotes
// and parentheses. A single-element result means there was nothing to split.
func splitConcat(expr string) []string {
	var parts []string
	depth := 0
	var quote byte
	start := 0
	for i := 0; i < len(expr); i++ {
		c := expr[i]
		if quote != 0 {
			if c == '\\' {
				i++
				continue
			}
			if c == quote {
				quote = 0
			}
			continue
		}
		switch c {
		case '\'', '"', '`':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '+':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(expr[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(expr[start:]))
	return parts
}

func looksLikeConcat(s string) bool {
	return strings.ContainsAny(s, `'"`+"`") && len(splitConcat(s)) > 1
}
