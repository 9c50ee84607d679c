package parser

import (
	"net/http"
	"strings"

	"github.com/loykin/snippetrun/internal/descriptor"
)

// parseCurl extracts a request from a curl command line. The first bare or
// quoted non-flag token after "curl" is the URL; -X selects the method,
// repeated -H headers accumulate in order, -d supplies the body. A -d body
// without an explicit -X implies POST, matching curl itself.
func parseCurl(text string) (*descriptor.Descriptor, bool) {
	tokens := shellTokens(text)
	start := -1
	for i, t := range tokens {
		if t == "curl" {
			start = i + 1
			break
		}
	}
	if start < 0 {
		return nil, false
	}

	d := &descriptor.Descriptor{
		SourceText: text,
		Language:   descriptor.LangCurl,
	}
	explicitMethod := false
	for i := start; i < len(tokens); i++ {
		t := tokens[i]
		switch t {
		case "-X", "--request":
			if i+1 < len(tokens) {
				d.Method = strings.ToUpper(tokens[i+1])
				explicitMethod = true
				i++
			}
		case "-H", "--header":
			if i+1 < len(tokens) {
				if name, value, ok := splitHeaderLine(tokens[i+1]); ok {
					d.Headers.Set(name, value)
				}
				i++
			}
		case "-d", "--data", "--data-raw", "--data-binary":
			if i+1 < len(tokens) {
				d.Body = tokens[i+1]
				i++
			}
		case "-u", "--user":
			// curl's basic-auth shorthand; kept as the literal pair so the
			// injector can rewrite it per the selected auth mode.
			if i+1 < len(tokens) {
				d.Headers.Set("Authorization", tokens[i+1])
				i++
			}
		default:
			if strings.HasPrefix(t, "-") {
				continue
			}
			if d.URL == "" {
				d.URL = t
			}
		}
	}
	if strings.TrimSpace(d.URL) == "" {
		return nil, false
	}
	if d.Method == "" {
		if !explicitMethod && d.Body != "" {
			d.Method = http.MethodPost
		} else {
			d.Method = http.MethodGet
		}
	}
	return d, true
}

// shellTokens splits a command line on whitespace with single/double quote
// grouping and backslash line continuations. It is deliberately narrow: just
// enough shell for the curl invocations the generator emits.
func shellTokens(s string) []string {
	var tokens []string
	var b strings.Builder
	var quote byte
	inToken := false
	flush := func() {
		if inToken {
			tokens = append(tokens, b.String())
			b.Reset()
			inToken = false
		}
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if quote != 0 {
			if c == quote {
				quote = 0
				continue
			}
			if c == '\\' && quote == '"' && i+1 < len(s) && (s[i+1] == '"' || s[i+1] == '\\') {
				i++
				b.WriteByte(s[i])
				continue
			}
			b.WriteByte(c)
			continue
		}
		switch c {
		case '\'', '"':
			quote = c
			inToken = true
		case '\\':
			// Line continuation; otherwise an escaped literal byte.
			if i+1 < len(s) && (s[i+1] == '\n' || s[i+1] == '\r') {
				flush()
				i++
				continue
			}
			if i+1 < len(s) {
				i++
				b.WriteByte(s[i])
				inToken = true
			}
		case ' ', '\t', '\n', '\r':
			flush()
		default:
			b.WriteByte(c)
			inToken = true
		}
	}
	flush()
	return tokens
}

// splitHeaderLine splits "Name: value" at the first colon.
func splitHeaderLine(line string) (string, string, bool) {
	idx := strings.IndexByte(line, ':')
	if idx <= 0 {
		return "", "", false
	}
	name := strings.TrimSpace(line[:idx])
	value := strings.TrimSpace(line[idx+1:])
	if name == "" {
		return "", "", false
	}
	return name, value, true
}
