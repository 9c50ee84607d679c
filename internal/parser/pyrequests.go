package parser

import (
	"regexp"
	"strings"

	"github.com/loykin/snippetrun/internal/descriptor"
)

var pyCallRe = regexp.MustCompile(`requests\.(get|post|put|delete|patch|head|options)\s*\(`)

// parsePyRequests extracts a request from the first requests.<verb>(...) call.
// The verb gives the method; positional and keyword arguments supply URL,
// headers and body. An f-string URL has its {expr} interpolations rewritten
// to ${expr} so the resolver works with one canonical syntax.
func parsePyRequests(text string) (*descriptor.Descriptor, bool) {
	m := pyCallRe.FindStringSubmatchIndex(text)
	if m == nil {
		return nil, false
	}
	verb := text[m[2]:m[3]]
	open := m[1] - 1
	call, ok := balancedAt(text, open)
	if !ok || len(call) < 2 {
		return nil, false
	}
	args := splitArgs(call[1 : len(call)-1])
	if len(args) == 0 {
		return nil, false
	}

	d := &descriptor.Descriptor{
		Method:     strings.ToUpper(verb),
		SourceText: text,
		Language:   descriptor.LangPython,
	}

	for pos, arg := range args {
		name, value := keywordArg(arg)
		if name == "" {
			if pos == 0 {
				d.URL = pyStringValue(value)
			}
			continue
		}
		switch name {
		case "url":
			d.URL = pyStringValue(value)
		case "headers":
			if strings.HasPrefix(value, "{") {
				for _, h := range parseObjectEntries(value) {
					d.Headers.Set(h.Key, h.Value)
				}
			}
		case "json":
			if strings.HasPrefix(value, "{") || strings.HasPrefix(value, "[") {
				d.Body = objectToJSON(value)
			} else if content, ok := wholeString(value); ok {
				d.Body = content
			} else {
				d.Body = value
			}
		case "data":
			if content, ok := wholeString(value); ok {
				d.Body = content
			} else {
				d.Body = value
			}
		case "auth":
			if u, p, ok := pyAuthTuple(value); ok {
				d.Headers.Set("Authorization", u+":"+p)
			}
		}
	}
	if strings.TrimSpace(d.URL) == "" {
		return nil, false
	}
	return d, true
}

// splitArgs divides a call argument list at top-level commas.
func splitArgs(inner string) []string {
	var args []string
	i := 0
	for i < len(inner) {
		end := valueEnd(inner, i, 0)
		arg := strings.TrimSpace(inner[i:end])
		if arg != "" {
			args = append(args, arg)
		}
		i = end + 1
	}
	return args
}

// keywordArg splits "name=value" at a top-level '=' that is not part of ==.
// A positional argument returns name "".
func keywordArg(arg string) (string, string) {
	var quote byte
	depth := 0
	for i := 0; i < len(arg); i++ {
		c := arg[i]
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
		case '\'', '"':
			quote = c
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
		case '=':
			if depth == 0 && (i+1 >= len(arg) || arg[i+1] != '=') && (i == 0 || arg[i-1] != '!' && arg[i-1] != '<' && arg[i-1] != '>') {
				return strings.TrimSpace(arg[:i]), strings.TrimSpace(arg[i+1:])
			}
		}
	}
	return "", arg
}

// pyStringValue unquotes a Python string literal. f-strings convert their
// {expr} parts to ${expr}; other expressions are returned verbatim.
func pyStringValue(value string) string {
	value = strings.TrimSpace(value)
	fstring := false
	if len(value) > 1 && (value[0] == 'f' || value[0] == 'F') && (value[1] == '\'' || value[1] == '"') {
		fstring = true
		value = value[1:]
	}
	content, ok := wholeString(value)
	if !ok {
		return value
	}
	if fstring {
		return fstringToTemplate(content)
	}
	return content
}

var fstringExprRe = regexp.MustCompile(`\{([^{}]+)\}`)

func fstringToTemplate(s string) string {
	// {{ and }} are literal braces in f-strings.
	s = strings.ReplaceAll(s, "{{", "\x00")
	s = strings.ReplaceAll(s, "}}", "\x01")
	s = fstringExprRe.ReplaceAllString(s, "${$1}")
	s = strings.ReplaceAll(s, "\x00", "{")
	return strings.ReplaceAll(s, "\x01", "}")
}

// pyAuthTuple reads auth=('user', 'pass').
func pyAuthTuple(value string) (string, string, bool) {
	value = strings.TrimSpace(value)
	if !strings.HasPrefix(value, "(") {
		return "", "", false
	}
	tuple, ok := balancedAt(value, 0)
	if !ok || len(tuple) < 2 {
		return "", "", false
	}
	parts := splitArgs(tuple[1 : len(tuple)-1])
	if len(parts) != 2 {
		return "", "", false
	}
	u, okU := wholeString(parts[0])
	p, okP := wholeString(parts[1])
	if !okU || !okP {
		return "", "", false
	}
	return u, p, true
}
