package parser

import "strings"

// objectEntry is one key/value pair pulled out of an object or dict literal.
// Value is the raw source expression; Quoted reports whether it was a single
// string literal (in which case Value is the unquoted content).
type objectEntry struct {
	Key    string
	Value  string
	Quoted bool
}

// parseObjectEntries splits an object literal (outer braces included) into
// its top-level key/value pairs. Keys may be quoted strings or bare
// identifiers. Values are kept verbatim unless they are a single string
// literal; nested objects, calls and concatenation expressions survive as
// source text for later stages to interpret.
func parseObjectEntries(obj string) []objectEntry {
	obj = strings.TrimSpace(obj)
	if len(obj) < 2 || obj[0] != '{' {
		return nil
	}
	inner := obj[1 : len(obj)-1]
	var entries []objectEntry
	i := 0
	for i < len(inner) {
		i = skipSpace(inner, i)
		for i < len(inner) && (inner[i] == ',' || inner[i] == ';') {
			i = skipSpace(inner, i+1)
		}
		if i >= len(inner) {
			break
		}
		// Key
		var key string
		if inner[i] == '\'' || inner[i] == '"' || inner[i] == '`' {
			k, next, ok := stringAt(inner, i)
			if !ok {
				break
			}
			key = k
			i = next
		} else if isIdentByte(inner[i]) {
			j := i
			for j < len(inner) && (isIdentByte(inner[j]) || inner[j] == '-') {
				j++
			}
			key = inner[i:j]
			i = j
		} else {
			break
		}
		i = skipSpace(inner, i)
		if i >= len(inner) || inner[i] != ':' {
			break
		}
		i = skipSpace(inner, i+1)
		if i >= len(inner) {
			break
		}
		// Value
		end := valueEnd(inner, i, 0)
		raw := strings.TrimSpace(inner[i:end])
		entry := objectEntry{Key: key, Value: raw}
		if content, ok := wholeString(raw); ok {
			entry.Value = content
			entry.Quoted = true
		}
		entries = append(entries, entry)
		i = end
	}
	return entries
}

// wholeString reports whether raw is exactly one string literal and returns
// its content. Template literals count: their ${...} interpolations stay
// verbatim in the content for the resolver to substitute.
func wholeString(raw string) (string, bool) {
	if len(raw) < 2 {
		return "", false
	}
	c := raw[0]
	if c != '\'' && c != '"' && c != '`' {
		return "", false
	}
	content, next, ok := stringAt(raw, 0)
	if !ok || next != len(raw) {
		return "", false
	}
	return content, true
}
