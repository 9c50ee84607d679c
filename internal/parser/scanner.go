package parser

import "strings"

// balancedAt returns the substring of s starting at open (inclusive) up to and
// including the bracket matching s[open]. Nesting is tracked with awareness of
// string literals: while a quote (', " or `) is open, brackets and other
// quote kinds are ordinary characters. Backslash escapes inside literals are
// honored. Returns ok=false when s[open] is not a bracket or the text ends
// before the match closes.
//
// Naive regex counting miscounts JSON bodies whose string values contain
// braces; this scanner is the replacement.
func balancedAt(s string, open int) (string, bool) {
	if open < 0 || open >= len(s) {
		return "", false
	}
	var closer byte
	switch s[open] {
	case '{':
		closer = '}'
	case '[':
		closer = ']'
	case '(':
		closer = ')'
	default:
		return "", false
	}
	opener := s[open]
	depth := 0
	var quote byte
	for i := open; i < len(s); i++ {
		c := s[i]
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
		case opener:
			depth++
		case closer:
			depth--
			if depth == 0 {
				return s[open : i+1], true
			}
		}
	}
	return "", false
}

// stringAt reads the quoted literal starting at i (s[i] must be ', " or `)
// and returns its unquoted content plus the index just past the closing
// quote. Escaped quotes stay part of the content with the backslash removed
// for \" \' and \` only; other escapes are kept verbatim.
func stringAt(s string, i int) (string, int, bool) {
	if i < 0 || i >= len(s) {
		return "", i, false
	}
	quote := s[i]
	if quote != '\'' && quote != '"' && quote != '`' {
		return "", i, false
	}
	var b strings.Builder
	for j := i + 1; j < len(s); j++ {
		c := s[j]
		if c == '\\' && j+1 < len(s) {
			next := s[j+1]
			if next == quote || next == '\\' {
				b.WriteByte(next)
				j++
				continue
			}
			b.WriteByte(c)
			continue
		}
		if c == quote {
			return b.String(), j + 1, true
		}
		b.WriteByte(c)
	}
	return "", i, false
}

// skipSpace returns the first index >= i whose byte is not whitespace.
func skipSpace(s string, i int) int {
	for i < len(s) && (s[i] == ' ' || s[i] == '\t' || s[i] == '\n' || s[i] == '\r') {
		i++
	}
	return i
}

// valueEnd returns the index just past a value expression starting at i,
// terminated by a top-level ',' or the given closer byte. Quotes and nested
// brackets are respected, so expressions like `'Basic ' + btoa(u + ':' + p)`
// or nested object literals survive intact.
func valueEnd(s string, i int, closer byte) int {
	depth := 0
	var quote byte
	for ; i < len(s); i++ {
		c := s[i]
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
		case '{', '[', '(':
			depth++
		case '}', ']', ')':
			if depth == 0 && c == closer {
				return i
			}
			depth--
		case ',':
			if depth == 0 {
				return i
			}
		}
	}
	return len(s)
}
