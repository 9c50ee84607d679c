package parser

import (
	"bytes"
	"encoding/json"
	"strings"
)

// objectToJSON normalizes a JS/Python object or dict literal into JSON text:
// single-quoted and backtick strings become double-quoted, bare identifier
// keys are quoted, and Python's True/False/None map to their JSON spellings.
// Anything it cannot normalize (e.g. a bare variable reference in value
// position) is copied verbatim so validation can flag it instead of losing it.
func objectToJSON(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	i := 0
	// lastSig tracks the previous significant byte to detect key position.
	var lastSig byte
	for i < len(s) {
		c := s[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			content, next, ok := stringAt(s, i)
			if !ok {
				b.WriteByte(c)
				i++
				continue
			}
			enc, err := json.Marshal(content)
			if err != nil {
				b.WriteString(s[i:next])
			} else {
				b.Write(enc)
			}
			i = next
			lastSig = '"'
		case isIdentByte(c):
			j := i
			for j < len(s) && isIdentByte(s[j]) {
				j++
			}
			word := s[i:j]
			switch word {
			case "True":
				b.WriteString("true")
			case "False":
				b.WriteString("false")
			case "None":
				b.WriteString("null")
			default:
				if keyPosition(lastSig) && nextSig(s, j) == ':' {
					b.WriteByte('"')
					b.WriteString(word)
					b.WriteByte('"')
				} else {
					b.WriteString(word)
				}
			}
			i = j
			lastSig = 'a'
		default:
			b.WriteByte(c)
			if c != ' ' && c != '\t' && c != '\n' && c != '\r' {
				lastSig = c
			}
			i++
		}
	}
	out := b.String()
	// Successful conversions are compacted into canonical JSON; partial ones
	// keep their original spacing.
	if json.Valid([]byte(out)) {
		var buf bytes.Buffer
		if err := json.Compact(&buf, []byte(out)); err == nil {
			return buf.String()
		}
	}
	return out
}

func isIdentByte(c byte) bool {
	return c == '_' || c == '$' ||
		(c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || (c >= '0' && c <= '9')
}

func keyPosition(lastSig byte) bool {
	return lastSig == '{' || lastSig == ',' || lastSig == 0
}

func nextSig(s string, i int) byte {
	i = skipSpace(s, i)
	if i < len(s) {
		return s[i]
	}
	return 0
}
