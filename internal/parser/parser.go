// Package parser turns generated code snippets (JavaScript fetch, Python
// requests, cURL) into request descriptors. Parsing never fails outright:
// when nothing recognizable is found a clearly-marked fallback descriptor is
// returned so the caller stays responsive and can tell the user that the
// snippet, not their request, was the problem.
package parser

import (
	"net/http"

	"github.com/loykin/snippetrun/internal/common"
	"github.com/loykin/snippetrun/internal/descriptor"
)

// FallbackURL is the placeholder target of a fallback descriptor. It is a
// reserved example domain, so a fallback that slips through validation can
// never reach a real service.
const FallbackURL = "https://api.example.invalid/unparsed"

// Parse extracts a request descriptor from snippet text in the given
// language. The returned descriptor has Fallback set when extraction failed;
// callers must check it and surface the failure rather than executing the
// placeholder as if it were user intent.
func Parse(text string, lang descriptor.SnippetLanguage) *descriptor.Descriptor {
	logger := common.GetLogger().WithComponent("parser")
	var d *descriptor.Descriptor
	var ok bool
	switch lang {
	case descriptor.LangJavaScript:
		d, ok = parseJSFetch(text)
	case descriptor.LangPython:
		d, ok = parsePyRequests(text)
	case descriptor.LangCurl:
		d, ok = parseCurl(text)
	}
	if !ok {
		logger.Warn("no recognizable request in snippet, using fallback descriptor", "language", string(lang))
		return fallback(text, lang)
	}
	if !descriptor.IsValidMethod(d.Method) {
		logger.Warn("snippet declared unsupported method", "method", d.Method)
	}
	logger.Debug("parsed snippet", "language", string(lang), "method", d.Method, "headers", len(d.Headers))
	return d
}

// FallbackError reports that parsing produced only a fallback descriptor.
type FallbackError struct {
	Language string
}

func (e *FallbackError) Error() string {
	return "no recognizable " + e.Language + " request found in snippet"
}

// fallback synthesizes the deterministic placeholder descriptor.
func fallback(text string, lang descriptor.SnippetLanguage) *descriptor.Descriptor {
	return &descriptor.Descriptor{
		URL:        FallbackURL,
		Method:     http.MethodGet,
		SourceText: text,
		Language:   lang,
		Fallback:   true,
	}
}
