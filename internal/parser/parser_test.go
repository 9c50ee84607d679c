package parser

import (
	"strings"
	"testing"

	"github.com/loykin/snippetrun/internal/descriptor"
)

func TestParseJSFetchGetDefaults(t *testing.T) {
	d := Parse(`fetch('https://api.example.com/v1/users')`, descriptor.LangJavaScript)
	if d.Fallback {
		t.Fatalf("expected parsed descriptor, got fallback")
	}
	if d.URL != "https://api.example.com/v1/users" {
		t.Fatalf("unexpected url: %q", d.URL)
	}
	if d.Method != "GET" {
		t.Fatalf("expected default GET, got %q", d.Method)
	}
}

func TestParseJSFetchPostWithStringifyBody(t *testing.T) {
	snippet := `fetch("https://api.example.com/v1/orders", {
  method: "POST",
  headers: {
    "Content-Type": "application/json",
    "Authorization": "Bearer YOUR_API_KEY"
  },
  body: JSON.stringify({ a: 1 })
})`
	d := Parse(snippet, descriptor.LangJavaScript)
	if d.Fallback {
		t.Fatalf("expected parsed descriptor, got fallback")
	}
	if d.Method != "POST" {
		t.Fatalf("expected POST, got %q", d.Method)
	}
	if got, _ := d.Headers.Get("Content-Type"); got != "application/json" {
		t.Fatalf("unexpected content type: %q", got)
	}
	if got, _ := d.Headers.Get("Authorization"); got != "Bearer YOUR_API_KEY" {
		t.Fatalf("unexpected authorization: %q", got)
	}
	if d.Body != `{"a":1}` {
		t.Fatalf("unexpected body: %q", d.Body)
	}
}

func TestParseJSFetchTemplateLiteralURL(t *testing.T) {
	snippet := "const base = 'https://api.example.com';\nfetch(`${base}/v1/items?q=${query}`)"
	d := Parse(snippet, descriptor.LangJavaScript)
	if d.Fallback {
		t.Fatalf("expected parsed descriptor, got fallback")
	}
	// Interpolations stay verbatim for the resolver.
	if d.URL != "${base}/v1/items?q=${query}" {
		t.Fatalf("unexpected url: %q", d.URL)
	}
}

func TestParseJSFetchCommaInsideURL(t *testing.T) {
	snippet := `fetch('https://api.example.com/v1/search?tags=a,b', { method: 'GET' })`
	d := Parse(snippet, descriptor.LangJavaScript)
	if d.URL != "https://api.example.com/v1/search?tags=a,b" {
		t.Fatalf("comma inside quoted url was split: %q", d.URL)
	}
}

func TestParsePyRequestsJSONKwarg(t *testing.T) {
	snippet := `import requests

response = requests.post(
    "https://api.example.com/v1/orders",
    headers={"Content-Type": "application/json"},
    json={"name": "widget", "count": 2, "active": True},
)`
	d := Parse(snippet, descriptor.LangPython)
	if d.Fallback {
		t.Fatalf("expected parsed descriptor, got fallback")
	}
	if d.Method != "POST" {
		t.Fatalf("expected POST, got %q", d.Method)
	}
	if !strings.Contains(d.Body, `"name":"widget"`) || !strings.Contains(d.Body, `"active":true`) {
		t.Fatalf("python literals not converted to JSON: %q", d.Body)
	}
}

func TestParsePyRequestsFStringURL(t *testing.T) {
	snippet := `city = "paris"
response = requests.get(f"https://api.example.com/v1/weather/{city}")`
	d := Parse(snippet, descriptor.LangPython)
	if d.URL != "https://api.example.com/v1/weather/${city}" {
		t.Fatalf("f-string interpolation not canonicalized: %q", d.URL)
	}
}

func TestParsePyRequestsAuthTuple(t *testing.T) {
	snippet := `requests.get("https://api.example.com/v1/me", auth=('alice', 's3cret'))`
	d := Parse(snippet, descriptor.LangPython)
	if got, _ := d.Headers.Get("Authorization"); got != "alice:s3cret" {
		t.Fatalf("auth tuple not captured: %q", got)
	}
}

func TestParseCurlImplicitPost(t *testing.T) {
	snippet := `curl https://api.example.com/v1/orders \
  -H "Content-Type: application/json" \
  -H "Authorization: Bearer YOUR_API_KEY" \
  -d '{"name": "widget"}'`
	d := Parse(snippet, descriptor.LangCurl)
	if d.Fallback {
		t.Fatalf("expected parsed descriptor, got fallback")
	}
	if d.Method != "POST" {
		t.Fatalf("-d without -X should imply POST, got %q", d.Method)
	}
	if d.Body != `{"name": "widget"}` {
		t.Fatalf("unexpected body: %q", d.Body)
	}
	if got, _ := d.Headers.Get("Authorization"); got != "Bearer YOUR_API_KEY" {
		t.Fatalf("unexpected authorization: %q", got)
	}
}

func TestParseCurlExplicitMethodAndUser(t *testing.T) {
	snippet := `curl -X PUT -u alice:s3cret https://api.example.com/v1/items/7`
	d := Parse(snippet, descriptor.LangCurl)
	if d.Method != "PUT" {
		t.Fatalf("expected PUT, got %q", d.Method)
	}
	if d.URL != "https://api.example.com/v1/items/7" {
		t.Fatalf("unexpected url: %q", d.URL)
	}
	if got, _ := d.Headers.Get("Authorization"); got != "alice:s3cret" {
		t.Fatalf("-u pair not captured: %q", got)
	}
}

func TestParseFallback(t *testing.T) {
	for _, lang := range []descriptor.SnippetLanguage{
		descriptor.LangJavaScript, descriptor.LangPython, descriptor.LangCurl,
	} {
		d := Parse("this is not a request at all", lang)
		if !d.Fallback {
			t.Fatalf("%s: expected fallback", lang)
		}
		if d.URL != FallbackURL {
			t.Fatalf("%s: unexpected fallback url %q", lang, d.URL)
		}
		if d.Method != "GET" {
			t.Fatalf("%s: fallback method should be GET, got %q", lang, d.Method)
		}
		if d.SourceText != "this is not a request at all" {
			t.Fatalf("%s: fallback must keep source text", lang)
		}
	}
}

func TestShellTokensQuoting(t *testing.T) {
	tokens := shellTokens(`curl -H 'X-Note: a b' -d "{\"k\": \"v\"}" https://e.com`)
	want := []string{"curl", "-H", "X-Note: a b", "-d", `{"k": "v"}`, "https://e.com"}
	if len(tokens) != len(want) {
		t.Fatalf("token count %d, want %d: %v", len(tokens), len(want), tokens)
	}
	for i := range want {
		if tokens[i] != want[i] {
			t.Fatalf("token %d = %q, want %q", i, tokens[i], want[i])
		}
	}
}

func TestObjectToJSONNestedAndBareKeys(t *testing.T) {
	got := objectToJSON(`{ name: 'a', nested: { flag: True, nothing: None } }`)
	if !strings.Contains(got, `"name":"a"`) {
		t.Fatalf("bare key not quoted: %q", got)
	}
	if !strings.Contains(got, `"flag":true`) || !strings.Contains(got, `"nothing":null`) {
		t.Fatalf("python constants not converted: %q", got)
	}
}

func FuzzParseNeverPanics(f *testing.F) {
	f.Add("fetch('https://a.example')", 0)
	f.Add(`requests.get("https://a.example", params={"x": 1})`, 1)
	f.Add("curl -X POST https://a.example -d '{}'", 2)
	f.Add("fetch(`${", 0)
	f.Add(`curl "unterminated`, 2)
	f.Fuzz(func(t *testing.T, text string, langIdx int) {
		langs := []descriptor.SnippetLanguage{
			descriptor.LangJavaScript, descriptor.LangPython, descriptor.LangCurl,
		}
		lang := langs[((langIdx%3)+3)%3]
		d := Parse(text, lang)
		if d == nil {
			t.Fatalf("Parse returned nil descriptor")
		}
		if !d.Fallback && strings.TrimSpace(d.URL) == "" {
			t.Fatalf("non-fallback descriptor with empty url")
		}
	})
}
