// Package executor dispatches a validated descriptor through the backend
// relay. The third-party call is never made directly from the caller's
// context: the relay owns outbound traffic, allow-listing and server-side
// secrets, and sidesteps browser cross-origin restrictions. The heterogeneous
// upstream payload is normalized into a ResponseEnvelope.
package executor

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/loykin/snippetrun/internal/common"
	"github.com/loykin/snippetrun/internal/descriptor"
	"github.com/loykin/snippetrun/internal/httpc"
	"github.com/tidwall/gjson"
)

// ResponseEnvelope is the normalized shape of one upstream response.
type ResponseEnvelope struct {
	Status     int               `json:"status"`
	StatusText string            `json:"statusText"`
	Headers    map[string]string `json:"headers"`
	URL        string            `json:"url"`
	Data       any               `json:"data"`
}

// DataText renders the payload for logs and error bodies: strings verbatim,
// anything else re-marshalled. The body is never discarded.
func (r *ResponseEnvelope) DataText() string {
	switch d := r.Data.(type) {
	case nil:
		return ""
	case string:
		return d
	default:
		b, err := json.Marshal(d)
		if err != nil {
			return fmt.Sprintf("%v", d)
		}
		return string(b)
	}
}

// StatusError marks a transport-successful call whose upstream status is a
// failure (>= 400). The envelope keeps the actual status and body so errors
// surface the real upstream detail rather than a generic message.
type StatusError struct {
	Envelope *ResponseEnvelope
}

func (e *StatusError) Error() string {
	text := e.Envelope.DataText()
	if len(text) > 200 {
		text = text[:200] + "..."
	}
	return fmt.Sprintf("upstream returned status %d: %s", e.Envelope.Status, text)
}

// RelayError is a failure reported by the relay itself (non-2xx with an
// {error} payload), e.g. a blocked URL or missing server configuration.
type RelayError struct {
	Status  int
	Message string
}

func (e *RelayError) Error() string {
	return fmt.Sprintf("relay rejected request (%d): %s", e.Status, e.Message)
}

// proxyRequest is the POST /proxy-api wire shape.
type proxyRequest struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers,omitempty"`
	Body    string            `json:"body,omitempty"`
}

// DocsResult is the GET /proxy-docs passthrough result, used for display only.
type DocsResult struct {
	Status      int    `json:"status"`
	ContentType string `json:"content_type"`
	Content     string `json:"content"`
	URL         string `json:"url"`
	OK          bool   `json:"ok"`
}

// Executor sends descriptors to a relay instance.
type Executor struct {
	RelayURL  string
	TlsConfig *tls.Config

	client *resty.Client
}

// New returns an executor targeting the relay at base URL relayURL.
func New(relayURL string) *Executor {
	return &Executor{RelayURL: strings.TrimRight(relayURL, "/")}
}

func (e *Executor) httpClient() *resty.Client {
	if e.client == nil {
		h := httpc.Httpc{TlsConfig: e.TlsConfig}
		e.client = h.New()
	}
	return e.client
}

// Execute relays the descriptor and normalizes the reply. A non-nil envelope
// together with a StatusError means the transport succeeded but the upstream
// call failed. Once dispatched, a run either completes or fails; there is no
// mid-flight cancellation beyond the context the transport honors.
func (e *Executor) Execute(ctx context.Context, d *descriptor.Descriptor) (*ResponseEnvelope, error) {
	logger := common.GetLogger().WithComponent("executor").WithRequest(d.Method, common.MaskSensitiveData(d.URL))
	payload := proxyRequest{
		URL:     d.URL,
		Method:  strings.ToUpper(d.Method),
		Headers: d.Headers.Map(),
		Body:    d.Body,
	}

	resp, err := e.httpClient().R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(payload).
		Post(e.RelayURL + "/proxy-api")
	if err != nil {
		logger.Error("relay request failed", "error", err)
		return nil, fmt.Errorf("relay request failed: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		msg := gjson.GetBytes(body, "error").String()
		if msg == "" {
			msg = strings.TrimSpace(string(body))
		}
		logger.Warn("relay rejected request", "status", resp.StatusCode(), "error", msg)
		return nil, &RelayError{Status: resp.StatusCode(), Message: msg}
	}

	env := &ResponseEnvelope{}
	if err := json.Unmarshal(body, env); err != nil {
		return nil, fmt.Errorf("malformed relay response: %w", err)
	}
	if env.URL == "" {
		env.URL = d.URL
	}
	logger.Debug("upstream response", "status", env.Status)

	if env.Status >= 400 {
		return env, &StatusError{Envelope: env}
	}
	return env, nil
}

// FetchDocs relays GET /proxy-docs for external documentation display. The
// content is returned even for non-2xx upstream statuses; OK tells the
// caller how to render it.
func (e *Executor) FetchDocs(ctx context.Context, docURL string) (*DocsResult, error) {
	resp, err := e.httpClient().R().
		SetContext(ctx).
		SetQueryParam("url", docURL).
		Get(e.RelayURL + "/proxy-docs")
	if err != nil {
		return nil, fmt.Errorf("docs fetch failed: %w", err)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		msg := gjson.GetBytes(resp.Body(), "error").String()
		return nil, &RelayError{Status: resp.StatusCode(), Message: msg}
	}
	out := &DocsResult{}
	if err := json.Unmarshal(resp.Body(), out); err != nil {
		return nil, fmt.Errorf("malformed docs response: %w", err)
	}
	return out, nil
}
