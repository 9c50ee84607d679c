// Package relay implements the backend proxy that performs the actual
// upstream calls. It exists so the client never talks to third-party APIs
// directly: the relay enforces SSRF protection, header and size limits,
// per-client rate limiting, and injects server-held credentials for
// configured hosts.
package relay

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-resty/resty/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/loykin/snippetrun/internal/authinject"
	"github.com/loykin/snippetrun/internal/common"
	"github.com/loykin/snippetrun/internal/descriptor"
	"github.com/loykin/snippetrun/internal/httpc"
)

const requestIDHeader = "X-Request-ID"

// proxyPayload is the POST /proxy-api request body. Body accepts either a
// string or a JSON object; objects are re-serialized before forwarding.
type proxyPayload struct {
	URL     string            `json:"url"`
	Method  string            `json:"method"`
	Headers map[string]string `json:"headers"`
	Body    any               `json:"body"`
}

func (p *proxyPayload) bodyString() (string, error) {
	switch b := p.Body.(type) {
	case nil:
		return "", nil
	case string:
		return b, nil
	default:
		raw, err := json.Marshal(b)
		if err != nil {
			return "", err
		}
		return string(raw), nil
	}
}

// Server is the relay HTTP server.
type Server struct {
	cfg      Config
	engine   *gin.Engine
	limiter  *limiterRegistry
	client   *resty.Client
	logger   *common.Logger
	upstream time.Duration
}

// NewServer builds a relay from cfg. The returned server is ready to run or
// to serve individual requests through Handler (used by tests).
func NewServer(cfg Config) *Server {
	cfg = cfg.withDefaults()
	h := httpc.Httpc{}
	s := &Server{
		cfg:      cfg,
		limiter:  newLimiterRegistry(cfg.RatePerMinute),
		client:   h.New(),
		logger:   common.GetLogger().WithComponent("relay"),
		upstream: 30 * time.Second,
	}
	s.client.SetTimeout(s.upstream)

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.Use(s.requestID())
	engine.Use(s.authenticate())
	engine.Use(s.rateLimit())
	engine.POST("/proxy-api", s.handleProxyAPI)
	engine.GET("/proxy-docs", s.handleProxyDocs)
	engine.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	s.engine = engine
	return s
}

// Handler exposes the underlying handler for tests and embedding.
func (s *Server) Handler() http.Handler { return s.engine }

// Run serves until the listener fails.
func (s *Server) Run() error {
	s.logger.Info("relay listening", "addr", s.cfg.Addr, "dev_mode", s.cfg.DevMode)
	return s.engine.Run(s.cfg.Addr)
}

// requestID assigns each request an id, echoed in the response header and
// attached to log lines. Client-supplied ids are kept so a caller can
// correlate retries.
func (s *Server) requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// authenticate admits requests carrying a configured API key or a valid
// HS256 bearer token. With no keys and no JWT secret configured the relay
// is open, which is the local-development default.
func (s *Server) authenticate() gin.HandlerFunc {
	open := len(s.cfg.APIKeys) == 0 && s.cfg.JWTSecret == ""
	keys := make(map[string]struct{}, len(s.cfg.APIKeys))
	for _, k := range s.cfg.APIKeys {
		keys[k] = struct{}{}
	}
	return func(c *gin.Context) {
		if open {
			c.Next()
			return
		}
		if key := c.GetHeader("X-API-Key"); key != "" {
			if _, ok := keys[key]; ok {
				c.Set("client_key", key)
				c.Next()
				return
			}
		}
		if s.cfg.JWTSecret != "" {
			raw := strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
			if raw != "" && raw != c.GetHeader("Authorization") {
				token, err := jwt.Parse(raw, func(t *jwt.Token) (any, error) {
					return []byte(s.cfg.JWTSecret), nil
				}, jwt.WithValidMethods([]string{"HS256"}))
				if err == nil && token.Valid {
					if sub, _ := token.Claims.GetSubject(); sub != "" {
						c.Set("client_key", "jwt:"+sub)
					} else {
						c.Set("client_key", "jwt")
					}
					c.Next()
					return
				}
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
	}
}

// rateLimit applies the per-client token bucket, keyed by the authenticated
// client key or, for open relays, the client IP.
func (s *Server) rateLimit() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := c.GetString("client_key")
		if key == "" {
			key = c.ClientIP()
		}
		if !s.limiter.allow(key) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"retry_after": 60,
			})
			return
		}
		c.Next()
	}
}

// fail writes a relay error payload carrying the request id.
func fail(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg, "request_id": c.GetString("request_id")})
}

func (s *Server) handleProxyAPI(c *gin.Context) {
	requestID := c.GetString("request_id")
	logger := s.logger.WithRequestID(requestID)

	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.cfg.MaxBodyBytes)
	var payload proxyPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		if strings.Contains(err.Error(), "request body too large") {
			fail(c, http.StatusRequestEntityTooLarge, "Request body too large")
			return
		}
		fail(c, http.StatusBadRequest, "Invalid JSON payload: "+err.Error())
		return
	}

	method := strings.ToUpper(payload.Method)
	if method == "" {
		method = "GET"
	}
	if !descriptor.IsValidMethod(method) {
		fail(c, http.StatusBadRequest, fmt.Sprintf("Unsupported HTTP method: %s", payload.Method))
		return
	}

	if ok, msg := checkURLSafety(payload.URL); !ok {
		if !(s.cfg.DevMode && isLocalhostURL(payload.URL)) {
			logger.Warn("blocked unsafe url", "url", common.MaskSensitiveData(payload.URL), "reason", msg)
			fail(c, http.StatusForbidden, msg)
			return
		}
	}
	if ok, msg := checkHeaders(payload.Headers); !ok {
		fail(c, http.StatusBadRequest, msg)
		return
	}

	headers := s.injectServiceKeys(payload.URL, payload.Headers)
	body, err := payload.bodyString()
	if err != nil {
		fail(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	logger.Info("proxying request", "method", method,
		"url", common.MaskSensitiveData(payload.URL))

	req := s.client.R().
		SetContext(c.Request.Context()).
		SetHeaders(headers).
		SetHeader(requestIDHeader, requestID)
	if body != "" {
		req.SetBody(body)
	}
	resp, err := req.Execute(method, payload.URL)
	if err != nil {
		logger.Warn("upstream request failed", "error", err)
		fail(c, http.StatusBadGateway, fmt.Sprintf("Upstream request failed: %v", err))
		return
	}

	c.JSON(http.StatusOK, normalizeResponse(resp, payload.URL))
}

// normalizeResponse flattens an upstream response into the envelope shape the
// executor expects: JSON payloads are parsed, anything else is passed through
// as text.
func normalizeResponse(resp *resty.Response, target string) gin.H {
	headers := make(map[string]string, len(resp.Header()))
	for k, v := range resp.Header() {
		if len(v) > 0 {
			headers[k] = v[0]
		}
	}
	var data any
	raw := resp.Body()
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &data); err != nil {
			data = string(raw)
		}
	}
	return gin.H{
		"status":     resp.StatusCode(),
		"statusText": http.StatusText(resp.StatusCode()),
		"headers":    headers,
		"url":        target,
		"data":       data,
	}
}

// injectServiceKeys substitutes server-held credentials for configured hosts
// when the client sent no value or a placeholder. Real client-supplied
// credentials are never overwritten.
func (s *Server) injectServiceKeys(target string, headers map[string]string) map[string]string {
	out := make(map[string]string, len(headers))
	for k, v := range headers {
		out[k] = v
	}
	host := hostOf(target)
	if host == "" {
		return out
	}
	for _, sk := range s.cfg.ServiceKeys {
		if !hostMatches(host, sk.Host) {
			continue
		}
		secret := sk.Secret()
		if secret == "" || sk.Header == "" {
			continue
		}
		current, ok := headerValue(out, sk.Header)
		if !ok || authinject.IsPlaceholderKey(stripAuthScheme(current)) {
			setHeader(out, sk.Header, secret)
		}
		for name, value := range sk.Extra {
			if _, ok := headerValue(out, name); !ok {
				out[name] = value
			}
		}
	}
	return out
}

func hostOf(target string) string {
	rest, ok := strings.CutPrefix(target, "https://")
	if !ok {
		rest, ok = strings.CutPrefix(target, "http://")
	}
	if !ok {
		return ""
	}
	end := strings.IndexAny(rest, "/?#")
	if end >= 0 {
		rest = rest[:end]
	}
	if at := strings.LastIndex(rest, "@"); at >= 0 {
		rest = rest[at+1:]
	}
	if colon := strings.LastIndex(rest, ":"); colon >= 0 && !strings.Contains(rest, "]") {
		rest = rest[:colon]
	}
	return strings.ToLower(rest)
}

// hostMatches accepts exact and subdomain matches against the configured host.
func hostMatches(host, configured string) bool {
	configured = strings.ToLower(configured)
	return host == configured || strings.HasSuffix(host, "."+configured)
}

func headerValue(headers map[string]string, name string) (string, bool) {
	for k, v := range headers {
		if strings.EqualFold(k, name) {
			return v, true
		}
	}
	return "", false
}

func setHeader(headers map[string]string, name, value string) {
	for k := range headers {
		if strings.EqualFold(k, name) {
			headers[k] = value
			return
		}
	}
	headers[name] = value
}

// stripAuthScheme drops a leading Bearer/Basic scheme so placeholder
// detection sees the bare credential.
func stripAuthScheme(value string) string {
	v := strings.TrimSpace(value)
	for _, scheme := range []string{"Bearer ", "Basic "} {
		if strings.HasPrefix(v, scheme) {
			return strings.TrimSpace(v[len(scheme):])
		}
	}
	return v
}

func (s *Server) handleProxyDocs(c *gin.Context) {
	target := c.Query("url")
	if ok, msg := checkURLSafety(target); !ok {
		if !(s.cfg.DevMode && isLocalhostURL(target)) {
			fail(c, http.StatusForbidden, msg)
			return
		}
	}
	resp, err := s.client.R().
		SetContext(c.Request.Context()).
		SetHeader("Accept", "text/html,application/json,text/plain").
		Get(target)
	if err != nil {
		fail(c, http.StatusBadGateway, fmt.Sprintf("Documentation fetch failed: %v", err))
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status":       resp.StatusCode(),
		"content_type": resp.Header().Get("Content-Type"),
		"content":      string(resp.Body()),
		"url":          target,
		"ok":           resp.StatusCode() >= 200 && resp.StatusCode() < 300,
	})
}
