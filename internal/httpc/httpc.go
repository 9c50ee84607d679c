package httpc

import (
	"crypto/tls"

	"github.com/go-resty/resty/v2"
)

// Httpc builds resty clients for relay traffic. The zero value yields a
// default client; TLS settings apply when provided.
type Httpc struct {
	TlsConfig *tls.Config
}

// New returns a resty.Client configured according to the receiver's TLS
// settings. Defaults: MinVersion TLS1.3 when MinVersion is zero. No client
// timeout is set; the pipeline relies on the transport's own behavior.
func (h *Httpc) New() *resty.Client {
	c := resty.New()
	cfg := h.TlsConfig
	if cfg == nil {
		return c
	}
	if cfg.MinVersion == 0 {
		cfg.MinVersion = tls.VersionTLS13
	}
	c.SetTLSClientConfig(cfg)
	return c
}
