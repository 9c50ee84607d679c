package relay

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// ServiceKey configures server-side credential injection for one upstream
// host: when a proxied request targets Host and its Header is missing or
// carries a known placeholder, the server's own secret is substituted.
// Extra headers are added when absent (e.g. a required API version header).
type ServiceKey struct {
	Host   string            `yaml:"host" mapstructure:"host"`
	Header string            `yaml:"header" mapstructure:"header"`
	Value  string            `yaml:"value" mapstructure:"value"`
	Env    string            `yaml:"env" mapstructure:"env"`
	Extra  map[string]string `yaml:"extra" mapstructure:"extra"`
}

// Secret resolves the configured value, preferring the literal over the
// environment variable.
func (s ServiceKey) Secret() string {
	if s.Value != "" {
		return s.Value
	}
	if s.Env != "" {
		return os.Getenv(s.Env)
	}
	return ""
}

// Config holds the relay server settings.
type Config struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
	// DevMode permits localhost upstream targets for local API testing.
	DevMode bool `yaml:"dev_mode" mapstructure:"dev_mode"`
	// APIKeys is the client allow-list; empty means the relay is open.
	APIKeys []string `yaml:"api_keys" mapstructure:"api_keys"`
	// JWTSecret enables HS256 bearer tokens as an alternative client credential.
	JWTSecret string `yaml:"jwt_secret" mapstructure:"jwt_secret"`
	// RatePerMinute caps proxied calls per client key (default 100).
	RatePerMinute int `yaml:"rate_per_minute" mapstructure:"rate_per_minute"`
	// MaxBodyBytes caps the proxied request body (default 10 MiB).
	MaxBodyBytes int64        `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	ServiceKeys  []ServiceKey `yaml:"service_keys" mapstructure:"service_keys"`
}

const (
	defaultAddr          = ":8080"
	defaultRatePerMinute = 100
	defaultMaxBodyBytes  = 10 * 1024 * 1024
)

// withDefaults fills unset fields.
func (c Config) withDefaults() Config {
	if c.Addr == "" {
		c.Addr = defaultAddr
	}
	if c.RatePerMinute <= 0 {
		c.RatePerMinute = defaultRatePerMinute
	}
	if c.MaxBodyBytes <= 0 {
		c.MaxBodyBytes = defaultMaxBodyBytes
	}
	return c
}

// LoadSecurityConfig reads a YAML security config and merges it into c.
// Lists append; scalars override only when set in the file.
func (c Config) LoadSecurityConfig(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return c, fmt.Errorf("read security config: %w", err)
	}
	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return c, fmt.Errorf("parse security config: %w", err)
	}
	c.APIKeys = append(c.APIKeys, file.APIKeys...)
	c.ServiceKeys = append(c.ServiceKeys, file.ServiceKeys...)
	if file.JWTSecret != "" {
		c.JWTSecret = file.JWTSecret
	}
	if file.RatePerMinute > 0 {
		c.RatePerMinute = file.RatePerMinute
	}
	if file.MaxBodyBytes > 0 {
		c.MaxBodyBytes = file.MaxBodyBytes
	}
	if file.DevMode {
		c.DevMode = true
	}
	return c, nil
}
