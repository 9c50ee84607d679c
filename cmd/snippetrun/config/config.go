package config

import (
	"crypto/tls"
	"fmt"

	"github.com/go-viper/mapstructure/v2"
	"github.com/loykin/snippetrun/internal/common"
	"github.com/loykin/snippetrun/internal/descriptor"
	"github.com/loykin/snippetrun/internal/relay"
	"github.com/spf13/viper"
)

type LoggingConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // error, warn, info, debug
	Format string `mapstructure:"format" yaml:"format"` // text, json
}

// AuthConfig declares the credentials the CLI injects into snippets before
// execution. Type selects the mode; the remaining fields apply per type.
type AuthConfig struct {
	Type        string `mapstructure:"type" yaml:"type"`
	Key         string `mapstructure:"key" yaml:"key"`
	Username    string `mapstructure:"username" yaml:"username"`
	Password    string `mapstructure:"password" yaml:"password"`
	Token       string `mapstructure:"token" yaml:"token"`
	HeaderName  string `mapstructure:"header_name" yaml:"header_name"`
	HeaderValue string `mapstructure:"header_value" yaml:"header_value"`
}

// ToMode converts the config block into the pipeline auth mode.
func (a AuthConfig) ToMode() (descriptor.AuthMode, error) {
	switch a.Type {
	case "", string(descriptor.AuthNone):
		return descriptor.NoAuth(), nil
	case string(descriptor.AuthAPIKey):
		return descriptor.APIKey(a.Key), nil
	case string(descriptor.AuthBasic):
		return descriptor.Basic(a.Username, a.Password), nil
	case string(descriptor.AuthBearer):
		return descriptor.Bearer(a.Token), nil
	case string(descriptor.AuthHeader):
		return descriptor.CustomHeader(a.HeaderName, a.HeaderValue), nil
	default:
		return descriptor.NoAuth(), fmt.Errorf("unknown auth type: %q", a.Type)
	}
}

type ClientConfig struct {
	Insecure      bool   `mapstructure:"insecure" yaml:"insecure"`
	MinTLSVersion string `mapstructure:"min_tls_version" yaml:"min_tls_version"`
}

// ToTLS builds a tls.Config, or nil when nothing is customized.
func (c ClientConfig) ToTLS() *tls.Config {
	if !c.Insecure && c.MinTLSVersion == "" {
		return nil
	}
	cfg := &tls.Config{InsecureSkipVerify: c.Insecure} // #nosec G402 - explicit opt-in
	switch c.MinTLSVersion {
	case "1.2":
		cfg.MinVersion = tls.VersionTLS12
	case "1.3":
		cfg.MinVersion = tls.VersionTLS13
	}
	return cfg
}

type ConfigDoc struct {
	RelayURL string        `mapstructure:"relay_url" yaml:"relay_url"`
	Auth     AuthConfig    `mapstructure:"auth" yaml:"auth"`
	Client   ClientConfig  `mapstructure:"client" yaml:"client"`
	Logging  LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Relay    relay.Config  `mapstructure:"relay" yaml:"relay"`
}

// Load reads the config file at path when it exists; a missing file yields
// defaults so the CLI works with flags and environment variables alone.
func Load(path string) (*ConfigDoc, error) {
	doc := &ConfigDoc{RelayURL: "http://localhost:8080"}
	if path == "" {
		return doc, nil
	}
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	// Weak typing lets quoted scalars ("10", "true") decode into their fields.
	weak := func(dc *mapstructure.DecoderConfig) { dc.WeaklyTypedInput = true }
	if err := v.Unmarshal(doc, weak); err != nil {
		return nil, fmt.Errorf("decode config %s: %w", path, err)
	}
	if doc.RelayURL == "" {
		doc.RelayURL = "http://localhost:8080"
	}
	return doc, nil
}

// SetupLogger installs the configured process-wide logger.
func (c *ConfigDoc) SetupLogger() {
	level := common.ParseLogLevel(c.Logging.Level)
	var logger *common.Logger
	if c.Logging.Format == "json" {
		logger = common.NewJSONLogger(level)
	} else {
		logger = common.NewLogger(level)
	}
	common.SetDefaultLogger(logger)
}
