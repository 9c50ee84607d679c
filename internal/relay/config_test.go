package relay

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadSecurityConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "security.yaml")
	content := `
api_keys:
  - client-a
  - client-b
jwt_secret: topsecret
rate_per_minute: 42
dev_mode: true
service_keys:
  - host: api.example.com
    header: X-API-Key
    env: EXAMPLE_API_KEY
    extra:
      X-API-Version: "2024-01"
`
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := Config{APIKeys: []string{"base-key"}}.LoadSecurityConfig(path)
	if err != nil {
		t.Fatalf("load failed: %v", err)
	}
	if len(cfg.APIKeys) != 3 {
		t.Fatalf("keys should merge, got %v", cfg.APIKeys)
	}
	if cfg.JWTSecret != "topsecret" || cfg.RatePerMinute != 42 || !cfg.DevMode {
		t.Fatalf("scalars not applied: %+v", cfg)
	}
	if len(cfg.ServiceKeys) != 1 || cfg.ServiceKeys[0].Extra["X-API-Version"] != "2024-01" {
		t.Fatalf("service keys not parsed: %+v", cfg.ServiceKeys)
	}
}

func TestServiceKeySecretFromEnv(t *testing.T) {
	t.Setenv("RELAY_TEST_SECRET", "from-env")
	sk := ServiceKey{Env: "RELAY_TEST_SECRET"}
	if sk.Secret() != "from-env" {
		t.Fatalf("env secret not resolved: %q", sk.Secret())
	}
	sk.Value = "literal"
	if sk.Secret() != "literal" {
		t.Fatalf("literal must win: %q", sk.Secret())
	}
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.withDefaults()
	if cfg.Addr != defaultAddr || cfg.RatePerMinute != defaultRatePerMinute || cfg.MaxBodyBytes != defaultMaxBodyBytes {
		t.Fatalf("defaults not applied: %+v", cfg)
	}
}
