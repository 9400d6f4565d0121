// internal/config/loader_test.go
//
// Run: go test ./internal/config -v

package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeConf(t *testing.T, body string) string {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "conf"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(root, "conf", fileName), []byte(body), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return root
}

func TestLoadFrom_YAMLAndDefaults(t *testing.T) {
	root := writeConf(t, `
http:
  listen_addr: "127.0.0.1:9090"
auth:
  base_url: "http://auth.internal:3000/api/auth"
`)

	cfg, err := LoadFrom(root)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.HTTP.ListenAddr != "127.0.0.1:9090" {
		t.Fatalf("listen_addr = %q", cfg.HTTP.ListenAddr)
	}
	if cfg.HTTP.ReadTimeout != 10*time.Second {
		t.Fatalf("read_timeout default = %v", cfg.HTTP.ReadTimeout)
	}
	if cfg.Auth.RequestTimeout != 0 {
		t.Fatalf("request_timeout should default to none, got %v", cfg.Auth.RequestTimeout)
	}
	if cfg.Log.Dir != filepath.Join(root, "logs") {
		t.Fatalf("log dir = %q", cfg.Log.Dir)
	}
	if Get() != cfg {
		t.Fatal("Get did not return the cached config")
	}
}

func TestLoadFrom_LookupRetries(t *testing.T) {
	cases := map[string]struct {
		yaml string
		want int
	}{
		"absent defaults":    {"", 2},
		"explicit zero kept": {"  lookup_retries: 0\n", 0},
		"explicit value":     {"  lookup_retries: 5\n", 5},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			root := writeConf(t, "auth:\n  base_url: \"http://auth.internal:3000/api/auth\"\n"+tc.yaml)
			cfg, err := LoadFrom(root)
			if err != nil {
				t.Fatalf("LoadFrom: %v", err)
			}
			if cfg.Auth.LookupRetries != tc.want {
				t.Fatalf("lookup_retries = %d, want %d", cfg.Auth.LookupRetries, tc.want)
			}
		})
	}
}

func TestLoadFrom_TrustedProxies(t *testing.T) {
	root := writeConf(t, `
http:
  trusted_proxies: ["10.0.0.0/8", "192.0.2.1"]
auth:
  base_url: "http://auth.internal:3000/api/auth"
`)
	cfg, err := LoadFrom(root)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if len(cfg.HTTP.TrustedProxies) != 2 {
		t.Fatalf("trusted_proxies = %v", cfg.HTTP.TrustedProxies)
	}

	bad := writeConf(t, `
http:
  trusted_proxies: ["not-a-cidr"]
auth:
  base_url: "http://auth.internal:3000/api/auth"
`)
	if _, err := LoadFrom(bad); err == nil {
		t.Fatal("expected validation error for bad proxy")
	}
}

func TestLoadFrom_EnvOverride(t *testing.T) {
	root := writeConf(t, `
auth:
  base_url: "http://auth.internal:3000/api/auth"
`)
	t.Setenv("GATEHOUSE_AUTH__BASE_URL", "https://auth.example.com/api/auth")
	t.Setenv("GATEHOUSE_AUTH__REQUEST_TIMEOUT", "5s")

	cfg, err := LoadFrom(root)
	if err != nil {
		t.Fatalf("LoadFrom: %v", err)
	}
	if cfg.Auth.BaseURL != "https://auth.example.com/api/auth" {
		t.Fatalf("base_url = %q", cfg.Auth.BaseURL)
	}
	if cfg.Auth.RequestTimeout != 5*time.Second {
		t.Fatalf("request_timeout = %v", cfg.Auth.RequestTimeout)
	}
}

func TestLoadFrom_MissingBaseURL(t *testing.T) {
	root := writeConf(t, "http:\n  force_https: true\n")
	if _, err := LoadFrom(root); err == nil {
		t.Fatal("expected validation error for missing auth.base_url")
	}
}

func TestLoadFrom_AuditNeedsDSN(t *testing.T) {
	root := writeConf(t, `
auth:
  base_url: "http://auth.internal:3000/api/auth"
audit:
  enabled: true
`)
	_, err := LoadFrom(root)
	if !errors.Is(err, ErrAuditWithoutDSN) {
		t.Fatalf("err = %v, want ErrAuditWithoutDSN", err)
	}
}

func TestEnvKey(t *testing.T) {
	if got := envKey("GATEHOUSE_HTTP__LISTEN_ADDR"); got != "http.listen_addr" {
		t.Fatalf("envKey = %q", got)
	}
}
