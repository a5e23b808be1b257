package web

import (
	"flag"
	"path/filepath"
	"reflect"
	"testing"
	"time"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/platform/config"
	"github.com/louisbranch/campaignforge/internal/services/web/storage/memory"
	"github.com/louisbranch/campaignforge/internal/services/web/storage/sqlite"
)

func requiredEnv() map[string]string {
	return map[string]string{
		"CAMPAIGN_FORGE_BACKEND_URL":             "https://backend.example",
		"CAMPAIGN_FORGE_BACKEND_PUBLISHABLE_KEY": "pk-test",
	}
}

func TestParseConfigDefaults(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, nil, requiredEnv())
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "localhost:8080" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "localhost:8080")
	}
	if cfg.Backend.URL != "https://backend.example" || cfg.Backend.PublishableKey != "pk-test" {
		t.Fatalf("Backend = %+v", cfg.Backend)
	}
	if cfg.CacheTTL != 30*time.Second {
		t.Fatalf("CacheTTL = %s, want 30s", cfg.CacheTTL)
	}
	if cfg.CachePath != "" {
		t.Fatalf("CachePath = %q, want empty", cfg.CachePath)
	}
	if cfg.CacheSize != 1024 {
		t.Fatalf("CacheSize = %d, want 1024", cfg.CacheSize)
	}
	if cfg.TrustForwardedProto {
		t.Fatalf("TrustForwardedProto = true, want false")
	}
}

func TestParseConfigEnvironmentOverrides(t *testing.T) {
	t.Parallel()

	environment := requiredEnv()
	environment["CAMPAIGN_FORGE_WEB_HTTP_ADDR"] = "0.0.0.0:9000"
	environment["CAMPAIGN_FORGE_WEB_CACHE_PATH"] = "/var/lib/forge/cache.db"
	environment["CAMPAIGN_FORGE_WEB_CACHE_TTL"] = "2m"
	environment["CAMPAIGN_FORGE_WEB_TRUST_FORWARDED_PROTO"] = "true"

	cfg, err := ParseConfig(flag.NewFlagSet("web", flag.ContinueOnError), nil, environment)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "0.0.0.0:9000" {
		t.Fatalf("HTTPAddr = %q", cfg.HTTPAddr)
	}
	if cfg.CachePath != "/var/lib/forge/cache.db" {
		t.Fatalf("CachePath = %q", cfg.CachePath)
	}
	if cfg.CacheTTL != 2*time.Minute {
		t.Fatalf("CacheTTL = %s", cfg.CacheTTL)
	}
	if !cfg.TrustForwardedProto {
		t.Fatalf("TrustForwardedProto = false, want true")
	}
}

func TestParseConfigFlagsOverrideEnvironment(t *testing.T) {
	t.Parallel()

	environment := requiredEnv()
	environment["CAMPAIGN_FORGE_WEB_HTTP_ADDR"] = "0.0.0.0:9000"

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	cfg, err := ParseConfig(fs, []string{"-http-addr", "127.0.0.1:9002", "-cache-ttl", "0s"}, environment)
	if err != nil {
		t.Fatalf("ParseConfig() error = %v", err)
	}
	if cfg.HTTPAddr != "127.0.0.1:9002" {
		t.Fatalf("HTTPAddr = %q, want %q", cfg.HTTPAddr, "127.0.0.1:9002")
	}
	if cfg.CacheTTL != 0 {
		t.Fatalf("CacheTTL = %s, want 0", cfg.CacheTTL)
	}
}

func TestParseConfigReportsMissingBackend(t *testing.T) {
	t.Parallel()

	_, err := ParseConfig(flag.NewFlagSet("web", flag.ContinueOnError), nil, map[string]string{})
	if err == nil {
		t.Fatal("expected missing backend error")
	}
	want := []string{"CAMPAIGN_FORGE_BACKEND_PUBLISHABLE_KEY", "CAMPAIGN_FORGE_BACKEND_URL"}
	if got := config.MissingVariables(err); !reflect.DeepEqual(got, want) {
		t.Fatalf("MissingVariables() = %v, want %v", got, want)
	}
}

func TestParseConfigRejectsNegativeTTL(t *testing.T) {
	t.Parallel()

	fs := flag.NewFlagSet("web", flag.ContinueOnError)
	if _, err := ParseConfig(fs, []string{"-cache-ttl", "-1s"}, requiredEnv()); err == nil {
		t.Fatal("expected negative ttl error")
	}
}

func TestNewServerSelectsCacheBackend(t *testing.T) {
	t.Parallel()

	factory, err := backend.NewFactory(backend.Config{URL: "https://backend.example", PublishableKey: "pk-test"})
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}

	tests := []struct {
		name  string
		cfg   Config
		check func(t *testing.T, r *runtime)
	}{
		{
			name: "memory by default",
			cfg:  Config{HTTPAddr: "127.0.0.1:0", CacheTTL: time.Second},
			check: func(t *testing.T, r *runtime) {
				if _, ok := r.cache.(*memory.Store); !ok {
					t.Fatalf("cache = %T, want *memory.Store", r.cache)
				}
			},
		},
		{
			name: "sqlite with path",
			cfg:  Config{HTTPAddr: "127.0.0.1:0", CacheTTL: time.Second, CachePath: filepath.Join(t.TempDir(), "cache.db")},
			check: func(t *testing.T, r *runtime) {
				if _, ok := r.cache.(*sqlite.Store); !ok {
					t.Fatalf("cache = %T, want *sqlite.Store", r.cache)
				}
			},
		},
		{
			name: "disabled with zero ttl",
			cfg:  Config{HTTPAddr: "127.0.0.1:0"},
			check: func(t *testing.T, r *runtime) {
				if r.cache != nil {
					t.Fatalf("cache = %T, want nil", r.cache)
				}
			},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			r, err := newServer(tc.cfg, factory)
			if err != nil {
				t.Fatalf("newServer() error = %v", err)
			}
			defer r.close()
			tc.check(t, r)
		})
	}
}

func TestNewServerRejectsEmptyAddress(t *testing.T) {
	t.Parallel()

	factory, err := backend.NewFactory(backend.Config{URL: "https://backend.example", PublishableKey: "pk-test"})
	if err != nil {
		t.Fatalf("NewFactory() error = %v", err)
	}
	if _, err := newServer(Config{CacheTTL: time.Second}, factory); err == nil {
		t.Fatal("expected empty address error")
	}
}
