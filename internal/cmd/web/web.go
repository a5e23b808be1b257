// Package web wires configuration and dependencies for the web command.
package web

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"
	"time"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/platform/config"
	platformotel "github.com/louisbranch/campaignforge/internal/platform/otel"
	"github.com/louisbranch/campaignforge/internal/services/web"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/observability"
	"github.com/louisbranch/campaignforge/internal/services/web/resources"
	webstorage "github.com/louisbranch/campaignforge/internal/services/web/storage"
	"github.com/louisbranch/campaignforge/internal/services/web/storage/memory"
	"github.com/louisbranch/campaignforge/internal/services/web/storage/sqlite"
)

const serviceName = "campaignforge-web"

// Config holds the web command configuration.
type Config struct {
	Backend backend.Config

	HTTPAddr            string        `env:"CAMPAIGN_FORGE_WEB_HTTP_ADDR" envDefault:"localhost:8080"`
	CachePath           string        `env:"CAMPAIGN_FORGE_WEB_CACHE_PATH"`
	CacheSize           int           `env:"CAMPAIGN_FORGE_WEB_CACHE_SIZE" envDefault:"1024"`
	CacheTTL            time.Duration `env:"CAMPAIGN_FORGE_WEB_CACHE_TTL" envDefault:"30s"`
	CachePurgeInterval  time.Duration `env:"CAMPAIGN_FORGE_WEB_CACHE_PURGE_INTERVAL" envDefault:"1m"`
	TrustForwardedProto bool          `env:"CAMPAIGN_FORGE_WEB_TRUST_FORWARDED_PROTO"`
	DisableMetrics      bool          `env:"CAMPAIGN_FORGE_WEB_DISABLE_METRICS"`
}

// Environ returns the process environment as a map for ParseConfig.
func Environ() map[string]string {
	environment := make(map[string]string)
	for _, pair := range os.Environ() {
		key, value, ok := strings.Cut(pair, "=")
		if ok {
			environment[key] = value
		}
	}
	return environment
}

// ParseConfig reads environment into a Config, then applies flag overrides.
func ParseConfig(fs *flag.FlagSet, args []string, environment map[string]string) (Config, error) {
	var cfg Config
	if err := config.ParseEnvFrom(&cfg, environment); err != nil {
		return Config{}, err
	}

	fs.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fs.StringVar(&cfg.Backend.URL, "backend-url", cfg.Backend.URL, "Hosted backend base URL")
	fs.StringVar(&cfg.CachePath, "cache-path", cfg.CachePath, "SQLite resource cache path; empty keeps the cache in memory")
	fs.DurationVar(&cfg.CacheTTL, "cache-ttl", cfg.CacheTTL, "Resource cache entry lifetime; zero disables caching")
	fs.BoolVar(&cfg.TrustForwardedProto, "trust-forwarded-proto", cfg.TrustForwardedProto, "Trust X-Forwarded-Proto for cookie security")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	if strings.TrimSpace(cfg.HTTPAddr) == "" {
		return Config{}, fmt.Errorf("http address is required")
	}
	if cfg.CacheTTL < 0 {
		return Config{}, fmt.Errorf("cache ttl must not be negative")
	}
	return cfg, nil
}

// Run starts the web server and blocks until ctx ends.
func Run(ctx context.Context, cfg Config) error {
	shutdownTracing, err := platformotel.Setup(ctx, serviceName)
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Printf("shutdown tracing: %v", err)
		}
	}()

	factory, err := backend.NewFactory(cfg.Backend)
	if err != nil {
		return fmt.Errorf("init backend: %w", err)
	}

	server, err := newServer(cfg, factory)
	if err != nil {
		return err
	}
	defer server.close()

	if cfg.CachePurgeInterval > 0 {
		go server.resources.PurgeExpired(ctx, cfg.CachePurgeInterval)
	}
	if err := server.web.ListenAndServe(ctx); err != nil {
		return fmt.Errorf("serve web: %w", err)
	}
	return nil
}

type runtime struct {
	web       *web.Server
	resources *resources.Service
	cache     webstorage.Store
}

func newServer(cfg Config, factory *backend.Factory) (*runtime, error) {
	registry := observability.NewRegistry()
	opts := []resources.Option{resources.WithRegisterer(registry)}

	var cache webstorage.Store
	if cfg.CacheTTL > 0 {
		store, err := openCache(cfg)
		if err != nil {
			return nil, err
		}
		cache = store
		opts = append(opts, resources.WithCache(cache, cfg.CacheTTL))
	}
	service := resources.NewService(factory, opts...)

	webCfg := web.Config{
		HTTPAddr:            cfg.HTTPAddr,
		Factory:             factory,
		Resources:           service,
		TrustForwardedProto: cfg.TrustForwardedProto,
	}
	if !cfg.DisableMetrics {
		webCfg.Registry = registry
	}
	server, err := web.NewServer(webCfg)
	if err != nil {
		if cache != nil {
			_ = cache.Close()
		}
		return nil, fmt.Errorf("init web server: %w", err)
	}
	return &runtime{web: server, resources: service, cache: cache}, nil
}

func openCache(cfg Config) (webstorage.Store, error) {
	if path := strings.TrimSpace(cfg.CachePath); path != "" {
		store, err := sqlite.Open(path)
		if err != nil {
			return nil, fmt.Errorf("open resource cache: %w", err)
		}
		log.Printf("resource cache backend=sqlite path=%s ttl=%s", path, cfg.CacheTTL)
		return store, nil
	}
	store, err := memory.New(cfg.CacheSize)
	if err != nil {
		return nil, fmt.Errorf("open resource cache: %w", err)
	}
	log.Printf("resource cache backend=memory size=%d ttl=%s", cfg.CacheSize, cfg.CacheTTL)
	return store, nil
}

func (r *runtime) close() {
	r.web.Close()
	if r.cache != nil {
		if err := r.cache.Close(); err != nil {
			log.Printf("close resource cache: %v", err)
		}
	}
}
