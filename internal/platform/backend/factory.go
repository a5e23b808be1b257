// Package backend is the client for the hosted auth/data service.
//
// The service speaks a Supabase-compatible REST surface: session auth under
// /auth/v1 and table access under /rest/v1. Handles are built per use
// through a Factory and read the session tokens current at that moment.
package backend

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/singleflight"
)

const tracerName = "github.com/louisbranch/campaignforge/internal/platform/backend"

// ErrMissingConfig reports a factory built without a URL or publishable key.
var ErrMissingConfig = errors.New("backend url and publishable key are required")

// Config holds the two environment-supplied values every handle needs.
type Config struct {
	URL            string `env:"CAMPAIGN_FORGE_BACKEND_URL,required,notEmpty"`
	PublishableKey string `env:"CAMPAIGN_FORGE_BACKEND_PUBLISHABLE_KEY,required,notEmpty"`
}

// Option customizes a Factory.
type Option func(*Factory)

// WithHTTPClient overrides the HTTP client shared by all handles.
func WithHTTPClient(client *http.Client) Option {
	return func(f *Factory) {
		if client != nil {
			f.httpClient = client
		}
	}
}

// WithClock overrides the time source used for token expiry checks.
func WithClock(now func() time.Time) Option {
	return func(f *Factory) {
		if now != nil {
			f.now = now
		}
	}
}

// WithTracerProvider overrides the global tracer provider.
func WithTracerProvider(provider trace.TracerProvider) Option {
	return func(f *Factory) {
		if provider != nil {
			f.tracer = provider.Tracer(tracerName)
		}
	}
}

// Factory builds backend handles. It holds only immutable configuration and
// is safe for concurrent use.
type Factory struct {
	baseURL    *url.URL
	key        string
	httpClient *http.Client
	tracer     trace.Tracer
	now        func() time.Time
	refreshes  singleflight.Group
}

// NewFactory validates cfg and returns a handle factory.
func NewFactory(cfg Config, opts ...Option) (*Factory, error) {
	rawURL := strings.TrimSpace(cfg.URL)
	key := strings.TrimSpace(cfg.PublishableKey)
	if rawURL == "" || key == "" {
		return nil, ErrMissingConfig
	}
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse backend url: %w", err)
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return nil, fmt.Errorf("backend url %q must use http or https", rawURL)
	}
	if parsed.Host == "" {
		return nil, fmt.Errorf("backend url %q has no host", rawURL)
	}
	parsed.Path = strings.TrimSuffix(parsed.Path, "/")

	f := &Factory{
		baseURL:    parsed,
		key:        key,
		httpClient: &http.Client{},
		tracer:     otel.Tracer(tracerName),
		now:        time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f, nil
}

// New returns a fresh handle bound to store. A nil store yields an
// anonymous handle that never persists sessions.
func (f *Factory) New(store SessionStore) *Client {
	if store == nil {
		store = &MemoryStore{}
	}
	return &Client{factory: f, store: store}
}

// Anonymous returns a fresh handle with no session.
func (f *Factory) Anonymous() *Client {
	return f.New(nil)
}

func (f *Factory) endpoint(path string, query url.Values) string {
	u := *f.baseURL
	u.Path = f.baseURL.Path + path
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String()
}
