package web

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"strings"

	"github.com/louisbranch/campaignforge/internal/platform/backend"
	"github.com/louisbranch/campaignforge/internal/platform/timeouts"
	"github.com/louisbranch/campaignforge/internal/services/web/app"
	"github.com/louisbranch/campaignforge/internal/services/web/layout"
	module "github.com/louisbranch/campaignforge/internal/services/web/module"
	"github.com/louisbranch/campaignforge/internal/services/web/modules"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/httpx"
	webi18n "github.com/louisbranch/campaignforge/internal/services/web/platform/i18n"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/observability"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/requestmeta"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/sessioncookie"
	"github.com/louisbranch/campaignforge/internal/services/web/platform/weberror"
	"github.com/louisbranch/campaignforge/internal/services/web/principal"
	"github.com/louisbranch/campaignforge/internal/services/web/resources"
	"github.com/louisbranch/campaignforge/internal/services/web/routepath"
	"github.com/louisbranch/campaignforge/internal/services/web/static"
	"github.com/prometheus/client_golang/prometheus"
)

// Config defines the inputs for the web server.
type Config struct {
	HTTPAddr  string
	Factory   *backend.Factory
	Resources *resources.Service
	// Registry collects HTTP metrics and is served at /metrics. Nil disables
	// both.
	Registry *prometheus.Registry
	// Logger receives one line per request. Nil uses the standard logger.
	Logger              *log.Logger
	TrustForwardedProto bool
}

// Server hosts the web HTTP server.
type Server struct {
	httpAddr   string
	httpServer *http.Server
}

// NewHandler builds the root handler with every module mounted.
func NewHandler(cfg Config) (http.Handler, error) {
	if cfg.Factory == nil {
		return nil, errors.New("backend factory is required")
	}
	if cfg.Resources == nil {
		cfg.Resources = resources.NewService(cfg.Factory)
	}
	policy := requestmeta.SchemePolicy{TrustForwardedProto: cfg.TrustForwardedProto}
	deps := module.Dependencies{
		Factory:       cfg.Factory,
		Resources:     cfg.Resources,
		ResolveUserID: principal.UserIDResolver(cfg.Factory),
	}

	mux, err := app.Compose(app.ComposeInput{
		PublicModules:       modules.DefaultPublicModules(deps),
		ProtectedModules:    modules.DefaultProtectedModules(deps),
		PublicShell:         layout.Standalone(),
		ProtectedShell:      layout.Authenticated(cfg.Factory),
		RequestSchemePolicy: policy,
	})
	if err != nil {
		return nil, fmt.Errorf("compose modules: %w", err)
	}
	mountPlatformRoutes(mux, cfg)

	var metrics *observability.Metrics
	if cfg.Registry != nil {
		metrics = observability.NewMetrics(cfg.Registry)
	}
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	return httpx.Chain(mux,
		httpx.RecoverPanic(),
		httpx.RequestID(),
		observability.RequestLogger(logger),
		metrics.Middleware(),
		webi18n.Middleware(),
		sessioncookie.Middleware(policy),
		principal.Middleware(),
	), nil
}

func mountPlatformRoutes(mux *http.ServeMux, cfg Config) {
	redirectToCampaigns := func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, routepath.AppCampaigns, http.StatusSeeOther)
	}
	mux.HandleFunc(http.MethodGet+" "+routepath.Root+"{$}", redirectToCampaigns)
	mux.HandleFunc(http.MethodGet+" "+routepath.AppPrefix+"{$}", redirectToCampaigns)
	mux.HandleFunc(http.MethodGet+" "+routepath.Health, func(w http.ResponseWriter, _ *http.Request) {
		_ = httpx.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	if cfg.Registry != nil {
		mux.Handle(http.MethodGet+" "+routepath.Metrics, observability.Handler(cfg.Registry))
	}
	mux.Handle(http.MethodGet+" "+routepath.StaticPrefix, http.StripPrefix(routepath.StaticPrefix, http.FileServerFS(static.FS)))
	mux.Handle(routepath.Root, layout.Standalone()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		weberror.WriteAppError(w, r, http.StatusNotFound)
	})))
}

// NewServer builds a server listening on cfg.HTTPAddr.
func NewServer(cfg Config) (*Server, error) {
	httpAddr := strings.TrimSpace(cfg.HTTPAddr)
	if httpAddr == "" {
		return nil, errors.New("http address is required")
	}
	handler, err := NewHandler(cfg)
	if err != nil {
		return nil, err
	}
	return &Server{
		httpAddr: httpAddr,
		httpServer: &http.Server{
			Addr:              httpAddr,
			Handler:           handler,
			ReadHeaderTimeout: timeouts.ReadHeader,
		},
	}, nil
}

// ListenAndServe serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	if s == nil {
		return errors.New("web server is nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}
	listener, err := net.Listen("tcp", s.httpAddr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpAddr, err)
	}
	return s.Serve(ctx, listener)
}

// Serve serves on listener until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, listener net.Listener) error {
	serveErr := make(chan error, 1)
	log.Printf("web listening at %s", listener.Addr())
	go func() {
		serveErr <- s.httpServer.Serve(listener)
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), timeouts.Shutdown)
		defer cancel()
		if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown web server: %w", err)
		}
		return nil
	case err := <-serveErr:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serve web: %w", err)
	}
}

// Close stops the server immediately.
func (s *Server) Close() {
	if s == nil || s.httpServer == nil {
		return
	}
	if err := s.httpServer.Close(); err != nil {
		log.Printf("close web server: %v", err)
	}
}
