package http

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/m-mizutani/itsgate/pkg/domain/interfaces"
	"github.com/m-mizutani/itsgate/pkg/utils/async"
)

// config holds internal HTTP server configuration
type config struct {
	addr           string
	webhookSecret  string
	metricsHandler http.Handler
	ruleCount      func() int
	maxInFlight    int
}

// Option is a functional option for Server configuration
type Option func(*config)

// WithAddr sets the server address
func WithAddr(addr string) Option {
	return func(c *config) {
		c.addr = addr
	}
}

// WithWebhookSecret sets the webhook secret
func WithWebhookSecret(secret string) Option {
	return func(c *config) {
		c.webhookSecret = secret
	}
}

// WithMetricsHandler serves h at /metrics
func WithMetricsHandler(h http.Handler) Option {
	return func(c *config) {
		c.metricsHandler = h
	}
}

// WithRuleCount reports the number of loaded rules in /health
func WithRuleCount(f func() int) Option {
	return func(c *config) {
		c.ruleCount = f
	}
}

// WithMaxInFlight bounds the number of events processed at once
func WithMaxInFlight(n int) Option {
	return func(c *config) {
		c.maxInFlight = n
	}
}

// Server represents the HTTP server
type Server struct {
	*http.Server
	dispatcher *async.Dispatcher
}

// NewServer creates a new HTTP server
func NewServer(
	ctx context.Context,
	eventUC interfaces.EventUseCase,
	opts ...Option,
) (*Server, error) {
	cfg := &config{
		addr: "localhost:8080",
	}
	for _, opt := range opts {
		opt(cfg)
	}

	dispatcher := async.NewDispatcher(cfg.maxInFlight)

	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(accessLog(ctx))
	router.Use(middleware.Recoverer)

	router.Get("/health", healthHandler(cfg.ruleCount))
	if cfg.metricsHandler != nil {
		router.Method(http.MethodGet, "/metrics", cfg.metricsHandler)
	}

	webhookHandler := NewWebhookHandler(cfg.webhookSecret, eventUC, dispatcher)
	router.Post("/hooks/gerrit", webhookHandler.Handle)

	server := &Server{
		Server: &http.Server{
			Addr:              cfg.addr,
			Handler:           router,
			ReadHeaderTimeout: 15 * time.Second,
		},
		dispatcher: dispatcher,
	}

	return server, nil
}

// Drain waits for events still being processed after the listener stopped
func (s *Server) Drain(ctx context.Context) error {
	return s.dispatcher.Wait(ctx)
}
