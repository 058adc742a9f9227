package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"printq/internal/logging"
	"printq/internal/queue"
)

// Pinger reports whether the backing store is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Option configures a Server.
type Option func(*Server)

// WithLogger sets the logger for access and lifecycle records.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithToken requires "Authorization: Bearer <token>" on /v1 routes. An empty
// token disables authentication.
func WithToken(token string) Option {
	return func(s *Server) {
		s.token = token
	}
}

// WithMetrics mounts handler on GET /metrics.
func WithMetrics(handler http.Handler) Option {
	return func(s *Server) {
		s.metrics = handler
	}
}

// WithPinger makes /healthz report store reachability.
func WithPinger(pinger Pinger) Option {
	return func(s *Server) {
		s.pinger = pinger
	}
}

// Server exposes a queue.Service over HTTP.
type Server struct {
	svc     *queue.Service
	logger  *slog.Logger
	token   string
	metrics http.Handler
	pinger  Pinger

	engine *gin.Engine
	server *http.Server
}

// NewServer builds the router around svc.
func NewServer(svc *queue.Service, opts ...Option) *Server {
	s := &Server{
		svc:    svc,
		logger: logging.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = logging.NewComponentLogger(s.logger, "api")

	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestIDMiddleware(), accessLogMiddleware(s.logger))
	s.routes(engine)
	s.engine = engine

	s.server = &http.Server{
		Handler:           engine,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

func (s *Server) routes(engine *gin.Engine) {
	engine.GET("/healthz", s.handleHealth)
	if s.metrics != nil {
		engine.GET("/metrics", gin.WrapH(s.metrics))
	}

	v1 := engine.Group("/v1", authMiddleware(s.token))
	v1.POST("/entries", s.handleEnqueue)
	v1.GET("/entries", s.handleList)
	v1.DELETE("/entries", s.handlePurge)
	v1.GET("/entries/active", s.handleActive)
	v1.GET("/entries/:jobRef", s.handleGet)
	v1.POST("/entries/:jobRef/transitions", s.handleTransition)
	v1.GET("/stats", s.handleStats)
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Listen opens a TCP listener on bind.
func Listen(bind string) (net.Listener, error) {
	listener, err := net.Listen("tcp", bind)
	if err != nil {
		return nil, fmt.Errorf("api listen: %w", err)
	}
	return listener, nil
}

// Serve blocks serving on listener until Shutdown is called.
func (s *Server) Serve(listener net.Listener) error {
	s.logger.Info("api server listening", logging.String("address", listener.Addr().String()))
	if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("api serve: %w", err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for in-flight requests
// until ctx expires.
func (s *Server) Shutdown(ctx context.Context) error {
	if err := s.server.Shutdown(ctx); err != nil {
		return fmt.Errorf("api shutdown: %w", err)
	}
	s.logger.Info("api server stopped")
	return nil
}
