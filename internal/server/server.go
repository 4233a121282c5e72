// Package server provides the HTTP server implementation.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/vyrodovalexey/item-catalog/internal/config"
	"github.com/vyrodovalexey/item-catalog/internal/handler"
	"github.com/vyrodovalexey/item-catalog/internal/middleware"
	"github.com/vyrodovalexey/item-catalog/internal/service"
)

// Server runs the catalog API and, when a probe port is configured, a
// separate probe server.
type Server struct {
	httpServer  *http.Server
	probeServer *http.Server
	router      *mux.Router
	probeRouter *mux.Router
	config      *config.Config
	logger      *zap.Logger
	wsHandler   *handler.WebSocketHandler
}

// New creates a new Server instance. pinger backs the readiness probe and
// may be nil.
func New(cfg *config.Config, logger *zap.Logger, catalog service.Catalog, pinger handler.Pinger) *Server {
	s := &Server{
		router: mux.NewRouter(),
		config: cfg,
		logger: logger,
	}

	s.setupMiddleware()
	s.setupRoutes(catalog)
	s.httpServer = s.newHTTPServer(cfg.Address(), s.router)

	if cfg.ProbePort != 0 {
		s.setupProbeRouter(pinger)
		s.probeServer = s.newHTTPServer(cfg.ProbeAddress(), s.probeRouter)
	}

	return s
}

// setupMiddleware configures the middleware chain.
func (s *Server) setupMiddleware() {
	allowedMethods := []string{
		http.MethodGet,
		http.MethodPost,
		http.MethodPut,
		http.MethodDelete,
		http.MethodOptions,
	}
	allowedHeaders := []string{
		"Content-Type",
		middleware.RequestIDHeader,
	}

	// First applied = outermost.
	s.router.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.RequestID()))

	if s.config.MetricsEnabled {
		s.router.Use(mux.MiddlewareFunc(middleware.Metrics()))
	}

	s.router.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))
	s.router.Use(mux.MiddlewareFunc(middleware.CORS(s.config.CORSOrigins, allowedMethods, allowedHeaders)))
}

// setupRoutes configures the API routes.
func (s *Server) setupRoutes(catalog service.Catalog) {
	s.wsHandler = handler.NewWebSocketHandler(s.logger)
	s.wsHandler.RegisterRoutes(s.router)

	restHandler := handler.NewRESTHandler(catalog, s.wsHandler, s.logger)
	restHandler.RegisterRoutes(s.router)

	if s.config.MetricsEnabled {
		s.router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}

	// Router middleware only runs on a matched route, so CORS preflights need
	// one. A method matcher would turn unknown paths into 405s.
	s.router.MatcherFunc(isPreflight).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	})
}

func isPreflight(r *http.Request, _ *mux.RouteMatch) bool {
	return r.Method == http.MethodOptions
}

// setupProbeRouter configures health, readiness and metrics on the probe port.
func (s *Server) setupProbeRouter(pinger handler.Pinger) {
	s.probeRouter = mux.NewRouter()
	s.probeRouter.Use(mux.MiddlewareFunc(middleware.Recovery(s.logger)))
	s.probeRouter.Use(mux.MiddlewareFunc(middleware.Logging(s.logger)))

	handler.NewProbeHandler(pinger, s.logger).RegisterRoutes(s.probeRouter)

	if s.config.MetricsEnabled {
		s.probeRouter.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	}
}

func (s *Server) newHTTPServer(addr string, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadTimeout:       15 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		MaxHeaderBytes:    1 << 20, // 1 MB
	}
}

// Start runs the servers and blocks until they stop. It returns the first
// listen error, or nil after a graceful shutdown.
func (s *Server) Start() error {
	servers := map[string]*http.Server{"api": s.httpServer}
	if s.probeServer != nil {
		servers["probe"] = s.probeServer
	}

	errs := make(chan error, len(servers))
	for name, srv := range servers {
		s.logger.Info("starting server",
			zap.String("server", name),
			zap.String("address", srv.Addr),
			zap.Bool("metrics_enabled", s.config.MetricsEnabled),
		)
		go func(name string, srv *http.Server) {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				errs <- fmt.Errorf("%s server listen and serve: %w", name, err)
				return
			}
			errs <- nil
		}(name, srv)
	}

	for range servers {
		if err := <-errs; err != nil {
			return err
		}
	}
	return nil
}

// Shutdown gracefully shuts down the servers.
func (s *Server) Shutdown(ctx context.Context) error {
	s.logger.Info("shutting down server")

	// Change feed clients hold hijacked connections that http.Server.Shutdown ignores.
	if s.wsHandler != nil {
		s.wsHandler.CloseAllConnections()
	}

	var errs []error
	if err := s.httpServer.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("server shutdown: %w", err))
	}
	if s.probeServer != nil {
		if err := s.probeServer.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("probe server shutdown: %w", err))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	s.logger.Info("server shutdown complete")
	return nil
}

// Router returns the API router.
func (s *Server) Router() *mux.Router {
	return s.router
}

// ProbeRouter returns the probe router, or nil when the probe server is disabled.
func (s *Server) ProbeRouter() *mux.Router {
	return s.probeRouter
}
