// Package server provides the HTTP server and routing for WealthDesk.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/wealthdesk/wealthdesk/internal/config"
	"github.com/wealthdesk/wealthdesk/internal/database"
	"github.com/wealthdesk/wealthdesk/internal/events"
	analyticshandlers "github.com/wealthdesk/wealthdesk/internal/modules/analytics/handlers"
	"github.com/wealthdesk/wealthdesk/internal/modules/auth"
	authhandlers "github.com/wealthdesk/wealthdesk/internal/modules/auth/handlers"
	portfoliohandlers "github.com/wealthdesk/wealthdesk/internal/modules/portfolio/handlers"
	riskhandlers "github.com/wealthdesk/wealthdesk/internal/modules/risk/handlers"
)

// Config holds server configuration
type Config struct {
	Log              zerolog.Logger
	Cfg              *config.Config
	MainDB           *database.DB
	CacheDB          *database.DB
	EventBus         *events.Bus
	AuthService      *auth.Service
	AuthHandler      *authhandlers.Handler
	PortfolioHandler *portfoliohandlers.Handler
	RiskHandler      *riskhandlers.Handler
	AnalyticsHandler *analyticshandlers.Handler
	SystemHandlers   *SystemHandlers
}

// Server represents the HTTP server
type Server struct {
	router *chi.Mux
	server *http.Server
	log    zerolog.Logger
	cfg    *config.Config
}

// New creates a new HTTP server with all routes wired
func New(cfg Config) *Server {
	s := &Server{
		router: chi.NewRouter(),
		log:    cfg.Log.With().Str("component", "server").Logger(),
		cfg:    cfg.Cfg,
	}

	s.setupMiddleware(cfg.Cfg.DevMode)
	s.setupRoutes(cfg)

	s.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Cfg.Port),
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes(cfg Config) {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Public auth routes (register, login)
		cfg.AuthHandler.RegisterRoutes(r)

		// Everything else requires a valid token
		r.Group(func(r chi.Router) {
			r.Use(cfg.AuthService.Middleware)

			cfg.AuthHandler.RegisterProtectedRoutes(r)
			cfg.PortfolioHandler.RegisterRoutes(r)
			cfg.RiskHandler.RegisterRoutes(r)
			cfg.AnalyticsHandler.RegisterRoutes(r)

			// Live event delivery: SSE stream plus a websocket for clients
			// that need bidirectional keepalive
			eventsStream := NewEventsStreamHandler(cfg.EventBus, s.log)
			r.Get("/events/stream", eventsStream.ServeHTTP)

			eventsWS := NewEventsWebsocketHandler(cfg.EventBus, s.log)
			r.Get("/events/ws", eventsWS.ServeHTTP)

			cfg.SystemHandlers.RegisterRoutes(r)
		})
	})
}

// handleHealth handles GET /health
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// Router exposes the router, used by tests
func (s *Server) Router() chi.Router {
	return s.router
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
