// Package server provides the HTTP server and routing for Folio.
package server

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/folio/internal/di"
	ledgerhandlers "github.com/aristath/folio/internal/modules/ledger/handlers"
	portfoliohandlers "github.com/aristath/folio/internal/modules/portfolio/handlers"
	priceshandlers "github.com/aristath/folio/internal/modules/prices/handlers"
	tickershandlers "github.com/aristath/folio/internal/modules/tickers/handlers"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Port      int
	DevMode   bool
	Container *di.Container

	// AllowedOrigins for CORS and the events websocket, empty allows any origin
	AllowedOrigins []string
}

// Server represents the HTTP server
type Server struct {
	router    *chi.Mux
	server    *http.Server
	log       zerolog.Logger
	port      int
	container *di.Container

	systemHandlers *SystemHandlers
	eventsStream   *EventsStreamHandler
	backupHandlers *BackupHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	c := cfg.Container

	var jobs JobLister
	if c.Scheduler != nil {
		jobs = c.Scheduler
	}

	s := &Server{
		router:    chi.NewRouter(),
		log:       cfg.Log.With().Str("component", "server").Logger(),
		port:      cfg.Port,
		container: c,
		systemHandlers: NewSystemHandlers(
			c.Config,
			c.Databases(),
			jobs,
			c.EventBus,
			cfg.Log,
		),
		eventsStream: NewEventsStreamHandler(c.EventBus, websocketOrigins(cfg.AllowedOrigins), cfg.Log),
	}
	if c.BackupService != nil {
		s.backupHandlers = NewBackupHandlers(c.BackupService, cfg.Log)
	}

	s.setupMiddleware(cfg.AllowedOrigins)
	s.setupRoutes(cfg.DevMode)

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 0, // bulk refreshes and the event stream outlive any fixed write deadline
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the root HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) setupMiddleware(allowedOrigins []string) {
	// Recovery from panics
	s.router.Use(middleware.Recoverer)

	// Request ID
	s.router.Use(middleware.RequestID)

	// Real IP
	s.router.Use(middleware.RealIP)

	// Logging
	s.router.Use(s.loggingMiddleware)

	if len(allowedOrigins) == 0 {
		allowedOrigins = []string{"*"}
	}
	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Link"},
		MaxAge:         300,
	}))
}

func (s *Server) setupRoutes(devMode bool) {
	c := s.container

	s.router.Get("/health", s.systemHandlers.HandleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Websocket stays outside the timeout and compression middleware
		r.Get("/events/ws", s.eventsStream.ServeHTTP)

		r.Group(func(r chi.Router) {
			// A holdings refresh pauses between symbols, so this is generous
			r.Use(middleware.Timeout(5 * time.Minute))
			if !devMode {
				r.Use(middleware.Compress(5))
			}

			r.Get("/system/status", s.systemHandlers.HandleSystemStatus)

			ledgerhandlers.NewHandler(c.LedgerService, s.log).RegisterRoutes(r)
			priceshandlers.NewHandler(c.PriceService, c.PortfolioService, s.log).RegisterRoutes(r)
			tickershandlers.NewHandler(c.TickerValidator, c.PortfolioService, s.log).RegisterRoutes(r)
			portfoliohandlers.NewHandler(c.PortfolioService, c.AllocationService, s.log).RegisterRoutes(r)

			if s.backupHandlers != nil {
				s.backupHandlers.RegisterRoutes(r)
			}
		})
	})
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		event := s.log.Info()
		if r.URL.Path == "/health" {
			event = s.log.Debug()
		}
		event.
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}

// websocketOrigins converts CORS origins to websocket origin patterns.
// "*" accepts any origin.
func websocketOrigins(allowed []string) []string {
	if len(allowed) == 0 {
		return []string{"*"}
	}
	patterns := make([]string, 0, len(allowed))
	for _, origin := range allowed {
		origin = strings.TrimPrefix(strings.TrimPrefix(origin, "https://"), "http://")
		if origin != "" {
			patterns = append(patterns, origin)
		}
	}
	return patterns
}
