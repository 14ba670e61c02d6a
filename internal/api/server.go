// Package api exposes the merchant dashboard REST surface: business hours
// and live status, booking creation (including recurring series), and
// booking export.
package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"bookery/internal/config"
	"bookery/internal/database"
	"bookery/internal/events"
	"bookery/internal/export"
	"bookery/internal/recurrence"
)

// Server wires the HTTP handlers to storage and the event bus.
type Server struct {
	db       *database.DB
	bus      *events.Bus
	cfg      *config.Config
	exports  *export.Service
	editors  *recurrence.EditorStore
	logger   *zerolog.Logger
	validate *validator.Validate
}

// NewServer builds the API server.
func NewServer(db *database.DB, bus *events.Bus, cfg *config.Config, exports *export.Service, logger *zerolog.Logger) *Server {
	return &Server{
		db:       db,
		bus:      bus,
		cfg:      cfg,
		exports:  exports,
		editors:  recurrence.NewEditorStore(cfg.EditorTimeout()),
		logger:   logger,
		validate: validator.New(),
	}
}

// Router assembles the chi router with middleware and all routes.
func (s *Server) Router() chi.Router {
	r := chi.NewRouter()

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.allowedOrigins(),
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		MaxAge:         300,
	}))
	r.Use(s.requestLogger)
	r.Use(s.rateLimiter())

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/merchants/{merchantID}", func(r chi.Router) {
			r.Get("/status", s.handleBusinessStatus)
			r.Get("/hours", s.handleGetHours)
			r.Put("/hours", s.handleReplaceHours)
			r.Get("/bookings", s.handleListBookings)
			r.Post("/bookings", s.handleCreateBooking)
			r.Get("/bookings/export", s.handleExportBookings)
		})
		r.Delete("/bookings/{publicID}", s.handleCancelBooking)
		r.Post("/recurrence/preview", s.handleRecurrencePreview)
		r.Route("/recurrence/sessions/{userID}", func(r chi.Router) {
			r.Post("/", s.handleEditorEnable)
			r.Get("/", s.handleEditorState)
			r.Patch("/", s.handleEditorUpdate)
			r.Post("/submit", s.handleEditorSubmit)
			r.Delete("/", s.handleEditorCancel)
		})
	})

	return r
}

// EditorCleanupLoop periodically drops expired recurrence editor sessions
// until ctx is cancelled.
func (s *Server) EditorCleanupLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if removed := s.editors.Cleanup(); removed > 0 {
				s.logger.Debug().Int("removed", removed).Msg("expired editor sessions dropped")
			}
		}
	}
}

func (s *Server) allowedOrigins() []string {
	if len(s.cfg.Server.AllowedOrigins) == 0 {
		return []string{"*"}
	}
	return s.cfg.Server.AllowedOrigins
}

// requestLogger logs each request with latency.
func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		s.logger.Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Dur("elapsed", time.Since(start)).
			Msg("request")
	})
}

// rateLimiter applies a process-wide token bucket to all API traffic.
func (s *Server) rateLimiter() func(http.Handler) http.Handler {
	perSecond := s.cfg.Server.RatePerSecond
	if perSecond <= 0 {
		perSecond = 50
	}
	burst := s.cfg.Server.RateBurst
	if burst <= 0 {
		burst = 100
	}
	limiter := rate.NewLimiter(rate.Limit(perSecond), burst)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !limiter.Allow() {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
