package router

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/chimehq/roi-intake/internal/health"
	httpmiddleware "github.com/chimehq/roi-intake/internal/http/middleware"
	"github.com/chimehq/roi-intake/internal/submissions"
	"github.com/chimehq/roi-intake/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	SubmissionsHandler *submissions.Handler
	HealthHandler      *health.Handler
	MetricsHandler     http.Handler

	AdminJWTSecret     string
	CORSAllowedOrigins []string

	// Rate limiting for the public intake endpoints. A nil RateLimiter
	// disables it.
	RateLimiter          httpmiddleware.Limiter
	RateLimitMaxRequests int
	RateLimitWindow      time.Duration
	OnRateLimited        httpmiddleware.RateLimited
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))
	r.Use(httpmiddleware.SecurityHeaders)
	if len(cfg.CORSAllowedOrigins) > 0 {
		r.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
	}
	if cfg.Logger != nil {
		r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	}

	// Public endpoints (health check, metrics)
	r.Group(func(public chi.Router) {
		if cfg.HealthHandler != nil {
			public.Get("/health", cfg.HealthHandler.Check)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Public intake endpoints, rate limited per client IP
	r.Route("/api/roi-calculator", func(api chi.Router) {
		if cfg.RateLimiter != nil {
			api.Use(httpmiddleware.RateLimit(cfg.RateLimiter, cfg.RateLimitMaxRequests, cfg.RateLimitWindow, cfg.OnRateLimited))
		}
		api.Post("/calculate", cfg.SubmissionsHandler.Calculate)
		api.Post("/submit", cfg.SubmissionsHandler.Submit)
	})

	// Admin routes (protected by HMAC JWT)
	if cfg.AdminJWTSecret != "" {
		r.Route("/admin", func(admin chi.Router) {
			admin.Use(httpmiddleware.AdminJWT(cfg.AdminJWTSecret))
			admin.Get("/submissions", cfg.SubmissionsHandler.ListSubmissions)
			admin.Get("/submissions/{id}", cfg.SubmissionsHandler.GetSubmission)
		})
	}

	return r
}
