package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/replyflow/inbox/internal/middleware"
	"github.com/replyflow/inbox/pkg/logger"
)

// Handlers groups the endpoint handlers mounted by NewRouter.
type Handlers struct {
	Health        *HealthHandler
	Conversations *ConversationHandler
	Messages      *MessageHandler
	Suggestions   *SuggestionHandler
	Templates     *TemplateHandler
}

// RouterConfig holds the settings the router's middleware needs.
type RouterConfig struct {
	JWTSecret          string
	CORSAllowedOrigins []string
	RateLimitRequests  int
	RateLimitWindow    time.Duration
}

// NewRouter builds the API route table with its middleware stack.
func NewRouter(h Handlers, cfg RouterConfig, log *logger.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.Tracing)
	r.Use(middleware.Logging(log))
	r.Use(chimiddleware.Recoverer)
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// Health endpoints (no auth required)
	r.Get("/health", h.Health.Health)
	r.Get("/ready", h.Health.Ready)

	// Metrics endpoint
	r.Handle("/metrics", promhttp.Handler())

	// API routes with authentication
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWTSecret))
		r.Use(middleware.RateLimit(cfg.RateLimitRequests, cfg.RateLimitWindow))

		r.Route("/conversations", func(r chi.Router) {
			r.Get("/", h.Conversations.List)
			r.Post("/", h.Conversations.Create)
			r.Get("/unread", h.Conversations.Unread)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Conversations.Get)
				r.Put("/status", h.Conversations.UpdateStatus)
				r.Post("/read", h.Conversations.MarkAsRead)

				r.Get("/messages", h.Messages.List)
				r.Post("/messages", h.Messages.Send)

				// LLM-backed, so limited per agent as well
				r.Group(func(r chi.Router) {
					r.Use(middleware.AgentRateLimit(cfg.RateLimitRequests/4+1, cfg.RateLimitWindow))
					r.Get("/suggestions", h.Suggestions.List)
					r.Post("/suggestions/stream", h.Suggestions.Stream)
				})
			})
		})

		r.Route("/templates", func(r chi.Router) {
			r.Get("/", h.Templates.List)
			r.With(middleware.RequireScope(middleware.ScopeTemplatesWrite)).Post("/", h.Templates.Create)

			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", h.Templates.Get)
				r.Post("/render", h.Templates.Render)
				r.Get("/variables", h.Templates.Variables)

				r.Group(func(r chi.Router) {
					r.Use(middleware.RequireScope(middleware.ScopeTemplatesWrite))
					r.Put("/", h.Templates.Update)
					r.Delete("/", h.Templates.Delete)
				})
			})
		})

		r.Get("/analytics", h.Conversations.Analytics)
	})

	return r
}
