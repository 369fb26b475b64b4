package api

import (
	"net/http"

	"github.com/Rrens/onboarding-agent/internal/api/handler"
	customMiddleware "github.com/Rrens/onboarding-agent/internal/api/middleware"
	"github.com/Rrens/onboarding-agent/internal/config"
	"github.com/Rrens/onboarding-agent/internal/llm"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Dependencies are the services the HTTP API is served from
type Dependencies struct {
	Chat      handler.ChatService
	Employees handler.EmployeeService
	LLM       *llm.Router

	// Limiter is optional; thread routes are unlimited without it
	Limiter customMiddleware.Limiter

	// Ready lists the backing services checked by /ready
	Ready map[string]handler.Pinger
}

// NewRouter creates and configures the HTTP router
func NewRouter(cfg *config.Config, deps Dependencies) http.Handler {
	r := chi.NewRouter()

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(customMiddleware.Logger)
	r.Use(middleware.Recoverer)
	if cfg.Server.MiddlewareTimeout > 0 {
		r.Use(middleware.Timeout(cfg.Server.MiddlewareTimeout))
	}

	// CORS
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type"},
		ExposedHeaders:   []string{"X-Request-ID", "X-RateLimit-Remaining", "X-RateLimit-Reset"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	chatHandler := handler.NewChatHandler(deps.Chat)
	employeeHandler := handler.NewEmployeeHandler(deps.Employees)

	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/health", handler.HealthCheck)
		r.Get("/ready", handler.ReadyCheck(deps.Ready))
		if deps.LLM != nil {
			r.Get("/llm-providers", handler.ListLLMProviders(deps.LLM))
		}

		r.Route("/threads/{threadID}", func(r chi.Router) {
			if deps.Limiter != nil && cfg.RateLimit.Enabled {
				r.Use(customMiddleware.NewRateLimitMiddleware(deps.Limiter).LimitThread)
			}

			r.Get("/", chatHandler.GetThread)
			r.Post("/messages", chatHandler.PostMessage)

			if deps.Employees != nil {
				r.Route("/employee", func(r chi.Router) {
					r.Get("/", employeeHandler.Get)
					r.Patch("/", employeeHandler.Update)
					r.Post("/confirm", employeeHandler.Confirm)
				})
			}
		})
	})

	return r
}
