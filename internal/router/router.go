package router

import (
	"net/http"

	"address-rest-api/internal/handler"
	"address-rest-api/internal/middleware"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
)

// Config holds the configuration for creating a router.
type Config struct {
	Handler        *handler.Handler
	AddressHandler *handler.AddressHandler
	AdminHandler   *handler.AdminHandler
	AdminKey       string
}

// New creates and configures the HTTP router.
func New(cfg Config) *chi.Mux {
	r := chi.NewRouter()

	// Global middleware stack (applies to ALL routes)
	r.Use(middleware.Recovery)
	r.Use(middleware.RequestID)
	r.Use(middleware.Logging)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID", "X-Admin-Key"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	adminGuard := middleware.NewAdminKeyMiddleware(cfg.AdminKey)

	r.Route("/api", func(r chi.Router) {
		// Health check endpoints
		if cfg.Handler != nil {
			r.Get("/status", cfg.Handler.Status)
			r.Get("/health", cfg.Handler.Health)
			r.Get("/ready", cfg.Handler.Ready)
		}

		// Address endpoints
		if cfg.AddressHandler != nil {
			r.Route("/addresses", func(r chi.Router) {
				r.Post("/", cfg.AddressHandler.Create)
				r.Get("/", cfg.AddressHandler.List)
				r.Get("/user/{userId}", cfg.AddressHandler.ListByUser)

				// Administrative flush
				if cfg.AdminHandler != nil {
					r.Group(func(r chi.Router) {
						r.Use(adminGuard)
						r.Post("/clear-cache", cfg.AdminHandler.ClearCache)
					})
				}

				r.Route("/{id}", func(r chi.Router) {
					r.Get("/", cfg.AddressHandler.Get)
					r.Put("/", cfg.AddressHandler.Update)
					r.Delete("/", cfg.AddressHandler.Delete)
				})
			})
		}

		// Admin endpoints
		if cfg.AdminHandler != nil {
			r.Route("/admin", func(r chi.Router) {
				r.Use(adminGuard)
				r.Get("/stats", cfg.AdminHandler.GetStats)
			})
		}
	})

	r.NotFound(func(w http.ResponseWriter, req *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"code":"NOT_FOUND","message":"route not found"}}`))
	})

	return r
}
