package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"event-registration-platform/internal/middleware"
)

// RouterConfig bundles everything the router needs
type RouterConfig struct {
	Auth          *AuthHandler
	Events        *EventHandler
	Products      *ProductHandler
	Registrations *RegistrationHandler
	Orders        *OrderHandler
	Certificates  *CertificateHandler
	AuthMW        *middleware.AuthMiddleware
}

// NewRouter builds the API router
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.LoggingMiddleware)
	r.Use(middleware.ErrorHandlingMiddleware)
	r.Use(middleware.CORSMiddleware(middleware.DefaultCORSConfig()))
	r.Use(cfg.AuthMW.LoadUser)

	r.NotFound(middleware.NotFoundHandler().ServeHTTP)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", cfg.Auth.Register)
			r.Post("/login", cfg.Auth.Login)
			r.Post("/logout", cfg.Auth.Logout)

			r.Group(func(r chi.Router) {
				r.Use(cfg.AuthMW.RequireAuth)
				r.Get("/me", cfg.Auth.Me)
				r.Post("/password", cfg.Auth.ChangePassword)
			})
		})

		r.Route("/events", func(r chi.Router) {
			r.Get("/", cfg.Events.List)
			r.Get("/{id}", cfg.Events.Get)
			r.Get("/{id}/products", cfg.Products.ListByEvent)

			r.Group(func(r chi.Router) {
				r.Use(cfg.AuthMW.RequireAuth)
				r.Post("/", cfg.Events.Create)
				r.Get("/mine", cfg.Events.ListMine)
				r.Put("/{id}", cfg.Events.Update)
				r.Post("/{id}/products", cfg.Products.Create)
				r.Get("/{id}/registrations", cfg.Registrations.ListByEvent)
			})
		})

		r.Route("/products", func(r chi.Router) {
			r.Get("/{id}", cfg.Products.Get)

			r.Group(func(r chi.Router) {
				r.Use(cfg.AuthMW.RequireAuth)
				r.Put("/{id}", cfg.Products.Update)
				r.Delete("/{id}", cfg.Products.Archive)
				r.Post("/{id}/variants", cfg.Products.AddVariant)
			})
		})

		r.Route("/registrations", func(r chi.Router) {
			r.Use(cfg.AuthMW.RequireAuth)

			r.Post("/", cfg.Registrations.Create)
			r.Get("/{id}", cfg.Registrations.Get)
			r.Patch("/{id}", cfg.Registrations.Patch)
			r.Put("/{id}/status", cfg.Registrations.UpdateStatus)
			r.Get("/{id}/log", cfg.Registrations.GetLog)

			r.Post("/{id}/products", cfg.Registrations.SetProducts)
			r.Get("/{id}/products", cfg.Registrations.GetProducts)
			r.Post("/{id}/orders", cfg.Registrations.CreateOrder)
			r.Get("/{id}/orders", cfg.Registrations.ListOrders)

			r.Post("/{id}/certificate", cfg.Certificates.Issue)
		})

		r.Route("/orders", func(r chi.Router) {
			r.Use(cfg.AuthMW.RequireAuth)
			r.Get("/{id}", cfg.Orders.Get)
			r.Put("/{id}/status", cfg.Orders.UpdateStatus)
		})

		r.Route("/certificates", func(r chi.Router) {
			r.Get("/verify/{code}", cfg.Certificates.Verify)

			r.Group(func(r chi.Router) {
				r.Use(cfg.AuthMW.RequireAuth)
				r.Get("/{id}/download", cfg.Certificates.Download)
			})
		})
	})

	return r
}
