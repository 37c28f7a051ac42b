package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/localloop/backend/app"
	"github.com/localloop/backend/models"
	"github.com/localloop/backend/obs"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))
	r.Use(obs.Instrument)

	// CORS middleware
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:*", "https://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Tenant-ID"},
		ExposedHeaders:   []string{"Link", "X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Operational endpoints
	r.Get("/healthz", deps.HealthHandler.HandleHealth)
	r.Get("/readyz", deps.HealthHandler.HandleReadiness)
	r.Method(http.MethodGet, "/metrics", obs.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Auth endpoints. Register, login and refresh are public; the
		// credential in the body is the authentication.
		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", deps.AuthHandler.HandleRegister)
			r.Post("/login", deps.AuthHandler.HandleLogin)
			r.Post("/refresh", deps.AuthHandler.HandleRefresh)

			r.Group(func(r chi.Router) {
				r.Use(deps.TenantMiddleware.ResolveTenant)
				r.Use(deps.TenantMiddleware.RequireAuth)
				r.Post("/logout", deps.AuthHandler.HandleLogout)
			})
		})

		// Tenant provisioning. Tenants exist before any of their users do,
		// so this surface sits outside tenant resolution.
		r.Route("/tenants", func(r chi.Router) {
			r.Post("/", deps.TenantHandler.HandleCreate)
			r.Get("/{id}", deps.TenantHandler.HandleGet)
		})

		// Security audit trail, readable by tenant admins only.
		r.Route("/audit", func(r chi.Router) {
			r.Use(deps.TenantMiddleware.ResolveTenant)
			r.Use(deps.TenantMiddleware.RequireAuth)
			r.Use(deps.TenantMiddleware.RequireRole(models.RoleAdmin))
			r.Get("/", deps.AuditHandler.HandleList)
		})

		// Tenant-scoped listings. Reads work with any resolved scope
		// (including the development header); writes require a verified
		// principal.
		r.Route("/listings", func(r chi.Router) {
			r.Use(deps.TenantMiddleware.ResolveTenant)

			r.Get("/", deps.ListingHandler.HandleList)
			r.Get("/{id}", deps.ListingHandler.HandleGet)

			r.Group(func(r chi.Router) {
				r.Use(deps.TenantMiddleware.RequireAuth)
				r.Post("/", deps.ListingHandler.HandleCreate)
				r.Patch("/{id}", deps.ListingHandler.HandleUpdate)
				r.Delete("/{id}", deps.ListingHandler.HandleDelete)
			})
		})
	})

	return r
}
