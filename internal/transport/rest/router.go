package rest

import (
	"database/sql"
	"log/slog"
	"net/http"

	"github.com/eslam-almahdy/RSS-1.0/internal/audit"
	"github.com/eslam-almahdy/RSS-1.0/internal/auth"
	"github.com/eslam-almahdy/RSS-1.0/internal/dependency"
	"github.com/eslam-almahdy/RSS-1.0/internal/prioritizer"
	"github.com/eslam-almahdy/RSS-1.0/internal/risk"
	"github.com/eslam-almahdy/RSS-1.0/internal/transport/middleware"
	"github.com/eslam-almahdy/RSS-1.0/internal/transport/swagger"
	"github.com/eslam-almahdy/RSS-1.0/internal/user"
	"github.com/go-chi/chi"
	chiMiddleware "github.com/go-chi/chi/middleware"
)

// Handlers bundles every HTTP surface the register exposes.
type Handlers struct {
	Auth        *auth.Handler
	User        *user.Handler
	Risk        *risk.Handler
	Dependency  *dependency.Handler
	Prioritizer *prioritizer.Handler
	Audit       *audit.Handler
}

func RegisterAllRoutes(router *chi.Mux, db *sql.DB, h Handlers, logger *slog.Logger) {
	healthHandler := NewHealthHandler(db)

	// Apply global middleware
	router.Use(middleware.CORS)
	router.Use(chiMiddleware.RequestID)
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging(logger))
	router.Use(middleware.Recovery(logger))

	// Serve OpenAPI spec at root (outside API prefix)
	router.Get("/openapi.yml", func(w http.ResponseWriter, r *http.Request) {
		http.ServeFile(w, r, "./api/openapi.yml")
	})
	// Swagger UI route at root
	router.Handle("/swagger/*", swagger.Handler())

	// Mount API under /api/v1 to match OpenAPI basePath
	router.Route("/api/v1", func(r chi.Router) {
		// Health check routes
		r.Get("/health", healthHandler.healthCheckHandler)
		r.Get("/ping", healthHandler.pingHandler)

		// Auth routes
		r.Route("/auth", func(sr chi.Router) {
			sr.Post("/login", h.Auth.Login)
			sr.Post("/logout", h.Auth.Logout)
			sr.Get("/session", h.Auth.Session)
		})

		// Protected routes that require an authenticated session
		r.Group(func(pr chi.Router) {
			pr.Use(h.Auth.AuthMiddleware)

			// User administration (manager-only checks live in the service)
			pr.Route("/users", func(ur chi.Router) {
				ur.Post("/", h.User.CreateUser)
				ur.Get("/", h.User.ListUsers)
				ur.Post("/{id}/unlock", h.User.UnlockUser)
				ur.Post("/{id}/deactivate", h.User.DeactivateUser)
			})

			// Register routes
			pr.Route("/risks", func(rr chi.Router) {
				rr.Post("/", h.Risk.CreateRisk)
				rr.Get("/", h.Risk.ListRisks)
				rr.Get("/prioritized", h.Prioritizer.Prioritized)
				rr.Get("/categorized", h.Prioritizer.Categorized)
				rr.Get("/{riskID}", h.Risk.GetRisk)
				rr.Put("/{riskID}", h.Risk.UpdateRisk)
				rr.Post("/{riskID}/close", h.Risk.CloseRisk)
				rr.Get("/{riskID}/history", h.Risk.RiskHistory)
				rr.Get("/{riskID}/chains", h.Dependency.RiskChains)
				rr.Get("/{riskID}/downstream", h.Dependency.Downstream)
				rr.Get("/{riskID}/upstream", h.Dependency.Upstream)
			})

			// Graph routes
			pr.Route("/dependencies", func(dr chi.Router) {
				dr.Post("/", h.Dependency.CreateDependency)
				dr.Get("/critical", h.Dependency.CriticalRisks)
				dr.Post("/amplified-impact", h.Dependency.AmplifiedImpact)
			})

			// Audit trail (manager-only check lives in the service)
			pr.Get("/audit", h.Audit.GetTrail)
		})
	})
}
