package routes

import (
	"net/http"

	"github.com/BowmanStephen/rep-co-pilot/app"
	"github.com/BowmanStephen/rep-co-pilot/handlers"
	appmiddleware "github.com/BowmanStephen/rep-co-pilot/middleware"
	"github.com/BowmanStephen/rep-co-pilot/utils"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// SetupRoutes configures all application routes and middleware
func SetupRoutes(deps *app.Dependencies) http.Handler {
	r := chi.NewRouter()

	// Core middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(appmiddleware.RequestLogger(deps.Logger))
	r.Use(middleware.Recoverer)
	if timeout := deps.Config.Server.RequestTimeout; timeout > 0 {
		r.Use(middleware.Timeout(timeout))
	}

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   deps.Config.Server.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", appmiddleware.RequestIDHeader},
		ExposedHeaders:   []string{appmiddleware.RequestIDHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	// Health check endpoints
	var db handlers.DatabaseChecker
	if deps.DB != nil {
		db = deps.DB
	}
	health := handlers.NewHealthHandler(db, deps.Catalog, deps.DataService.Source(), deps.Logger)
	r.Get("/healthz", health.HandleHealth)
	r.Get("/readyz", health.HandleReadiness)

	if deps.Prometheus != nil {
		r.Handle("/metrics", deps.Prometheus.Handler())
	}

	compliance := handlers.NewComplianceHandler(deps.Compliance, deps.Logger)
	hcps := handlers.NewHCPHandler(deps.DataService, deps.Logger)
	chat := handlers.NewChatHandler(deps.Gateway, deps.Logger)

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		r.Route("/compliance", func(r chi.Router) {
			r.Post("/check", compliance.HandleCheck)
			r.Post("/meal-spend", compliance.HandleMealSpend)
			r.Get("/policies", compliance.HandleListPolicies)
			r.Get("/policies/{category}", compliance.HandleGetPolicy)
			r.Get("/policy-updates", compliance.HandlePolicyUpdates)
			r.Get("/procedures/{name}", compliance.HandleGetProcedure)
			r.Post("/concerns", compliance.HandleLogConcern)
		})

		r.Get("/hcps", hcps.HandleListHCPs)
		r.Get("/hcps/{id}", hcps.HandleGetHCP)

		r.Post("/chat", chat.HandleChat)
		r.Post("/enhance-prompt", chat.HandleEnhancePrompt)
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteNotFound(w, "endpoint not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		_ = utils.WriteError(w, http.StatusMethodNotAllowed, "method not allowed", nil)
	})

	return r
}
