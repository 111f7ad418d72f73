package handlers

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
	"github.com/BowmanStephen/rep-co-pilot/utils"
	"go.uber.org/zap"
)

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp string            `json:"timestamp"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// DatabaseChecker pings the backing store
type DatabaseChecker interface {
	HealthCheck(ctx context.Context) error
}

// HealthHandler handles health-related HTTP requests
type HealthHandler struct {
	db         DatabaseChecker
	catalog    compliance.CatalogSource
	dataSource string
	logger     *zap.Logger
}

// NewHealthHandler creates a new HealthHandler. db is nil when running on mock data.
func NewHealthHandler(db DatabaseChecker, catalog compliance.CatalogSource, dataSource string, logger *zap.Logger) *HealthHandler {
	return &HealthHandler{
		db:         db,
		catalog:    catalog,
		dataSource: dataSource,
		logger:     logger,
	}
}

// HandleHealth handles GET /healthz
// Basic health check - always returns 200 if service is running
func (h *HealthHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "healthy",
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	_ = utils.WriteOK(w, response)
}

// HandleReadiness handles GET /readyz
// Readiness check - the policy catalog must be loaded and, in live mode, the database reachable
func (h *HealthHandler) HandleReadiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	checks := map[string]string{"data_source": h.dataSource}
	allHealthy := true

	if h.db == nil {
		checks["database"] = "not_configured"
	} else if err := h.db.HealthCheck(ctx); err != nil {
		h.logger.Warn("database health check failed", zap.Error(err))
		checks["database"] = "unhealthy"
		allHealthy = false
	} else {
		checks["database"] = "healthy"
	}

	if h.catalog == nil || h.catalog.Load() == nil || h.catalog.Load().Len() == 0 {
		checks["policy_catalog"] = "empty"
		allHealthy = false
	} else {
		checks["policy_catalog"] = strconv.Itoa(h.catalog.Load().Len()) + " policies"
	}

	status := "healthy"
	httpStatus := http.StatusOK
	if !allHealthy {
		status = "unhealthy"
		httpStatus = http.StatusServiceUnavailable
	}

	response := HealthResponse{
		Status:    status,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Checks:    checks,
	}

	if err := utils.WriteJSON(w, httpStatus, utils.SuccessResponse{Data: response}); err != nil {
		h.logger.Error("failed to write readiness response", zap.Error(err))
	}
}
