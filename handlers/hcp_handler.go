package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/models"
	"github.com/BowmanStephen/rep-co-pilot/services/data"
	"github.com/BowmanStephen/rep-co-pilot/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

const (
	defaultHCPListLimit = 10
	maxHCPListLimit     = 100
)

// HCPHandler handles healthcare provider lookups
type HCPHandler struct {
	data   data.Service
	logger *zap.Logger
	now    func() time.Time
}

// NewHCPHandler creates a new HCPHandler
func NewHCPHandler(dataSvc data.Service, logger *zap.Logger) *HCPHandler {
	return &HCPHandler{
		data:   dataSvc,
		logger: logger,
		now:    time.Now,
	}
}

// HandleGetHCP handles GET /api/v1/hcps/{id}
func (h *HCPHandler) HandleGetHCP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "id")

	hcp, err := h.data.GetHCP(ctx, id)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	spend, err := h.data.GetSpendSummary(ctx, hcp.ID, h.now().Year())
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, models.HCPProfile{Provider: *hcp, Spend: *spend})
}

// HandleListHCPs handles GET /api/v1/hcps?limit=n, highest priority first
func (h *HCPHandler) HandleListHCPs(w http.ResponseWriter, r *http.Request) {
	limit := defaultHCPListLimit
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 1 || n > maxHCPListLimit {
			_ = utils.WriteBadRequest(w, "limit must be between 1 and 100", nil)
			return
		}
		limit = n
	}

	hcps, err := h.data.TopHCPs(r.Context(), limit)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, map[string]interface{}{
		"hcps":   hcps,
		"count":  len(hcps),
		"source": h.data.Source(),
	})
}
