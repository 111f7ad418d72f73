package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
	"github.com/BowmanStephen/rep-co-pilot/middleware"
	"github.com/BowmanStephen/rep-co-pilot/models"
	compliancesvc "github.com/BowmanStephen/rep-co-pilot/services/compliance"
	"github.com/BowmanStephen/rep-co-pilot/utils"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// SpendRequest is the spend part of a check or meal-spend request
type SpendRequest struct {
	ProposedAmount  float64 `json:"proposedAmount" validate:"gte=0"`
	HCPCount        int     `json:"hcpCount" validate:"min=1"`
	VenueHint       string  `json:"venueHint,omitempty" validate:"max=200"`
	YTDAmountForHCP float64 `json:"ytdAmountForHcp" validate:"gte=0"`
}

func (s *SpendRequest) toInput() *compliance.SpendCheckInput {
	if s == nil {
		return nil
	}
	return &compliance.SpendCheckInput{
		ProposedAmount:  s.ProposedAmount,
		HCPCount:        s.HCPCount,
		VenueHint:       s.VenueHint,
		YTDAmountForHCP: s.YTDAmountForHCP,
	}
}

// CheckRequest represents a request to classify a query. Text may be empty when
// only a spend check is wanted.
type CheckRequest struct {
	Text  string        `json:"text" validate:"max=4000"`
	Spend *SpendRequest `json:"spend,omitempty"`
	HCPID string        `json:"hcpId,omitempty" validate:"max=64"`
}

// MealSpendRequest represents a request to evaluate a proposed meal
type MealSpendRequest struct {
	ProposedAmount  float64 `json:"proposedAmount" validate:"gte=0"`
	HCPCount        int     `json:"hcpCount" validate:"min=1"`
	VenueHint       string  `json:"venueHint,omitempty" validate:"max=200"`
	YTDAmountForHCP float64 `json:"ytdAmountForHcp" validate:"gte=0"`
	HCPID           string  `json:"hcpId,omitempty" validate:"max=64"`
}

// ConcernRequest represents a rep-submitted compliance concern
type ConcernRequest struct {
	Type         string `json:"type" validate:"required,oneof=meal_spend speaker_honorarium off_label adverse_event medical_information other"`
	Description  string `json:"description" validate:"required,notblank,max=2000"`
	Severity     string `json:"severity,omitempty" validate:"omitempty,oneof=low medium high"`
	RelatedQuery string `json:"relatedQuery,omitempty" validate:"max=4000"`
	HCPID        string `json:"hcpId,omitempty" validate:"max=64"`
}

// PolicyListResponse represents the active catalog in API responses
type PolicyListResponse struct {
	Policies []compliance.PolicyLimit `json:"policies"`
	Count    int                      `json:"count"`
}

// PolicyUpdatesResponse represents recent policy changes in API responses
type PolicyUpdatesResponse struct {
	Updates []compliancesvc.PolicyUpdate `json:"updates"`
	Count   int                          `json:"count"`
}

// ComplianceService defines the compliance operations the handler needs
type ComplianceService interface {
	Check(ctx context.Context, in compliancesvc.CheckInput) (*compliancesvc.CheckResult, error)
	EvaluateMealSpend(ctx context.Context, in compliance.SpendCheckInput, hcpID string) (*compliance.SpendCheckResult, error)
	ListPolicies() []compliance.PolicyLimit
	GetPolicy(key string) (*compliance.PolicyLimit, error)
	PolicyUpdates(limit int) []compliancesvc.PolicyUpdate
	GetProcedure(name string) (*compliancesvc.Procedure, error)
	LogConcern(ctx context.Context, in compliancesvc.ConcernInput) (*models.ComplianceConcern, error)
}

// ComplianceHandler handles compliance-related HTTP requests
type ComplianceHandler struct {
	svc    ComplianceService
	logger *zap.Logger
}

// NewComplianceHandler creates a new ComplianceHandler
func NewComplianceHandler(svc ComplianceService, logger *zap.Logger) *ComplianceHandler {
	return &ComplianceHandler{
		svc:    svc,
		logger: logger,
	}
}

// HandleCheck handles POST /api/v1/compliance/check
func (h *ComplianceHandler) HandleCheck(w http.ResponseWriter, r *http.Request) {
	var req CheckRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.svc.Check(r.Context(), compliancesvc.CheckInput{
		Text:  req.Text,
		Spend: req.Spend.toInput(),
		HCPID: req.HCPID,
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// HandleMealSpend handles POST /api/v1/compliance/meal-spend
func (h *ComplianceHandler) HandleMealSpend(w http.ResponseWriter, r *http.Request) {
	var req MealSpendRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	result, err := h.svc.EvaluateMealSpend(r.Context(), compliance.SpendCheckInput{
		ProposedAmount:  req.ProposedAmount,
		HCPCount:        req.HCPCount,
		VenueHint:       req.VenueHint,
		YTDAmountForHCP: req.YTDAmountForHCP,
	}, req.HCPID)
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteOK(w, result)
}

// HandleListPolicies handles GET /api/v1/compliance/policies
func (h *ComplianceHandler) HandleListPolicies(w http.ResponseWriter, r *http.Request) {
	policies := h.svc.ListPolicies()
	_ = utils.WriteOK(w, PolicyListResponse{Policies: policies, Count: len(policies)})
}

// HandleGetPolicy handles GET /api/v1/compliance/policies/{category}
func (h *ComplianceHandler) HandleGetPolicy(w http.ResponseWriter, r *http.Request) {
	policy, err := h.svc.GetPolicy(chi.URLParam(r, "category"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, policy)
}

// HandlePolicyUpdates handles GET /api/v1/compliance/policy-updates?limit=n
func (h *ComplianceHandler) HandlePolicyUpdates(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if s := r.URL.Query().Get("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			_ = utils.WriteBadRequest(w, "limit must be a non-negative integer", nil)
			return
		}
		limit = n
	}

	updates := h.svc.PolicyUpdates(limit)
	_ = utils.WriteOK(w, PolicyUpdatesResponse{Updates: updates, Count: len(updates)})
}

// HandleGetProcedure handles GET /api/v1/compliance/procedures/{name}
func (h *ComplianceHandler) HandleGetProcedure(w http.ResponseWriter, r *http.Request) {
	proc, err := h.svc.GetProcedure(chi.URLParam(r, "name"))
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}
	_ = utils.WriteOK(w, proc)
}

// HandleLogConcern handles POST /api/v1/compliance/concerns
func (h *ComplianceHandler) HandleLogConcern(w http.ResponseWriter, r *http.Request) {
	var req ConcernRequest
	if !decodeAndValidate(w, r, &req, h.logger) {
		return
	}

	concern, err := h.svc.LogConcern(r.Context(), compliancesvc.ConcernInput{
		Type:         req.Type,
		Description:  req.Description,
		Severity:     models.ConcernSeverity(req.Severity),
		RelatedQuery: req.RelatedQuery,
		HCPID:        req.HCPID,
		RequestID:    middleware.GetRequestIDFromContext(r.Context()),
	})
	if err != nil {
		HandleServiceError(w, err, h.logger)
		return
	}

	_ = utils.WriteCreated(w, concern)
}
