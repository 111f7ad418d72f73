package handlers

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/BowmanStephen/rep-co-pilot/internal/coaching"
	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
	"github.com/BowmanStephen/rep-co-pilot/models"
	"github.com/BowmanStephen/rep-co-pilot/services"
	compliancesvc "github.com/BowmanStephen/rep-co-pilot/services/compliance"
	"github.com/BowmanStephen/rep-co-pilot/services/data"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func newComplianceRouter(t *testing.T, dataSvc data.Service) http.Handler {
	t.Helper()
	holder := compliance.NewHolder(compliance.DefaultCatalog())
	svc := compliancesvc.NewService(compliance.NewEngineWithSource(holder), coaching.NewCardPresenter(holder), dataSvc, nil, zap.NewNop())
	h := NewComplianceHandler(svc, zap.NewNop())

	r := chi.NewRouter()
	r.Post("/check", h.HandleCheck)
	r.Post("/meal-spend", h.HandleMealSpend)
	r.Get("/policies", h.HandleListPolicies)
	r.Get("/policies/{category}", h.HandleGetPolicy)
	r.Get("/policy-updates", h.HandlePolicyUpdates)
	r.Get("/procedures/{name}", h.HandleGetProcedure)
	r.Post("/concerns", h.HandleLogConcern)
	return r
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestComplianceHandler_Check(t *testing.T) {
	router := newComplianceRouter(t, data.NewMockService())

	t.Run("off-label query is a stop decision", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/check", `{"text":"Can I mention off-label dosing for Lynparza?"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		decision := data["decision"].(map[string]interface{})
		assert.Equal(t, "stop", decision["level"])
		assert.Equal(t, "off_label", decision["primaryCategory"])
		assert.Contains(t, decision["approvalWorkflow"], "MIR Process")
		card := data["card"].(map[string]interface{})
		assert.Equal(t, true, card["blocking"])
	})

	t.Run("spend with hcp lookup", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/check",
			`{"text":"Lunch with Dr. Rodriguez","spend":{"proposedAmount":60,"hcpCount":1},"hcpId":"HCP-004"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		decision := decodeData(t, w)["decision"].(map[string]interface{})
		assert.Equal(t, "warning", decision["level"])
		spend := decision["spend"].(map[string]interface{})
		assert.InDelta(t, 1380.0, spend["annualTotal"], 0.001)
	})

	t.Run("validation errors", func(t *testing.T) {
		tests := []struct {
			name      string
			body      string
			wantField string
		}{
			{"text too long", `{"text":"` + strings.Repeat("a", 4001) + `"}`, "text"},
			{"negative amount", `{"text":"dinner","spend":{"proposedAmount":-5,"hcpCount":1}}`, "spend.proposedAmount"},
			{"zero hcp count", `{"text":"dinner","spend":{"proposedAmount":50,"hcpCount":0}}`, "spend.hcpCount"},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				w := do(t, router, http.MethodPost, "/check", tt.body)
				assert.Equal(t, http.StatusBadRequest, w.Code)
				assert.Contains(t, w.Body.String(), tt.wantField)
			})
		}
	})

	t.Run("empty text with clean spend is compliant", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/check",
			`{"text":"","spend":{"proposedAmount":0,"hcpCount":1,"ytdAmountForHcp":0}}`)

		assert.Equal(t, http.StatusOK, w.Code)
		decision := decodeData(t, w)["decision"].(map[string]interface{})
		assert.Equal(t, "info", decision["level"])
		assert.Equal(t, true, decision["isCompliant"])
		assert.Empty(t, decision["warnings"])
	})

	t.Run("empty body is an info decision", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/check", `{}`)

		assert.Equal(t, http.StatusOK, w.Code)
		decision := decodeData(t, w)["decision"].(map[string]interface{})
		assert.Equal(t, "info", decision["level"])
	})

	t.Run("unknown field rejected", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/check", `{"text":"hi","tab":"crm"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown hcp", func(t *testing.T) {
		w := do(t, router, http.MethodPost, "/check",
			`{"text":"lunch","spend":{"proposedAmount":40,"hcpCount":1},"hcpId":"HCP-404"}`)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestComplianceHandler_Check_Unavailable(t *testing.T) {
	router := newComplianceRouter(t, failingData{err: services.WrapUnavailable("data source", errors.New("db down"))})

	w := do(t, router, http.MethodPost, "/check",
		`{"text":"dinner","spend":{"proposedAmount":100,"hcpCount":1},"hcpId":"HCP-001"}`)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestComplianceHandler_MealSpend(t *testing.T) {
	router := newComplianceRouter(t, data.NewMockService())

	w := do(t, router, http.MethodPost, "/meal-spend",
		`{"proposedAmount":500,"hcpCount":2,"venueHint":"The Capital Grille"}`)

	assert.Equal(t, http.StatusOK, w.Code)
	result := decodeData(t, w)
	assert.InDelta(t, 250.0, result["perHcpAmount"], 0.001)
	assert.Equal(t, false, result["withinLimit"])
	assert.InDelta(t, 125.0, result["overageAmount"], 0.001)
	assert.Equal(t, true, result["expensiveVenue"])

	w = do(t, router, http.MethodPost, "/meal-spend", `{"proposedAmount":100}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestComplianceHandler_Policies(t *testing.T) {
	router := newComplianceRouter(t, data.NewMockService())

	t.Run("list", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/policies", "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, float64(5), data["count"])
		first := data["policies"].([]interface{})[0].(map[string]interface{})
		assert.Equal(t, "meal_spend", first["category"])
	})

	t.Run("get by category", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/policies/speaker_honorarium", "")
		assert.Equal(t, http.StatusOK, w.Code)
		policy := decodeData(t, w)
		assert.Equal(t, "POL-002", policy["id"])
		assert.Equal(t, true, policy["approvalRequired"])
	})

	t.Run("unknown category", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/policies/gifts", "")
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), `"policy":"gifts"`)
	})

	t.Run("updates with limit", func(t *testing.T) {
		w := do(t, router, http.MethodGet, "/policy-updates?limit=2", "")
		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, float64(2), data["count"])

		w = do(t, router, http.MethodGet, "/policy-updates?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestComplianceHandler_Procedures(t *testing.T) {
	router := newComplianceRouter(t, data.NewMockService())

	w := do(t, router, http.MethodGet, "/procedures/adverse-event", "")
	assert.Equal(t, http.StatusOK, w.Code)
	proc := decodeData(t, w)
	assert.Equal(t, "Adverse Event Reporting", proc["title"])
	assert.NotEmpty(t, proc["steps"])

	w = do(t, router, http.MethodGet, "/procedures/gifts", "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestComplianceHandler_LogConcern(t *testing.T) {
	router := newComplianceRouter(t, data.NewMockService())

	w := do(t, router, http.MethodPost, "/concerns",
		`{"type":"meal_spend","description":"Team dinner may exceed the per-HCP limit","severity":"high","hcpId":"HCP-002"}`)

	assert.Equal(t, http.StatusCreated, w.Code)
	concern := decodeData(t, w)
	assert.True(t, strings.HasPrefix(concern["id"].(string), "CONCERN-"))
	assert.Equal(t, "Under Review", concern["status"])
	assert.Equal(t, "high", concern["severity"])

	w = do(t, router, http.MethodPost, "/concerns", `{"type":"gifts","description":"x"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "type must be one of")
}

// failingData is a data.Service whose every lookup fails with err
type failingData struct {
	err error
}

func (f failingData) Source() string { return "live" }

func (f failingData) GetHCP(context.Context, string) (*models.HealthcareProvider, error) {
	return nil, f.err
}

func (f failingData) TopHCPs(context.Context, int) ([]*models.HealthcareProvider, error) {
	return nil, f.err
}

func (f failingData) GetSpendSummary(context.Context, string, int) (*models.SpendSummary, error) {
	return nil, f.err
}
