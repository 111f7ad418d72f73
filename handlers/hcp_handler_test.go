package handlers

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/models"
	"github.com/BowmanStephen/rep-co-pilot/services"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

// MockDataService is a mock implementation of data.Service
type MockDataService struct {
	mock.Mock
}

func (m *MockDataService) Source() string { return "mock" }

func (m *MockDataService) GetHCP(ctx context.Context, id string) (*models.HealthcareProvider, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.HealthcareProvider), args.Error(1)
}

func (m *MockDataService) TopHCPs(ctx context.Context, limit int) ([]*models.HealthcareProvider, error) {
	args := m.Called(ctx, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*models.HealthcareProvider), args.Error(1)
}

func (m *MockDataService) GetSpendSummary(ctx context.Context, hcpID string, year int) (*models.SpendSummary, error) {
	args := m.Called(ctx, hcpID, year)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.SpendSummary), args.Error(1)
}

func newHCPRouter(dataSvc *MockDataService) http.Handler {
	h := NewHCPHandler(dataSvc, zap.NewNop())
	h.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }

	r := chi.NewRouter()
	r.Get("/hcps", h.HandleListHCPs)
	r.Get("/hcps/{id}", h.HandleGetHCP)
	return r
}

func TestHCPHandler_GetHCP(t *testing.T) {
	t.Run("profile with current-year spend", func(t *testing.T) {
		dataSvc := new(MockDataService)
		dataSvc.On("GetHCP", mock.Anything, "HCP-002").Return(&models.HealthcareProvider{
			ID:            "HCP-002",
			Name:          "Dr. Michael Chen",
			Specialty:     models.SpecialtyCardiology,
			PriorityScore: 88,
		}, nil)
		dataSvc.On("GetSpendSummary", mock.Anything, "HCP-002", 2026).Return(&models.SpendSummary{
			HCPID:            "HCP-002",
			Year:             2026,
			MealSpendYTD:     450,
			InteractionCount: 4,
		}, nil)

		w := do(t, newHCPRouter(dataSvc), http.MethodGet, "/hcps/HCP-002", "")

		assert.Equal(t, http.StatusOK, w.Code)
		profile := decodeData(t, w)
		provider := profile["provider"].(map[string]interface{})
		assert.Equal(t, "Dr. Michael Chen", provider["name"])
		spend := profile["spend"].(map[string]interface{})
		assert.Equal(t, float64(450), spend["mealSpendYtd"])
		dataSvc.AssertExpectations(t)
	})

	t.Run("not found", func(t *testing.T) {
		dataSvc := new(MockDataService)
		dataSvc.On("GetHCP", mock.Anything, "HCP-404").Return(nil, services.ErrHCPNotFound)

		w := do(t, newHCPRouter(dataSvc), http.MethodGet, "/hcps/HCP-404", "")

		assert.Equal(t, http.StatusNotFound, w.Code)
		dataSvc.AssertNotCalled(t, "GetSpendSummary", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("spend source down", func(t *testing.T) {
		dataSvc := new(MockDataService)
		dataSvc.On("GetHCP", mock.Anything, "HCP-001").Return(&models.HealthcareProvider{ID: "HCP-001"}, nil)
		dataSvc.On("GetSpendSummary", mock.Anything, "HCP-001", 2026).Return(nil, services.ErrDataSourceUnavailable)

		w := do(t, newHCPRouter(dataSvc), http.MethodGet, "/hcps/HCP-001", "")

		assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	})
}

func TestHCPHandler_ListHCPs(t *testing.T) {
	t.Run("default limit", func(t *testing.T) {
		dataSvc := new(MockDataService)
		dataSvc.On("TopHCPs", mock.Anything, 10).Return([]*models.HealthcareProvider{
			{ID: "HCP-001", Name: "Dr. Sarah Cortez", PriorityScore: 95},
		}, nil)

		w := do(t, newHCPRouter(dataSvc), http.MethodGet, "/hcps", "")

		assert.Equal(t, http.StatusOK, w.Code)
		data := decodeData(t, w)
		assert.Equal(t, float64(1), data["count"])
		assert.Equal(t, "mock", data["source"])
	})

	t.Run("invalid limit", func(t *testing.T) {
		for _, q := range []string{"0", "101", "ten"} {
			w := do(t, newHCPRouter(new(MockDataService)), http.MethodGet, "/hcps?limit="+q, "")
			assert.Equal(t, http.StatusBadRequest, w.Code, q)
		}
	})
}
