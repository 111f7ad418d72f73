package compliance

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/internal/coaching"
	"github.com/BowmanStephen/rep-co-pilot/internal/compliance"
	"github.com/BowmanStephen/rep-co-pilot/models"
	"github.com/BowmanStephen/rep-co-pilot/services"
	"github.com/BowmanStephen/rep-co-pilot/services/data"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockDataService is a mock implementation of data.Service
type MockDataService struct {
	mock.Mock
}

func (m *MockDataService) Source() string { return "mock" }

func (m *MockDataService) GetHCP(ctx context.Context, id string) (*models.HealthcareProvider, error) {
	args := m.Called(ctx, id)
	if hcp := args.Get(0); hcp != nil {
		return hcp.(*models.HealthcareProvider), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDataService) TopHCPs(ctx context.Context, limit int) ([]*models.HealthcareProvider, error) {
	args := m.Called(ctx, limit)
	if hcps := args.Get(0); hcps != nil {
		return hcps.([]*models.HealthcareProvider), args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockDataService) GetSpendSummary(ctx context.Context, hcpID string, year int) (*models.SpendSummary, error) {
	args := m.Called(ctx, hcpID, year)
	if s := args.Get(0); s != nil {
		return s.(*models.SpendSummary), args.Error(1)
	}
	return nil, args.Error(1)
}

// recordingMetrics captures decision labels
type recordingMetrics struct {
	decisions []string
}

func (r *recordingMetrics) RecordDecision(level, category string) {
	r.decisions = append(r.decisions, level+"/"+category)
}
func (r *recordingMetrics) RecordGateway(string, string) {}
func (r *recordingMetrics) RecordProviderLatency(string, string, time.Duration) {}
func (r *recordingMetrics) RecordCatalogReload(string) {}

func newTestService(t *testing.T, dataSvc data.Service) (*Service, *recordingMetrics) {
	t.Helper()
	holder := compliance.NewHolder(compliance.DefaultCatalog())
	engine := compliance.NewEngineWithSource(holder)
	metrics := &recordingMetrics{}
	svc := NewService(engine, coaching.NewCardPresenter(holder), dataSvc, metrics, zap.NewNop())
	svc.now = func() time.Time { return time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC) }
	return svc, metrics
}

func TestService_Check(t *testing.T) {
	ctx := context.Background()

	t.Run("off-label query is blocking", func(t *testing.T) {
		svc, metrics := newTestService(t, data.NewMockService())

		res, err := svc.Check(ctx, CheckInput{Text: "What about off-label use for pediatric patients?"})
		require.NoError(t, err)
		assert.Equal(t, compliance.SeverityStop, res.Decision.Level)
		assert.True(t, res.Card.Blocking)
		assert.Equal(t, coaching.VariantStop, res.Card.Variant)
		assert.Equal(t, []string{"stop/off_label"}, metrics.decisions)
	})

	t.Run("clean query", func(t *testing.T) {
		svc, metrics := newTestService(t, data.NewMockService())

		res, err := svc.Check(ctx, CheckInput{Text: "Show me Q3 sales by region"})
		require.NoError(t, err)
		assert.True(t, res.Decision.IsCompliant)
		assert.False(t, res.Card.Blocking)
		assert.Equal(t, []string{"info/"}, metrics.decisions)
	})

	t.Run("ytd looked up by hcp id", func(t *testing.T) {
		dataSvc := new(MockDataService)
		dataSvc.On("GetSpendSummary", mock.Anything, "HCP-001", 2026).
			Return(&models.SpendSummary{HCPID: "HCP-001", Year: 2026, MealSpendYTD: 1300}, nil).Once()
		svc, _ := newTestService(t, dataSvc)

		res, err := svc.Check(ctx, CheckInput{
			Text:  "Dinner with Dr. Cortez",
			Spend: &compliance.SpendCheckInput{ProposedAmount: 100, HCPCount: 1},
			HCPID: "HCP-001",
		})
		require.NoError(t, err)
		require.NotNil(t, res.Decision.Spend)
		assert.InDelta(t, 1400.0, res.Decision.Spend.AnnualTotal, 0.001)
		assert.Equal(t, compliance.SeverityWarning, res.Decision.Level)
		assert.Equal(t, "HCP-001", res.HCPID)
		dataSvc.AssertExpectations(t)
	})

	t.Run("explicit ytd wins over lookup", func(t *testing.T) {
		dataSvc := new(MockDataService)
		svc, _ := newTestService(t, dataSvc)

		res, err := svc.Check(ctx, CheckInput{
			Text:  "lunch",
			Spend: &compliance.SpendCheckInput{ProposedAmount: 50, HCPCount: 1, YTDAmountForHCP: 200},
			HCPID: "HCP-001",
		})
		require.NoError(t, err)
		assert.InDelta(t, 250.0, res.Decision.Spend.AnnualTotal, 0.001)
		dataSvc.AssertNotCalled(t, "GetSpendSummary", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("data service failure propagates", func(t *testing.T) {
		dataSvc := new(MockDataService)
		dataSvc.On("GetSpendSummary", mock.Anything, "HCP-001", 2026).
			Return(nil, services.WrapUnavailable("data source", errors.New("db down")))
		svc, _ := newTestService(t, dataSvc)

		_, err := svc.Check(ctx, CheckInput{
			Text:  "dinner",
			Spend: &compliance.SpendCheckInput{ProposedAmount: 100, HCPCount: 1},
			HCPID: "HCP-001",
		})
		assert.True(t, services.IsUnavailableError(err))
	})

	t.Run("cancelled context", func(t *testing.T) {
		svc, _ := newTestService(t, data.NewMockService())
		cctx, cancel := context.WithCancel(ctx)
		cancel()

		_, err := svc.Check(cctx, CheckInput{Text: "hello"})
		assert.True(t, services.IsUnavailableError(err))
	})
}

func TestService_EvaluateMealSpend(t *testing.T) {
	svc, _ := newTestService(t, data.NewMockService())

	res, err := svc.EvaluateMealSpend(context.Background(), compliance.SpendCheckInput{ProposedAmount: 500, HCPCount: 2}, "HCP-004")
	require.NoError(t, err)
	assert.InDelta(t, 250.0, res.PerHCPAmount, 0.001)
	assert.False(t, res.WithinLimit)
	// HCP-004 sits at $1,320 in the mock territory
	assert.InDelta(t, 1820.0, res.AnnualTotal, 0.001)

	_, err = svc.EvaluateMealSpend(context.Background(), compliance.SpendCheckInput{ProposedAmount: 50, HCPCount: 1}, "HCP-999")
	assert.ErrorIs(t, err, services.ErrHCPNotFound)
}

func TestService_GetPolicy(t *testing.T) {
	svc, _ := newTestService(t, data.NewMockService())

	tests := []struct {
		key    string
		wantID string
	}{
		{"meal_spend", "POL-001"},
		{"OFF_LABEL", "POL-003"},
		{"POL-004", "POL-004"},
		{"pol-005", "POL-005"},
	}
	for _, tt := range tests {
		t.Run(tt.key, func(t *testing.T) {
			p, err := svc.GetPolicy(tt.key)
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, p.ID)
		})
	}

	_, err := svc.GetPolicy("gifts")
	assert.ErrorIs(t, err, services.ErrPolicyNotFound)
	assert.Equal(t, "gifts", services.GetErrorDetails(err)["policy"])

	assert.Len(t, svc.ListPolicies(), 5)
}

func TestService_GetProcedure(t *testing.T) {
	svc, _ := newTestService(t, data.NewMockService())

	ae, err := svc.GetProcedure("adverse-event")
	require.NoError(t, err)
	assert.Equal(t, "1-800-AZ-SAFE (Pharmacovigilance & Safety)", ae.Hotline)
	require.NotNil(t, ae.Policy)
	assert.Equal(t, "POL-004", ae.Policy.ID)

	speaker, err := svc.GetProcedure(" Speaker-Honorarium ")
	require.NoError(t, err)
	assert.InDelta(t, 250.0, speaker.StandardHonorarium, 0.001)
	assert.True(t, speaker.ApprovalRequired)

	mir, err := svc.GetProcedure("mir")
	require.NoError(t, err)
	assert.Equal(t, "3-5 business days from MIR submission", mir.ExpectedResponseTime)

	_, err = svc.GetProcedure("gifts")
	assert.ErrorIs(t, err, services.ErrProcedureNotFound)
}

func TestService_PolicyUpdates(t *testing.T) {
	svc, _ := newTestService(t, data.NewMockService())

	all := svc.PolicyUpdates(0)
	require.Len(t, all, 3)
	assert.Equal(t, "UPD-003", all[0].ID)
	for i := 1; i < len(all); i++ {
		assert.False(t, all[i].AnnouncedDate.After(all[i-1].AnnouncedDate))
	}

	one := svc.PolicyUpdates(1)
	require.Len(t, one, 1)
	assert.Contains(t, one[0].Impact, "$25 per HCP")
}

func TestService_LogConcern(t *testing.T) {
	svc, _ := newTestService(t, data.NewMockService())

	c, err := svc.LogConcern(context.Background(), ConcernInput{
		Type:         "meal_spend",
		Description:  "Dinner at Capital Grille may exceed the limit",
		RelatedQuery: "Plan dinner at Capital Grille",
		HCPID:        "HCP-001",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(c.ID, "CONCERN-"))
	assert.Equal(t, models.ConcernStatusUnderReview, c.Status)
	assert.Equal(t, models.ConcernSeverityMedium, c.Severity)
	assert.Equal(t, "HCP-001", c.HCPID)
	assert.Equal(t, "Compliance team will respond within 1-2 business days", c.ExpectedResponse)

	_, err = svc.LogConcern(context.Background(), ConcernInput{Type: "other", Description: "  "})
	assert.True(t, services.IsValidationError(err))
}
