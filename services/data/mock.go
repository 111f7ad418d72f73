package data

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/models"
	"github.com/BowmanStephen/rep-co-pilot/services"
)

type mockHCP struct {
	provider     models.HealthcareProvider
	mealSpendYTD float64
	interactions int
}

// MockService serves a fixed territory of five HCPs. Spend figures are the same for every year.
type MockService struct {
	hcps map[string]mockHCP
}

// NewMockService creates the fixture-backed data service
func NewMockService() *MockService {
	fixtures := []mockHCP{
		{hcp("HCP-001", "Dr. Sarah Cortez", models.SpecialtyOncology, "Memorial Cancer Center", "Boston", "MA", "1457896325", 95, 45000, "2026-01-10", "2026-01-20"), 1180, 9},
		{hcp("HCP-002", "Dr. Michael Chen", models.SpecialtyCardiology, "Heart Health Associates", "New York", "NY", "1789546328", 88, 32000, "2026-01-08", "2026-01-22"), 450, 4},
		{hcp("HCP-003", "Dr. Emily Watson", models.SpecialtyPulmonology, "Respiratory Care Clinic", "Philadelphia", "PA", "1654327891", 82, 28000, "2026-01-05", ""), 0, 0},
		{hcp("HCP-004", "Dr. James Rodriguez", models.SpecialtyOncology, "Valley Cancer Institute", "Hartford", "CT", "1547892635", 79, 25000, "2026-01-03", "2026-01-25"), 1320, 11},
		{hcp("HCP-005", "Dr. Lisa Park", models.SpecialtyEndocrinology, "Metabolic Health Center", "Providence", "RI", "1897654321", 75, 22000, "2026-01-02", "2026-01-28"), 220, 2},
	}

	m := &MockService{hcps: make(map[string]mockHCP, len(fixtures))}
	for _, f := range fixtures {
		m.hcps[f.provider.ID] = f
	}
	return m
}

// Source reports "mock"
func (m *MockService) Source() string { return SourceMock }

// GetHCP retrieves a provider by CRM ID
func (m *MockService) GetHCP(ctx context.Context, id string) (*models.HealthcareProvider, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.WrapUnavailable("mock data service", err)
	}
	f, ok := m.hcps[normalizeID(id)]
	if !ok {
		return nil, hcpNotFound(id, nil)
	}
	p := f.provider
	return &p, nil
}

// TopHCPs returns providers by priority score, highest first
func (m *MockService) TopHCPs(ctx context.Context, limit int) ([]*models.HealthcareProvider, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.WrapUnavailable("mock data service", err)
	}
	out := make([]*models.HealthcareProvider, 0, len(m.hcps))
	for _, f := range m.hcps {
		p := f.provider
		out = append(out, &p)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PriorityScore != out[j].PriorityScore {
			return out[i].PriorityScore > out[j].PriorityScore
		}
		return out[i].ID < out[j].ID
	})
	if limit > 0 && limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

// GetSpendSummary returns the fixture spend for the provider
func (m *MockService) GetSpendSummary(ctx context.Context, hcpID string, year int) (*models.SpendSummary, error) {
	if err := ctx.Err(); err != nil {
		return nil, services.WrapUnavailable("mock data service", err)
	}
	f, ok := m.hcps[normalizeID(hcpID)]
	if !ok {
		return nil, hcpNotFound(hcpID, nil)
	}
	return &models.SpendSummary{
		HCPID:            f.provider.ID,
		Year:             year,
		MealSpendYTD:     f.mealSpendYTD,
		InteractionCount: f.interactions,
	}, nil
}

func hcp(id, name string, specialty models.Specialty, org, city, state, npi string, priority int, opportunity float64, lastVisit, nextVisit string) models.HealthcareProvider {
	return models.HealthcareProvider{
		ID:                 id,
		Name:               name,
		Specialty:          specialty,
		Organization:       org,
		City:               city,
		State:              state,
		NPINumber:          npi,
		PriorityScore:      priority,
		TotalOpportunity:   opportunity,
		LastVisitDate:      day(lastVisit),
		NextVisitScheduled: day(nextVisit),
	}
}

func day(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.DateOnly, s)
	if err != nil {
		panic(err)
	}
	return &t
}

func normalizeID(id string) string {
	return strings.ToUpper(strings.TrimSpace(id))
}

func hcpNotFound(id string, cause error) error {
	return services.NewDomainError(services.ErrorTypeNotFound, "healthcare provider not found", cause).
		WithDetail("hcp_id", id)
}
