package repositories

import (
	"context"
	"errors"

	"github.com/BowmanStephen/rep-co-pilot/models"
)

// ErrNotFound is returned when a requested row does not exist
var ErrNotFound = errors.New("record not found")

// HCPRepository reads healthcare provider records and their transfer-of-value history
type HCPRepository interface {
	// GetByID retrieves a provider by CRM ID
	GetByID(ctx context.Context, id string) (*models.HealthcareProvider, error)

	// List returns providers ordered by priority score, highest first
	List(ctx context.Context, limit, offset int) ([]*models.HealthcareProvider, error)

	// GetSpendSummary sums the provider's meal spend for a calendar year
	GetSpendSummary(ctx context.Context, hcpID string, year int) (*models.SpendSummary, error)
}
