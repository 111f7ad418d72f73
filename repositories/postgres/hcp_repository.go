package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/models"
	"github.com/BowmanStephen/rep-co-pilot/repositories"
	"go.uber.org/zap"
)

const hcpColumns = `id, name, specialty, organization, city, state, npi_number,
		       priority_score, total_opportunity, last_visit_date, next_visit_scheduled`

// HCPRepository implements the repositories.HCPRepository interface
type HCPRepository struct {
	db     *DB
	logger *zap.Logger
}

// NewHCPRepository creates a new HCP repository
func NewHCPRepository(db *DB, logger *zap.Logger) repositories.HCPRepository {
	return &HCPRepository{
		db:     db,
		logger: logger,
	}
}

// GetByID retrieves a provider by CRM ID
func (r *HCPRepository) GetByID(ctx context.Context, id string) (*models.HealthcareProvider, error) {
	query := `SELECT ` + hcpColumns + ` FROM hcps WHERE id = $1`

	hcp, err := scanHCP(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hcp %s: %w", id, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get hcp: %w", err)
	}
	return hcp, nil
}

// List returns providers ordered by priority score
func (r *HCPRepository) List(ctx context.Context, limit, offset int) ([]*models.HealthcareProvider, error) {
	query := `SELECT ` + hcpColumns + ` FROM hcps
		ORDER BY priority_score DESC, id
		LIMIT $1 OFFSET $2`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list hcps: %w", err)
	}
	defer rows.Close()

	var hcps []*models.HealthcareProvider
	for rows.Next() {
		hcp, err := scanHCP(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan hcp: %w", err)
		}
		hcps = append(hcps, hcp)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating hcps: %w", err)
	}

	return hcps, nil
}

// GetSpendSummary sums the provider's meal spend between Jan 1 of year and Jan 1 of year+1.
// A provider with no spend rows gets a zero summary; an unknown provider is ErrNotFound.
func (r *HCPRepository) GetSpendSummary(ctx context.Context, hcpID string, year int) (*models.SpendSummary, error) {
	query := `
		SELECT h.id, COALESCE(SUM(s.amount), 0), COUNT(s.id)
		FROM hcps h
		LEFT JOIN hcp_meal_spend s
		       ON s.hcp_id = h.id AND s.occurred_at >= $2 AND s.occurred_at < $3
		WHERE h.id = $1
		GROUP BY h.id
	`

	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(1, 0, 0)

	summary := &models.SpendSummary{Year: year}
	err := r.db.QueryRowContext(ctx, query, hcpID, start, end).Scan(
		&summary.HCPID,
		&summary.MealSpendYTD,
		&summary.InteractionCount,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("hcp %s: %w", hcpID, repositories.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get spend summary: %w", err)
	}

	r.logger.Debug("spend summary loaded",
		zap.String("hcp_id", hcpID),
		zap.Int("year", year),
		zap.Float64("meal_spend_ytd", summary.MealSpendYTD))

	return summary, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanHCP(row rowScanner) (*models.HealthcareProvider, error) {
	hcp := &models.HealthcareProvider{}
	var lastVisit, nextVisit sql.NullTime
	if err := row.Scan(
		&hcp.ID,
		&hcp.Name,
		&hcp.Specialty,
		&hcp.Organization,
		&hcp.City,
		&hcp.State,
		&hcp.NPINumber,
		&hcp.PriorityScore,
		&hcp.TotalOpportunity,
		&lastVisit,
		&nextVisit,
	); err != nil {
		return nil, err
	}
	if lastVisit.Valid {
		hcp.LastVisitDate = &lastVisit.Time
	}
	if nextVisit.Valid {
		hcp.NextVisitScheduled = &nextVisit.Time
	}
	return hcp, nil
}
