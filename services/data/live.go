package data

import (
	"context"
	"errors"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/models"
	"github.com/BowmanStephen/rep-co-pilot/repositories"
	"github.com/BowmanStephen/rep-co-pilot/services"
	"go.uber.org/zap"
)

// LiveService reads from the CRM repository, retrying transient failures
type LiveService struct {
	repo       repositories.HCPRepository
	attempts   int
	retryDelay time.Duration
	logger     *zap.Logger
}

// NewLiveService creates a repository-backed data service. attempts < 1 is treated as 1.
func NewLiveService(repo repositories.HCPRepository, attempts int, retryDelay time.Duration, logger *zap.Logger) *LiveService {
	if attempts < 1 {
		attempts = 1
	}
	return &LiveService{
		repo:       repo,
		attempts:   attempts,
		retryDelay: retryDelay,
		logger:     logger,
	}
}

// Source reports "live"
func (s *LiveService) Source() string { return SourceLive }

// GetHCP retrieves a provider by CRM ID
func (s *LiveService) GetHCP(ctx context.Context, id string) (*models.HealthcareProvider, error) {
	id = normalizeID(id)
	var hcp *models.HealthcareProvider
	err := s.withRetry(ctx, "get_hcp", func(ctx context.Context) error {
		var err error
		hcp, err = s.repo.GetByID(ctx, id)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, hcpNotFound(id, err)
		}
		return nil, err
	}
	return hcp, nil
}

// TopHCPs returns providers by priority score
func (s *LiveService) TopHCPs(ctx context.Context, limit int) ([]*models.HealthcareProvider, error) {
	var hcps []*models.HealthcareProvider
	err := s.withRetry(ctx, "top_hcps", func(ctx context.Context) error {
		var err error
		hcps, err = s.repo.List(ctx, limit, 0)
		return err
	})
	return hcps, err
}

// GetSpendSummary returns the provider's meal spend for a calendar year
func (s *LiveService) GetSpendSummary(ctx context.Context, hcpID string, year int) (*models.SpendSummary, error) {
	hcpID = normalizeID(hcpID)
	var summary *models.SpendSummary
	err := s.withRetry(ctx, "spend_summary", func(ctx context.Context) error {
		var err error
		summary, err = s.repo.GetSpendSummary(ctx, hcpID, year)
		return err
	})
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, hcpNotFound(hcpID, err)
		}
		return nil, err
	}
	return summary, nil
}

// withRetry runs fn up to s.attempts times with linear backoff.
// Not-found errors are returned immediately; anything else that survives
// the retries becomes ErrorTypeUnavailable.
func (s *LiveService) withRetry(ctx context.Context, op string, fn func(ctx context.Context) error) error {
	var lastErr error
	for attempt := 0; attempt < s.attempts; attempt++ {
		if attempt > 0 {
			s.logger.Warn("retrying data source call",
				zap.String("op", op),
				zap.Int("attempt", attempt+1),
				zap.Error(lastErr))

			timer := time.NewTimer(s.retryDelay * time.Duration(attempt))
			select {
			case <-ctx.Done():
				timer.Stop()
				return services.WrapUnavailable("data source: "+op, ctx.Err())
			case <-timer.C:
			}
		}

		err := fn(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, repositories.ErrNotFound) {
			return err
		}
		lastErr = err
		if ctx.Err() != nil {
			break
		}
	}

	s.logger.Error("data source call failed",
		zap.String("op", op),
		zap.Int("attempts", s.attempts),
		zap.Error(lastErr))
	return services.WrapUnavailable("data source: "+op, lastErr)
}
