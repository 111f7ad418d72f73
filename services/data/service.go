// Package data provides HCP records and year-to-date spend to the compliance
// and gateway services, from in-memory fixtures (mock mode) or from the CRM
// database (live mode), optionally behind an LRU cache.
package data

import (
	"context"
	"errors"
	"fmt"

	"github.com/BowmanStephen/rep-co-pilot/config"
	"github.com/BowmanStephen/rep-co-pilot/models"
	"github.com/BowmanStephen/rep-co-pilot/repositories"
	"go.uber.org/zap"
)

const (
	SourceMock = "mock"
	SourceLive = "live"
)

// Service is the read side of the CRM used by compliance checks and prompt context
type Service interface {
	// Source reports "mock" or "live"
	Source() string

	// GetHCP retrieves a provider by CRM ID
	GetHCP(ctx context.Context, id string) (*models.HealthcareProvider, error)

	// TopHCPs returns up to limit providers by priority score
	TopHCPs(ctx context.Context, limit int) ([]*models.HealthcareProvider, error)

	// GetSpendSummary returns the provider's meal spend for a calendar year
	GetSpendSummary(ctx context.Context, hcpID string, year int) (*models.SpendSummary, error)
}

// New builds the data service selected by cfg. repo is only required in live mode.
func New(cfg config.DataServiceConfig, repo repositories.HCPRepository, logger *zap.Logger) (Service, error) {
	var svc Service
	if cfg.UseMockData {
		svc = NewMockService()
	} else {
		if repo == nil {
			return nil, errors.New("live data service requires an HCP repository")
		}
		svc = NewLiveService(repo, cfg.RetryAttempts, cfg.RetryDelay, logger)
	}

	logger.Info("data service initialized",
		zap.String("source", svc.Source()),
		zap.Bool("cache_enabled", cfg.CacheEnabled))

	if cfg.CacheEnabled {
		return NewCachedService(svc, cfg.CacheSize, cfg.CacheTTL), nil
	}
	return svc, nil
}

func spendKey(hcpID string, year int) string {
	return fmt.Sprintf("spend:%s:%d", hcpID, year)
}
