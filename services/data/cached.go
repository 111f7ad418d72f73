package data

import (
	"context"
	"strconv"
	"time"

	"github.com/BowmanStephen/rep-co-pilot/models"
)

// CachedService memoizes successful lookups of another Service. Errors are never cached.
type CachedService struct {
	next  Service
	hcps  *Cache[models.HealthcareProvider]
	top   *Cache[[]models.HealthcareProvider]
	spend *Cache[models.SpendSummary]
}

// NewCachedService wraps next with per-kind LRU caches of maxSize entries each
func NewCachedService(next Service, maxSize int, ttl time.Duration) *CachedService {
	return &CachedService{
		next:  next,
		hcps:  NewCache[models.HealthcareProvider](maxSize, ttl),
		top:   NewCache[[]models.HealthcareProvider](maxSize, ttl),
		spend: NewCache[models.SpendSummary](maxSize, ttl),
	}
}

// Source reports the wrapped service's source
func (c *CachedService) Source() string { return c.next.Source() }

// GetHCP retrieves a provider, serving from cache when fresh
func (c *CachedService) GetHCP(ctx context.Context, id string) (*models.HealthcareProvider, error) {
	key := normalizeID(id)
	if v, ok := c.hcps.Get(key); ok {
		return &v, nil
	}
	hcp, err := c.next.GetHCP(ctx, id)
	if err != nil {
		return nil, err
	}
	c.hcps.Set(key, *hcp)
	return hcp, nil
}

// TopHCPs returns providers by priority score, serving from cache when fresh
func (c *CachedService) TopHCPs(ctx context.Context, limit int) ([]*models.HealthcareProvider, error) {
	key := strconv.Itoa(limit)
	if v, ok := c.top.Get(key); ok {
		return pointers(v), nil
	}
	hcps, err := c.next.TopHCPs(ctx, limit)
	if err != nil {
		return nil, err
	}
	values := make([]models.HealthcareProvider, len(hcps))
	for i, h := range hcps {
		values[i] = *h
	}
	c.top.Set(key, values)
	return hcps, nil
}

// GetSpendSummary returns spend, serving from cache when fresh
func (c *CachedService) GetSpendSummary(ctx context.Context, hcpID string, year int) (*models.SpendSummary, error) {
	key := spendKey(normalizeID(hcpID), year)
	if v, ok := c.spend.Get(key); ok {
		return &v, nil
	}
	summary, err := c.next.GetSpendSummary(ctx, hcpID, year)
	if err != nil {
		return nil, err
	}
	c.spend.Set(key, *summary)
	return summary, nil
}

// Stats reports hit/miss counters per cache
func (c *CachedService) Stats() map[string]CacheStats {
	return map[string]CacheStats{
		"hcp":   c.hcps.Stats(),
		"top":   c.top.Stats(),
		"spend": c.spend.Stats(),
	}
}

// CleanupExpired drops expired entries from every cache
func (c *CachedService) CleanupExpired() int {
	return c.hcps.CleanupExpired() + c.top.CleanupExpired() + c.spend.CleanupExpired()
}

// StartCleanupWorker runs CleanupExpired on interval until stopCh is closed
func (c *CachedService) StartCleanupWorker(interval time.Duration, stopCh <-chan struct{}) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			c.CleanupExpired()
		case <-stopCh:
			return
		}
	}
}

func pointers(values []models.HealthcareProvider) []*models.HealthcareProvider {
	out := make([]*models.HealthcareProvider, len(values))
	for i := range values {
		v := values[i]
		out[i] = &v
	}
	return out
}
