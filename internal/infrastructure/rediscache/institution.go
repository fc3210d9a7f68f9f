package rediscache

import (
	"context"
	"time"

	"horizon/internal/infrastructure/plaid"
)

// InstitutionCache adapts a ViewCache to the account aggregator's institution
// lookup interface. Institution metadata changes rarely, so entries live for
// the configured TTL (24h by default).
type InstitutionCache struct {
	cache *ViewCache[plaid.Institution]
}

// NewInstitutionCache creates an institution metadata cache.
func NewInstitutionCache(client *Client, ttl time.Duration) *InstitutionCache {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &InstitutionCache{
		cache: NewViewCache[plaid.Institution](client.Client, "institution:", ttl),
	}
}

func (c *InstitutionCache) Get(ctx context.Context, institutionID string) (*plaid.Institution, bool) {
	return c.cache.Get(ctx, institutionID)
}

func (c *InstitutionCache) Set(ctx context.Context, institutionID string, institution *plaid.Institution) {
	c.cache.Set(ctx, institutionID, institution)
}
