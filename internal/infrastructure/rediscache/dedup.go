package rediscache

import (
	"context"
	"fmt"
	"time"
)

// Deduper implements notification.Deduper with Redis SET NX: the first Mark
// for a key within the TTL claims it, repeat calls report it as seen.
type Deduper struct {
	client *Client
}

// NewDeduper creates a Redis-backed notification deduper.
func NewDeduper(client *Client) *Deduper {
	return &Deduper{client: client}
}

// Mark records key for ttl and reports whether it was already recorded.
func (d *Deduper) Mark(ctx context.Context, key string, ttl time.Duration) (bool, error) {
	claimed, err := d.client.SetNX(ctx, "dedup:"+key, 1, ttl).Result()
	if err != nil {
		return false, fmt.Errorf("dedup mark failed for %s: %w", key, err)
	}
	return !claimed, nil
}
