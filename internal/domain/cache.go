package domain

import (
	"context"
	"time"
)

// ValuationCache stores the most recent valuation per bond for fast reads by
// the API layer. Implementations must return ErrNotFound for missing entries.
type ValuationCache interface {
	Set(ctx context.Context, v Valuation) error
	Get(ctx context.Context, network Network, bond string) (Valuation, error)
	// GetAll returns the latest valuations for the given bonds. Bonds with no
	// cached entry are omitted from the result map.
	GetAll(ctx context.Context, network Network, bonds []string) (map[string]Valuation, error)
}

// SignalBus is a lightweight pub/sub fabric used to push valuation updates to
// streaming consumers (the WebSocket hub).
type SignalBus interface {
	Publish(ctx context.Context, channel string, payload []byte) error
	Subscribe(ctx context.Context, channel string) (<-chan []byte, error)
}

// RateLimiter limits request rates per key.
type RateLimiter interface {
	Allow(ctx context.Context, key string, limit int, window time.Duration) (bool, error)
}
