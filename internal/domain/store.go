package domain

import (
	"context"
	"time"
)

// ValuationStore persists valuation snapshots for history queries.
type ValuationStore interface {
	Insert(ctx context.Context, v Valuation) error
	// History returns the most recent snapshots for a bond, newest first.
	History(ctx context.Context, network Network, bond string, limit int) ([]Valuation, error)
	// LatestTotal returns the sum of the newest snapshot per bond on the
	// network and the time of the newest contributing snapshot.
	LatestTotal(ctx context.Context, network Network) (float64, time.Time, error)
}
