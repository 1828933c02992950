package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/alanyoungcy/treasurybot/internal/domain"
)

// ValuationStore implements domain.ValuationStore using PostgreSQL.
type ValuationStore struct {
	pool *pgxpool.Pool
}

// NewValuationStore creates a new ValuationStore.
func NewValuationStore(pool *pgxpool.Pool) *ValuationStore {
	return &ValuationStore{pool: pool}
}

// Insert appends a valuation snapshot. A missing ID is assigned here.
func (s *ValuationStore) Insert(ctx context.Context, v domain.Valuation) error {
	if v.ID == "" {
		v.ID = uuid.NewString()
	}
	if v.CreatedAt.IsZero() {
		v.CreatedAt = time.Now().UTC()
	}

	const query = `
		INSERT INTO treasury_valuations (id, bond, network, value_usd, reserve_price, bond_price, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`
	_, err := s.pool.Exec(ctx, query,
		v.ID, v.Bond, int(v.Network), v.Value, v.ReservePrice, v.BondPriceUSD, v.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("postgres: insert valuation %s: %w", v.Bond, err)
	}
	return nil
}

// History returns the most recent snapshots for a bond, newest first.
func (s *ValuationStore) History(ctx context.Context, network domain.Network, bond string, limit int) ([]domain.Valuation, error) {
	const query = `
		SELECT id, bond, network, value_usd, reserve_price, bond_price, created_at
		FROM treasury_valuations
		WHERE network = $1 AND bond = $2
		ORDER BY created_at DESC
		LIMIT $3`

	rows, err := s.pool.Query(ctx, query, int(network), bond, limit)
	if err != nil {
		return nil, fmt.Errorf("postgres: valuation history %s: %w", bond, err)
	}
	defer rows.Close()

	var list []domain.Valuation
	for rows.Next() {
		var v domain.Valuation
		var networkID int
		if err := rows.Scan(
			&v.ID, &v.Bond, &networkID, &v.Value, &v.ReservePrice, &v.BondPriceUSD, &v.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("postgres: scan valuation: %w", err)
		}
		v.Network = domain.Network(networkID)
		list = append(list, v)
	}
	return list, rows.Err()
}

// LatestTotal sums the newest snapshot per bond on the network and returns
// the time of the newest contributing snapshot. It returns
// domain.ErrNotFound when no snapshots exist for the network.
func (s *ValuationStore) LatestTotal(ctx context.Context, network domain.Network) (float64, time.Time, error) {
	const query = `
		SELECT COALESCE(SUM(value_usd), 0), MAX(created_at)
		FROM (
			SELECT DISTINCT ON (bond) value_usd, created_at
			FROM treasury_valuations
			WHERE network = $1
			ORDER BY bond, created_at DESC
		) latest`

	var total float64
	var newest *time.Time
	if err := s.pool.QueryRow(ctx, query, int(network)).Scan(&total, &newest); err != nil {
		return 0, time.Time{}, fmt.Errorf("postgres: latest total: %w", err)
	}
	if newest == nil {
		return 0, time.Time{}, domain.ErrNotFound
	}
	return total, *newest, nil
}

// Compile-time interface check.
var _ domain.ValuationStore = (*ValuationStore)(nil)
