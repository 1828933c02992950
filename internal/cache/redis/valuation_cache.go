package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alanyoungcy/treasurybot/internal/domain"
)

// ValuationCache implements domain.ValuationCache using Redis hashes. Each
// bond's latest valuation is stored as a hash at key
// "valuation:{network}:{bond}" with fields "value", "reserve_price",
// "bond_price", and "ts" (Unix nanosecond timestamp).
type ValuationCache struct {
	rdb *redis.Client
	ttl time.Duration // 0 means entries never expire
}

// NewValuationCache creates a ValuationCache backed by the given Client.
func NewValuationCache(c *Client, ttl time.Duration) *ValuationCache {
	return &ValuationCache{rdb: c.Underlying(), ttl: ttl}
}

func valuationKey(network domain.Network, bond string) string {
	return "valuation:" + network.String() + ":" + bond
}

// Set stores the latest valuation for a bond.
func (vc *ValuationCache) Set(ctx context.Context, v domain.Valuation) error {
	key := valuationKey(v.Network, v.Bond)
	fields := map[string]interface{}{
		"value":         strconv.FormatFloat(v.Value, 'f', -1, 64),
		"reserve_price": strconv.FormatFloat(v.ReservePrice, 'f', -1, 64),
		"bond_price":    strconv.FormatFloat(v.BondPriceUSD, 'f', -1, 64),
		"ts":            strconv.FormatInt(v.CreatedAt.UnixNano(), 10),
	}
	if err := vc.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("redis: set valuation %s: %w", v.Bond, err)
	}
	if vc.ttl > 0 {
		if err := vc.rdb.Expire(ctx, key, vc.ttl).Err(); err != nil {
			return fmt.Errorf("redis: expire valuation %s: %w", v.Bond, err)
		}
	}
	return nil
}

// Get retrieves the latest valuation for a bond. It returns domain.ErrNotFound
// when the key does not exist.
func (vc *ValuationCache) Get(ctx context.Context, network domain.Network, bond string) (domain.Valuation, error) {
	vals, err := vc.rdb.HGetAll(ctx, valuationKey(network, bond)).Result()
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("redis: get valuation %s: %w", bond, err)
	}
	if len(vals) == 0 {
		return domain.Valuation{}, domain.ErrNotFound
	}
	return parseValuation(network, bond, vals)
}

// GetAll retrieves the latest valuations for multiple bonds using a pipeline.
// Bonds whose keys do not exist are silently omitted from the result map.
func (vc *ValuationCache) GetAll(ctx context.Context, network domain.Network, bonds []string) (map[string]domain.Valuation, error) {
	if len(bonds) == 0 {
		return map[string]domain.Valuation{}, nil
	}

	pipe := vc.rdb.Pipeline()
	cmds := make(map[string]*redis.MapStringStringCmd, len(bonds))
	for _, name := range bonds {
		cmds[name] = pipe.HGetAll(ctx, valuationKey(network, name))
	}

	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("redis: get valuations pipeline: %w", err)
	}

	result := make(map[string]domain.Valuation, len(bonds))
	for name, cmd := range cmds {
		vals, err := cmd.Result()
		if err != nil || len(vals) == 0 {
			continue
		}
		v, err := parseValuation(network, name, vals)
		if err != nil {
			continue
		}
		result[name] = v
	}

	return result, nil
}

func parseValuation(network domain.Network, bond string, vals map[string]string) (domain.Valuation, error) {
	value, err := strconv.ParseFloat(vals["value"], 64)
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("redis: parse value %s: %w", bond, err)
	}
	reservePrice, err := strconv.ParseFloat(vals["reserve_price"], 64)
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("redis: parse reserve_price %s: %w", bond, err)
	}
	bondPrice, err := strconv.ParseFloat(vals["bond_price"], 64)
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("redis: parse bond_price %s: %w", bond, err)
	}
	tsNano, err := strconv.ParseInt(vals["ts"], 10, 64)
	if err != nil {
		return domain.Valuation{}, fmt.Errorf("redis: parse ts %s: %w", bond, err)
	}

	return domain.Valuation{
		Bond:         bond,
		Network:      network,
		Value:        value,
		ReservePrice: reservePrice,
		BondPriceUSD: bondPrice,
		CreatedAt:    time.Unix(0, tsNano),
	}, nil
}

// Compile-time interface check.
var _ domain.ValuationCache = (*ValuationCache)(nil)
