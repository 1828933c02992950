package bond

import (
	"context"
	"fmt"
	"math/big"

	"golang.org/x/sync/errgroup"

	"github.com/alanyoungcy/treasurybot/internal/contracts"
	"github.com/alanyoungcy/treasurybot/internal/domain"
)

// Decimal-scaling constants. These are fixed conventions of the deployed
// contracts, not derivable at runtime: reserve tokens and markdown are
// 18-decimal, the calculator's valuation and the protocol token are
// 9-decimal, and aggregator feeds answer in 8 decimals. Changing any of
// these silently changes every computed valuation.
const (
	wad  = 1e18
	gwei = 1e9
	feed = 1e8
)

// oneWAD is the 10^18 unit amount passed to the calculator's valuation call.
var oneWAD = new(big.Int).Mul(big.NewInt(1e9), big.NewInt(1e9))

// ReservePrice returns the market price of one reserve unit in USD. LP-style
// reserves are priced from the pair's reserves as reserve1/reserve0/1e9 (a
// property of this pair's token ordering and decimals); everything else is a
// stablecoin pegged at 1.
func (b *Bond) ReservePrice(ctx context.Context, network domain.Network, caller domain.ContractCaller) (float64, error) {
	if !b.IsLP {
		return 1, nil
	}

	reserve, err := b.ReserveContract(network, caller)
	if err != nil {
		return 0, err
	}
	out, err := reserve.Call(ctx, "getReserves")
	if err != nil {
		return 0, fmt.Errorf("bond %s: getReserves: %w", b.Name, err)
	}
	reserve0, err := asBig(out, 0)
	if err != nil {
		return 0, fmt.Errorf("bond %s: getReserves: %w", b.Name, err)
	}
	reserve1, err := asBig(out, 1)
	if err != nil {
		return 0, fmt.Errorf("bond %s: getReserves: %w", b.Name, err)
	}

	return toFloat(reserve1) / toFloat(reserve0) / gwei, nil
}

// TreasuryValue computes the USD value of the treasury's holdings of this
// bond's reserve. Errors from the underlying calls are wrapped and returned
// as-is; there is no retry or fallback at this layer.
func (b *Bond) TreasuryValue(ctx context.Context, network domain.Network, caller domain.ContractCaller) (float64, error) {
	switch b.Type {
	case TypeStable:
		return b.stableTreasuryValue(ctx, network, caller)
	case TypeLP:
		return b.lpTreasuryValue(ctx, network, caller)
	case TypeCustom:
		if b.CustomTreasuryFn == nil {
			return 0, fmt.Errorf("bond %s: no custom treasury valuation: %w", b.Name, domain.ErrNotImplemented)
		}
		return b.CustomTreasuryFn(ctx, b, network, caller)
	default:
		return 0, fmt.Errorf("bond %s: unknown bond type %q", b.Name, b.Type)
	}
}

// stableTreasuryValue is one balanceOf round trip on an 18-decimal token.
func (b *Bond) stableTreasuryValue(ctx context.Context, network domain.Network, caller domain.ContractCaller) (float64, error) {
	treasury, err := caller.Treasury(network)
	if err != nil {
		return 0, fmt.Errorf("bond %s: %w", b.Name, err)
	}
	reserve, err := b.ReserveContract(network, caller)
	if err != nil {
		return 0, err
	}

	out, err := reserve.Call(ctx, "balanceOf", treasury)
	if err != nil {
		return 0, fmt.Errorf("bond %s: balanceOf: %w", b.Name, err)
	}
	balance, err := asBig(out, 0)
	if err != nil {
		return 0, fmt.Errorf("bond %s: balanceOf: %w", b.Name, err)
	}

	return toFloat(balance) / wad, nil
}

// lpTreasuryValue issues the LP balance, calculator valuation, and markdown
// calls concurrently and joins them fail-fast: any single failure aborts the
// whole computation with that error.
func (b *Bond) lpTreasuryValue(ctx context.Context, network domain.Network, caller domain.ContractCaller) (float64, error) {
	treasury, err := caller.Treasury(network)
	if err != nil {
		return 0, fmt.Errorf("bond %s: %w", b.Name, err)
	}
	calculator, err := caller.Calculator(network)
	if err != nil {
		return 0, fmt.Errorf("bond %s: %w", b.Name, err)
	}
	reserve, err := b.ReserveContract(network, caller)
	if err != nil {
		return 0, err
	}
	reserveAddr := reserve.Address()

	var amount, valuation, markdown *big.Int

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		out, err := reserve.Call(gctx, "balanceOf", treasury)
		if err != nil {
			return fmt.Errorf("bond %s: balanceOf: %w", b.Name, err)
		}
		amount, err = asBig(out, 0)
		return err
	})
	g.Go(func() error {
		out, err := caller.Call(gctx, network, calculator, contracts.Calculator, "valuation", reserveAddr, oneWAD)
		if err != nil {
			return fmt.Errorf("bond %s: valuation: %w", b.Name, err)
		}
		valuation, err = asBig(out, 0)
		return err
	})
	g.Go(func() error {
		out, err := caller.Call(gctx, network, calculator, contracts.Calculator, "markdown", reserveAddr)
		if err != nil {
			return fmt.Errorf("bond %s: markdown: %w", b.Name, err)
		}
		markdown, err = asBig(out, 0)
		return err
	})
	if err := g.Wait(); err != nil {
		return 0, err
	}

	scaled := toFloat(amount) / wad * toFloat(valuation)
	return scaled / gwei * (toFloat(markdown) / wad), nil
}

// BondPriceUSD returns the depository's current bond quote in USD.
func (b *Bond) BondPriceUSD(ctx context.Context, network domain.Network, caller domain.ContractCaller) (float64, error) {
	depo, err := b.BondContract(network, caller)
	if err != nil {
		return 0, err
	}
	out, err := depo.Call(ctx, "bondPriceInUSD")
	if err != nil {
		return 0, fmt.Errorf("bond %s: bondPriceInUSD: %w", b.Name, err)
	}
	price, err := asBig(out, 0)
	if err != nil {
		return 0, fmt.Errorf("bond %s: bondPriceInUSD: %w", b.Name, err)
	}
	return toFloat(price) / wad, nil
}

// MaxPayout returns the depository's maximum single-bond payout in protocol
// token units (9 decimals).
func (b *Bond) MaxPayout(ctx context.Context, network domain.Network, caller domain.ContractCaller) (float64, error) {
	depo, err := b.BondContract(network, caller)
	if err != nil {
		return 0, err
	}
	out, err := depo.Call(ctx, "maxPayout")
	if err != nil {
		return 0, fmt.Errorf("bond %s: maxPayout: %w", b.Name, err)
	}
	payout, err := asBig(out, 0)
	if err != nil {
		return 0, fmt.Errorf("bond %s: maxPayout: %w", b.Name, err)
	}
	return toFloat(payout) / gwei, nil
}

// asBig extracts a *big.Int at position i of a decoded return tuple.
func asBig(out []any, i int) (*big.Int, error) {
	if i >= len(out) {
		return nil, fmt.Errorf("missing return value %d: %w", i, domain.ErrBadCallResult)
	}
	v, ok := out[i].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("return value %d is %T, want *big.Int: %w", i, out[i], domain.ErrBadCallResult)
	}
	return v, nil
}

func toFloat(v *big.Int) float64 {
	f, _ := new(big.Float).SetInt(v).Float64()
	return f
}
