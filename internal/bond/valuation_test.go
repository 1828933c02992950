package bond

import (
	"context"
	"fmt"
	"math/big"
	"sync"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alanyoungcy/treasurybot/internal/contracts"
	"github.com/alanyoungcy/treasurybot/internal/domain"
)

// fakeCaller serves canned per-method results and records the methods called.
type fakeCaller struct {
	treasury   common.Address
	calculator common.Address
	results    map[string][]any
	errs       map[string]error

	mu      sync.Mutex
	methods []string
}

func (f *fakeCaller) Call(_ context.Context, _ domain.Network, _ common.Address, _ *abi.ABI, method string, _ ...any) ([]any, error) {
	f.mu.Lock()
	f.methods = append(f.methods, method)
	f.mu.Unlock()

	if err, ok := f.errs[method]; ok {
		return nil, err
	}
	out, ok := f.results[method]
	if !ok {
		return nil, fmt.Errorf("fakeCaller: unexpected method %s", method)
	}
	return out, nil
}

func (f *fakeCaller) Treasury(domain.Network) (common.Address, error) {
	return f.treasury, nil
}

func (f *fakeCaller) Calculator(domain.Network) (common.Address, error) {
	return f.calculator, nil
}

func (f *fakeCaller) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.methods...)
}

// units returns n * 10^decimals.
func units(n int64, decimals int64) *big.Int {
	exp := new(big.Int).Exp(big.NewInt(10), big.NewInt(decimals), nil)
	return new(big.Int).Mul(big.NewInt(n), exp)
}

func stableBond() *Bond {
	return &Bond{
		Name:      "dai",
		Type:      TypeStable,
		Available: map[domain.Network]bool{domain.Mainnet: true},
		Addrs: map[domain.Network]Addresses{
			domain.Mainnet: {
				Bond:    common.HexToAddress("0x01"),
				Reserve: common.HexToAddress("0x02"),
			},
		},
		BondABI:    contracts.Depository,
		ReserveABI: contracts.ERC20,
	}
}

func lpBond() *Bond {
	return &Bond{
		Name:      "ohm_dai_lp",
		Type:      TypeLP,
		IsLP:      true,
		Available: map[domain.Network]bool{domain.Mainnet: true},
		Addrs: map[domain.Network]Addresses{
			domain.Mainnet: {
				Bond:    common.HexToAddress("0x03"),
				Reserve: common.HexToAddress("0x04"),
			},
		},
		BondABI:    contracts.Depository,
		ReserveABI: contracts.Pair,
	}
}

func TestStableTreasuryValue(t *testing.T) {
	caller := &fakeCaller{
		treasury: common.HexToAddress("0xaa"),
		results: map[string][]any{
			"balanceOf": {units(5, 18)},
		},
	}

	value, err := stableBond().TreasuryValue(context.Background(), domain.Mainnet, caller)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, value, 1e-9)
	assert.Equal(t, []string{"balanceOf"}, caller.called())
}

func TestLPTreasuryValue(t *testing.T) {
	// 2 LP tokens, calculator values one full unit at 10 (9 decimals) and
	// marks the pool down 50%: (2 * 10) * 0.5 = 10.
	caller := &fakeCaller{
		treasury:   common.HexToAddress("0xaa"),
		calculator: common.HexToAddress("0xbb"),
		results: map[string][]any{
			"balanceOf": {units(2, 18)},
			"valuation": {units(10, 9)},
			"markdown":  {units(5, 17)},
		},
	}

	value, err := lpBond().TreasuryValue(context.Background(), domain.Mainnet, caller)
	require.NoError(t, err)
	assert.InDelta(t, 10.0, value, 1e-9)
	assert.ElementsMatch(t, []string{"balanceOf", "valuation", "markdown"}, caller.called())
}

func TestLPTreasuryValueFailFast(t *testing.T) {
	boom := fmt.Errorf("rpc timeout")
	caller := &fakeCaller{
		treasury:   common.HexToAddress("0xaa"),
		calculator: common.HexToAddress("0xbb"),
		results: map[string][]any{
			"balanceOf": {units(2, 18)},
			"valuation": {units(10, 9)},
		},
		errs: map[string]error{
			"markdown": boom,
		},
	}

	_, err := lpBond().TreasuryValue(context.Background(), domain.Mainnet, caller)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
}

func TestStableReservePriceIsConstant(t *testing.T) {
	caller := &fakeCaller{}

	price, err := stableBond().ReservePrice(context.Background(), domain.Mainnet, caller)
	require.NoError(t, err)
	assert.Equal(t, 1.0, price)
	assert.Empty(t, caller.called(), "stable reserve price must not hit the chain")
}

func TestLPReservePrice(t *testing.T) {
	// 1000 OHM (9 decimals) against 2000 DAI (18 decimals):
	// 2000e18 / 1000e9 / 1e9 = 2.
	caller := &fakeCaller{
		results: map[string][]any{
			"getReserves": {units(1000, 9), units(2000, 18), uint32(0)},
		},
	}

	price, err := lpBond().ReservePrice(context.Background(), domain.Mainnet, caller)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, price, 1e-9)
}

func TestLPReservePriceRawRatio(t *testing.T) {
	// The price is exactly reserve1/reserve0/1e9, whatever the raw scale.
	caller := &fakeCaller{
		results: map[string][]any{
			"getReserves": {big.NewInt(1000), big.NewInt(2000), uint32(0)},
		},
	}

	price, err := lpBond().ReservePrice(context.Background(), domain.Mainnet, caller)
	require.NoError(t, err)
	assert.InDelta(t, 2e-9, price, 1e-18)
}

func TestCustomTreasuryValueNilFn(t *testing.T) {
	b := &Bond{
		Name:      "weird",
		Type:      TypeCustom,
		Available: map[domain.Network]bool{domain.Mainnet: true},
	}

	_, err := b.TreasuryValue(context.Background(), domain.Mainnet, &fakeCaller{})
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrNotImplemented)
}

func TestCustomTreasuryValueDelegates(t *testing.T) {
	var got *Bond
	b := &Bond{
		Name: "weth",
		Type: TypeCustom,
		CustomTreasuryFn: func(_ context.Context, inner *Bond, _ domain.Network, _ domain.ContractCaller) (float64, error) {
			got = inner
			return 42.0, nil
		},
	}

	value, err := b.TreasuryValue(context.Background(), domain.Mainnet, &fakeCaller{})
	require.NoError(t, err)
	assert.Equal(t, 42.0, value)
	assert.Same(t, b, got, "strategy must receive the bond it is attached to")
}

func TestCustomBondIsLPDecoupledFromType(t *testing.T) {
	// A custom bond can opt into pool-style reserve pricing without using
	// the LP valuation algorithm.
	b := &Bond{
		Name:      "custom_lp",
		Type:      TypeCustom,
		IsLP:      true,
		Available: map[domain.Network]bool{domain.Mainnet: true},
		Addrs: map[domain.Network]Addresses{
			domain.Mainnet: {Reserve: common.HexToAddress("0x09")},
		},
		ReserveABI: contracts.Pair,
	}
	caller := &fakeCaller{
		results: map[string][]any{
			"getReserves": {units(1, 9), units(3, 18), uint32(0)},
		},
	}

	price, err := b.ReservePrice(context.Background(), domain.Mainnet, caller)
	require.NoError(t, err)
	assert.InDelta(t, 3.0, price, 1e-9)
}

func TestTreasuryValueUnsupportedNetwork(t *testing.T) {
	// dai is mainnet-only in this fixture; valuing it on testnet must fail
	// with ErrUnsupportedNetwork from the address lookup.
	caller := &fakeCaller{
		results: map[string][]any{
			"balanceOf": {units(5, 18)},
		},
	}

	_, err := stableBond().TreasuryValue(context.Background(), domain.Testnet, caller)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUnsupportedNetwork)
}

func TestBondPriceUSD(t *testing.T) {
	caller := &fakeCaller{
		results: map[string][]any{
			"bondPriceInUSD": {units(25, 18)},
		},
	}

	price, err := stableBond().BondPriceUSD(context.Background(), domain.Mainnet, caller)
	require.NoError(t, err)
	assert.InDelta(t, 25.0, price, 1e-9)
}

func TestMaxPayout(t *testing.T) {
	caller := &fakeCaller{
		results: map[string][]any{
			"maxPayout": {units(1500, 9)},
		},
	}

	payout, err := stableBond().MaxPayout(context.Background(), domain.Mainnet, caller)
	require.NoError(t, err)
	assert.InDelta(t, 1500.0, payout, 1e-9)
}

func TestBadCallResultType(t *testing.T) {
	caller := &fakeCaller{
		treasury: common.HexToAddress("0xaa"),
		results: map[string][]any{
			"balanceOf": {"not a big.Int"},
		},
	}

	_, err := stableBond().TreasuryValue(context.Background(), domain.Mainnet, caller)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrBadCallResult)
}

func TestWETHTreasuryValue(t *testing.T) {
	// 3 wETH at an aggregator answer of 2000 USD (8 decimals) = 6000 USD.
	caller := &fakeCaller{
		treasury: common.HexToAddress("0xaa"),
		results: map[string][]any{
			"balanceOf":    {units(3, 18)},
			"latestAnswer": {units(2000, 8)},
		},
	}

	reg := DefaultRegistry()
	weth, ok := reg.Lookup("weth")
	require.True(t, ok)

	value, err := weth.TreasuryValue(context.Background(), domain.Mainnet, caller)
	require.NoError(t, err)
	assert.InDelta(t, 6000.0, value, 1e-9)
}
