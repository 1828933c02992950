package bond

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/treasurybot/internal/contracts"
	"github.com/alanyoungcy/treasurybot/internal/domain"
)

// Registry is the immutable set of known bonds. Build it once with
// NewRegistry (or DefaultRegistry) and pass it to whatever needs it; there is
// no package-level registry state.
type Registry struct {
	// All lists active bonds in display order.
	All []*Bond
	// Expired holds retired bonds kept for redemption views. Currently empty.
	Expired []*Bond

	byName map[string]*Bond
}

// NewRegistry builds a Registry and its name lookup from the given bonds.
// On duplicate names the last descriptor wins; names are unique by
// construction in the default set.
func NewRegistry(active, expired []*Bond) *Registry {
	r := &Registry{
		All:     active,
		Expired: expired,
		byName:  make(map[string]*Bond, len(active)+len(expired)),
	}
	for _, b := range active {
		r.byName[b.Name] = b
	}
	for _, b := range expired {
		r.byName[b.Name] = b
	}
	return r
}

// Lookup returns the bond with the given name.
func (r *Registry) Lookup(name string) (*Bond, bool) {
	b, ok := r.byName[name]
	return b, ok
}

// AvailableOn returns the active bonds flagged available on the network,
// preserving registry order.
func (r *Registry) AvailableOn(network domain.Network) []*Bond {
	var out []*Bond
	for _, b := range r.All {
		if b.AvailableOn(network) {
			out = append(out, b)
		}
	}
	return out
}

// Names returns the names of all active bonds in registry order.
func (r *Registry) Names() []string {
	names := make([]string, len(r.All))
	for i, b := range r.All {
		names[i] = b.Name
	}
	return names
}

// ethPriceFeeds are the Chainlink ETH/USD aggregators consulted by the wETH
// custom bond. The feed answers in 8 decimals.
var ethPriceFeeds = map[domain.Network]common.Address{
	domain.Mainnet: common.HexToAddress("0x5f4eC3Df9cbd43714FE2740f5E3616155c5b8419"),
	domain.Testnet: common.HexToAddress("0x8A753747A1Fa494EC906cE90E9f37563A8AF630e"),
}

// wethTreasuryValue is the injected valuation strategy for the wETH bond:
// treasury wETH balance times the aggregator's ETH/USD answer.
func wethTreasuryValue(ctx context.Context, b *Bond, network domain.Network, caller domain.ContractCaller) (float64, error) {
	treasury, err := caller.Treasury(network)
	if err != nil {
		return 0, fmt.Errorf("bond %s: %w", b.Name, err)
	}
	feedAddr, ok := ethPriceFeeds[network]
	if !ok {
		return 0, fmt.Errorf("bond %s: eth price feed on %s: %w", b.Name, network, domain.ErrUnsupportedNetwork)
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

	out, err = caller.Call(ctx, network, feedAddr, contracts.Aggregator, "latestAnswer")
	if err != nil {
		return 0, fmt.Errorf("bond %s: latestAnswer: %w", b.Name, err)
	}
	answer, err := asBig(out, 0)
	if err != nil {
		return 0, fmt.Errorf("bond %s: latestAnswer: %w", b.Name, err)
	}

	return toFloat(balance) / wad * (toFloat(answer) / feed), nil
}

// DefaultRegistry returns the production bond set.
func DefaultRegistry() *Registry {
	dai := &Bond{
		Name:        "dai",
		DisplayName: "DAI",
		BondToken:   "OHM",
		Type:        TypeStable,
		IconURL:     "https://assets.treasurybot.dev/tokens/dai.svg",
		Available:   map[domain.Network]bool{domain.Mainnet: true, domain.Testnet: true},
		Addrs: map[domain.Network]Addresses{
			domain.Mainnet: {
				Bond:    common.HexToAddress("0x575409F8d77c12B05feD8B455815f0e54797381c"),
				Reserve: common.HexToAddress("0x6B175474E89094C44Da98b954EedeAC495271d0F"),
			},
			domain.Testnet: {
				Bond:    common.HexToAddress("0xDea5668E815dAF058e3ecB30F645b04ad26374Cf"),
				Reserve: common.HexToAddress("0xB2180448f8945C8Cc8AE9809E67D6bd27d8B2f2C"),
			},
		},
		BondABI:    contracts.Depository,
		ReserveABI: contracts.ERC20,
	}

	frax := &Bond{
		Name:        "frax",
		DisplayName: "FRAX",
		BondToken:   "OHM",
		Type:        TypeStable,
		IconURL:     "https://assets.treasurybot.dev/tokens/frax.svg",
		Available:   map[domain.Network]bool{domain.Mainnet: true, domain.Testnet: true},
		Addrs: map[domain.Network]Addresses{
			domain.Mainnet: {
				Bond:    common.HexToAddress("0x8510c8c2B6891E04864fa196693D44E6B6ec2514"),
				Reserve: common.HexToAddress("0x853d955aCEf822Db058eb8505911ED77F175b99e"),
			},
			domain.Testnet: {
				Bond:    common.HexToAddress("0xF651283543fB9D61A91f318b78385d187D300738"),
				Reserve: common.HexToAddress("0x2F7249cb599139e560f0c81c269Ab9b04799E453"),
			},
		},
		BondABI:    contracts.Depository,
		ReserveABI: contracts.ERC20,
	}

	lusd := &Bond{
		Name:        "lusd",
		DisplayName: "LUSD",
		BondToken:   "OHM",
		Type:        TypeStable,
		IconURL:     "https://assets.treasurybot.dev/tokens/lusd.svg",
		Available:   map[domain.Network]bool{domain.Mainnet: true, domain.Testnet: false},
		Addrs: map[domain.Network]Addresses{
			domain.Mainnet: {
				Bond:    common.HexToAddress("0x10C0f93f64e3C8D0a1b0f4B87e6B3B559B7c13e4"),
				Reserve: common.HexToAddress("0x5f98805A4E8be255a32880FDeC7F6728C6568bA0"),
			},
		},
		BondABI:    contracts.Depository,
		ReserveABI: contracts.ERC20,
	}

	ohmDaiLP := &Bond{
		Name:        "ohm_dai_lp",
		DisplayName: "OHM-DAI LP",
		BondToken:   "OHM",
		Type:        TypeLP,
		IsLP:        true,
		IconURL:     "https://assets.treasurybot.dev/tokens/ohm-dai.svg",
		LPURL:       "https://app.sushi.com/add/0x383518188C0C6d7730D91b2c03a03C837814a899/0x6B175474E89094C44Da98b954EedeAC495271d0F",
		Available:   map[domain.Network]bool{domain.Mainnet: true, domain.Testnet: true},
		Addrs: map[domain.Network]Addresses{
			domain.Mainnet: {
				Bond:    common.HexToAddress("0x956c43998316b6a2F21f89a1539f73fB5B78c151"),
				Reserve: common.HexToAddress("0x34d7d7Aaf50AD4944B70B320aCB24C95fa2def7c"),
			},
			domain.Testnet: {
				Bond:    common.HexToAddress("0xcF449dA417cC36009a1C6FbA78918c31594B9377"),
				Reserve: common.HexToAddress("0x8D5a22Fb6A1840da602E56D1a260E56770e0bCE2"),
			},
		},
		BondABI:    contracts.Depository,
		ReserveABI: contracts.Pair,
	}

	ohmFraxLP := &Bond{
		Name:        "ohm_frax_lp",
		DisplayName: "OHM-FRAX LP",
		BondToken:   "OHM",
		Type:        TypeLP,
		IsLP:        true,
		IconURL:     "https://assets.treasurybot.dev/tokens/ohm-frax.svg",
		LPURL:       "https://app.uniswap.org/#/add/v2/0x853d955acef822db058eb8505911ed77f175b99e/0x383518188c0c6d7730d91b2c03a03c837814a899",
		Available:   map[domain.Network]bool{domain.Mainnet: true, domain.Testnet: true},
		Addrs: map[domain.Network]Addresses{
			domain.Mainnet: {
				Bond:    common.HexToAddress("0xc20CffF07076858a7e642E396180EC390E5A02f7"),
				Reserve: common.HexToAddress("0x2dcE0dDa1C2f98e0F171DE8333c3c6Fe1BbF4877"),
			},
			domain.Testnet: {
				Bond:    common.HexToAddress("0x7BB53Ef5088AEF2Bb073D9C01DCa3a1D484FD1d2"),
				Reserve: common.HexToAddress("0x11BE404d7853BDE29A3e73237c952EcDCbBA031E"),
			},
		},
		BondABI:    contracts.Depository,
		ReserveABI: contracts.Pair,
	}

	weth := &Bond{
		Name:             "weth",
		DisplayName:      "wETH",
		BondToken:        "OHM",
		Type:             TypeCustom,
		IconURL:          "https://assets.treasurybot.dev/tokens/weth.svg",
		Available:        map[domain.Network]bool{domain.Mainnet: true, domain.Testnet: true},
		CustomTreasuryFn: wethTreasuryValue,
		Addrs: map[domain.Network]Addresses{
			domain.Mainnet: {
				Bond:    common.HexToAddress("0xE6295201CD1ff13CeD5f063a5421c39A1D236F1c"),
				Reserve: common.HexToAddress("0xC02aaA39b223FE8D0A0e5C4F27eAD9083C756Cc2"),
			},
			domain.Testnet: {
				Bond:    common.HexToAddress("0xca7b90f8158A4FAA606952c023596EE6d322bcf0"),
				Reserve: common.HexToAddress("0xc778417E063141139Fce010982780140Aa0cD5Ab"),
			},
		},
		BondABI:    contracts.Depository,
		ReserveABI: contracts.ERC20,
	}

	return NewRegistry(
		[]*Bond{dai, frax, lusd, ohmDaiLP, ohmFraxLP, weth},
		nil,
	)
}
