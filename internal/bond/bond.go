// Package bond defines the static bond descriptors of the protocol and the
// valuation of their treasury-held reserves. Descriptors are built once by
// NewRegistry and never mutated afterwards; all contract I/O goes through the
// domain.ContractCaller passed into each operation.
package bond

import (
	"context"
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"

	"github.com/alanyoungcy/treasurybot/internal/domain"
)

// Type tags the valuation algorithm a bond uses.
type Type string

const (
	// TypeStable values the reserve as a 1:1 stablecoin balance.
	TypeStable Type = "stable"
	// TypeLP values the reserve through the bond calculator's LP valuation
	// and markdown.
	TypeLP Type = "lp"
	// TypeCustom delegates valuation to an injected TreasuryFn.
	TypeCustom Type = "custom"
)

// Addresses is the per-network pair of contracts a bond operates against.
type Addresses struct {
	Bond    common.Address // bond depository
	Reserve common.Address // reserve token or LP pair
}

// TreasuryFn is the valuation strategy injected into custom bonds. It
// receives the bond itself so it can use the same contract-access helpers as
// the built-in variants.
type TreasuryFn func(ctx context.Context, b *Bond, network domain.Network, caller domain.ContractCaller) (float64, error)

// Bond is a static descriptor for one bond instrument. Fields are set at
// registry construction and read-only afterwards, so concurrent valuation of
// different bonds needs no synchronization.
type Bond struct {
	Name        string // unique, stable key
	DisplayName string
	BondToken   string // payout denomination label, informational only
	Type        Type

	// IsLP marks bonds whose reserve is priced as a pool share. It is set
	// explicitly rather than derived from Type so a custom bond can opt into
	// pool-style pricing without inheriting the LP valuation algorithm.
	IsLP bool

	IconURL string
	LPURL   string

	Available map[domain.Network]bool
	Addrs     map[domain.Network]Addresses

	BondABI    *abi.ABI
	ReserveABI *abi.ABI

	// CustomTreasuryFn must be set for TypeCustom bonds; the dispatch fails
	// with domain.ErrNotImplemented when it is nil.
	CustomTreasuryFn TreasuryFn
}

// AvailableOn reports the static availability flag for the network. Missing
// entries read as false.
func (b *Bond) AvailableOn(network domain.Network) bool {
	return b.Available[network]
}

// AddressForBond returns the bond depository address on the given network.
func (b *Bond) AddressForBond(network domain.Network) (common.Address, error) {
	addrs, ok := b.Addrs[network]
	if !ok {
		return common.Address{}, fmt.Errorf("bond %s: bond address on %s: %w", b.Name, network, domain.ErrUnsupportedNetwork)
	}
	return addrs.Bond, nil
}

// AddressForReserve returns the reserve contract address on the given network.
func (b *Bond) AddressForReserve(network domain.Network) (common.Address, error) {
	addrs, ok := b.Addrs[network]
	if !ok {
		return common.Address{}, fmt.Errorf("bond %s: reserve address on %s: %w", b.Name, network, domain.ErrUnsupportedNetwork)
	}
	return addrs.Reserve, nil
}

// Contract is a callable binding of an address, an ABI, and a dispatcher.
// Construction is pure; no I/O happens until Call.
type Contract struct {
	to      common.Address
	abi     *abi.ABI
	network domain.Network
	caller  domain.ContractCaller
}

// Call dispatches a read-only method call and returns the decoded tuple.
func (c Contract) Call(ctx context.Context, method string, args ...any) ([]any, error) {
	return c.caller.Call(ctx, c.network, c.to, c.abi, method, args...)
}

// Address returns the bound contract address.
func (c Contract) Address() common.Address {
	return c.to
}

// BondContract binds the bond depository on the given network.
func (b *Bond) BondContract(network domain.Network, caller domain.ContractCaller) (Contract, error) {
	addr, err := b.AddressForBond(network)
	if err != nil {
		return Contract{}, err
	}
	return Contract{to: addr, abi: b.BondABI, network: network, caller: caller}, nil
}

// ReserveContract binds the reserve token (or LP pair) on the given network.
func (b *Bond) ReserveContract(network domain.Network, caller domain.ContractCaller) (Contract, error) {
	addr, err := b.AddressForReserve(network)
	if err != nil {
		return Contract{}, err
	}
	return Contract{to: addr, abi: b.ReserveABI, network: network, caller: caller}, nil
}
