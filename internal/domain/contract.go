package domain

import (
	"context"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
)

// ContractCaller dispatches read-only contract calls against a network. It is
// the only seam between the valuation layer and the RPC transport, so tests
// can substitute a canned implementation.
type ContractCaller interface {
	// Call issues an eth_call against the contract at `to`, encoding `method`
	// and `args` with the given ABI, and returns the decoded return tuple.
	Call(ctx context.Context, network Network, to common.Address, contractABI *abi.ABI, method string, args ...any) ([]any, error)

	// Treasury returns the protocol treasury address whose holdings are
	// valued on the given network.
	Treasury(network Network) (common.Address, error)

	// Calculator returns the bond-calculator contract address used for LP
	// valuation and markdown on the given network.
	Calculator(network Network) (common.Address, error)
}
