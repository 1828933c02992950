// Package contracts holds the minimal ABI fragments the valuation layer needs
// to talk to the bond depositories and their reserve assets. Each ABI is
// parsed once at package init; a malformed fragment is a build defect and
// panics immediately.
package contracts

import (
	"strings"

	"github.com/ethereum/go-ethereum/accounts/abi"
)

// ERC20 covers the single fungible-token method the treasury valuation uses.
var ERC20 = mustParse(`[
	{"constant":true,"inputs":[{"name":"owner","type":"address"}],"name":"balanceOf","outputs":[{"name":"","type":"uint256"}],"payable":false,"stateMutability":"view","type":"function"}
]`)

// Pair is the UniswapV2-style pool-reserves interface backing LP bonds.
var Pair = mustParse(`[
	{"constant":true,"inputs":[],"name":"getReserves","outputs":[{"name":"reserve0","type":"uint112"},{"name":"reserve1","type":"uint112"},{"name":"blockTimestampLast","type":"uint32"}],"payable":false,"stateMutability":"view","type":"function"}
]`)

// Calculator is the bond-calculator contract that prices LP tokens: valuation
// converts an LP amount into 9-decimal protocol units, markdown applies the
// risk-free discount factor.
var Calculator = mustParse(`[
	{"inputs":[{"internalType":"address","name":"pair","type":"address"},{"internalType":"uint256","name":"amount","type":"uint256"}],"name":"valuation","outputs":[{"internalType":"uint256","name":"value","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[{"internalType":"address","name":"pair","type":"address"}],"name":"markdown","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`)

// Depository is the bond contract surface used for display quotes.
var Depository = mustParse(`[
	{"inputs":[],"name":"bondPriceInUSD","outputs":[{"internalType":"uint256","name":"price","type":"uint256"}],"stateMutability":"view","type":"function"},
	{"inputs":[],"name":"maxPayout","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"}
]`)

// Aggregator is a Chainlink-style price feed, used by custom bonds whose
// reserve is not a stablecoin (e.g. wETH).
var Aggregator = mustParse(`[
	{"inputs":[],"name":"latestAnswer","outputs":[{"internalType":"int256","name":"","type":"int256"}],"stateMutability":"view","type":"function"}
]`)

func mustParse(fragment string) *abi.ABI {
	parsed, err := abi.JSON(strings.NewReader(fragment))
	if err != nil {
		panic("contracts: parse ABI: " + err.Error())
	}
	return &parsed
}
