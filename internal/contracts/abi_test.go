package contracts

import (
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestABIMethodSurface(t *testing.T) {
	cases := []struct {
		name    string
		parsed  *abi.ABI
		methods []string
	}{
		{"erc20", ERC20, []string{"balanceOf"}},
		{"pair", Pair, []string{"getReserves"}},
		{"calculator", Calculator, []string{"valuation", "markdown"}},
		{"depository", Depository, []string{"bondPriceInUSD", "maxPayout"}},
		{"aggregator", Aggregator, []string{"latestAnswer"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Len(t, tc.parsed.Methods, len(tc.methods))
			for _, m := range tc.methods {
				_, ok := tc.parsed.Methods[m]
				assert.True(t, ok, "missing method %s", m)
			}
		})
	}
}

func TestCalculatorValuationPack(t *testing.T) {
	pair := common.HexToAddress("0x34d7d7Aaf50AD4944B70B320aCB24C95fa2def7c")
	amount := new(big.Int).Mul(big.NewInt(1e9), big.NewInt(1e9))

	data, err := Calculator.Pack("valuation", pair, amount)
	require.NoError(t, err)
	// 4-byte selector plus two 32-byte arguments.
	require.Len(t, data, 4+64)
	assert.Equal(t, Calculator.Methods["valuation"].ID, data[:4])
}

func TestPairGetReservesOutputs(t *testing.T) {
	method, ok := Pair.Methods["getReserves"]
	require.True(t, ok)
	require.Len(t, method.Outputs, 3)
	assert.Equal(t, "uint112", method.Outputs[0].Type.String())
	assert.Equal(t, "uint112", method.Outputs[1].Type.String())
	assert.Equal(t, "uint32", method.Outputs[2].Type.String())
}
