package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNetworkChainIDs(t *testing.T) {
	assert.Equal(t, 1, int(Mainnet))
	assert.Equal(t, 4, int(Testnet))
}

func TestNetworkString(t *testing.T) {
	assert.Equal(t, "mainnet", Mainnet.String())
	assert.Equal(t, "testnet", Testnet.String())
	assert.Equal(t, "network(137)", Network(137).String())
}

func TestNetworkValid(t *testing.T) {
	assert.True(t, Mainnet.Valid())
	assert.True(t, Testnet.Valid())
	assert.False(t, Network(0).Valid())
	assert.False(t, Network(137).Valid())
}

func TestParseNetwork(t *testing.T) {
	cases := map[string]Network{
		"mainnet": Mainnet,
		"1":       Mainnet,
		"testnet": Testnet,
		"rinkeby": Testnet,
		"4":       Testnet,
	}
	for in, want := range cases {
		got, err := ParseNetwork(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := ParseNetwork("polygon")
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrUnsupportedNetwork)
}
