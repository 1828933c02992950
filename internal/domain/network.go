package domain

import "fmt"

// Network identifies a supported Ethereum deployment by its numeric chain ID.
type Network int

const (
	Mainnet Network = 1
	Testnet Network = 4 // Rinkeby
)

// Networks lists every recognized network in a stable order.
var Networks = []Network{Mainnet, Testnet}

// Valid reports whether n is one of the recognized networks.
func (n Network) Valid() bool {
	return n == Mainnet || n == Testnet
}

// String returns the canonical lowercase name of the network.
func (n Network) String() string {
	switch n {
	case Mainnet:
		return "mainnet"
	case Testnet:
		return "testnet"
	default:
		return fmt.Sprintf("network(%d)", int(n))
	}
}

// ParseNetwork maps a name or numeric chain ID string to a Network.
func ParseNetwork(s string) (Network, error) {
	switch s {
	case "mainnet", "1":
		return Mainnet, nil
	case "testnet", "rinkeby", "4":
		return Testnet, nil
	default:
		return 0, fmt.Errorf("domain: parse network %q: %w", s, ErrUnsupportedNetwork)
	}
}
