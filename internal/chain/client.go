// Package chain implements domain.ContractCaller over Ethereum JSON-RPC. One
// client connection is held per configured network; the valuation layer never
// sees the transport.
package chain

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/alanyoungcy/treasurybot/internal/domain"
)

// NetworkConfig holds the per-network RPC endpoint and protocol addresses.
type NetworkConfig struct {
	RPCURL     string
	Treasury   common.Address
	Calculator common.Address
}

// ClientConfig configures the dispatcher.
type ClientConfig struct {
	Networks map[domain.Network]NetworkConfig
	// CallTimeout bounds each individual eth_call. Zero means the caller's
	// context is the only deadline.
	CallTimeout time.Duration
}

// Client dispatches read-only contract calls. It is safe for concurrent use.
type Client struct {
	clients  map[domain.Network]*ethclient.Client
	networks map[domain.Network]NetworkConfig
	timeout  time.Duration
	logger   *slog.Logger
}

// New dials every configured network and returns the dispatcher. Dial errors
// on any network abort construction; partially dialed connections are closed.
func New(ctx context.Context, cfg ClientConfig, logger *slog.Logger) (*Client, error) {
	c := &Client{
		clients:  make(map[domain.Network]*ethclient.Client, len(cfg.Networks)),
		networks: cfg.Networks,
		timeout:  cfg.CallTimeout,
		logger:   logger.With(slog.String("component", "chain")),
	}

	for network, nc := range cfg.Networks {
		ec, err := ethclient.DialContext(ctx, nc.RPCURL)
		if err != nil {
			c.Close()
			return nil, fmt.Errorf("chain: dial %s: %w", network, err)
		}
		c.clients[network] = ec
		c.logger.InfoContext(ctx, "chain: connected",
			slog.String("network", network.String()),
		)
	}

	return c, nil
}

// Close releases all RPC connections.
func (c *Client) Close() {
	for _, ec := range c.clients {
		ec.Close()
	}
}

// Call packs the method call, issues eth_call against the latest block, and
// returns the decoded return tuple. Failures carry no retry; they wrap the
// transport or decoding error for the caller to handle.
func (c *Client) Call(ctx context.Context, network domain.Network, to common.Address, contractABI *abi.ABI, method string, args ...any) ([]any, error) {
	ec, ok := c.clients[network]
	if !ok {
		return nil, fmt.Errorf("chain: call on %s: %w", network, domain.ErrUnsupportedNetwork)
	}

	data, err := contractABI.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("chain: pack %s: %w", method, err)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	raw, err := ec.CallContract(ctx, ethereum.CallMsg{To: &to, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %s on %s at %s: %w", method, network, to.Hex(), err)
	}

	out, err := contractABI.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("chain: unpack %s: %w", method, err)
	}
	return out, nil
}

// Treasury returns the protocol treasury address for the network.
func (c *Client) Treasury(network domain.Network) (common.Address, error) {
	nc, ok := c.networks[network]
	if !ok {
		return common.Address{}, fmt.Errorf("chain: treasury on %s: %w", network, domain.ErrUnsupportedNetwork)
	}
	return nc.Treasury, nil
}

// Calculator returns the bond-calculator address for the network.
func (c *Client) Calculator(network domain.Network) (common.Address, error) {
	nc, ok := c.networks[network]
	if !ok {
		return common.Address{}, fmt.Errorf("chain: calculator on %s: %w", network, domain.ErrUnsupportedNetwork)
	}
	return nc.Calculator, nil
}

// Compile-time interface check.
var _ domain.ContractCaller = (*Client)(nil)
