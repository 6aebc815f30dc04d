// Package chain wraps the EVM JSON-RPC connection: a rate-limited client
// over ethclient, a round-robin pool across multiple endpoints, and the
// bound-contract call helpers the discoverer, listener, and gas monitor
// build on.
package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
	"golang.org/x/time/rate"
)

// Client is a single rate-limited connection to one JSON-RPC endpoint. It
// exposes call and subscription operations; a TransportError (wrapped) is
// returned on connect failure.
type Client struct {
	endpoint string
	eth      *ethclient.Client
	rpc      *rpc.Client
	limiter  *rate.Limiter
}

// NewClient dials a websocket JSON-RPC endpoint and returns a Client
// throttled to reqLimitPerSecond requests per second (0 disables
// throttling).
func NewClient(ctx context.Context, endpoint string, reqLimitPerSecond int) (*Client, error) {
	rc, err := rpc.DialContext(ctx, endpoint)
	if err != nil {
		return nil, fmt.Errorf("chain: dial %s: %w", endpoint, err)
	}

	var limiter *rate.Limiter
	if reqLimitPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(reqLimitPerSecond), reqLimitPerSecond)
	}

	return &Client{
		endpoint: endpoint,
		eth:      ethclient.NewClient(rc),
		rpc:      rc,
		limiter:  limiter,
	}, nil
}

func (c *Client) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

// Call performs a throttled eth_call against the given contract address
// with the already-ABI-packed calldata, returning the raw return data.
func (c *Client) Call(ctx context.Context, to common.Address, data []byte) ([]byte, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("chain: rate limit: %w", err)
	}
	msg := callMsg(to, data)
	out, err := c.eth.CallContract(ctx, msg, nil)
	if err != nil {
		return nil, fmt.Errorf("chain: call %x: %w", to, err)
	}
	return out, nil
}

// FilterLogs performs a throttled eth_getLogs.
func (c *Client) FilterLogs(ctx context.Context, q types.FilterQuery) ([]types.Log, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("chain: rate limit: %w", err)
	}
	logs, err := c.eth.FilterLogs(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("chain: getLogs: %w", err)
	}
	return logs, nil
}

// SubscribeFilterLogs opens an eth_subscribe("logs") stream.
func (c *Client) SubscribeFilterLogs(ctx context.Context, q types.FilterQuery, ch chan<- types.Log) (types.Subscription, error) {
	sub, err := c.eth.SubscribeFilterLogs(ctx, q, ch)
	if err != nil {
		return nil, fmt.Errorf("chain: subscribe logs: %w", err)
	}
	return sub, nil
}

// SubscribeNewHead opens an eth_subscribe("newHeads") stream.
func (c *Client) SubscribeNewHead(ctx context.Context, ch chan<- *types.Header) (types.Subscription, error) {
	sub, err := c.eth.SubscribeNewHead(ctx, ch)
	if err != nil {
		return nil, fmt.Errorf("chain: subscribe newHeads: %w", err)
	}
	return sub, nil
}

// GasPrice performs a throttled eth_gasPrice.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	if err := c.wait(ctx); err != nil {
		return nil, fmt.Errorf("chain: rate limit: %w", err)
	}
	wei, err := c.eth.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("chain: gasPrice: %w", err)
	}
	return wei, nil
}

// Endpoint returns the URL this client was dialed against.
func (c *Client) Endpoint() string { return c.endpoint }

// Close releases the underlying RPC connection.
func (c *Client) Close() {
	c.rpc.Close()
}
