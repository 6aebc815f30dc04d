package chain

import (
	"context"
	"fmt"
	"sync/atomic"
)

// Pool manages multiple RPC endpoints and distributes calls across them in
// round-robin fashion, so a single slow or rate-limited endpoint does not
// become a bottleneck for the whole engine.
type Pool struct {
	endpoints []string
	clients   []*Client
	index     uint64
}

// NewPool dials one Client per endpoint.
func NewPool(ctx context.Context, endpoints []string, reqLimitPerSecond int) (*Pool, error) {
	if len(endpoints) == 0 {
		return nil, fmt.Errorf("chain: no endpoints configured")
	}

	pool := &Pool{
		endpoints: endpoints,
		clients:   make([]*Client, 0, len(endpoints)),
	}

	for _, endpoint := range endpoints {
		client, err := NewClient(ctx, endpoint, reqLimitPerSecond)
		if err != nil {
			return nil, err
		}
		pool.clients = append(pool.clients, client)
	}

	return pool, nil
}

// Client returns the next client in round-robin order.
func (p *Pool) Client() *Client {
	if len(p.clients) == 0 {
		return nil
	}
	if len(p.clients) == 1 {
		return p.clients[0]
	}
	idx := atomic.AddUint64(&p.index, 1) % uint64(len(p.clients))
	return p.clients[idx]
}

// Primary returns the first client, used for operations that must be
// pinned to a single connection (subscriptions).
func (p *Pool) Primary() *Client {
	if len(p.clients) == 0 {
		return nil
	}
	return p.clients[0]
}

// All returns every client in the pool.
func (p *Pool) All() []*Client {
	return p.clients
}

// Size returns the number of clients in the pool.
func (p *Pool) Size() int {
	return len(p.clients)
}

// Close closes every client in the pool.
func (p *Pool) Close() {
	for _, c := range p.clients {
		c.Close()
	}
}
