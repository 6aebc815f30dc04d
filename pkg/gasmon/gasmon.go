// Package gasmon implements the Gas Monitor: on each new block, reads the
// chain's current gas price and caches gwei/native-unit derivations.
package gasmon

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"

	"hyperquote/pkg/chain"
	gtypes "hyperquote/pkg/types"
)

// Monitor owns the latest gas price observation behind a single
// reader-preferred lock.
type Monitor struct {
	client *chain.Client

	mu      sync.RWMutex
	current *gtypes.GasPrice
}

// New wires a Monitor to a pinned client.
func New(client *chain.Client) *Monitor {
	return &Monitor{client: client}
}

// Run performs an initial gas-price read, then subscribes to new block
// heads and refreshes the cache on every block until ctx is canceled.
func (m *Monitor) Run(ctx context.Context) error {
	if err := m.update(ctx); err != nil {
		log.Printf("gasmon: initial gas price read failed: %v", err)
	}

	ch := make(chan *types.Header, 16)
	sub, err := m.client.SubscribeNewHead(ctx, ch)
	if err != nil {
		return fmt.Errorf("gasmon: subscribe newHeads: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			log.Printf("gasmon: new head stream ended: %v", err)
			return nil
		case <-ch:
			if err := m.update(ctx); err != nil {
				log.Printf("gasmon: gas price read failed: %v", err)
			}
		}
	}
}

func (m *Monitor) update(ctx context.Context) error {
	wei, err := m.client.GasPrice(ctx)
	if err != nil {
		return err
	}
	weiU256, overflow := uint256.FromBig(wei)
	if overflow {
		return fmt.Errorf("gasmon: gas price overflow")
	}
	gwei := gtypes.U256ToFloat(weiU256) / 1e9
	native := gwei / 1e9

	price := &gtypes.GasPrice{
		Wei:       weiU256,
		Gwei:      gwei,
		Native:    native,
		Timestamp: uint64(time.Now().Unix()),
	}

	m.mu.Lock()
	m.current = price
	m.mu.Unlock()

	log.Printf("gasmon: gas price %.4f gwei", gwei)
	return nil
}

// Current returns a copy of the latest gas price observation, or nil if
// none has been observed yet.
func (m *Monitor) Current() *gtypes.GasPrice {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.current == nil {
		return nil
	}
	cp := *m.current
	return &cp
}
