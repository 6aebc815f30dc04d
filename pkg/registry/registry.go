// Package registry holds the thread-safe in-memory mirror of discovered
// pool state: a single reader-preferred lock guards a map keyed by
// (pool address, dex name, fee tier).
package registry

import (
	"sync"

	"github.com/ethereum/go-ethereum/common"
	"hyperquote/pkg/types"
	"lukechampine.com/uint128"
)

// Key identifies a pool uniquely across dexes and fee tiers.
type Key struct {
	Address common.Address
	DEX     string
	FeeTier uint32
}

// Registry is the Pool Registry: discovery (one-shot) and the swap event
// listener (continuous) are the only writers; the snapshot assembler and
// any address lookup are readers. Writer-held sections are a single map
// insert or an address scan followed by O(1) field updates.
type Registry struct {
	mu    sync.RWMutex
	pools map[Key]*types.PoolState
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{pools: make(map[Key]*types.PoolState)}
}

// KeyOf builds the registry key for a pool.
func KeyOf(info types.PoolInfo) Key {
	return Key{Address: info.Address, DEX: info.DEX, FeeTier: info.FeeTier}
}

// Put inserts or replaces a pool's full state. Used at discovery time.
func (r *Registry) Put(state types.PoolState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	k := KeyOf(state.Info)
	cp := state
	r.pools[k] = &cp
}

// Get returns a copy of a pool's state, never a pointer into the map, so
// callers never observe a partially-initialized state across a concurrent
// write (invariant 5).
func (r *Registry) Get(k Key) (types.PoolState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.pools[k]
	if !ok {
		return types.PoolState{}, false
	}
	return *s, true
}

// FindByAddress returns the key and state of the pool with the given
// on-chain address. The swap event listener does not use it; its address
// lookup happens inside UpdateFromSwap.
func (r *Registry) FindByAddress(addr common.Address) (Key, types.PoolState, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for k, s := range r.pools {
		if k.Address == addr {
			return k, *s, true
		}
	}
	return Key{}, types.PoolState{}, false
}

// UpdateFromSwap applies a Swap-event-derived mutation to the pool with
// the given address: sqrt-price, liquidity, current tick, and the block
// number of the event. Returns false if no pool with that address is
// registered. The critical section scans the registered pools for the
// address, then performs O(1) field writes.
func (r *Registry) UpdateFromSwap(addr common.Address, sqrtPriceX96 *types.U256, liquidity uint128.Uint128, tick int32, block uint64) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.pools {
		if k.Address != addr {
			continue
		}
		s.Info.SqrtPriceX96 = sqrtPriceX96
		s.Info.Liquidity = liquidity
		s.Info.CurrentTick = tick
		if block > s.LastUpdatedBlock {
			s.LastUpdatedBlock = block
		}
		return true
	}
	return false
}

// All returns a copy of every pool currently registered. Safe to iterate
// without holding any lock; the snapshot assembler relies on this.
func (r *Registry) All() []types.PoolState {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]types.PoolState, 0, len(r.pools))
	for _, s := range r.pools {
		out = append(out, *s)
	}
	return out
}

// Addresses returns every registered pool's on-chain address, used to
// build the swap event listener's combined log filter.
func (r *Registry) Addresses() []common.Address {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]common.Address, 0, len(r.pools))
	for k := range r.pools {
		out = append(out, k.Address)
	}
	return out
}

// Size returns the number of registered pools.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.pools)
}
