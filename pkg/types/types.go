// Package types holds the shared data model for the price aggregation
// engine: pool identity and state, quote prices, order-book levels, gas
// price, and the assembled per-block snapshot.
package types

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"
)

// Address is a 20-byte contract or token identifier.
type Address = common.Address

// U256 is a 256-bit unsigned integer used for on-chain wide values
// (sqrt-price, raw reserves, gas price in wei).
type U256 = uint256.Int

// U256ToFloat converts a wide integer to float64, lossily, for ratio
// computations. Mirrors the big-endian-bytes-through-big.Float conversion
// the pricing engine this is ported from used (u256_to_f64).
func U256ToFloat(x *U256) float64 {
	if x == nil {
		return 0
	}
	f := new(big.Float).SetInt(x.ToBig())
	out, _ := f.Float64()
	return out
}

// TickInfo summarizes one initialized tick: its net liquidity delta
// (signed) and gross liquidity (unsigned).
type TickInfo struct {
	Tick             int32
	Initialized      bool
	LiquidityNet     *big.Int // signed, fits in 128 bits
	LiquidityGross   uint128.Uint128
}

// PoolInfo is the immutable identity plus latest observed snapshot of a
// concentrated-liquidity pool.
type PoolInfo struct {
	Address      Address
	Token0       Address
	Token1       Address
	FeeTier      uint32 // hundredths of a basis point
	CurrentTick  int32
	TickSpacing  int32
	SqrtPriceX96 *U256 // may be zero for degenerate / reserve-only pools
	Liquidity    uint128.Uint128
	TVLUSD       float64
	DEX          string

	// Reserve0/Reserve1 are present iff the pool exposes a V2-style
	// getReserves surface. Nil when not applicable.
	Reserve0 *U256
	Reserve1 *U256
}

// HasReserves reports whether this pool carries V2-style reserves.
func (p PoolInfo) HasReserves() bool {
	return p.Reserve0 != nil && p.Reserve1 != nil
}

// GetBaseToken returns the token that is not the given quote address, and
// whether the pool actually contains the quote address at all.
func (p PoolInfo) GetBaseToken(quote Address) (Address, bool) {
	switch quote {
	case p.Token0:
		return p.Token1, true
	case p.Token1:
		return p.Token0, true
	default:
		return Address{}, false
	}
}

// PoolState is a PoolInfo plus a bounded tick window and event-derived
// freshness bookkeeping.
type PoolState struct {
	Info PoolInfo

	// Ticks maps tick index to TickInfo for a bounded window around the
	// current tick, loaded at discovery time. It is a plain Go map: ticks
	// are looked up by index, and iteration order is not defined.
	Ticks map[int32]TickInfo

	// LastUpdatedBlock is the block number of the most recent Swap event
	// that mutated this state. Zero means never updated by an event.
	LastUpdatedBlock uint64
}

// IsFresh reports whether the pool was updated by a Swap event within the
// last three blocks relative to currentBlock.
func (s PoolState) IsFresh(currentBlock uint64) bool {
	if s.LastUpdatedBlock == 0 {
		return false
	}
	if currentBlock < s.LastUpdatedBlock {
		return false
	}
	return currentBlock-s.LastUpdatedBlock < 3
}

// QuotePrice pairs a pool with both directional spot prices.
type QuotePrice struct {
	Pool                 PoolInfo
	Token1PriceInToken0   float64
	Token0PriceInToken1   float64
	LastUpdatedBlock      uint64
}

// OrderBookLevel is the latest top-of-book observation for one symbol.
type OrderBookLevel struct {
	Symbol string
	Bid    float64
	Mid    float64
	Ask    float64
	Time   uint64
}

// GasPrice is a cached gas-price observation.
type GasPrice struct {
	Wei       *U256
	Gwei      float64
	Native    float64
	Timestamp uint64
}

// PriceSnapshot is the per-block fusion of DEX quotes and order-book
// levels, with an assembly timestamp.
type PriceSnapshot struct {
	DEXPrices        []QuotePrice
	OrderBookLevels  []OrderBookLevel
	Gas              *GasPrice
	Timestamp        uint64
}
