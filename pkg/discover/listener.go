package discover

import (
	"context"
	"fmt"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"hyperquote/pkg/chain"
	"hyperquote/pkg/registry"
)

// SwapEventTopic is the standard V3 Swap event signature:
// Swap(address indexed sender, address indexed recipient, int256 amount0,
// int256 amount1, uint160 sqrtPriceX96, uint128 liquidity, int24 tick).
var SwapEventTopic = common.HexToHash("0xc42079f94a6350d7e6235f29174924f928cc2ac818eb64fed8004e115fbcca67")

// Listener maintains one log subscription covering every registered pool
// address and the Swap event topic, applying each decoded event to the
// registry.
type Listener struct {
	client *chain.Client
	reg    *registry.Registry
}

// NewListener wires a Listener to a pinned client (subscriptions are not
// round-robin'd across the pool, they hold one persistent connection) and
// the registry to mutate.
func NewListener(client *chain.Client, reg *registry.Registry) *Listener {
	return &Listener{client: client, reg: reg}
}

// Run subscribes once to the combined Swap-event log filter and applies
// updates until ctx is canceled or the subscription ends. A stream end is
// logged, not retried; reconnection is a supervisor concern outside this
// component.
func (l *Listener) Run(ctx context.Context) error {
	addrs := l.reg.Addresses()
	if len(addrs) == 0 {
		log.Printf("discover: no pools to subscribe Swap events for")
		return nil
	}

	query := types.FilterQuery{
		Addresses: addrs,
		Topics:    [][]common.Hash{{SwapEventTopic}},
	}

	ch := make(chan types.Log, 256)
	sub, err := l.client.SubscribeFilterLogs(ctx, query, ch)
	if err != nil {
		return fmt.Errorf("discover: subscribe swap events: %w", err)
	}
	defer sub.Unsubscribe()

	log.Printf("discover: subscribed to Swap events for %d pools", len(addrs))

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			log.Printf("discover: swap event stream ended: %v", err)
			return nil
		case evLog := <-ch:
			l.handle(evLog)
		}
	}
}

// handle decodes one Swap log and applies it to the registry. A malformed
// log (wrong data length) is logged and skipped, never fatal.
func (l *Listener) handle(evLog types.Log) {
	// Non-indexed data: amount0(32) amount1(32) sqrtPriceX96(32)
	// liquidity(32) tick(32) = 160 bytes.
	if len(evLog.Data) < 160 {
		log.Printf("discover: invalid Swap event data length (%d bytes)", len(evLog.Data))
		return
	}

	sqrtPriceX96, overflow := uint256.FromBig(new(big.Int).SetBytes(evLog.Data[64:96]))
	if overflow {
		log.Printf("discover: swap event sqrtPriceX96 overflow")
		return
	}

	liquidityBytes := evLog.Data[96+16 : 96+32]
	liquidity := uint128.FromBig(new(big.Int).SetBytes(liquidityBytes))

	tickBytes := evLog.Data[128+29 : 128+32]
	tick := decodeInt24(tickBytes)

	ok := l.reg.UpdateFromSwap(evLog.Address, sqrtPriceX96, liquidity, tick, evLog.BlockNumber)
	if !ok {
		log.Printf("discover: swap event for unregistered pool %s", evLog.Address)
	}
}

// decodeInt24 sign-extends a 3-byte big-endian two's-complement value.
func decodeInt24(b []byte) int32 {
	v := uint32(b[0])<<16 | uint32(b[1])<<8 | uint32(b[2])
	if b[0]&0x80 != 0 {
		v |= 0xff000000
	}
	return int32(v)
}
