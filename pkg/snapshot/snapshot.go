// Package snapshot implements the Snapshot Assembler: on every new block,
// reads the pool registry, the order-book cache, and the gas cache, and
// emits one PriceSnapshot. It is paced by the chain's own block rate and
// never runs ahead of it.
package snapshot

import (
	"context"
	"fmt"
	"log"
	"time"

	gethtypes "github.com/ethereum/go-ethereum/core/types"

	"hyperquote/pkg/book"
	"hyperquote/pkg/chain"
	"hyperquote/pkg/config"
	"hyperquote/pkg/pricing"
	"hyperquote/pkg/registry"
	"hyperquote/pkg/types"
)

// Assembler wires the registry, order-book client, and gas monitor into a
// single per-block snapshot producer.
type Assembler struct {
	client *chain.Client
	cfg    *config.Config
	reg    *registry.Registry
	book   *book.Client
	gas    gasSource

	out chan types.PriceSnapshot
}

// gasSource is the subset of *gasmon.Monitor the assembler needs, kept as
// an interface to avoid a direct dependency on the gasmon package.
type gasSource interface {
	Current() *types.GasPrice
}

// New wires an Assembler. out is the channel each block's snapshot is
// published on; callers should drain it promptly since it is unbuffered-
// paced to block arrival.
func New(client *chain.Client, cfg *config.Config, reg *registry.Registry, bookClient *book.Client, gas gasSource, out chan types.PriceSnapshot) *Assembler {
	return &Assembler{
		client: client,
		cfg:    cfg,
		reg:    reg,
		book:   bookClient,
		gas:    gas,
		out:    out,
	}
}

// Run subscribes to new block heads and assembles one snapshot per block
// until ctx is canceled or the subscription ends.
func (a *Assembler) Run(ctx context.Context) error {
	ch := make(chan *gethtypes.Header, 16)
	sub, err := a.client.SubscribeNewHead(ctx, ch)
	if err != nil {
		return fmt.Errorf("snapshot: subscribe newHeads: %w", err)
	}
	defer sub.Unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return nil
		case err := <-sub.Err():
			log.Printf("snapshot: new head stream ended: %v", err)
			return nil
		case head := <-ch:
			a.assemble(head.Number.Uint64())
		}
	}
}

// assemble builds one PriceSnapshot from the current state of the
// registry, order book, and gas cache. It is not transactional with
// respect to in-flight updates from other tasks; each QuotePrice's
// LastUpdatedBlock exposes how current its inputs were.
func (a *Assembler) assemble(blockNumber uint64) {
	pools := a.reg.All()
	quotes := make([]types.QuotePrice, 0, len(pools))
	for _, state := range pools {
		quotes = append(quotes, pricing.QuotePriceFor(a.cfg, state))
	}

	var levels []types.OrderBookLevel
	if a.book != nil {
		levels = a.book.All()
	}

	var gas *types.GasPrice
	if a.gas != nil {
		gas = a.gas.Current()
	}

	snap := types.PriceSnapshot{
		DEXPrices:       quotes,
		OrderBookLevels: levels,
		Gas:             gas,
		Timestamp:       uint64(time.Now().Unix()),
	}

	select {
	case a.out <- snap:
	default:
		log.Printf("snapshot: block %d snapshot dropped, consumer not keeping up", blockNumber)
	}
}
