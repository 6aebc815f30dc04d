// Package discover implements the Pool Discoverer, the Tick Window Loader,
// and the Swap Event Listener: the one-shot and continuous feeds into the
// Pool Registry.
package discover

import (
	"context"
	"log"
	"math/big"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"lukechampine.com/uint128"

	"hyperquote/pkg/chain"
	"hyperquote/pkg/config"
	"hyperquote/pkg/pricing"
	"hyperquote/pkg/registry"
	"hyperquote/pkg/types"
)

// FeeTiers are the candidate Uniswap-V3-style fee tiers probed for every
// (factory, pair) combination, in hundredths of a basis point.
var FeeTiers = []uint32{100, 500, 2500, 3000, 10000}

// TickWindowRadius is the number of tick-spacing multiples loaded on each
// side of the current tick at discovery time.
const TickWindowRadius = 10

// Discoverer probes every configured factory against every tracked pair
// and fee tier, admitting pools that clear the TVL threshold.
type Discoverer struct {
	pool *chain.Pool
	cfg  *config.Config
	reg  *registry.Registry
}

// New returns a Discoverer wired to the given RPC pool, configuration, and
// registry.
func New(pool *chain.Pool, cfg *config.Config, reg *registry.Registry) *Discoverer {
	return &Discoverer{pool: pool, cfg: cfg, reg: reg}
}

// Run performs one full discovery pass: factory × tracked-pair × fee-tier.
// An individual probe failure is logged and skipped; discovery always
// continues to the next combination.
func (d *Discoverer) Run(ctx context.Context) error {
	log.Printf("discover: starting pool discovery")

	pairs := d.cfg.TrackedPairs()
	found := 0

	for _, factory := range d.cfg.Factories {
		log.Printf("discover: scanning %s factory at %s", factory.Name, factory.Address)

		for _, pair := range pairs {
			for _, fee := range FeeTiers {
				state, ok, err := d.loadPool(ctx, factory, pair[0], pair[1], fee)
				if err != nil {
					// ProbeError: swallowed, this combination is skipped.
					continue
				}
				if !ok {
					continue
				}
				d.reg.Put(state)
				found++
				log.Printf("discover: found pool %s %s (fee %d) TVL $%.2f",
					factory.Name, state.Info.Address, fee, state.Info.TVLUSD)
			}
		}
	}

	log.Printf("discover: complete, %d pools admitted", found)
	return nil
}

// loadPool probes one (factory, pair, fee) combination. ok is false when
// no pool exists for this combination or its TVL falls under threshold;
// err is non-nil only on a transport/decode failure, which the caller
// treats as a skip, never a fatal error.
func (d *Discoverer) loadPool(ctx context.Context, factory config.Factory, tokenA, tokenB common.Address, fee uint32) (types.PoolState, bool, error) {
	client := d.pool.Client()

	// Invariant 1: canonicalize by address order before querying the
	// factory.
	token0, token1 := tokenA, tokenB
	if bytesGreater(token0, token1) {
		token0, token1 = token1, token0
	}

	poolAddr, err := client.GetPool(ctx, factory.Address, token0, token1, fee)
	if err != nil {
		return types.PoolState{}, false, err
	}
	if poolAddr == (common.Address{}) {
		return types.PoolState{}, false, nil
	}

	token0Addr, err := client.Token0(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, false, err
	}
	token1Addr, err := client.Token1(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, false, err
	}

	slot0, err := client.Slot0(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, false, err
	}
	liquidityRaw, err := client.Liquidity(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, false, err
	}
	liquidity := uint128.FromBig(liquidityRaw)

	var reserve0, reserve1 *uint256.Int
	if slot0.SqrtPriceX96 == nil || slot0.SqrtPriceX96.IsZero() {
		reserve0, reserve1, err = client.GetReserves(ctx, poolAddr)
		if err != nil {
			// V2-style fallback genuinely absent; this pool stays
			// degenerate (ArithmeticDegeneracy), not an error.
			reserve0, reserve1 = nil, nil
		}
	}

	tickSpacing, err := client.TickSpacing(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, false, err
	}

	tvl, err := pricing.TVL(ctx, client, d.cfg, poolAddr, token0Addr, token1Addr, slot0.SqrtPriceX96)
	if err != nil {
		return types.PoolState{}, false, err
	}
	if tvl < d.cfg.MinTVLUSD {
		return types.PoolState{}, false, nil
	}

	info := types.PoolInfo{
		Address:      poolAddr,
		Token0:       token0Addr,
		Token1:       token1Addr,
		FeeTier:      fee,
		CurrentTick:  slot0.Tick,
		TickSpacing:  tickSpacing,
		SqrtPriceX96: slot0.SqrtPriceX96,
		Liquidity:    liquidity,
		TVLUSD:       tvl,
		DEX:          factory.Name,
		Reserve0:     reserve0,
		Reserve1:     reserve1,
	}

	ticks := loadTickWindow(ctx, client, poolAddr, slot0.Tick, tickSpacing)

	return types.PoolState{Info: info, Ticks: ticks, LastUpdatedBlock: 0}, true, nil
}

// LoadTickWindow reads ticks at offsets [-TickWindowRadius, TickWindowRadius]
// multiples of tickSpacing around currentTick's tickSpacing-aligned floor,
// keeping only initialized ticks with nonzero gross liquidity. Exported so
// the standalone simulator entry point can refresh a pool's window without
// going through a Discoverer.
func LoadTickWindow(ctx context.Context, client *chain.Client, pool common.Address, currentTick, tickSpacing int32) map[int32]types.TickInfo {
	return loadTickWindow(ctx, client, pool, currentTick, tickSpacing)
}

// alignTick floors tick to the nearest multiple of spacing below it,
// handling negative ticks correctly. A pool's slot0 tick is almost never
// already a multiple of tickSpacing, so the window must be built around
// the same aligned base the walker starts from (simulate.Run) — otherwise
// every key loaded here carries slot0's nonzero residue mod spacing and
// never matches the aligned ticks the walker looks up.
func alignTick(tick, spacing int32) int32 {
	q := tick / spacing
	if tick%spacing != 0 && (tick < 0) != (spacing < 0) {
		q--
	}
	return q * spacing
}

func loadTickWindow(ctx context.Context, client *chain.Client, pool common.Address, currentTick, tickSpacing int32) map[int32]types.TickInfo {
	out := make(map[int32]types.TickInfo)
	aligned := alignTick(currentTick, tickSpacing)
	for offset := -TickWindowRadius; offset <= TickWindowRadius; offset++ {
		tick := aligned + int32(offset)*tickSpacing
		data, err := client.Ticks(ctx, pool, tick)
		if err != nil {
			continue // tick not initialized / probe failed, ignore
		}
		if !data.Initialized || data.LiquidityGross.Sign() <= 0 {
			continue
		}
		out[tick] = types.TickInfo{
			Tick:           tick,
			Initialized:    data.Initialized,
			LiquidityNet:   new(big.Int).Set(data.LiquidityNet),
			LiquidityGross: uint128.FromBig(data.LiquidityGross),
		}
	}
	return out
}

func bytesGreater(a, b common.Address) bool {
	for i := range a {
		if a[i] != b[i] {
			return a[i] > b[i]
		}
	}
	return false
}
