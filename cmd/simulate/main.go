// Command simulate is the standalone one-shot swap simulator: point it at
// a single pool address and it prints a tick-by-tick fill report for the
// configured target notional, the way the original research script did.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/ethereum/go-ethereum/common"
	"lukechampine.com/uint128"

	"hyperquote/pkg/chain"
	"hyperquote/pkg/config"
	"hyperquote/pkg/discover"
	"hyperquote/pkg/pricing"
	"hyperquote/pkg/simulate"
	"hyperquote/pkg/types"
)

var (
	rpcURL         = flag.String("rpc", "", "HTTP JSON-RPC endpoint (reads ALCHEMY_RPC_URL from env if not specified)")
	poolAddress    = flag.String("pool", "", "Pool contract address (reads POOL_ADDRESS from env if not specified)")
	targetNotional = flag.Float64("notional", 0, "Target notional in token1 units (defaults to configured simulator target)")
	maxSlippage    = flag.Float64("slippage", 0, "Maximum allowed slippage fraction (defaults to configured simulator max)")
	rateLimit      = flag.Int("ratelimit", 10, "RPC requests per second")
)

func main() {
	if err := config.LoadEnv(".env"); err != nil {
		log.Printf("Warning: could not load .env file: %v", err)
	}
	flag.Parse()

	cfg, err := config.FromEnv()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	endpoint := *rpcURL
	if endpoint == "" {
		endpoint = os.Getenv("ALCHEMY_RPC_URL")
	}
	if endpoint == "" {
		fmt.Fprintln(os.Stderr, "Error: no RPC endpoint. Pass -rpc or set ALCHEMY_RPC_URL")
		os.Exit(1)
	}

	poolAddr := cfg.PoolAddress
	if *poolAddress != "" {
		if !common.IsHexAddress(*poolAddress) {
			fmt.Fprintf(os.Stderr, "Error: invalid pool address %q\n", *poolAddress)
			os.Exit(1)
		}
		poolAddr = common.HexToAddress(*poolAddress)
	}
	if poolAddr == (common.Address{}) {
		fmt.Fprintln(os.Stderr, "Error: no pool address. Pass -pool or set POOL_ADDRESS")
		os.Exit(1)
	}

	notional := cfg.SimulatorTargetNotional
	if *targetNotional > 0 {
		notional = *targetNotional
	}
	slipCap := cfg.SimulatorMaxSlippage
	if *maxSlippage > 0 {
		slipCap = *maxSlippage
	}

	ctx := context.Background()
	client, err := chain.NewClient(ctx, endpoint, *rateLimit)
	if err != nil {
		log.Fatalf("chain: %v", err)
	}
	defer client.Close()

	state, dec0, dec1, sym0, sym1, err := loadPoolState(ctx, client, cfg, poolAddr)
	if err != nil {
		log.Fatalf("simulate: %v", err)
	}

	p01, p10 := pricing.Price(state.Info, dec0, dec1)
	fmt.Printf("Pool %s (fee %d)\n", state.Info.Address, state.Info.FeeTier)
	fmt.Printf("  %s/%s spot: %.8f   %s/%s spot: %.8f\n", sym1, sym0, p01, sym0, sym1, p10)
	fmt.Printf("  tick=%d tickSpacing=%d liquidity=%s\n", state.Info.CurrentTick, state.Info.TickSpacing, state.Info.Liquidity.String())

	gasWei, err := client.GasPrice(ctx)
	if err == nil {
		fmt.Printf("  gas price: %s wei\n", gasWei.String())
	}

	result := simulate.Run(state, dec0, dec1, simulate.Up, notional, slipCap)

	fmt.Printf("\nSimulating buy of %.2f %s notional (max slippage %.4f%%)\n", notional, sym1, slipCap*100)
	for i, step := range result.Steps {
		fmt.Printf("  step %3d  tick=%-8d price=%.8f fill=%.4f base=%.8f\n", i+1, step.Tick, step.Price, step.Fill, step.BaseInRange)
	}

	completion := 0.0
	if notional > 0 {
		completion = result.NotionalFilled / notional * 100
	}
	fmt.Printf("\nStatus: %s\n", result.Status)
	fmt.Printf("Filled: %.2f / %.2f (%.2f%%)\n", result.NotionalFilled, notional, completion)
	fmt.Printf("Acquired: %.8f %s\n", result.BaseAcquired, sym0)
	fmt.Printf("Average execution price: %.8f\n", result.AverageExecutionPrice)
	fmt.Printf("Slippage: %.4f%%\n", result.Slippage*100)
}

// loadPoolState performs a fresh one-shot read of a pool's state: tokens,
// slot0, liquidity, tick spacing, and its tick window. Decimals and
// symbols come from the pricing lookup tables, not from the chain.
func loadPoolState(ctx context.Context, client *chain.Client, cfg *config.Config, poolAddr common.Address) (types.PoolState, uint8, uint8, string, string, error) {
	token0, err := client.Token0(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, 0, 0, "", "", fmt.Errorf("token0: %w", err)
	}
	token1, err := client.Token1(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, 0, 0, "", "", fmt.Errorf("token1: %w", err)
	}
	slot0, err := client.Slot0(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, 0, 0, "", "", fmt.Errorf("slot0: %w", err)
	}
	liquidityRaw, err := client.Liquidity(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, 0, 0, "", "", fmt.Errorf("liquidity: %w", err)
	}
	tickSpacing, err := client.TickSpacing(ctx, poolAddr)
	if err != nil {
		return types.PoolState{}, 0, 0, "", "", fmt.Errorf("tickSpacing: %w", err)
	}

	dec0, dec1 := pricing.PoolDecimals(cfg, token0, token1)
	sym0, sym1 := pricing.Symbol(cfg, token0), pricing.Symbol(cfg, token1)

	info := types.PoolInfo{
		Address:      poolAddr,
		Token0:       token0,
		Token1:       token1,
		CurrentTick:  slot0.Tick,
		TickSpacing:  tickSpacing,
		SqrtPriceX96: slot0.SqrtPriceX96,
		Liquidity:    uint128.FromBig(liquidityRaw),
	}

	ticks := discover.LoadTickWindow(ctx, client, poolAddr, slot0.Tick, tickSpacing)

	return types.PoolState{Info: info, Ticks: ticks, LastUpdatedBlock: 0}, dec0, dec1, sym0, sym1, nil
}
