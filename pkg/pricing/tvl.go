package pricing

import (
	"context"
	"fmt"
	"math"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"

	"hyperquote/pkg/config"
	"hyperquote/pkg/types"
)

// caller is the subset of *chain.Client this package needs, kept as an
// interface so pricing does not import chain directly and tests can fake
// it with fixed balances/decimals.
type caller interface {
	BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error)
	Decimals(ctx context.Context, token common.Address) (uint8, error)
}

// TVL estimates a pool's total value locked in quote-token units, read at
// admission time only. Reads each token's balance of the
// pool and its decimals on-chain (not the lookup table the pricing engine
// itself uses for spot prices; decimals() is read live rather than via a
// table, same as dex.rs's calculate_tvl). If sqrtPriceX96 is zero this
// returns 0 directly without a reserves fallback.
func TVL(ctx context.Context, client caller, cfg *config.Config, pool, token0, token1 common.Address, sqrtPriceX96 *uint256.Int) (float64, error) {
	balance0, err := client.BalanceOf(ctx, token0, pool)
	if err != nil {
		return 0, fmt.Errorf("pricing: tvl balanceOf token0: %w", err)
	}
	balance1, err := client.BalanceOf(ctx, token1, pool)
	if err != nil {
		return 0, fmt.Errorf("pricing: tvl balanceOf token1: %w", err)
	}
	decimals0, err := client.Decimals(ctx, token0)
	if err != nil {
		return 0, fmt.Errorf("pricing: tvl decimals token0: %w", err)
	}
	decimals1, err := client.Decimals(ctx, token1)
	if err != nil {
		return 0, fmt.Errorf("pricing: tvl decimals token1: %w", err)
	}

	amount0 := types.U256ToFloat(balance0) / math.Pow(10, float64(decimals0))
	amount1 := types.U256ToFloat(balance1) / math.Pow(10, float64(decimals1))

	if sqrtPriceX96 == nil || sqrtPriceX96.IsZero() {
		return 0, nil
	}
	sqrtF := types.U256ToFloat(sqrtPriceX96)
	ratio := sqrtF / math.Pow(2, 96)
	priceToken1PerToken0 := ratio * ratio * math.Pow(10, float64(int(decimals0)-int(decimals1)))

	switch {
	case token1 == cfg.USDTAddress:
		return amount0*priceToken1PerToken0 + amount1, nil
	case token0 == cfg.USDTAddress:
		priceToken0PerToken1 := 0.0
		if priceToken1PerToken0 != 0 {
			priceToken0PerToken1 = 1.0 / priceToken1PerToken0
		}
		return amount0 + amount1*priceToken0PerToken1, nil
	default:
		return (amount0 + amount1) * 100.0, nil
	}
}
