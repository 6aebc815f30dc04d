// Package pricing implements the Pricing Engine: spot price from
// sqrt-price or reserves, base/quote disambiguation, and TVL estimation.
package pricing

import (
	"math"

	"hyperquote/pkg/config"
	"hyperquote/pkg/types"
)

// Price computes both directional spot prices for a pool given the
// decimals of its two tokens. Primary path uses sqrt-price; if that is
// zero, falls back to reserves; if neither is usable, both prices are 0
// (ArithmeticDegeneracy, the caller must filter).
func Price(info types.PoolInfo, dec0, dec1 uint8) (token1PerToken0, token0PerToken1 float64) {
	token1PerToken0 = spotFromSqrtPrice(info, dec0, dec1)
	if token1PerToken0 == 0 && info.HasReserves() {
		token1PerToken0 = spotFromReserves(info, dec0, dec1)
	}
	if token1PerToken0 == 0 {
		return 0, 0
	}
	return token1PerToken0, 1.0 / token1PerToken0
}

func spotFromSqrtPrice(info types.PoolInfo, dec0, dec1 uint8) float64 {
	if info.SqrtPriceX96 == nil || info.SqrtPriceX96.IsZero() {
		return 0
	}
	sqrtF := types.U256ToFloat(info.SqrtPriceX96)
	ratio := sqrtF / math.Pow(2, 96)
	scale := math.Pow(10, float64(int(dec0)-int(dec1)))
	return ratio * ratio * scale
}

func spotFromReserves(info types.PoolInfo, dec0, dec1 uint8) float64 {
	r0 := types.U256ToFloat(info.Reserve0)
	r1 := types.U256ToFloat(info.Reserve1)
	if r0 <= 0 || r1 <= 0 {
		return 0
	}
	q0 := r0 / math.Pow(10, float64(dec0))
	q1 := r1 / math.Pow(10, float64(dec1))
	if q0 <= 0 {
		return 0
	}
	return q1 / q0
}

// QuotePriceFor computes the QuotePrice for a pool state using the
// lookup-table decimals source.
func QuotePriceFor(cfg *config.Config, state types.PoolState) types.QuotePrice {
	dec0, dec1 := PoolDecimals(cfg, state.Info.Token0, state.Info.Token1)
	p01, p10 := Price(state.Info, dec0, dec1)
	return types.QuotePrice{
		Pool:                state.Info,
		Token1PriceInToken0: p01,
		Token0PriceInToken1: p10,
		LastUpdatedBlock:    state.LastUpdatedBlock,
	}
}

// PriceInQuote disambiguates base/quote by matching against the
// configured quote-token address: if token1 is the quote, returns
// (symbol(token0), token1_per_token0); if token0 is the quote, returns
// (symbol(token1), token0_per_token1); otherwise ok is false.
func PriceInQuote(cfg *config.Config, qp types.QuotePrice, quote types.Address) (symbol string, price float64, ok bool) {
	if qp.Pool.Token1 == quote {
		return Symbol(cfg, qp.Pool.Token0), qp.Token1PriceInToken0, true
	}
	if qp.Pool.Token0 == quote {
		return Symbol(cfg, qp.Pool.Token1), qp.Token0PriceInToken1, true
	}
	return "", 0, false
}
