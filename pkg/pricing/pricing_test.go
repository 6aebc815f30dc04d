package pricing

import (
	"math"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hyperquote/pkg/config"
	"hyperquote/pkg/types"
)

func testConfig() *config.Config {
	return &config.Config{
		HypeAddress: common.HexToAddress("0x5555555555555555555555555555555555555555"),
		USDTAddress: common.HexToAddress("0xB8CE59FC3717ada4C02eaDF9682A9e934F625ebb"),
		UBTCAddress: common.HexToAddress("0x9FDBdA0A5e284c32744D2f17Ee5c74B284993463"),
		UETHAddress: common.HexToAddress("0xBe6727B535545C67d5cAa73dEa54865B92CF7907"),
	}
}

func TestSpotFromSqrtPriceDecimalAdjustment(t *testing.T) {
	// sqrtPriceX96 = 2^96 <=> ratio 1.0; dec0=18, dec1=6 => 10^12.
	sqrtPriceX96 := new(uint256.Int).Lsh(uint256.NewInt(1), 96)
	info := types.PoolInfo{SqrtPriceX96: sqrtPriceX96}
	p01, p10 := Price(info, 18, 6)

	require.InEpsilon(t, math.Pow(10, 12), p01, 1e-9)
	assert.InDelta(t, 1.0, p01*p10, 1e-9, "price duality: p01*p10 must be 1")
}

func TestSpotFromReservesFallback(t *testing.T) {
	info := types.PoolInfo{
		SqrtPriceX96: uint256.NewInt(0),
		Reserve0:     uint256.NewInt(1_000_000_000_000_000_000), // 1 token0, 18 decimals
		Reserve1:     uint256.NewInt(2_000_000),                 // 2 token1, 6 decimals
	}
	p01, _ := Price(info, 18, 6)
	assert.InDelta(t, 2.0, p01, 1e-9)
}

func TestPriceDegenerate(t *testing.T) {
	info := types.PoolInfo{SqrtPriceX96: uint256.NewInt(0)}
	p01, p10 := Price(info, 18, 18)
	assert.Zero(t, p01)
	assert.Zero(t, p10)
}

func TestPriceInQuoteDisambiguation(t *testing.T) {
	cfg := testConfig()

	// token0 = QUOTE(USDT), token1 = BASE(HYPE): disambiguation returns
	// (symbol(token1), token0_per_token1).
	qp1 := types.QuotePrice{
		Pool:                types.PoolInfo{Token0: cfg.USDTAddress, Token1: cfg.HypeAddress},
		Token1PriceInToken0: 0.5,
		Token0PriceInToken1: 2.0,
	}
	sym, price, ok := PriceInQuote(cfg, qp1, cfg.USDTAddress)
	require.True(t, ok)
	assert.Equal(t, "HYPE", sym)
	assert.Equal(t, 2.0, price)

	// Reciprocal pool: token0 = BASE(HYPE), token1 = QUOTE(USDT): should
	// return the same numeric price for the same base symbol.
	qp2 := types.QuotePrice{
		Pool:                types.PoolInfo{Token0: cfg.HypeAddress, Token1: cfg.USDTAddress},
		Token1PriceInToken0: 2.0,
		Token0PriceInToken1: 0.5,
	}
	sym2, price2, ok2 := PriceInQuote(cfg, qp2, cfg.USDTAddress)
	require.True(t, ok2)
	assert.Equal(t, "HYPE", sym2)
	assert.Equal(t, 2.0, price2)
}

func TestPriceInQuoteNoMatch(t *testing.T) {
	cfg := testConfig()
	qp := types.QuotePrice{
		Pool: types.PoolInfo{Token0: cfg.HypeAddress, Token1: cfg.UBTCAddress},
	}
	_, _, ok := PriceInQuote(cfg, qp, cfg.USDTAddress)
	assert.False(t, ok, "expected no match when neither token is the quote address")
}

func TestDecimalsLookupTable(t *testing.T) {
	cfg := testConfig()
	assert.EqualValues(t, 6, Decimals(cfg, cfg.USDTAddress))
	assert.EqualValues(t, 8, Decimals(cfg, cfg.UBTCAddress))
	assert.EqualValues(t, 18, Decimals(cfg, cfg.HypeAddress))
}
