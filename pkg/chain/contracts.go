package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
)

// Method selectors for the standard surfaces this engine reads: the
// Uniswap-V3-shaped factory/pool ABI, the Uniswap-V2-shaped getReserves,
// and ERC-20. Hand-packed rather than abigen-generated, following the same
// method set as the abigen! contract blocks this package is ported from.
var (
	selGetPool      = [4]byte{0x16, 0x98, 0xee, 0x82} // getPool(address,address,uint24)
	selToken0       = [4]byte{0x0d, 0xfe, 0x16, 0x81} // token0()
	selToken1       = [4]byte{0xd2, 0x12, 0x20, 0xa7} // token1()
	selSlot0        = [4]byte{0x38, 0x50, 0xc7, 0xbd} // slot0()
	selLiquidity    = [4]byte{0x1a, 0x68, 0x65, 0x02} // liquidity()
	selTicks        = [4]byte{0xf3, 0x0d, 0xba, 0x93} // ticks(int24)
	selTickSpacing  = [4]byte{0xd0, 0xc9, 0x3a, 0x7c} // tickSpacing()
	selGetReserves  = [4]byte{0x09, 0x02, 0xf1, 0xac} // getReserves()
	selDecimals     = [4]byte{0x31, 0x3c, 0xe5, 0x67} // decimals()
	selBalanceOf    = [4]byte{0x70, 0xa0, 0x82, 0x31} // balanceOf(address)
	selSymbol       = [4]byte{0x95, 0xd8, 0x9b, 0x41} // symbol()
)

func mustType(t string) abi.Type {
	ty, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(err) // fixed set of well-formed type strings, never fails
	}
	return ty
}

var (
	tyAddress = mustType("address")
	tyUint24  = mustType("uint24")
	tyInt24   = mustType("int24")
)

// Slot0 is the decoded return of pool.slot0().
type Slot0 struct {
	SqrtPriceX96 *uint256.Int
	Tick         int32
}

// TickData is the decoded return of pool.ticks(tick).
type TickData struct {
	LiquidityGross *big.Int
	LiquidityNet   *big.Int
	Initialized    bool
}

// GetPool calls factory.getPool(token0, token1, fee).
func (c *Client) GetPool(ctx context.Context, factory common.Address, token0, token1 common.Address, fee uint32) (common.Address, error) {
	args := abi.Arguments{{Type: tyAddress}, {Type: tyAddress}, {Type: tyUint24}}
	packed, err := args.Pack(token0, token1, big.NewInt(int64(fee)))
	if err != nil {
		return common.Address{}, fmt.Errorf("chain: pack getPool: %w", err)
	}
	data := append(append([]byte{}, selGetPool[:]...), packed...)
	out, err := c.Call(ctx, factory, data)
	if err != nil {
		return common.Address{}, err
	}
	unpacked, err := (abi.Arguments{{Type: tyAddress}}).Unpack(out)
	if err != nil || len(unpacked) == 0 {
		return common.Address{}, fmt.Errorf("chain: unpack getPool: %w", err)
	}
	return unpacked[0].(common.Address), nil
}

// Token0 calls pool.token0().
func (c *Client) Token0(ctx context.Context, pool common.Address) (common.Address, error) {
	return c.callAddress(ctx, pool, selToken0)
}

// Token1 calls pool.token1().
func (c *Client) Token1(ctx context.Context, pool common.Address) (common.Address, error) {
	return c.callAddress(ctx, pool, selToken1)
}

func (c *Client) callAddress(ctx context.Context, to common.Address, sel [4]byte) (common.Address, error) {
	out, err := c.Call(ctx, to, sel[:])
	if err != nil {
		return common.Address{}, err
	}
	unpacked, err := (abi.Arguments{{Type: tyAddress}}).Unpack(out)
	if err != nil || len(unpacked) == 0 {
		return common.Address{}, fmt.Errorf("chain: unpack address: %w", err)
	}
	return unpacked[0].(common.Address), nil
}

// Slot0 calls pool.slot0() and decodes sqrtPriceX96 and the current tick.
// Only the first two return values are decoded; the rest of the tuple
// (observationIndex, cardinality, etc.) is not needed by this engine.
func (c *Client) Slot0(ctx context.Context, pool common.Address) (Slot0, error) {
	out, err := c.Call(ctx, pool, selSlot0[:])
	if err != nil {
		return Slot0{}, err
	}
	if len(out) < 64 {
		return Slot0{}, fmt.Errorf("chain: slot0 short return (%d bytes)", len(out))
	}
	sqrtPriceX96, overflow := uint256.FromBig(new(big.Int).SetBytes(out[0:32]))
	if overflow {
		return Slot0{}, fmt.Errorf("chain: slot0 sqrtPriceX96 overflow")
	}
	tick := int32(new(big.Int).SetBytes(out[32:64]).Int64())
	return Slot0{SqrtPriceX96: sqrtPriceX96, Tick: tick}, nil
}

// Liquidity calls pool.liquidity().
func (c *Client) Liquidity(ctx context.Context, pool common.Address) (*big.Int, error) {
	out, err := c.Call(ctx, pool, selLiquidity[:])
	if err != nil {
		return nil, err
	}
	if len(out) < 32 {
		return nil, fmt.Errorf("chain: liquidity short return")
	}
	return new(big.Int).SetBytes(out[0:32]), nil
}

// TickSpacing calls pool.tickSpacing(). Must be read per-pool, never
// hardcoded, since it varies by fee tier.
func (c *Client) TickSpacing(ctx context.Context, pool common.Address) (int32, error) {
	out, err := c.Call(ctx, pool, selTickSpacing[:])
	if err != nil {
		return 0, err
	}
	if len(out) < 32 {
		return 0, fmt.Errorf("chain: tickSpacing short return")
	}
	return int32(new(big.Int).SetBytes(out[0:32]).Int64()), nil
}

// Ticks calls pool.ticks(tick) and decodes liquidityGross,
// liquidityNet, and initialized (the last field of the tuple).
func (c *Client) Ticks(ctx context.Context, pool common.Address, tick int32) (TickData, error) {
	packed, err := (abi.Arguments{{Type: tyInt24}}).Pack(big.NewInt(int64(tick)))
	if err != nil {
		return TickData{}, fmt.Errorf("chain: pack ticks: %w", err)
	}
	data := append(append([]byte{}, selTicks[:]...), packed...)
	out, err := c.Call(ctx, pool, data)
	if err != nil {
		return TickData{}, err
	}
	// Return tuple: (liquidityGross uint128, liquidityNet int128,
	// feeGrowthOutside0X128 uint256, feeGrowthOutside1X128 uint256,
	// tickCumulativeOutside int56, secondsPerLiquidityOutsideX128 uint160,
	// secondsOutside uint32, initialized bool). Each head slot is 32
	// bytes; only the first two and the last are needed.
	if len(out) < 32*8 {
		return TickData{}, fmt.Errorf("chain: ticks short return (%d bytes)", len(out))
	}
	gross := new(big.Int).SetBytes(out[0:32])
	net := signedFromWord(out[32:64])
	initialized := out[len(out)-1] != 0
	return TickData{LiquidityGross: gross, LiquidityNet: net, Initialized: initialized}, nil
}

// signedFromWord interprets a 32-byte big-endian word as a two's-complement
// signed integer (used for int128/int24 return values packed into a full
// word by the ABI).
func signedFromWord(word []byte) *big.Int {
	v := new(big.Int).SetBytes(word)
	if len(word) > 0 && word[0]&0x80 != 0 {
		mod := new(big.Int).Lsh(big.NewInt(1), uint(len(word)*8))
		v.Sub(v, mod)
	}
	return v
}

// GetReserves calls the V2-style pool.getReserves().
func (c *Client) GetReserves(ctx context.Context, pool common.Address) (reserve0, reserve1 *uint256.Int, err error) {
	out, err := c.Call(ctx, pool, selGetReserves[:])
	if err != nil {
		return nil, nil, err
	}
	if len(out) < 64 {
		return nil, nil, fmt.Errorf("chain: getReserves short return")
	}
	r0, overflow0 := uint256.FromBig(new(big.Int).SetBytes(out[0:32]))
	r1, overflow1 := uint256.FromBig(new(big.Int).SetBytes(out[32:64]))
	if overflow0 || overflow1 {
		return nil, nil, fmt.Errorf("chain: getReserves overflow")
	}
	return r0, r1, nil
}

// Decimals calls ERC20.decimals().
func (c *Client) Decimals(ctx context.Context, token common.Address) (uint8, error) {
	out, err := c.Call(ctx, token, selDecimals[:])
	if err != nil {
		return 0, err
	}
	if len(out) < 32 {
		return 0, fmt.Errorf("chain: decimals short return")
	}
	return uint8(new(big.Int).SetBytes(out[0:32]).Uint64()), nil
}

// BalanceOf calls ERC20.balanceOf(account).
func (c *Client) BalanceOf(ctx context.Context, token, account common.Address) (*uint256.Int, error) {
	packed, err := (abi.Arguments{{Type: tyAddress}}).Pack(account)
	if err != nil {
		return nil, fmt.Errorf("chain: pack balanceOf: %w", err)
	}
	data := append(append([]byte{}, selBalanceOf[:]...), packed...)
	out, err := c.Call(ctx, token, data)
	if err != nil {
		return nil, err
	}
	if len(out) < 32 {
		return nil, fmt.Errorf("chain: balanceOf short return")
	}
	bal, overflow := uint256.FromBig(new(big.Int).SetBytes(out[0:32]))
	if overflow {
		return nil, fmt.Errorf("chain: balanceOf overflow")
	}
	return bal, nil
}

// Symbol calls ERC20.symbol(), decoding the dynamic string return.
func (c *Client) Symbol(ctx context.Context, token common.Address) (string, error) {
	out, err := c.Call(ctx, token, selSymbol[:])
	if err != nil {
		return "", err
	}
	unpacked, err := (abi.Arguments{{Type: mustType("string")}}).Unpack(out)
	if err != nil || len(unpacked) == 0 {
		return "", fmt.Errorf("chain: unpack symbol: %w", err)
	}
	return unpacked[0].(string), nil
}
