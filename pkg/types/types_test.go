package types

import (
	"math"
	"math/big"
	"math/rand"
	"testing"

	"github.com/holiman/uint256"
)

func TestU256ToFloatRoundTrip(t *testing.T) {
	// Converting a wide integer to float64 and back must land within 1 ULP
	// of the input, over random inputs in [2^80, 2^160): the U256<->float64
	// boundary this type uses throughout the pricing and simulation layers.
	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 1000; i++ {
		shift := 80 + rng.Intn(80)
		base := new(uint256.Int).Lsh(uint256.NewInt(1), uint(shift))
		noise := uint256.NewInt(uint64(rng.Intn(1 << 20)))
		x := new(uint256.Int).Add(base, noise)

		f := U256ToFloat(x)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			t.Fatalf("U256ToFloat(%v) = %v", x, f)
		}
		if f <= 0 {
			t.Fatalf("U256ToFloat(%v) = %v, want > 0", x, f)
		}

		back, _ := new(big.Float).SetFloat64(f).Int(nil)
		diff := new(big.Int).Sub(back, x.ToBig())
		diff.Abs(diff)
		ulp := math.Nextafter(f, math.Inf(1)) - f
		if d, _ := new(big.Float).SetInt(diff).Float64(); d > ulp {
			t.Fatalf("U256ToFloat(%v) = %v, round trip off by %v, more than 1 ULP (%v)", x, f, d, ulp)
		}
	}
}

func TestU256ToFloatNil(t *testing.T) {
	if got := U256ToFloat(nil); got != 0 {
		t.Errorf("U256ToFloat(nil) = %v, want 0", got)
	}
}

func TestPoolStateIsFresh(t *testing.T) {
	cases := []struct {
		name    string
		state   PoolState
		block   uint64
		want    bool
	}{
		{"never updated", PoolState{LastUpdatedBlock: 0}, 100, false},
		{"same block", PoolState{LastUpdatedBlock: 100}, 100, true},
		{"two blocks old", PoolState{LastUpdatedBlock: 98}, 100, true},
		{"three blocks old", PoolState{LastUpdatedBlock: 97}, 100, false},
		{"future block (clock skew)", PoolState{LastUpdatedBlock: 105}, 100, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			if got := c.state.IsFresh(c.block); got != c.want {
				t.Errorf("IsFresh(%d) = %v, want %v", c.block, got, c.want)
			}
		})
	}
}

func TestPoolInfoGetBaseToken(t *testing.T) {
	token0 := Address{1}
	token1 := Address{2}
	quote := Address{3}
	info := PoolInfo{Token0: token0, Token1: token1}

	if _, ok := info.GetBaseToken(quote); ok {
		t.Error("expected no base token when quote is not in the pool")
	}

	base, ok := info.GetBaseToken(token0)
	if !ok || base != token1 {
		t.Errorf("GetBaseToken(token0) = (%v,%v), want (%v,true)", base, ok, token1)
	}

	base, ok = info.GetBaseToken(token1)
	if !ok || base != token0 {
		t.Errorf("GetBaseToken(token1) = (%v,%v), want (%v,true)", base, ok, token0)
	}
}

func TestPoolInfoHasReserves(t *testing.T) {
	info := PoolInfo{}
	if info.HasReserves() {
		t.Error("expected HasReserves false when both reserves are nil")
	}
	info.Reserve0 = uint256.NewInt(1)
	info.Reserve1 = uint256.NewInt(1)
	if !info.HasReserves() {
		t.Error("expected HasReserves true when both reserves are set")
	}
}
