package simulate

import (
	"math/big"

	"lukechampine.com/uint128"
)

func liquidityToFloat(l uint128.Uint128) float64 {
	f := new(big.Float).SetInt(l.Big())
	out, _ := f.Float64()
	return out
}

func bigToFloat(v *big.Int) float64 {
	if v == nil {
		return 0
	}
	f := new(big.Float).SetInt(v)
	out, _ := f.Float64()
	return out
}
