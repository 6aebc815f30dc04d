package pricing

import (
	"github.com/ethereum/go-ethereum/common"
	"hyperquote/pkg/config"
)

// Decimals returns the lookup-table decimals for a token: 6 for the quote
// stablecoin, 8 for wrapped-BTC, 18 for everything else. This is the
// pricing engine's decimals source; TVL estimation instead
// reads decimals() on-chain once per admission, see TVL in tvl.go.
func Decimals(cfg *config.Config, token common.Address) uint8 {
	switch token {
	case cfg.USDTAddress:
		return 6
	case cfg.UBTCAddress:
		return 8
	default:
		return 18
	}
}

// PoolDecimals returns the lookup-table decimals for both sides of a pool.
func PoolDecimals(cfg *config.Config, token0, token1 common.Address) (uint8, uint8) {
	return Decimals(cfg, token0), Decimals(cfg, token1)
}
