package pricing

import (
	"github.com/ethereum/go-ethereum/common"
	"hyperquote/pkg/config"
)

// Symbol does an exact-match lookup of a token address against the
// configured tracked tokens, returning "UNKNOWN" for anything else.
func Symbol(cfg *config.Config, token common.Address) string {
	switch token {
	case cfg.HypeAddress:
		return "HYPE"
	case cfg.UBTCAddress:
		return "uBTC"
	case cfg.UETHAddress:
		return "uETH"
	case cfg.USDTAddress:
		return "USDT"
	default:
		return "UNKNOWN"
	}
}
