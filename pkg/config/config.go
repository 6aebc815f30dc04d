package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ethereum/go-ethereum/common"
)

// Factory pairs a DEX's factory contract address with its display label.
// List order defines label precedence when logging discovered pools.
type Factory struct {
	Name    string
	Address common.Address
}

// Config is the engine's full runtime configuration, loaded from
// environment variables (optionally populated from a .env file via
// LoadEnv) with defaults matching the reference deployment.
type Config struct {
	ChainWSRPC        string
	OrderBookWSURL    string

	HypeAddress common.Address
	USDTAddress common.Address
	UBTCAddress common.Address
	UETHAddress common.Address

	Factories []Factory

	MinTVLUSD                 float64
	MinProfitThresholdPercent float64
	MinProfitThresholdUSD     float64

	// Simulator defaults, overridable by cmd/simulate flags.
	SimulatorTargetNotional float64
	SimulatorMaxSlippage    float64

	// PoolAddress is only consulted by the standalone simulator entry
	// point (cmd/simulate); the daemon ignores it.
	PoolAddress common.Address

	LogFilter string
}

// ConfigError signals missing or malformed configuration; it is always
// fatal at startup.
type ConfigError struct {
	Field string
	Err   error
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config: %s: %v", e.Field, e.Err)
}

func (e *ConfigError) Unwrap() error { return e.Err }

// FromEnv builds a Config from environment variables, applying defaults
// from the reference deployment wherever a variable is unset. Call
// LoadEnv beforehand to populate the environment from a .env file.
func FromEnv() (*Config, error) {
	alchemyKey := getenv("ALCHEMY_API_KEY", "your-api-key")
	wsRPC := getenv("CHAIN_WS_RPC", fmt.Sprintf("wss://hyperliquid-mainnet.g.alchemy.com/v2/%s", alchemyKey))

	cfg := &Config{
		ChainWSRPC:     wsRPC,
		OrderBookWSURL: getenv("HYPERLIQUID_WS_URL", "wss://api.hyperliquid.xyz/ws"),

		MinTVLUSD:                 getenvFloat("MIN_TVL_USD", 100_000.0),
		MinProfitThresholdPercent: getenvFloat("MIN_PROFIT_THRESHOLD_PERCENT", 3.0),
		MinProfitThresholdUSD:     getenvFloat("MIN_PROFIT_THRESHOLD_USD", 3.0),

		SimulatorTargetNotional: getenvFloat("SIMULATOR_TARGET_NOTIONAL", 150_000.0),
		SimulatorMaxSlippage:    getenvFloat("SIMULATOR_MAX_SLIPPAGE", 0.002),

		LogFilter: getenv("RUST_LOG", "info"),
	}

	var err error
	if cfg.HypeAddress, err = parseAddr("HYPE_ADDRESS", "0x5555555555555555555555555555555555555555"); err != nil {
		return nil, err
	}
	if cfg.USDTAddress, err = parseAddr("USDT_ADDRESS", "0xB8CE59FC3717ada4C02eaDF9682A9e934F625ebb"); err != nil {
		return nil, err
	}
	if cfg.UBTCAddress, err = parseAddr("UBTC_ADDRESS", "0x9FDBdA0A5e284c32744D2f17Ee5c74B284993463"); err != nil {
		return nil, err
	}
	if cfg.UETHAddress, err = parseAddr("UETH_ADDRESS", "0xBe6727B535545C67d5cAa73dEa54865B92CF7907"); err != nil {
		return nil, err
	}

	factoryDefaults := []Factory{
		{"Projet X", common.HexToAddress("0xFf7B3e8C00e57ea31477c32A5B52a58Eea47b072")},
		{"Hybra", common.HexToAddress("0x2dC0Ec0F0db8bAF250eCccF268D7dFbF59346E5E")},
		{"HyperSwap", common.HexToAddress("0xB1c0fa0B789320044A6F623cFe5eBda9562602E3")},
		{"Ultrasolid", common.HexToAddress("0xD883a0B7889475d362CEA8fDf588266a3da554A1")},
	}
	cfg.Factories = factoryDefaults

	if raw := os.Getenv("POOL_ADDRESS"); raw != "" {
		if !common.IsHexAddress(raw) {
			return nil, &ConfigError{Field: "POOL_ADDRESS", Err: fmt.Errorf("not a hex address: %q", raw)}
		}
		cfg.PoolAddress = common.HexToAddress(raw)
	}

	return cfg, nil
}

// TrackedPairs returns the unordered token pairs the discoverer probes
// against every factory and fee tier.
func (c *Config) TrackedPairs() [][2]common.Address {
	return [][2]common.Address{
		{c.HypeAddress, c.USDTAddress},
		{c.UBTCAddress, c.USDTAddress},
		{c.UETHAddress, c.USDTAddress},
	}
}

// TrackedSymbols returns the order-book symbols the client subscribes to.
func (c *Config) TrackedSymbols() []string {
	return []string{"BTC", "ETH", "HYPE"}
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvFloat(key string, def float64) float64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return def
	}
	return f
}

func parseAddr(key, def string) (common.Address, error) {
	raw := getenv(key, def)
	if !common.IsHexAddress(raw) {
		return common.Address{}, &ConfigError{Field: key, Err: fmt.Errorf("not a hex address: %q", raw)}
	}
	return common.HexToAddress(raw), nil
}
