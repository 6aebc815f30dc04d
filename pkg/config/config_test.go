package config

import (
	"errors"
	"os"
	"testing"
)

func clearEnv(t *testing.T, keys ...string) {
	t.Helper()
	for _, k := range keys {
		old, had := os.LookupEnv(k)
		os.Unsetenv(k)
		t.Cleanup(func() {
			if had {
				os.Setenv(k, old)
			}
		})
	}
}

func TestFromEnvDefaults(t *testing.T) {
	clearEnv(t, "ALCHEMY_API_KEY", "CHAIN_WS_RPC", "HYPERLIQUID_WS_URL",
		"MIN_TVL_USD", "HYPE_ADDRESS", "USDT_ADDRESS", "UBTC_ADDRESS",
		"UETH_ADDRESS", "POOL_ADDRESS")

	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if cfg.MinTVLUSD != 100_000.0 {
		t.Errorf("MinTVLUSD = %v, want 100000", cfg.MinTVLUSD)
	}
	if len(cfg.Factories) != 4 {
		t.Errorf("len(Factories) = %d, want 4", len(cfg.Factories))
	}
	if cfg.OrderBookWSURL != "wss://api.hyperliquid.xyz/ws" {
		t.Errorf("OrderBookWSURL = %s", cfg.OrderBookWSURL)
	}
}

func TestFromEnvRejectsMalformedPoolAddress(t *testing.T) {
	clearEnv(t, "POOL_ADDRESS")
	os.Setenv("POOL_ADDRESS", "not-an-address")
	t.Cleanup(func() { os.Unsetenv("POOL_ADDRESS") })

	_, err := FromEnv()
	if err == nil {
		t.Fatal("expected an error for a malformed POOL_ADDRESS")
	}
	var cfgErr *ConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("expected a *ConfigError, got %T", err)
	}
}

func TestTrackedPairsAndSymbols(t *testing.T) {
	clearEnv(t, "HYPE_ADDRESS", "USDT_ADDRESS", "UBTC_ADDRESS", "UETH_ADDRESS")
	cfg, err := FromEnv()
	if err != nil {
		t.Fatalf("FromEnv: %v", err)
	}
	if len(cfg.TrackedPairs()) != 3 {
		t.Errorf("len(TrackedPairs()) = %d, want 3", len(cfg.TrackedPairs()))
	}
	symbols := cfg.TrackedSymbols()
	if len(symbols) != 3 {
		t.Errorf("len(TrackedSymbols()) = %d, want 3", len(symbols))
	}
}
