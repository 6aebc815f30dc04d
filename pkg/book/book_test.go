package book

import (
	"context"
	"os"
	"testing"
	"time"
)

// TestClientLiveConnect exercises a real websocket connection and waits
// for at least one order-book update. Skipped unless HYPERLIQUID_WS_URL
// is set, matching the engine's other network-dependent tests.
func TestClientLiveConnect(t *testing.T) {
	url := os.Getenv("HYPERLIQUID_WS_URL")
	if url == "" {
		t.Skip("No websocket URL configured. Set HYPERLIQUID_WS_URL to run this test")
	}

	client := New(url, []string{"BTC"})
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	done := make(chan error, 1)
	go func() { done <- client.Run(ctx) }()

	deadline := time.After(8 * time.Second)
	for {
		if _, ok := client.Get("BTC"); ok {
			return
		}
		select {
		case <-deadline:
			t.Fatal("no BTC order-book update received within timeout")
		case <-time.After(200 * time.Millisecond):
		}
	}
}

func TestHandleMessageParsesLevels(t *testing.T) {
	c := New("", []string{"BTC"})
	msg := []byte(`{"channel":"l2Book","data":{"coin":"BTC","levels":[[{"px":"100.5","sz":"1","n":1}],[{"px":"101.5","sz":"1","n":1}]],"time":123}}`)
	if err := c.handleMessage(msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	lvl, ok := c.Get("BTC")
	if !ok {
		t.Fatal("expected a BTC level to be stored")
	}
	if lvl.Bid != 100.5 || lvl.Ask != 101.5 || lvl.Mid != 101.0 {
		t.Errorf("got bid=%v ask=%v mid=%v, want 100.5/101.5/101.0", lvl.Bid, lvl.Ask, lvl.Mid)
	}
}

func TestHandleMessageEmptySideIsNoOp(t *testing.T) {
	c := New("", []string{"BTC"})
	msg := []byte(`{"channel":"l2Book","data":{"coin":"BTC","levels":[[],[]],"time":123}}`)
	if err := c.handleMessage(msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if _, ok := c.Get("BTC"); ok {
		t.Error("expected no level stored for an empty-sided update")
	}
}

func TestHandleMessageIgnoresOtherChannels(t *testing.T) {
	c := New("", []string{"BTC"})
	msg := []byte(`{"channel":"subscriptionResponse","data":{}}`)
	if err := c.handleMessage(msg); err != nil {
		t.Fatalf("handleMessage: %v", err)
	}
	if _, ok := c.Get("BTC"); ok {
		t.Error("expected no level stored for a non-l2Book frame")
	}
}
