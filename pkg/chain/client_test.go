package chain

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// TestClientLiveRPC exercises a real pool against a live RPC endpoint. It
// is skipped unless CHAIN_WS_RPC is set, matching the engine's other
// network-dependent tests.
func TestClientLiveRPC(t *testing.T) {
	endpoint := os.Getenv("CHAIN_WS_RPC")
	if endpoint == "" {
		t.Skip("No RPC endpoint configured. Set CHAIN_WS_RPC to run this test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := NewClient(ctx, endpoint, 10)
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	defer client.Close()

	wei, err := client.GasPrice(ctx)
	if err != nil {
		t.Fatalf("GasPrice: %v", err)
	}
	if wei.Sign() <= 0 {
		t.Errorf("gas price = %v, want > 0", wei)
	}
}

func TestSignedFromWordSignExtends(t *testing.T) {
	// Not part of this package's public surface directly, but signedFromWord
	// backs the ticks() decode and should sign-extend correctly for both
	// positive and negative 128-bit values packed into a 32-byte word.
	positive := make([]byte, 32)
	positive[31] = 5
	if got := signedFromWord(positive); got.Int64() != 5 {
		t.Errorf("signedFromWord(positive) = %v, want 5", got)
	}

	negative := make([]byte, 32)
	for i := range negative {
		negative[i] = 0xff
	}
	negative[31] = 0xfb // -5 in two's complement
	if got := signedFromWord(negative); got.Int64() != -5 {
		t.Errorf("signedFromWord(negative) = %v, want -5", got)
	}
}

func TestCallMsgBuildsAddressedCall(t *testing.T) {
	to := common.HexToAddress("0x1234")
	msg := callMsg(to, []byte{0x01, 0x02})
	if msg.To == nil || *msg.To != to {
		t.Errorf("callMsg.To = %v, want %v", msg.To, to)
	}
	if len(msg.Data) != 2 {
		t.Errorf("callMsg.Data length = %d, want 2", len(msg.Data))
	}
}
