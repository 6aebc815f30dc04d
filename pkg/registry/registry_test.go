package registry

import (
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/holiman/uint256"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"lukechampine.com/uint128"

	"hyperquote/pkg/types"
)

func samplePool(addr common.Address) types.PoolState {
	return types.PoolState{
		Info: types.PoolInfo{
			Address:      addr,
			Token0:       common.HexToAddress("0x1"),
			Token1:       common.HexToAddress("0x2"),
			FeeTier:      3000,
			CurrentTick:  0,
			TickSpacing:  60,
			SqrtPriceX96: uint256.NewInt(1),
			Liquidity:    uint128.From64(1000),
			DEX:          "TestDex",
		},
		Ticks:            map[int32]types.TickInfo{},
		LastUpdatedBlock: 10,
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	reg := New()
	addr := common.HexToAddress("0xaaaa")
	state := samplePool(addr)
	reg.Put(state)

	got, ok := reg.Get(KeyOf(state.Info))
	require.True(t, ok, "expected pool to be found")
	assert.Equal(t, addr, got.Info.Address)
	assert.EqualValues(t, 10, got.LastUpdatedBlock)
}

func TestGetReturnsCopyNotPointer(t *testing.T) {
	reg := New()
	addr := common.HexToAddress("0xbbbb")
	state := samplePool(addr)
	reg.Put(state)

	got, ok := reg.Get(KeyOf(state.Info))
	require.True(t, ok)
	got.Info.CurrentTick = 999
	got.LastUpdatedBlock = 999

	again, ok := reg.Get(KeyOf(state.Info))
	require.True(t, ok)
	assert.NotEqual(t, int32(999), again.Info.CurrentTick, "mutating a returned copy affected the registry's internal state")
	assert.NotEqual(t, uint64(999), again.LastUpdatedBlock)
}

func TestUpdateFromSwapMonotonicBlock(t *testing.T) {
	reg := New()
	addr := common.HexToAddress("0xcccc")
	state := samplePool(addr)
	reg.Put(state)

	ok := reg.UpdateFromSwap(addr, uint256.NewInt(2), uint128.From64(2000), 5, 20)
	require.True(t, ok, "expected update to find the registered pool")

	state2, ok := reg.Get(KeyOf(state.Info))
	require.True(t, ok)
	assert.EqualValues(t, 20, state2.LastUpdatedBlock)

	// An older block number must never move LastUpdatedBlock backwards.
	reg.UpdateFromSwap(addr, uint256.NewInt(3), uint128.From64(3000), 6, 15)
	state3, ok := reg.Get(KeyOf(state.Info))
	require.True(t, ok)
	assert.EqualValues(t, 20, state3.LastUpdatedBlock, "LastUpdatedBlock must never regress")
}

func TestUpdateFromSwapUnknownPool(t *testing.T) {
	reg := New()
	ok := reg.UpdateFromSwap(common.HexToAddress("0xdead"), uint256.NewInt(1), uint128.From64(1), 0, 1)
	assert.False(t, ok, "expected false for an unregistered pool address")
}

func TestIsFreshBoundary(t *testing.T) {
	cases := []struct {
		name                  string
		lastUpdated, current uint64
		want                  bool
	}{
		{"never updated", 0, 100, false},
		{"two blocks old", 98, 100, true},
		{"three blocks old", 97, 100, false},
		{"same block", 100, 100, true},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			s := types.PoolState{LastUpdatedBlock: c.lastUpdated}
			assert.Equal(t, c.want, s.IsFresh(c.current))
		})
	}
}

func TestAllAndSize(t *testing.T) {
	reg := New()
	reg.Put(samplePool(common.HexToAddress("0x1111")))
	reg.Put(samplePool(common.HexToAddress("0x2222")))
	assert.Equal(t, 2, reg.Size())
	assert.Len(t, reg.All(), 2)
}
