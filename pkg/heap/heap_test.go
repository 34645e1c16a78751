package heap

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// checkAccounting verifies the budget invariant: payload sizes plus header
// costs always cover the full budget.
func checkAccounting(t *testing.T, h *Heap) {
	t.Helper()
	assert.Equal(t, h.Size(), h.accounted(), "block list must account for the whole budget")
}

func TestAllocFree(t *testing.T) {
	h := New(1024)
	checkAccounting(t, h)

	off, err := h.Alloc(100)
	require.NoError(t, err)
	assert.Equal(t, uint8(0), h.ErrorID())
	assert.Len(t, h.Bytes(off), 100)
	checkAccounting(t, h)

	require.NoError(t, h.Free(off))
	assert.Equal(t, uint8(0), h.ErrorID())
	checkAccounting(t, h)

	// Everything coalesced back into one block.
	assert.Equal(t, 1, h.Blocks())
	assert.Equal(t, uint32(0), h.Used())
}

func TestAllocRoundsUp(t *testing.T) {
	h := New(1024)

	off, err := h.Alloc(5)
	require.NoError(t, err)
	assert.Len(t, h.Bytes(off), 8)
}

func TestZeroSize(t *testing.T) {
	h := New(1024)

	_, err := h.Alloc(0)
	assert.ErrorIs(t, err, ErrZeroSize)
	assert.Equal(t, uint8(1), h.ErrorID())
}

func TestExhaustion(t *testing.T) {
	h := New(256)

	_, err := h.Alloc(512)
	assert.ErrorIs(t, err, ErrExhausted)
	assert.Equal(t, uint8(2), h.ErrorID())
	checkAccounting(t, h)
}

func TestDoubleFree(t *testing.T) {
	h := New(1024)

	off, err := h.Alloc(64)
	require.NoError(t, err)
	require.NoError(t, h.Free(off))

	err = h.Free(off)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Equal(t, uint8(4), h.ErrorID())
}

func TestFreeUnknownOffset(t *testing.T) {
	h := New(1024)

	err := h.Free(999)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCoalescing(t *testing.T) {
	h := New(1024)

	a, err := h.Alloc(64)
	require.NoError(t, err)
	b, err := h.Alloc(64)
	require.NoError(t, err)
	c, err := h.Alloc(64)
	require.NoError(t, err)
	checkAccounting(t, h)

	// Free the middle block, then its neighbours: every free must leave
	// no two adjacent free blocks.
	require.NoError(t, h.Free(b))
	checkAccounting(t, h)
	require.NoError(t, h.Free(a))
	checkAccounting(t, h)
	require.NoError(t, h.Free(c))
	checkAccounting(t, h)

	assert.Equal(t, 1, h.Blocks())
	assert.Equal(t, uint32(0), h.Used())
}

func TestReuseAfterFree(t *testing.T) {
	h := New(512)

	offs := make([]uint32, 0, 4)
	for i := 0; i < 4; i++ {
		off, err := h.Alloc(64)
		require.NoError(t, err)
		offs = append(offs, off)
	}
	for _, off := range offs {
		require.NoError(t, h.Free(off))
	}

	// The whole budget is reusable again.
	off, err := h.Alloc(256)
	require.NoError(t, err)
	assert.Len(t, h.Bytes(off), 256)
	checkAccounting(t, h)
}

func TestSplitOnlyWhenRemainderExceedsHeader(t *testing.T) {
	h := New(64 + 2*HeaderSize)

	// First fit leaves a remainder of exactly HeaderSize: no split, the
	// whole block is handed out.
	off, err := h.Alloc(64)
	require.NoError(t, err)
	assert.Equal(t, 1, h.Blocks())
	require.NoError(t, h.Free(off))

	// A smaller request leaves room for a second block.
	_, err = h.Alloc(16)
	require.NoError(t, err)
	assert.Equal(t, 2, h.Blocks())
	checkAccounting(t, h)
}

func TestPayloadIsolation(t *testing.T) {
	h := New(1024)

	a, err := h.Alloc(16)
	require.NoError(t, err)
	b, err := h.Alloc(16)
	require.NoError(t, err)

	for i := range h.Bytes(a) {
		h.Bytes(a)[i] = 0xAA
	}
	for i := range h.Bytes(b) {
		h.Bytes(b)[i] = 0x55
	}

	for _, v := range h.Bytes(a) {
		assert.Equal(t, byte(0xAA), v)
	}
	for _, v := range h.Bytes(b) {
		assert.Equal(t, byte(0x55), v)
	}
}
