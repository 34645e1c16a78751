package kernel

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashTime33(t *testing.T) {
	// Deterministic, 31-bit masked.
	h := hashTime33("Tick")
	assert.Equal(t, h, hashTime33("Tick"))
	assert.NotEqual(t, h, hashTime33("Tock"))
	assert.Zero(t, h&0x80000000)
}

func TestLargestPrime(t *testing.T) {
	tests := []struct {
		n    int
		want int
	}{
		{128, 127},
		{127, 127},
		{64, 61},
		{10, 7},
		{2, 2},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("n=%d", tt.n), func(t *testing.T) {
			assert.Equal(t, tt.want, largestPrime(tt.n))
		})
	}
}

func TestInsertIdempotent(t *testing.T) {
	k, _ := newTestKernel(t)

	a := k.insert("Sensor_Temp")
	b := k.insert("Sensor_Temp")
	assert.Equal(t, a, b)
	assert.Equal(t, a, k.getIndex("Sensor_Temp"))
}

func TestGetIndexMiss(t *testing.T) {
	k, _ := newTestKernel(t)

	assert.Equal(t, slotNone, k.getIndex("never-inserted"))
	assert.False(t, k.existed("never-inserted"))
}

func TestExisted(t *testing.T) {
	k, _ := newTestKernel(t)

	k.insert("Topic_A")
	assert.True(t, k.existed("Topic_A"))
	assert.True(t, k.Existed("Topic_A"))
	assert.False(t, k.Existed("Topic_B"))
}

func TestInsertManyDistinctKeys(t *testing.T) {
	k, _ := newTestKernel(t)

	// Well below capacity, every insert must land and stay findable.
	seen := make(map[int]string)
	for i := 0; i < 48; i++ {
		key := fmt.Sprintf("topic-%03d", i)
		idx := k.insert(key)
		require.Equal(t, idx, k.getIndex(key), "lookup(insert(t)) = insert(t) for %s", key)
		if prev, dup := seen[idx]; dup {
			t.Fatalf("slot %d claimed by both %s and %s", idx, prev, key)
		}
		seen[idx] = key
	}
}

func TestInsertEmptyTopicPanics(t *testing.T) {
	k, _ := newTestKernel(t)

	assert.Panics(t, func() { k.insert("") })
}

func TestContentEquality(t *testing.T) {
	k, _ := newTestKernel(t)

	// Differently-built equal strings resolve to the same slot.
	a := k.insert("Motor_" + "Stop")
	b := k.insert(fmt.Sprintf("Motor_%s", "Stop"))
	assert.Equal(t, a, b)
}
