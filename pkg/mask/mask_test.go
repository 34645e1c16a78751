package mask

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSetClearTest(t *testing.T) {
	var m Mask

	assert.True(t, m.None())
	m.Set(0)
	m.Set(31)
	m.Set(32)
	m.Set(127)

	assert.True(t, m.Test(0))
	assert.True(t, m.Test(31))
	assert.True(t, m.Test(32))
	assert.True(t, m.Test(127))
	assert.False(t, m.Test(1))
	assert.Equal(t, 4, m.Count())

	m.Clear(31)
	assert.False(t, m.Test(31))
	assert.Equal(t, 3, m.Count())
}

func TestOr(t *testing.T) {
	var a, b Mask
	a.Set(3)
	b.Set(64)
	b.Set(3)

	a.Or(&b)
	assert.True(t, a.Test(3))
	assert.True(t, a.Test(64))
	assert.Equal(t, 2, a.Count())
}

func TestAndNot(t *testing.T) {
	var a, b Mask
	a.Set(1)
	a.Set(2)
	b.Set(2)

	a.AndNot(&b)
	assert.True(t, a.Test(1))
	assert.False(t, a.Test(2))
}

func TestCopyByAssignment(t *testing.T) {
	var a Mask
	a.Set(9)

	b := a
	b.Set(10)

	assert.False(t, a.Test(10), "masks must copy by value")
	assert.True(t, b.Test(9))
}

func TestReset(t *testing.T) {
	var m Mask
	m.Set(5)
	m.Set(100)

	m.Reset()
	assert.True(t, m.None())
	assert.False(t, m.Any())
}

func TestForEachAscending(t *testing.T) {
	var m Mask
	for _, id := range []int{99, 2, 40} {
		m.Set(id)
	}

	var got []int
	m.ForEach(func(id int) { got = append(got, id) })
	assert.Equal(t, []int{2, 40, 99}, got)
}
