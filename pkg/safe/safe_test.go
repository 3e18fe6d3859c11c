package safe

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeArithmetic(t *testing.T) {
	assert.Equal(t, int64(5), SafeAdd(2, 3))
	assert.Equal(t, int64(-1), SafeSub(2, 3))
	assert.Equal(t, int64(-100), SafeMul(-4, 25))
	assert.Equal(t, int64(-3), SafeDiv(-7, 2))
}

func TestSafeArithmetic_Overflow(t *testing.T) {
	assert.Panics(t, func() { SafeAdd(math.MaxInt64, 1) }, "add")
	assert.Panics(t, func() { SafeSub(math.MinInt64, 1) }, "sub")
	assert.Panics(t, func() { SafeMul(math.MaxInt64/2, 3) }, "mul")
	assert.Panics(t, func() { SafeMul(math.MinInt64, -1) }, "mul min")
	assert.Panics(t, func() { SafeDiv(1, 0) }, "div zero")
	assert.Panics(t, func() { SafeDiv(math.MinInt64, -1) }, "div min")
}

func TestCheckedArithmetic(t *testing.T) {
	c, ok := CheckedMul(1_000_000, 1_000_000_000)
	assert.True(t, ok)
	assert.Equal(t, int64(1_000_000_000_000_000), c)

	_, ok = CheckedMul(1_000_000, 1_000_000_000_000_000)
	assert.False(t, ok)
	_, ok = CheckedMul(-1, math.MinInt64)
	assert.False(t, ok)

	c, ok = CheckedMul(0, math.MaxInt64)
	assert.True(t, ok)
	assert.Zero(t, c)

	c, ok = CheckedAdd(math.MaxInt64-1, 1)
	assert.True(t, ok)
	assert.Equal(t, int64(math.MaxInt64), c)

	_, ok = CheckedAdd(math.MinInt64, -1)
	assert.False(t, ok)
}
