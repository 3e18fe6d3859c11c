// Package safe provides overflow-checked int64 arithmetic for fixed-point values.
// All helpers panic on overflow: a wrapped monetary amount is never a valid state.
package safe

import (
	"fmt"
	"math"
)

// SafeAdd returns a + b. Panics on overflow.
func SafeAdd(a, b int64) int64 {
	c, ok := CheckedAdd(a, b)
	if !ok {
		panic(fmt.Sprintf("INT64_ADD_OVERFLOW: %d + %d", a, b))
	}
	return c
}

// CheckedAdd returns a + b and false instead of panicking on overflow.
func CheckedAdd(a, b int64) (int64, bool) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, false
	}
	return a + b, true
}

// SafeSub returns a - b. Panics on overflow.
func SafeSub(a, b int64) int64 {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		panic(fmt.Sprintf("INT64_SUB_OVERFLOW: %d - %d", a, b))
	}
	return a - b
}

// SafeMul returns a * b. Panics on overflow.
func SafeMul(a, b int64) int64 {
	c, ok := CheckedMul(a, b)
	if !ok {
		panic(fmt.Sprintf("INT64_MUL_OVERFLOW: %d * %d", a, b))
	}
	return c
}

// CheckedMul returns a * b and false instead of panicking on overflow.
func CheckedMul(a, b int64) (int64, bool) {
	if a == 0 || b == 0 {
		return 0, true
	}
	if (a == -1 && b == math.MinInt64) || (b == -1 && a == math.MinInt64) {
		return 0, false
	}
	c := a * b
	if c/b != a {
		return 0, false
	}
	return c, true
}

// SafeDiv returns a / b truncated toward zero. Panics on division by zero.
func SafeDiv(a, b int64) int64 {
	if b == 0 {
		panic(fmt.Sprintf("INT64_DIV_BY_ZERO: %d / 0", a))
	}
	if a == math.MinInt64 && b == -1 {
		panic(fmt.Sprintf("INT64_DIV_OVERFLOW: %d / %d", a, b))
	}
	return a / b
}
