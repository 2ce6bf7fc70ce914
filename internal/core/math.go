package core

import "math"

// Checked int64 arithmetic. Every mutation path uses these instead of
// raw operators: an overflow aborts the call with ARITHMETIC_OVERFLOW
// rather than wrapping silently.

// CheckedAdd returns a+b, or ARITHMETIC_OVERFLOW on int64 overflow.
func CheckedAdd(op string, a, b int64) (int64, error) {
	if (b > 0 && a > math.MaxInt64-b) || (b < 0 && a < math.MinInt64-b) {
		return 0, &Error{Code: ErrCodeOverflow, Message: "addition overflows int64", Op: op}
	}
	return a + b, nil
}

// CheckedSub returns a-b, or ARITHMETIC_UNDERFLOW on int64 underflow.
func CheckedSub(op string, a, b int64) (int64, error) {
	if (b < 0 && a > math.MaxInt64+b) || (b > 0 && a < math.MinInt64+b) {
		return 0, &Error{Code: ErrCodeUnderflow, Message: "subtraction underflows int64", Op: op}
	}
	return a - b, nil
}

// CheckedMul returns a*b, or ARITHMETIC_OVERFLOW on int64 overflow.
func CheckedMul(op string, a, b int64) (int64, error) {
	if a == 0 || b == 0 {
		return 0, nil
	}
	// MinInt64 * -1 wraps to MinInt64, and the division probe below
	// would itself overflow on that pair.
	if (a == math.MinInt64 && b == -1) || (b == math.MinInt64 && a == -1) {
		return 0, &Error{Code: ErrCodeOverflow, Message: "multiplication overflows int64", Op: op}
	}
	p := a * b
	if p/b != a {
		return 0, &Error{Code: ErrCodeOverflow, Message: "multiplication overflows int64", Op: op}
	}
	return p, nil
}

// PercentOf returns floor(total * percent / 100) with overflow-checked
// multiplication.
func PercentOf(op string, total int64, percent uint32) (int64, error) {
	p, err := CheckedMul(op, total, int64(percent))
	if err != nil {
		return 0, err
	}
	return p / 100, nil
}
