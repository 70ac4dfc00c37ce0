// Package mathx holds small generic integer helpers for firmware code.
package mathx

import "golang.org/x/exp/constraints"

// Clamp limits v to [lo, hi]. If lo > hi, the bounds are swapped.
func Clamp[T constraints.Ordered](v, lo, hi T) T {
	if hi < lo {
		lo, hi = hi, lo
	}
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

func Min[T constraints.Ordered](a, b T) T {
	if a < b {
		return a
	}
	return b
}

func Max[T constraints.Ordered](a, b T) T {
	if a > b {
		return a
	}
	return b
}

// Ratio10 returns num/den in tenths, rounded half up; den==0 yields 0.
// Used where the MCU build must avoid float formatting.
func Ratio10[T constraints.Unsigned](num, den T) T {
	if den == 0 {
		return 0
	}
	return (num*20/den + 1) / 2
}
