package shared

import (
	"math"
)

// Numeric sanitization guards every number entering engine state. Persisted
// snapshots and lesson results are external input; a NaN that slips into XP
// arithmetic poisons every derived value after it, so each boundary read and
// write funnels through these helpers. All functions are total and pure.

// SanitizeNumber returns value if it is a finite number, otherwise fallback.
func SanitizeNumber(value, fallback float64) float64 {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fallback
	}
	return value
}

// SanitizeInt returns value truncated to an integer if it is finite,
// otherwise fallback.
func SanitizeInt(value float64, fallback int) int {
	if math.IsNaN(value) || math.IsInf(value, 0) {
		return fallback
	}
	return int(math.Trunc(value))
}

// SanitizeNonNegativeInt additionally floors the result at zero.
func SanitizeNonNegativeInt(value float64, fallback int) int {
	v := SanitizeInt(value, fallback)
	if v < 0 {
		return 0
	}
	return v
}

// SanitizeNonNegativeNumber additionally floors the result at zero.
func SanitizeNonNegativeNumber(value, fallback float64) float64 {
	v := SanitizeNumber(value, fallback)
	if v < 0 {
		return 0
	}
	return v
}

// ClampInt constrains v to the inclusive range [lo, hi].
func ClampInt(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// ClampNumber constrains v to the inclusive range [lo, hi], treating
// non-finite input as lo.
func ClampNumber(v, lo, hi float64) float64 {
	v = SanitizeNumber(v, lo)
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
