package refcodec

import (
	"math"
	"strconv"
)

// Ptr returns a pointer to a copy of v. Decode uses it for boxed values.
func Ptr[T any](v T) *T { return &v }

// depthLimit turns a configured bound into the effective one: n <= 0 disables it.
func depthLimit(n int) int {
	if n <= 0 {
		return math.MaxInt
	}
	return n
}

// formatNumber renders f the way JSON numbers are usually written: plain
// decimals, switching to exponent form only for very small or very large
// magnitudes. The text round-trips through strconv.ParseFloat exactly.
func formatNumber(f float64) string {
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}
	return strconv.FormatFloat(f, format, -1, 64)
}
