package geohash

import "math"

// CalculateWidthDegrees estimates the longitude span in degrees of a cell
// with n characters as 180 / 2^(2.5n + a), a = -1 for even n, -0.5 for odd n.
func CalculateWidthDegrees(n int) float64 {
	a := -0.5
	if n%2 == 0 {
		a = -1
	}
	return 180 / math.Pow(2, 2.5*float64(n)+a)
}

// Width estimates the same span from the bit split: 180 / 2^((5n + n%2)/2 - 1).
// The exponent is always integral, so it is applied with Ldexp.
// It returns exactly CalculateWidthDegrees(n) for every n >= 1.
func Width(n int) float64 {
	parity := n % 2
	return math.Ldexp(180, -((5*n+parity)/2 - 1))
}
