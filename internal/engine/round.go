package engine

import "math"

// round2 rounds half up on the binary value, matching Math.round(x*100)/100.
// Values that print as x.xx5 but are stored just below it round down.
func round2(x float64) float64 {
	return math.Floor(x*100+0.5) / 100
}
