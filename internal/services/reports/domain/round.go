package domain

import "math"

// Round2 rounds half away from zero to two decimals
func Round2(v float64) float64 { return math.Round(v*100) / 100 }
