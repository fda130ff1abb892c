package mappers

import "math"

func radians(deg float64) float64 { return deg * math.Pi / 180 }
func sinSq(x float64) float64     { s := math.Sin(x); return s * s }
func cosf(x float64) float64      { return math.Cos(x) }
func asinSqrt(x float64) float64  { return math.Asin(math.Sqrt(x)) }
