package numeric

import "math"

// NormCDF is the standard normal cumulative distribution function, computed
// via the error function. Accurate to well below 1e-10 relative over the
// range the pricing formulas use.
func NormCDF(x float64) float64 {
	return 0.5 * (1 + math.Erf(x/math.Sqrt2))
}

// NormPDF is the standard normal density
func NormPDF(x float64) float64 {
	return math.Exp(-0.5*x*x) / math.Sqrt(2*math.Pi)
}
