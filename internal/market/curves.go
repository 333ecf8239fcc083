package market

import (
	"math"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

// Curve exposes a discount factor for t >= 0. Discount factors must lie in
// (0, 1] unless the curve explicitly allows negative rates; that relaxation
// exists only so finite-difference rho bumps can push a near-zero rate below
// zero, never for user-facing inputs.
type Curve interface {
	DF(t float64) float64
}

// FlatRateCurve is a flat continuously-compounded risk-free rate curve
type FlatRateCurve struct {
	rate float64
}

// NewFlatRateCurve validates and constructs a flat rate curve
func NewFlatRateCurve(rate float64) (FlatRateCurve, error) {
	if rate < 0 {
		return FlatRateCurve{}, errors.InvalidInput("rate must be >= 0 unless the curve allows negative rates")
	}
	return FlatRateCurve{rate: rate}, nil
}

// NewFlatRateCurveAllowNegative constructs a flat rate curve without the
// non-negativity check. Bump curves only.
func NewFlatRateCurveAllowNegative(rate float64) FlatRateCurve {
	return FlatRateCurve{rate: rate}
}

// DF returns exp(-rate*t). t must be >= 0.
func (c FlatRateCurve) DF(t float64) float64 {
	return math.Exp(-c.rate * t)
}

// FlatDividendCurve is a flat continuous dividend-yield curve
type FlatDividendCurve struct {
	yield float64
}

// NewFlatDividendCurve validates and constructs a flat dividend curve
func NewFlatDividendCurve(yield float64) (FlatDividendCurve, error) {
	if yield < 0 {
		return FlatDividendCurve{}, errors.InvalidInput("dividend yield must be >= 0 unless the curve allows negative rates")
	}
	return FlatDividendCurve{yield: yield}, nil
}

// NewFlatDividendCurveAllowNegative constructs a flat dividend curve without
// the non-negativity check. Bump curves only.
func NewFlatDividendCurveAllowNegative(yield float64) FlatDividendCurve {
	return FlatDividendCurve{yield: yield}
}

// DF returns exp(-yield*t). t must be >= 0.
func (c FlatDividendCurve) DF(t float64) float64 {
	return math.Exp(-c.yield * t)
}
