package market

import (
	"math"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

// Market is the immutable market snapshot the engines price against: a spot
// level plus discount-factor curves for the risk-free rate and the dividend
// yield. Construct one per pricing call; never mutate after construction.
type Market struct {
	Spot          float64
	RateCurve     Curve
	DividendCurve Curve
}

// New validates and constructs a market snapshot
func New(spot float64, rateCurve, dividendCurve Curve) (Market, error) {
	if spot <= 0 {
		return Market{}, errors.InvalidInput("spot must be > 0")
	}
	if rateCurve == nil || dividendCurve == nil {
		return Market{}, errors.InvalidInput("rate and dividend curves are required")
	}
	return Market{Spot: spot, RateCurve: rateCurve, DividendCurve: dividendCurve}, nil
}

// WithSpot returns a fully independent copy of the market with the spot
// replaced. Used by finite-difference delta and gamma.
func (m Market) WithSpot(spot float64) Market {
	return Market{Spot: spot, RateCurve: m.RateCurve, DividendCurve: m.DividendCurve}
}

// DFr is the risk-free discount factor at time t
func (m Market) DFr(t float64) float64 {
	return m.RateCurve.DF(t)
}

// DFq is the dividend discount factor at time t
func (m Market) DFq(t float64) float64 {
	return m.DividendCurve.DF(t)
}

// Rate is the continuously-compounded zero rate equivalent of the rate
// curve's discount factor at t, with Rate(0) = 0
func (m Market) Rate(t float64) float64 {
	if t == 0 {
		return 0
	}
	return -math.Log(m.RateCurve.DF(t)) / t
}

// DividendYield is the continuously-compounded equivalent of the dividend
// curve's discount factor at t, with DividendYield(0) = 0
func (m Market) DividendYield(t float64) float64 {
	if t == 0 {
		return 0
	}
	return -math.Log(m.DividendCurve.DF(t)) / t
}
