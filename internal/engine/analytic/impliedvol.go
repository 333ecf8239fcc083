package analytic

import (
	"math"

	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/internal/numeric"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

// intrinsicTol is how close to the lower no-arbitrage bound a price may sit
// before the solver short-circuits to sigma = 0
const intrinsicTol = 1e-9

// IVConfig controls the implied-volatility search bracket and convergence
type IVConfig struct {
	Lower   float64
	Upper   float64
	Tol     float64
	MaxIter int
}

// DefaultIVConfig returns the standard volatility bracket [1e-6, 5.0]
func DefaultIVConfig() IVConfig {
	return IVConfig{
		Lower:   1e-6,
		Upper:   5.0,
		Tol:     1e-10,
		MaxIter: 100,
	}
}

func (c IVConfig) validate() error {
	if c.Lower <= 0 {
		return errors.InvalidInput("iv bracket lower bound must be > 0")
	}
	if c.Upper <= c.Lower {
		return errors.InvalidInput("iv bracket upper bound must exceed the lower bound")
	}
	if c.Tol <= 0 {
		return errors.InvalidInput("iv tolerance must be > 0")
	}
	if c.MaxIter < 1 {
		return errors.InvalidInput("iv max iterations must be >= 1")
	}
	return nil
}

// ImpliedVolatility solves for the Black-Scholes volatility that reproduces
// the target price, using Brent's method over the configured bracket.
//
// The price is first checked against the no-arbitrage bounds: calls must lie
// in [max(0, S*dfq - K*dfr), S*dfq) and puts in [max(0, K*dfr - S*dfq),
// K*dfr). A price within intrinsicTol of the lower bound returns sigma = 0
// without invoking the solver. A price the bracket cannot straddle is an
// input error; solver non-convergence is a distinct runtime failure.
func (e *Engine) ImpliedVolatility(price float64, opt models.EuropeanOption, mkt market.Market, cfg IVConfig) (float64, error) {
	if err := cfg.validate(); err != nil {
		return 0, err
	}
	if err := validate(opt, models.BlackScholes{}, mkt); err != nil {
		return 0, err
	}
	if price < 0 {
		return 0, errors.InvalidInput("price must be non-negative")
	}
	if opt.Expiry <= 0 {
		return 0, errors.InvalidInput("expiry must be > 0 for implied volatility")
	}

	s := mkt.Spot
	k := opt.Strike
	t := opt.Expiry
	r := mkt.Rate(t)
	q := mkt.DividendYield(t)
	dfR := mkt.DFr(t)
	dfQ := mkt.DFq(t)

	var lowerBound, upperBound float64
	if opt.Kind == models.Call {
		lowerBound = math.Max(0, s*dfQ-k*dfR)
		upperBound = s * dfQ
	} else {
		lowerBound = math.Max(0, k*dfR-s*dfQ)
		upperBound = k * dfR
	}

	if price < lowerBound-intrinsicTol || price >= upperBound {
		return 0, errors.InvalidInputf(
			"price %g is outside bounds [%g, %g) for %s", price, lowerBound, upperBound, opt.Kind)
	}
	if price-lowerBound <= intrinsicTol {
		return 0, nil
	}

	objective := func(sigma float64) float64 {
		return bsPrice(s, k, t, r, q, sigma, opt.Kind) - price
	}

	iv, err := numeric.Brent(objective, cfg.Lower, cfg.Upper, cfg.Tol, cfg.MaxIter)
	if err != nil {
		if errors.IsInvalidInput(err) {
			return 0, errors.InvalidInputf(
				"cannot bracket implied volatility in [%g, %g]", cfg.Lower, cfg.Upper)
		}
		return 0, err
	}
	return iv, nil
}
