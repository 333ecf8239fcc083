package mc

import (
	"math"

	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

// Bump-size override keys accepted by GreeksWithBumps
const (
	BumpSpot  = "spot"
	BumpSigma = "sigma"
	BumpRate  = "r"
	BumpTime  = "time"
)

// Greeks computes sensitivities with default bump sizes
func (e *Engine) Greeks(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market) (models.GreeksResult, error) {
	return e.GreeksWithBumps(opt, mdl, mkt, nil)
}

// GreeksWithBumps computes delta, gamma, vega, theta, and rho by central
// finite differences (theta backward one-sided), re-running the price
// estimator with the same seed for every bumped input so that only the
// bumped parameter's effect is measured, not fresh sampling noise.
//
// Supplied bump sizes must be > 0. Default bumps self-clamp to stay within
// the parameter's domain: the spot bump shrinks below a small spot, the
// sigma bump shrinks below a small volatility, and the time bump keeps the
// shifted expiry strictly positive. Rho rebuilds the curves with the
// negative-rate relaxation so a down-bump near zero does not spuriously fail
// validation.
func (e *Engine) GreeksWithBumps(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market, bumps map[string]float64) (models.GreeksResult, error) {
	if err := e.cfg.validate(); err != nil {
		return models.GreeksResult{}, err
	}
	if err := validate(opt, mdl, mkt); err != nil {
		return models.GreeksResult{}, err
	}

	for name, v := range bumps {
		switch name {
		case BumpSpot, BumpSigma, BumpRate, BumpTime:
			if v <= 0 {
				return models.GreeksResult{}, errors.InvalidInputf("%s bump must be > 0", name)
			}
		default:
			return models.GreeksResult{}, errors.InvalidInputf("unknown bump %q", name)
		}
	}

	override := func(name string, def float64) float64 {
		if v, ok := bumps[name]; ok {
			return v
		}
		return def
	}

	s0 := mkt.Spot
	t := opt.Expiry
	sigma := mdl.Sigma

	dS := override(BumpSpot, math.Max(math.Abs(s0)*1e-4, 1e-6))
	if s0 <= dS {
		dS = 0.5 * s0
	}
	dSigma := override(BumpSigma, 1e-4)
	if sigma > 0 && sigma <= dSigma {
		dSigma = 0.5 * sigma
	}
	dR := override(BumpRate, 1e-5)

	meta := e.meta()
	meta["fd"] = "central"
	meta["bumps"] = map[string]float64{BumpSpot: dS, BumpSigma: dSigma, BumpRate: dR}

	if t == 0 {
		meta["t0"] = true
		return models.GreeksResult{Meta: meta}, nil
	}

	price := func(o models.EuropeanOption, m models.BlackScholes, mk market.Market) (float64, error) {
		res, err := e.Price(o, m, mk)
		if err != nil {
			return 0, err
		}
		return res.Value, nil
	}

	base, err := price(opt, mdl, mkt)
	if err != nil {
		return models.GreeksResult{}, err
	}

	valueUp, err := price(opt, mdl, mkt.WithSpot(s0+dS))
	if err != nil {
		return models.GreeksResult{}, err
	}
	valueDn, err := price(opt, mdl, mkt.WithSpot(s0-dS))
	if err != nil {
		return models.GreeksResult{}, err
	}
	delta := (valueUp - valueDn) / (2 * dS)
	gamma := (valueUp - 2*base + valueDn) / (dS * dS)

	// no negative-vol evaluation: vega is 0 at sigma == 0
	vega := 0.0
	if sigma > 0 {
		vUp, err := price(opt, mdl.WithSigma(sigma+dSigma), mkt)
		if err != nil {
			return models.GreeksResult{}, err
		}
		vDn, err := price(opt, mdl.WithSigma(sigma-dSigma), mkt)
		if err != nil {
			return models.GreeksResult{}, err
		}
		vega = (vUp - vDn) / (2 * dSigma)
	}

	r := mkt.Rate(t)
	q := mkt.DividendYield(t)

	rateMkt := func(rate float64) market.Market {
		bumped := market.Market{
			Spot:          s0,
			RateCurve:     market.NewFlatRateCurveAllowNegative(rate),
			DividendCurve: market.NewFlatDividendCurveAllowNegative(q),
		}
		return bumped
	}

	rUp, err := price(opt, mdl, rateMkt(r+dR))
	if err != nil {
		return models.GreeksResult{}, err
	}
	rDn, err := price(opt, mdl, rateMkt(r-dR))
	if err != nil {
		return models.GreeksResult{}, err
	}
	rho := (rUp - rDn) / (2 * dR)

	dt := override(BumpTime, math.Min(1e-4, t/2))
	if t <= dt {
		dt = 0.5 * t
	}
	valMinus, err := price(opt.WithExpiry(t-dt), mdl, mkt)
	if err != nil {
		return models.GreeksResult{}, err
	}
	theta := (valMinus - base) / dt

	meta["bumps"].(map[string]float64)[BumpTime] = dt

	return models.GreeksResult{
		Delta: delta,
		Gamma: gamma,
		Vega:  vega,
		Theta: theta,
		Rho:   rho,
		Meta:  meta,
	}, nil
}
