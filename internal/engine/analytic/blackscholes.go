package analytic

import (
	"math"

	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/internal/numeric"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// Engine prices European options under Black-Scholes in closed form
type Engine struct {
	log *logger.Logger
}

// New creates the analytic engine
func New() *Engine {
	return &Engine{log: logger.GetLogger("engine.analytic")}
}

// Name identifies the engine to the dispatch layer
func (e *Engine) Name() string {
	return "analytic"
}

func validate(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market) error {
	if opt.Kind != models.Call && opt.Kind != models.Put {
		return errors.InvalidInput("kind must be 'call' or 'put'")
	}
	if opt.Strike <= 0 {
		return errors.InvalidInput("strike must be > 0")
	}
	if opt.Expiry < 0 {
		return errors.InvalidInput("expiry must be >= 0")
	}
	if mdl.Sigma < 0 {
		return errors.InvalidInput("sigma must be >= 0")
	}
	if mkt.Spot <= 0 {
		return errors.InvalidInput("spot must be > 0")
	}
	return nil
}

// bsPrice evaluates the Black-Scholes formula, including the T==0 intrinsic
// and sigma==0 deterministic-forward branches shared by all three engines
func bsPrice(s, k, t, r, q, sigma float64, kind models.OptionKind) float64 {
	if t == 0 {
		if kind == models.Call {
			return math.Max(s-k, 0)
		}
		return math.Max(k-s, 0)
	}

	if sigma == 0 {
		forward := s * math.Exp((r-q)*t)
		disc := math.Exp(-r * t)
		if kind == models.Call {
			return disc * math.Max(forward-k, 0)
		}
		return disc * math.Max(k-forward, 0)
	}

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r-q+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	dfR := math.Exp(-r * t)
	dfQ := math.Exp(-q * t)

	// deep out of the money the two terms cancel to rounding noise and can
	// come out a hair below zero, which would poison implied-vol round trips
	var value float64
	if kind == models.Call {
		value = s*dfQ*numeric.NormCDF(d1) - k*dfR*numeric.NormCDF(d2)
	} else {
		value = k*dfR*numeric.NormCDF(-d2) - s*dfQ*numeric.NormCDF(-d1)
	}
	return math.Max(value, 0)
}

// Price computes the closed-form Black-Scholes price
func (e *Engine) Price(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market) (models.PriceResult, error) {
	if err := validate(opt, mdl, mkt); err != nil {
		return models.PriceResult{}, err
	}

	t := opt.Expiry
	r := mkt.Rate(t)
	q := mkt.DividendYield(t)
	value := bsPrice(mkt.Spot, opt.Strike, t, r, q, mdl.Sigma, opt.Kind)

	return models.NewPriceResult(value, models.Meta{
		"method": "analytic",
		"model":  "BlackScholes",
	}), nil
}

// Greeks computes the closed-form Black-Scholes sensitivities. The formulas
// are singular at expiry and at zero volatility, so unlike Price there is no
// degenerate fallback: T <= 0 or sigma <= 0 is an input error.
func (e *Engine) Greeks(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market) (models.GreeksResult, error) {
	if err := validate(opt, mdl, mkt); err != nil {
		return models.GreeksResult{}, err
	}

	s := mkt.Spot
	k := opt.Strike
	t := opt.Expiry
	sigma := mdl.Sigma

	if t <= 0 {
		return models.GreeksResult{}, errors.InvalidInput("expiry must be > 0 for analytic Greeks")
	}
	if sigma <= 0 {
		return models.GreeksResult{}, errors.InvalidInput("sigma must be > 0 for analytic Greeks")
	}

	r := mkt.Rate(t)
	q := mkt.DividendYield(t)

	sqrtT := math.Sqrt(t)
	d1 := (math.Log(s/k) + (r-q+0.5*sigma*sigma)*t) / (sigma * sqrtT)
	d2 := d1 - sigma*sqrtT

	dfR := math.Exp(-r * t)
	dfQ := math.Exp(-q * t)
	nd1 := numeric.NormCDF(d1)
	nd2 := numeric.NormCDF(d2)
	pdfD1 := numeric.NormPDF(d1)

	res := models.GreeksResult{
		Gamma: dfQ * pdfD1 / (s * sigma * sqrtT),
		Vega:  s * dfQ * pdfD1 * sqrtT,
		Meta: models.Meta{
			"method": "analytic",
			"model":  "BlackScholes",
		},
	}

	if opt.Kind == models.Call {
		res.Delta = dfQ * nd1
		res.Theta = -(s*dfQ*pdfD1*sigma)/(2*sqrtT) - r*k*dfR*nd2 + q*s*dfQ*nd1
		res.Rho = k * t * dfR * nd2
	} else {
		nmd1 := numeric.NormCDF(-d1)
		nmd2 := numeric.NormCDF(-d2)
		res.Delta = dfQ * (nd1 - 1)
		res.Theta = -(s*dfQ*pdfD1*sigma)/(2*sqrtT) + r*k*dfR*nmd2 - q*s*dfQ*nmd1
		res.Rho = -k * t * dfR * nmd2
	}

	return res, nil
}
