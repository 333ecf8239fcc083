// Package pricing routes (instrument, model, market, method) tuples to the
// engine that implements the method, validating per-method configuration
// before any numerical work begins.
package pricing

import (
	"github.com/rzzdr/option-pricing-engine/internal/engine/analytic"
	"github.com/rzzdr/option-pricing-engine/internal/engine/mc"
	"github.com/rzzdr/option-pricing-engine/internal/engine/pde"
	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

// Method selects a pricing engine
type Method string

const (
	// MethodAnalytic is the closed-form Black-Scholes engine
	MethodAnalytic Method = "analytic"
	// MethodMC is the Monte Carlo engine
	MethodMC Method = "mc"
	// MethodPDE is the finite-difference engine
	MethodPDE Method = "pde"
)

// ParseMethod resolves a method name. Unknown names are a not-supported
// condition, distinct from input validation.
func ParseMethod(s string) (Method, error) {
	switch Method(s) {
	case MethodAnalytic, MethodMC, MethodPDE:
		return Method(s), nil
	default:
		return "", errors.NotSupportedf("method %q is not supported", s)
	}
}

// Options carries per-method configuration. MC is required for MethodMC and
// PDE for MethodPDE; anything supplied beyond what the selected method uses
// is an input error. Bumps override Monte Carlo finite-difference bump sizes
// and are valid only for Greeks under MethodMC.
type Options struct {
	MC    *mc.Config
	PDE   *pde.Config
	Bumps map[string]float64
}

func (o Options) check(method Method, allowBumps bool) error {
	switch method {
	case MethodAnalytic:
		if o.MC != nil || o.PDE != nil {
			return errors.InvalidInput("method 'analytic' accepts no engine configuration")
		}
	case MethodMC:
		if o.MC == nil {
			return errors.InvalidInput("method 'mc' requires a Monte Carlo configuration")
		}
		if o.PDE != nil {
			return errors.InvalidInput("method 'mc' does not accept a PDE configuration")
		}
	case MethodPDE:
		if o.PDE == nil {
			return errors.InvalidInput("method 'pde' requires a grid configuration")
		}
		if o.MC != nil {
			return errors.InvalidInput("method 'pde' does not accept a Monte Carlo configuration")
		}
	}
	if o.Bumps != nil && (!allowBumps || method != MethodMC) {
		return errors.InvalidInput("bump overrides are only supported for Greeks with method 'mc'")
	}
	return nil
}

// Price dispatches a pricing call to the selected engine
func Price(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market, method Method, o Options) (models.PriceResult, error) {
	if err := o.check(method, false); err != nil {
		return models.PriceResult{}, err
	}

	switch method {
	case MethodAnalytic:
		return analytic.New().Price(opt, mdl, mkt)
	case MethodMC:
		return mc.New(*o.MC).Price(opt, mdl, mkt)
	case MethodPDE:
		return pde.New(*o.PDE).Price(opt, mdl, mkt)
	default:
		return models.PriceResult{}, errors.NotSupportedf("method %q is not supported", method)
	}
}

// Greeks dispatches a sensitivities call to the selected engine. The PDE
// engine reports only delta and gamma; its other fields come back as NaN
// sentinels, which is a per-field not-supported condition rather than a call
// failure.
func Greeks(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market, method Method, o Options) (models.GreeksResult, error) {
	if err := o.check(method, true); err != nil {
		return models.GreeksResult{}, err
	}

	switch method {
	case MethodAnalytic:
		return analytic.New().Greeks(opt, mdl, mkt)
	case MethodMC:
		return mc.New(*o.MC).GreeksWithBumps(opt, mdl, mkt, o.Bumps)
	case MethodPDE:
		return pde.New(*o.PDE).Greeks(opt, mdl, mkt)
	default:
		return models.GreeksResult{}, errors.NotSupportedf("method %q is not supported", method)
	}
}

// ImpliedVolatility solves for the volatility consistent with an observed
// price, an analytic-engine capability
func ImpliedVolatility(price float64, opt models.EuropeanOption, mkt market.Market, cfg analytic.IVConfig) (float64, error) {
	return analytic.New().ImpliedVolatility(price, opt, mkt, cfg)
}
