// Package engine defines the capability shared by the pricing engine triad.
// The analytic, Monte Carlo, and PDE engines are interchangeable variants of
// this interface and are cross-validated against each other in testing.
package engine

import (
	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
)

// Engine is a synchronous, stateless pricing method: a pure function of its
// inputs with no retained state between calls
type Engine interface {
	Name() string
	Price(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market) (models.PriceResult, error)
	Greeks(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market) (models.GreeksResult, error)
}
