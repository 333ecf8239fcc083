package models

import "github.com/rzzdr/option-pricing-engine/pkg/utils/errors"

// BlackScholes holds the Black-Scholes model parameter set: a single
// constant volatility. sigma == 0 is valid and prices as the deterministic
// forward.
type BlackScholes struct {
	Sigma float64 `json:"sigma"`
}

// NewBlackScholes validates and constructs the model
func NewBlackScholes(sigma float64) (BlackScholes, error) {
	if sigma < 0 {
		return BlackScholes{}, errors.InvalidInput("sigma must be >= 0")
	}
	return BlackScholes{Sigma: sigma}, nil
}

// WithSigma returns a copy of the model with a different volatility.
// Used by finite-difference vega.
func (m BlackScholes) WithSigma(sigma float64) BlackScholes {
	return BlackScholes{Sigma: sigma}
}
