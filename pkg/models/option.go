package models

import (
	"math"
	"strings"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

// OptionKind identifies the exercise direction of a vanilla option
type OptionKind string

const (
	// Call is the right to buy at the strike
	Call OptionKind = "call"
	// Put is the right to sell at the strike
	Put OptionKind = "put"
)

// ParseOptionKind normalizes a case-insensitive kind tag
func ParseOptionKind(s string) (OptionKind, error) {
	switch strings.ToLower(s) {
	case "call":
		return Call, nil
	case "put":
		return Put, nil
	default:
		return "", errors.InvalidInputf("kind must be 'call' or 'put', got %q", s)
	}
}

// EuropeanOption is an immutable European option descriptor.
// Expiry is the time to maturity in years.
type EuropeanOption struct {
	Kind   OptionKind `json:"kind"`
	Strike float64    `json:"strike"`
	Expiry float64    `json:"expiry"`
}

// NewEuropeanOption validates and constructs a European option
func NewEuropeanOption(kind string, strike, expiry float64) (EuropeanOption, error) {
	k, err := ParseOptionKind(kind)
	if err != nil {
		return EuropeanOption{}, err
	}
	if strike <= 0 {
		return EuropeanOption{}, errors.InvalidInput("strike must be > 0")
	}
	if expiry < 0 {
		return EuropeanOption{}, errors.InvalidInput("expiry must be >= 0")
	}
	return EuropeanOption{Kind: k, Strike: strike, Expiry: expiry}, nil
}

// WithExpiry returns a copy of the option with a different time to maturity.
// Used by finite-difference theta, which shifts expiry while holding all
// other fields fixed.
func (o EuropeanOption) WithExpiry(expiry float64) EuropeanOption {
	return EuropeanOption{Kind: o.Kind, Strike: o.Strike, Expiry: expiry}
}

// Payoff evaluates the exercise payoff at spot s
func (o EuropeanOption) Payoff(s float64) float64 {
	if o.Kind == Call {
		return math.Max(s-o.Strike, 0)
	}
	return math.Max(o.Strike-s, 0)
}
