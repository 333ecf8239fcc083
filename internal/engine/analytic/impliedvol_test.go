package analytic

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/option-pricing-engine/pkg/models"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

func TestImpliedVolatilityRoundTrip(t *testing.T) {
	cases := []struct {
		name                       string
		kind                       string
		spot, strike, expiry, r, q float64
		sigma                      float64
	}{
		{"atm call", "call", 100, 100, 1, 0.05, 0.0, 0.2},
		{"otm call", "call", 100, 120, 0.5, 0.03, 0.01, 0.35},
		{"itm put", "put", 90, 100, 2, 0.02, 0.0, 0.15},
		{"high vol put", "put", 100, 100, 0.25, 0.05, 0.02, 1.2},
		{"low vol call", "call", 100, 100, 1, 0.05, 0.0, 0.05},
	}

	engine := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mkt := testMarket(t, tc.spot, tc.r, tc.q)
			model, err := models.NewBlackScholes(tc.sigma)
			require.NoError(t, err)
			opt := testOption(t, tc.kind, tc.strike, tc.expiry)

			price, err := engine.Price(opt, model, mkt)
			require.NoError(t, err)

			iv, err := engine.ImpliedVolatility(price.Value, opt, mkt, DefaultIVConfig())
			require.NoError(t, err)
			assert.InDelta(t, tc.sigma, iv, 1e-6)
		})
	}
}

func TestImpliedVolatilityIntrinsicPriceIsZeroVol(t *testing.T) {
	// a deep ITM call priced exactly at its lower no-arbitrage bound
	mkt := testMarket(t, 200, 0.05, 0)
	opt := testOption(t, "call", 100, 1)
	engine := New()

	lowerBound := 200.0 - 100*mkt.DFr(1)
	iv, err := engine.ImpliedVolatility(lowerBound, opt, mkt, DefaultIVConfig())
	require.NoError(t, err)
	assert.Equal(t, 0.0, iv)
}

func TestImpliedVolatilityRejectsOutOfBoundsPrices(t *testing.T) {
	mkt := testMarket(t, 100, 0.05, 0)
	opt := testOption(t, "call", 100, 1)
	engine := New()

	// a call can never be worth more than the dividend-discounted spot
	_, err := engine.ImpliedVolatility(100.0, opt, mkt, DefaultIVConfig())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "outside bounds")

	_, err = engine.ImpliedVolatility(-1.0, opt, mkt, DefaultIVConfig())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	put := testOption(t, "put", 100, 1)
	_, err = engine.ImpliedVolatility(100*mkt.DFr(1)+1, put, mkt, DefaultIVConfig())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestImpliedVolatilityBracketTooNarrow(t *testing.T) {
	mkt := testMarket(t, 100, 0.05, 0)
	opt := testOption(t, "call", 100, 1)
	engine := New()

	model, err := models.NewBlackScholes(0.8)
	require.NoError(t, err)
	price, err := engine.Price(opt, model, mkt)
	require.NoError(t, err)

	cfg := DefaultIVConfig()
	cfg.Upper = 0.5
	_, err = engine.ImpliedVolatility(price.Value, opt, mkt, cfg)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
	assert.Contains(t, err.Error(), "cannot bracket")
}

func TestImpliedVolatilityRejectsZeroExpiry(t *testing.T) {
	mkt := testMarket(t, 100, 0.05, 0)
	opt := testOption(t, "call", 100, 0)
	engine := New()

	_, err := engine.ImpliedVolatility(5.0, opt, mkt, DefaultIVConfig())
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestIVConfigValidation(t *testing.T) {
	mkt := testMarket(t, 100, 0.05, 0)
	opt := testOption(t, "call", 100, 1)
	engine := New()

	bad := DefaultIVConfig()
	bad.Lower = 0
	_, err := engine.ImpliedVolatility(10, opt, mkt, bad)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	bad = DefaultIVConfig()
	bad.Upper = bad.Lower
	_, err = engine.ImpliedVolatility(10, opt, mkt, bad)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}
