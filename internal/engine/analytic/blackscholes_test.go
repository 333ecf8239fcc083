package analytic

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

func testMarket(t *testing.T, spot, rate, div float64) market.Market {
	t.Helper()
	rateCurve, err := market.NewFlatRateCurve(rate)
	require.NoError(t, err)
	divCurve, err := market.NewFlatDividendCurve(div)
	require.NoError(t, err)
	mkt, err := market.New(spot, rateCurve, divCurve)
	require.NoError(t, err)
	return mkt
}

func testOption(t *testing.T, kind string, strike, expiry float64) models.EuropeanOption {
	t.Helper()
	opt, err := models.NewEuropeanOption(kind, strike, expiry)
	require.NoError(t, err)
	return opt
}

func TestPriceKnownValues(t *testing.T) {
	mkt := testMarket(t, 100, 0.05, 0)
	model, err := models.NewBlackScholes(0.2)
	require.NoError(t, err)
	engine := New()

	call, err := engine.Price(testOption(t, "call", 100, 1), model, mkt)
	require.NoError(t, err)
	assert.InDelta(t, 10.450584, call.Value, 1e-6)
	assert.Nil(t, call.Stderr)
	assert.Equal(t, "analytic", call.Meta["method"])

	put, err := engine.Price(testOption(t, "put", 100, 1), model, mkt)
	require.NoError(t, err)
	assert.InDelta(t, 5.573526, put.Value, 1e-6)
}

func TestPutCallParity(t *testing.T) {
	cases := []struct {
		name                          string
		spot, strike, expiry, r, q, v float64
	}{
		{"atm", 100, 100, 1, 0.05, 0.0, 0.2},
		{"itm call with dividends", 120, 100, 0.5, 0.03, 0.02, 0.3},
		{"otm call long dated", 80, 100, 5, 0.01, 0.0, 0.15},
		{"high vol", 100, 90, 2, 0.07, 0.01, 0.6},
	}

	engine := New()
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			mkt := testMarket(t, tc.spot, tc.r, tc.q)
			model, err := models.NewBlackScholes(tc.v)
			require.NoError(t, err)

			call, err := engine.Price(testOption(t, "call", tc.strike, tc.expiry), model, mkt)
			require.NoError(t, err)
			put, err := engine.Price(testOption(t, "put", tc.strike, tc.expiry), model, mkt)
			require.NoError(t, err)

			// C - P = S*e^{-qT} - K*e^{-rT}
			parity := tc.spot*mkt.DFq(tc.expiry) - tc.strike*mkt.DFr(tc.expiry)
			assert.InDelta(t, parity, call.Value-put.Value, 1e-9)
		})
	}
}

func TestPriceAtExpiryIsIntrinsic(t *testing.T) {
	mkt := testMarket(t, 110, 0.05, 0)
	model, err := models.NewBlackScholes(0.2)
	require.NoError(t, err)
	engine := New()

	call, err := engine.Price(testOption(t, "call", 100, 0), model, mkt)
	require.NoError(t, err)
	assert.Equal(t, 10.0, call.Value)

	put, err := engine.Price(testOption(t, "put", 100, 0), model, mkt)
	require.NoError(t, err)
	assert.Equal(t, 0.0, put.Value)
}

func TestPriceZeroVolIsDiscountedForwardPayoff(t *testing.T) {
	mkt := testMarket(t, 100, 0.05, 0.01)
	model, err := models.NewBlackScholes(0)
	require.NoError(t, err)
	engine := New()

	res, err := engine.Price(testOption(t, "call", 100, 1), model, mkt)
	require.NoError(t, err)

	forward := 100 * math.Exp(0.04)
	want := math.Exp(-0.05) * (forward - 100)
	assert.InDelta(t, want, res.Value, 1e-12)

	// forward below strike leaves the zero-vol call worthless
	deepOTM, err := engine.Price(testOption(t, "call", 200, 1), model, mkt)
	require.NoError(t, err)
	assert.Equal(t, 0.0, deepOTM.Value)
}

func TestPriceDeepOTMIsNonNegative(t *testing.T) {
	// at very low vol the two formula terms cancel to rounding noise; the
	// result must clamp at zero so implied-vol round trips stay in bounds
	mkt := testMarket(t, 100, 0.05, 0)
	model, err := models.NewBlackScholes(0.01)
	require.NoError(t, err)
	engine := New()
	opt := testOption(t, "call", 110, 0.7)

	res, err := engine.Price(opt, model, mkt)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, res.Value, 0.0)

	iv, err := engine.ImpliedVolatility(res.Value, opt, mkt, DefaultIVConfig())
	require.NoError(t, err)
	assert.GreaterOrEqual(t, iv, 0.0)
}

func TestPriceRejectsInvalidInputs(t *testing.T) {
	mkt := testMarket(t, 100, 0.05, 0)
	model, err := models.NewBlackScholes(0.2)
	require.NoError(t, err)
	engine := New()

	_, err = engine.Price(models.EuropeanOption{Kind: "call", Strike: -5, Expiry: 1}, model, mkt)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = engine.Price(models.EuropeanOption{Kind: "straddle", Strike: 100, Expiry: 1}, model, mkt)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	_, err = engine.Price(testOption(t, "call", 100, 1), models.BlackScholes{Sigma: -0.1}, mkt)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestGreeksKnownValues(t *testing.T) {
	mkt := testMarket(t, 100, 0.05, 0)
	model, err := models.NewBlackScholes(0.2)
	require.NoError(t, err)
	engine := New()

	call, err := engine.Greeks(testOption(t, "call", 100, 1), model, mkt)
	require.NoError(t, err)
	assert.InDelta(t, 0.636831, call.Delta, 1e-5)
	assert.InDelta(t, 0.018762, call.Gamma, 1e-5)
	assert.InDelta(t, 37.524035, call.Vega, 1e-4)
	assert.InDelta(t, -6.414028, call.Theta, 1e-4)
	assert.InDelta(t, 53.232482, call.Rho, 1e-4)

	put, err := engine.Greeks(testOption(t, "put", 100, 1), model, mkt)
	require.NoError(t, err)
	// put delta differs from call delta by e^{-qT}; gamma and vega are shared
	assert.InDelta(t, call.Delta-1, put.Delta, 1e-12)
	assert.InDelta(t, call.Gamma, put.Gamma, 1e-12)
	assert.InDelta(t, call.Vega, put.Vega, 1e-12)
	assert.Negative(t, put.Rho)
}

func TestGreeksRejectsDegenerateInputs(t *testing.T) {
	mkt := testMarket(t, 100, 0.05, 0)
	engine := New()

	model, err := models.NewBlackScholes(0.2)
	require.NoError(t, err)
	_, err = engine.Greeks(testOption(t, "call", 100, 0), model, mkt)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))

	zeroVol, err := models.NewBlackScholes(0)
	require.NoError(t, err)
	_, err = engine.Greeks(testOption(t, "call", 100, 1), zeroVol, mkt)
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}

func TestGreeksMatchFiniteDifferenceOfPrice(t *testing.T) {
	mkt := testMarket(t, 105, 0.03, 0.02)
	model, err := models.NewBlackScholes(0.25)
	require.NoError(t, err)
	engine := New()
	opt := testOption(t, "put", 100, 0.75)

	greeks, err := engine.Greeks(opt, model, mkt)
	require.NoError(t, err)

	h := 1e-4
	up, err := engine.Price(opt, model, mkt.WithSpot(105+h))
	require.NoError(t, err)
	dn, err := engine.Price(opt, model, mkt.WithSpot(105-h))
	require.NoError(t, err)
	assert.InDelta(t, (up.Value-dn.Value)/(2*h), greeks.Delta, 1e-6)

	vUp, err := engine.Price(opt, model.WithSigma(0.25+h), mkt)
	require.NoError(t, err)
	vDn, err := engine.Price(opt, model.WithSigma(0.25-h), mkt)
	require.NoError(t, err)
	assert.InDelta(t, (vUp.Value-vDn.Value)/(2*h), greeks.Vega, 1e-4)
}
