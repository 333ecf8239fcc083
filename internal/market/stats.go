package market

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
)

// TradingDaysPerYear is the default annualization factor for daily data
const TradingDaysPerYear = 252.0

// LogReturns computes r_t = ln(p_t / p_{t-1}) for a strictly positive price
// series. The result has length len(prices)-1.
func LogReturns(prices []float64) ([]float64, error) {
	if len(prices) < 2 {
		return nil, errors.InvalidInput("at least 2 prices are required to compute returns")
	}
	returns := make([]float64, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		if prices[i-1] <= 0 || prices[i] <= 0 {
			return nil, errors.InvalidInput("prices must be strictly positive for log returns")
		}
		returns[i-1] = math.Log(prices[i] / prices[i-1])
	}
	return returns, nil
}

// RealizedVolatility annualizes the sample standard deviation of a return
// series. With demean=false the mean is assumed zero and the estimator is
// sqrt(sum(r^2)/(n-1)), which keeps the divisor consistent with the sample
// variance definition.
func RealizedVolatility(returns []float64, annualization float64, demean bool) (float64, error) {
	n := len(returns)
	if n == 0 {
		return 0, errors.InvalidInput("returns cannot be empty")
	}
	if n < 2 {
		// sample std of a single point is undefined
		return 0, nil
	}

	var vol float64
	if demean {
		vol = stat.StdDev(returns, nil)
	} else {
		sumSq := 0.0
		for _, r := range returns {
			sumSq += r * r
		}
		vol = math.Sqrt(sumSq / float64(n-1))
	}
	return vol * math.Sqrt(annualization), nil
}

// RollingRealizedVolatility computes a rolling-window annualized volatility
// aligned with the price series: out[t] uses the window of returns ending at
// price t. Entries with insufficient history are NaN.
func RollingRealizedVolatility(prices []float64, window int, annualization float64, demean bool) ([]float64, error) {
	if window < 2 {
		return nil, errors.InvalidInput("window must be >= 2")
	}
	returns, err := LogReturns(prices)
	if err != nil {
		return nil, err
	}

	out := make([]float64, len(prices))
	for i := range out {
		out[i] = math.NaN()
	}
	// return index j corresponds to price index j+1
	for j := window - 1; j < len(returns); j++ {
		vol, err := RealizedVolatility(returns[j-window+1:j+1], annualization, demean)
		if err != nil {
			return nil, err
		}
		out[j+1] = vol
	}
	return out, nil
}

// HistoricalVolatility computes the annualized volatility of a price series
// directly, using demeaned sample standard deviation of log returns
func HistoricalVolatility(prices []float64, annualization float64) (float64, error) {
	returns, err := LogReturns(prices)
	if err != nil {
		return 0, err
	}
	return RealizedVolatility(returns, annualization, true)
}
