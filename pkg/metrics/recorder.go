package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder handles metrics recording and exposure
type Recorder struct {
	// API metrics
	apiRequestCounter   *prometheus.CounterVec
	apiLatencyHistogram *prometheus.HistogramVec

	// Pricing metrics
	pricingCallCounter  *prometheus.CounterVec
	pricingCallLatency  *prometheus.HistogramVec
	pricingErrorCounter *prometheus.CounterVec

	// Implied volatility metrics
	ivSolveCounter *prometheus.CounterVec
	ivSolveLatency prometheus.Histogram

	// Market data metrics
	marketDataFetchCounter *prometheus.CounterVec
	marketDataCacheCounter *prometheus.CounterVec

	// Stream metrics
	streamClientsGauge prometheus.Gauge
}

// NewRecorder creates a metrics recorder on the default registry
func NewRecorder() *Recorder {
	return NewRecorderWith(prometheus.DefaultRegisterer)
}

// NewRecorderWith creates a metrics recorder on a specific registerer
func NewRecorderWith(reg prometheus.Registerer) *Recorder {
	factory := promauto.With(reg)
	return &Recorder{
		apiRequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_api_requests_total",
				Help: "The total number of API requests",
			},
			[]string{"method", "path", "status"},
		),
		apiLatencyHistogram: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricing_api_latency_seconds",
				Help:    "API request latency distribution",
				Buckets: prometheus.ExponentialBuckets(0.001, 2, 15),
			},
			[]string{"method", "path"},
		),
		pricingCallCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_calls_total",
				Help: "The total number of pricing engine calls",
			},
			[]string{"engine", "operation"},
		),
		pricingCallLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "pricing_call_duration_seconds",
				Help:    "Pricing engine call duration",
				Buckets: prometheus.ExponentialBuckets(0.0001, 2, 18),
			},
			[]string{"engine", "operation"},
		),
		pricingErrorCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_errors_total",
				Help: "The total number of failed pricing engine calls",
			},
			[]string{"engine", "operation", "kind"},
		),
		ivSolveCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_iv_solves_total",
				Help: "The total number of implied volatility solves",
			},
			[]string{"outcome"},
		),
		ivSolveLatency: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "pricing_iv_solve_duration_seconds",
				Help:    "Implied volatility solve duration",
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 15),
			},
		),
		marketDataFetchCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_marketdata_fetches_total",
				Help: "The total number of market data fetches",
			},
			[]string{"symbol", "outcome"},
		),
		marketDataCacheCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "pricing_marketdata_cache_total",
				Help: "Market data cache hits and misses",
			},
			[]string{"result"},
		),
		streamClientsGauge: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "pricing_stream_clients",
				Help: "Number of connected streaming clients",
			},
		),
	}
}

// RecordAPIRequest records an API request with its outcome and latency
func (r *Recorder) RecordAPIRequest(method, path string, status int, latency time.Duration) {
	r.apiRequestCounter.WithLabelValues(method, path, statusLabel(status)).Inc()
	r.apiLatencyHistogram.WithLabelValues(method, path).Observe(latency.Seconds())
}

// RecordPricingCall records a successful engine call
func (r *Recorder) RecordPricingCall(engine, operation string, latency time.Duration) {
	r.pricingCallCounter.WithLabelValues(engine, operation).Inc()
	r.pricingCallLatency.WithLabelValues(engine, operation).Observe(latency.Seconds())
}

// RecordPricingError records a failed engine call by error kind
func (r *Recorder) RecordPricingError(engine, operation, kind string) {
	r.pricingErrorCounter.WithLabelValues(engine, operation, kind).Inc()
}

// RecordIVSolve records an implied volatility solve
func (r *Recorder) RecordIVSolve(outcome string, latency time.Duration) {
	r.ivSolveCounter.WithLabelValues(outcome).Inc()
	r.ivSolveLatency.Observe(latency.Seconds())
}

// RecordMarketDataFetch records a market data fetch attempt
func (r *Recorder) RecordMarketDataFetch(symbol, outcome string) {
	r.marketDataFetchCounter.WithLabelValues(symbol, outcome).Inc()
}

// RecordMarketDataCache records a cache hit or miss
func (r *Recorder) RecordMarketDataCache(result string) {
	r.marketDataCacheCounter.WithLabelValues(result).Inc()
}

// SetStreamClients sets the connected streaming client count
func (r *Recorder) SetStreamClients(n int) {
	r.streamClientsGauge.Set(float64(n))
}

func statusLabel(status int) string {
	switch {
	case status < 300:
		return "2xx"
	case status < 400:
		return "3xx"
	case status < 500:
		return "4xx"
	default:
		return "5xx"
	}
}
