package models

// Meta carries method-specific annotations (grid size, path count, seed,
// bump sizes) for reproducibility and debugging. It is never consulted by
// decision logic.
type Meta map[string]interface{}

// PriceResult is the outcome of a pricing call.
// Stderr is nil for deterministic methods; for Monte Carlo it is the
// standard error of the sample-mean estimator (0.0 only in degenerate
// deterministic edge cases).
type PriceResult struct {
	Value  float64  `json:"value"`
	Stderr *float64 `json:"stderr,omitempty"`
	Meta   Meta     `json:"meta,omitempty"`
}

// NewPriceResult builds a deterministic price result
func NewPriceResult(value float64, meta Meta) PriceResult {
	return PriceResult{Value: value, Meta: meta}
}

// NewMCPriceResult builds a Monte Carlo price result with its standard error
func NewMCPriceResult(value, stderr float64, meta Meta) PriceResult {
	return PriceResult{Value: value, Stderr: &stderr, Meta: meta}
}

// GreeksResult is the outcome of a sensitivities call. Engines that do not
// support a particular sensitivity fill it with NaN rather than silently
// reporting zero.
type GreeksResult struct {
	Delta float64 `json:"delta"`
	Gamma float64 `json:"gamma"`
	Vega  float64 `json:"vega"`
	Theta float64 `json:"theta"`
	Rho   float64 `json:"rho"`
	Meta  Meta    `json:"meta,omitempty"`
}
