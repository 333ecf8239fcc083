package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/rzzdr/option-pricing-engine/internal/engine/analytic"
	"github.com/rzzdr/option-pricing-engine/internal/engine/mc"
	"github.com/rzzdr/option-pricing-engine/internal/engine/pde"
	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/internal/pricing"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
)

var (
	kind   = flag.String("kind", "call", "Option kind (call or put)")
	spot   = flag.Float64("spot", 100, "Spot price")
	strike = flag.Float64("strike", 100, "Strike price")
	expiry = flag.Float64("expiry", 1, "Time to expiry in years")
	rate   = flag.Float64("rate", 0.05, "Continuously compounded risk-free rate")
	div    = flag.Float64("div", 0.0, "Continuous dividend yield")
	sigma  = flag.Float64("sigma", 0.2, "Volatility")
	paths  = flag.Int("paths", 200000, "Monte Carlo paths")
	seed   = flag.Uint64("seed", 42, "Monte Carlo seed")
)

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func main() {
	flag.Parse()

	option, err := models.NewEuropeanOption(*kind, *strike, *expiry)
	if err != nil {
		fatalf("invalid option: %v", err)
	}
	model, err := models.NewBlackScholes(*sigma)
	if err != nil {
		fatalf("invalid model: %v", err)
	}
	rateCurve, err := market.NewFlatRateCurve(*rate)
	if err != nil {
		fatalf("invalid rate: %v", err)
	}
	divCurve, err := market.NewFlatDividendCurve(*div)
	if err != nil {
		fatalf("invalid dividend yield: %v", err)
	}
	mkt, err := market.New(*spot, rateCurve, divCurve)
	if err != nil {
		fatalf("invalid market: %v", err)
	}

	mcCfg := mc.DefaultConfig()
	mcCfg.NPaths = *paths
	mcCfg.Seed = *seed
	pdeCfg := pde.DefaultConfig()

	runs := []struct {
		method pricing.Method
		opts   pricing.Options
	}{
		{pricing.MethodAnalytic, pricing.Options{}},
		{pricing.MethodMC, pricing.Options{MC: &mcCfg}},
		{pricing.MethodPDE, pricing.Options{PDE: &pdeCfg}},
	}

	fmt.Printf("%s S=%.2f K=%.2f T=%.2f r=%.2f%% q=%.2f%% sigma=%.2f%%\n\n",
		option.Kind, mkt.Spot, option.Strike, option.Expiry, *rate*100, *div*100, *sigma*100)
	fmt.Printf("%-10s %12s %12s %10s %10s\n", "method", "price", "stderr", "delta", "gamma")

	for _, run := range runs {
		price, err := pricing.Price(option, model, mkt, run.method, run.opts)
		if err != nil {
			fatalf("%s price failed: %v", run.method, err)
		}
		greeks, err := pricing.Greeks(option, model, mkt, run.method, run.opts)
		if err != nil {
			fatalf("%s greeks failed: %v", run.method, err)
		}
		stderr := "-"
		if price.Stderr != nil {
			stderr = fmt.Sprintf("%.6f", *price.Stderr)
		}
		fmt.Printf("%-10s %12.6f %12s %10.6f %10.6f\n",
			run.method, price.Value, stderr, greeks.Delta, greeks.Gamma)
	}

	// round-trip: recover the input volatility from the analytic price
	analyticPrice, err := pricing.Price(option, model, mkt, pricing.MethodAnalytic, pricing.Options{})
	if err != nil {
		fatalf("analytic price failed: %v", err)
	}
	iv, err := pricing.ImpliedVolatility(analyticPrice.Value, option, mkt, analytic.DefaultIVConfig())
	if err != nil {
		fatalf("implied vol failed: %v", err)
	}
	fmt.Printf("\nimplied vol from analytic price: %.6f (input %.6f)\n", iv, *sigma)
}
