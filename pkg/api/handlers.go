package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rzzdr/option-pricing-engine/config"
	"github.com/rzzdr/option-pricing-engine/internal/engine/analytic"
	"github.com/rzzdr/option-pricing-engine/internal/engine/mc"
	"github.com/rzzdr/option-pricing-engine/internal/engine/pde"
	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/internal/marketdata"
	"github.com/rzzdr/option-pricing-engine/internal/pricing"
	"github.com/rzzdr/option-pricing-engine/internal/stream"
	"github.com/rzzdr/option-pricing-engine/pkg/metrics"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// Handlers contains all HTTP handlers for the API
type Handlers struct {
	defaults config.EngineConfig
	store    *marketdata.Store
	recorder *metrics.Recorder
	hub      *stream.Hub
	log      *logger.Logger
}

// CreateHandlers creates new API handlers
func CreateHandlers(defaults config.EngineConfig, store *marketdata.Store, recorder *metrics.Recorder, hub *stream.Hub) *Handlers {
	return &Handlers{
		defaults: defaults,
		store:    store,
		recorder: recorder,
		hub:      hub,
		log:      logger.GetLogger("api.handlers"),
	}
}

type marketRequest struct {
	Spot          float64 `json:"spot" binding:"required"`
	Rate          float64 `json:"rate"`
	DividendYield float64 `json:"dividend_yield"`
}

type optionRequest struct {
	Kind   string  `json:"kind" binding:"required"`
	Strike float64 `json:"strike" binding:"required"`
	Expiry float64 `json:"expiry"`
}

type pricingRequest struct {
	Option optionRequest      `json:"option"`
	Market marketRequest      `json:"market"`
	Sigma  float64            `json:"sigma"`
	Method string             `json:"method"`
	MC     *mc.Config         `json:"mc,omitempty"`
	PDE    *pde.Config        `json:"pde,omitempty"`
	Bumps  map[string]float64 `json:"bumps,omitempty"`
}

type impliedVolRequest struct {
	Option optionRequest `json:"option"`
	Market marketRequest `json:"market"`
	Price  float64       `json:"price"`
	Lower  float64       `json:"lower,omitempty"`
	Upper  float64       `json:"upper,omitempty"`
}

// statusForError maps the three pricing error kinds (plus data-layer
// failures) onto HTTP statuses
func statusForError(err error) int {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeInvalidInput:
		return http.StatusBadRequest
	case errors.ErrorTypeNotSupported:
		return http.StatusUnprocessableEntity
	case errors.ErrorTypeNotFound:
		return http.StatusNotFound
	case errors.ErrorTypeIO:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handlers) abortWithError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(statusForError(err), gin.H{"error": err.Error()})
}

func (h *Handlers) buildInputs(opt optionRequest, mkt marketRequest) (models.EuropeanOption, market.Market, error) {
	option, err := models.NewEuropeanOption(opt.Kind, opt.Strike, opt.Expiry)
	if err != nil {
		return models.EuropeanOption{}, market.Market{}, err
	}
	rateCurve, err := market.NewFlatRateCurve(mkt.Rate)
	if err != nil {
		return models.EuropeanOption{}, market.Market{}, err
	}
	divCurve, err := market.NewFlatDividendCurve(mkt.DividendYield)
	if err != nil {
		return models.EuropeanOption{}, market.Market{}, err
	}
	m, err := market.New(mkt.Spot, rateCurve, divCurve)
	if err != nil {
		return models.EuropeanOption{}, market.Market{}, err
	}
	return option, m, nil
}

// options fills per-method engine defaults from configuration when the
// request omits them
func (h *Handlers) options(req *pricingRequest, method pricing.Method) pricing.Options {
	o := pricing.Options{MC: req.MC, PDE: req.PDE, Bumps: req.Bumps}
	if method == pricing.MethodMC && o.MC == nil {
		o.MC = &mc.Config{
			NPaths: h.defaults.MC.NPaths,
			NSteps: h.defaults.MC.NSteps,
			Seed:   h.defaults.MC.Seed,
		}
	}
	if method == pricing.MethodPDE && o.PDE == nil {
		o.PDE = &pde.Config{
			NS:             h.defaults.PDE.NS,
			NT:             h.defaults.PDE.NT,
			Theta:          h.defaults.PDE.Theta,
			SMaxMultiplier: h.defaults.PDE.SMaxMultiplier,
		}
	}
	return o
}

// HealthCheckHandler handles health check requests
func (h *Handlers) HealthCheckHandler(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "ok",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

// PriceHandler prices a European option with the requested method
func (h *Handlers) PriceHandler(c *gin.Context) {
	var req pricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, errors.InvalidInputf("invalid request body: %v", err))
		return
	}

	method, err := pricing.ParseMethod(req.Method)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	option, mkt, err := h.buildInputs(req.Option, req.Market)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	model, err := models.NewBlackScholes(req.Sigma)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	start := time.Now()
	result, err := pricing.Price(option, model, mkt, method, h.options(&req, method))
	if err != nil {
		h.recorder.RecordPricingError(string(method), "price", errorKind(err))
		h.abortWithError(c, err)
		return
	}
	h.recorder.RecordPricingCall(string(method), "price", time.Since(start))
	h.hub.Publish("price", string(method), result)

	c.JSON(http.StatusOK, result)
}

// GreeksHandler computes sensitivities with the requested method
func (h *Handlers) GreeksHandler(c *gin.Context) {
	var req pricingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, errors.InvalidInputf("invalid request body: %v", err))
		return
	}

	method, err := pricing.ParseMethod(req.Method)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	option, mkt, err := h.buildInputs(req.Option, req.Market)
	if err != nil {
		h.abortWithError(c, err)
		return
	}
	model, err := models.NewBlackScholes(req.Sigma)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	start := time.Now()
	result, err := pricing.Greeks(option, model, mkt, method, h.options(&req, method))
	if err != nil {
		h.recorder.RecordPricingError(string(method), "greeks", errorKind(err))
		h.abortWithError(c, err)
		return
	}
	h.recorder.RecordPricingCall(string(method), "greeks", time.Since(start))
	h.hub.Publish("greeks", string(method), result)

	c.JSON(http.StatusOK, result)
}

// ImpliedVolHandler solves for the volatility implied by an observed price
func (h *Handlers) ImpliedVolHandler(c *gin.Context) {
	var req impliedVolRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.abortWithError(c, errors.InvalidInputf("invalid request body: %v", err))
		return
	}

	option, mkt, err := h.buildInputs(req.Option, req.Market)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	cfg := analytic.IVConfig{
		Lower:   h.defaults.IV.Lower,
		Upper:   h.defaults.IV.Upper,
		Tol:     h.defaults.IV.Tol,
		MaxIter: h.defaults.IV.MaxIter,
	}
	if req.Lower > 0 {
		cfg.Lower = req.Lower
	}
	if req.Upper > 0 {
		cfg.Upper = req.Upper
	}

	start := time.Now()
	iv, err := pricing.ImpliedVolatility(req.Price, option, mkt, cfg)
	if err != nil {
		h.recorder.RecordIVSolve("error", time.Since(start))
		h.abortWithError(c, err)
		return
	}
	h.recorder.RecordIVSolve("ok", time.Since(start))

	payload := gin.H{"implied_vol": iv, "price": req.Price}
	h.hub.Publish("implied_vol", "analytic", payload)
	c.JSON(http.StatusOK, payload)
}

// MarketHistoryHandler returns cached historical closes for a symbol
func (h *Handlers) MarketHistoryHandler(c *gin.Context) {
	symbol := c.Param("symbol")
	start := c.Query("start")
	end := c.Query("end")
	interval := c.DefaultQuery("interval", "1d")

	bars, err := h.store.GetBars(c.Request.Context(), symbol, start, end, interval)
	if err != nil {
		h.recorder.RecordMarketDataFetch(symbol, "error")
		h.abortWithError(c, err)
		return
	}
	h.recorder.RecordMarketDataFetch(symbol, "ok")

	c.JSON(http.StatusOK, gin.H{"symbol": symbol, "bars": bars})
}

// MarketVolatilityHandler returns the annualized historical volatility of a
// symbol's close series
func (h *Handlers) MarketVolatilityHandler(c *gin.Context) {
	symbol := c.Param("symbol")
	start := c.Query("start")
	end := c.Query("end")
	interval := c.DefaultQuery("interval", "1d")

	closes, err := h.store.GetCloses(c.Request.Context(), symbol, start, end, interval)
	if err != nil {
		h.recorder.RecordMarketDataFetch(symbol, "error")
		h.abortWithError(c, err)
		return
	}
	h.recorder.RecordMarketDataFetch(symbol, "ok")

	vol, err := market.HistoricalVolatility(closes, market.TradingDaysPerYear)
	if err != nil {
		h.abortWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"symbol":       symbol,
		"observations": len(closes),
		"volatility":   vol,
	})
}

func errorKind(err error) string {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeInvalidInput:
		return "invalid_input"
	case errors.ErrorTypeNotSupported:
		return "not_supported"
	case errors.ErrorTypeNotConverged:
		return "not_converged"
	default:
		return "internal"
	}
}
