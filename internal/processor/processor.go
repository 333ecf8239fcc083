package processor

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rzzdr/option-pricing-engine/internal/engine/analytic"
	"github.com/rzzdr/option-pricing-engine/internal/kafka"
	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/pkg/metrics"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// QuoteMessage is an observed option quote consumed from Kafka
type QuoteMessage struct {
	Symbol        string  `json:"symbol"`
	Kind          string  `json:"kind"`
	Strike        float64 `json:"strike"`
	Expiry        float64 `json:"expiry"`
	Spot          float64 `json:"spot"`
	Rate          float64 `json:"rate"`
	DividendYield float64 `json:"dividend_yield"`
	Price         float64 `json:"price"`
}

// ResultMessage carries the implied volatility and sensitivities computed
// for a quote
type ResultMessage struct {
	Symbol     string               `json:"symbol"`
	Kind       string               `json:"kind"`
	Strike     float64              `json:"strike"`
	Expiry     float64              `json:"expiry"`
	Price      float64              `json:"price"`
	ImpliedVol float64              `json:"implied_vol"`
	Greeks     *models.GreeksResult `json:"greeks,omitempty"`
	Error      string               `json:"error,omitempty"`
	Timestamp  time.Time            `json:"timestamp"`
}

// Processor consumes option quotes, solves for implied volatility, and
// publishes pricing results
type Processor struct {
	consumer *kafka.Consumer
	producer *kafka.Producer
	engine   *analytic.Engine
	ivCfg    analytic.IVConfig
	recorder *metrics.Recorder
	log      *logger.Logger
}

// New creates a quote processor wired to the given topics
func New(client *kafka.Client, quotesTopic, resultsTopic string, ivCfg analytic.IVConfig, recorder *metrics.Recorder) *Processor {
	return &Processor{
		consumer: client.NewConsumer(quotesTopic),
		producer: client.NewProducer(resultsTopic),
		engine:   analytic.New(),
		ivCfg:    ivCfg,
		recorder: recorder,
		log:      logger.GetLogger("processor"),
	}
}

// Run consumes quotes until the context is cancelled
func (p *Processor) Run(ctx context.Context) error {
	p.log.Info("quote processor started")
	return p.consumer.Consume(ctx, func(msg *kafka.Message) error {
		return p.handle(ctx, msg)
	})
}

// Close releases the Kafka consumer and producer
func (p *Processor) Close() error {
	if err := p.consumer.Close(); err != nil {
		p.log.Errorf("failed to close consumer: %v", err)
	}
	return p.producer.Close()
}

func (p *Processor) handle(ctx context.Context, msg *kafka.Message) error {
	var quote QuoteMessage
	if err := json.Unmarshal(msg.Value, &quote); err != nil {
		p.log.Warnf("dropping malformed quote: %v", err)
		return nil
	}

	result := p.process(quote)

	value, err := json.Marshal(result)
	if err != nil {
		return err
	}
	return p.producer.Produce(ctx, []byte(quote.Symbol), value)
}

func (p *Processor) process(quote QuoteMessage) ResultMessage {
	result := ResultMessage{
		Symbol:    quote.Symbol,
		Kind:      quote.Kind,
		Strike:    quote.Strike,
		Expiry:    quote.Expiry,
		Price:     quote.Price,
		Timestamp: time.Now().UTC(),
	}

	option, mkt, err := p.buildInputs(quote)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	start := time.Now()
	iv, err := p.engine.ImpliedVolatility(quote.Price, option, mkt, p.ivCfg)
	if err != nil {
		p.recorder.RecordIVSolve("error", time.Since(start))
		p.recorder.RecordPricingError("analytic", "implied_vol", errorKind(err))
		result.Error = err.Error()
		return result
	}
	p.recorder.RecordIVSolve("ok", time.Since(start))
	result.ImpliedVol = iv

	// greeks at the implied vol; quotes at intrinsic solve to zero vol,
	// which the analytic greeks reject, so skip them there
	if iv > 0 {
		model, err := models.NewBlackScholes(iv)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		greeks, err := p.engine.Greeks(option, model, mkt)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		result.Greeks = &greeks
	}

	return result
}

func (p *Processor) buildInputs(quote QuoteMessage) (models.EuropeanOption, market.Market, error) {
	option, err := models.NewEuropeanOption(quote.Kind, quote.Strike, quote.Expiry)
	if err != nil {
		return models.EuropeanOption{}, market.Market{}, err
	}
	rateCurve, err := market.NewFlatRateCurve(quote.Rate)
	if err != nil {
		return models.EuropeanOption{}, market.Market{}, err
	}
	divCurve, err := market.NewFlatDividendCurve(quote.DividendYield)
	if err != nil {
		return models.EuropeanOption{}, market.Market{}, err
	}
	mkt, err := market.New(quote.Spot, rateCurve, divCurve)
	if err != nil {
		return models.EuropeanOption{}, market.Market{}, err
	}
	return option, mkt, nil
}

func errorKind(err error) string {
	switch errors.TypeOf(err) {
	case errors.ErrorTypeInvalidInput:
		return "invalid_input"
	case errors.ErrorTypeNotConverged:
		return "not_converged"
	default:
		return "internal"
	}
}
