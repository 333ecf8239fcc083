package mc

import (
	"math"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"github.com/rzzdr/option-pricing-engine/internal/market"
	"github.com/rzzdr/option-pricing-engine/pkg/models"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// Config fully specifies a Monte Carlo run. Identical config and identical
// inputs produce bit-identical output; the seed is the only source of
// randomness and each run owns its own generator.
//
// NSteps controls time discretization; NSteps == 1 samples the terminal
// distribution directly. Stepping is exact for the constant-coefficient
// lognormal dynamics, so NSteps changes RNG consumption, never bias.
type Config struct {
	NPaths int    `json:"n_paths"`
	NSteps int    `json:"n_steps"`
	Seed   uint64 `json:"seed"`
}

// DefaultConfig returns the standard run configuration
func DefaultConfig() Config {
	return Config{NPaths: 50000, NSteps: 1, Seed: 123}
}

func (c Config) validate() error {
	if c.NPaths < 2 {
		return errors.InvalidInput("n_paths must be >= 2 for an unbiased sample standard deviation")
	}
	if c.NSteps < 1 {
		return errors.InvalidInput("n_steps must be >= 1")
	}
	return nil
}

// Engine prices European options by simulating risk-neutral lognormal paths
type Engine struct {
	cfg Config
	log *logger.Logger
}

// New creates a Monte Carlo engine with the given configuration
func New(cfg Config) *Engine {
	return &Engine{cfg: cfg, log: logger.GetLogger("engine.mc")}
}

// Name identifies the engine to the dispatch layer
func (e *Engine) Name() string {
	return "mc"
}

// Config returns the run configuration
func (e *Engine) Config() Config {
	return e.cfg
}

func validate(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market) error {
	if opt.Kind != models.Call && opt.Kind != models.Put {
		return errors.InvalidInput("kind must be 'call' or 'put'")
	}
	if opt.Strike <= 0 {
		return errors.InvalidInput("strike must be > 0")
	}
	if opt.Expiry < 0 {
		return errors.InvalidInput("expiry must be >= 0")
	}
	if mdl.Sigma < 0 {
		return errors.InvalidInput("sigma must be >= 0")
	}
	if mkt.Spot <= 0 {
		return errors.InvalidInput("spot must be > 0")
	}
	return nil
}

func (e *Engine) meta() models.Meta {
	return models.Meta{
		"method":  "mc",
		"model":   "BlackScholes",
		"n_paths": e.cfg.NPaths,
		"n_steps": e.cfg.NSteps,
		"seed":    e.cfg.Seed,
	}
}

// Price estimates the option value as the sample mean of discounted payoffs
// over NPaths independent terminal spots, with the standard error of that
// estimator. Degenerate inputs (T == 0, sigma == 0) bypass simulation and
// report stderr = 0.
func (e *Engine) Price(opt models.EuropeanOption, mdl models.BlackScholes, mkt market.Market) (models.PriceResult, error) {
	if err := e.cfg.validate(); err != nil {
		return models.PriceResult{}, err
	}
	if err := validate(opt, mdl, mkt); err != nil {
		return models.PriceResult{}, err
	}

	s0 := mkt.Spot
	t := opt.Expiry
	sigma := mdl.Sigma
	r := mkt.Rate(t)
	q := mkt.DividendYield(t)
	dfR := mkt.DFr(t)

	if t == 0 {
		return models.NewMCPriceResult(opt.Payoff(s0), 0, e.meta()), nil
	}
	if sigma == 0 {
		forward := s0 * math.Exp((r-q)*t)
		return models.NewMCPriceResult(dfR*opt.Payoff(forward), 0, e.meta()), nil
	}

	// fresh generator per call, seeded solely from the config
	normal := distuv.Normal{Mu: 0, Sigma: 1, Src: rand.NewSource(e.cfg.Seed)}

	pv := make([]float64, e.cfg.NPaths)
	if e.cfg.NSteps == 1 {
		drift := (r - q - 0.5*sigma*sigma) * t
		vol := sigma * math.Sqrt(t)
		for i := range pv {
			sT := s0 * math.Exp(drift+vol*normal.Rand())
			pv[i] = dfR * opt.Payoff(sT)
		}
	} else {
		dt := t / float64(e.cfg.NSteps)
		driftStep := (r - q - 0.5*sigma*sigma) * dt
		volStep := sigma * math.Sqrt(dt)
		for i := range pv {
			logS := math.Log(s0)
			for j := 0; j < e.cfg.NSteps; j++ {
				logS += driftStep + volStep*normal.Rand()
			}
			pv[i] = dfR * opt.Payoff(math.Exp(logS))
		}
	}

	value := stat.Mean(pv, nil)
	stderr := stat.StdDev(pv, nil) / math.Sqrt(float64(e.cfg.NPaths))

	return models.NewMCPriceResult(value, stderr, e.meta()), nil
}
