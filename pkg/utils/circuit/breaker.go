// Package circuit provides a circuit breaker for calls to external
// services, used around market data fetches.
package circuit

import (
	"fmt"
	"sync"
	"time"

	"github.com/rzzdr/option-pricing-engine/pkg/utils/errors"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

// State of the breaker
type State int

const (
	// StateClosed lets requests through
	StateClosed State = iota
	// StateHalfOpen lets a probe request through after the cooldown
	StateHalfOpen
	// StateOpen rejects requests outright
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "CLOSED"
	case StateHalfOpen:
		return "HALF_OPEN"
	case StateOpen:
		return "OPEN"
	default:
		return "UNKNOWN"
	}
}

// Config controls when the breaker trips and recovers
type Config struct {
	MaxFailures int
	Cooldown    time.Duration
}

// DefaultConfig trips after 5 consecutive failures with a 60s cooldown
func DefaultConfig() Config {
	return Config{MaxFailures: 5, Cooldown: 60 * time.Second}
}

// Breaker is a consecutive-failure circuit breaker
type Breaker struct {
	name        string
	config      Config
	mu          sync.Mutex
	state       State
	failures    int
	lastFailure time.Time
	log         *logger.Logger
}

// New creates a breaker in the closed state
func New(name string, config Config) *Breaker {
	if config.MaxFailures <= 0 {
		config.MaxFailures = DefaultConfig().MaxFailures
	}
	if config.Cooldown <= 0 {
		config.Cooldown = DefaultConfig().Cooldown
	}
	return &Breaker{
		name:   name,
		config: config,
		state:  StateClosed,
		log:    logger.GetLogger(fmt.Sprintf("circuit.%s", name)),
	}
}

// State returns the current breaker state
func (b *Breaker) State() State {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.currentState()
}

func (b *Breaker) currentState() State {
	if b.state == StateOpen && time.Since(b.lastFailure) >= b.config.Cooldown {
		b.state = StateHalfOpen
	}
	return b.state
}

// Execute runs fn if the breaker permits it, recording the outcome
func (b *Breaker) Execute(fn func() error) error {
	b.mu.Lock()
	if b.currentState() == StateOpen {
		b.mu.Unlock()
		return errors.IO(fmt.Sprintf("circuit breaker %q is open", b.name))
	}
	b.mu.Unlock()

	err := fn()

	b.mu.Lock()
	defer b.mu.Unlock()
	if err != nil {
		b.failures++
		b.lastFailure = time.Now()
		if b.state == StateHalfOpen || b.failures >= b.config.MaxFailures {
			if b.state != StateOpen {
				b.log.Warnf("Circuit breaker %q opening after %d failures", b.name, b.failures)
			}
			b.state = StateOpen
		}
		return err
	}

	if b.state != StateClosed {
		b.log.Infof("Circuit breaker %q closing", b.name)
	}
	b.state = StateClosed
	b.failures = 0
	return nil
}
