package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config for the whole application
type Config struct {
	App        AppConfig
	API        APIConfig
	Kafka      KafkaConfig
	MarketData MarketDataConfig
	Engine     EngineConfig
	Metrics    MetricsConfig
}

// General application configuration
type AppConfig struct {
	Name        string
	Environment string
	LogLevel    string `mapstructure:"log_level"`
}

// Configuration for the API server
type APIConfig struct {
	Host            string
	Port            int
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	RateLimit       float64       `mapstructure:"rate_limit"`
	RateBurst       int           `mapstructure:"rate_burst"`
}

// Configuration for Kafka
type KafkaConfig struct {
	Brokers  []string
	Consumer KafkaConsumerConfig
	Producer KafkaProducerConfig
	Topics   KafkaTopicsConfig
}

// Kafka consumer configuration
type KafkaConsumerConfig struct {
	GroupID         string        `mapstructure:"group_id"`
	AutoOffsetReset string        `mapstructure:"auto_offset_reset"`
	SessionTimeout  time.Duration `mapstructure:"session_timeout"`
}

// Kafka producer configuration
type KafkaProducerConfig struct {
	Acks         string
	BatchSize    int           `mapstructure:"batch_size"`
	RetryBackoff time.Duration `mapstructure:"retry_backoff"`
	MaxRetries   int           `mapstructure:"max_retries"`
}

// Kafka topics configuration
type KafkaTopicsConfig struct {
	OptionQuotes   string `mapstructure:"option_quotes"`
	PricingResults string `mapstructure:"pricing_results"`
}

// Configuration for historical market data retrieval
type MarketDataConfig struct {
	Source       string
	BaseURL      string        `mapstructure:"base_url"`
	CacheDir     string        `mapstructure:"cache_dir"`
	FetchTimeout time.Duration `mapstructure:"fetch_timeout"`
}

// Default parameters for the pricing engines
type EngineConfig struct {
	MC  MCDefaults
	PDE PDEDefaults
	IV  IVDefaults
}

// Monte Carlo engine defaults
type MCDefaults struct {
	NPaths int    `mapstructure:"n_paths"`
	NSteps int    `mapstructure:"n_steps"`
	Seed   uint64
}

// Finite-difference grid defaults
type PDEDefaults struct {
	NS             int
	NT             int
	Theta          float64
	SMaxMultiplier float64 `mapstructure:"s_max_multiplier"`
}

// Implied volatility solver defaults
type IVDefaults struct {
	Lower   float64
	Upper   float64
	Tol     float64
	MaxIter int `mapstructure:"max_iter"`
}

// Configuration for metrics
type MetricsConfig struct {
	Enabled bool
	Port    int
}

// Load reads configuration from the config file and environment variables
func Load() (*Config, error) {
	// start from a clean slate so an earlier SetConfigFile cannot leak
	// into this load
	viper.Reset()
	setDefaults()

	if configPath := os.Getenv("PRICING_CONFIG_PATH"); configPath != "" {
		// an explicit override must exist
		viper.SetConfigFile(configPath)
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", configPath, err)
		}
	} else {
		viper.SetConfigName("config")
		viper.SetConfigType("yaml")
		viper.AddConfigPath("./config")
		viper.AddConfigPath(".")

		if err := viper.ReadInConfig(); err != nil {
			// config file is optional; defaults and env cover everything
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("failed to read config file: %w", err)
			}
		}
	}

	viper.SetEnvPrefix("PRICING")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return &config, nil
}

func setDefaults() {
	// App defaults
	viper.SetDefault("app.name", "option-pricing-engine")
	viper.SetDefault("app.environment", "development")
	viper.SetDefault("app.log_level", "info")

	// API defaults
	viper.SetDefault("api.host", "0.0.0.0")
	viper.SetDefault("api.port", 8080)
	viper.SetDefault("api.read_timeout", "10s")
	viper.SetDefault("api.write_timeout", "10s")
	viper.SetDefault("api.shutdown_timeout", "30s")
	viper.SetDefault("api.rate_limit", 100.0)
	viper.SetDefault("api.rate_burst", 200)

	// Kafka defaults
	viper.SetDefault("kafka.brokers", []string{"localhost:9092"})
	viper.SetDefault("kafka.consumer.group_id", "option-pricing-group")
	viper.SetDefault("kafka.consumer.auto_offset_reset", "earliest")
	viper.SetDefault("kafka.consumer.session_timeout", "30s")
	viper.SetDefault("kafka.producer.acks", "all")
	viper.SetDefault("kafka.producer.batch_size", 16384)
	viper.SetDefault("kafka.producer.retry_backoff", "100ms")
	viper.SetDefault("kafka.producer.max_retries", 3)
	viper.SetDefault("kafka.topics.option_quotes", "options.quotes")
	viper.SetDefault("kafka.topics.pricing_results", "options.pricing.results")

	// Market data defaults
	viper.SetDefault("marketdata.source", "stooq")
	viper.SetDefault("marketdata.base_url", "https://stooq.com/q/d/l/")
	viper.SetDefault("marketdata.cache_dir", ".market_cache")
	viper.SetDefault("marketdata.fetch_timeout", "30s")

	// Engine defaults
	viper.SetDefault("engine.mc.n_paths", 50000)
	viper.SetDefault("engine.mc.n_steps", 1)
	viper.SetDefault("engine.mc.seed", 123)
	viper.SetDefault("engine.pde.ns", 200)
	viper.SetDefault("engine.pde.nt", 200)
	viper.SetDefault("engine.pde.theta", 0.5)
	viper.SetDefault("engine.pde.s_max_multiplier", 4.0)
	viper.SetDefault("engine.iv.lower", 1e-6)
	viper.SetDefault("engine.iv.upper", 5.0)
	viper.SetDefault("engine.iv.tol", 1e-10)
	viper.SetDefault("engine.iv.max_iter", 100)

	// Metrics defaults
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.port", 9090)
}

// GetConfigPath returns the config file location, honoring the override env var
func GetConfigPath() string {
	if configPath := os.Getenv("PRICING_CONFIG_PATH"); configPath != "" {
		return configPath
	}
	return "./config/config.yaml"
}
