package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/rzzdr/option-pricing-engine/config"
	"github.com/rzzdr/option-pricing-engine/internal/engine/analytic"
	"github.com/rzzdr/option-pricing-engine/internal/kafka"
	"github.com/rzzdr/option-pricing-engine/internal/processor"
	"github.com/rzzdr/option-pricing-engine/pkg/metrics"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("failed to load configuration: " + err.Error() + "\n")
		os.Exit(1)
	}

	logger.Init(cfg.App.LogLevel, cfg.App.Environment)
	log := logger.GetLogger("processor.main")
	defer logger.Sync()

	log.Infof("starting %s quote processor", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()

	kafkaCfg := &kafka.Config{
		Brokers:         cfg.Kafka.Brokers,
		GroupID:         cfg.Kafka.Consumer.GroupID,
		AutoOffsetReset: cfg.Kafka.Consumer.AutoOffsetReset,
		SessionTimeout:  cfg.Kafka.Consumer.SessionTimeout,
		ProducerAcks:    cfg.Kafka.Producer.Acks,
		BatchSize:       cfg.Kafka.Producer.BatchSize,
		RetryBackoff:    cfg.Kafka.Producer.RetryBackoff,
		MaxRetries:      cfg.Kafka.Producer.MaxRetries,
	}
	client := kafka.NewClient(kafkaCfg)

	ivCfg := analytic.IVConfig{
		Lower:   cfg.Engine.IV.Lower,
		Upper:   cfg.Engine.IV.Upper,
		Tol:     cfg.Engine.IV.Tol,
		MaxIter: cfg.Engine.IV.MaxIter,
	}

	proc := processor.New(client, cfg.Kafka.Topics.OptionQuotes, cfg.Kafka.Topics.PricingResults, ivCfg, recorder)
	defer proc.Close()

	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan
		log.Infof("received signal %v, shutting down", sig)
		cancel()
	}()

	if err := proc.Run(ctx); err != nil && err != context.Canceled {
		log.Errorf("processor exited with error: %v", err)
	}
	log.Info("shutdown complete")
}
