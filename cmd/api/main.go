package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	"github.com/rzzdr/option-pricing-engine/config"
	"github.com/rzzdr/option-pricing-engine/internal/marketdata"
	"github.com/rzzdr/option-pricing-engine/internal/stream"
	"github.com/rzzdr/option-pricing-engine/pkg/api"
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
	log := logger.GetLogger("api.main")
	defer logger.Sync()

	log.Infof("starting %s API service", cfg.App.Name)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	recorder := metrics.NewRecorder()

	fetcher := marketdata.NewHTTPFetcher(cfg.MarketData.BaseURL, cfg.MarketData.FetchTimeout)
	store, err := marketdata.NewStore(cfg.MarketData.CacheDir, cfg.MarketData.Source, fetcher, recorder)
	if err != nil {
		log.Fatalf("failed to initialize market data store: %v", err)
	}

	hub := stream.NewHub(recorder)
	server := api.NewServer(*cfg, store, recorder, hub)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		hub.Run(gctx)
		return nil
	})

	g.Go(func() error {
		return server.Start()
	})

	g.Go(func() error {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		select {
		case sig := <-sigChan:
			log.Infof("received signal %v, shutting down", sig)
		case <-gctx.Done():
		}
		shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.API.ShutdownTimeout)
		defer shutdownCancel()
		if err := server.Stop(shutdownCtx); err != nil {
			log.Errorf("API server shutdown error: %v", err)
		}
		cancel()
		return nil
	})

	if err := g.Wait(); err != nil {
		log.Errorf("service exited with error: %v", err)
	}
	log.Info("shutdown complete")
}
