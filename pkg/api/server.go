package api

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/rzzdr/option-pricing-engine/config"
	"github.com/rzzdr/option-pricing-engine/internal/marketdata"
	"github.com/rzzdr/option-pricing-engine/internal/stream"
	"github.com/rzzdr/option-pricing-engine/pkg/metrics"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/logger"
	"github.com/rzzdr/option-pricing-engine/pkg/utils/ratelimit"
)

// Server is the HTTP API server
type Server struct {
	cfg      config.APIConfig
	handlers *Handlers
	hub      *stream.Hub
	recorder *metrics.Recorder
	srv      *http.Server
	log      *logger.Logger
}

// NewServer creates a new API server
func NewServer(cfg config.Config, store *marketdata.Store, recorder *metrics.Recorder, hub *stream.Hub) *Server {
	if cfg.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		cfg:      cfg.API,
		handlers: CreateHandlers(cfg.Engine, store, recorder, hub),
		hub:      hub,
		recorder: recorder,
		log:      logger.GetLogger("api.server"),
	}

	router := gin.New()
	router.Use(RecoveryMiddleware())
	router.Use(LoggingMiddleware())
	router.Use(MetricsMiddleware(recorder))
	router.Use(CORSMiddleware())

	bucket := ratelimit.NewTokenBucket(cfg.API.RateLimit, cfg.API.RateBurst)

	v1 := router.Group("/api/v1")
	v1.Use(RateLimitMiddleware(bucket))
	{
		v1.POST("/price", s.handlers.PriceHandler)
		v1.POST("/greeks", s.handlers.GreeksHandler)
		v1.POST("/implied-vol", s.handlers.ImpliedVolHandler)
		v1.GET("/market/history/:symbol", s.handlers.MarketHistoryHandler)
		v1.GET("/market/volatility/:symbol", s.handlers.MarketVolatilityHandler)
	}

	router.GET("/health", s.handlers.HealthCheckHandler)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	router.GET("/ws", func(c *gin.Context) {
		hub.HandleWebSocket(c.Writer, c.Request)
	})

	s.srv = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.API.Host, cfg.API.Port),
		Handler:      router,
		ReadTimeout:  cfg.API.ReadTimeout,
		WriteTimeout: cfg.API.WriteTimeout,
	}

	return s
}

// Start runs the HTTP server until the listener fails or Stop is called
func (s *Server) Start() error {
	s.log.Infof("API server listening on %s", s.srv.Addr)
	if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Stop shuts down the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	s.log.Info("shutting down API server")
	return s.srv.Shutdown(ctx)
}
