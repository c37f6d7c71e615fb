package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog/log"

	"github.com/Tealium/tealium-mcp-demo/internal/config"
	"github.com/Tealium/tealium-mcp-demo/internal/infra/cache"
	"github.com/Tealium/tealium-mcp-demo/internal/infra/moments"
	"github.com/Tealium/tealium-mcp-demo/internal/logger"
	"github.com/Tealium/tealium-mcp-demo/internal/metrics"
	"github.com/Tealium/tealium-mcp-demo/internal/transport/eventbus"
	"github.com/Tealium/tealium-mcp-demo/internal/transport/httpapi"
	"github.com/Tealium/tealium-mcp-demo/internal/usecase"
)

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("config error")
	}
	lg, err := logger.New(cfg.Log)
	if err != nil {
		log.Fatal().Err(err).Msg("logger error")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, closeStore, err := cache.Open(ctx, cfg.CacheStore())
	if err != nil {
		lg.Fatal().Err(err).Str("backend", cfg.Cache.Backend).Msg("cache error")
	}
	defer closeStore()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewCollector(reg)

	resolution := cfg.Resolution()
	if err := resolution.Validate(); err != nil {
		lg.Warn().Err(err).Msg("lookups will be refused until configuration is complete")
	}

	uc := usecase.NewVisitorResolver(moments.NewClient(nil), store,
		usecase.WithLogger(lg.With().Str("component", "resolver").Logger()),
		usecase.WithMetrics(m),
	)

	if len(cfg.Kafka.Brokers) > 0 {
		reader := eventbus.NewReader(eventbus.ReaderConfig{
			Brokers: cfg.Kafka.Brokers,
			Topic:   cfg.Kafka.WarmupTopic,
			GroupID: cfg.Kafka.GroupID,
		})
		consumer := eventbus.NewEventBusConsumer(uc, resolution, reader, lg.With().Str("component", "warmup").Logger(), m)
		defer consumer.Close()
		go func() {
			if err := consumer.Run(ctx); err != nil {
				lg.Error().Err(err).Msg("warm-up consumer stopped")
			}
		}()
	}

	gin.SetMode(gin.ReleaseMode)
	router := httpapi.NewRouter(httpapi.NewHandler(uc, resolution, lg), reg)
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	lg.Info().Str("addr", cfg.HTTPAddr).Str("cache", cfg.Cache.Backend).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		lg.Fatal().Err(err).Msg("server error")
	}
}
