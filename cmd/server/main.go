package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "bird-map-service/internal/adapter/http"
	kafkaadapter "bird-map-service/internal/adapter/kafka"
	"bird-map-service/internal/adapter/nominatim"
	"bird-map-service/internal/config"
	"bird-map-service/internal/domain"
	"bird-map-service/internal/ingest"
	"bird-map-service/internal/loader"
	"bird-map-service/internal/observability"
	"bird-map-service/internal/pipeline"
	"bird-map-service/internal/store"
)

func main() {
	// Optional .env for local development; real deployments set the
	// environment directly.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	observations, _, err := loader.Load(cfg.DatasetPath, logger)
	if err != nil {
		logger.Error("failed to load dataset", "error", err)
		os.Exit(1)
	}
	st := store.New(observations, metrics)

	// Initialize geocoder (feature-flagged via GEOCODE_ENABLED).
	var geocoder domain.Geocoder
	if cfg.GeocodeEnabled {
		client := nominatim.NewClient(cfg.GeocodeBaseURL, cfg.GeocodeUserAgent, cfg.GeocodeTimeout, metrics, logger)
		geocoder = nominatim.NewCachedGeocoder(client, cfg.GeocodeCacheSize, metrics)
		metrics.GeocodeEnabled.Set(1)
		logger.Info("geocoding enabled", "base_url", cfg.GeocodeBaseURL, "cache_size", cfg.GeocodeCacheSize)
	} else {
		logger.Info("geocoding disabled")
	}

	p := pipeline.New(cfg.DedupRadiusKM, logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, st, p, geocoder, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Optional live sighting ingest (feature-flagged via KAFKA_INGEST_ENABLED).
	var reader *kafkaadapter.Reader
	if cfg.IngestEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		ing := ingest.New(reader, st, logger, metrics)
		go func() {
			if err := ing.Run(ctx); err != nil {
				logger.Error("ingest error", "error", err)
			}
		}()
		logger.Info("sighting ingest enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	} else {
		logger.Info("sighting ingest disabled")
	}

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
