package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/couchcryptid/alert-triage/internal/adapter/geocode"
	httpadapter "github.com/couchcryptid/alert-triage/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/alert-triage/internal/adapter/kafka"
	"github.com/couchcryptid/alert-triage/internal/adapter/lang"
	"github.com/couchcryptid/alert-triage/internal/config"
	"github.com/couchcryptid/alert-triage/internal/domain"
	"github.com/couchcryptid/alert-triage/internal/observability"
	"github.com/couchcryptid/alert-triage/internal/pipeline"
	"github.com/couchcryptid/alert-triage/internal/store"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	st, err := store.New(cfg.SQLitePath)
	if err != nil {
		logger.Error("failed to open store", "path", cfg.SQLitePath, "error", err)
		os.Exit(1)
	}
	defer st.Close() //nolint:errcheck

	// Geocoder is feature-flagged via MAPBOX_ENABLED / MAPBOX_TOKEN.
	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := geocode.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, metrics, logger)
		geocoder = geocode.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox geocoding disabled")
	}

	correlator := domain.NewCorrelator(st, cfg.SensorWindow, cfg.SensorRadiusKm, cfg.SensorQueryLimit, logger)
	broadcaster := pipeline.NewBroadcaster(logger)

	// Kafka event fan-out is optional; the in-process broadcaster always runs.
	var sink pipeline.EventSink
	var eventWriter *kafkaadapter.Writer
	if cfg.KafkaEnabled {
		eventWriter = kafkaadapter.NewWriter(cfg, logger)
		sink = eventWriter
	}

	worker := pipeline.NewWorker(
		st,
		lang.NewDetector(),
		geocoder,
		correlator,
		broadcaster,
		sink,
		pipeline.Params{
			SectorGrid: cfg.SectorGridDegrees,
			Weights:    cfg.FusionWeights,
			Thresholds: cfg.SeverityThresholds,
		},
		cfg.QueueCapacity,
		logger,
		metrics,
	)

	srv := httpadapter.NewServer(cfg.HTTPAddr, worker, st, st, cfg.CandidateListLimit, logger, metrics)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start dispatch worker.
	go func() {
		if err := worker.Run(ctx); err != nil {
			logger.Error("worker error", "error", err)
		}
	}()

	// Start Kafka report intake when enabled.
	var reportReader *kafkaadapter.Reader
	if cfg.KafkaEnabled {
		reportReader = kafkaadapter.NewReader(cfg, worker, logger)
		go func() {
			if err := reportReader.Run(ctx); err != nil {
				logger.Error("kafka reader error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if reportReader != nil {
		if err := reportReader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if eventWriter != nil {
		if err := eventWriter.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
