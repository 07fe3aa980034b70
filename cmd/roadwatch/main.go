// Command roadwatch runs the road-condition data service: the dashboard REST
// API, the operational endpoints, and (when enabled) the Kafka telemetry
// ingest pipeline that keeps the tile aggregates fresh.
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

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/docstore"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/httpapi"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/httpops"
	kafkaadapter "github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/kafka"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/objectstore"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/roadsapi"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/sheets"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/config"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/hexgrid"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/observability"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/pipeline"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/tiles"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/tilestore"
)

// storeLoader feeds enriched events into the in-memory tile store before
// publishing them, so the API serves fresh aggregates without a round trip
// through the sink topic.
type storeLoader struct {
	store  *tilestore.Store
	writer *kafkaadapter.Writer
}

func (l *storeLoader) LoadBatch(ctx context.Context, events []domain.SensorEvent) error {
	l.store.AddBatch(events)
	return l.writer.LoadBatch(ctx, events)
}

func main() {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := tilestore.New(cfg.TileRetain)
	resolver := hexgrid.NewResolver(hexgrid.NewLRUCache(cfg.HexCacheSize), cfg.HexRetryFallbackAfter, logger, metrics)

	// Records come from the document store when configured, otherwise from
	// the upstream records API.
	var records httpapi.RecordSource
	if cfg.DocstoreEnabled {
		client, err := docstore.NewClient(ctx, docstore.Config{
			TablePrefix: cfg.DocstoreTables,
			Region:      cfg.AWSRegion,
			Endpoint:    cfg.DynamoEndpoint,
		}, logger)
		if err != nil {
			logger.Error("failed to create docstore client", "error", err)
			os.Exit(1)
		}
		records = client
		logger.Info("document store enabled", "table_prefix", cfg.DocstoreTables, "region", cfg.AWSRegion)
	} else {
		records = roadsapi.NewClient(cfg.DataAPIBaseURL, cfg.DataAPITimeout, logger)
		logger.Info("document store disabled, records proxied", "base_url", cfg.DataAPIBaseURL)
	}

	var airQuality httpapi.AirQualitySource
	if cfg.SheetsEnabled() {
		airQuality = sheets.NewClient(cfg.SheetsAPIKey, cfg.SpreadsheetID, cfg.SheetsRange, cfg.SheetsTimeout, logger)
		logger.Info("air-quality source enabled", "spreadsheet_id", cfg.SpreadsheetID)
	} else {
		logger.Info("air-quality source disabled")
	}

	var uploads httpapi.Presigner
	if cfg.UploadsEnabled() {
		client, err := objectstore.NewClient(ctx, objectstore.Config{
			Bucket:   cfg.S3Bucket,
			Prefix:   cfg.S3Prefix,
			Region:   cfg.AWSRegion,
			Endpoint: cfg.S3Endpoint,
		}, logger)
		if err != nil {
			logger.Error("failed to create object store client", "error", err)
			os.Exit(1)
		}
		uploads = client
		logger.Info("object store enabled", "bucket", cfg.S3Bucket)
	} else {
		logger.Info("object store disabled")
	}

	apiServer := httpapi.NewServer(cfg.HTTPAddr, httpapi.Deps{
		Store:         store,
		Records:       records,
		AirQuality:    airQuality,
		Uploads:       uploads,
		Hexes:         resolver,
		PresignExpiry: cfg.PresignExpiry,
		Logger:        logger,
		Metrics:       metrics,
	})

	// Optional telemetry ingest (feature-flagged via INGEST_ENABLED).
	var checkers []httpops.ReadinessChecker
	var reader *kafkaadapter.Reader
	var writer *kafkaadapter.Writer
	if cfg.IngestEnabled {
		reader = kafkaadapter.NewReader(cfg, logger)
		writer = kafkaadapter.NewWriter(cfg, logger)
		transformer := pipeline.NewTransformer(tiles.CellIDForPoint, logger)

		p := pipeline.New(reader, transformer, &storeLoader{store: store, writer: writer}, logger, metrics, cfg.BatchSize)
		checkers = append(checkers, p)

		go func() {
			if err := p.Run(ctx); err != nil {
				logger.Error("pipeline error", "error", err)
			}
		}()
		logger.Info("telemetry ingest enabled",
			"source_topic", cfg.KafkaSourceTopic, "sink_topic", cfg.KafkaSinkTopic, "batch_size", cfg.BatchSize)
	} else {
		logger.Info("telemetry ingest disabled")
	}

	opsServer := httpops.NewServer(cfg.OpsAddr, logger, checkers...)

	go func() {
		if err := apiServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("api server error", "error", err)
		}
	}()
	go func() {
		if err := opsServer.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("ops server error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := apiServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("api server shutdown error", "error", err)
	}
	if err := opsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("ops server shutdown error", "error", err)
	}
	if reader != nil {
		if err := reader.Close(); err != nil {
			logger.Error("kafka reader close error", "error", err)
		}
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
