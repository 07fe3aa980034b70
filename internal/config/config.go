package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	HTTPAddr        string
	OpsAddr         string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Upstream records API used when the document store is disabled.
	DataAPIBaseURL string
	DataAPITimeout time.Duration

	// Document store holding raw city records.
	DocstoreEnabled bool
	DocstoreTables  string // table name prefix, "{prefix}-{city}-{type}"
	AWSRegion       string
	DynamoEndpoint  string // non-empty for local stacks

	// Object store for dashcam uploads and playback.
	S3Bucket      string
	S3Prefix      string
	S3Endpoint    string
	PresignExpiry time.Duration

	// Air-quality telemetry spreadsheet.
	SheetsAPIKey  string
	SpreadsheetID string
	SheetsRange   string
	SheetsTimeout time.Duration

	// Telemetry ingest pipeline.
	IngestEnabled      bool
	KafkaBrokers       []string
	KafkaSourceTopic   string
	KafkaSinkTopic     string
	KafkaGroupID       string
	BatchSize          int
	BatchFlushInterval time.Duration

	// Hex boundary resolution.
	HexCacheSize          int
	HexRetryFallbackAfter int

	// Events retained per grid tile.
	TileRetain int
}

// SheetsEnabled reports whether the air-quality telemetry source is configured.
func (c *Config) SheetsEnabled() bool {
	return c.SheetsAPIKey != "" && c.SpreadsheetID != ""
}

// UploadsEnabled reports whether the object store is configured.
func (c *Config) UploadsEnabled() bool {
	return c.S3Bucket != ""
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := parseDuration("SHUTDOWN_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	dataAPITimeout, err := parseDuration("DATA_API_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	presignExpiry, err := parseDuration("PRESIGN_EXPIRY", "15m")
	if err != nil {
		return nil, err
	}
	sheetsTimeout, err := parseDuration("SHEETS_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}
	flushInterval, err := parseDuration("BATCH_FLUSH_INTERVAL", "500ms")
	if err != nil {
		return nil, err
	}

	batchSize, err := parseBoundedInt("BATCH_SIZE", 50, 1, 1000)
	if err != nil {
		return nil, err
	}
	hexCacheSize, err := parseBoundedInt("HEX_CACHE_SIZE", 1000, -1, 1_000_000)
	if err != nil {
		return nil, err
	}
	hexRetryAfter, err := parseBoundedInt("HEX_RETRY_FALLBACK_AFTER", 0, 0, 1_000_000)
	if err != nil {
		return nil, err
	}
	tileRetain, err := parseBoundedInt("TILE_RETAIN", 20, 1, 10_000)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		OpsAddr:         envOrDefault("OPS_ADDR", ":9090"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		DataAPIBaseURL: envOrDefault("DATA_API_BASE_URL", "http://localhost:8000"),
		DataAPITimeout: dataAPITimeout,

		DocstoreEnabled: os.Getenv("DOCSTORE_ENABLED") == "true",
		DocstoreTables:  envOrDefault("DOCSTORE_TABLE_PREFIX", "roadwatch"),
		AWSRegion:       envOrDefault("AWS_REGION", "ap-south-1"),
		DynamoEndpoint:  os.Getenv("DYNAMO_ENDPOINT"),

		S3Bucket:      os.Getenv("S3_BUCKET"),
		S3Prefix:      envOrDefault("S3_PREFIX", "uploads"),
		S3Endpoint:    os.Getenv("S3_ENDPOINT"),
		PresignExpiry: presignExpiry,

		SheetsAPIKey:  os.Getenv("SHEETS_API_KEY"),
		SpreadsheetID: os.Getenv("SPREADSHEET_ID"),
		SheetsRange:   envOrDefault("SHEETS_RANGE", "Sheet1!A1:Z"),
		SheetsTimeout: sheetsTimeout,

		IngestEnabled:      os.Getenv("INGEST_ENABLED") == "true",
		KafkaBrokers:       parseBrokers(envOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaSourceTopic:   envOrDefault("KAFKA_SOURCE_TOPIC", "raw-road-telemetry"),
		KafkaSinkTopic:     envOrDefault("KAFKA_SINK_TOPIC", "enriched-road-events"),
		KafkaGroupID:       envOrDefault("KAFKA_GROUP_ID", "roadwatch-ingest"),
		BatchSize:          batchSize,
		BatchFlushInterval: flushInterval,

		HexCacheSize:          hexCacheSize,
		HexRetryFallbackAfter: hexRetryAfter,
		TileRetain:            tileRetain,
	}

	if cfg.IngestEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("INGEST_ENABLED is true but KAFKA_BROKERS is empty")
		}
		if cfg.KafkaSourceTopic == "" {
			return nil, errors.New("INGEST_ENABLED is true but KAFKA_SOURCE_TOPIC is empty")
		}
		if cfg.KafkaSinkTopic == "" {
			return nil, errors.New("INGEST_ENABLED is true but KAFKA_SINK_TOPIC is empty")
		}
	}
	if cfg.SheetsAPIKey != "" && cfg.SpreadsheetID == "" {
		return nil, errors.New("SHEETS_API_KEY is set but SPREADSHEET_ID is not")
	}

	return cfg, nil
}

func envOrDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseBrokers(s string) []string {
	var brokers []string
	for _, b := range strings.Split(s, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

func parseDuration(key, def string) (time.Duration, error) {
	s := envOrDefault(key, def)
	d, err := time.ParseDuration(s)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", key, s)
	}
	return d, nil
}

func parseBoundedInt(key string, def, min, max int) (int, error) {
	s := os.Getenv(key)
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < min || n > max {
		return 0, fmt.Errorf("invalid %s: %q (want %d..%d)", key, s, min, max)
	}
	return n, nil
}
