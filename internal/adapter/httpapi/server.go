// Package httpapi exposes the dashboard-facing REST API: tile aggregates by
// viewport, normalized records by city and type, cell aggregates, summary
// statistics, the air-quality proxy, presigned upload and playback URLs, and
// hex boundaries.
package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/paulmach/orb"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/sheets"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/observability"
)

// TileStore serves tile aggregates. Implemented by tilestore.Store.
type TileStore interface {
	Tile(id string) (domain.TileAggregate, bool)
	TilesInViewport(v domain.Viewport, minEvents int) []domain.TileAggregate
	AllTiles(minEvents int) []domain.TileAggregate
}

// RecordSource serves normalized records by city. Implemented by the
// docstore client.
type RecordSource interface {
	CongestionRecords(ctx context.Context, city string) ([]domain.CongestionRecord, error)
	DamageRecords(ctx context.Context, city string) ([]domain.DamageRecord, error)
}

// AirQualitySource proxies the air-quality telemetry sheet.
type AirQualitySource interface {
	Columns(ctx context.Context) ([]string, error)
	All(ctx context.Context) ([]sheets.Reading, error)
	Latest(ctx context.Context) (sheets.Reading, error)
}

// Presigner issues presigned object-store URLs. Implemented by the
// objectstore client.
type Presigner interface {
	PresignUpload(ctx context.Context, key, contentType string, expiry time.Duration) (string, error)
	PresignPlayback(ctx context.Context, key string, expiry time.Duration) (string, error)
	UploadKey(deviceID, filename string) string
}

// BoundaryResolver maps a hex cell id to its boundary ring.
type BoundaryResolver interface {
	Boundary(hexID string, fallbackLat, fallbackLon float64) orb.Ring
}

// Deps carries the server's collaborators. Nil optional dependencies
// (AirQuality, Uploads) disable their routes with 503 responses.
type Deps struct {
	Store         TileStore
	Records       RecordSource
	AirQuality    AirQualitySource
	Uploads       Presigner
	Hexes         BoundaryResolver
	PresignExpiry time.Duration
	Logger        *slog.Logger
	Metrics       *observability.Metrics
}

// Server is the dashboard API server.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	deps       Deps
}

// NewServer builds the router and wraps it in an http.Server on addr.
func NewServer(addr string, deps Deps) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery(), requestLogger(deps.Logger))

	s := &Server{
		httpServer: &http.Server{
			Addr:         addr,
			Handler:      engine,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 30 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		engine: engine,
		deps:   deps,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	v1 := s.engine.Group("/api/v1")

	v1.GET("/tiles", s.handleTiles)
	v1.GET("/tiles/convert", s.handleTileConvert)
	v1.GET("/tiles/:id", s.handleTile)
	v1.GET("/tiles/:id/bounds", s.handleTileBounds)

	v1.GET("/records", s.handleRecords)
	v1.GET("/summary", s.handleSummary)

	v1.GET("/cells/congestion", s.handleCongestionCells)
	v1.GET("/cells/damage", s.handleDamageCells)

	v1.GET("/air-quality/columns", s.handleAirQualityColumns)
	v1.GET("/air-quality/all", s.handleAirQualityAll)
	v1.GET("/air-quality/latest", s.handleAirQualityLatest)

	v1.POST("/uploads/url", s.handleUploadURL)
	v1.GET("/videos/:key/url", s.handleVideoURL)

	v1.GET("/hexes/:id/boundary", s.handleHexBoundary)
}

// Start begins listening. Returns http.ErrServerClosed on graceful shutdown.
func (s *Server) Start() error {
	s.deps.Logger.Info("api server starting", "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully drains connections within the given context deadline.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// ServeHTTP delegates to the router, useful for testing.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.engine.ServeHTTP(w, r)
}

func requestLogger(logger *slog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		logger.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
}

func abortError(c *gin.Context, status int, code, message string) {
	c.JSON(status, gin.H{"error": code, "message": message})
}
