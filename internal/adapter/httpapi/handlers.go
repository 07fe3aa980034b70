package httpapi

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/docstore"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/tiles"
)

// handleTiles serves GET /api/v1/tiles. With viewport parameters it returns
// the aggregates whose centers fall inside the viewport; without any it
// returns every tile. min_events filters out sparsely observed tiles.
func (s *Server) handleTiles(c *gin.Context) {
	s.deps.Metrics.TileQueries.Inc()

	minEvents := 1
	if raw := c.Query("min_events"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			abortError(c, http.StatusBadRequest, "invalid_parameter", "min_events must be a non-negative integer")
			return
		}
		minEvents = n
	}

	if !hasViewportParams(c) {
		all := s.deps.Store.AllTiles(minEvents)
		c.JSON(http.StatusOK, gin.H{"tiles": all, "count": len(all)})
		return
	}

	v, ok := parseViewport(c)
	if !ok {
		return
	}

	found := s.deps.Store.TilesInViewport(v, minEvents)
	c.JSON(http.StatusOK, gin.H{"tiles": found, "count": len(found)})
}

// handleTile serves GET /api/v1/tiles/:id.
func (s *Server) handleTile(c *gin.Context) {
	id := c.Param("id")
	agg, ok := s.deps.Store.Tile(id)
	if !ok {
		abortError(c, http.StatusNotFound, "not_found", "no events recorded for tile "+id)
		return
	}
	c.JSON(http.StatusOK, agg)
}

// handleTileBounds serves GET /api/v1/tiles/:id/bounds.
func (s *Server) handleTileBounds(c *gin.Context) {
	id := c.Param("id")
	bounds, err := tiles.CellBounds(id)
	if err != nil {
		abortError(c, http.StatusBadRequest, "invalid_tile_id", err.Error())
		return
	}
	lat, lon, _ := tiles.CellCenter(id)
	c.JSON(http.StatusOK, gin.H{
		"tile_id": id,
		"bounds":  bounds,
		"center":  gin.H{"lat": lat, "lon": lon},
	})
}

// handleTileConvert serves GET /api/v1/tiles/convert?lat=&lon=.
func (s *Server) handleTileConvert(c *gin.Context) {
	lat, ok1 := queryFloat(c, "lat")
	lon, ok2 := queryFloat(c, "lon")
	if !ok1 || !ok2 {
		return
	}
	p := domain.GeoPoint{Lat: lat, Lon: lon}
	if !p.Valid() {
		abortError(c, http.StatusBadRequest, "invalid_parameter", "lat/lon outside valid coordinate ranges")
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"tile_id": tiles.CellIDForPoint(lat, lon),
		"lat":     lat,
		"lon":     lon,
	})
}

// handleRecords serves GET /api/v1/records?city=&type=&level=.
func (s *Server) handleRecords(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		abortError(c, http.StatusBadRequest, "missing_parameter", "city parameter is required")
		return
	}
	recordType := c.DefaultQuery("type", docstore.TypeCongestion)
	level := c.DefaultQuery("level", domain.LevelAll)

	switch recordType {
	case docstore.TypeCongestion:
		recs, err := s.deps.Records.CongestionRecords(c.Request.Context(), city)
		if err != nil {
			abortError(c, http.StatusBadGateway, "upstream_error", "failed to read congestion records: "+err.Error())
			return
		}
		s.deps.Metrics.RecordsNormalized.WithLabelValues(docstore.TypeCongestion).Add(float64(len(recs)))
		recs = domain.FilterCongestionByLevel(recs, level)
		c.JSON(http.StatusOK, gin.H{"city": city, "type": recordType, "count": len(recs), "records": recs})
	case docstore.TypeDamage:
		recs, err := s.deps.Records.DamageRecords(c.Request.Context(), city)
		if err != nil {
			abortError(c, http.StatusBadGateway, "upstream_error", "failed to read damage records: "+err.Error())
			return
		}
		s.deps.Metrics.RecordsNormalized.WithLabelValues(docstore.TypeDamage).Add(float64(len(recs)))
		recs = domain.FilterDamageByLevel(recs, level)
		c.JSON(http.StatusOK, gin.H{"city": city, "type": recordType, "count": len(recs), "records": recs})
	default:
		abortError(c, http.StatusBadRequest, "invalid_parameter",
			"type must be "+docstore.TypeCongestion+" or "+docstore.TypeDamage)
	}
}

// handleSummary serves GET /api/v1/summary?city=.
func (s *Server) handleSummary(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		abortError(c, http.StatusBadRequest, "missing_parameter", "city parameter is required")
		return
	}

	congestion, err := s.deps.Records.CongestionRecords(c.Request.Context(), city)
	if err != nil {
		abortError(c, http.StatusBadGateway, "upstream_error", "failed to read congestion records: "+err.Error())
		return
	}
	damage, err := s.deps.Records.DamageRecords(c.Request.Context(), city)
	if err != nil {
		abortError(c, http.StatusBadGateway, "upstream_error", "failed to read damage records: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{"city": city, "summary": domain.ComputeSummary(congestion, damage)})
}

// handleCongestionCells serves GET /api/v1/cells/congestion?city=. Records
// are grouped by grid cell into the aggregates the map overlay renders.
func (s *Server) handleCongestionCells(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		abortError(c, http.StatusBadRequest, "missing_parameter", "city parameter is required")
		return
	}

	recs, err := s.deps.Records.CongestionRecords(c.Request.Context(), city)
	if err != nil {
		abortError(c, http.StatusBadGateway, "upstream_error", "failed to read congestion records: "+err.Error())
		return
	}
	cells := domain.AggregateCongestion(recs, tiles.CellIDForPoint)
	c.JSON(http.StatusOK, gin.H{"city": city, "count": len(cells), "cells": cells})
}

// handleDamageCells serves GET /api/v1/cells/damage?city=.
func (s *Server) handleDamageCells(c *gin.Context) {
	city := c.Query("city")
	if city == "" {
		abortError(c, http.StatusBadRequest, "missing_parameter", "city parameter is required")
		return
	}

	recs, err := s.deps.Records.DamageRecords(c.Request.Context(), city)
	if err != nil {
		abortError(c, http.StatusBadGateway, "upstream_error", "failed to read damage records: "+err.Error())
		return
	}
	cells := domain.AggregateDamage(recs)
	c.JSON(http.StatusOK, gin.H{"city": city, "count": len(cells), "cells": cells})
}

func (s *Server) handleAirQualityColumns(c *gin.Context) {
	if s.deps.AirQuality == nil {
		abortError(c, http.StatusServiceUnavailable, "not_configured", "air-quality source is not configured")
		return
	}
	cols, err := s.deps.AirQuality.Columns(c.Request.Context())
	if err != nil {
		abortError(c, http.StatusBadGateway, "upstream_error", "failed to read air-quality columns: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"columns": cols})
}

func (s *Server) handleAirQualityAll(c *gin.Context) {
	if s.deps.AirQuality == nil {
		abortError(c, http.StatusServiceUnavailable, "not_configured", "air-quality source is not configured")
		return
	}
	readings, err := s.deps.AirQuality.All(c.Request.Context())
	if err != nil {
		abortError(c, http.StatusBadGateway, "upstream_error", "failed to read air-quality data: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(readings), "readings": readings})
}

func (s *Server) handleAirQualityLatest(c *gin.Context) {
	if s.deps.AirQuality == nil {
		abortError(c, http.StatusServiceUnavailable, "not_configured", "air-quality source is not configured")
		return
	}
	latest, err := s.deps.AirQuality.Latest(c.Request.Context())
	if err != nil {
		abortError(c, http.StatusBadGateway, "upstream_error", "failed to read latest air-quality reading: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, latest)
}

type uploadURLRequest struct {
	DeviceID    string `json:"device_id" binding:"required"`
	Filename    string `json:"filename" binding:"required"`
	ContentType string `json:"content_type"`
}

// handleUploadURL serves POST /api/v1/uploads/url. Each upload gets a fresh
// UUID folded into the object key so repeated filenames never collide.
func (s *Server) handleUploadURL(c *gin.Context) {
	if s.deps.Uploads == nil {
		abortError(c, http.StatusServiceUnavailable, "not_configured", "object store is not configured")
		return
	}

	var req uploadURLRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, http.StatusBadRequest, "invalid_request", "invalid JSON body: "+err.Error())
		return
	}
	if req.ContentType == "" {
		req.ContentType = "application/octet-stream"
	}

	uploadID := uuid.NewString()
	key := s.deps.Uploads.UploadKey(req.DeviceID, uploadID+"-"+req.Filename)

	url, err := s.deps.Uploads.PresignUpload(c.Request.Context(), key, req.ContentType, s.deps.PresignExpiry)
	if err != nil {
		abortError(c, http.StatusBadGateway, "upstream_error", "failed to presign upload: "+err.Error())
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"upload_id":  uploadID,
		"key":        key,
		"url":        url,
		"expires_in": int(s.deps.PresignExpiry.Seconds()),
	})
}

// handleVideoURL serves GET /api/v1/videos/:key/url.
func (s *Server) handleVideoURL(c *gin.Context) {
	if s.deps.Uploads == nil {
		abortError(c, http.StatusServiceUnavailable, "not_configured", "object store is not configured")
		return
	}

	key := strings.TrimSpace(c.Param("key"))
	if key == "" {
		abortError(c, http.StatusBadRequest, "missing_parameter", "video key is required")
		return
	}

	url, err := s.deps.Uploads.PresignPlayback(c.Request.Context(), key, s.deps.PresignExpiry)
	if err != nil {
		abortError(c, http.StatusBadGateway, "upstream_error", "failed to presign playback: "+err.Error())
		return
	}
	c.JSON(http.StatusOK, gin.H{"key": key, "url": url, "expires_in": int(s.deps.PresignExpiry.Seconds())})
}

// handleHexBoundary serves GET /api/v1/hexes/:id/boundary. Optional lat/lon
// parameters seed the fallback polygon when the id cannot be resolved.
func (s *Server) handleHexBoundary(c *gin.Context) {
	hexID := c.Param("id")

	var lat, lon float64
	if c.Query("lat") != "" || c.Query("lon") != "" {
		var ok1, ok2 bool
		lat, ok1 = queryFloat(c, "lat")
		lon, ok2 = queryFloat(c, "lon")
		if !ok1 || !ok2 {
			return
		}
	}

	ring := s.deps.Hexes.Boundary(hexID, lat, lon)
	boundary := make([][2]float64, 0, len(ring))
	for _, p := range ring {
		// orb points are (lon, lat); the dashboard consumes (lat, lon) pairs.
		boundary = append(boundary, [2]float64{p.Y(), p.X()})
	}
	c.JSON(http.StatusOK, gin.H{"hex_id": hexID, "boundary": boundary})
}

// --- parameter helpers ---

func hasViewportParams(c *gin.Context) bool {
	return c.Query("min_lat") != "" || c.Query("max_lat") != "" ||
		c.Query("min_lon") != "" || c.Query("max_lon") != ""
}

func parseViewport(c *gin.Context) (domain.Viewport, bool) {
	minLat, ok1 := queryFloat(c, "min_lat")
	maxLat, ok2 := queryFloat(c, "max_lat")
	minLon, ok3 := queryFloat(c, "min_lon")
	maxLon, ok4 := queryFloat(c, "max_lon")
	if !ok1 || !ok2 || !ok3 || !ok4 {
		return domain.Viewport{}, false
	}

	v := domain.Viewport{MinLat: minLat, MaxLat: maxLat, MinLon: minLon, MaxLon: maxLon}
	if !v.Valid() {
		abortError(c, http.StatusBadRequest, "invalid_viewport",
			"viewport must satisfy min_lat < max_lat and min_lon < max_lon within coordinate ranges")
		return domain.Viewport{}, false
	}
	return v, true
}

func queryFloat(c *gin.Context, name string) (float64, bool) {
	raw := c.Query(name)
	if raw == "" {
		abortError(c, http.StatusBadRequest, "missing_parameter", name+" parameter is required")
		return 0, false
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		abortError(c, http.StatusBadRequest, "invalid_parameter", "invalid "+name+" value")
		return 0, false
	}
	return v, true
}
