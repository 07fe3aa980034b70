// Package hexgrid resolves H3 hex cell identifiers to renderable boundary
// polygons. Resolution never fails from the caller's point of view: when the
// id cannot be resolved, an approximate regular hexagon around the record's
// own location is served instead, so the map never shows a hole.
package hexgrid

import (
	"log/slog"
	"math"

	"github.com/paulmach/orb"
	"github.com/uber/h3-go/v4"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/observability"
)

const (
	// DefaultRetryFallbackAfter is how many times a cached fallback polygon
	// is served before real resolution is attempted again.
	DefaultRetryFallbackAfter = 50

	// fallbackRadiusDeg approximates the circumradius of an H3 resolution-9
	// cell in degrees of latitude.
	fallbackRadiusDeg = 0.0015

	minCosLat = 0.01
)

// Resolver turns hex ids into closed boundary rings, caching results.
type Resolver struct {
	cache              BoundaryCache
	retryFallbackAfter int
	logger             *slog.Logger
	metrics            *observability.Metrics

	// resolve is swapped in tests to simulate resolution failures.
	resolve func(hexID string) (orb.Ring, bool)
}

// NewResolver creates a Resolver around the given cache. retryFallbackAfter
// of zero or less selects the default.
func NewResolver(cache BoundaryCache, retryFallbackAfter int, logger *slog.Logger, metrics *observability.Metrics) *Resolver {
	if retryFallbackAfter <= 0 {
		retryFallbackAfter = DefaultRetryFallbackAfter
	}
	return &Resolver{
		cache:              cache,
		retryFallbackAfter: retryFallbackAfter,
		logger:             logger,
		metrics:            metrics,
		resolve:            resolveCell,
	}
}

// Boundary returns the closed boundary ring for the hex id. The fallback
// coordinate is the record's own location, used to center the approximate
// polygon when the id cannot be resolved. Only an empty hex id yields an
// empty ring.
func (r *Resolver) Boundary(hexID string, fallbackLat, fallbackLon float64) orb.Ring {
	if hexID == "" {
		return orb.Ring{}
	}

	if e, ok := r.cache.Get(hexID); ok {
		r.metrics.HexCache.WithLabelValues("hit").Inc()
		if !e.Fallback {
			return e.Ring
		}

		e.Hits++
		if e.Hits >= r.retryFallbackAfter {
			if ring, ok := r.resolve(hexID); ok {
				r.logger.Info("hex boundary recovered", "hex_id", hexID)
				r.cache.Put(hexID, Entry{Ring: ring})
				return ring
			}
			e.Hits = 0
		}
		r.cache.Put(hexID, e)
		r.metrics.HexFallbacks.Inc()
		return e.Ring
	}

	r.metrics.HexCache.WithLabelValues("miss").Inc()
	if ring, ok := r.resolve(hexID); ok {
		r.cache.Put(hexID, Entry{Ring: ring})
		return ring
	}

	r.logger.Warn("hex boundary resolution failed, serving approximate polygon",
		"hex_id", hexID, "lat", fallbackLat, "lon", fallbackLon)
	r.metrics.HexFallbacks.Inc()
	ring := fallbackHexagon(fallbackLat, fallbackLon)
	r.cache.Put(hexID, Entry{Ring: ring, Fallback: true})
	return ring
}

// resolveCell resolves a hex id through the H3 library into a closed ring.
func resolveCell(hexID string) (orb.Ring, bool) {
	idx := h3.IndexFromString(hexID)
	if idx == 0 {
		return nil, false
	}
	cell := h3.Cell(idx)
	if !cell.IsValid() {
		return nil, false
	}
	boundary, err := cell.Boundary()
	if err != nil || len(boundary) == 0 {
		return nil, false
	}

	ring := make(orb.Ring, 0, len(boundary)+1)
	for _, v := range boundary {
		ring = append(ring, orb.Point{v.Lng, v.Lat})
	}
	ring = append(ring, ring[0])
	return ring, true
}

// fallbackHexagon builds a regular hexagon around the coordinate, sized to
// look like an H3 resolution-9 cell. Vertices step 60 degrees starting at
// -30 so the hexagon is flat-topped like real H3 cells; the longitude
// component stretches by 1/cos(lat) to stay visually regular on the map.
func fallbackHexagon(lat, lon float64) orb.Ring {
	c := math.Cos(lat * math.Pi / 180)
	if c < minCosLat {
		c = minCosLat
	}

	ring := make(orb.Ring, 0, 7)
	for i := 0; i < 6; i++ {
		angle := (float64(i)*60 - 30) * math.Pi / 180
		ring = append(ring, orb.Point{
			lon + fallbackRadiusDeg*math.Cos(angle)/c,
			lat + fallbackRadiusDeg*math.Sin(angle),
		})
	}
	ring = append(ring, ring[0])
	return ring
}
