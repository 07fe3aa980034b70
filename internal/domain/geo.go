package domain

import (
	"math"

	"github.com/paulmach/orb"
)

// GeoPoint is a WGS-84 latitude/longitude coordinate pair.
type GeoPoint struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Valid reports whether the point lies inside the WGS-84 coordinate range.
// NaN and infinite components are rejected.
func (p GeoPoint) Valid() bool {
	if math.IsNaN(p.Lat) || math.IsNaN(p.Lon) || math.IsInf(p.Lat, 0) || math.IsInf(p.Lon, 0) {
		return false
	}
	if p.Lat < -90 || p.Lat > 90 {
		return false
	}
	if p.Lon < -180 || p.Lon > 180 {
		return false
	}
	return true
}

// Point converts to an orb geometry point (lon/lat order).
func (p GeoPoint) Point() orb.Point {
	return orb.Point{p.Lon, p.Lat}
}

// Viewport is a geographic bounding box produced by the map control.
// Recreated on every pan/zoom; never persisted.
type Viewport struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// Valid reports whether the viewport corners are ordered and in range.
func (v Viewport) Valid() bool {
	if !(GeoPoint{Lat: v.MinLat, Lon: v.MinLon}).Valid() {
		return false
	}
	if !(GeoPoint{Lat: v.MaxLat, Lon: v.MaxLon}).Valid() {
		return false
	}
	return v.MinLat <= v.MaxLat && v.MinLon <= v.MaxLon
}

// Contains reports whether the point lies inside the viewport (inclusive).
func (v Viewport) Contains(lat, lon float64) bool {
	return lat >= v.MinLat && lat <= v.MaxLat && lon >= v.MinLon && lon <= v.MaxLon
}

// Bound converts to an orb bounding box.
func (v Viewport) Bound() orb.Bound {
	return orb.Bound{
		Min: orb.Point{v.MinLon, v.MinLat},
		Max: orb.Point{v.MaxLon, v.MaxLat},
	}
}

// CenterLat returns the latitude midpoint, used to pick the longitude cell
// size for a whole viewport.
func (v Viewport) CenterLat() float64 {
	return (v.MinLat + v.MaxLat) / 2
}
