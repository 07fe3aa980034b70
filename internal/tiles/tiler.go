// Package tiles maps WGS-84 coordinates onto a fixed grid of roughly
// one-kilometre cells. Cell identifiers have the form T_{latIdx}_{lonIdx}.
//
// Latitude rows are a constant CellSizeDeg tall. Longitude columns widen
// toward the poles by 1/cos(lat) so that every cell stays close to one
// kilometre across. Both the forward and inverse mappings compute the
// longitude cell size at the row's center latitude, so a point always falls
// inside the bounds of the cell it maps to.
//
// The package is pure and stateless.
package tiles

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
)

const (
	// CellSizeDeg is the latitude height of one grid cell, about one
	// kilometre at the equator.
	CellSizeDeg = 0.009

	// minCosLat floors the latitude correction so cells near the poles keep
	// a finite width.
	minCosLat = 0.01

	earthRadiusKm = 6371.0
)

// Bounds is the geographic extent of one grid cell.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MaxLat float64 `json:"max_lat"`
	MinLon float64 `json:"min_lon"`
	MaxLon float64 `json:"max_lon"`
}

// lonCellSize returns the longitude width of cells at the given latitude.
func lonCellSize(lat float64) float64 {
	c := math.Cos(lat * math.Pi / 180)
	if c < minCosLat {
		c = minCosLat
	}
	return CellSizeDeg / c
}

// rowCenterLat returns the center latitude of the given row index.
func rowCenterLat(latIdx int) float64 {
	return (float64(latIdx) + 0.5) * CellSizeDeg
}

// CellIDForPoint maps a coordinate to its cell identifier.
func CellIDForPoint(lat, lon float64) string {
	latIdx := int(math.Floor(lat / CellSizeDeg))
	lonSize := lonCellSize(rowCenterLat(latIdx))
	lonIdx := int(math.Floor(lon / lonSize))
	return fmt.Sprintf("T_%d_%d", latIdx, lonIdx)
}

// ParseCellID splits a T_{latIdx}_{lonIdx} identifier into its indices.
func ParseCellID(id string) (latIdx, lonIdx int, err error) {
	parts := strings.Split(id, "_")
	if len(parts) != 3 || parts[0] != "T" {
		return 0, 0, fmt.Errorf("parse cell id %q: want T_{lat}_{lon}", id)
	}
	latIdx, err = strconv.Atoi(parts[1])
	if err != nil {
		return 0, 0, fmt.Errorf("parse cell id %q: %w", id, err)
	}
	lonIdx, err = strconv.Atoi(parts[2])
	if err != nil {
		return 0, 0, fmt.Errorf("parse cell id %q: %w", id, err)
	}
	return latIdx, lonIdx, nil
}

// CellBounds returns the geographic extent of the identified cell.
func CellBounds(id string) (Bounds, error) {
	latIdx, lonIdx, err := ParseCellID(id)
	if err != nil {
		return Bounds{}, err
	}
	lonSize := lonCellSize(rowCenterLat(latIdx))
	return Bounds{
		MinLat: float64(latIdx) * CellSizeDeg,
		MaxLat: float64(latIdx+1) * CellSizeDeg,
		MinLon: float64(lonIdx) * lonSize,
		MaxLon: float64(lonIdx+1) * lonSize,
	}, nil
}

// CellCenter returns the center coordinate of the identified cell.
func CellCenter(id string) (lat, lon float64, err error) {
	b, err := CellBounds(id)
	if err != nil {
		return 0, 0, err
	}
	return (b.MinLat + b.MaxLat) / 2, (b.MinLon + b.MaxLon) / 2, nil
}

// CellsOverlapping enumerates every cell id intersecting the viewport,
// inclusive on all edges. Longitude indices are computed per latitude row,
// with the same row-center cell size the forward mapping uses, so every point
// inside the viewport maps to an enumerated cell.
func CellsOverlapping(v domain.Viewport) []string {
	if !v.Valid() {
		return nil
	}

	latStart := int(math.Floor(v.MinLat / CellSizeDeg))
	latEnd := int(math.Ceil(v.MaxLat / CellSizeDeg))

	var ids []string
	for i := latStart; i <= latEnd; i++ {
		lonSize := lonCellSize(rowCenterLat(i))
		lonStart := int(math.Floor(v.MinLon / lonSize))
		lonEnd := int(math.Ceil(v.MaxLon / lonSize))
		for j := lonStart; j <= lonEnd; j++ {
			ids = append(ids, fmt.Sprintf("T_%d_%d", i, j))
		}
	}
	return ids
}

// NearbyCells returns the cells whose centers lie within radiusKm of the
// point, always including the cell containing the point itself.
func NearbyCells(lat, lon, radiusKm float64) []string {
	own := CellIDForPoint(lat, lon)
	if radiusKm <= 0 {
		return []string{own}
	}

	latIdx, lonIdx, err := ParseCellID(own)
	if err != nil {
		return []string{own}
	}

	// One row is ~1 km tall, so the search window is radiusKm rows/columns
	// on each side.
	steps := int(math.Ceil(radiusKm))
	ids := []string{own}
	for di := -steps; di <= steps; di++ {
		for dj := -steps; dj <= steps; dj++ {
			if di == 0 && dj == 0 {
				continue
			}
			id := fmt.Sprintf("T_%d_%d", latIdx+di, lonIdx+dj)
			clat, clon, err := CellCenter(id)
			if err != nil {
				continue
			}
			if haversineKm(lat, lon, clat, clon) <= radiusKm {
				ids = append(ids, id)
			}
		}
	}
	return ids
}

// CellDistanceKm returns the great-circle distance between two cell centers.
func CellDistanceKm(a, b string) (float64, error) {
	alat, alon, err := CellCenter(a)
	if err != nil {
		return 0, err
	}
	blat, blon, err := CellCenter(b)
	if err != nil {
		return 0, err
	}
	return haversineKm(alat, alon, blat, blon), nil
}

func haversineKm(lat1, lon1, lat2, lon2 float64) float64 {
	const degToRad = math.Pi / 180
	dLat := (lat2 - lat1) * degToRad
	dLon := (lon2 - lon1) * degToRad
	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1*degToRad)*math.Cos(lat2*degToRad)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * earthRadiusKm * math.Asin(math.Sqrt(a))
}
