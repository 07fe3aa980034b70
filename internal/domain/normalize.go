package domain

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// NormalizeCongestion converts a loosely-typed congestion payload into a
// fully-populated CongestionRecord. Total: never panics, never errors.
func NormalizeCongestion(raw map[string]any) CongestionRecord {
	return CongestionRecord{
		RecordID:        stringAt(raw, "record_id"),
		City:            stringAt(raw, "city"),
		TileID:          stringAt(raw, "tile_id"),
		Location:        pointAt(raw),
		VelocityAvg:     floatAt(raw, "velocity_avg", 0),
		VehicleCount:    floatAt(raw, "vehicle_count", 0),
		CongestionLevel: levelAt(raw, "congestion_level", CongestionLow, CongestionMedium, CongestionHigh),
		Composition:     compositionAt(raw),
		SampleCount:     intAt(raw, "sample_count"),
		Verified:        boolAt(raw, "verified"),
		CapturedAt:      timeAt(raw, "captured_at"),
	}
}

// NormalizeDamage converts a loosely-typed road-damage payload into a
// fully-populated DamageRecord. Total: never panics, never errors.
func NormalizeDamage(raw map[string]any) DamageRecord {
	return DamageRecord{
		RecordID:     stringAt(raw, "record_id"),
		City:         stringAt(raw, "city"),
		HexID:        stringAt(raw, "hex_id"),
		Location:     pointAt(raw),
		DamageLevel:  levelAt(raw, "damage_level", DamageGood, DamageModerate, DamageSevere),
		RideComfort:  floatAt(raw, "ride_comfort", DefaultRideComfort),
		PotholeCount: intAt(raw, "pothole_count"),
		CrackCount:   intAt(raw, "crack_count"),
		Readings:     readingsAt(raw),
		SampleCount:  intAt(raw, "sample_count"),
		Verified:     boolAt(raw, "verified"),
		CapturedAt:   timeAt(raw, "captured_at"),
	}
}

// coerceFloat extracts a finite float64 from the value shapes the wire
// formats are known to produce: JSON numbers, json.Number, numeric strings,
// and integer types from untagged decoding.
func coerceFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	default:
		return 0, false
	}
}

func floatAt(m map[string]any, key string, def float64) float64 {
	if f, ok := coerceFloat(m[key]); ok {
		return f
	}
	return def
}

func intAt(m map[string]any, key string) int {
	if f, ok := coerceFloat(m[key]); ok {
		return int(f)
	}
	return 0
}

func stringAt(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

// boolAt accepts a native boolean or the string "true"; anything else is false.
func boolAt(m map[string]any, key string) bool {
	switch b := m[key].(type) {
	case bool:
		return b
	case string:
		return b == "true"
	default:
		return false
	}
}

// levelAt coerces a classification field onto its closed label set,
// falling back to the set's lowest label.
func levelAt(m map[string]any, key string, labels ...string) string {
	v := strings.ToLower(strings.TrimSpace(stringAt(m, key)))
	for _, l := range labels {
		if v == l {
			return l
		}
	}
	return labels[0]
}

// timeAt parses RFC 3339 first, then the legacy "2006-01-02 15:04:05" form
// some collectors still emit. Unparseable values yield the zero time.
func timeAt(m map[string]any, key string) time.Time {
	s := stringAt(m, key)
	if s == "" {
		return time.Time{}
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.UTC()
	}
	if t, err := time.Parse("2006-01-02 15:04:05", s); err == nil {
		return t.UTC()
	}
	return time.Time{}
}

func mapAt(m map[string]any, key string) map[string]any {
	if nested, ok := m[key].(map[string]any); ok {
		return nested
	}
	return nil
}

// pointAt reads a nested "location" object, falling back to top-level
// "lat"/"lon" keys used by older payloads. Out-of-range coordinates collapse
// to the zero point rather than leaking past normalization.
func pointAt(m map[string]any) GeoPoint {
	src := m
	if nested := mapAt(m, "location"); nested != nil {
		src = nested
	}
	p := GeoPoint{
		Lat: floatAt(src, "lat", 0),
		Lon: floatAt(src, "lon", 0),
	}
	if !p.Valid() {
		return GeoPoint{}
	}
	return p
}

// compositionAt returns a fully-populated composition even when the nested
// object is absent, so callers never null-check it.
func compositionAt(m map[string]any) VehicleComposition {
	nested := mapAt(m, "vehicle_composition")
	if nested == nil {
		return VehicleComposition{}
	}
	return VehicleComposition{
		Cars:        floatAt(nested, "cars", 0),
		Buses:       floatAt(nested, "buses", 0),
		Trucks:      floatAt(nested, "trucks", 0),
		TwoWheelers: floatAt(nested, "two_wheelers", 0),
		Autos:       floatAt(nested, "autos", 0),
	}
}

func readingsAt(m map[string]any) SensorReadings {
	nested := mapAt(m, "sensor_readings")
	if nested == nil {
		return SensorReadings{}
	}
	return SensorReadings{
		GyroAvg: floatAt(nested, "gyro_avg", 0),
		GyroMax: floatAt(nested, "gyro_max", 0),
		AzSpike: floatAt(nested, "az_spike", 0),
	}
}
