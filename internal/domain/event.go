package domain

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"
)

// Sensor event types recognized by the ingest pipeline.
const (
	EventPothole    = "pothole"
	EventCrack      = "crack"
	EventCongestion = "congestion"
)

// RawEvent is an unprocessed message from the telemetry source topic.
type RawEvent struct {
	Key       []byte
	Value     []byte
	Headers   map[string]string
	Topic     string
	Partition int
	Offset    int64
	Timestamp time.Time
	Commit    func(ctx context.Context) error
}

// SensorEvent is the domain-rich representation of one detection produced by
// a roadside or dashcam sensor unit.
type SensorEvent struct {
	ID           string         `json:"id"`
	EventType    string         `json:"event_type"`
	DeviceID     string         `json:"device_id,omitempty"`
	Geo          GeoPoint       `json:"geo"`
	TileID       string         `json:"tile_id,omitempty"`
	Severity     float64        `json:"severity"`   // 0–100
	Confidence   float64        `json:"confidence"` // 0–1
	Level        string         `json:"level,omitempty"`
	ModelOutputs map[string]any `json:"model_outputs,omitempty"`
	DetectedAt   time.Time      `json:"detected_at"`
	ProcessedAt  time.Time      `json:"processed_at"`

	RawPayload []byte `json:"-"`
}

// ParseRawTelemetry deserializes a raw telemetry message into a SensorEvent.
// Only malformed JSON is an error (the message is a poison pill and the
// caller skips it); individual fields are coerced with the same totality
// rules as record normalization.
func ParseRawTelemetry(raw RawEvent) (SensorEvent, error) {
	var m map[string]any
	if err := json.Unmarshal(raw.Value, &m); err != nil {
		return SensorEvent{}, fmt.Errorf("parse raw telemetry: %w", err)
	}

	eventType := normalizeEventType(stringAt(m, "event_type"))
	geo := pointAt(m)
	detectedAt := timeAt(m, "detected_at")
	if detectedAt.IsZero() {
		detectedAt = raw.Timestamp
	}

	return SensorEvent{
		ID:           generateEventID(eventType, stringAt(m, "device_id"), geo, detectedAt),
		EventType:    eventType,
		DeviceID:     stringAt(m, "device_id"),
		Geo:          geo,
		Severity:     floatAt(m, "severity", 0),
		Confidence:   floatAt(m, "confidence", 0),
		ModelOutputs: mapAt(m, "model_outputs"),
		DetectedAt:   detectedAt,
		RawPayload:   raw.Value,
	}, nil
}

// normalizeEventType validates the detection type added by the collector.
// Accepts exact matches only; anything else becomes the empty type.
func normalizeEventType(value string) string {
	switch value {
	case EventPothole, EventCrack, EventCongestion:
		return value
	default:
		return ""
	}
}

// EnrichSensorEvent clamps measurement ranges, derives the display level from
// the severity score, and assigns the grid tile the event falls in.
func EnrichSensorEvent(event SensorEvent, cellID CellFunc) SensorEvent {
	event.Severity = clamp(event.Severity, 0, 100)
	event.Confidence = clamp(event.Confidence, 0, 1)
	if event.EventType == EventCongestion {
		event.Level = CongestionLevelForScore(event.Severity)
	} else {
		event.Level = DamageLevelForScore(event.Severity)
	}
	// The zero point is where normalization parks missing or out-of-range
	// coordinates, so it never gets a tile.
	if event.Geo != (GeoPoint{}) && event.Geo.Valid() && cellID != nil {
		event.TileID = cellID(event.Geo.Lat, event.Geo.Lon)
	}
	event.ProcessedAt = clock.Now()
	return event
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// generateEventID produces a deterministic ID from the event's key fields so
// that replayed telemetry maps to the same event downstream.
func generateEventID(eventType, deviceID string, geo GeoPoint, detectedAt time.Time) string {
	input := fmt.Sprintf("%s|%s|%.5f|%.5f|%d", eventType, deviceID, geo.Lat, geo.Lon, detectedAt.Unix())
	hash := sha256.Sum256([]byte(input))
	short := hex.EncodeToString(hash[:8])
	if eventType == "" {
		return short
	}
	return eventType + "-" + short
}

// AggregateTileEvents reduces the retained events of one tile into its
// display aggregate. The tile center is left zero; the caller knows the
// tiling scheme and fills it in.
func AggregateTileEvents(tileID string, events []SensorEvent) TileAggregate {
	agg := TileAggregate{TileID: tileID, TotalEvents: len(events)}
	if len(events) == 0 {
		return agg
	}

	var severitySum, confidenceSum float64
	var congestionScoreSum, vehicleSum, potholeSizeSum float64
	var congestionSamples, potholeSamples int

	for _, e := range events {
		severitySum += e.Severity
		confidenceSum += e.Confidence
		if e.Severity > agg.MaxSeverity {
			agg.MaxSeverity = e.Severity
		}
		if e.DetectedAt.After(agg.LastEventAt) {
			agg.LastEventAt = e.DetectedAt
		}

		switch e.EventType {
		case EventPothole:
			agg.PotholeCount++
			potholeSizeSum += floatAt(e.ModelOutputs, "total_pothole_size", 0)
			potholeSamples++
		case EventCrack:
			agg.CrackCount++
		case EventCongestion:
			agg.CongestionCount++
			congestionScoreSum += floatAt(e.ModelOutputs, "traffic_density_score", 0)
			vehicles := floatAt(e.ModelOutputs, "vehicle_count", 0)
			vehicleSum += vehicles
			if int(vehicles) > agg.MaxVehicleCount {
				agg.MaxVehicleCount = int(vehicles)
			}
			congestionSamples++
		}
	}

	n := float64(len(events))
	agg.AvgSeverity = severitySum / n
	agg.AvgConfidence = confidenceSum / n
	if congestionSamples > 0 {
		agg.AvgCongestionScore = congestionScoreSum / float64(congestionSamples)
		agg.AvgVehicleCount = vehicleSum / float64(congestionSamples)
	}
	if potholeSamples > 0 {
		agg.AvgPotholeSize = potholeSizeSum / float64(potholeSamples)
	}
	return agg
}
