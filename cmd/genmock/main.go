// Command genmock generates deterministic mock data fixtures for the test
// suites: raw telemetry payloads, the enriched sensor events the pipeline
// produces from them, and normalized congestion/damage records. It runs the
// actual domain package with a frozen clock so fixtures match real pipeline
// behavior exactly.
//
// Usage:
//
//	go run ./cmd/genmock \
//	  -telemetry-out data/mock/telemetry_raw.json \
//	  -events-out data/mock/events_enriched.json \
//	  -congestion-out data/mock/congestion_records.json \
//	  -damage-out data/mock/damage_records.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/tiles"
)

// Fixtures cover a small area of Chandigarh so tile and viewport assertions
// stay human-checkable.
const (
	baseLat = 30.7200
	baseLon = 76.7600
	spanDeg = 0.06

	seed       = 240314
	eventCount = 120
	recordRows = 40
)

var baseDate = time.Date(2026, time.March, 14, 8, 0, 0, 0, time.UTC)

func main() {
	if err := run(); err != nil {
		log.Fatal(err)
	}
}

func run() error {
	telemetryOut := flag.String("telemetry-out", "", "output path for raw telemetry JSON fixture")
	eventsOut := flag.String("events-out", "", "output path for enriched events JSON fixture")
	congestionOut := flag.String("congestion-out", "", "output path for congestion records fixture")
	damageOut := flag.String("damage-out", "", "output path for damage records fixture")
	flag.Parse()

	if *telemetryOut == "" || *eventsOut == "" {
		flag.Usage()
		return fmt.Errorf("missing required flags: -telemetry-out, -events-out")
	}

	// Fixed clock for reproducible ProcessedAt timestamps and event IDs.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	rng := rand.New(rand.NewSource(seed))

	rawPayloads, events, err := generateTelemetry(rng)
	if err != nil {
		return err
	}

	if err := writeJSON(*telemetryOut, rawPayloads); err != nil {
		return fmt.Errorf("writing telemetry fixture: %w", err)
	}
	log.Printf("wrote telemetry fixture: %s (%d payloads)", *telemetryOut, len(rawPayloads))

	if err := writeJSON(*eventsOut, events); err != nil {
		return fmt.Errorf("writing events fixture: %w", err)
	}
	log.Printf("wrote events fixture: %s (%d events)", *eventsOut, len(events))

	if *congestionOut != "" {
		recs := generateCongestionRecords(rng)
		if err := writeJSON(*congestionOut, recs); err != nil {
			return fmt.Errorf("writing congestion fixture: %w", err)
		}
		log.Printf("wrote congestion fixture: %s (%d records)", *congestionOut, len(recs))
	}
	if *damageOut != "" {
		recs := generateDamageRecords(rng)
		if err := writeJSON(*damageOut, recs); err != nil {
			return fmt.Errorf("writing damage fixture: %w", err)
		}
		log.Printf("wrote damage fixture: %s (%d records)", *damageOut, len(recs))
	}

	printStats(events)
	return nil
}

// generateTelemetry builds raw payloads and runs the real transformation on
// each, so the two fixtures stay in lockstep.
func generateTelemetry(rng *rand.Rand) ([]map[string]any, []domain.SensorEvent, error) {
	eventTypes := []string{domain.EventPothole, domain.EventCrack, domain.EventCongestion}

	payloads := make([]map[string]any, 0, eventCount)
	events := make([]domain.SensorEvent, 0, eventCount)

	for i := 0; i < eventCount; i++ {
		eventType := eventTypes[rng.Intn(len(eventTypes))]
		lat := baseLat + rng.Float64()*spanDeg
		lon := baseLon + rng.Float64()*spanDeg
		detected := baseDate.Add(time.Duration(i) * 30 * time.Second)

		payload := map[string]any{
			"event_type":  eventType,
			"device_id":   fmt.Sprintf("unit-%d", 1+rng.Intn(8)),
			"lat":         lat,
			"lon":         lon,
			"severity":    float64(10 + rng.Intn(90)),
			"confidence":  0.5 + rng.Float64()*0.5,
			"detected_at": detected.Format(time.RFC3339),
		}
		switch eventType {
		case domain.EventPothole:
			payload["model_outputs"] = map[string]any{"total_pothole_size": 0.1 + rng.Float64()}
		case domain.EventCongestion:
			payload["model_outputs"] = map[string]any{
				"vehicle_count":         float64(5 + rng.Intn(60)),
				"traffic_density_score": rng.Float64(),
			}
		}

		value, err := json.Marshal(payload)
		if err != nil {
			return nil, nil, fmt.Errorf("marshal payload: %w", err)
		}

		parsed, err := domain.ParseRawTelemetry(domain.RawEvent{Value: value, Timestamp: detected})
		if err != nil {
			return nil, nil, fmt.Errorf("parse telemetry: %w", err)
		}
		events = append(events, domain.EnrichSensorEvent(parsed, tiles.CellIDForPoint))
		payloads = append(payloads, payload)
	}

	return payloads, events, nil
}

func generateCongestionRecords(rng *rand.Rand) []domain.CongestionRecord {
	levels := []string{domain.CongestionLow, domain.CongestionMedium, domain.CongestionHigh}
	recs := make([]domain.CongestionRecord, 0, recordRows)
	for i := 0; i < recordRows; i++ {
		lat := baseLat + rng.Float64()*spanDeg
		lon := baseLon + rng.Float64()*spanDeg
		raw := map[string]any{
			"record_id":        fmt.Sprintf("cong-%03d", i),
			"city":             "chandigarh",
			"tile_id":          tiles.CellIDForPoint(lat, lon),
			"lat":              lat,
			"lon":              lon,
			"velocity_avg":     float64(5 + rng.Intn(55)),
			"vehicle_count":    float64(rng.Intn(80)),
			"congestion_level": levels[rng.Intn(len(levels))],
			"sample_count":     1 + rng.Intn(20),
			"verified":         rng.Intn(2) == 0,
			"captured_at":      baseDate.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
		}
		recs = append(recs, domain.NormalizeCongestion(raw))
	}
	return recs
}

func generateDamageRecords(rng *rand.Rand) []domain.DamageRecord {
	levels := []string{domain.DamageGood, domain.DamageModerate, domain.DamageSevere}
	recs := make([]domain.DamageRecord, 0, recordRows)
	for i := 0; i < recordRows; i++ {
		lat := baseLat + rng.Float64()*spanDeg
		lon := baseLon + rng.Float64()*spanDeg
		raw := map[string]any{
			"record_id":     fmt.Sprintf("dmg-%03d", i),
			"city":          "chandigarh",
			"lat":           lat,
			"lon":           lon,
			"damage_level":  levels[rng.Intn(len(levels))],
			"ride_comfort":  float64(rng.Intn(101)),
			"pothole_count": rng.Intn(6),
			"crack_count":   rng.Intn(10),
			"sample_count":  1 + rng.Intn(20),
			"verified":      rng.Intn(2) == 0,
			"captured_at":   baseDate.Add(time.Duration(i) * time.Minute).Format(time.RFC3339),
		}
		recs = append(recs, domain.NormalizeDamage(raw))
	}
	return recs
}

func writeJSON(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')
	return os.WriteFile(path, data, 0o600)
}

func printStats(events []domain.SensorEvent) {
	typeCounts := map[string]int{}
	levelCounts := map[string]int{}
	tileIDs := map[string]bool{}
	var maxSeverity float64

	for i := range events {
		e := &events[i]
		typeCounts[e.EventType]++
		levelCounts[e.Level]++
		if e.TileID != "" {
			tileIDs[e.TileID] = true
		}
		if e.Severity > maxSeverity {
			maxSeverity = e.Severity
		}
	}

	fmt.Println("\n=== Stats for updating test assertions ===")
	fmt.Printf("Total: %d\n", len(events))
	fmt.Printf("By type: pothole=%d, crack=%d, congestion=%d\n",
		typeCounts[domain.EventPothole], typeCounts[domain.EventCrack], typeCounts[domain.EventCongestion])
	fmt.Printf("By level: %v\n", levelCounts)
	fmt.Printf("Distinct tiles: %d\n", len(tileIDs))
	fmt.Printf("Max severity: %g\n", maxSeverity)

	for i := range events {
		if events[i].EventType != domain.EventPothole {
			continue
		}
		e := &events[i]
		fmt.Printf("\nFirst pothole event:\n")
		fmt.Printf("  ID: %s\n", e.ID)
		fmt.Printf("  Lat: %g, Lon: %g\n", e.Geo.Lat, e.Geo.Lon)
		fmt.Printf("  Tile: %s\n", e.TileID)
		fmt.Printf("  Severity: %g (%s)\n", e.Severity, e.Level)
		fmt.Printf("  DetectedAt: %s\n", e.DetectedAt.Format(time.RFC3339))
		break
	}
}
