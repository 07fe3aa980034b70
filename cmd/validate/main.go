// Command validate performs integrity checks across the mock data fixtures
// produced by genmock: raw telemetry JSON, enriched event JSON, and the
// normalized record fixtures. It verifies transformation correctness against
// the real domain package and checks field values against the API's closed
// label sets.
//
// Usage:
//
//	go run ./cmd/validate \
//	  -telemetry-json data/mock/telemetry_raw.json \
//	  -events-json data/mock/events_enriched.json \
//	  -congestion-json data/mock/congestion_records.json \
//	  -damage-json data/mock/damage_records.json
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/tiles"
)

// phase tracks pass/fail for a validation phase.
type phase struct {
	name   string
	errors []string
}

func (p *phase) errorf(format string, args ...any) {
	p.errors = append(p.errors, fmt.Sprintf(format, args...))
}

func (p *phase) passed() bool { return len(p.errors) == 0 }

func main() {
	telemetryJSON := flag.String("telemetry-json", "", "path to raw telemetry JSON fixture")
	eventsJSON := flag.String("events-json", "", "path to enriched events JSON fixture")
	congestionJSON := flag.String("congestion-json", "", "path to congestion records fixture (optional)")
	damageJSON := flag.String("damage-json", "", "path to damage records fixture (optional)")
	flag.Parse()

	if *telemetryJSON == "" || *eventsJSON == "" {
		flag.Usage()
		os.Exit(1)
	}

	if code := run(*telemetryJSON, *eventsJSON, *congestionJSON, *damageJSON); code != 0 {
		os.Exit(code)
	}
}

func run(telemetryPath, eventsPath, congestionPath, damagePath string) int {
	// Fixed clock matching genmock for ID reproducibility.
	domain.SetClock(clockwork.NewFakeClockAt(
		time.Date(2026, time.March, 14, 12, 0, 0, 0, time.UTC),
	))
	defer domain.SetClock(nil)

	fmt.Println("=== Road Data Fixture Validation ===")
	fmt.Println()

	payloads, err := loadJSON[map[string]any](telemetryPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load telemetry JSON: %v\n", err)
		return 1
	}
	events, err := loadJSON[domain.SensorEvent](eventsPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: load events JSON: %v\n", err)
		return 1
	}

	phases := []*phase{
		validateTransformParity(payloads, events),
		validateEventSchema(events),
	}

	if congestionPath != "" {
		recs, err := loadJSON[domain.CongestionRecord](congestionPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load congestion JSON: %v\n", err)
			return 1
		}
		phases = append(phases, validateCongestionRecords(recs))
	}
	if damagePath != "" {
		recs, err := loadJSON[domain.DamageRecord](damagePath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "FATAL: load damage JSON: %v\n", err)
			return 1
		}
		phases = append(phases, validateDamageRecords(recs))
	}

	fmt.Println()
	allPassed := true
	for _, p := range phases {
		status := "\033[32mPASS\033[0m"
		if !p.passed() {
			status = fmt.Sprintf("\033[31mFAIL (%d errors)\033[0m", len(p.errors))
			allPassed = false
		}
		fmt.Printf("  %-42s %s\n", p.name, status)
	}

	fmt.Println()
	fmt.Printf("Records: %d telemetry payloads, %d enriched events\n", len(payloads), len(events))

	for _, p := range phases {
		if p.passed() {
			continue
		}
		fmt.Printf("\n--- %s ---\n", p.name)
		for i, e := range p.errors {
			fmt.Printf("  [%d] %s\n", i+1, e)
		}
	}

	if allPassed {
		fmt.Println("\nAll validations passed.")
		return 0
	}
	fmt.Println("\nValidation FAILED.")
	return 1
}

func loadJSON[T any](path string) ([]T, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var items []T
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// ── Phase 1: Transform Parity ──
// Re-runs the real transformation on each raw payload and compares the result
// with the enriched fixture.

func validateTransformParity(payloads []map[string]any, events []domain.SensorEvent) *phase {
	p := &phase{name: "Phase 1: Transform Parity (raw vs enriched)"}

	if len(payloads) != len(events) {
		p.errorf("count mismatch: %d payloads, %d events", len(payloads), len(events))
		return p
	}

	eventsByID := map[string]*domain.SensorEvent{}
	for i := range events {
		if events[i].ID == "" {
			p.errorf("event %d: missing ID", i)
			continue
		}
		eventsByID[events[i].ID] = &events[i]
	}

	for i, payload := range payloads {
		value, err := json.Marshal(payload)
		if err != nil {
			p.errorf("payload %d: marshal: %v", i, err)
			continue
		}

		detected := time.Time{}
		if s, ok := payload["detected_at"].(string); ok {
			detected, _ = time.Parse(time.RFC3339, s)
		}

		parsed, err := domain.ParseRawTelemetry(domain.RawEvent{Value: value, Timestamp: detected})
		if err != nil {
			p.errorf("payload %d: parse: %v", i, err)
			continue
		}
		expected := domain.EnrichSensorEvent(parsed, tiles.CellIDForPoint)

		actual, ok := eventsByID[expected.ID]
		if !ok {
			p.errorf("payload %d: ID %q not found in events fixture", i, expected.ID)
			continue
		}

		compareEvents(p, expected, actual)
	}
	return p
}

func compareEvents(p *phase, expected domain.SensorEvent, actual *domain.SensorEvent) {
	id := expected.ID
	if actual.EventType != expected.EventType {
		p.errorf("ID %s: event_type: expected %q, got %q", id, expected.EventType, actual.EventType)
	}
	if !floatEq(actual.Severity, expected.Severity) {
		p.errorf("ID %s: severity: expected %g, got %g", id, expected.Severity, actual.Severity)
	}
	if !floatEq(actual.Confidence, expected.Confidence) {
		p.errorf("ID %s: confidence: expected %g, got %g", id, expected.Confidence, actual.Confidence)
	}
	if actual.Level != expected.Level {
		p.errorf("ID %s: level: expected %q, got %q", id, expected.Level, actual.Level)
	}
	if actual.TileID != expected.TileID {
		p.errorf("ID %s: tile_id: expected %q, got %q", id, expected.TileID, actual.TileID)
	}
	if !actual.DetectedAt.Equal(expected.DetectedAt) {
		p.errorf("ID %s: detected_at: expected %s, got %s", id,
			expected.DetectedAt.Format(time.RFC3339), actual.DetectedAt.Format(time.RFC3339))
	}
}

// ── Phase 2: Event Schema ──
// Validates enriched events against the API's closed label sets and ranges.

var (
	schemaEventTypes  = map[string]bool{domain.EventPothole: true, domain.EventCrack: true, domain.EventCongestion: true}
	congestionLevels  = map[string]bool{domain.CongestionLow: true, domain.CongestionMedium: true, domain.CongestionHigh: true}
	damageLevels      = map[string]bool{domain.DamageGood: true, domain.DamageModerate: true, domain.DamageSevere: true}
	damageEventLevels = damageLevels
)

func validateEventSchema(events []domain.SensorEvent) *phase {
	p := &phase{name: "Phase 2: Event Schema (labels and ranges)"}

	for i := range events {
		e := &events[i]
		pf := func(format string, args ...any) {
			p.errorf("event %d (ID %s): "+format, append([]any{i, e.ID}, args...)...)
		}

		if !schemaEventTypes[e.EventType] {
			pf("event_type %q not in {pothole, crack, congestion}", e.EventType)
		}
		if e.Severity < 0 || e.Severity > 100 {
			pf("severity %g outside [0, 100]", e.Severity)
		}
		if e.Confidence < 0 || e.Confidence > 1 {
			pf("confidence %g outside [0, 1]", e.Confidence)
		}
		if e.EventType == domain.EventCongestion {
			if !congestionLevels[e.Level] {
				pf("level %q not in {low, medium, high}", e.Level)
			}
		} else if !damageEventLevels[e.Level] {
			pf("level %q not in {good, moderate, severe}", e.Level)
		}
		if e.TileID != "" {
			if _, _, err := tiles.ParseCellID(e.TileID); err != nil {
				pf("tile_id %q does not parse: %v", e.TileID, err)
			}
		}
		if e.ProcessedAt.IsZero() {
			pf("processed_at is zero")
		}
	}
	return p
}

// ── Phase 3/4: Record Fixtures ──
// Normalized records must survive re-normalization unchanged (idempotence)
// and carry valid labels.

func validateCongestionRecords(recs []domain.CongestionRecord) *phase {
	p := &phase{name: "Phase 3: Congestion Records (idempotence)"}
	for i := range recs {
		r := &recs[i]
		if r.RecordID == "" {
			p.errorf("record %d: missing record_id", i)
		}
		if !congestionLevels[r.CongestionLevel] {
			p.errorf("record %d: congestion_level %q not in {low, medium, high}", i, r.CongestionLevel)
		}
		if renorm, ok := renormalizeCongestion(r); ok && renorm != *r {
			p.errorf("record %d (%s): not idempotent under re-normalization", i, r.RecordID)
		}
	}
	return p
}

func validateDamageRecords(recs []domain.DamageRecord) *phase {
	p := &phase{name: "Phase 4: Damage Records (idempotence)"}
	for i := range recs {
		r := &recs[i]
		if r.RecordID == "" {
			p.errorf("record %d: missing record_id", i)
		}
		if !damageLevels[r.DamageLevel] {
			p.errorf("record %d: damage_level %q not in {good, moderate, severe}", i, r.DamageLevel)
		}
		if r.RideComfort < 0 || r.RideComfort > 100 {
			p.errorf("record %d: ride_comfort %g outside [0, 100]", i, r.RideComfort)
		}
		if renorm, ok := renormalizeDamage(r); ok && renorm != *r {
			p.errorf("record %d (%s): not idempotent under re-normalization", i, r.RecordID)
		}
	}
	return p
}

func renormalizeCongestion(r *domain.CongestionRecord) (domain.CongestionRecord, bool) {
	m, ok := toMap(r)
	if !ok {
		return domain.CongestionRecord{}, false
	}
	return domain.NormalizeCongestion(m), true
}

func renormalizeDamage(r *domain.DamageRecord) (domain.DamageRecord, bool) {
	m, ok := toMap(r)
	if !ok {
		return domain.DamageRecord{}, false
	}
	return domain.NormalizeDamage(m), true
}

func toMap(v any) (map[string]any, bool) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, false
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, false
	}
	return m, true
}

func floatEq(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}
