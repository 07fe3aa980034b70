// Package domain models road-condition and traffic-congestion sensor records
// for the monitoring dashboard.
//
// # Data Sources
//
// Records arrive over two wire encodings and are funneled through a single
// normalization layer:
//
//   - Plain JSON arrays served by the records endpoint, one loosely-typed
//     object per record. Field types are not guaranteed: numerics may arrive
//     as JSON numbers or as strings, booleans as native booleans or as the
//     string "true", and nested objects may be absent entirely.
//   - Tagged key/value items scanned from the document store. The docstore
//     adapter untags these into the same map[string]any shape before calling
//     the normalizers, so the tagged encoding never leaks past the adapter.
//
// Raw telemetry consumed from the ingest topic is a third, stricter shape
// handled by [ParseRawTelemetry]; see its documentation for the contract.
//
// # Normalization Contract
//
// NormalizeCongestion and NormalizeDamage are total functions: they never
// return an error and never panic, regardless of how malformed the input is.
// Every field of the returned record is populated:
//
//	numeric fields      → 0 on missing/unparseable (ride_comfort → 50)
//	congestion_level    → one of "low", "medium", "high" (default "low")
//	damage_level        → one of "good", "moderate", "severe" (default "good")
//	boolean flags       → true only for native true or the string "true"
//	nested structs      → zero-value struct when the object is absent
//	captured_at         → RFC 3339 or "2006-01-02 15:04:05", zero time otherwise
//
// Normalization is idempotent: re-normalizing the JSON form of a normalized
// record yields the same record.
//
// # Severity Classification
//
// ClassifySeverity maps the closed label sets to a bounded numeric score used
// by map overlays and summary cards:
//
//	low / good        → 25
//	medium / moderate → 50
//	high / severe     → 100
//	anything else     → 0
//
// The inverse direction (telemetry severity score → label) uses fixed
// thresholds: score ≥ 70 is high/severe, ≥ 40 is medium/moderate, otherwise
// low/good.
package domain
