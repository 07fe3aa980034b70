package domain

import "strings"

// Severity scores for the closed classification label sets.
const (
	severityMinor    = 25
	severityModerate = 50
	severityWorst    = 100
)

// ClassifySeverity maps a classification label to its numeric severity score.
// Total: unrecognized labels (including garbage) score 0, never an error.
func ClassifySeverity(label string) int {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case CongestionLow, DamageGood:
		return severityMinor
	case CongestionMedium, DamageModerate:
		return severityModerate
	case CongestionHigh, DamageSevere:
		return severityWorst
	default:
		return 0
	}
}

// CongestionLevelForScore maps a 0–100 telemetry severity score onto the
// congestion label set.
func CongestionLevelForScore(score float64) string {
	return labelForScore(score, CongestionLow, CongestionMedium, CongestionHigh)
}

// DamageLevelForScore maps a 0–100 telemetry severity score onto the damage
// label set.
func DamageLevelForScore(score float64) string {
	return labelForScore(score, DamageGood, DamageModerate, DamageSevere)
}

func labelForScore(score float64, low, mid, high string) string {
	switch {
	case score >= 70:
		return high
	case score >= 40:
		return mid
	default:
		return low
	}
}

// FilterCongestionByLevel returns the records whose congestion level matches.
// The LevelAll sentinel is an identity pass. Pure: the input is not mutated.
func FilterCongestionByLevel(recs []CongestionRecord, level string) []CongestionRecord {
	if level == LevelAll {
		return append([]CongestionRecord(nil), recs...)
	}
	out := make([]CongestionRecord, 0, len(recs))
	for _, r := range recs {
		if r.CongestionLevel == level {
			out = append(out, r)
		}
	}
	return out
}

// FilterDamageByLevel returns the records whose damage level matches.
// The LevelAll sentinel is an identity pass.
func FilterDamageByLevel(recs []DamageRecord, level string) []DamageRecord {
	if level == LevelAll {
		return append([]DamageRecord(nil), recs...)
	}
	out := make([]DamageRecord, 0, len(recs))
	for _, r := range recs {
		if r.DamageLevel == level {
			out = append(out, r)
		}
	}
	return out
}
