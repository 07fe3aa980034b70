package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassifySeverity(t *testing.T) {
	tests := []struct {
		name  string
		label string
		want  int
	}{
		{name: "low", label: "low", want: 25},
		{name: "good", label: "good", want: 25},
		{name: "medium", label: "medium", want: 50},
		{name: "moderate", label: "moderate", want: 50},
		{name: "high", label: "high", want: 100},
		{name: "severe", label: "severe", want: 100},
		{name: "uppercase", label: "HIGH", want: 100},
		{name: "padded", label: "  severe ", want: 100},
		{name: "unknown", label: "catastrophic", want: 0},
		{name: "empty", label: "", want: 0},
		{name: "garbage", label: "\x00\xff", want: 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ClassifySeverity(tt.label))
		})
	}
}

func TestLevelForScore(t *testing.T) {
	tests := []struct {
		name           string
		score          float64
		wantCongestion string
		wantDamage     string
	}{
		{name: "zero", score: 0, wantCongestion: CongestionLow, wantDamage: DamageGood},
		{name: "just below mid", score: 39.9, wantCongestion: CongestionLow, wantDamage: DamageGood},
		{name: "mid boundary", score: 40, wantCongestion: CongestionMedium, wantDamage: DamageModerate},
		{name: "just below high", score: 69.9, wantCongestion: CongestionMedium, wantDamage: DamageModerate},
		{name: "high boundary", score: 70, wantCongestion: CongestionHigh, wantDamage: DamageSevere},
		{name: "max", score: 100, wantCongestion: CongestionHigh, wantDamage: DamageSevere},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.wantCongestion, CongestionLevelForScore(tt.score))
			assert.Equal(t, tt.wantDamage, DamageLevelForScore(tt.score))
		})
	}
}

func TestFilterCongestionByLevel(t *testing.T) {
	recs := []CongestionRecord{
		{RecordID: "a", CongestionLevel: CongestionLow},
		{RecordID: "b", CongestionLevel: CongestionHigh},
		{RecordID: "c", CongestionLevel: CongestionHigh},
	}

	t.Run("matching level", func(t *testing.T) {
		got := FilterCongestionByLevel(recs, CongestionHigh)
		assert.Len(t, got, 2)
		assert.Equal(t, "b", got[0].RecordID)
		assert.Equal(t, "c", got[1].RecordID)
	})

	t.Run("all sentinel is identity", func(t *testing.T) {
		got := FilterCongestionByLevel(recs, LevelAll)
		assert.Equal(t, recs, got)
	})

	t.Run("all sentinel returns a copy", func(t *testing.T) {
		got := FilterCongestionByLevel(recs, LevelAll)
		got[0].RecordID = "mutated"
		assert.Equal(t, "a", recs[0].RecordID)
	})

	t.Run("no matches", func(t *testing.T) {
		assert.Empty(t, FilterCongestionByLevel(recs, CongestionMedium))
	})

	t.Run("unknown level matches nothing", func(t *testing.T) {
		assert.Empty(t, FilterCongestionByLevel(recs, "gridlock"))
	})
}

func TestFilterDamageByLevel(t *testing.T) {
	recs := []DamageRecord{
		{RecordID: "a", DamageLevel: DamageGood},
		{RecordID: "b", DamageLevel: DamageSevere},
	}

	t.Run("matching level", func(t *testing.T) {
		got := FilterDamageByLevel(recs, DamageSevere)
		assert.Len(t, got, 1)
		assert.Equal(t, "b", got[0].RecordID)
	})

	t.Run("all sentinel is identity", func(t *testing.T) {
		assert.Equal(t, recs, FilterDamageByLevel(recs, LevelAll))
	})
}
