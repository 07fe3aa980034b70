package domain

import "time"

// Congestion level labels, ordered by severity.
const (
	CongestionLow    = "low"
	CongestionMedium = "medium"
	CongestionHigh   = "high"
)

// Damage level labels, ordered by severity.
const (
	DamageGood     = "good"
	DamageModerate = "moderate"
	DamageSevere   = "severe"
)

// LevelAll is the filter sentinel meaning "no level filter".
const LevelAll = "all"

// DefaultRideComfort is the neutral ride-comfort value (0–100 scale)
// substituted when the field is missing, unparseable, or when averaging an
// empty collection. 50 is mid-scale: neither smooth nor rough.
const DefaultRideComfort = 50.0

// VehicleComposition breaks a congestion observation down by vehicle class.
type VehicleComposition struct {
	Cars        float64 `json:"cars"`
	Buses       float64 `json:"buses"`
	Trucks      float64 `json:"trucks"`
	TwoWheelers float64 `json:"two_wheelers"`
	Autos       float64 `json:"autos"`
}

// SensorReadings carries the inertial measurements attached to a damage record.
type SensorReadings struct {
	GyroAvg float64 `json:"gyro_avg"`
	GyroMax float64 `json:"gyro_max"`
	AzSpike float64 `json:"az_spike"`
}

// CongestionRecord is the normalized form of a traffic observation.
// Field tags match the plain-JSON wire keys so that a normalized record
// round-trips through normalization unchanged.
type CongestionRecord struct {
	RecordID        string             `json:"record_id"`
	City            string             `json:"city"`
	TileID          string             `json:"tile_id"`
	Location        GeoPoint           `json:"location"`
	VelocityAvg     float64            `json:"velocity_avg"`
	VehicleCount    float64            `json:"vehicle_count"`
	CongestionLevel string             `json:"congestion_level"`
	Composition     VehicleComposition `json:"vehicle_composition"`
	SampleCount     int                `json:"sample_count"`
	Verified        bool               `json:"verified"`
	CapturedAt      time.Time          `json:"captured_at"`
}

// DamageRecord is the normalized form of a road-surface observation.
type DamageRecord struct {
	RecordID     string         `json:"record_id"`
	City         string         `json:"city"`
	HexID        string         `json:"hex_id"`
	Location     GeoPoint       `json:"location"`
	DamageLevel  string         `json:"damage_level"`
	RideComfort  float64        `json:"ride_comfort"`
	PotholeCount int            `json:"pothole_count"`
	CrackCount   int            `json:"crack_count"`
	Readings     SensorReadings `json:"sensor_readings"`
	SampleCount  int            `json:"sample_count"`
	Verified     bool           `json:"verified"`
	CapturedAt   time.Time      `json:"captured_at"`
}

// TileAggregate summarizes the recent sensor events inside one 1 km grid
// tile. Recomputed wholesale from the tile's retained events; no incremental
// state.
type TileAggregate struct {
	TileID             string    `json:"tile_id"`
	CenterLat          float64   `json:"center_lat"`
	CenterLon          float64   `json:"center_lon"`
	TotalEvents        int       `json:"total_events"`
	PotholeCount       int       `json:"pothole_count"`
	CrackCount         int       `json:"crack_count"`
	CongestionCount    int       `json:"congestion_count"`
	AvgSeverity        float64   `json:"avg_severity"`
	MaxSeverity        float64   `json:"max_severity"`
	AvgConfidence      float64   `json:"avg_confidence"`
	AvgCongestionScore float64   `json:"avg_congestion_score"`
	AvgVehicleCount    float64   `json:"avg_vehicle_count"`
	MaxVehicleCount    int       `json:"max_vehicle_count"`
	AvgPotholeSize     float64   `json:"avg_pothole_size"`
	LastEventAt        time.Time `json:"last_event_at"`
}

// CongestionCell is a congestion aggregate keyed by grid cell, the unit the
// map overlay renders.
type CongestionCell struct {
	CellID          string    `json:"cell_id"`
	Center          GeoPoint  `json:"center"`
	Level           string    `json:"level"`
	AvgVelocity     float64   `json:"avg_velocity"`
	AvgVehicleCount float64   `json:"avg_vehicle_count"`
	SourceCount     int       `json:"source_count"`
	LastSeen        time.Time `json:"last_seen"`
}

// DamageCell is a damage aggregate keyed by hex cell.
type DamageCell struct {
	HexID          string    `json:"hex_id"`
	Center         GeoPoint  `json:"center"`
	Level          string    `json:"level"`
	AvgRideComfort float64   `json:"avg_ride_comfort"`
	PotholeCount   int       `json:"pothole_count"`
	CrackCount     int       `json:"crack_count"`
	SourceCount    int       `json:"source_count"`
	LastSeen       time.Time `json:"last_seen"`
}

// SummaryStats feeds the dashboard cards. Averages over empty collections use
// the documented defaults (0 for velocity, DefaultRideComfort for comfort);
// no field is ever NaN.
type SummaryStats struct {
	CongestionRecords   int     `json:"congestion_records"`
	DamageRecords       int     `json:"damage_records"`
	HighCongestionCount int     `json:"high_congestion_count"`
	SevereDamageCount   int     `json:"severe_damage_count"`
	AvgVelocity         float64 `json:"avg_velocity"`
	AvgRideComfort      float64 `json:"avg_ride_comfort"`
	TotalVehicles       int     `json:"total_vehicles"`
	TotalPotholes       int     `json:"total_potholes"`
	TotalCracks         int     `json:"total_cracks"`
}
