package domain

import "sort"

// ComputeSummary reduces the two record collections into the dashboard's
// scalar statistics. Deterministic: the result depends only on the inputs.
// Empty collections produce the documented defaults instead of NaN.
func ComputeSummary(congestion []CongestionRecord, damage []DamageRecord) SummaryStats {
	s := SummaryStats{
		CongestionRecords: len(congestion),
		DamageRecords:     len(damage),
		AvgRideComfort:    DefaultRideComfort,
	}

	var velocitySum float64
	for _, r := range congestion {
		if r.CongestionLevel == CongestionHigh {
			s.HighCongestionCount++
		}
		velocitySum += r.VelocityAvg
		s.TotalVehicles += int(r.VehicleCount)
	}
	if len(congestion) > 0 {
		s.AvgVelocity = velocitySum / float64(len(congestion))
	}

	var comfortSum float64
	for _, r := range damage {
		if r.DamageLevel == DamageSevere {
			s.SevereDamageCount++
		}
		comfortSum += r.RideComfort
		s.TotalPotholes += r.PotholeCount
		s.TotalCracks += r.CrackCount
	}
	if len(damage) > 0 {
		s.AvgRideComfort = comfortSum / float64(len(damage))
	}

	return s
}

// CellFunc maps a coordinate to a grid cell identifier. Injected so this
// package stays free of the tiling implementation.
type CellFunc func(lat, lon float64) string

// AggregateCongestion groups congestion records by grid cell and reduces each
// group to a renderable cell aggregate. Records carrying a tile id keep it;
// the rest are assigned one from their location via cellID. Output is sorted
// by cell id for determinism. Aggregates are recomputed wholesale on every
// call; there is no incremental state.
func AggregateCongestion(recs []CongestionRecord, cellID CellFunc) []CongestionCell {
	groups := make(map[string][]CongestionRecord)
	for _, r := range recs {
		key := r.TileID
		if key == "" {
			key = cellID(r.Location.Lat, r.Location.Lon)
		}
		groups[key] = append(groups[key], r)
	}

	cells := make([]CongestionCell, 0, len(groups))
	for key, group := range groups {
		cell := CongestionCell{CellID: key, Level: CongestionLow, SourceCount: len(group)}
		var velocitySum, vehicleSum, latSum, lonSum float64
		for _, r := range group {
			velocitySum += r.VelocityAvg
			vehicleSum += r.VehicleCount
			latSum += r.Location.Lat
			lonSum += r.Location.Lon
			if ClassifySeverity(r.CongestionLevel) > ClassifySeverity(cell.Level) {
				cell.Level = r.CongestionLevel
			}
			if r.CapturedAt.After(cell.LastSeen) {
				cell.LastSeen = r.CapturedAt
			}
		}
		n := float64(len(group))
		cell.AvgVelocity = velocitySum / n
		cell.AvgVehicleCount = vehicleSum / n
		cell.Center = GeoPoint{Lat: latSum / n, Lon: lonSum / n}
		cells = append(cells, cell)
	}

	sort.Slice(cells, func(i, j int) bool { return cells[i].CellID < cells[j].CellID })
	return cells
}

// AggregateDamage groups damage records by their hex cell identifier.
// Records without a hex id are grouped under the empty key rather than
// dropped, so counts stay honest. Output is sorted by hex id.
func AggregateDamage(recs []DamageRecord) []DamageCell {
	groups := make(map[string][]DamageRecord)
	for _, r := range recs {
		groups[r.HexID] = append(groups[r.HexID], r)
	}

	cells := make([]DamageCell, 0, len(groups))
	for key, group := range groups {
		cell := DamageCell{HexID: key, Level: DamageGood, SourceCount: len(group)}
		var comfortSum, latSum, lonSum float64
		for _, r := range group {
			comfortSum += r.RideComfort
			latSum += r.Location.Lat
			lonSum += r.Location.Lon
			cell.PotholeCount += r.PotholeCount
			cell.CrackCount += r.CrackCount
			if ClassifySeverity(r.DamageLevel) > ClassifySeverity(cell.Level) {
				cell.Level = r.DamageLevel
			}
			if r.CapturedAt.After(cell.LastSeen) {
				cell.LastSeen = r.CapturedAt
			}
		}
		n := float64(len(group))
		cell.AvgRideComfort = comfortSum / n
		cell.Center = GeoPoint{Lat: latSum / n, Lon: lonSum / n}
		cells = append(cells, cell)
	}

	sort.Slice(cells, func(i, j int) bool { return cells[i].HexID < cells[j].HexID })
	return cells
}
