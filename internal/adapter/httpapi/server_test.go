package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/adapter/sheets"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/observability"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/tiles"
)

// --- mocks ---

type mockStore struct {
	tiles map[string]domain.TileAggregate
}

func (m *mockStore) Tile(id string) (domain.TileAggregate, bool) {
	agg, ok := m.tiles[id]
	return agg, ok
}

func (m *mockStore) TilesInViewport(v domain.Viewport, minEvents int) []domain.TileAggregate {
	var out []domain.TileAggregate
	for _, agg := range m.tiles {
		if agg.TotalEvents >= minEvents && v.Contains(agg.CenterLat, agg.CenterLon) {
			out = append(out, agg)
		}
	}
	return out
}

func (m *mockStore) AllTiles(minEvents int) []domain.TileAggregate {
	var out []domain.TileAggregate
	for _, agg := range m.tiles {
		if agg.TotalEvents >= minEvents {
			out = append(out, agg)
		}
	}
	return out
}

type mockRecords struct {
	congestion []domain.CongestionRecord
	damage     []domain.DamageRecord
	err        error
	cities     []string
}

func (m *mockRecords) CongestionRecords(_ context.Context, city string) ([]domain.CongestionRecord, error) {
	m.cities = append(m.cities, city)
	return m.congestion, m.err
}

func (m *mockRecords) DamageRecords(_ context.Context, city string) ([]domain.DamageRecord, error) {
	m.cities = append(m.cities, city)
	return m.damage, m.err
}

type mockAirQuality struct {
	columns  []string
	readings []sheets.Reading
	err      error
}

func (m *mockAirQuality) Columns(_ context.Context) ([]string, error) { return m.columns, m.err }
func (m *mockAirQuality) All(_ context.Context) ([]sheets.Reading, error) {
	return m.readings, m.err
}
func (m *mockAirQuality) Latest(_ context.Context) (sheets.Reading, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.readings[len(m.readings)-1], nil
}

type mockPresigner struct {
	lastKey string
}

func (m *mockPresigner) PresignUpload(_ context.Context, key, _ string, _ time.Duration) (string, error) {
	m.lastKey = key
	return "https://bucket.example.com/" + key + "?sig=upload", nil
}

func (m *mockPresigner) PresignPlayback(_ context.Context, key string, _ time.Duration) (string, error) {
	m.lastKey = key
	return "https://bucket.example.com/" + key + "?sig=playback", nil
}

func (m *mockPresigner) UploadKey(deviceID, filename string) string {
	return deviceID + "/" + filename
}

type mockBoundary struct {
	ring orb.Ring
}

func (m *mockBoundary) Boundary(_ string, _, _ float64) orb.Ring { return m.ring }

func newTestServer(deps Deps) *Server {
	if deps.Logger == nil {
		deps.Logger = slog.Default()
	}
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetricsForTesting()
	}
	if deps.PresignExpiry == 0 {
		deps.PresignExpiry = 15 * time.Minute
	}
	if deps.Store == nil {
		deps.Store = &mockStore{}
	}
	if deps.Records == nil {
		deps.Records = &mockRecords{}
	}
	if deps.Hexes == nil {
		deps.Hexes = &mockBoundary{}
	}
	return NewServer(":0", deps)
}

func doRequest(t *testing.T, s *Server, method, path, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	var reader *strings.Reader
	if body == "" {
		reader = strings.NewReader("")
	} else {
		reader = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	var parsed map[string]any
	if rec.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &parsed))
	}
	return rec, parsed
}

func tileAt(lat, lon float64, events int) domain.TileAggregate {
	id := tiles.CellIDForPoint(lat, lon)
	cLat, cLon, _ := tiles.CellCenter(id)
	return domain.TileAggregate{TileID: id, CenterLat: cLat, CenterLon: cLon, TotalEvents: events}
}

// --- tiles ---

func TestHandleTiles(t *testing.T) {
	inside := tileAt(30.74, 76.78, 5)
	outside := tileAt(31.50, 77.50, 5)
	sparse := tileAt(30.75, 76.79, 1)
	store := &mockStore{tiles: map[string]domain.TileAggregate{
		inside.TileID:  inside,
		outside.TileID: outside,
		sparse.TileID:  sparse,
	}}
	s := newTestServer(Deps{Store: store})

	t.Run("viewport query filters by center containment", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet,
			"/api/v1/tiles?min_lat=30.70&max_lat=30.80&min_lon=76.70&max_lon=76.85", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("min_events filters sparse tiles", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet,
			"/api/v1/tiles?min_lat=30.70&max_lat=30.80&min_lon=76.70&max_lon=76.85&min_events=3", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("no viewport returns all tiles", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/tiles", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(3), body["count"])
	})

	t.Run("inverted viewport is rejected", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet,
			"/api/v1/tiles?min_lat=31&max_lat=30&min_lon=76&max_lon=77", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_viewport", body["error"])
	})

	t.Run("partial viewport is rejected", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/tiles?min_lat=30", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_parameter", body["error"])
	})

	t.Run("non-numeric min_events is rejected", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/tiles?min_events=lots", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_parameter", body["error"])
	})
}

func TestHandleTile(t *testing.T) {
	known := tileAt(30.74, 76.78, 5)
	store := &mockStore{tiles: map[string]domain.TileAggregate{known.TileID: known}}
	s := newTestServer(Deps{Store: store})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/tiles/"+known.TileID, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, known.TileID, body["tile_id"])

	rec, body = doRequest(t, s, http.MethodGet, "/api/v1/tiles/T_9999_9999", "")
	require.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", body["error"])
}

func TestHandleTileBounds(t *testing.T) {
	s := newTestServer(Deps{})

	id := tiles.CellIDForPoint(30.74, 76.78)
	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/tiles/"+id+"/bounds", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, id, body["tile_id"])

	bounds := body["bounds"].(map[string]any)
	center := body["center"].(map[string]any)
	assert.Less(t, bounds["min_lat"].(float64), center["lat"].(float64))
	assert.Greater(t, bounds["max_lat"].(float64), center["lat"].(float64))

	rec, body = doRequest(t, s, http.MethodGet, "/api/v1/tiles/bogus/bounds", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_tile_id", body["error"])
}

func TestHandleTileConvert(t *testing.T) {
	s := newTestServer(Deps{})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/tiles/convert?lat=30.74&lon=76.78", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, tiles.CellIDForPoint(30.74, 76.78), body["tile_id"])

	rec, body = doRequest(t, s, http.MethodGet, "/api/v1/tiles/convert?lat=95&lon=76.78", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_parameter", body["error"])

	rec, _ = doRequest(t, s, http.MethodGet, "/api/v1/tiles/convert?lat=30.74", "")
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

// --- records and summary ---

func TestHandleRecords(t *testing.T) {
	records := &mockRecords{
		congestion: []domain.CongestionRecord{
			{RecordID: "c1", CongestionLevel: domain.CongestionHigh},
			{RecordID: "c2", CongestionLevel: domain.CongestionLow},
		},
		damage: []domain.DamageRecord{
			{RecordID: "d1", DamageLevel: domain.DamageSevere, RideComfort: 20},
		},
	}
	s := newTestServer(Deps{Records: records})

	t.Run("congestion with level filter", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/records?city=chandigarh&type=congestion&level=high", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), body["count"])
		assert.Equal(t, "chandigarh", body["city"])
	})

	t.Run("damage default level is all", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/records?city=chandigarh&type=damage", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(1), body["count"])
	})

	t.Run("missing city", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/records?type=damage", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_parameter", body["error"])
	})

	t.Run("unknown type", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/records?city=chandigarh&type=weather", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_parameter", body["error"])
	})

	t.Run("upstream failure", func(t *testing.T) {
		failing := newTestServer(Deps{Records: &mockRecords{err: errors.New("scan failed")}})
		rec, body := doRequest(t, failing, http.MethodGet, "/api/v1/records?city=chandigarh", "")
		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "upstream_error", body["error"])
	})
}

func TestHandleSummary(t *testing.T) {
	records := &mockRecords{
		congestion: []domain.CongestionRecord{
			{CongestionLevel: domain.CongestionHigh, VelocityAvg: 10, VehicleCount: 40},
			{CongestionLevel: domain.CongestionLow, VelocityAvg: 30, VehicleCount: 10},
		},
		damage: []domain.DamageRecord{
			{DamageLevel: domain.DamageSevere, RideComfort: 20, PotholeCount: 3},
		},
	}
	s := newTestServer(Deps{Records: records})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/summary?city=chandigarh", "")
	require.Equal(t, http.StatusOK, rec.Code)

	summary := body["summary"].(map[string]any)
	assert.Equal(t, float64(2), summary["congestion_records"])
	assert.Equal(t, float64(1), summary["high_congestion_count"])
	assert.Equal(t, float64(1), summary["severe_damage_count"])
	assert.Equal(t, float64(20), summary["avg_velocity"])
	assert.Equal(t, float64(3), summary["total_potholes"])
}

// --- cell aggregates ---

func TestHandleCongestionCells(t *testing.T) {
	records := &mockRecords{
		congestion: []domain.CongestionRecord{
			{RecordID: "c1", TileID: "T_1_1", CongestionLevel: domain.CongestionHigh, VelocityAvg: 10},
			{RecordID: "c2", TileID: "T_1_1", CongestionLevel: domain.CongestionLow, VelocityAvg: 30},
			{RecordID: "c3", Location: domain.GeoPoint{Lat: 30.74, Lon: 76.78}, CongestionLevel: domain.CongestionMedium},
		},
	}
	s := newTestServer(Deps{Records: records})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/cells/congestion?city=chandigarh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(2), body["count"])

	cells := body["cells"].([]any)
	grouped := cells[0].(map[string]any)
	assert.Equal(t, "T_1_1", grouped["cell_id"])
	assert.Equal(t, float64(2), grouped["source_count"])
	assert.Equal(t, domain.CongestionHigh, grouped["level"], "level is the worst in the group")
	assert.Equal(t, float64(20), grouped["avg_velocity"])

	located := cells[1].(map[string]any)
	assert.Equal(t, tiles.CellIDForPoint(30.74, 76.78), located["cell_id"])

	t.Run("missing city", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/cells/congestion", "")
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "missing_parameter", body["error"])
	})
}

func TestHandleDamageCells(t *testing.T) {
	records := &mockRecords{
		damage: []domain.DamageRecord{
			{RecordID: "d1", HexID: "89abc", DamageLevel: domain.DamageSevere, RideComfort: 20, PotholeCount: 3},
			{RecordID: "d2", HexID: "89abc", DamageLevel: domain.DamageGood, RideComfort: 80, CrackCount: 1},
		},
	}
	s := newTestServer(Deps{Records: records})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/cells/damage?city=chandigarh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, float64(1), body["count"])

	cell := body["cells"].([]any)[0].(map[string]any)
	assert.Equal(t, "89abc", cell["hex_id"])
	assert.Equal(t, domain.DamageSevere, cell["level"])
	assert.Equal(t, float64(50), cell["avg_ride_comfort"])
	assert.Equal(t, float64(3), cell["pothole_count"])
	assert.Equal(t, float64(1), cell["crack_count"])

	t.Run("upstream failure", func(t *testing.T) {
		failing := newTestServer(Deps{Records: &mockRecords{err: errors.New("scan failed")}})
		rec, body := doRequest(t, failing, http.MethodGet, "/api/v1/cells/damage?city=chandigarh", "")
		require.Equal(t, http.StatusBadGateway, rec.Code)
		assert.Equal(t, "upstream_error", body["error"])
	})
}

// --- air quality ---

func TestHandleAirQuality(t *testing.T) {
	air := &mockAirQuality{
		columns: []string{"Timestamp", sheets.ColumnCH2O, sheets.ColumnNO2},
		readings: []sheets.Reading{
			{sheets.ColumnCH2O: 0.04, sheets.ColumnNO2: 0.012},
			{sheets.ColumnCH2O: 0.05, sheets.ColumnNO2: 0.011},
		},
	}
	s := newTestServer(Deps{AirQuality: air})

	t.Run("columns", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/air-quality/columns", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, body["columns"], 3)
	})

	t.Run("all", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/air-quality/all", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float64(2), body["count"])
	})

	t.Run("latest", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodGet, "/api/v1/air-quality/latest", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 0.05, body[sheets.ColumnCH2O])
	})

	t.Run("not configured", func(t *testing.T) {
		bare := newTestServer(Deps{})
		rec, body := doRequest(t, bare, http.MethodGet, "/api/v1/air-quality/latest", "")
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
		assert.Equal(t, "not_configured", body["error"])
	})
}

// --- uploads and videos ---

func TestHandleUploadURL(t *testing.T) {
	presigner := &mockPresigner{}
	s := newTestServer(Deps{Uploads: presigner})

	t.Run("issues a presigned URL with a fresh upload id", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodPost, "/api/v1/uploads/url",
			`{"device_id": "unit-7", "filename": "clip.mp4", "content_type": "video/mp4"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.NotEmpty(t, body["upload_id"])
		assert.Contains(t, body["key"], "unit-7/")
		assert.Contains(t, body["key"], "clip.mp4")
		assert.Contains(t, body["url"], "sig=upload")
		assert.Equal(t, float64(900), body["expires_in"])
	})

	t.Run("missing fields", func(t *testing.T) {
		rec, body := doRequest(t, s, http.MethodPost, "/api/v1/uploads/url", `{"filename": "clip.mp4"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_request", body["error"])
	})

	t.Run("not configured", func(t *testing.T) {
		bare := newTestServer(Deps{})
		rec, _ := doRequest(t, bare, http.MethodPost, "/api/v1/uploads/url", `{"device_id":"x","filename":"y"}`)
		require.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleVideoURL(t *testing.T) {
	presigner := &mockPresigner{}
	s := newTestServer(Deps{Uploads: presigner})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/videos/unit-7-clip.mp4/url", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "unit-7-clip.mp4", body["key"])
	assert.Contains(t, body["url"], "sig=playback")
}

// --- hex boundaries ---

func TestHandleHexBoundary(t *testing.T) {
	ring := orb.Ring{{76.78, 30.74}, {76.79, 30.75}, {76.77, 30.76}, {76.78, 30.74}}
	s := newTestServer(Deps{Hexes: &mockBoundary{ring: ring}})

	rec, body := doRequest(t, s, http.MethodGet, "/api/v1/hexes/89283082813ffff/boundary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "89283082813ffff", body["hex_id"])

	boundary := body["boundary"].([]any)
	require.Len(t, boundary, 4)
	first := boundary[0].([]any)
	assert.Equal(t, 30.74, first[0], "pairs are (lat, lon)")
	assert.Equal(t, 76.78, first[1])
}
