package sheets

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sheetBody = `{
	"range": "Sheet1!A1:Z100",
	"values": [
		["Timestamp", "CH2O (mg/m3)", "NO2 (ppm)", "Station"],
		["2026-03-14 10:00:00", "0.04", "0.012", "sector-17"],
		["2026-03-14 10:05:00", "", "0.015", "sector-17"],
		["2026-03-14 10:10:00", "0.05", "0.011", "sector-22"]
	]
}`

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	c := NewClient("test-key", "sheet-123", "Sheet1!A1:Z", 2*time.Second, slog.Default())
	c.baseURL = srv.URL
	return c
}

func TestColumns(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v4/spreadsheets/sheet-123/values/Sheet1!A1:Z", r.URL.Path)
		assert.Equal(t, "test-key", r.URL.Query().Get("key"))
		w.Write([]byte(sheetBody))
	})

	cols, err := c.Columns(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Timestamp", "CH2O (mg/m3)", "NO2 (ppm)", "Station"}, cols)
}

func TestAll(t *testing.T) {
	t.Run("coerces numeric cells", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(sheetBody))
		})

		readings, err := c.All(context.Background())
		require.NoError(t, err)
		require.Len(t, readings, 3)

		first := readings[0]
		assert.Equal(t, 0.04, first[ColumnCH2O])
		assert.Equal(t, 0.012, first[ColumnNO2])
		assert.Equal(t, "2026-03-14 10:00:00", first["Timestamp"])
		assert.Equal(t, "sector-17", first["Station"])
	})

	t.Run("missing gas cells read as zero", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(sheetBody))
		})

		readings, err := c.All(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0.0, readings[1][ColumnCH2O])
		assert.Equal(t, 0.015, readings[1][ColumnNO2])
	})

	t.Run("header-only sheet", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"values": [["Timestamp", "CH2O (mg/m3)"]]}`))
		})

		readings, err := c.All(context.Background())
		require.NoError(t, err)
		assert.Empty(t, readings)
	})

	t.Run("api error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, `{"error": {"status": "PERMISSION_DENIED"}}`, http.StatusForbidden)
		})

		_, err := c.All(context.Background())
		require.Error(t, err)
		assert.Contains(t, err.Error(), "status 403")
	})
}

func TestLatest(t *testing.T) {
	t.Run("returns the last row", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(sheetBody))
		})

		latest, err := c.Latest(context.Background())
		require.NoError(t, err)
		assert.Equal(t, 0.05, latest[ColumnCH2O])
		assert.Equal(t, "sector-22", latest["Station"])
	})

	t.Run("empty sheet is an error", func(t *testing.T) {
		c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte(`{"values": []}`))
		})

		_, err := c.Latest(context.Background())
		assert.Error(t, err)
	})
}
