// Package sheets reads air-quality telemetry rows from a Google Sheets
// spreadsheet through the values API. The first row carries column headers;
// every following row is one sensor reading.
package sheets

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Gas concentration columns the dashboard always expects; rows missing them
// read as 0.
const (
	ColumnCH2O = "CH2O (mg/m3)"
	ColumnNO2  = "NO2 (ppm)"
)

// Reading is one spreadsheet row keyed by column header. Numeric cells are
// coerced to float64; everything else stays a string.
type Reading map[string]any

// Client reads the spreadsheet.
type Client struct {
	apiKey        string
	spreadsheetID string
	readRange     string
	baseURL       string
	httpClient    *http.Client
	logger        *slog.Logger
}

// NewClient creates a spreadsheet telemetry client.
func NewClient(apiKey, spreadsheetID, readRange string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		apiKey:        apiKey,
		spreadsheetID: spreadsheetID,
		readRange:     readRange,
		baseURL:       "https://sheets.googleapis.com",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Columns returns the header row.
func (c *Client) Columns(ctx context.Context) ([]string, error) {
	values, err := c.fetchValues(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) == 0 {
		return nil, nil
	}

	headers := make([]string, 0, len(values[0]))
	for _, cell := range values[0] {
		headers = append(headers, fmt.Sprint(cell))
	}
	return headers, nil
}

// All returns every reading in the sheet, oldest first.
func (c *Client) All(ctx context.Context) ([]Reading, error) {
	values, err := c.fetchValues(ctx)
	if err != nil {
		return nil, err
	}
	if len(values) < 2 {
		return nil, nil
	}

	headers := values[0]
	readings := make([]Reading, 0, len(values)-1)
	for _, row := range values[1:] {
		readings = append(readings, buildReading(headers, row))
	}
	return readings, nil
}

// Latest returns the most recent reading (the last row).
func (c *Client) Latest(ctx context.Context) (Reading, error) {
	readings, err := c.All(ctx)
	if err != nil {
		return nil, err
	}
	if len(readings) == 0 {
		return nil, fmt.Errorf("spreadsheet %s has no readings", c.spreadsheetID)
	}
	return readings[len(readings)-1], nil
}

func buildReading(headers []any, row []any) Reading {
	r := make(Reading, len(headers))
	for i, h := range headers {
		key := fmt.Sprint(h)
		if i >= len(row) {
			continue
		}
		r[key] = coerceCell(row[i])
	}
	// Gas columns are sometimes absent on sensor glitches; they read as 0.
	for _, gas := range []string{ColumnCH2O, ColumnNO2} {
		if _, ok := r[gas].(float64); !ok {
			r[gas] = 0.0
		}
	}
	return r
}

// coerceCell converts numeric cells to float64. The values API returns every
// cell as a string unless asked otherwise.
func coerceCell(cell any) any {
	switch v := cell.(type) {
	case float64:
		return v
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return f
		}
		return v
	default:
		return cell
	}
}

func (c *Client) fetchValues(ctx context.Context) ([][]any, error) {
	u := fmt.Sprintf("%s/v4/spreadsheets/%s/values/%s?key=%s",
		c.baseURL,
		url.PathEscape(c.spreadsheetID),
		url.PathEscape(c.readRange),
		url.QueryEscape(c.apiKey),
	)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sheets API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sheets API error: status %d: %s", resp.StatusCode, body)
	}

	var out struct {
		Values [][]any `json:"values"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return out.Values, nil
}
