// Package roadsapi is the HTTP client for the upstream road-records API,
// which serves raw city records, tile aggregates, and dashcam video URLs.
package roadsapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
)

// Client talks to the records API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a records API client.
func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger,
	}
}

// Records fetches the raw records of one city and record type. The payload
// stays untyped here; callers push it through domain normalization.
func (c *Client) Records(ctx context.Context, city, recordType string) ([]map[string]any, error) {
	params := url.Values{
		"city": {city},
		"type": {recordType},
	}

	var out struct {
		Records []map[string]any `json:"records"`
	}
	if err := c.getJSON(ctx, "/api/v1/records?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Records, nil
}

// CongestionRecords fetches and normalizes one city's congestion records.
// Upstream payloads sometimes arrive in the document store's tagged attribute
// encoding; FromAttributeMap flattens either form before normalization.
func (c *Client) CongestionRecords(ctx context.Context, city string) ([]domain.CongestionRecord, error) {
	raws, err := c.Records(ctx, city, "congestion")
	if err != nil {
		return nil, err
	}
	out := make([]domain.CongestionRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, domain.NormalizeCongestion(domain.FromAttributeMap(raw)))
	}
	return out, nil
}

// DamageRecords fetches and normalizes one city's road-damage records.
func (c *Client) DamageRecords(ctx context.Context, city string) ([]domain.DamageRecord, error) {
	raws, err := c.Records(ctx, city, "damage")
	if err != nil {
		return nil, err
	}
	out := make([]domain.DamageRecord, 0, len(raws))
	for _, raw := range raws {
		out = append(out, domain.NormalizeDamage(domain.FromAttributeMap(raw)))
	}
	return out, nil
}

// TilesInViewport fetches the tile aggregates intersecting the viewport.
func (c *Client) TilesInViewport(ctx context.Context, v domain.Viewport) ([]domain.TileAggregate, error) {
	params := url.Values{
		"min_lat": {formatCoord(v.MinLat)},
		"max_lat": {formatCoord(v.MaxLat)},
		"min_lon": {formatCoord(v.MinLon)},
		"max_lon": {formatCoord(v.MaxLon)},
	}

	var out struct {
		Tiles []domain.TileAggregate `json:"tiles"`
	}
	if err := c.getJSON(ctx, "/api/v1/tiles?"+params.Encode(), &out); err != nil {
		return nil, err
	}
	return out.Tiles, nil
}

// VideoURL fetches the presigned playback URL for one event's dashcam clip.
func (c *Client) VideoURL(ctx context.Context, eventID string) (string, error) {
	var out struct {
		URL string `json:"url"`
	}
	if err := c.getJSON(ctx, "/api/v1/videos/"+url.PathEscape(eventID)+"/url", &out); err != nil {
		return "", err
	}
	if out.URL == "" {
		return "", fmt.Errorf("no video url for event %s", eventID)
	}
	return out.URL, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("records API request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("records API error: status %d: %s", resp.StatusCode, body)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func formatCoord(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
