// Package fetcher turns a stream of viewport-change notifications into a
// debounced series of tile fetches. Rapid pan/zoom input produces at most one
// request per quiet window, and only the newest request's response is ever
// applied, so a slow stale response can never overwrite fresher data.
package fetcher

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/observability"
)

// DefaultDebounce is the quiet window after the last viewport change before
// a fetch is issued.
const DefaultDebounce = 300 * time.Millisecond

// TileSource serves tile aggregates for a viewport. Implemented by the
// records API client and by test mocks.
type TileSource interface {
	TilesInViewport(ctx context.Context, v domain.Viewport) ([]domain.TileAggregate, error)
}

// Fetcher debounces viewport changes and maintains the latest tile snapshot.
type Fetcher struct {
	source   TileSource
	debounce time.Duration
	clock    clockwork.Clock
	logger   *slog.Logger
	metrics  *observability.Metrics

	mu       sync.Mutex
	timer    clockwork.Timer
	pending  domain.Viewport
	seq      uint64 // newest issued fetch
	inFlight int
	snapshot []domain.TileAggregate
	onUpdate func([]domain.TileAggregate)
}

// New creates a Fetcher. A debounce of zero or less selects the default.
func New(source TileSource, debounce time.Duration, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) *Fetcher {
	if debounce <= 0 {
		debounce = DefaultDebounce
	}
	return &Fetcher{
		source:   source,
		debounce: debounce,
		clock:    clock,
		logger:   logger,
		metrics:  metrics,
	}
}

// SetOnUpdate registers a callback fired after each successfully applied
// fetch. Call before the first Observe.
func (f *Fetcher) SetOnUpdate(fn func([]domain.TileAggregate)) {
	f.mu.Lock()
	f.onUpdate = fn
	f.mu.Unlock()
}

// Observe notes a viewport change, restarting the quiet window. Only the
// last observed viewport is fetched. Invalid viewports are ignored.
func (f *Fetcher) Observe(v domain.Viewport) {
	if !v.Valid() {
		f.logger.Debug("ignoring invalid viewport",
			"min_lat", v.MinLat, "max_lat", v.MaxLat, "min_lon", v.MinLon, "max_lon", v.MaxLon)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	f.pending = v
	if f.timer != nil {
		f.timer.Stop()
	}
	f.timer = f.clock.AfterFunc(f.debounce, f.fire)
}

// Stop cancels any pending fetch timer. In-flight fetches finish on their own.
func (f *Fetcher) Stop() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}

// Snapshot returns the most recently applied tiles.
func (f *Fetcher) Snapshot() []domain.TileAggregate {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.snapshot
}

// InFlight reports whether a fetch is currently running, for loading
// indicators.
func (f *Fetcher) InFlight() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inFlight > 0
}

// fire runs when the quiet window elapses.
func (f *Fetcher) fire() {
	f.mu.Lock()
	v := f.pending
	f.seq++
	seq := f.seq
	f.inFlight++
	f.mu.Unlock()

	f.metrics.FetchesIssued.Inc()
	f.fetch(seq, v)
}

func (f *Fetcher) fetch(seq uint64, v domain.Viewport) {
	tiles, err := f.source.TilesInViewport(context.Background(), v)

	f.mu.Lock()
	defer f.mu.Unlock()
	f.inFlight--

	if err != nil {
		// Keep the previous snapshot; the next viewport change retries.
		f.metrics.FetchesFailed.Inc()
		f.logger.Warn("viewport fetch failed", "error", err,
			"min_lat", v.MinLat, "max_lat", v.MaxLat)
		return
	}
	if seq != f.seq {
		// A newer fetch was issued while this one was in flight.
		f.metrics.FetchesSuperseded.Inc()
		return
	}

	f.snapshot = tiles
	if f.onUpdate != nil {
		cb := f.onUpdate
		go cb(tiles)
	}
}
