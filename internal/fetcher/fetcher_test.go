package fetcher

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/observability"
)

// --- mock source ---

type mockSource struct {
	mu        sync.Mutex
	calls     []domain.Viewport
	tiles     []domain.TileAggregate
	err       error
	blockOn   chan struct{} // when non-nil, the next call blocks until closed
	blockNext bool
}

func (m *mockSource) TilesInViewport(_ context.Context, v domain.Viewport) ([]domain.TileAggregate, error) {
	m.mu.Lock()
	m.calls = append(m.calls, v)
	block := m.blockNext
	ch := m.blockOn
	m.blockNext = false
	tiles, err := m.tiles, m.err
	m.mu.Unlock()

	if block && ch != nil {
		<-ch
	}
	return tiles, err
}

func (m *mockSource) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.calls)
}

func (m *mockSource) lastCall() domain.Viewport {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls[len(m.calls)-1]
}

func (m *mockSource) setTiles(tiles []domain.TileAggregate, err error) {
	m.mu.Lock()
	m.tiles, m.err = tiles, err
	m.mu.Unlock()
}

func viewportAround(lat, lon float64) domain.Viewport {
	return domain.Viewport{
		MinLat: lat - 0.05, MaxLat: lat + 0.05,
		MinLon: lon - 0.05, MaxLon: lon + 0.05,
	}
}

func tilesNamed(ids ...string) []domain.TileAggregate {
	out := make([]domain.TileAggregate, 0, len(ids))
	for _, id := range ids {
		out = append(out, domain.TileAggregate{TileID: id, TotalEvents: 1})
	}
	return out
}

func newTestFetcher(src TileSource, clock clockwork.Clock) *Fetcher {
	return New(src, 300*time.Millisecond, clock, slog.Default(), observability.NewMetricsForTesting())
}

func TestFetcherDebounce(t *testing.T) {
	t.Run("rapid observations produce one fetch with the last viewport", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		src := &mockSource{}
		src.setTiles(tilesNamed("T_1_1"), nil)
		f := newTestFetcher(src, clock)

		f.Observe(viewportAround(30.70, 76.70))
		clock.Advance(100 * time.Millisecond)
		f.Observe(viewportAround(30.72, 76.72))
		clock.Advance(100 * time.Millisecond)
		f.Observe(viewportAround(30.74, 76.74))

		assert.Equal(t, 0, src.callCount(), "nothing fires before the quiet window")

		clock.Advance(300 * time.Millisecond)
		require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)

		assert.Equal(t, viewportAround(30.74, 76.74), src.lastCall())
		require.Eventually(t, func() bool { return len(f.Snapshot()) == 1 }, time.Second, time.Millisecond)
	})

	t.Run("separate quiet windows fetch separately", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		src := &mockSource{}
		src.setTiles(tilesNamed("T_1_1"), nil)
		f := newTestFetcher(src, clock)

		f.Observe(viewportAround(30.70, 76.70))
		clock.Advance(300 * time.Millisecond)
		require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)

		f.Observe(viewportAround(30.80, 76.80))
		clock.Advance(300 * time.Millisecond)
		require.Eventually(t, func() bool { return src.callCount() == 2 }, time.Second, time.Millisecond)
	})

	t.Run("invalid viewport is ignored", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		src := &mockSource{}
		f := newTestFetcher(src, clock)

		f.Observe(domain.Viewport{MinLat: 31, MaxLat: 30, MinLon: 76, MaxLon: 77})
		clock.Advance(time.Second)
		assert.Equal(t, 0, src.callCount())
	})

	t.Run("stop cancels the pending fetch", func(t *testing.T) {
		clock := clockwork.NewFakeClock()
		src := &mockSource{}
		f := newTestFetcher(src, clock)

		f.Observe(viewportAround(30.70, 76.70))
		f.Stop()
		clock.Advance(time.Second)
		assert.Equal(t, 0, src.callCount())
	})
}

func TestFetcherFailure(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &mockSource{}
	src.setTiles(tilesNamed("T_1_1", "T_2_2"), nil)
	f := newTestFetcher(src, clock)

	f.Observe(viewportAround(30.70, 76.70))
	clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool { return len(f.Snapshot()) == 2 }, time.Second, time.Millisecond)

	// The next fetch fails; the previous snapshot must survive.
	src.setTiles(nil, errors.New("upstream down"))
	f.Observe(viewportAround(30.80, 76.80))
	clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool { return src.callCount() == 2 }, time.Second, time.Millisecond)

	assert.Len(t, f.Snapshot(), 2, "failed fetch must not clear the snapshot")
	assert.Eventually(t, func() bool { return !f.InFlight() }, time.Second, time.Millisecond)
}

func TestFetcherLastRequestWins(t *testing.T) {
	clock := clockwork.NewFakeClock()
	release := make(chan struct{})
	src := &mockSource{blockOn: release, blockNext: true}
	src.setTiles(tilesNamed("stale"), nil)
	f := newTestFetcher(src, clock)

	// First fetch blocks inside the source.
	f.Observe(viewportAround(30.70, 76.70))
	clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool { return src.callCount() == 1 }, time.Second, time.Millisecond)
	require.Eventually(t, func() bool { return f.InFlight() }, time.Second, time.Millisecond)

	// Second fetch completes immediately with fresh tiles.
	src.setTiles(tilesNamed("fresh-1", "fresh-2", "fresh-3"), nil)
	f.Observe(viewportAround(30.90, 76.90))
	clock.Advance(300 * time.Millisecond)
	require.Eventually(t, func() bool { return len(f.Snapshot()) == 3 }, time.Second, time.Millisecond)

	// Now the stale response arrives; it must be discarded.
	close(release)
	require.Eventually(t, func() bool { return !f.InFlight() }, time.Second, time.Millisecond)
	require.Len(t, f.Snapshot(), 3)
	assert.Equal(t, "fresh-1", f.Snapshot()[0].TileID)
}

func TestFetcherOnUpdate(t *testing.T) {
	clock := clockwork.NewFakeClock()
	src := &mockSource{}
	src.setTiles(tilesNamed("T_1_1"), nil)
	f := newTestFetcher(src, clock)

	var mu sync.Mutex
	var got [][]domain.TileAggregate
	f.SetOnUpdate(func(tiles []domain.TileAggregate) {
		mu.Lock()
		got = append(got, tiles)
		mu.Unlock()
	})

	f.Observe(viewportAround(30.70, 76.70))
	clock.Advance(300 * time.Millisecond)

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(got) == 1
	}, time.Second, time.Millisecond)

	mu.Lock()
	assert.Equal(t, "T_1_1", got[0][0].TileID)
	mu.Unlock()
}
