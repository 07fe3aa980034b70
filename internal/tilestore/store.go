// Package tilestore keeps the most recent sensor events per grid tile and
// serves recomputed tile aggregates to the API and the viewport fetcher.
package tilestore

import (
	"sort"
	"sync"

	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/domain"
	"github.com/Dynamic-Road-Monitoring-and-Safety-Proj/web-v2-sub000/internal/tiles"
)

// DefaultRetain is how many events each tile keeps. Aggregates describe the
// recent state of a road segment, not its full history.
const DefaultRetain = 20

// Store is a thread-safe in-memory event store keyed by tile id.
type Store struct {
	retain int

	mu     sync.RWMutex
	events map[string][]domain.SensorEvent
}

// New creates a Store retaining the given number of events per tile.
// A retain of zero or less selects DefaultRetain.
func New(retain int) *Store {
	if retain <= 0 {
		retain = DefaultRetain
	}
	return &Store{
		retain: retain,
		events: make(map[string][]domain.SensorEvent),
	}
}

// Add records an event under its tile, dropping the oldest retained event
// when the tile is full. Events without a tile id are ignored; they carry no
// usable location.
func (s *Store) Add(e domain.SensorEvent) {
	if e.TileID == "" {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	evs := append(s.events[e.TileID], e)
	if len(evs) > s.retain {
		evs = evs[len(evs)-s.retain:]
	}
	s.events[e.TileID] = evs
}

// AddBatch records a batch of events.
func (s *Store) AddBatch(events []domain.SensorEvent) {
	for _, e := range events {
		s.Add(e)
	}
}

// Tile returns the aggregate for one tile id.
func (s *Store) Tile(id string) (domain.TileAggregate, bool) {
	s.mu.RLock()
	evs, ok := s.events[id]
	s.mu.RUnlock()
	if !ok {
		return domain.TileAggregate{}, false
	}
	return s.aggregate(id, evs), true
}

// TilesInViewport returns the aggregates of every stored tile whose center
// lies inside the viewport and which retains at least minEvents events.
// Output is sorted by tile id.
func (s *Store) TilesInViewport(v domain.Viewport, minEvents int) []domain.TileAggregate {
	if !v.Valid() {
		return nil
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TileAggregate
	for id, evs := range s.events {
		if len(evs) < minEvents {
			continue
		}
		lat, lon, err := tiles.CellCenter(id)
		if err != nil || !v.Contains(lat, lon) {
			continue
		}
		out = append(out, s.aggregate(id, evs))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TileID < out[j].TileID })
	return out
}

// AllTiles returns every stored tile's aggregate, sorted by tile id.
func (s *Store) AllTiles(minEvents int) []domain.TileAggregate {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.TileAggregate
	for id, evs := range s.events {
		if len(evs) < minEvents {
			continue
		}
		out = append(out, s.aggregate(id, evs))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].TileID < out[j].TileID })
	return out
}

// Len returns the number of tiles holding at least one event.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.events)
}

func (s *Store) aggregate(id string, evs []domain.SensorEvent) domain.TileAggregate {
	agg := domain.AggregateTileEvents(id, evs)
	if lat, lon, err := tiles.CellCenter(id); err == nil {
		agg.CenterLat = lat
		agg.CenterLon = lon
	}
	return agg
}
