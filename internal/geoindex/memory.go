package geoindex

import (
	"context"
	"sort"
	"sync"
	"time"

	"dispatch/internal/entities"
)

// MemoryIndex индекс позиций в памяти с полным перебором по haversine.
// Используется в тестах и как запасной вариант без Redis.
type MemoryIndex struct {
	mu           sync.RWMutex
	positions    map[string]TimedPoint
	history      map[string][]TimedPoint
	historyLimit int
}

func NewMemoryIndex(historyLimit int) *MemoryIndex {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &MemoryIndex{
		positions:    make(map[string]TimedPoint),
		history:      make(map[string][]TimedPoint),
		historyLimit: historyLimit,
	}
}

// UpsertPosition заменяет текущую позицию и дописывает историю одной операцией
// под мьютексом: читатели никогда не видят двух активных позиций.
func (m *MemoryIndex) UpsertPosition(_ context.Context, entityID string, point entities.GeoPoint) error {
	now := time.Now().UTC()

	m.mu.Lock()
	defer m.mu.Unlock()

	entry := TimedPoint{Point: point, RecordedAt: now}
	m.positions[entityID] = entry

	hist := append([]TimedPoint{entry}, m.history[entityID]...)
	if len(hist) > m.historyLimit {
		hist = hist[:m.historyLimit]
	}
	m.history[entityID] = hist

	return nil
}

func (m *MemoryIndex) Nearby(_ context.Context, point entities.GeoPoint, radiusKm float64, limit int) ([]Position, error) {
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Position, 0, len(m.positions))
	for entityID, entry := range m.positions {
		dist := point.DistanceKm(entry.Point)
		if dist > radiusKm {
			continue
		}
		result = append(result, Position{
			EntityID:   entityID,
			Point:      entry.Point,
			DistanceKm: dist,
		})
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].DistanceKm < result[j].DistanceKm
	})

	if len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (m *MemoryIndex) History(_ context.Context, entityID string, limit int) ([]TimedPoint, error) {
	if limit <= 0 {
		limit = m.historyLimit
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	hist := m.history[entityID]
	if len(hist) > limit {
		hist = hist[:limit]
	}

	out := make([]TimedPoint, len(hist))
	copy(out, hist)
	return out, nil
}

func (m *MemoryIndex) Remove(_ context.Context, entityID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.positions, entityID)
	delete(m.history, entityID)
	return nil
}
