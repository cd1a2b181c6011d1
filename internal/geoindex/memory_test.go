package geoindex_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/entities"
	"dispatch/internal/geoindex"
)

// Координаты вокруг центра Москвы.
var (
	center   = entities.GeoPoint{Lat: 55.7558, Lon: 37.6173}
	nearCity = entities.GeoPoint{Lat: 55.7601, Lon: 37.6200} // ~0.5 км
	midCity  = entities.GeoPoint{Lat: 55.7800, Lon: 37.6500} // ~3.4 км
	farAway  = entities.GeoPoint{Lat: 55.9000, Lon: 37.9000} // ~24 км
)

func TestMemoryIndex_Nearby(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		radiusKm    float64
		limit       int
		expectedIDs []string
	}{
		{
			name:        "Сортировка по возрастанию дистанции в радиусе",
			radiusKm:    5,
			limit:       10,
			expectedIDs: []string{"courier-1", "courier-2"},
		},
		{
			name:        "Дальние точки отфильтрованы радиусом",
			radiusKm:    1,
			limit:       10,
			expectedIDs: []string{"courier-1"},
		},
		{
			name:        "Лимит обрезает выдачу на стороне индекса",
			radiusKm:    100,
			limit:       1,
			expectedIDs: []string{"courier-1"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			ctx := context.Background()
			idx := geoindex.NewMemoryIndex(10)

			require.NoError(t, idx.UpsertPosition(ctx, "courier-2", midCity))
			require.NoError(t, idx.UpsertPosition(ctx, "courier-1", nearCity))
			require.NoError(t, idx.UpsertPosition(ctx, "courier-3", farAway))

			got, err := idx.Nearby(ctx, center, tt.radiusKm, tt.limit)
			require.NoError(t, err)

			ids := make([]string, 0, len(got))
			for _, p := range got {
				ids = append(ids, p.EntityID)
			}
			assert.Equal(t, tt.expectedIDs, ids)

			for i := 1; i < len(got); i++ {
				assert.LessOrEqual(t, got[i-1].DistanceKm, got[i].DistanceKm)
			}
		})
	}
}

func TestMemoryIndex_UpsertReplacesActivePosition(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := geoindex.NewMemoryIndex(10)

	require.NoError(t, idx.UpsertPosition(ctx, "courier-1", farAway))
	require.NoError(t, idx.UpsertPosition(ctx, "courier-1", nearCity))

	got, err := idx.Nearby(ctx, center, 5, 0)
	require.NoError(t, err)
	require.Len(t, got, 1, "активной должна остаться только последняя позиция")
	assert.Equal(t, "courier-1", got[0].EntityID)
	assert.InDelta(t, nearCity.Lat, got[0].Point.Lat, 1e-9)

	history, err := idx.History(ctx, "courier-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.InDelta(t, nearCity.Lat, history[0].Point.Lat, 1e-9, "история от новых к старым")
	assert.InDelta(t, farAway.Lat, history[1].Point.Lat, 1e-9)
}

func TestMemoryIndex_HistoryBounded(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := geoindex.NewMemoryIndex(3)

	points := []entities.GeoPoint{
		{Lat: 55.01, Lon: 37.01},
		{Lat: 55.02, Lon: 37.02},
		{Lat: 55.03, Lon: 37.03},
		{Lat: 55.04, Lon: 37.04},
		{Lat: 55.05, Lon: 37.05},
	}
	for _, p := range points {
		require.NoError(t, idx.UpsertPosition(ctx, "courier-1", p))
	}

	history, err := idx.History(ctx, "courier-1", 0)
	require.NoError(t, err)
	require.Len(t, history, 3)
	assert.InDelta(t, 55.05, history[0].Point.Lat, 1e-9)
	assert.InDelta(t, 55.03, history[2].Point.Lat, 1e-9)
}

func TestGeoPoint_DistanceKm(t *testing.T) {
	t.Parallel()

	// Москва - Санкт-Петербург, ~634 км.
	moscow := entities.GeoPoint{Lat: 55.7558, Lon: 37.6173}
	spb := entities.GeoPoint{Lat: 59.9343, Lon: 30.3351}

	assert.InDelta(t, 634, moscow.DistanceKm(spb), 5)
	assert.InDelta(t, 0, moscow.DistanceKm(moscow), 1e-9)
}
