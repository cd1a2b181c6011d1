package geoindex_test

import (
	"context"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"dispatch/internal/geoindex"
)

func newRedisIndex(t *testing.T) *geoindex.RedisIndex {
	t.Helper()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return geoindex.NewRedisIndex(client, "geo:couriers", 5)
}

func TestRedisIndex_NearbyOrdering(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := newRedisIndex(t)

	require.NoError(t, idx.UpsertPosition(ctx, "courier-2", midCity))
	require.NoError(t, idx.UpsertPosition(ctx, "courier-1", nearCity))
	require.NoError(t, idx.UpsertPosition(ctx, "courier-3", farAway))

	got, err := idx.Nearby(ctx, center, 5, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "courier-1", got[0].EntityID)
	assert.Equal(t, "courier-2", got[1].EntityID)
	assert.Less(t, got[0].DistanceKm, got[1].DistanceKm)
}

func TestRedisIndex_UpsertAndHistory(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := newRedisIndex(t)

	require.NoError(t, idx.UpsertPosition(ctx, "courier-1", farAway))
	require.NoError(t, idx.UpsertPosition(ctx, "courier-1", nearCity))

	got, err := idx.Nearby(ctx, center, 5, 0)
	require.NoError(t, err)
	require.Len(t, got, 1, "GEOADD перезаписывает member, активная позиция одна")

	history, err := idx.History(ctx, "courier-1", 10)
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.InDelta(t, nearCity.Lat, history[0].Point.Lat, 1e-4)
	assert.InDelta(t, farAway.Lat, history[1].Point.Lat, 1e-4)
}

func TestRedisIndex_Remove(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	idx := newRedisIndex(t)

	require.NoError(t, idx.UpsertPosition(ctx, "courier-1", nearCity))
	require.NoError(t, idx.Remove(ctx, "courier-1"))

	got, err := idx.Nearby(ctx, center, 100, 0)
	require.NoError(t, err)
	assert.Empty(t, got)

	history, err := idx.History(ctx, "courier-1", 10)
	require.NoError(t, err)
	assert.Empty(t, history)
}
