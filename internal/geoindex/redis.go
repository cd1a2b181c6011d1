package geoindex

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"dispatch/internal/entities"
)

// RedisIndex хранит текущие позиции в геонаборе Redis (GEOADD/GEORADIUS),
// историю в списке на сущность (LPUSH + LTRIM).
type RedisIndex struct {
	client       *redis.Client
	namespace    string
	historyLimit int
}

func NewRedisIndex(client *redis.Client, namespace string, historyLimit int) *RedisIndex {
	if historyLimit <= 0 {
		historyLimit = 100
	}
	return &RedisIndex{
		client:       client,
		namespace:    namespace,
		historyLimit: historyLimit,
	}
}

type historyEntry struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
	At  int64   `json:"at"`
}

// UpsertPosition: GEOADD перезаписывает member, поэтому активная позиция
// всегда одна; вместе с историей выполняется в одном MULTI/EXEC.
func (r *RedisIndex) UpsertPosition(ctx context.Context, entityID string, point entities.GeoPoint) error {
	now := time.Now().UTC()

	payload, err := json.Marshal(historyEntry{
		Lat: point.Lat,
		Lon: point.Lon,
		At:  now.UnixNano(),
	})
	if err != nil {
		return fmt.Errorf("marshal history entry: %w", err)
	}

	historyKey := r.historyKey(entityID)

	pipe := r.client.TxPipeline()
	pipe.GeoAdd(ctx, r.namespace, &redis.GeoLocation{
		Name:      entityID,
		Longitude: point.Lon,
		Latitude:  point.Lat,
	})
	pipe.LPush(ctx, historyKey, payload)
	pipe.LTrim(ctx, historyKey, 0, int64(r.historyLimit-1))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis geo upsert %q: %w", entityID, err)
	}
	return nil
}

func (r *RedisIndex) Nearby(ctx context.Context, point entities.GeoPoint, radiusKm float64, limit int) ([]Position, error) {
	if limit <= 0 {
		limit = DefaultNearbyLimit
	}

	locations, err := r.client.GeoRadius(ctx, r.namespace, point.Lon, point.Lat, &redis.GeoRadiusQuery{
		Radius:    radiusKm,
		Unit:      "km",
		WithCoord: true,
		WithDist:  true,
		Count:     limit,
		Sort:      "ASC",
	}).Result()
	if err != nil {
		return nil, fmt.Errorf("redis geo radius: %w", err)
	}

	result := make([]Position, 0, len(locations))
	for _, loc := range locations {
		result = append(result, Position{
			EntityID:   loc.Name,
			Point:      entities.GeoPoint{Lat: loc.Latitude, Lon: loc.Longitude},
			DistanceKm: loc.Dist,
		})
	}
	return result, nil
}

func (r *RedisIndex) History(ctx context.Context, entityID string, limit int) ([]TimedPoint, error) {
	if limit <= 0 {
		limit = r.historyLimit
	}

	raw, err := r.client.LRange(ctx, r.historyKey(entityID), 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("redis geo history %q: %w", entityID, err)
	}

	result := make([]TimedPoint, 0, len(raw))
	for _, item := range raw {
		var entry historyEntry
		if err := json.Unmarshal([]byte(item), &entry); err != nil {
			return nil, fmt.Errorf("unmarshal history entry: %w", err)
		}
		result = append(result, TimedPoint{
			Point:      entities.GeoPoint{Lat: entry.Lat, Lon: entry.Lon},
			RecordedAt: time.Unix(0, entry.At).UTC(),
		})
	}
	return result, nil
}

func (r *RedisIndex) Remove(ctx context.Context, entityID string) error {
	pipe := r.client.TxPipeline()
	pipe.ZRem(ctx, r.namespace, entityID)
	pipe.Del(ctx, r.historyKey(entityID))

	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("redis geo remove %q: %w", entityID, err)
	}
	return nil
}

func (r *RedisIndex) historyKey(entityID string) string {
	return r.namespace + ":history:" + entityID
}
