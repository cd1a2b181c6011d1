package geoindex

import (
	"time"

	"dispatch/internal/entities"
)

// DefaultNearbyLimit ограничивает выдачу Nearby на стороне индекса,
// чтобы размер fan-out был предсказуем.
const DefaultNearbyLimit = 20

// Position результат поиска по радиусу, упорядочен по возрастанию дистанции.
type Position struct {
	EntityID   string
	Point      entities.GeoPoint
	DistanceKm float64
}

// TimedPoint элемент истории позиций.
type TimedPoint struct {
	Point      entities.GeoPoint
	RecordedAt time.Time
}
