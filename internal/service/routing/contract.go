package routing

import (
	"context"
	"time"

	"dispatch/internal/entities"
)

// MapProvider внешний картографический сервис (геокодинг, маршруты, матрица времени).
type MapProvider interface {
	// Geocode возвращает (nil, nil), если адрес не распознан.
	Geocode(ctx context.Context, address string) (*entities.GeoPoint, error)
	Directions(ctx context.Context, origin, destination entities.GeoPoint) (*entities.RouteInfo, error)
	TravelTime(ctx context.Context, origin, destination entities.GeoPoint, departure time.Time) (int64, error)
}
