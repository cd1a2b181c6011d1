package tracking

import (
	"context"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/geoindex"
)

type LocationRepository interface {
	// RecordPosition сохраняет новую активную точку курьера и снимает
	// признак активности с предыдущей.
	RecordPosition(ctx context.Context, location entities.CourierLocation) error
	Current(ctx context.Context, courierID int64) (*entities.CourierLocation, error)
}

type DeliveryRepository interface {
	GetActiveByCourier(ctx context.Context, courierID int64) (*entities.Delivery, error)
	UpdateArrival(ctx context.Context, deliveryID string, arrival time.Time) error
}

type GeoIndex interface {
	UpsertPosition(ctx context.Context, entityID string, point entities.GeoPoint) error
	History(ctx context.Context, entityID string, limit int) ([]geoindex.TimedPoint, error)
}

type Estimator interface {
	TravelTimeSeconds(ctx context.Context, origin, destination entities.GeoPoint, departure time.Time) (int64, error)
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
