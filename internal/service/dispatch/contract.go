package dispatch

import (
	"context"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/geoindex"
)

type Repository interface {
	Create(ctx context.Context, delivery *entities.Delivery) (*entities.Delivery, error)
	GetByID(ctx context.Context, id string) (*entities.Delivery, error)
	List(ctx context.Context, filter entities.DeliveryFilter) ([]entities.Delivery, error)
	UpdateGeo(ctx context.Context, deliveryModify entities.DeliveryModify) (*entities.Delivery, error)

	// UpdateStatusIf условная запись статуса: успех только если сохранённый
	// статус всё ещё from. Единственный разрешённый способ смены статуса.
	UpdateStatusIf(ctx context.Context, id string, from, to entities.DeliveryStatus) error
}

type NotificationRepository interface {
	CreateBatch(ctx context.Context, notifications []entities.DispatchNotification) ([]entities.DispatchNotification, error)
	MarkSent(ctx context.Context, id int64) error
	CancelPendingByDelivery(ctx context.Context, deliveryID string) ([]entities.DispatchNotification, error)
	ListStalePending(ctx context.Context, olderThan time.Time, limit int) ([]entities.DispatchNotification, error)
}

type CourierService interface {
	AvailableByIDs(ctx context.Context, ids []int64) ([]entities.Courier, error)
	MarkAvailable(ctx context.Context, id int64) error
}

type GeoIndex interface {
	UpsertPosition(ctx context.Context, entityID string, point entities.GeoPoint) error
	Nearby(ctx context.Context, point entities.GeoPoint, radiusKm float64, limit int) ([]geoindex.Position, error)
	Remove(ctx context.Context, entityID string) error
}

type RouteEstimator interface {
	Geocode(ctx context.Context, address string) (*entities.GeoPoint, error)
	Route(ctx context.Context, origin, destination entities.GeoPoint) (*entities.RouteInfo, error)
}

type OrderGateway interface {
	GetOrder(ctx context.Context, orderID string) (*entities.OrderSummary, error)
}

type PushGateway interface {
	SendToCourier(ctx context.Context, courierID int64, title, body string, data map[string]string) error
	ActiveDeviceTokens(ctx context.Context, courierID int64) ([]string, error)
}

type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}
