package assignment

import (
	"context"

	"dispatch/internal/entities"
)

type DeliveryRepository interface {
	GetByID(ctx context.Context, id string) (*entities.Delivery, error)

	// AssignCourierIf атомарно назначает курьера: срабатывает только пока
	// доставка pending и без курьера, иначе ErrAlreadyAssigned.
	AssignCourierIf(ctx context.Context, deliveryID string, courierID int64) error
}

type NotificationRepository interface {
	GetByDeliveryAndCourier(ctx context.Context, deliveryID string, courierID int64) (*entities.DispatchNotification, error)
	ListByDelivery(ctx context.Context, deliveryID string) ([]entities.DispatchNotification, error)
	UpdateStatus(ctx context.Context, id int64, status entities.NotificationStatus) error
}

type CourierService interface {
	MarkBusy(ctx context.Context, id int64) error
	MarkAvailable(ctx context.Context, id int64) error
}

type PushGateway interface {
	SendToCourier(ctx context.Context, courierID int64, title, body string, data map[string]string) error
}
