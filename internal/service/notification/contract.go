package notification

import (
	"context"

	"dispatch/internal/entities"
)

type Repository interface {
	GetByID(ctx context.Context, id int64) (*entities.DispatchNotification, error)
	ListByCourier(ctx context.Context, courierID int64, limit int) ([]entities.DispatchNotification, error)
	Delete(ctx context.Context, id int64) error
}
