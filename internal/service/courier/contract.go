package courier

import (
	"context"

	"dispatch/internal/entities"
)

type Repository interface {
	Create(ctx context.Context, courierModify entities.CourierModify) (int64, error)
	Update(ctx context.Context, courierModify entities.CourierModify) (*entities.Courier, error)
	GetByID(ctx context.Context, id int64) (*entities.Courier, error)
	GetAll(ctx context.Context) ([]entities.Courier, error)
	ListByIDs(ctx context.Context, ids []int64) ([]entities.Courier, error)

	// SetStatusIf условная запись статуса: успех только если текущий статус
	// всё ещё from. Возвращает ErrStatusConflict при проигранной гонке.
	SetStatusIf(ctx context.Context, id int64, from, to entities.CourierStatusType) error
}
