package courier

import (
	"context"
	"errors"
	"fmt"

	"dispatch/internal/entities"
)

type Courier struct {
	repository Repository
}

func New(repository Repository) *Courier {
	return &Courier{
		repository: repository,
	}
}

func (s *Courier) CreateCourier(ctx context.Context, courierModify entities.CourierModify) (int64, error) {
	if courierModify.Name == nil ||
		courierModify.Phone == nil ||
		courierModify.Status == nil ||
		courierModify.TransportType == nil {
		return 0, ErrMissingRequiredFields
	}

	if !isValidName(*courierModify.Name) {
		return 0, ErrInvalidName
	}
	if !isValidPhone(*courierModify.Phone) {
		return 0, ErrInvalidPhone
	}
	if !isValidStatus(courierModify.Status.String()) {
		return 0, ErrInvalidStatus
	}
	if !isValidTransport(courierModify.TransportType.String()) {
		return 0, ErrInvalidTransport
	}

	id, err := s.repository.Create(ctx, courierModify)
	if err != nil {
		return 0, fmt.Errorf("create courier: %w", err)
	}

	return id, nil
}

func (s *Courier) UpdateCourier(ctx context.Context, courierModify entities.CourierModify) (*entities.Courier, error) {
	if courierModify.Name == nil &&
		courierModify.Phone == nil &&
		courierModify.Status == nil &&
		courierModify.TransportType == nil &&
		courierModify.MeanDeliveryTime == nil {
		return nil, fmt.Errorf("no fields to update: %w", ErrMissingRequiredFields)
	}

	if courierModify.Name != nil && !isValidName(*courierModify.Name) {
		return nil, ErrInvalidName
	}
	if courierModify.Phone != nil && !isValidPhone(*courierModify.Phone) {
		return nil, ErrInvalidPhone
	}
	if courierModify.Status != nil && !isValidStatus(courierModify.Status.String()) {
		return nil, ErrInvalidStatus
	}
	if courierModify.TransportType != nil && !isValidTransport(courierModify.TransportType.String()) {
		return nil, ErrInvalidTransport
	}

	courier, err := s.repository.Update(ctx, courierModify)
	if err != nil {
		return nil, fmt.Errorf("update courier: %w", err)
	}
	return courier, nil
}

func (s *Courier) GetCourier(ctx context.Context, id int64) (*entities.Courier, error) {
	courier, err := s.repository.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get courier: %w", err)
	}

	return courier, nil
}

func (s *Courier) GetCouriers(ctx context.Context) ([]entities.Courier, error) {
	couriers, err := s.repository.GetAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("get couriers: %w", err)
	}

	return couriers, nil
}

// AvailableByIDs отбирает из списка кандидатов только свободных курьеров.
func (s *Courier) AvailableByIDs(ctx context.Context, ids []int64) ([]entities.Courier, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	couriers, err := s.repository.ListByIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("list couriers by ids: %w", err)
	}

	available := make([]entities.Courier, 0, len(couriers))
	for _, c := range couriers {
		if c.Status == entities.CourierAvailable {
			available = append(available, c)
		}
	}
	return available, nil
}

// MarkBusy условный перевод available -> busy: курьеру нельзя предложить
// две доставки одновременно. При конфликте повторяем один раз:
// конфликт мог быть вызван не гонкой за этого курьера, а устаревшим чтением.
func (s *Courier) MarkBusy(ctx context.Context, id int64) error {
	err := s.repository.SetStatusIf(ctx, id, entities.CourierAvailable, entities.CourierBusy)
	if errors.Is(err, ErrStatusConflict) {
		err = s.repository.SetStatusIf(ctx, id, entities.CourierAvailable, entities.CourierBusy)
	}
	if err != nil {
		return fmt.Errorf("mark courier busy: %w", err)
	}
	return nil
}

// MarkAvailable обратный перевод busy -> available после завершения доставки.
func (s *Courier) MarkAvailable(ctx context.Context, id int64) error {
	err := s.repository.SetStatusIf(ctx, id, entities.CourierBusy, entities.CourierAvailable)
	if err != nil {
		return fmt.Errorf("mark courier available: %w", err)
	}
	return nil
}
