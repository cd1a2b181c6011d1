package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/service/courier"
)

type CourierRepository struct {
	mu       sync.RWMutex
	nextID   int64
	couriers map[int64]entities.Courier
}

func NewCourierRepository() *CourierRepository {
	return &CourierRepository{
		couriers: make(map[int64]entities.Courier),
	}
}

func (r *CourierRepository) Create(_ context.Context, courierModify entities.CourierModify) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if courierModify.Phone != nil {
		for _, stored := range r.couriers {
			if stored.Phone == *courierModify.Phone {
				return 0, courier.ErrConflict
			}
		}
	}

	r.nextID++
	now := time.Now().UTC()
	stored := entities.Courier{
		ID:            r.nextID,
		Status:        entities.DefaultStatusType,
		TransportType: entities.DefaultTransportType,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	applyModify(&stored, courierModify)
	r.couriers[stored.ID] = stored

	return stored.ID, nil
}

func (r *CourierRepository) Update(_ context.Context, courierModify entities.CourierModify) (*entities.Courier, error) {
	if courierModify.ID == nil {
		return nil, courier.ErrCourierNotFound
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.couriers[*courierModify.ID]
	if !ok {
		return nil, courier.ErrCourierNotFound
	}

	applyModify(&stored, courierModify)
	stored.UpdatedAt = time.Now().UTC()
	r.couriers[stored.ID] = stored

	result := stored
	return &result, nil
}

func (r *CourierRepository) GetByID(_ context.Context, id int64) (*entities.Courier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.couriers[id]
	if !ok {
		return nil, courier.ErrCourierNotFound
	}

	result := stored
	return &result, nil
}

func (r *CourierRepository) GetAll(_ context.Context) ([]entities.Courier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entities.Courier, 0, len(r.couriers))
	for _, stored := range r.couriers {
		result = append(result, stored)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *CourierRepository) ListByIDs(_ context.Context, ids []int64) ([]entities.Courier, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entities.Courier, 0, len(ids))
	for _, id := range ids {
		if stored, ok := r.couriers[id]; ok {
			result = append(result, stored)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *CourierRepository) SetStatusIf(_ context.Context, id int64, from, to entities.CourierStatusType) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.couriers[id]
	if !ok {
		return courier.ErrCourierNotFound
	}
	if stored.Status != from {
		return courier.ErrStatusConflict
	}

	stored.Status = to
	stored.UpdatedAt = time.Now().UTC()
	r.couriers[id] = stored
	return nil
}

func applyModify(stored *entities.Courier, courierModify entities.CourierModify) {
	if courierModify.UserID != nil {
		stored.UserID = *courierModify.UserID
	}
	if courierModify.Name != nil {
		stored.Name = *courierModify.Name
	}
	if courierModify.Phone != nil {
		stored.Phone = *courierModify.Phone
	}
	if courierModify.Status != nil {
		stored.Status = *courierModify.Status
	}
	if courierModify.TransportType != nil {
		stored.TransportType = *courierModify.TransportType
	}
	if courierModify.MeanDeliveryTime != nil {
		stored.MeanDeliveryTime = *courierModify.MeanDeliveryTime
	}
}
