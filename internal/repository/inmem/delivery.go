// Package inmem содержит потокобезопасные реализации хранилищ в памяти.
// Семантика ошибок и условных записей совпадает с postgres-реализациями,
// поэтому пакет пригоден и для тестов, и для локального запуска без базы.
package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/service/assignment"
	"dispatch/internal/service/dispatch"
)

type DeliveryRepository struct {
	mu         sync.RWMutex
	deliveries map[string]entities.Delivery
	orderIndex map[string]string
}

func NewDeliveryRepository() *DeliveryRepository {
	return &DeliveryRepository{
		deliveries: make(map[string]entities.Delivery),
		orderIndex: make(map[string]string),
	}
}

func (r *DeliveryRepository) Create(_ context.Context, delivery *entities.Delivery) (*entities.Delivery, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.orderIndex[delivery.OrderID]; ok {
		return nil, dispatch.ErrDeliveryExists
	}

	stored := *delivery
	r.deliveries[stored.ID] = stored
	r.orderIndex[stored.OrderID] = stored.ID

	result := stored
	return &result, nil
}

func (r *DeliveryRepository) GetByID(_ context.Context, id string) (*entities.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.deliveries[id]
	if !ok {
		return nil, dispatch.ErrDeliveryNotFound
	}

	result := stored
	return &result, nil
}

func (r *DeliveryRepository) List(_ context.Context, filter entities.DeliveryFilter) ([]entities.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entities.Delivery, 0, len(r.deliveries))
	for _, stored := range r.deliveries {
		if filter.CourierID != nil && (stored.CourierID == nil || *stored.CourierID != *filter.CourierID) {
			continue
		}
		if filter.Status != nil && stored.Status != *filter.Status {
			continue
		}
		result = append(result, stored)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if filter.Limit > 0 && len(result) > filter.Limit {
		result = result[:filter.Limit]
	}
	return result, nil
}

func (r *DeliveryRepository) UpdateGeo(_ context.Context, deliveryModify entities.DeliveryModify) (*entities.Delivery, error) {
	if deliveryModify.ID == nil {
		return nil, dispatch.ErrInvalidDeliveryID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.deliveries[*deliveryModify.ID]
	if !ok {
		return nil, dispatch.ErrDeliveryNotFound
	}

	if deliveryModify.PickupPoint != nil {
		point := *deliveryModify.PickupPoint
		stored.PickupPoint = &point
	}
	if deliveryModify.DropoffPoint != nil {
		point := *deliveryModify.DropoffPoint
		stored.DropoffPoint = &point
	}
	if deliveryModify.Route != nil {
		route := *deliveryModify.Route
		stored.Route = &route
	}
	if deliveryModify.EstimatedArrival != nil {
		arrival := *deliveryModify.EstimatedArrival
		stored.EstimatedArrival = &arrival
	}
	if deliveryModify.ScheduledFor != nil {
		scheduled := *deliveryModify.ScheduledFor
		stored.ScheduledFor = &scheduled
	}
	if deliveryModify.DriverNotes != nil {
		stored.DriverNotes = *deliveryModify.DriverNotes
	}

	r.deliveries[stored.ID] = stored
	result := stored
	return &result, nil
}

func (r *DeliveryRepository) UpdateStatusIf(_ context.Context, id string, from, to entities.DeliveryStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.deliveries[id]
	if !ok {
		return dispatch.ErrDeliveryNotFound
	}
	if stored.Status != from {
		return dispatch.ErrStatusConflict
	}

	stored.Status = to
	r.deliveries[id] = stored
	return nil
}

func (r *DeliveryRepository) AssignCourierIf(_ context.Context, deliveryID string, courierID int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.deliveries[deliveryID]
	if !ok {
		return assignment.ErrDeliveryNotFound
	}
	if stored.Status != entities.DeliveryPending || stored.CourierID != nil {
		return assignment.ErrAlreadyAssigned
	}

	stored.Status = entities.DeliveryAssigned
	stored.CourierID = &courierID
	r.deliveries[deliveryID] = stored
	return nil
}

func (r *DeliveryRepository) GetActiveByCourier(_ context.Context, courierID int64) (*entities.Delivery, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var found *entities.Delivery
	for _, stored := range r.deliveries {
		if stored.CourierID == nil || *stored.CourierID != courierID {
			continue
		}
		if stored.Status != entities.DeliveryAssigned && stored.Status != entities.DeliveryOutForDelivery {
			continue
		}
		if found == nil || stored.CreatedAt.After(found.CreatedAt) {
			result := stored
			found = &result
		}
	}
	return found, nil
}

func (r *DeliveryRepository) UpdateArrival(_ context.Context, deliveryID string, arrival time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.deliveries[deliveryID]
	if !ok {
		return dispatch.ErrDeliveryNotFound
	}

	stored.EstimatedArrival = &arrival
	r.deliveries[deliveryID] = stored
	return nil
}
