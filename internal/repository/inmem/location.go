package inmem

import (
	"context"
	"sync"

	"dispatch/internal/entities"
	"dispatch/internal/service/tracking"
)

type LocationRepository struct {
	mu      sync.RWMutex
	current map[int64]entities.CourierLocation
}

func NewLocationRepository() *LocationRepository {
	return &LocationRepository{
		current: make(map[int64]entities.CourierLocation),
	}
}

func (r *LocationRepository) RecordPosition(_ context.Context, location entities.CourierLocation) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	location.Active = true
	r.current[location.CourierID] = location
	return nil
}

func (r *LocationRepository) Current(_ context.Context, courierID int64) (*entities.CourierLocation, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.current[courierID]
	if !ok {
		return nil, tracking.ErrLocationNotFound
	}

	result := stored
	return &result, nil
}
