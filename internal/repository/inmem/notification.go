package inmem

import (
	"context"
	"sort"
	"sync"
	"time"

	"dispatch/internal/entities"
	"dispatch/internal/service/notification"
)

type NotificationRepository struct {
	mu            sync.RWMutex
	nextID        int64
	notifications map[int64]entities.DispatchNotification
}

func NewNotificationRepository() *NotificationRepository {
	return &NotificationRepository{
		notifications: make(map[int64]entities.DispatchNotification),
	}
}

func (r *NotificationRepository) CreateBatch(_ context.Context, notifications []entities.DispatchNotification) ([]entities.DispatchNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	created := make([]entities.DispatchNotification, 0, len(notifications))
	for _, n := range notifications {
		r.nextID++
		n.ID = r.nextID
		n.UpdatedAt = n.CreatedAt
		r.notifications[n.ID] = n
		created = append(created, n)
	}
	return created, nil
}

func (r *NotificationRepository) MarkSent(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.notifications[id]
	if !ok || stored.Status != entities.NotificationPending {
		return nil
	}

	stored.Status = entities.NotificationSent
	stored.UpdatedAt = time.Now().UTC()
	r.notifications[id] = stored
	return nil
}

func (r *NotificationRepository) UpdateStatus(_ context.Context, id int64, status entities.NotificationStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	stored, ok := r.notifications[id]
	if !ok {
		return notification.ErrNotificationNotFound
	}

	stored.Status = status
	stored.UpdatedAt = time.Now().UTC()
	r.notifications[id] = stored
	return nil
}

func (r *NotificationRepository) CancelPendingByDelivery(_ context.Context, deliveryID string) ([]entities.DispatchNotification, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	cancelled := make([]entities.DispatchNotification, 0)
	for id, stored := range r.notifications {
		if stored.DeliveryID != deliveryID {
			continue
		}
		if stored.Status != entities.NotificationPending && stored.Status != entities.NotificationSent {
			continue
		}

		stored.Status = entities.NotificationCancelled
		stored.UpdatedAt = time.Now().UTC()
		r.notifications[id] = stored
		cancelled = append(cancelled, stored)
	}
	return cancelled, nil
}

func (r *NotificationRepository) GetByID(_ context.Context, id int64) (*entities.DispatchNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.notifications[id]
	if !ok {
		return nil, nil
	}

	result := stored
	return &result, nil
}

func (r *NotificationRepository) GetByDeliveryAndCourier(_ context.Context, deliveryID string, courierID int64) (*entities.DispatchNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, stored := range r.notifications {
		if stored.DeliveryID == deliveryID && stored.CourierID == courierID {
			result := stored
			return &result, nil
		}
	}
	return nil, nil
}

func (r *NotificationRepository) ListByDelivery(_ context.Context, deliveryID string) ([]entities.DispatchNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entities.DispatchNotification, 0)
	for _, stored := range r.notifications {
		if stored.DeliveryID == deliveryID {
			result = append(result, stored)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})
	return result, nil
}

func (r *NotificationRepository) ListByCourier(_ context.Context, courierID int64, limit int) ([]entities.DispatchNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entities.DispatchNotification, 0)
	for _, stored := range r.notifications {
		if stored.CourierID == courierID {
			result = append(result, stored)
		}
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *NotificationRepository) ListStalePending(_ context.Context, olderThan time.Time, limit int) ([]entities.DispatchNotification, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := make([]entities.DispatchNotification, 0)
	for _, stored := range r.notifications {
		if stored.Status != entities.NotificationPending {
			continue
		}
		if !stored.CreatedAt.Before(olderThan) {
			continue
		}
		result = append(result, stored)
	}

	sort.Slice(result, func(i, j int) bool {
		return result[i].ID < result[j].ID
	})

	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func (r *NotificationRepository) Delete(_ context.Context, id int64) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.notifications[id]; !ok {
		return notification.ErrNotificationNotFound
	}

	delete(r.notifications, id)
	return nil
}
