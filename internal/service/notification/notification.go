package notification

import (
	"context"
	"fmt"

	"dispatch/internal/entities"
)

const DefaultListLimit = 50

// Notification читает и чистит ящик предложений курьера.
type Notification struct {
	repository Repository
}

func New(repository Repository) *Notification {
	return &Notification{
		repository: repository,
	}
}

func (n *Notification) GetNotification(ctx context.Context, id int64) (*entities.DispatchNotification, error) {
	if id <= 0 {
		return nil, ErrInvalidNotificationID
	}

	notification, err := n.repository.GetByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get notification: %w", err)
	}
	if notification == nil {
		return nil, ErrNotificationNotFound
	}
	return notification, nil
}

func (n *Notification) ListCourierNotifications(ctx context.Context, courierID int64, limit int) ([]entities.DispatchNotification, error) {
	if courierID <= 0 {
		return nil, ErrInvalidCourierID
	}
	if limit < 0 {
		return nil, ErrInvalidLimit
	}
	if limit == 0 {
		limit = DefaultListLimit
	}

	notifications, err := n.repository.ListByCourier(ctx, courierID, limit)
	if err != nil {
		return nil, fmt.Errorf("list courier notifications: %w", err)
	}
	return notifications, nil
}

func (n *Notification) DeleteNotification(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidNotificationID
	}

	if err := n.repository.Delete(ctx, id); err != nil {
		return fmt.Errorf("delete notification: %w", err)
	}
	return nil
}
