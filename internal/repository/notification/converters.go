package notification

import (
	"dispatch/internal/entities"
)

func ToDomain(n *NotificationDB) *entities.DispatchNotification {
	if n == nil {
		return nil
	}

	return &entities.DispatchNotification{
		ID:         n.ID,
		CourierID:  n.CourierID,
		DeliveryID: n.DeliveryID,
		Title:      n.Title,
		Body:       n.Body,
		Status:     entities.NotificationStatus(n.Status),
		CreatedAt:  n.CreatedAt,
		UpdatedAt:  n.UpdatedAt,
	}
}

func ToDomainList(notificationsDB []NotificationDB) []entities.DispatchNotification {
	if len(notificationsDB) == 0 {
		return []entities.DispatchNotification{}
	}

	result := make([]entities.DispatchNotification, len(notificationsDB))
	for i, notificationDB := range notificationsDB {
		result[i] = *ToDomain(&notificationDB)
	}
	return result
}
