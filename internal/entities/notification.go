package entities

import "time"

type NotificationStatus string

const (
	NotificationPending   NotificationStatus = "pending"
	NotificationSent      NotificationStatus = "sent"
	NotificationAccepted  NotificationStatus = "accepted"
	NotificationRefused   NotificationStatus = "refused"
	NotificationCancelled NotificationStatus = "cancelled"
)

func (s NotificationStatus) String() string {
	return string(s)
}

// DispatchNotification запись "курьеру X предложена доставка Y".
// Для одной доставки статус accepted может получить не более одной записи.
type DispatchNotification struct {
	ID         int64
	CourierID  int64
	DeliveryID string
	Title      string
	Body       string
	Status     NotificationStatus
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
