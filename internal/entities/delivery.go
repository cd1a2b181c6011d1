package entities

import "time"

type DeliveryStatus string

const (
	DeliveryPending        DeliveryStatus = "pending"
	DeliveryAssigned       DeliveryStatus = "assigned"
	DeliveryOutForDelivery DeliveryStatus = "out_for_delivery"
	DeliveryDelivered      DeliveryStatus = "delivered"
	DeliveryCancelled      DeliveryStatus = "cancelled"
)

func (s DeliveryStatus) String() string {
	return string(s)
}

// allowedTransitions единственный источник правды для переходов статусов.
// Любая запись статуса обязана сверяться с этой таблицей.
var allowedTransitions = map[DeliveryStatus][]DeliveryStatus{
	DeliveryPending:        {DeliveryAssigned, DeliveryCancelled},
	DeliveryAssigned:       {DeliveryOutForDelivery, DeliveryCancelled},
	DeliveryOutForDelivery: {DeliveryDelivered, DeliveryCancelled},
	DeliveryDelivered:      {},
	DeliveryCancelled:      {},
}

func (s DeliveryStatus) CanTransitionTo(next DeliveryStatus) bool {
	for _, allowed := range allowedTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

func (s DeliveryStatus) IsTerminal() bool {
	return len(allowedTransitions[s]) == 0
}

func IsValidDeliveryStatus(s string) bool {
	switch DeliveryStatus(s) {
	case DeliveryPending, DeliveryAssigned, DeliveryOutForDelivery,
		DeliveryDelivered, DeliveryCancelled:
		return true
	default:
		return false
	}
}

// Delivery одна курьерская работа по одному оплаченному заказу.
type Delivery struct {
	ID               string
	OrderID          string
	Fee              int64 // в копейках
	ItemCount        int
	PickupAddress    string
	DropoffAddress   string
	PickupPoint      *GeoPoint
	DropoffPoint     *GeoPoint
	Route            *RouteInfo
	EstimatedArrival *time.Time
	Status           DeliveryStatus
	CourierID        *int64
	CustomerID       int64
	CreatedAt        time.Time
	ScheduledFor     *time.Time
	DriverNotes      string
}

type DeliveryModify struct {
	ID               *string
	PickupPoint      *GeoPoint
	DropoffPoint     *GeoPoint
	Route            *RouteInfo
	EstimatedArrival *time.Time
	ScheduledFor     *time.Time
	DriverNotes      *string
}

type DeliveryFilter struct {
	CourierID *int64
	Status    *DeliveryStatus
	Limit     int
}
