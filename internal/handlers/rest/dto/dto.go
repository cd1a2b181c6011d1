// Package dto содержит типы запросов и ответов REST API.
package dto

import "time"

type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

type TimedPoint struct {
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	RecordedAt time.Time `json:"recorded_at"`
}

type DeliveryCreate struct {
	OrderID string `json:"order_id"`
}

type Delivery struct {
	ID               string     `json:"id"`
	OrderID          string     `json:"order_id"`
	Status           string     `json:"status"`
	CourierID        *int64     `json:"courier_id,omitempty"`
	Fee              int64      `json:"fee"`
	ItemCount        int        `json:"item_count"`
	PickupAddress    string     `json:"pickup_address"`
	DropoffAddress   string     `json:"dropoff_address"`
	PickupPoint      *Point     `json:"pickup_point,omitempty"`
	DropoffPoint     *Point     `json:"dropoff_point,omitempty"`
	EstimatedArrival *time.Time `json:"estimated_arrival,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
	ScheduledFor     *time.Time `json:"scheduled_for,omitempty"`
	DriverNotes      string     `json:"driver_notes,omitempty"`
}

type DeliveryList struct {
	Deliveries []Delivery `json:"deliveries"`
}

type DeliveryStatusUpdate struct {
	Status string `json:"status"`
}

type DeliveryAcceptRequest struct {
	CourierID int64 `json:"courier_id"`
}

type DeliveryRefuseRequest struct {
	CourierID int64 `json:"courier_id"`
}

type Route struct {
	DistanceMeters  float64 `json:"distance_meters"`
	DurationSeconds int64   `json:"duration_seconds"`
	Polyline        string  `json:"polyline,omitempty"`
	Waypoints       []Point `json:"waypoints,omitempty"`
}

type LocationReport struct {
	Lat        float64    `json:"lat"`
	Lon        float64    `json:"lon"`
	RecordedAt *time.Time `json:"recorded_at,omitempty"`
}

type Location struct {
	CourierID  int64     `json:"courier_id"`
	Lat        float64   `json:"lat"`
	Lon        float64   `json:"lon"`
	RecordedAt time.Time `json:"recorded_at"`
}

type LocationHistory struct {
	CourierID int64        `json:"courier_id"`
	Points    []TimedPoint `json:"points"`
}

type Notification struct {
	ID         int64     `json:"id"`
	CourierID  int64     `json:"courier_id"`
	DeliveryID string    `json:"delivery_id"`
	Title      string    `json:"title"`
	Body       string    `json:"body"`
	Status     string    `json:"status"`
	CreatedAt  time.Time `json:"created_at"`
}

type NotificationList struct {
	Notifications []Notification `json:"notifications"`
}

type CourierCreate struct {
	UserID        int64  `json:"user_id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Status        string `json:"status"`
	TransportType string `json:"transport_type"`
}

type CourierCreateResponse struct {
	ID int64 `json:"id"`
}

type CourierUpdate struct {
	Name          *string `json:"name,omitempty"`
	Phone         *string `json:"phone,omitempty"`
	Status        *string `json:"status,omitempty"`
	TransportType *string `json:"transport_type,omitempty"`
}

type Courier struct {
	ID            int64  `json:"id"`
	UserID        int64  `json:"user_id"`
	Name          string `json:"name"`
	Phone         string `json:"phone"`
	Status        string `json:"status"`
	TransportType string `json:"transport_type"`
}

type CourierList struct {
	Couriers []Courier `json:"couriers"`
}

type PingResponse struct {
	Message *string `json:"message,omitempty"`
}
