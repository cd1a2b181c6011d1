package entities

import "time"

// CourierLocation последняя известная позиция курьера.
// В любой момент активной может быть не более одной записи на курьера.
type CourierLocation struct {
	CourierID  int64
	Point      GeoPoint
	RecordedAt time.Time
	Active     bool
}
