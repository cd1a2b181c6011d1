package location

import (
	"dispatch/internal/entities"
)

func ToDomain(l *LocationDB) *entities.CourierLocation {
	if l == nil {
		return nil
	}

	return &entities.CourierLocation{
		CourierID:  l.CourierID,
		Point:      entities.GeoPoint{Lat: l.Lat, Lon: l.Lon},
		RecordedAt: l.RecordedAt,
		Active:     l.Active,
	}
}
