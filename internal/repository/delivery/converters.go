package delivery

import (
	"encoding/json"

	"dispatch/internal/entities"
)

func ToDomain(d *DeliveryDB) *entities.Delivery {
	if d == nil {
		return nil
	}

	delivery := &entities.Delivery{
		ID:               d.ID,
		OrderID:          d.OrderID,
		Fee:              d.Fee,
		ItemCount:        int(d.ItemCount),
		PickupAddress:    d.PickupAddress,
		DropoffAddress:   d.DropoffAddress,
		EstimatedArrival: d.EstimatedArrival,
		Status:           entities.DeliveryStatus(d.Status),
		CourierID:        d.CourierID,
		CustomerID:       d.CustomerID,
		CreatedAt:        d.CreatedAt,
		ScheduledFor:     d.ScheduledFor,
		DriverNotes:      d.DriverNotes,
	}

	if d.PickupLat != nil && d.PickupLon != nil {
		delivery.PickupPoint = &entities.GeoPoint{Lat: *d.PickupLat, Lon: *d.PickupLon}
	}
	if d.DropoffLat != nil && d.DropoffLon != nil {
		delivery.DropoffPoint = &entities.GeoPoint{Lat: *d.DropoffLat, Lon: *d.DropoffLon}
	}

	if len(d.Route) > 0 {
		var route entities.RouteInfo
		// битый json маршрута не валит чтение доставки
		if err := json.Unmarshal(d.Route, &route); err == nil {
			delivery.Route = &route
		}
	}

	return delivery
}

func ToDomainList(deliveriesDB []DeliveryDB) []entities.Delivery {
	if len(deliveriesDB) == 0 {
		return []entities.Delivery{}
	}

	result := make([]entities.Delivery, len(deliveriesDB))
	for i, deliveryDB := range deliveriesDB {
		result[i] = *ToDomain(&deliveryDB)
	}
	return result
}

func routeToJSON(route *entities.RouteInfo) ([]byte, error) {
	if route == nil {
		return nil, nil
	}
	return json.Marshal(route)
}
