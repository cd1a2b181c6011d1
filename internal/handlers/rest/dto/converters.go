package dto

import "dispatch/internal/entities"

func FromDelivery(delivery entities.Delivery) Delivery {
	result := Delivery{
		ID:               delivery.ID,
		OrderID:          delivery.OrderID,
		Status:           delivery.Status.String(),
		CourierID:        delivery.CourierID,
		Fee:              delivery.Fee,
		ItemCount:        delivery.ItemCount,
		PickupAddress:    delivery.PickupAddress,
		DropoffAddress:   delivery.DropoffAddress,
		EstimatedArrival: delivery.EstimatedArrival,
		CreatedAt:        delivery.CreatedAt,
		ScheduledFor:     delivery.ScheduledFor,
		DriverNotes:      delivery.DriverNotes,
	}
	if delivery.PickupPoint != nil {
		result.PickupPoint = &Point{Lat: delivery.PickupPoint.Lat, Lon: delivery.PickupPoint.Lon}
	}
	if delivery.DropoffPoint != nil {
		result.DropoffPoint = &Point{Lat: delivery.DropoffPoint.Lat, Lon: delivery.DropoffPoint.Lon}
	}
	return result
}

func FromRoute(route entities.RouteInfo) Route {
	result := Route{
		DistanceMeters:  route.DistanceMeters,
		DurationSeconds: route.DurationSeconds,
		Polyline:        route.Polyline,
	}
	for _, waypoint := range route.Waypoints {
		result.Waypoints = append(result.Waypoints, Point{Lat: waypoint.Lat, Lon: waypoint.Lon})
	}
	return result
}

func FromNotification(notification entities.DispatchNotification) Notification {
	return Notification{
		ID:         notification.ID,
		CourierID:  notification.CourierID,
		DeliveryID: notification.DeliveryID,
		Title:      notification.Title,
		Body:       notification.Body,
		Status:     notification.Status.String(),
		CreatedAt:  notification.CreatedAt,
	}
}

func FromCourier(courier entities.Courier) Courier {
	return Courier{
		ID:            courier.ID,
		UserID:        courier.UserID,
		Name:          courier.Name,
		Phone:         courier.Phone,
		Status:        courier.Status.String(),
		TransportType: courier.TransportType.String(),
	}
}
