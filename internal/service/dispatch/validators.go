package dispatch

import (
	"strings"

	"github.com/google/uuid"

	"dispatch/internal/entities"
)

func isValidOrderID(orderID string) bool {
	return strings.TrimSpace(orderID) != ""
}

func isValidDeliveryID(deliveryID string) bool {
	_, err := uuid.Parse(deliveryID)
	return err == nil
}

func isValidFilter(filter entities.DeliveryFilter) bool {
	if filter.Limit < 0 {
		return false
	}
	if filter.Status != nil && !entities.IsValidDeliveryStatus(string(*filter.Status)) {
		return false
	}
	return true
}
