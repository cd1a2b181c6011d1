package courier

import (
	"time"

	"dispatch/internal/entities"
)

func ToDomain(c *CourierDB) *entities.Courier {
	if c == nil {
		return nil
	}

	return &entities.Courier{
		ID:               c.ID,
		UserID:           c.UserID,
		Name:             c.Name,
		Phone:            c.Phone,
		Status:           entities.CourierStatusType(c.Status),
		TransportType:    entities.CourierTransportType(c.TransportType),
		MeanDeliveryTime: time.Duration(c.MeanDeliverySecond) * time.Second,
		CreatedAt:        c.CreatedAt,
		UpdatedAt:        c.UpdatedAt,
	}
}

func FromDomainModify(courierModify *entities.CourierModify) *CourierModifyDB {
	if courierModify == nil {
		return nil
	}
	courierDB := &CourierModifyDB{}

	if courierModify.ID != nil {
		courierDB.ID = courierModify.ID
	}
	if courierModify.UserID != nil {
		courierDB.UserID = courierModify.UserID
	}
	if courierModify.Name != nil {
		courierDB.Name = courierModify.Name
	}
	if courierModify.Phone != nil {
		courierDB.Phone = courierModify.Phone
	}
	if courierModify.Status != nil {
		status := courierModify.Status.String()
		courierDB.Status = &status
	}
	if courierModify.TransportType != nil {
		transportType := courierModify.TransportType.String()
		courierDB.TransportType = &transportType
	}
	if courierModify.MeanDeliveryTime != nil {
		seconds := int64(courierModify.MeanDeliveryTime.Seconds())
		courierDB.MeanDeliverySecond = &seconds
	}

	return courierDB
}

func ToDomainList(couriersDB []CourierDB) []entities.Courier {
	if len(couriersDB) == 0 {
		return []entities.Courier{}
	}

	result := make([]entities.Courier, len(couriersDB))
	for i, courierDB := range couriersDB {
		result[i] = *ToDomain(&courierDB)
	}
	return result
}
