package orders

import (
	"dispatch/internal/entities"
)

type orderResponse struct {
	ID             string `json:"id"`
	PickupAddress  string `json:"pickup_address"`
	DropoffAddress string `json:"dropoff_address"`
	ItemCount      int    `json:"item_count"`
	Fee            int64  `json:"fee"`
	CustomerUserID int64  `json:"customer_user_id"`
}

func toDomain(o *orderResponse) *entities.OrderSummary {
	if o == nil {
		return nil
	}

	return &entities.OrderSummary{
		ID:             o.ID,
		PickupAddress:  o.PickupAddress,
		DropoffAddress: o.DropoffAddress,
		ItemCount:      o.ItemCount,
		Fee:            o.Fee,
		CustomerUserID: o.CustomerUserID,
	}
}
