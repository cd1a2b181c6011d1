package entities

// OrderSummary срез оплаченного заказа, получаемый от сервиса заказов.
type OrderSummary struct {
	ID             string
	PickupAddress  string
	DropoffAddress string
	ItemCount      int
	Fee            int64 // в копейках
	CustomerUserID int64
}
