package order_paid

// paidEvent событие оплаты заказа из топика order.paid.
type paidEvent struct {
	OrderID string `json:"order_id"`
	Status  string `json:"status"`
}

const statusPaid = "paid"
