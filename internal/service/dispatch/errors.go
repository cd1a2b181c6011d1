package dispatch

import "errors"

var (
	ErrInvalidOrderID     = errors.New("invalid order id")
	ErrInvalidDeliveryID  = errors.New("invalid delivery id")
	ErrInvalidStatus      = errors.New("invalid delivery status")
	ErrInvalidFilter      = errors.New("invalid delivery filter")
	ErrOrderNotFound      = errors.New("order not found")
	ErrDeliveryNotFound   = errors.New("delivery not found")
	ErrDeliveryExists     = errors.New("delivery for order already exists")
	ErrInvalidTransition  = errors.New("invalid status transition")
	ErrStatusConflict     = errors.New("delivery status changed concurrently")
	ErrNoRoute            = errors.New("route not available for delivery")
	ErrInternalServiceErr = errors.New("internal delivery service error")
)
