package assignment

import "errors"

var (
	ErrInvalidDeliveryID  = errors.New("invalid delivery id")
	ErrInvalidCourierID   = errors.New("invalid courier id")
	ErrDeliveryNotFound   = errors.New("delivery not found")
	ErrAlreadyAssigned    = errors.New("delivery already assigned")
	ErrCourierUnavailable = errors.New("courier is not available")
)
