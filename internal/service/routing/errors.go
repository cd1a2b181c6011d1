package routing

import "errors"

var (
	ErrInvalidAddress   = errors.New("invalid address")
	ErrRouteUnavailable = errors.New("route unavailable")
)
