package tracking

import "errors"

var (
	ErrInvalidCourierID = errors.New("invalid courier id")
	ErrInvalidPoint     = errors.New("invalid geo point")
	ErrInvalidLimit     = errors.New("invalid history limit")
	ErrLocationNotFound = errors.New("courier location not found")
)
