package notification

import "errors"

var (
	ErrInvalidNotificationID = errors.New("invalid notification id")
	ErrInvalidCourierID      = errors.New("invalid courier id")
	ErrInvalidLimit          = errors.New("invalid limit")
	ErrNotificationNotFound  = errors.New("notification not found")
)
