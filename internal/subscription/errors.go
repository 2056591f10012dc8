package subscription

import "errors"

var (
	ErrNotFound         = errors.New("subscription not found")
	ErrStoreUnavailable = errors.New("subscription store unavailable")
	ErrInvalidDuration  = errors.New("duration must be between 1 and 36500 days")
	ErrInvalidSubject   = errors.New("subject is required")
	ErrInvalidDate      = errors.New("invalid expiry date")
)
