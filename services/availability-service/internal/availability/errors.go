package availability

import "errors"

var (
	// ErrInvalidInput marks a bad top-level request. Callers map it to 400.
	ErrInvalidInput = errors.New("invalid input")
	// ErrDataAccess marks a failed read from the rules or bookings source.
	ErrDataAccess = errors.New("data access failed")
)
