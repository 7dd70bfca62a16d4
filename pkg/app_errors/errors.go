package apperrors

import "errors"

var (
	ErrSeatNotFound     = errors.New("seat not found")
	ErrSeatAlreadyTaken = errors.New("seat already taken")
	ErrInvalidInput     = errors.New("invalid input")
	ErrEmptyBooking     = errors.New("booking contains no seats")

	// seat view (client side)
	ErrNothingSelected   = errors.New("no seats selected")
	ErrMissingName       = errors.New("every selected seat needs a name")
	ErrBookingInProgress = errors.New("booking already in progress")
	ErrControllerClosed  = errors.New("seat view closed")
)
