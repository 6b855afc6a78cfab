package booking

import "errors"

var (
	ErrTripNotFound         = errors.New("trip not found")
	ErrRouteInactive        = errors.New("route is not active")
	ErrTripMismatch         = errors.New("trip does not serve the requested journey")
	ErrTripDeparted         = errors.New("trip has already departed")
	ErrNoSeats              = errors.New("not enough seats available")
	ErrTicketNotFound       = errors.New("ticket not found")
	ErrTicketNotCancellable = errors.New("ticket can no longer be cancelled")
	ErrPaymentRequired      = errors.New("ticket has not been paid")
)
