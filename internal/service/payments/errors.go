package payments

import "errors"

var (
	ErrPaymentNotFound = errors.New("payment not found")
	ErrTicketNotFound  = errors.New("ticket not found")
	ErrTicketNotBooked = errors.New("ticket is not awaiting payment")
	ErrAlreadyPaid     = errors.New("ticket is already paid")
	ErrAmountMismatch  = errors.New("amount does not match ticket price")
	ErrNotRefundable   = errors.New("payment cannot be refunded")
	ErrRefundExceeds   = errors.New("refund exceeds remaining amount")
)
