package orders

import "errors"

var (
	ErrOrderNotFound       = errors.New("order not found")
	ErrOrderNotCancellable = errors.New("order can no longer be cancelled")
	ErrEmptyCart           = errors.New("cart is empty")
	ErrCartBusy            = errors.New("cart is being created, retry")
	ErrItemNotFound        = errors.New("item not found")
	ErrItemUnavailable     = errors.New("item is not available")
	ErrItemNotInCart       = errors.New("item is not in the cart")
	ErrTicketInCart        = errors.New("ticket is already in the cart")
	ErrTicketPaid          = errors.New("ticket is already paid")
	ErrOutOfStock          = errors.New("not enough stock")
	ErrInsufficientPoints  = errors.New("insufficient points")
)
