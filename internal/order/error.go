package order

import "errors"

var (
	ErrOrderNotFound     = errors.New("order not found")
	ErrLineItemNotFound  = errors.New("line item not found on order")
	ErrOrderFrozen       = errors.New("order is frozen")
	ErrInvalidTransition = errors.New("invalid status transition")
	ErrInvalidQuantity   = errors.New("quantity must be between 1 and 9999")
	ErrTotalOutOfRange   = errors.New("order total out of range")
	ErrInvalidStatus     = errors.New("invalid status")
	ErrNoItems           = errors.New("no items given")
)
