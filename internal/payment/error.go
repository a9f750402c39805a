package payment

import "errors"

var (
	ErrPaymentNotFound    = errors.New("payment not found")
	ErrOrderAlreadyPaid   = errors.New("order already paid")
	ErrOrderEmpty         = errors.New("order has no items")
	ErrInsufficientAmount = errors.New("insufficient amount received")
	ErrAlreadyCancelled   = errors.New("payment already cancelled")
	ErrInvalidMethod      = errors.New("invalid payment method")
	ErrInvalidTip         = errors.New("tip must not be negative")
)
