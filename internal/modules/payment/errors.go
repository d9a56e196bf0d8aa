package payment

import "errors"

var (
	ErrNotFound            = errors.New("payment not found")
	ErrEnrollmentNotFound  = errors.New("enrollment not found")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidMethod       = errors.New("invalid payment method")
	ErrInvalidStatus       = errors.New("invalid payment status")
	ErrInvalidSignature    = errors.New("invalid webhook signature")
	ErrPaymentNotSucceeded = errors.New("payment has not succeeded")
	ErrAlreadyPaid         = errors.New("enrollment is already paid")
	ErrEnrollmentCancelled = errors.New("enrollment is cancelled")
)
