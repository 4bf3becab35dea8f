package booking

import (
	"errors"
	"fmt"
)

// Domain-level error values returned by the booking service.
var (
	ErrPropertyUnavailable   = errors.New("property unavailable")
	ErrUnknownBooking        = errors.New("unknown booking")
	ErrDatesUnavailable      = errors.New("dates unavailable")
	ErrGuestCapacityExceeded = errors.New("guest capacity exceeded")
	ErrBookingClosed         = errors.New("booking closed")
	ErrInvalidTransition     = errors.New("invalid status transition")
	ErrParentNotConfirmed    = errors.New("parent booking not confirmed")
	ErrNotExtension          = errors.New("booking is not an extension")
	ErrNotHost               = errors.New("caller is not the host")
	ErrNotGuest              = errors.New("caller is not the guest")
	ErrNotParticipant        = errors.New("caller is neither guest nor host")
	ErrInvalidBookingID      = errors.New("invalid booking id")
	ErrInvalidPropertyID     = errors.New("invalid property id")
	ErrInvalidUserID         = errors.New("invalid user id")
	ErrInvalidStayRange      = errors.New("invalid stay range")
	ErrInvalidGuestCount     = errors.New("invalid guest count")
	ErrInvalidAmountCents    = errors.New("invalid amount cents")
	ErrInvalidCurrency       = errors.New("invalid currency")
	ErrInvalidNote           = errors.New("invalid note")
	ErrInvalidBookingStatus  = errors.New("invalid booking status")
	ErrInvalidRateCard       = errors.New("invalid rate card")
	ErrInvalidServiceConfig  = errors.New("invalid service config")
)

// OperationError wraps a failure with a stable operation code.
type OperationError struct {
	operation string
	subject   string
	code      string
	err       error
}

// Error returns the formatted error message.
func (operationError OperationError) Error() string {
	return fmt.Sprintf("%s.%s.%s: %v", operationError.operation, operationError.subject, operationError.code, operationError.err)
}

// Unwrap returns the underlying error.
func (operationError OperationError) Unwrap() error {
	return operationError.err
}

// Operation returns the operation segment.
func (operationError OperationError) Operation() string {
	return operationError.operation
}

// Subject returns the subject segment.
func (operationError OperationError) Subject() string {
	return operationError.subject
}

// Code returns the stable error code segment.
func (operationError OperationError) Code() string {
	return operationError.code
}

// WrapError wraps an error with operation, subject, and code metadata.
func WrapError(operation string, subject string, code string, err error) error {
	if err == nil {
		return nil
	}
	return OperationError{
		operation: operation,
		subject:   subject,
		code:      code,
		err:       err,
	}
}
