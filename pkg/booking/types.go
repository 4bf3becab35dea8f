package booking

import (
	"fmt"
	"strings"
	"unicode"
)

const maxNoteLength = 500

// BookingID identifies a reservation record.
type BookingID struct {
	value string
}

// PropertyID identifies the property a booking claims.
type PropertyID struct {
	value string
}

// UserID identifies an acting guest or host.
type UserID struct {
	value string
}

// GuestCount is the total number of guests on a booking.
type GuestCount int

// AmountCents is an integer currency amount in cents.
type AmountCents int64

// Currency is a three-letter currency code.
type Currency struct {
	value string
}

// Note is optional free text attached to a booking.
type Note struct {
	value string
}

// NewBookingID validates and normalizes a booking id.
func NewBookingID(raw string) (BookingID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return BookingID{}, fmt.Errorf("%w: empty value", ErrInvalidBookingID)
	}
	return BookingID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id BookingID) String() string {
	return id.value
}

// NewPropertyID validates and normalizes a property id.
func NewPropertyID(raw string) (PropertyID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return PropertyID{}, fmt.Errorf("%w: empty value", ErrInvalidPropertyID)
	}
	return PropertyID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id PropertyID) String() string {
	return id.value
}

// NewUserID validates and normalizes a user id.
func NewUserID(raw string) (UserID, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return UserID{}, fmt.Errorf("%w: empty value", ErrInvalidUserID)
	}
	return UserID{value: trimmed}, nil
}

// String returns the normalized identifier.
func (id UserID) String() string {
	return id.value
}

// NewGuestCount validates a guest count and ensures it is strictly positive.
func NewGuestCount(raw int) (GuestCount, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: must be greater than zero", ErrInvalidGuestCount)
	}
	return GuestCount(raw), nil
}

// Int returns the raw count.
func (count GuestCount) Int() int {
	return int(count)
}

// NewAmountCents validates an amount and ensures it is non-negative.
func NewAmountCents(raw int64) (AmountCents, error) {
	if raw < 0 {
		return 0, fmt.Errorf("%w: must not be negative", ErrInvalidAmountCents)
	}
	return AmountCents(raw), nil
}

// Int64 returns the raw cents value.
func (amount AmountCents) Int64() int64 {
	return int64(amount)
}

// NewCurrency validates a currency code (defaulting to INR for empty inputs).
func NewCurrency(raw string) (Currency, error) {
	normalized := strings.ToUpper(strings.TrimSpace(raw))
	if normalized == "" {
		normalized = DefaultCurrency
	}
	if len(normalized) != 3 {
		return Currency{}, fmt.Errorf("%w: must be a three-letter code", ErrInvalidCurrency)
	}
	for _, r := range normalized {
		if !unicode.IsUpper(r) {
			return Currency{}, fmt.Errorf("%w: must be a three-letter code", ErrInvalidCurrency)
		}
	}
	return Currency{value: normalized}, nil
}

// String returns the normalized code.
func (currency Currency) String() string {
	return currency.value
}

// NewNote validates an optional free-text note.
func NewNote(raw string) (Note, error) {
	trimmed := strings.TrimSpace(raw)
	if len(trimmed) > maxNoteLength {
		return Note{}, fmt.Errorf("%w: longer than %d characters", ErrInvalidNote, maxNoteLength)
	}
	return Note{value: trimmed}, nil
}

// String returns the normalized note text.
func (note Note) String() string {
	return note.value
}
