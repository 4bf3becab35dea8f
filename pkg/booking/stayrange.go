package booking

import (
	"fmt"
	"time"
)

const nightDuration = 24 * time.Hour

// StayRange is a half-open [checkIn, checkOut) date interval normalized to
// UTC midnight. A checkout and a check-in on the same calendar day do not
// overlap.
type StayRange struct {
	checkIn  time.Time
	checkOut time.Time
}

// NewStayRange validates and normalizes a check-in/check-out pair.
func NewStayRange(checkIn time.Time, checkOut time.Time) (StayRange, error) {
	if checkIn.IsZero() || checkOut.IsZero() {
		return StayRange{}, fmt.Errorf("%w: missing date", ErrInvalidStayRange)
	}
	normalizedIn := toUTCDate(checkIn)
	normalizedOut := toUTCDate(checkOut)
	if !normalizedOut.After(normalizedIn) {
		return StayRange{}, fmt.Errorf("%w: check-out must be after check-in", ErrInvalidStayRange)
	}
	return StayRange{checkIn: normalizedIn, checkOut: normalizedOut}, nil
}

// CheckIn returns the normalized check-in date.
func (stay StayRange) CheckIn() time.Time {
	return stay.checkIn
}

// CheckOut returns the normalized check-out date.
func (stay StayRange) CheckOut() time.Time {
	return stay.checkOut
}

// Nights returns the whole-day length of the stay.
func (stay StayRange) Nights() int {
	return int(stay.checkOut.Sub(stay.checkIn) / nightDuration)
}

// Overlaps reports whether two half-open intervals intersect:
// a0 < b1 && b0 < a1.
func (stay StayRange) Overlaps(other StayRange) bool {
	return stay.checkIn.Before(other.checkOut) && other.checkIn.Before(stay.checkOut)
}

// IsZero reports whether the range is unset.
func (stay StayRange) IsZero() bool {
	return stay.checkIn.IsZero() && stay.checkOut.IsZero()
}

func toUTCDate(value time.Time) time.Time {
	year, month, day := value.UTC().Date()
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}
