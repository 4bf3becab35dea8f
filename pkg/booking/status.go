package booking

import "fmt"

// BookingStatus defines the booking lifecycle.
type BookingStatus string

const (
	StatusPending   BookingStatus = "pending"
	StatusConfirmed BookingStatus = "confirmed"
	StatusCancelled BookingStatus = "cancelled"
	StatusCompleted BookingStatus = "completed"
	StatusRejected  BookingStatus = "rejected"
)

// statusTransitions is the single source of truth for allowed lifecycle
// moves; anything absent here is forbidden.
var statusTransitions = map[BookingStatus][]BookingStatus{
	StatusPending:   {StatusConfirmed, StatusRejected, StatusCancelled},
	StatusConfirmed: {StatusCompleted, StatusCancelled},
}

// ParseBookingStatus validates a raw status value.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	status := BookingStatus(raw)
	switch status {
	case StatusPending, StatusConfirmed, StatusCancelled, StatusCompleted, StatusRejected:
		return status, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidBookingStatus, raw)
}

// String returns the stored status value.
func (status BookingStatus) String() string {
	return string(status)
}

// Valid reports whether the status is a known lifecycle value.
func (status BookingStatus) Valid() bool {
	_, err := ParseBookingStatus(string(status))
	return err == nil
}

// Terminal reports whether no further transition is permitted.
func (status BookingStatus) Terminal() bool {
	switch status {
	case StatusCancelled, StatusCompleted, StatusRejected:
		return true
	}
	return false
}

// Active reports whether the booking blocks its property's dates.
func (status BookingStatus) Active() bool {
	return status == StatusPending || status == StatusConfirmed
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
func (status BookingStatus) CanTransitionTo(target BookingStatus) bool {
	for _, allowed := range statusTransitions[status] {
		if allowed == target {
			return true
		}
	}
	return false
}

// ActiveStatuses lists the statuses participating in overlap checks.
func ActiveStatuses() []BookingStatus {
	return []BookingStatus{StatusPending, StatusConfirmed}
}
