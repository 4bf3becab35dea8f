package booking

import "context"

// AdminListQuery filters and pages the admin booking listing.
type AdminListQuery struct {
	Page       int
	Limit      int
	NoteSearch string
	Status     *BookingStatus
}

// UserRef is the identity slice of a user record surfaced in admin detail
// responses.
type UserRef struct {
	ID    string
	Name  string
	Email string
}

// BookingDetail joins a booking with its property and participants.
type BookingDetail struct {
	Booking  Booking
	Property Property
	Guest    UserRef
	Host     UserRef
}

// Store is the persistence contract used by Service.
//
// Implementations must make GetProperty acquire a write lock on the property
// row when called inside WithTx: that lock is the per-property serialization
// point for the check-then-act conflict test.
type Store interface {
	WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error
	GetProperty(ctx context.Context, propertyID PropertyID) (Property, error)
	HasOverlap(ctx context.Context, propertyID PropertyID, stay StayRange, exclude *BookingID) (bool, error)
	CreateBooking(ctx context.Context, input BookingInput) (Booking, error)
	GetBooking(ctx context.Context, bookingID BookingID) (Booking, error)
	UpdateBookingStatus(ctx context.Context, bookingID BookingID, from, to BookingStatus) error
	MarkExtended(ctx context.Context, bookingID BookingID) error
	ListByGuest(ctx context.Context, guestID UserID) ([]Booking, error)
	ListByHost(ctx context.Context, hostID UserID) ([]Booking, error)
	ListAll(ctx context.Context, query AdminListQuery) ([]Booking, int64, error)
	GetBookingDetail(ctx context.Context, bookingID BookingID) (BookingDetail, error)
	DeleteBooking(ctx context.Context, bookingID BookingID) error
}
