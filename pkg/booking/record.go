package booking

import "fmt"

// BookingInput is a reservation about to be persisted; the store assigns its
// identifier.
type BookingInput struct {
	propertyID     PropertyID
	guestID        UserID
	hostID         UserID
	stay           StayRange
	guests         GuestCount
	pricing        PricingSnapshot
	status         BookingStatus
	note           Note
	parentID       *BookingID
	createdUnixUTC int64
}

// NewBookingInput validates a to-be-created reservation.
func NewBookingInput(
	propertyID PropertyID,
	guestID UserID,
	hostID UserID,
	stay StayRange,
	guests GuestCount,
	pricing PricingSnapshot,
	status BookingStatus,
	note Note,
	parentID *BookingID,
	createdUnixUTC int64,
) (BookingInput, error) {
	if propertyID.String() == "" {
		return BookingInput{}, fmt.Errorf("%w: missing property id", ErrInvalidPropertyID)
	}
	if guestID.String() == "" || hostID.String() == "" {
		return BookingInput{}, fmt.Errorf("%w: missing participant id", ErrInvalidUserID)
	}
	if stay.IsZero() {
		return BookingInput{}, fmt.Errorf("%w: missing stay range", ErrInvalidStayRange)
	}
	if guests <= 0 {
		return BookingInput{}, fmt.Errorf("%w: missing guest count", ErrInvalidGuestCount)
	}
	if !status.Valid() {
		return BookingInput{}, fmt.Errorf("%w: %q", ErrInvalidBookingStatus, status)
	}
	if pricing.Total() <= 0 {
		return BookingInput{}, fmt.Errorf("%w: missing pricing snapshot", ErrInvalidAmountCents)
	}
	if parentID != nil && parentID.String() == "" {
		return BookingInput{}, fmt.Errorf("%w: empty parent reference", ErrInvalidBookingID)
	}
	return BookingInput{
		propertyID:     propertyID,
		guestID:        guestID,
		hostID:         hostID,
		stay:           stay,
		guests:         guests,
		pricing:        pricing,
		status:         status,
		note:           note,
		parentID:       parentID,
		createdUnixUTC: createdUnixUTC,
	}, nil
}

// PropertyID returns the claimed property.
func (input BookingInput) PropertyID() PropertyID { return input.propertyID }

// GuestID returns the booking guest.
func (input BookingInput) GuestID() UserID { return input.guestID }

// HostID returns the host denormalized from the property.
func (input BookingInput) HostID() UserID { return input.hostID }

// Stay returns the claimed date range.
func (input BookingInput) Stay() StayRange { return input.stay }

// Guests returns the total guest count.
func (input BookingInput) Guests() GuestCount { return input.guests }

// Pricing returns the pricing snapshot.
func (input BookingInput) Pricing() PricingSnapshot { return input.pricing }

// Status returns the initial lifecycle status.
func (input BookingInput) Status() BookingStatus { return input.status }

// Note returns the optional free-text note.
func (input BookingInput) Note() Note { return input.note }

// ParentID returns the parent booking reference when the input is an
// extension.
func (input BookingInput) ParentID() (BookingID, bool) {
	if input.parentID == nil {
		return BookingID{}, false
	}
	return *input.parentID, true
}

// CreatedUnixUTC returns the creation timestamp.
func (input BookingInput) CreatedUnixUTC() int64 { return input.createdUnixUTC }

// Booking is a persisted reservation record.
type Booking struct {
	id             BookingID
	propertyID     PropertyID
	guestID        UserID
	hostID         UserID
	stay           StayRange
	guests         GuestCount
	pricing        PricingSnapshot
	status         BookingStatus
	note           Note
	extended       bool
	parentID       *BookingID
	createdUnixUTC int64
	updatedUnixUTC int64
}

// NewBooking validates a stored reservation record.
func NewBooking(
	id BookingID,
	propertyID PropertyID,
	guestID UserID,
	hostID UserID,
	stay StayRange,
	guests GuestCount,
	pricing PricingSnapshot,
	status BookingStatus,
	note Note,
	extended bool,
	parentID *BookingID,
	createdUnixUTC int64,
	updatedUnixUTC int64,
) (Booking, error) {
	if id.String() == "" {
		return Booking{}, fmt.Errorf("%w: missing booking id", ErrInvalidBookingID)
	}
	input, err := NewBookingInput(propertyID, guestID, hostID, stay, guests, pricing, status, note, parentID, createdUnixUTC)
	if err != nil {
		return Booking{}, err
	}
	return Booking{
		id:             id,
		propertyID:     input.propertyID,
		guestID:        input.guestID,
		hostID:         input.hostID,
		stay:           input.stay,
		guests:         input.guests,
		pricing:        input.pricing,
		status:         input.status,
		note:           input.note,
		extended:       extended,
		parentID:       input.parentID,
		createdUnixUTC: createdUnixUTC,
		updatedUnixUTC: updatedUnixUTC,
	}, nil
}

// ID returns the booking identifier.
func (record Booking) ID() BookingID { return record.id }

// PropertyID returns the claimed property.
func (record Booking) PropertyID() PropertyID { return record.propertyID }

// GuestID returns the booking guest.
func (record Booking) GuestID() UserID { return record.guestID }

// HostID returns the booking host.
func (record Booking) HostID() UserID { return record.hostID }

// Stay returns the claimed date range.
func (record Booking) Stay() StayRange { return record.stay }

// Nights returns the whole-day stay length.
func (record Booking) Nights() int { return record.stay.Nights() }

// Guests returns the total guest count.
func (record Booking) Guests() GuestCount { return record.guests }

// Pricing returns the immutable pricing snapshot.
func (record Booking) Pricing() PricingSnapshot { return record.pricing }

// Status returns the current lifecycle status.
func (record Booking) Status() BookingStatus { return record.status }

// Note returns the optional free-text note.
func (record Booking) Note() Note { return record.note }

// Extended reports whether an approved extension hangs off this booking.
func (record Booking) Extended() bool { return record.extended }

// ParentID returns the parent booking reference when the record is an
// extension.
func (record Booking) ParentID() (BookingID, bool) {
	if record.parentID == nil {
		return BookingID{}, false
	}
	return *record.parentID, true
}

// CreatedUnixUTC returns the creation timestamp.
func (record Booking) CreatedUnixUTC() int64 { return record.createdUnixUTC }

// UpdatedUnixUTC returns the last-update timestamp.
func (record Booking) UpdatedUnixUTC() int64 { return record.updatedUnixUTC }
