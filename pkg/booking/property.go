package booking

import "fmt"

// Property is the read-only collaborator the ledger consults when pricing and
// validating a booking. The ledger never mutates property records.
type Property struct {
	id        PropertyID
	hostID    UserID
	capacity  GuestCount
	rates     RateCard
	active    bool
	published bool
}

// NewProperty validates a property view.
func NewProperty(id PropertyID, hostID UserID, capacity GuestCount, rates RateCard, active bool, published bool) (Property, error) {
	if id.String() == "" {
		return Property{}, fmt.Errorf("%w: missing property id", ErrInvalidPropertyID)
	}
	if hostID.String() == "" {
		return Property{}, fmt.Errorf("%w: missing host id", ErrInvalidUserID)
	}
	if capacity <= 0 {
		return Property{}, fmt.Errorf("%w: missing capacity", ErrInvalidGuestCount)
	}
	if rates.PerNight() <= 0 {
		return Property{}, fmt.Errorf("%w: missing rate card", ErrInvalidRateCard)
	}
	return Property{
		id:        id,
		hostID:    hostID,
		capacity:  capacity,
		rates:     rates,
		active:    active,
		published: published,
	}, nil
}

// ID returns the property identifier.
func (property Property) ID() PropertyID {
	return property.id
}

// HostID returns the owning host.
func (property Property) HostID() UserID {
	return property.hostID
}

// Capacity returns the declared guest capacity.
func (property Property) Capacity() GuestCount {
	return property.capacity
}

// Rates returns the live rate card.
func (property Property) Rates() RateCard {
	return property.rates
}

// Bookable reports whether the property accepts new bookings.
func (property Property) Bookable() bool {
	return property.active && property.published
}
