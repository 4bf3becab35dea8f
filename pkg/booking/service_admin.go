package booking

import "context"

// AdminPage is one page of the admin booking listing plus its pagination
// metadata.
type AdminPage struct {
	Bookings   []Booking
	Total      int64
	Page       int
	Limit      int
	TotalPages int
}

// AdminListBookings pages through every booking in the ledger, optionally
// filtered by status and a case-insensitive note search.
func (service *Service) AdminListBookings(ctx context.Context, query AdminListQuery) (AdminPage, error) {
	if query.Page < 1 {
		query.Page = 1
	}
	if query.Limit < 1 {
		query.Limit = DefaultListLimit
	}
	if query.Limit > MaxListLimit {
		query.Limit = MaxListLimit
	}
	records, total, err := service.store.ListAll(ctx, query)
	if err != nil {
		return AdminPage{}, err
	}
	totalPages := int((total + int64(query.Limit) - 1) / int64(query.Limit))
	return AdminPage{
		Bookings:   records,
		Total:      total,
		Page:       query.Page,
		Limit:      query.Limit,
		TotalPages: totalPages,
	}, nil
}

// AdminGetBooking returns a booking joined with its property and both
// participants.
func (service *Service) AdminGetBooking(ctx context.Context, bookingID BookingID) (BookingDetail, error) {
	return service.store.GetBookingDetail(ctx, bookingID)
}

// AdminDeleteBooking removes a booking record outright. Deletion bypasses the
// lifecycle; it exists for operator cleanup, not for guests.
func (service *Service) AdminDeleteBooking(ctx context.Context, actorID UserID, bookingID BookingID) error {
	operationError := service.store.DeleteBooking(ctx, bookingID)
	bookingRef := bookingID
	service.logOperation(ctx, OperationLog{
		Operation: operationAdminDelete,
		ActorID:   actorID,
		BookingID: &bookingRef,
		Error:     operationError,
	})
	return operationError
}
