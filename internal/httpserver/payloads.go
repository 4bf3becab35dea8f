package httpserver

import "github.com/openstay/reservations/pkg/booking"

type createBookingRequest struct {
	PropertyID string `json:"property_id"`
	CheckIn    string `json:"check_in"`
	CheckOut   string `json:"check_out"`
	Guests     int    `json:"guests"`
	Note       string `json:"note"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type extendBookingRequest struct {
	NewCheckOut string `json:"new_check_out"`
}

type bookingPayload struct {
	BookingID        string `json:"booking_id"`
	PropertyID       string `json:"property_id"`
	GuestID          string `json:"guest_id"`
	HostID           string `json:"host_id"`
	CheckIn          string `json:"check_in"`
	CheckOut         string `json:"check_out"`
	Nights           int    `json:"nights"`
	Guests           int    `json:"guests"`
	PerNightCents    int64  `json:"per_night_cents"`
	CleaningFeeCents int64  `json:"cleaning_fee_cents"`
	ServiceFeeCents  int64  `json:"service_fee_cents"`
	SubtotalCents    int64  `json:"subtotal_cents"`
	TotalCents       int64  `json:"total_cents"`
	Currency         string `json:"currency"`
	Status           string `json:"status"`
	Note             string `json:"note,omitempty"`
	IsExtended       bool   `json:"is_extended"`
	ParentBookingID  string `json:"parent_booking_id,omitempty"`
	CreatedUnixUTC   int64  `json:"created_unix_utc"`
	UpdatedUnixUTC   int64  `json:"updated_unix_utc"`
}

type propertyPayload struct {
	PropertyID       string `json:"property_id"`
	HostID           string `json:"host_id"`
	Capacity         int    `json:"capacity"`
	PerNightCents    int64  `json:"per_night_cents"`
	CleaningFeeCents int64  `json:"cleaning_fee_cents"`
	ServiceFeeCents  int64  `json:"service_fee_cents"`
	Currency         string `json:"currency"`
}

type userPayload struct {
	UserID string `json:"user_id"`
	Name   string `json:"name,omitempty"`
	Email  string `json:"email,omitempty"`
}

type detailResponse struct {
	Booking  bookingPayload  `json:"booking"`
	Property propertyPayload `json:"property"`
	Guest    userPayload     `json:"guest"`
	Host     userPayload     `json:"host"`
}

type adminListResponse struct {
	Bookings   []bookingPayload `json:"bookings"`
	Total      int64            `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"total_pages"`
}

func bookingToPayload(record booking.Booking) bookingPayload {
	parentID := ""
	if parent, ok := record.ParentID(); ok {
		parentID = parent.String()
	}
	return bookingPayload{
		BookingID:        record.ID().String(),
		PropertyID:       record.PropertyID().String(),
		GuestID:          record.GuestID().String(),
		HostID:           record.HostID().String(),
		CheckIn:          record.Stay().CheckIn().Format(dateLayout),
		CheckOut:         record.Stay().CheckOut().Format(dateLayout),
		Nights:           record.Nights(),
		Guests:           record.Guests().Int(),
		PerNightCents:    record.Pricing().PerNight().Int64(),
		CleaningFeeCents: record.Pricing().CleaningFee().Int64(),
		ServiceFeeCents:  record.Pricing().ServiceFee().Int64(),
		SubtotalCents:    record.Pricing().Subtotal().Int64(),
		TotalCents:       record.Pricing().Total().Int64(),
		Currency:         record.Pricing().Currency().String(),
		Status:           record.Status().String(),
		Note:             record.Note().String(),
		IsExtended:       record.Extended(),
		ParentBookingID:  parentID,
		CreatedUnixUTC:   record.CreatedUnixUTC(),
		UpdatedUnixUTC:   record.UpdatedUnixUTC(),
	}
}

func bookingsToPayloads(records []booking.Booking) []bookingPayload {
	payloads := make([]bookingPayload, 0, len(records))
	for _, record := range records {
		payloads = append(payloads, bookingToPayload(record))
	}
	return payloads
}

func detailToPayload(detail booking.BookingDetail) detailResponse {
	return detailResponse{
		Booking: bookingToPayload(detail.Booking),
		Property: propertyPayload{
			PropertyID:       detail.Property.ID().String(),
			HostID:           detail.Property.HostID().String(),
			Capacity:         detail.Property.Capacity().Int(),
			PerNightCents:    detail.Property.Rates().PerNight().Int64(),
			CleaningFeeCents: detail.Property.Rates().CleaningFee().Int64(),
			ServiceFeeCents:  detail.Property.Rates().ServiceFee().Int64(),
			Currency:         detail.Property.Rates().Currency().String(),
		},
		Guest: userPayload{UserID: detail.Guest.ID, Name: detail.Guest.Name, Email: detail.Guest.Email},
		Host:  userPayload{UserID: detail.Host.ID, Name: detail.Host.Name, Email: detail.Host.Email},
	}
}
