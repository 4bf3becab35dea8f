package httpserver

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/openstay/reservations/pkg/booking"
)

const dateLayout = "2006-01-02"

func (handler *httpHandler) handleCreateBooking(ctx *gin.Context) {
	guestID, ok := handler.actorID(ctx)
	if !ok {
		return
	}
	var request createBookingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	propertyID, err := booking.NewPropertyID(request.PropertyID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	checkIn, checkOut, err := parseStayDates(request.CheckIn, request.CheckOut)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_dates", "dates must use YYYY-MM-DD"))
		return
	}
	stay, err := booking.NewStayRange(checkIn, checkOut)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	guests, err := booking.NewGuestCount(request.Guests)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	note, err := booking.NewNote(request.Note)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}

	created, err := handler.service.CreateBooking(ctx.Request.Context(), guestID, propertyID, stay, guests, note)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"booking": bookingToPayload(created)})
}

func (handler *httpHandler) handleListGuestBookings(ctx *gin.Context) {
	guestID, ok := handler.actorID(ctx)
	if !ok {
		return
	}
	records, err := handler.service.ListGuestBookings(ctx.Request.Context(), guestID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"bookings": bookingsToPayloads(records)})
}

func (handler *httpHandler) handleListHostBookings(ctx *gin.Context) {
	hostID, ok := handler.actorID(ctx)
	if !ok {
		return
	}
	records, err := handler.service.ListHostBookings(ctx.Request.Context(), hostID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"bookings": bookingsToPayloads(records)})
}

func (handler *httpHandler) handleCancelBooking(ctx *gin.Context) {
	actorID, ok := handler.actorID(ctx)
	if !ok {
		return
	}
	bookingID, ok := handler.pathBookingID(ctx)
	if !ok {
		return
	}
	if err := handler.service.Cancel(ctx.Request.Context(), actorID, bookingID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "cancelled"})
}

func (handler *httpHandler) handleUpdateStatus(ctx *gin.Context) {
	hostID, ok := handler.actorID(ctx)
	if !ok {
		return
	}
	bookingID, ok := handler.pathBookingID(ctx)
	if !ok {
		return
	}
	var request updateStatusRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	target, err := booking.ParseBookingStatus(request.Status)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	updated, err := handler.service.UpdateStatus(ctx.Request.Context(), hostID, bookingID, target)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"booking": bookingToPayload(updated)})
}

func (handler *httpHandler) handleRequestExtension(ctx *gin.Context) {
	guestID, ok := handler.actorID(ctx)
	if !ok {
		return
	}
	bookingID, ok := handler.pathBookingID(ctx)
	if !ok {
		return
	}
	var request extendBookingRequest
	if err := ctx.ShouldBindJSON(&request); err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_payload", "expected JSON body"))
		return
	}
	newCheckOut, err := time.Parse(dateLayout, request.NewCheckOut)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, errorResponse("invalid_dates", "dates must use YYYY-MM-DD"))
		return
	}
	extension, err := handler.service.RequestExtension(ctx.Request.Context(), guestID, bookingID, newCheckOut)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusCreated, gin.H{"booking": bookingToPayload(extension)})
}

func (handler *httpHandler) handleApproveExtension(ctx *gin.Context) {
	hostID, ok := handler.actorID(ctx)
	if !ok {
		return
	}
	bookingID, ok := handler.pathBookingID(ctx)
	if !ok {
		return
	}
	approved, err := handler.service.ApproveExtension(ctx.Request.Context(), hostID, bookingID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"booking": bookingToPayload(approved)})
}

func (handler *httpHandler) handleRejectExtension(ctx *gin.Context) {
	hostID, ok := handler.actorID(ctx)
	if !ok {
		return
	}
	bookingID, ok := handler.pathBookingID(ctx)
	if !ok {
		return
	}
	if err := handler.service.RejectExtension(ctx.Request.Context(), hostID, bookingID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "rejected"})
}

func (handler *httpHandler) handleAdminListBookings(ctx *gin.Context) {
	query := booking.AdminListQuery{
		Page:       queryInt(ctx, "page", 1),
		Limit:      queryInt(ctx, "limit", booking.DefaultListLimit),
		NoteSearch: ctx.Query("search"),
	}
	if rawStatus := ctx.Query("status"); rawStatus != "" && rawStatus != "all" {
		status, err := booking.ParseBookingStatus(rawStatus)
		if err != nil {
			handler.respondError(ctx, err)
			return
		}
		query.Status = &status
	}
	page, err := handler.service.AdminListBookings(ctx.Request.Context(), query)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, adminListResponse{
		Bookings:   bookingsToPayloads(page.Bookings),
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	})
}

func (handler *httpHandler) handleAdminGetBooking(ctx *gin.Context) {
	bookingID, ok := handler.pathBookingID(ctx)
	if !ok {
		return
	}
	detail, err := handler.service.AdminGetBooking(ctx.Request.Context(), bookingID)
	if err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, detailToPayload(detail))
}

func (handler *httpHandler) handleAdminDeleteBooking(ctx *gin.Context) {
	actorID, ok := handler.actorID(ctx)
	if !ok {
		return
	}
	bookingID, ok := handler.pathBookingID(ctx)
	if !ok {
		return
	}
	if err := handler.service.AdminDeleteBooking(ctx.Request.Context(), actorID, bookingID); err != nil {
		handler.respondError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, gin.H{"status": "deleted"})
}

func (handler *httpHandler) actorID(ctx *gin.Context) (booking.UserID, bool) {
	claims := getClaims(ctx)
	if claims == nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing session"))
		return booking.UserID{}, false
	}
	actorID, err := booking.NewUserID(claims.GetUserID())
	if err != nil {
		ctx.JSON(http.StatusUnauthorized, errorResponse("unauthorized", "missing user id"))
		return booking.UserID{}, false
	}
	return actorID, true
}

func (handler *httpHandler) pathBookingID(ctx *gin.Context) (booking.BookingID, bool) {
	bookingID, err := booking.NewBookingID(ctx.Param("id"))
	if err != nil {
		handler.respondError(ctx, err)
		return booking.BookingID{}, false
	}
	return bookingID, true
}

func parseStayDates(rawCheckIn string, rawCheckOut string) (time.Time, time.Time, error) {
	checkIn, err := time.Parse(dateLayout, rawCheckIn)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	checkOut, err := time.Parse(dateLayout, rawCheckOut)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	return checkIn, checkOut, nil
}

func queryInt(ctx *gin.Context, name string, fallback int) int {
	raw := ctx.Query(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
