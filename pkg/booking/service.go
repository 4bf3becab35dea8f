package booking

import (
	"context"
	"fmt"
)

// Service contains the reservation ledger logic over a Store.
type Service struct {
	store  Store
	nowFn  func() int64
	logger OperationLogger
}

// NewService wires a Service.
func NewService(store Store, now func() int64, options ...ServiceOption) (*Service, error) {
	if store == nil {
		return nil, fmt.Errorf("%w: store dependency is nil", ErrInvalidServiceConfig)
	}
	if now == nil {
		return nil, fmt.Errorf("%w: clock dependency is nil", ErrInvalidServiceConfig)
	}
	service := &Service{store: store, nowFn: now}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// CreateBooking reserves a date range on a property for the acting guest.
// The property row is locked for the duration of the conflict check, so two
// concurrent requests for the same property serialize.
func (service *Service) CreateBooking(ctx context.Context, guestID UserID, propertyID PropertyID, stay StayRange, guests GuestCount, note Note) (Booking, error) {
	var created Booking
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		property, err := transactionStore.GetProperty(ctx, propertyID)
		if err != nil {
			return err
		}
		if !property.Bookable() {
			return ErrPropertyUnavailable
		}
		if guests > property.Capacity() {
			return ErrGuestCapacityExceeded
		}
		overlaps, err := transactionStore.HasOverlap(ctx, propertyID, stay, nil)
		if err != nil {
			return err
		}
		if overlaps {
			return ErrDatesUnavailable
		}
		pricing, err := NewPricingSnapshot(property.Rates(), stay.Nights())
		if err != nil {
			return err
		}
		input, err := NewBookingInput(
			propertyID,
			guestID,
			property.HostID(),
			stay,
			guests,
			pricing,
			StatusPending,
			note,
			nil,
			service.nowFn(),
		)
		if err != nil {
			return err
		}
		created, err = transactionStore.CreateBooking(ctx, input)
		return err
	})
	propertyRef := propertyID
	entry := OperationLog{
		Operation:  operationCreate,
		ActorID:    guestID,
		PropertyID: &propertyRef,
		TotalCents: created.Pricing().Total(),
		Error:      operationError,
	}
	if operationError == nil {
		bookingRef := created.ID()
		entry.BookingID = &bookingRef
	}
	service.logOperation(ctx, entry)
	return created, operationError
}

// UpdateStatus applies a host decision (confirm, reject, or complete) through
// the central transition table.
func (service *Service) UpdateStatus(ctx context.Context, hostID UserID, bookingID BookingID, target BookingStatus) (Booking, error) {
	var updated Booking
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		if target != StatusConfirmed && target != StatusRejected && target != StatusCompleted {
			return fmt.Errorf("%w: %q", ErrInvalidBookingStatus, target)
		}
		record, err := transactionStore.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if record.HostID() != hostID {
			return ErrNotHost
		}
		if record.Status().Terminal() {
			return ErrBookingClosed
		}
		if !record.Status().CanTransitionTo(target) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, record.Status(), target)
		}
		if err := transactionStore.UpdateBookingStatus(ctx, bookingID, record.Status(), target); err != nil {
			return err
		}
		updated, err = transactionStore.GetBooking(ctx, bookingID)
		return err
	})
	bookingRef := bookingID
	service.logOperation(ctx, OperationLog{
		Operation: operationUpdateStatus,
		ActorID:   hostID,
		BookingID: &bookingRef,
		Error:     operationError,
	})
	return updated, operationError
}

// Cancel forces a booking to cancelled on behalf of its guest or host.
// Cancelling an already-cancelled booking is a no-op success; completed and
// rejected bookings stay closed.
func (service *Service) Cancel(ctx context.Context, actorID UserID, bookingID BookingID) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		record, err := transactionStore.GetBooking(ctx, bookingID)
		if err != nil {
			return err
		}
		if record.GuestID() != actorID && record.HostID() != actorID {
			return ErrNotParticipant
		}
		switch record.Status() {
		case StatusCancelled:
			return nil
		case StatusCompleted, StatusRejected:
			return ErrBookingClosed
		}
		return transactionStore.UpdateBookingStatus(ctx, bookingID, record.Status(), StatusCancelled)
	})
	bookingRef := bookingID
	service.logOperation(ctx, OperationLog{
		Operation: operationCancel,
		ActorID:   actorID,
		BookingID: &bookingRef,
		Error:     operationError,
	})
	return operationError
}

// ListGuestBookings returns the acting guest's reservations.
func (service *Service) ListGuestBookings(ctx context.Context, guestID UserID) ([]Booking, error) {
	return service.store.ListByGuest(ctx, guestID)
}

// ListHostBookings returns the reservations on the acting host's properties.
func (service *Service) ListHostBookings(ctx context.Context, hostID UserID) ([]Booking, error) {
	return service.store.ListByHost(ctx, hostID)
}

func (service *Service) logOperation(ctx context.Context, entry OperationLog) {
	if service.logger == nil {
		return
	}
	if entry.Status == "" {
		if entry.Error != nil {
			entry.Status = operationStatusError
		} else {
			entry.Status = operationStatusOK
		}
	}
	service.logger.LogOperation(ctx, entry)
}
