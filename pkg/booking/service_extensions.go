package booking

import (
	"context"
	"fmt"
	"time"
)

// RequestExtension creates a linked child reservation covering the nights
// between the parent's check-out and newCheckOut. The child is priced at the
// parent's snapshotted nightly rate with no fees re-applied, and starts
// pending like a fresh booking.
func (service *Service) RequestExtension(ctx context.Context, guestID UserID, parentID BookingID, newCheckOut time.Time) (Booking, error) {
	var created Booking
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		parent, err := transactionStore.GetBooking(ctx, parentID)
		if err != nil {
			return err
		}
		if parent.GuestID() != guestID {
			return ErrNotGuest
		}
		if parent.Status() != StatusConfirmed {
			return ErrParentNotConfirmed
		}
		extensionStay, err := NewStayRange(parent.Stay().CheckOut(), newCheckOut)
		if err != nil {
			return fmt.Errorf("%w: new check-out must be after current check-out", ErrInvalidStayRange)
		}
		// Locks the property row, serializing against concurrent creates.
		if _, err := transactionStore.GetProperty(ctx, parent.PropertyID()); err != nil {
			return err
		}
		excluded := parent.ID()
		overlaps, err := transactionStore.HasOverlap(ctx, parent.PropertyID(), extensionStay, &excluded)
		if err != nil {
			return err
		}
		if overlaps {
			return ErrDatesUnavailable
		}
		pricing, err := NewExtensionPricing(parent.Pricing().PerNight(), parent.Pricing().Currency(), extensionStay.Nights())
		if err != nil {
			return err
		}
		parentRef := parent.ID()
		input, err := NewBookingInput(
			parent.PropertyID(),
			parent.GuestID(),
			parent.HostID(),
			extensionStay,
			parent.Guests(),
			pricing,
			StatusPending,
			Note{},
			&parentRef,
			service.nowFn(),
		)
		if err != nil {
			return err
		}
		created, err = transactionStore.CreateBooking(ctx, input)
		return err
	})
	parentRef := parentID
	service.logOperation(ctx, OperationLog{
		Operation:  operationRequestExtension,
		ActorID:    guestID,
		BookingID:  &parentRef,
		TotalCents: created.Pricing().Total(),
		Error:      operationError,
	})
	return created, operationError
}

// ApproveExtension confirms a pending extension after re-running the overlap
// check for its exact window, then flags the parent as extended. A conflict
// found at approval time fails the operation without mutating anything.
func (service *Service) ApproveExtension(ctx context.Context, hostID UserID, extensionID BookingID) (Booking, error) {
	var approved Booking
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		extension, err := transactionStore.GetBooking(ctx, extensionID)
		if err != nil {
			return err
		}
		if extension.HostID() != hostID {
			return ErrNotHost
		}
		parentID, isExtension := extension.ParentID()
		if !isExtension {
			return ErrNotExtension
		}
		if extension.Status().Terminal() {
			return ErrBookingClosed
		}
		if !extension.Status().CanTransitionTo(StatusConfirmed) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, extension.Status(), StatusConfirmed)
		}
		if _, err := transactionStore.GetProperty(ctx, extension.PropertyID()); err != nil {
			return err
		}
		excluded := extension.ID()
		overlaps, err := transactionStore.HasOverlap(ctx, extension.PropertyID(), extension.Stay(), &excluded)
		if err != nil {
			return err
		}
		if overlaps {
			return ErrDatesUnavailable
		}
		if err := transactionStore.UpdateBookingStatus(ctx, extensionID, extension.Status(), StatusConfirmed); err != nil {
			return err
		}
		if err := transactionStore.MarkExtended(ctx, parentID); err != nil {
			return err
		}
		approved, err = transactionStore.GetBooking(ctx, extensionID)
		return err
	})
	extensionRef := extensionID
	service.logOperation(ctx, OperationLog{
		Operation: operationApproveExtension,
		ActorID:   hostID,
		BookingID: &extensionRef,
		Error:     operationError,
	})
	return approved, operationError
}

// RejectExtension declines a pending extension. The parent booking is left
// untouched.
func (service *Service) RejectExtension(ctx context.Context, hostID UserID, extensionID BookingID) error {
	operationError := service.store.WithTx(ctx, func(ctx context.Context, transactionStore Store) error {
		extension, err := transactionStore.GetBooking(ctx, extensionID)
		if err != nil {
			return err
		}
		if extension.HostID() != hostID {
			return ErrNotHost
		}
		if _, isExtension := extension.ParentID(); !isExtension {
			return ErrNotExtension
		}
		if extension.Status().Terminal() {
			return ErrBookingClosed
		}
		if !extension.Status().CanTransitionTo(StatusRejected) {
			return fmt.Errorf("%w: %s to %s", ErrInvalidTransition, extension.Status(), StatusRejected)
		}
		return transactionStore.UpdateBookingStatus(ctx, extensionID, extension.Status(), StatusRejected)
	})
	extensionRef := extensionID
	service.logOperation(ctx, OperationLog{
		Operation: operationRejectExtension,
		ActorID:   hostID,
		BookingID: &extensionRef,
		Error:     operationError,
	})
	return operationError
}
