package booking

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"
)

func TestCreateBookingPricesAndPersists(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 20000, 10000)
	service := mustNewService(test, store)
	guestID := mustUserID(test, "guest-1")
	stay := mustStay(test, "2026-03-10", "2026-03-13")

	created, err := service.CreateBooking(context.Background(), guestID, propertyID, stay, mustGuests(test, 2), mustNote(test, "late arrival"))
	if err != nil {
		test.Fatalf("create booking: %v", err)
	}

	if created.Status() != StatusPending {
		test.Fatalf("expected pending booking, got %s", created.Status())
	}
	if created.HostID() != mustUserID(test, "host-1") {
		test.Fatalf("expected host copied from property, got %s", created.HostID())
	}
	if created.Nights() != 3 {
		test.Fatalf("expected 3 nights, got %d", created.Nights())
	}
	pricing := created.Pricing()
	if pricing.Subtotal() != 300000 {
		test.Fatalf("expected subtotal 300000, got %d", pricing.Subtotal())
	}
	if pricing.Total() != 330000 {
		test.Fatalf("expected total 330000, got %d", pricing.Total())
	}
	if pricing.Currency().String() != DefaultCurrency {
		test.Fatalf("expected %s pricing, got %s", DefaultCurrency, pricing.Currency())
	}
	if len(store.bookings) != 1 {
		test.Fatalf("expected 1 stored booking, got %d", len(store.bookings))
	}
}

func TestCreateBookingRejectsOverlap(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	store.seedBooking(test, "bk-existing", propertyID, "guest-a", "host-1", mustStay(test, "2026-03-10", "2026-03-13"), StatusConfirmed)
	service := mustNewService(test, store)

	_, err := service.CreateBooking(context.Background(), mustUserID(test, "guest-b"), propertyID, mustStay(test, "2026-03-12", "2026-03-15"), mustGuests(test, 1), Note{})
	if !errors.Is(err, ErrDatesUnavailable) {
		test.Fatalf(errorMismatchMessage, ErrDatesUnavailable, err)
	}
	if len(store.bookings) != 1 {
		test.Fatalf("expected conflicting request to store nothing, got %d bookings", len(store.bookings))
	}
}

func TestCreateBookingAllowsBackToBackStays(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	store.seedBooking(test, "bk-existing", propertyID, "guest-a", "host-1", mustStay(test, "2026-03-10", "2026-03-13"), StatusConfirmed)
	service := mustNewService(test, store)

	created, err := service.CreateBooking(context.Background(), mustUserID(test, "guest-b"), propertyID, mustStay(test, "2026-03-13", "2026-03-16"), mustGuests(test, 1), Note{})
	if err != nil {
		test.Fatalf("back-to-back booking: %v", err)
	}
	if created.Stay().CheckIn() != mustStay(test, "2026-03-13", "2026-03-16").CheckIn() {
		test.Fatalf("unexpected check-in: %v", created.Stay().CheckIn())
	}
}

func TestCreateBookingIgnoresClosedBookings(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	store.seedBooking(test, "bk-cancelled", propertyID, "guest-a", "host-1", mustStay(test, "2026-03-10", "2026-03-13"), StatusCancelled)
	store.seedBooking(test, "bk-rejected", propertyID, "guest-a", "host-1", mustStay(test, "2026-03-10", "2026-03-13"), StatusRejected)
	service := mustNewService(test, store)

	if _, err := service.CreateBooking(context.Background(), mustUserID(test, "guest-b"), propertyID, mustStay(test, "2026-03-11", "2026-03-12"), mustGuests(test, 1), Note{}); err != nil {
		test.Fatalf("expected closed bookings to free their dates: %v", err)
	}
}

func TestCreateBookingGuestCapacity(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 2, 100000, 0, 0)
	service := mustNewService(test, store)

	_, err := service.CreateBooking(context.Background(), mustUserID(test, "guest-1"), propertyID, mustStay(test, "2026-03-10", "2026-03-12"), mustGuests(test, 3), Note{})
	if !errors.Is(err, ErrGuestCapacityExceeded) {
		test.Fatalf(errorMismatchMessage, ErrGuestCapacityExceeded, err)
	}
}

func TestCreateBookingUnbookableProperty(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	property := store.properties[propertyID]
	unpublished, err := NewProperty(property.ID(), property.HostID(), property.Capacity(), property.Rates(), true, false)
	if err != nil {
		test.Fatalf("unpublished property: %v", err)
	}
	store.properties[propertyID] = unpublished
	service := mustNewService(test, store)

	_, createErr := service.CreateBooking(context.Background(), mustUserID(test, "guest-1"), propertyID, mustStay(test, "2026-03-10", "2026-03-12"), mustGuests(test, 1), Note{})
	if !errors.Is(createErr, ErrPropertyUnavailable) {
		test.Fatalf(errorMismatchMessage, ErrPropertyUnavailable, createErr)
	}
}

func TestPricingSnapshotSurvivesRateChange(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	service := mustNewService(test, store)
	guestID := mustUserID(test, "guest-1")

	created, err := service.CreateBooking(context.Background(), guestID, propertyID, mustStay(test, "2026-03-10", "2026-03-12"), mustGuests(test, 1), Note{})
	if err != nil {
		test.Fatalf("create booking: %v", err)
	}

	store.seedProperty(test, "prop-1", "host-1", 4, 999999, 0, 0)

	stored := store.mustBooking(test, created.ID())
	if stored.Pricing().PerNight() != 100000 {
		test.Fatalf("expected snapshotted nightly rate 100000, got %d", stored.Pricing().PerNight())
	}
	if stored.Pricing().Total() != 200000 {
		test.Fatalf("expected snapshotted total 200000, got %d", stored.Pricing().Total())
	}
}

func TestUpdateStatusConfirmsPendingBooking(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	bookingID := store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusPending)
	service := mustNewService(test, store)

	updated, err := service.UpdateStatus(context.Background(), mustUserID(test, "host-1"), bookingID, StatusConfirmed)
	if err != nil {
		test.Fatalf("confirm booking: %v", err)
	}
	if updated.Status() != StatusConfirmed {
		test.Fatalf("expected confirmed booking, got %s", updated.Status())
	}
}

func TestUpdateStatusRequiresHost(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	bookingID := store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusPending)
	service := mustNewService(test, store)

	_, err := service.UpdateStatus(context.Background(), mustUserID(test, "guest-1"), bookingID, StatusConfirmed)
	if !errors.Is(err, ErrNotHost) {
		test.Fatalf(errorMismatchMessage, ErrNotHost, err)
	}
}

func TestUpdateStatusRejectsTerminalBooking(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	bookingID := store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusCancelled)
	service := mustNewService(test, store)

	_, err := service.UpdateStatus(context.Background(), mustUserID(test, "host-1"), bookingID, StatusConfirmed)
	if !errors.Is(err, ErrBookingClosed) {
		test.Fatalf(errorMismatchMessage, ErrBookingClosed, err)
	}
}

func TestUpdateStatusRejectsSkippedTransition(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	bookingID := store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusPending)
	service := mustNewService(test, store)

	_, err := service.UpdateStatus(context.Background(), mustUserID(test, "host-1"), bookingID, StatusCompleted)
	if !errors.Is(err, ErrInvalidTransition) {
		test.Fatalf(errorMismatchMessage, ErrInvalidTransition, err)
	}
}

func TestUpdateStatusRejectsCancelledTarget(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	bookingID := store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusConfirmed)
	service := mustNewService(test, store)

	_, err := service.UpdateStatus(context.Background(), mustUserID(test, "host-1"), bookingID, StatusCancelled)
	if !errors.Is(err, ErrInvalidBookingStatus) {
		test.Fatalf(errorMismatchMessage, ErrInvalidBookingStatus, err)
	}
}

func TestCancelByGuest(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	bookingID := store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusConfirmed)
	service := mustNewService(test, store)

	if err := service.Cancel(context.Background(), mustUserID(test, "guest-1"), bookingID); err != nil {
		test.Fatalf("cancel: %v", err)
	}
	if got := store.mustBooking(test, bookingID).Status(); got != StatusCancelled {
		test.Fatalf("expected cancelled booking, got %s", got)
	}
}

func TestCancelIsIdempotent(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	bookingID := store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusCancelled)
	service := mustNewService(test, store)

	if err := service.Cancel(context.Background(), mustUserID(test, "guest-1"), bookingID); err != nil {
		test.Fatalf("expected repeated cancel to succeed, got %v", err)
	}
}

func TestCancelCompletedBooking(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	bookingID := store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusCompleted)
	service := mustNewService(test, store)

	err := service.Cancel(context.Background(), mustUserID(test, "guest-1"), bookingID)
	if !errors.Is(err, ErrBookingClosed) {
		test.Fatalf(errorMismatchMessage, ErrBookingClosed, err)
	}
}

func TestCancelRequiresParticipant(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	bookingID := store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusPending)
	service := mustNewService(test, store)

	err := service.Cancel(context.Background(), mustUserID(test, "stranger"), bookingID)
	if !errors.Is(err, ErrNotParticipant) {
		test.Fatalf(errorMismatchMessage, ErrNotParticipant, err)
	}
}

func TestListGuestAndHostBookings(test *testing.T) {
	test.Parallel()
	store := newStubStore(test)
	propertyID := store.seedProperty(test, "prop-1", "host-1", 4, 100000, 0, 0)
	store.seedBooking(test, "bk-1", propertyID, "guest-1", "host-1", mustStay(test, "2026-03-10", "2026-03-12"), StatusPending)
	store.seedBooking(test, "bk-2", propertyID, "guest-2", "host-1", mustStay(test, "2026-04-10", "2026-04-12"), StatusConfirmed)
	service := mustNewService(test, store)

	mine, err := service.ListGuestBookings(context.Background(), mustUserID(test, "guest-1"))
	if err != nil {
		test.Fatalf("list guest bookings: %v", err)
	}
	if len(mine) != 1 {
		test.Fatalf("expected 1 guest booking, got %d", len(mine))
	}

	hosted, err := service.ListHostBookings(context.Background(), mustUserID(test, "host-1"))
	if err != nil {
		test.Fatalf("list host bookings: %v", err)
	}
	if len(hosted) != 2 {
		test.Fatalf("expected 2 hosted bookings, got %d", len(hosted))
	}
}

type stubStore struct {
	properties map[PropertyID]Property
	bookings   map[BookingID]Booking
	order      []BookingID
	nextID     int

	getPropertyError  error
	overlapError      error
	createError       error
	getBookingError   error
	updateStatusError error
	markExtendedError error
	listError         error
	deleteError       error
}

func newStubStore(test *testing.T) *stubStore {
	test.Helper()
	return &stubStore{
		properties: make(map[PropertyID]Property),
		bookings:   make(map[BookingID]Booking),
	}
}

func (store *stubStore) WithTx(ctx context.Context, fn func(ctx context.Context, txStore Store) error) error {
	return fn(ctx, store)
}

func (store *stubStore) GetProperty(ctx context.Context, propertyID PropertyID) (Property, error) {
	if store.getPropertyError != nil {
		return Property{}, store.getPropertyError
	}
	property, ok := store.properties[propertyID]
	if !ok {
		return Property{}, ErrPropertyUnavailable
	}
	return property, nil
}

func (store *stubStore) HasOverlap(ctx context.Context, propertyID PropertyID, stay StayRange, exclude *BookingID) (bool, error) {
	if store.overlapError != nil {
		return false, store.overlapError
	}
	for _, record := range store.bookings {
		if record.PropertyID() != propertyID || !record.Status().Active() {
			continue
		}
		if exclude != nil && record.ID() == *exclude {
			continue
		}
		if record.Stay().Overlaps(stay) {
			return true, nil
		}
	}
	return false, nil
}

func (store *stubStore) CreateBooking(ctx context.Context, input BookingInput) (Booking, error) {
	if store.createError != nil {
		return Booking{}, store.createError
	}
	store.nextID++
	bookingID, err := NewBookingID(fmt.Sprintf("bk-%d", store.nextID))
	if err != nil {
		return Booking{}, err
	}
	var parentID *BookingID
	if parent, ok := input.ParentID(); ok {
		parentID = &parent
	}
	record, err := NewBooking(
		bookingID,
		input.PropertyID(),
		input.GuestID(),
		input.HostID(),
		input.Stay(),
		input.Guests(),
		input.Pricing(),
		input.Status(),
		input.Note(),
		false,
		parentID,
		input.CreatedUnixUTC(),
		input.CreatedUnixUTC(),
	)
	if err != nil {
		return Booking{}, err
	}
	store.bookings[bookingID] = record
	store.order = append(store.order, bookingID)
	return record, nil
}

func (store *stubStore) GetBooking(ctx context.Context, bookingID BookingID) (Booking, error) {
	if store.getBookingError != nil {
		return Booking{}, store.getBookingError
	}
	record, ok := store.bookings[bookingID]
	if !ok {
		return Booking{}, ErrUnknownBooking
	}
	return record, nil
}

func (store *stubStore) UpdateBookingStatus(ctx context.Context, bookingID BookingID, from, to BookingStatus) error {
	if store.updateStatusError != nil {
		return store.updateStatusError
	}
	record, ok := store.bookings[bookingID]
	if !ok {
		return ErrUnknownBooking
	}
	if record.Status() != from {
		return ErrBookingClosed
	}
	updated, err := rebuildBooking(record, to, record.Extended())
	if err != nil {
		return err
	}
	store.bookings[bookingID] = updated
	return nil
}

func (store *stubStore) MarkExtended(ctx context.Context, bookingID BookingID) error {
	if store.markExtendedError != nil {
		return store.markExtendedError
	}
	record, ok := store.bookings[bookingID]
	if !ok {
		return ErrUnknownBooking
	}
	updated, err := rebuildBooking(record, record.Status(), true)
	if err != nil {
		return err
	}
	store.bookings[bookingID] = updated
	return nil
}

func (store *stubStore) ListByGuest(ctx context.Context, guestID UserID) ([]Booking, error) {
	if store.listError != nil {
		return nil, store.listError
	}
	var records []Booking
	for _, bookingID := range store.order {
		if store.bookings[bookingID].GuestID() == guestID {
			records = append(records, store.bookings[bookingID])
		}
	}
	return records, nil
}

func (store *stubStore) ListByHost(ctx context.Context, hostID UserID) ([]Booking, error) {
	if store.listError != nil {
		return nil, store.listError
	}
	var records []Booking
	for _, bookingID := range store.order {
		if store.bookings[bookingID].HostID() == hostID {
			records = append(records, store.bookings[bookingID])
		}
	}
	return records, nil
}

func (store *stubStore) ListAll(ctx context.Context, query AdminListQuery) ([]Booking, int64, error) {
	if store.listError != nil {
		return nil, 0, store.listError
	}
	var filtered []Booking
	for _, bookingID := range store.order {
		record := store.bookings[bookingID]
		if query.Status != nil && record.Status() != *query.Status {
			continue
		}
		if query.NoteSearch != "" && !strings.Contains(strings.ToLower(record.Note().String()), strings.ToLower(query.NoteSearch)) {
			continue
		}
		filtered = append(filtered, record)
	}
	total := int64(len(filtered))
	offset := (query.Page - 1) * query.Limit
	if offset >= len(filtered) {
		return nil, total, nil
	}
	end := offset + query.Limit
	if end > len(filtered) {
		end = len(filtered)
	}
	return filtered[offset:end], total, nil
}

func (store *stubStore) GetBookingDetail(ctx context.Context, bookingID BookingID) (BookingDetail, error) {
	record, err := store.GetBooking(ctx, bookingID)
	if err != nil {
		return BookingDetail{}, err
	}
	property, ok := store.properties[record.PropertyID()]
	if !ok {
		return BookingDetail{}, ErrPropertyUnavailable
	}
	return BookingDetail{
		Booking:  record,
		Property: property,
		Guest:    UserRef{ID: record.GuestID().String()},
		Host:     UserRef{ID: record.HostID().String()},
	}, nil
}

func (store *stubStore) DeleteBooking(ctx context.Context, bookingID BookingID) error {
	if store.deleteError != nil {
		return store.deleteError
	}
	if _, ok := store.bookings[bookingID]; !ok {
		return ErrUnknownBooking
	}
	delete(store.bookings, bookingID)
	for index, candidate := range store.order {
		if candidate == bookingID {
			store.order = append(store.order[:index], store.order[index+1:]...)
			break
		}
	}
	return nil
}

func (store *stubStore) seedProperty(test *testing.T, id string, hostID string, capacity int, perNight int64, cleaningFee int64, serviceFee int64) PropertyID {
	test.Helper()
	rates, err := NewRateCard(mustAmount(test, perNight), mustAmount(test, cleaningFee), mustAmount(test, serviceFee), mustCurrency(test, ""))
	if err != nil {
		test.Fatalf("rate card: %v", err)
	}
	property, err := NewProperty(mustPropertyID(test, id), mustUserID(test, hostID), mustGuests(test, capacity), rates, true, true)
	if err != nil {
		test.Fatalf("property: %v", err)
	}
	store.properties[property.ID()] = property
	return property.ID()
}

func (store *stubStore) seedBooking(test *testing.T, id string, propertyID PropertyID, guestID string, hostID string, stay StayRange, status BookingStatus) BookingID {
	test.Helper()
	pricing, err := NewExtensionPricing(mustAmount(test, 100000), mustCurrency(test, ""), stay.Nights())
	if err != nil {
		test.Fatalf("pricing: %v", err)
	}
	record, err := NewBooking(
		mustBookingID(test, id),
		propertyID,
		mustUserID(test, guestID),
		mustUserID(test, hostID),
		stay,
		mustGuests(test, 2),
		pricing,
		status,
		Note{},
		false,
		nil,
		100,
		100,
	)
	if err != nil {
		test.Fatalf("booking record: %v", err)
	}
	store.bookings[record.ID()] = record
	store.order = append(store.order, record.ID())
	return record.ID()
}

func (store *stubStore) mustBooking(test *testing.T, bookingID BookingID) Booking {
	test.Helper()
	record, ok := store.bookings[bookingID]
	if !ok {
		test.Fatalf("booking %s not found", bookingID.String())
	}
	return record
}

func rebuildBooking(record Booking, status BookingStatus, extended bool) (Booking, error) {
	var parentID *BookingID
	if parent, ok := record.ParentID(); ok {
		parentID = &parent
	}
	return NewBooking(
		record.ID(),
		record.PropertyID(),
		record.GuestID(),
		record.HostID(),
		record.Stay(),
		record.Guests(),
		record.Pricing(),
		status,
		record.Note(),
		extended,
		parentID,
		record.CreatedUnixUTC(),
		record.UpdatedUnixUTC(),
	)
}

func mustNewService(test *testing.T, store Store) *Service {
	test.Helper()
	service, err := NewService(store, func() int64 { return 100 })
	if err != nil {
		test.Fatalf("new service: %v", err)
	}
	return service
}

func mustUserID(test *testing.T, raw string) UserID {
	test.Helper()
	value, err := NewUserID(raw)
	if err != nil {
		test.Fatalf("user id: %v", err)
	}
	return value
}

func mustPropertyID(test *testing.T, raw string) PropertyID {
	test.Helper()
	value, err := NewPropertyID(raw)
	if err != nil {
		test.Fatalf("property id: %v", err)
	}
	return value
}

func mustBookingID(test *testing.T, raw string) BookingID {
	test.Helper()
	value, err := NewBookingID(raw)
	if err != nil {
		test.Fatalf("booking id: %v", err)
	}
	return value
}

func mustStay(test *testing.T, checkIn string, checkOut string) StayRange {
	test.Helper()
	inValue, err := time.Parse("2006-01-02", checkIn)
	if err != nil {
		test.Fatalf("check-in date: %v", err)
	}
	outValue, err := time.Parse("2006-01-02", checkOut)
	if err != nil {
		test.Fatalf("check-out date: %v", err)
	}
	stay, err := NewStayRange(inValue, outValue)
	if err != nil {
		test.Fatalf("stay range: %v", err)
	}
	return stay
}

func mustGuests(test *testing.T, raw int) GuestCount {
	test.Helper()
	value, err := NewGuestCount(raw)
	if err != nil {
		test.Fatalf("guest count: %v", err)
	}
	return value
}

func mustAmount(test *testing.T, raw int64) AmountCents {
	test.Helper()
	value, err := NewAmountCents(raw)
	if err != nil {
		test.Fatalf("amount cents: %v", err)
	}
	return value
}

func mustCurrency(test *testing.T, raw string) Currency {
	test.Helper()
	value, err := NewCurrency(raw)
	if err != nil {
		test.Fatalf("currency: %v", err)
	}
	return value
}

func mustNote(test *testing.T, raw string) Note {
	test.Helper()
	value, err := NewNote(raw)
	if err != nil {
		test.Fatalf("note: %v", err)
	}
	return value
}
