package gormstore

import (
	"context"
	"errors"
	"strings"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/openstay/reservations/pkg/booking"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const (
	constraintBookingOverlap = "bookings_no_overlap_excl"
	pgExclusionViolationCode = "23P01"
	pgUniqueViolationCode    = "23505"
	sqliteConstraintCode     = 19
	errorOperationStore      = "store"
	errorSubjectBooking      = "booking"
	errorSubjectProperty     = "property"
	errorSubjectUser         = "user"
	errorCodeCreate          = "create"
	errorCodeConflict        = "conflict"
	errorCodeCount           = "count"
	errorCodeDelete          = "delete"
	errorCodeGet             = "get"
	errorCodeInvalid         = "invalid"
	errorCodeList            = "list"
	errorCodeMarkExtended    = "mark_extended"
	errorCodeUpdateStatus    = "update_status"
)

// Store implements booking.Store using GORM.
type Store struct {
	db *gorm.DB
}

// New returns a Store backed by gorm.DB.
func New(db *gorm.DB) *Store {
	return &Store{db: db}
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// GetProperty loads a property row. Inside a transaction the row is locked
// for update, which serializes concurrent bookings on the same property.
func (store *Store) GetProperty(ctx context.Context, propertyID booking.PropertyID) (booking.Property, error) {
	var model Property
	err := store.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("property_id = ?", propertyID.String()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Property{}, wrapStoreError(errorSubjectProperty, errorCodeGet, booking.ErrPropertyUnavailable)
		}
		return booking.Property{}, wrapStoreError(errorSubjectProperty, errorCodeGet, err)
	}
	property, err := mapProperty(model)
	if err != nil {
		return booking.Property{}, wrapStoreError(errorSubjectProperty, errorCodeInvalid, err)
	}
	return property, nil
}

// HasOverlap reports whether any pending or confirmed booking on the property
// intersects the half-open [checkIn, checkOut) window.
func (store *Store) HasOverlap(ctx context.Context, propertyID booking.PropertyID, stay booking.StayRange, exclude *booking.BookingID) (bool, error) {
	statuses := make([]string, 0, len(booking.ActiveStatuses()))
	for _, status := range booking.ActiveStatuses() {
		statuses = append(statuses, status.String())
	}
	query := store.db.WithContext(ctx).
		Model(&Booking{}).
		Where("property_id = ?", propertyID.String()).
		Where("status in ?", statuses).
		Where("check_in < ? AND check_out > ?", stay.CheckOut(), stay.CheckIn())
	if exclude != nil {
		query = query.Where("booking_id <> ?", exclude.String())
	}
	var count int64
	if err := query.Count(&count).Error; err != nil {
		return false, wrapStoreError(errorSubjectBooking, errorCodeCount, err)
	}
	return count > 0, nil
}

func (store *Store) CreateBooking(ctx context.Context, input booking.BookingInput) (booking.Booking, error) {
	var parentID *string
	if parent, ok := input.ParentID(); ok {
		value := parent.String()
		parentID = &value
	}
	createdAt := time.Unix(input.CreatedUnixUTC(), 0).UTC()
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}
	model := Booking{
		PropertyID:       input.PropertyID().String(),
		GuestID:          input.GuestID().String(),
		HostID:           input.HostID().String(),
		CheckIn:          input.Stay().CheckIn(),
		CheckOut:         input.Stay().CheckOut(),
		Guests:           input.Guests().Int(),
		PerNightCents:    input.Pricing().PerNight().Int64(),
		CleaningFeeCents: input.Pricing().CleaningFee().Int64(),
		ServiceFeeCents:  input.Pricing().ServiceFee().Int64(),
		SubtotalCents:    input.Pricing().Subtotal().Int64(),
		TotalCents:       input.Pricing().Total().Int64(),
		Currency:         input.Pricing().Currency().String(),
		Status:           input.Status().String(),
		Note:             input.Note().String(),
		ParentBookingID:  parentID,
		CreatedAt:        createdAt,
		UpdatedAt:        createdAt,
	}
	err := store.db.WithContext(ctx).Create(&model).Error
	if isOverlapConflict(err) {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeConflict, booking.ErrDatesUnavailable)
	}
	if err != nil {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeCreate, err)
	}
	record, err := mapBooking(model)
	if err != nil {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return record, nil
}

func (store *Store) GetBooking(ctx context.Context, bookingID booking.BookingID) (booking.Booking, error) {
	var model Booking
	err := store.db.WithContext(ctx).
		Where("booking_id = ?", bookingID.String()).
		Take(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, booking.ErrUnknownBooking)
		}
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	record, err := mapBooking(model)
	if err != nil {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return record, nil
}

// UpdateBookingStatus is a compare-and-swap on the status column. Zero rows
// affected means the booking moved out of the expected status concurrently.
func (store *Store) UpdateBookingStatus(ctx context.Context, bookingID booking.BookingID, from, to booking.BookingStatus) error {
	result := store.db.WithContext(ctx).
		Model(&Booking{}).
		Where("booking_id = ? AND status = ?", bookingID.String(), from.String()).
		Updates(map[string]interface{}{
			"status":     to.String(),
			"updated_at": time.Now().UTC(),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, booking.ErrBookingClosed)
	}
	return nil
}

func (store *Store) MarkExtended(ctx context.Context, bookingID booking.BookingID) error {
	result := store.db.WithContext(ctx).
		Model(&Booking{}).
		Where("booking_id = ?", bookingID.String()).
		Updates(map[string]interface{}{
			"is_extended": true,
			"updated_at":  time.Now().UTC(),
		})
	if result.Error != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeMarkExtended, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeMarkExtended, booking.ErrUnknownBooking)
	}
	return nil
}

func (store *Store) ListByGuest(ctx context.Context, guestID booking.UserID) ([]booking.Booking, error) {
	return store.listWhere(ctx, "guest_id = ?", guestID.String())
}

func (store *Store) ListByHost(ctx context.Context, hostID booking.UserID) ([]booking.Booking, error) {
	return store.listWhere(ctx, "host_id = ?", hostID.String())
}

func (store *Store) ListAll(ctx context.Context, query booking.AdminListQuery) ([]booking.Booking, int64, error) {
	filtered := store.db.WithContext(ctx).Model(&Booking{})
	if query.Status != nil {
		filtered = filtered.Where("status = ?", query.Status.String())
	}
	if query.NoteSearch != "" {
		filtered = filtered.Where("lower(note) LIKE ?", "%"+strings.ToLower(query.NoteSearch)+"%")
	}

	var total int64
	if err := filtered.Count(&total).Error; err != nil {
		return nil, 0, wrapStoreError(errorSubjectBooking, errorCodeCount, err)
	}

	var rows []Booking
	err := filtered.
		Order("created_at DESC").
		Offset((query.Page - 1) * query.Limit).
		Limit(query.Limit).
		Find(&rows).Error
	if err != nil {
		return nil, 0, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	records, err := mapBookings(rows)
	if err != nil {
		return nil, 0, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return records, total, nil
}

func (store *Store) GetBookingDetail(ctx context.Context, bookingID booking.BookingID) (booking.BookingDetail, error) {
	record, err := store.GetBooking(ctx, bookingID)
	if err != nil {
		return booking.BookingDetail{}, err
	}

	var propertyModel Property
	err = store.db.WithContext(ctx).
		Where("property_id = ?", record.PropertyID().String()).
		Take(&propertyModel).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return booking.BookingDetail{}, wrapStoreError(errorSubjectProperty, errorCodeGet, booking.ErrPropertyUnavailable)
		}
		return booking.BookingDetail{}, wrapStoreError(errorSubjectProperty, errorCodeGet, err)
	}
	property, err := mapProperty(propertyModel)
	if err != nil {
		return booking.BookingDetail{}, wrapStoreError(errorSubjectProperty, errorCodeInvalid, err)
	}

	guest, err := store.userRef(ctx, record.GuestID().String())
	if err != nil {
		return booking.BookingDetail{}, err
	}
	host, err := store.userRef(ctx, record.HostID().String())
	if err != nil {
		return booking.BookingDetail{}, err
	}

	return booking.BookingDetail{
		Booking:  record,
		Property: property,
		Guest:    guest,
		Host:     host,
	}, nil
}

func (store *Store) DeleteBooking(ctx context.Context, bookingID booking.BookingID) error {
	result := store.db.WithContext(ctx).
		Where("booking_id = ?", bookingID.String()).
		Delete(&Booking{})
	if result.Error != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeDelete, result.Error)
	}
	if result.RowsAffected == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeDelete, booking.ErrUnknownBooking)
	}
	return nil
}

func (store *Store) listWhere(ctx context.Context, condition string, value string) ([]booking.Booking, error) {
	var rows []Booking
	err := store.db.WithContext(ctx).
		Where(condition, value).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	records, err := mapBookings(rows)
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return records, nil
}

// userRef tolerates missing user rows: stale bookings still render in admin
// views with the bare identifier.
func (store *Store) userRef(ctx context.Context, userID string) (booking.UserRef, error) {
	var model User
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return booking.UserRef{ID: userID}, nil
	}
	if err != nil {
		return booking.UserRef{}, wrapStoreError(errorSubjectUser, errorCodeGet, err)
	}
	return booking.UserRef{ID: model.UserID, Name: model.Name, Email: model.Email}, nil
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

func mapProperty(model Property) (booking.Property, error) {
	propertyID, err := booking.NewPropertyID(model.PropertyID)
	if err != nil {
		return booking.Property{}, err
	}
	hostID, err := booking.NewUserID(model.HostID)
	if err != nil {
		return booking.Property{}, err
	}
	capacity, err := booking.NewGuestCount(model.Capacity)
	if err != nil {
		return booking.Property{}, err
	}
	currency, err := booking.NewCurrency(model.Currency)
	if err != nil {
		return booking.Property{}, err
	}
	perNight, err := booking.NewAmountCents(model.PerNightCents)
	if err != nil {
		return booking.Property{}, err
	}
	cleaningFee, err := booking.NewAmountCents(model.CleaningFeeCents)
	if err != nil {
		return booking.Property{}, err
	}
	serviceFee, err := booking.NewAmountCents(model.ServiceFeeCents)
	if err != nil {
		return booking.Property{}, err
	}
	rates, err := booking.NewRateCard(perNight, cleaningFee, serviceFee, currency)
	if err != nil {
		return booking.Property{}, err
	}
	return booking.NewProperty(propertyID, hostID, capacity, rates, model.Active, model.Published)
}

func mapBooking(model Booking) (booking.Booking, error) {
	bookingID, err := booking.NewBookingID(model.BookingID)
	if err != nil {
		return booking.Booking{}, err
	}
	propertyID, err := booking.NewPropertyID(model.PropertyID)
	if err != nil {
		return booking.Booking{}, err
	}
	guestID, err := booking.NewUserID(model.GuestID)
	if err != nil {
		return booking.Booking{}, err
	}
	hostID, err := booking.NewUserID(model.HostID)
	if err != nil {
		return booking.Booking{}, err
	}
	stay, err := booking.NewStayRange(model.CheckIn, model.CheckOut)
	if err != nil {
		return booking.Booking{}, err
	}
	guests, err := booking.NewGuestCount(model.Guests)
	if err != nil {
		return booking.Booking{}, err
	}
	currency, err := booking.NewCurrency(model.Currency)
	if err != nil {
		return booking.Booking{}, err
	}
	perNight, err := booking.NewAmountCents(model.PerNightCents)
	if err != nil {
		return booking.Booking{}, err
	}
	cleaningFee, err := booking.NewAmountCents(model.CleaningFeeCents)
	if err != nil {
		return booking.Booking{}, err
	}
	serviceFee, err := booking.NewAmountCents(model.ServiceFeeCents)
	if err != nil {
		return booking.Booking{}, err
	}
	subtotal, err := booking.NewAmountCents(model.SubtotalCents)
	if err != nil {
		return booking.Booking{}, err
	}
	total, err := booking.NewAmountCents(model.TotalCents)
	if err != nil {
		return booking.Booking{}, err
	}
	status, err := booking.ParseBookingStatus(model.Status)
	if err != nil {
		return booking.Booking{}, err
	}
	note, err := booking.NewNote(model.Note)
	if err != nil {
		return booking.Booking{}, err
	}
	var parentID *booking.BookingID
	if model.ParentBookingID != nil {
		parsedParentID, err := booking.NewBookingID(*model.ParentBookingID)
		if err != nil {
			return booking.Booking{}, err
		}
		parentID = &parsedParentID
	}
	pricing := booking.RestorePricingSnapshot(perNight, cleaningFee, serviceFee, subtotal, total, currency)
	return booking.NewBooking(
		bookingID,
		propertyID,
		guestID,
		hostID,
		stay,
		guests,
		pricing,
		status,
		note,
		model.IsExtended,
		parentID,
		model.CreatedAt.Unix(),
		model.UpdatedAt.Unix(),
	)
}

func mapBookings(rows []Booking) ([]booking.Booking, error) {
	records := make([]booking.Booking, 0, len(rows))
	for _, row := range rows {
		record, err := mapBooking(row)
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
	return records, nil
}

// isOverlapConflict recognizes the postgres exclusion constraint guarding
// against double bookings; on sqlite any constraint violation maps the same
// way.
func isOverlapConflict(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if pgErr.Code == pgExclusionViolationCode && pgErr.ConstraintName == constraintBookingOverlap {
			return true
		}
		return pgErr.Code == pgUniqueViolationCode && pgErr.ConstraintName == constraintBookingOverlap
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
