package pgstore

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/openstay/reservations/pkg/booking"
)

const (
	constraintBookingOverlap = "bookings_no_overlap_excl"
	pgExclusionViolationCode = "23P01"
	pgUniqueViolationCode    = "23505"
	errorOperationStore      = "store"
	errorSubjectBooking      = "booking"
	errorSubjectProperty     = "property"
	errorSubjectUser         = "user"
	errorSubjectTransaction  = "transaction"
	errorCodeBegin           = "begin"
	errorCodeCommit          = "commit"
	errorCodeConflict        = "conflict"
	errorCodeCount           = "count"
	errorCodeCreate          = "create"
	errorCodeDelete          = "delete"
	errorCodeGet             = "get"
	errorCodeInvalid         = "invalid"
	errorCodeList            = "list"
	errorCodeMarkExtended    = "mark_extended"
	errorCodeUpdateStatus    = "update_status"

	sqlSelectProperty = `
		select property_id::text, host_id::text, capacity,
			per_night_cents, cleaning_fee_cents, service_fee_cents, currency,
			active, published
		from properties
		where property_id = $1
		for update
	`

	sqlCountOverlap = `
		select count(*) from bookings
		where property_id = $1
		and status in ('pending','confirmed')
		and check_in < $2 and check_out > $3
		and ($4 = '' or booking_id::text <> $4)
	`

	sqlInsertBooking = `
		insert into bookings(
			booking_id, property_id, guest_id, host_id,
			check_in, check_out, guests,
			per_night_cents, cleaning_fee_cents, service_fee_cents,
			subtotal_cents, total_cents, currency,
			status, note, is_extended, parent_booking_id,
			created_at, updated_at
		)
		values(
			gen_random_uuid(), $1, $2, $3,
			$4, $5, $6,
			$7, $8, $9,
			$10, $11, $12,
			$13, $14, false, nullif($15,''),
			to_timestamp($16), to_timestamp($16)
		)
		returning booking_id::text
	`

	sqlSelectBooking = `
		select booking_id::text, property_id::text, guest_id::text, host_id::text,
			check_in, check_out, guests,
			per_night_cents, cleaning_fee_cents, service_fee_cents,
			subtotal_cents, total_cents, currency,
			status, coalesce(note,''), is_extended, coalesce(parent_booking_id::text,''),
			extract(epoch from created_at)::bigint,
			extract(epoch from updated_at)::bigint
		from bookings
	`

	sqlUpdateBookingStatus = `
		update bookings
		set status = $3, updated_at = now()
		where booking_id = $1 and status = $2
	`

	sqlMarkExtended = `
		update bookings
		set is_extended = true, updated_at = now()
		where booking_id = $1
	`

	sqlDeleteBooking = `
		delete from bookings where booking_id = $1
	`

	sqlSelectUser = `
		select user_id::text, name, email from users where user_id = $1
	`
)

// queryRunner is the subset of pgx shared by pgxpool.Pool and pgx.Tx; the
// whole Store implementation runs against it so transactional and autocommit
// paths stay identical.
type queryRunner interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Store implements booking.Store using a pgx connection pool.
type Store struct {
	pool   *pgxpool.Pool
	runner queryRunner
}

// New returns a Store backed by a pgx pool.
func New(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool, runner: pool}
}

func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore booking.Store) error) error {
	if store.pool == nil {
		// Already inside a transaction; postgres has no nesting here.
		return fn(ctx, store)
	}
	tx, err := store.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeBegin, err)
	}
	transactionStore := &Store{runner: tx}
	if err := fn(ctx, transactionStore); err != nil {
		_ = tx.Rollback(ctx)
		return err
	}
	if err := tx.Commit(ctx); err != nil {
		return wrapStoreError(errorSubjectTransaction, errorCodeCommit, err)
	}
	return nil
}

func (store *Store) GetProperty(ctx context.Context, propertyID booking.PropertyID) (booking.Property, error) {
	var (
		idValue          string
		hostValue        string
		capacity         int
		perNightCents    int64
		cleaningFeeCents int64
		serviceFeeCents  int64
		currencyValue    string
		active           bool
		published        bool
	)
	err := store.runner.QueryRow(ctx, sqlSelectProperty, propertyID.String()).Scan(
		&idValue, &hostValue, &capacity,
		&perNightCents, &cleaningFeeCents, &serviceFeeCents, &currencyValue,
		&active, &published,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Property{}, wrapStoreError(errorSubjectProperty, errorCodeGet, booking.ErrPropertyUnavailable)
	}
	if err != nil {
		return booking.Property{}, wrapStoreError(errorSubjectProperty, errorCodeGet, err)
	}
	property, err := buildProperty(idValue, hostValue, capacity, perNightCents, cleaningFeeCents, serviceFeeCents, currencyValue, active, published)
	if err != nil {
		return booking.Property{}, wrapStoreError(errorSubjectProperty, errorCodeInvalid, err)
	}
	return property, nil
}

func (store *Store) HasOverlap(ctx context.Context, propertyID booking.PropertyID, stay booking.StayRange, exclude *booking.BookingID) (bool, error) {
	excluded := ""
	if exclude != nil {
		excluded = exclude.String()
	}
	var count int64
	err := store.runner.QueryRow(ctx, sqlCountOverlap, propertyID.String(), stay.CheckOut(), stay.CheckIn(), excluded).Scan(&count)
	if err != nil {
		return false, wrapStoreError(errorSubjectBooking, errorCodeCount, err)
	}
	return count > 0, nil
}

func (store *Store) CreateBooking(ctx context.Context, input booking.BookingInput) (booking.Booking, error) {
	parentID := ""
	if parent, ok := input.ParentID(); ok {
		parentID = parent.String()
	}
	var bookingIDValue string
	err := store.runner.QueryRow(ctx, sqlInsertBooking,
		input.PropertyID().String(),
		input.GuestID().String(),
		input.HostID().String(),
		input.Stay().CheckIn(),
		input.Stay().CheckOut(),
		input.Guests().Int(),
		input.Pricing().PerNight().Int64(),
		input.Pricing().CleaningFee().Int64(),
		input.Pricing().ServiceFee().Int64(),
		input.Pricing().Subtotal().Int64(),
		input.Pricing().Total().Int64(),
		input.Pricing().Currency().String(),
		input.Status().String(),
		input.Note().String(),
		parentID,
		input.CreatedUnixUTC(),
	).Scan(&bookingIDValue)
	if isOverlapConflict(err) {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeConflict, booking.ErrDatesUnavailable)
	}
	if err != nil {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeCreate, err)
	}
	bookingID, err := booking.NewBookingID(bookingIDValue)
	if err != nil {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
	}
	return store.GetBooking(ctx, bookingID)
}

func (store *Store) GetBooking(ctx context.Context, bookingID booking.BookingID) (booking.Booking, error) {
	row := store.runner.QueryRow(ctx, sqlSelectBooking+" where booking_id = $1", bookingID.String())
	record, err := scanBooking(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, booking.ErrUnknownBooking)
	}
	if err != nil {
		return booking.Booking{}, wrapStoreError(errorSubjectBooking, errorCodeGet, err)
	}
	return record, nil
}

func (store *Store) UpdateBookingStatus(ctx context.Context, bookingID booking.BookingID, from, to booking.BookingStatus) error {
	tag, err := store.runner.Exec(ctx, sqlUpdateBookingStatus, bookingID.String(), from.String(), to.String())
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeUpdateStatus, booking.ErrBookingClosed)
	}
	return nil
}

func (store *Store) MarkExtended(ctx context.Context, bookingID booking.BookingID) error {
	tag, err := store.runner.Exec(ctx, sqlMarkExtended, bookingID.String())
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeMarkExtended, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeMarkExtended, booking.ErrUnknownBooking)
	}
	return nil
}

func (store *Store) ListByGuest(ctx context.Context, guestID booking.UserID) ([]booking.Booking, error) {
	return store.queryBookings(ctx, sqlSelectBooking+" where guest_id = $1 order by created_at desc", guestID.String())
}

func (store *Store) ListByHost(ctx context.Context, hostID booking.UserID) ([]booking.Booking, error) {
	return store.queryBookings(ctx, sqlSelectBooking+" where host_id = $1 order by created_at desc", hostID.String())
}

func (store *Store) ListAll(ctx context.Context, query booking.AdminListQuery) ([]booking.Booking, int64, error) {
	statusFilter := ""
	if query.Status != nil {
		statusFilter = query.Status.String()
	}
	noteFilter := ""
	if query.NoteSearch != "" {
		noteFilter = "%" + strings.ToLower(query.NoteSearch) + "%"
	}
	filter := " where ($1 = '' or status = $1) and ($2 = '' or lower(note) like $2)"

	var total int64
	if err := store.runner.QueryRow(ctx, "select count(*) from bookings"+filter, statusFilter, noteFilter).Scan(&total); err != nil {
		return nil, 0, wrapStoreError(errorSubjectBooking, errorCodeCount, err)
	}

	records, err := store.queryBookings(ctx,
		sqlSelectBooking+filter+" order by created_at desc offset $3 limit $4",
		statusFilter, noteFilter, (query.Page-1)*query.Limit, query.Limit)
	if err != nil {
		return nil, 0, err
	}
	return records, total, nil
}

func (store *Store) GetBookingDetail(ctx context.Context, bookingID booking.BookingID) (booking.BookingDetail, error) {
	record, err := store.GetBooking(ctx, bookingID)
	if err != nil {
		return booking.BookingDetail{}, err
	}
	property, err := store.GetProperty(ctx, record.PropertyID())
	if err != nil {
		return booking.BookingDetail{}, err
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
	tag, err := store.runner.Exec(ctx, sqlDeleteBooking, bookingID.String())
	if err != nil {
		return wrapStoreError(errorSubjectBooking, errorCodeDelete, err)
	}
	if tag.RowsAffected() == 0 {
		return wrapStoreError(errorSubjectBooking, errorCodeDelete, booking.ErrUnknownBooking)
	}
	return nil
}

func (store *Store) queryBookings(ctx context.Context, sql string, args ...any) ([]booking.Booking, error) {
	rows, err := store.runner.Query(ctx, sql, args...)
	if err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	defer rows.Close()

	var records []booking.Booking
	for rows.Next() {
		record, err := scanBooking(rows)
		if err != nil {
			return nil, wrapStoreError(errorSubjectBooking, errorCodeInvalid, err)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, wrapStoreError(errorSubjectBooking, errorCodeList, err)
	}
	return records, nil
}

func (store *Store) userRef(ctx context.Context, userID string) (booking.UserRef, error) {
	var ref booking.UserRef
	err := store.runner.QueryRow(ctx, sqlSelectUser, userID).Scan(&ref.ID, &ref.Name, &ref.Email)
	if errors.Is(err, pgx.ErrNoRows) {
		return booking.UserRef{ID: userID}, nil
	}
	if err != nil {
		return booking.UserRef{}, wrapStoreError(errorSubjectUser, errorCodeGet, err)
	}
	return ref, nil
}

func scanBooking(row pgx.Row) (booking.Booking, error) {
	var (
		bookingIDValue   string
		propertyIDValue  string
		guestIDValue     string
		hostIDValue      string
		checkIn          time.Time
		checkOut         time.Time
		guests           int
		perNightCents    int64
		cleaningFeeCents int64
		serviceFeeCents  int64
		subtotalCents    int64
		totalCents       int64
		currencyValue    string
		statusValue      string
		noteValue        string
		isExtended       bool
		parentValue      string
		createdUnixUTC   int64
		updatedUnixUTC   int64
	)
	err := row.Scan(
		&bookingIDValue, &propertyIDValue, &guestIDValue, &hostIDValue,
		&checkIn, &checkOut, &guests,
		&perNightCents, &cleaningFeeCents, &serviceFeeCents,
		&subtotalCents, &totalCents, &currencyValue,
		&statusValue, &noteValue, &isExtended, &parentValue,
		&createdUnixUTC, &updatedUnixUTC,
	)
	if err != nil {
		return booking.Booking{}, err
	}
	bookingID, err := booking.NewBookingID(bookingIDValue)
	if err != nil {
		return booking.Booking{}, err
	}
	propertyID, err := booking.NewPropertyID(propertyIDValue)
	if err != nil {
		return booking.Booking{}, err
	}
	guestID, err := booking.NewUserID(guestIDValue)
	if err != nil {
		return booking.Booking{}, err
	}
	hostID, err := booking.NewUserID(hostIDValue)
	if err != nil {
		return booking.Booking{}, err
	}
	stay, err := booking.NewStayRange(checkIn, checkOut)
	if err != nil {
		return booking.Booking{}, err
	}
	guestCount, err := booking.NewGuestCount(guests)
	if err != nil {
		return booking.Booking{}, err
	}
	currency, err := booking.NewCurrency(currencyValue)
	if err != nil {
		return booking.Booking{}, err
	}
	perNight, err := booking.NewAmountCents(perNightCents)
	if err != nil {
		return booking.Booking{}, err
	}
	cleaningFee, err := booking.NewAmountCents(cleaningFeeCents)
	if err != nil {
		return booking.Booking{}, err
	}
	serviceFee, err := booking.NewAmountCents(serviceFeeCents)
	if err != nil {
		return booking.Booking{}, err
	}
	subtotal, err := booking.NewAmountCents(subtotalCents)
	if err != nil {
		return booking.Booking{}, err
	}
	total, err := booking.NewAmountCents(totalCents)
	if err != nil {
		return booking.Booking{}, err
	}
	status, err := booking.ParseBookingStatus(statusValue)
	if err != nil {
		return booking.Booking{}, err
	}
	note, err := booking.NewNote(noteValue)
	if err != nil {
		return booking.Booking{}, err
	}
	var parentID *booking.BookingID
	if parentValue != "" {
		parsedParentID, err := booking.NewBookingID(parentValue)
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
		guestCount,
		pricing,
		status,
		note,
		isExtended,
		parentID,
		createdUnixUTC,
		updatedUnixUTC,
	)
}

func buildProperty(idValue string, hostValue string, capacity int, perNightCents int64, cleaningFeeCents int64, serviceFeeCents int64, currencyValue string, active bool, published bool) (booking.Property, error) {
	propertyID, err := booking.NewPropertyID(idValue)
	if err != nil {
		return booking.Property{}, err
	}
	hostID, err := booking.NewUserID(hostValue)
	if err != nil {
		return booking.Property{}, err
	}
	guestCapacity, err := booking.NewGuestCount(capacity)
	if err != nil {
		return booking.Property{}, err
	}
	currency, err := booking.NewCurrency(currencyValue)
	if err != nil {
		return booking.Property{}, err
	}
	perNight, err := booking.NewAmountCents(perNightCents)
	if err != nil {
		return booking.Property{}, err
	}
	cleaningFee, err := booking.NewAmountCents(cleaningFeeCents)
	if err != nil {
		return booking.Property{}, err
	}
	serviceFee, err := booking.NewAmountCents(serviceFeeCents)
	if err != nil {
		return booking.Property{}, err
	}
	rates, err := booking.NewRateCard(perNight, cleaningFee, serviceFee, currency)
	if err != nil {
		return booking.Property{}, err
	}
	return booking.NewProperty(propertyID, hostID, guestCapacity, rates, active, published)
}

func wrapStoreError(subject string, code string, err error) error {
	return booking.WrapError(errorOperationStore, subject, code, err)
}

func isOverlapConflict(err error) bool {
	if err == nil {
		return false
	}
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return false
	}
	if pgErr.ConstraintName != constraintBookingOverlap {
		return false
	}
	return pgErr.Code == pgExclusionViolationCode || pgErr.Code == pgUniqueViolationCode
}
