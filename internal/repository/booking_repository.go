package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/forkline/table-reservation/internal/model"
)

// BookingRepo provides data access to the bookings table and owns the
// transactional pairing between a booking write and its table's status
// flip. The conflict check and the commit always run inside the same
// transaction, with the table row locked, so that two concurrent
// creates for the same table can never both succeed.
type BookingRepo struct {
	db *sql.DB
}

// NewBookingRepo returns a new BookingRepo bound to the given database.
func NewBookingRepo(db *sql.DB) *BookingRepo { return &BookingRepo{db: db} }

const bookingColumns = `id, booking_number, restaurant_id, table_id, customer_id, booking_type,
	party_size, booking_date, start_time, end_time, status, special_requests, contact_phone,
	contact_email, cancellation_reason, waitlist_position, waitlist_joined_at,
	confirmed_at, seated_at, completed_at, cancelled_at, no_show_at, created_at, updated_at`

func scanBooking(row interface {
	Scan(dest ...interface{}) error
}) (*model.Booking, error) {
	var b model.Booking
	var special, email, reason sql.NullString
	var position sql.NullInt64
	var joinedAt, confirmedAt, seatedAt, completedAt, cancelledAt, noShowAt sql.NullTime
	err := row.Scan(
		&b.ID, &b.BookingNumber, &b.RestaurantID, &b.TableID, &b.CustomerID, &b.BookingType,
		&b.PartySize, &b.BookingDate, &b.StartTime, &b.EndTime, &b.Status, &special, &b.ContactPhone,
		&email, &reason, &position, &joinedAt,
		&confirmedAt, &seatedAt, &completedAt, &cancelledAt, &noShowAt, &b.CreatedAt, &b.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if special.Valid {
		v := special.String
		b.SpecialRequests = &v
	}
	if email.Valid {
		v := email.String
		b.ContactEmail = &v
	}
	if reason.Valid {
		v := reason.String
		b.CancellationReason = &v
	}
	if position.Valid {
		v := uint32(position.Int64)
		b.WaitlistPosition = &v
	}
	b.WaitlistJoinedAt = nullTime(joinedAt)
	b.ConfirmedAt = nullTime(confirmedAt)
	b.SeatedAt = nullTime(seatedAt)
	b.CompletedAt = nullTime(completedAt)
	b.CancelledAt = nullTime(cancelledAt)
	b.NoShowAt = nullTime(noShowAt)
	return &b, nil
}

func nullTime(t sql.NullTime) *time.Time {
	if !t.Valid {
		return nil
	}
	v := t.Time
	return &v
}

// hasConflictTx reports whether any confirmed or seated booking on the
// same table and date overlaps the half-open slot [start, end). The
// condition mirrors model.Overlaps; touching endpoints do not conflict.
// excludeID, when non-zero, ignores that booking (used when re-checking
// an existing booking's own slot).
func hasConflictTx(ctx context.Context, tx *sql.Tx, tableID uint64, date, start, end time.Time, excludeID uint64) (bool, error) {
	const q = `SELECT EXISTS (
	        SELECT 1 FROM bookings
	        WHERE table_id = ? AND booking_date = ?
	          AND status IN ('confirmed', 'seated')
	          AND start_time < ? AND end_time > ?
	          AND id <> ?)`
	var found bool
	if err := tx.QueryRowContext(ctx, q, tableID, date.UTC().Format("2006-01-02"), end, start, excludeID).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

// HasConflict runs the overlap test outside of any booking commit. It is
// side-effect free and intended for availability previews only; the
// authoritative check always re-runs inside the commit transaction.
func (r *BookingRepo) HasConflict(ctx context.Context, tableID uint64, date, start, end time.Time, excludeID uint64) (bool, error) {
	tx, err := r.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return false, err
	}
	defer func() { _ = tx.Rollback() }()
	return hasConflictTx(ctx, tx, tableID, date, start, end, excludeID)
}

// CreateConfirmed atomically inserts the booking as confirmed and moves
// its table from available to reserved. The table row is locked for the
// duration of the transaction, which serializes concurrent creates for
// the same table across all service instances. It returns
// ErrTableNotFound, ErrTableUnavailable or ErrSlotConflict without
// writing anything when the preconditions fail. On success the
// booking's ID, ConfirmedAt and row timestamps are populated.
func (r *BookingRepo) CreateConfirmed(ctx context.Context, b *model.Booking) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	// Lock the table row so the availability and conflict checks stay
	// valid until commit.
	var status model.TableStatus
	const lockQ = `SELECT status FROM tables WHERE id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, lockQ, b.TableID).Scan(&status); err != nil {
		if err == sql.ErrNoRows {
			return ErrTableNotFound
		}
		return err
	}
	if status != model.TableAvailable {
		return ErrTableUnavailable
	}

	conflict, err := hasConflictTx(ctx, tx, b.TableID, b.BookingDate, b.StartTime, b.EndTime, 0)
	if err != nil {
		return err
	}
	if conflict {
		return ErrSlotConflict
	}

	now := time.Now().UTC().Truncate(time.Second)
	b.Status = model.BookingConfirmed
	b.ConfirmedAt = &now
	const insQ = `INSERT INTO bookings (booking_number, restaurant_id, table_id, customer_id, booking_type,
	        party_size, booking_date, start_time, end_time, status, special_requests, contact_phone,
	        contact_email, confirmed_at)
	        VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`
	res, err := tx.ExecContext(ctx, insQ,
		b.BookingNumber, b.RestaurantID, b.TableID, b.CustomerID, b.BookingType,
		b.PartySize, b.BookingDate.UTC().Format("2006-01-02"), b.StartTime, b.EndTime, b.Status,
		b.SpecialRequests, b.ContactPhone, b.ContactEmail, now,
	)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	b.ID = uint64(id)

	// Conditional flip verified by rows affected; the row lock above
	// makes a zero here impossible, but the guard keeps the write safe
	// on its own.
	const flipQ = `UPDATE tables SET status = 'reserved' WHERE id = ? AND status = 'available'`
	flip, err := tx.ExecContext(ctx, flipQ, b.TableID)
	if err != nil {
		return err
	}
	n, err := flip.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTableUnavailable
	}

	const sel = `SELECT created_at, updated_at FROM bookings WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, b.ID).Scan(&b.CreatedAt, &b.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a single booking or ErrBookingNotFound.
func (r *BookingRepo) GetByID(ctx context.Context, id uint64) (*model.Booking, error) {
	const q = `SELECT ` + bookingColumns + ` FROM bookings WHERE id = ?`
	b, err := scanBooking(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrBookingNotFound
		}
		return nil, err
	}
	return b, nil
}

// BookingFilter narrows List results. Zero values mean "no filter".
type BookingFilter struct {
	RestaurantID uint64
	CustomerID   uint64
	TableID      uint64
	Status       model.BookingStatus
	BookingType  model.BookingType
	DateFrom     time.Time
	DateTo       time.Time
}

// List returns bookings matching the filter ordered by booking date and
// start time descending (newest first), with the total count before
// pagination.
func (r *BookingRepo) List(ctx context.Context, f BookingFilter, p Pagination) ([]model.Booking, int64, error) {
	where := []string{"1=1"}
	args := []interface{}{}
	if f.RestaurantID > 0 {
		where = append(where, "restaurant_id = ?")
		args = append(args, f.RestaurantID)
	}
	if f.CustomerID > 0 {
		where = append(where, "customer_id = ?")
		args = append(args, f.CustomerID)
	}
	if f.TableID > 0 {
		where = append(where, "table_id = ?")
		args = append(args, f.TableID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.BookingType != "" {
		where = append(where, "booking_type = ?")
		args = append(args, f.BookingType)
	}
	if !f.DateFrom.IsZero() {
		where = append(where, "booking_date >= ?")
		args = append(args, f.DateFrom.UTC().Format("2006-01-02"))
	}
	if !f.DateTo.IsZero() {
		where = append(where, "booking_date <= ?")
		args = append(args, f.DateTo.UTC().Format("2006-01-02"))
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM bookings WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + bookingColumns + ` FROM bookings WHERE ` + cond +
		` ORDER BY booking_date DESC, start_time DESC LIMIT ? OFFSET ?`
	args = append(args, p.Limit(), p.Offset())
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	bookings := make([]model.Booking, 0)
	for rows.Next() {
		b, err := scanBooking(rows)
		if err != nil {
			return nil, 0, err
		}
		bookings = append(bookings, *b)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return bookings, total, nil
}

// statusTimestampColumn maps a target status to the column stamped when
// the booking first enters it.
func statusTimestampColumn(s model.BookingStatus) string {
	switch s {
	case model.BookingConfirmed:
		return "confirmed_at"
	case model.BookingSeated:
		return "seated_at"
	case model.BookingCompleted:
		return "completed_at"
	case model.BookingCancelled:
		return "cancelled_at"
	case model.BookingNoShow:
		return "no_show_at"
	}
	return ""
}

// tableFlipFor returns the table status flip paired with a booking
// transition: which current table states it applies to and the state it
// moves the table into. A nil fromStates means no flip.
func tableFlipFor(to model.BookingStatus) (fromStates []model.TableStatus, toState model.TableStatus) {
	switch to {
	case model.BookingSeated:
		return []model.TableStatus{model.TableReserved}, model.TableOccupied
	case model.BookingCompleted:
		return []model.TableStatus{model.TableOccupied}, model.TableCleaning
	case model.BookingCancelled, model.BookingNoShow:
		return []model.TableStatus{model.TableReserved, model.TableOccupied}, model.TableAvailable
	}
	return nil, ""
}

// TransitionStatus moves a booking from one status to another together
// with the paired table flip, in a single transaction. The booking
// update is guarded by the expected current status; if a concurrent
// writer changed it first, ErrStaleStatus is returned and nothing is
// written. The legality of the transition itself is validated by the
// caller against the model transition table.
func (r *BookingRepo) TransitionStatus(ctx context.Context, id uint64, from, to model.BookingStatus, reason *string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	var tableID uint64
	const selQ = `SELECT table_id FROM bookings WHERE id = ? FOR UPDATE`
	if err := tx.QueryRowContext(ctx, selQ, id).Scan(&tableID); err != nil {
		if err == sql.ErrNoRows {
			return ErrBookingNotFound
		}
		return err
	}

	set := []string{"status = ?"}
	args := []interface{}{to}
	if col := statusTimestampColumn(to); col != "" {
		set = append(set, col+" = UTC_TIMESTAMP()")
	}
	if reason != nil && to == model.BookingCancelled {
		set = append(set, "cancellation_reason = ?")
		args = append(args, *reason)
	}
	args = append(args, id, from)
	upd, err := tx.ExecContext(ctx, `UPDATE bookings SET `+strings.Join(set, ", ")+` WHERE id = ? AND status = ?`, args...)
	if err != nil {
		return err
	}
	n, err := upd.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleStatus
	}

	if fromStates, toState := tableFlipFor(to); fromStates != nil {
		ph := make([]string, len(fromStates))
		flipArgs := []interface{}{toState, tableID}
		for i, s := range fromStates {
			ph[i] = "?"
			flipArgs = append(flipArgs, s)
		}
		// Releasing an already-available table is a no-op, which keeps
		// the release idempotent (a table comes back exactly once).
		q := `UPDATE tables SET status = ? WHERE id = ? AND status IN (` + strings.Join(ph, ", ") + `)`
		if _, err := tx.ExecContext(ctx, q, flipArgs...); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// ConfirmOntoTable re-links a booking onto a freed table as part of a
// waitlist promotion: the table moves available -> reserved and the
// booking becomes confirmed on that table, atomically. It returns
// ErrTableUnavailable when the table was taken in the meantime and
// ErrStaleStatus when the booking is no longer promotable (it reached a
// terminal status while waiting).
func (r *BookingRepo) ConfirmOntoTable(ctx context.Context, bookingID, tableID uint64) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	const flipQ = `UPDATE tables SET status = 'reserved' WHERE id = ? AND status = 'available'`
	flip, err := tx.ExecContext(ctx, flipQ, tableID)
	if err != nil {
		return err
	}
	n, err := flip.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrTableUnavailable
	}

	const updQ = `UPDATE bookings SET table_id = ?, status = 'confirmed', confirmed_at = UTC_TIMESTAMP()
	        WHERE id = ? AND status IN ('pending', 'confirmed')`
	upd, err := tx.ExecContext(ctx, updQ, tableID, bookingID)
	if err != nil {
		return err
	}
	n, err = upd.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrStaleStatus
	}

	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// SetWaitlistInfo stores the queue linkage on the booking after a
// successful waitlist join.
func (r *BookingRepo) SetWaitlistInfo(ctx context.Context, id uint64, position uint32, joinedAt time.Time) error {
	const q = `UPDATE bookings SET waitlist_position = ?, waitlist_joined_at = ? WHERE id = ?`
	res, err := r.db.ExecContext(ctx, q, position, joinedAt, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrBookingNotFound
	}
	return nil
}
