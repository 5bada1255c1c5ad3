package repository

import (
	"context"
	"database/sql"

	"github.com/forkline/table-reservation/internal/model"
)

// WaitlistRepo provides data access to waitlist_entries and the
// per-restaurant position counters. Position allocation is a single
// atomic statement against the counter row, so concurrent joiners can
// never receive the same position regardless of how many service
// instances are running. Positions are never renumbered; an entry's
// position records join order, not live rank.
type WaitlistRepo struct {
	db *sql.DB
}

// NewWaitlistRepo returns a new WaitlistRepo bound to the given database.
func NewWaitlistRepo(db *sql.DB) *WaitlistRepo { return &WaitlistRepo{db: db} }

const waitlistColumns = `id, restaurant_id, booking_id, customer_id, party_size, position, status, joined_at, updated_at`

func scanWaitlistEntry(row interface {
	Scan(dest ...interface{}) error
}) (*model.WaitlistEntry, error) {
	var e model.WaitlistEntry
	err := row.Scan(
		&e.ID, &e.RestaurantID, &e.BookingID, &e.CustomerID, &e.PartySize,
		&e.Position, &e.Status, &e.JoinedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

// nextPositionTx reserves the next position for a restaurant by bumping
// its counter row. The INSERT ... ON DUPLICATE KEY UPDATE with
// LAST_INSERT_ID is the MySQL idiom for an atomic increment-and-fetch:
// the statement both advances the counter and makes the new value
// readable through LastInsertId, with no read-then-write window.
func nextPositionTx(ctx context.Context, tx *sql.Tx, restaurantID uint64) (uint32, error) {
	const q = `INSERT INTO waitlist_counters (restaurant_id, seq) VALUES (?, LAST_INSERT_ID(1))
	           ON DUPLICATE KEY UPDATE seq = LAST_INSERT_ID(seq + 1)`
	res, err := tx.ExecContext(ctx, q, restaurantID)
	if err != nil {
		return 0, err
	}
	pos, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}
	return uint32(pos), nil
}

// Enqueue reserves the next position for the restaurant and inserts the
// entry as waiting, in one transaction. The insert itself is guarded
// against a waiting entry already linked to the same booking, so two
// concurrent joins for one booking cannot both land; the loser gets
// ErrBookingAlreadyQueued (its reserved position stays unused, which is
// fine: positions record join order and may carry gaps). On success the
// entry's ID, Position and JoinedAt are populated.
func (r *WaitlistRepo) Enqueue(ctx context.Context, e *model.WaitlistEntry) error {
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

	pos, err := nextPositionTx(ctx, tx, e.RestaurantID)
	if err != nil {
		return err
	}
	e.Position = pos
	e.Status = model.WaitlistWaiting

	const insQ = `INSERT INTO waitlist_entries (restaurant_id, booking_id, customer_id, party_size, position, status)
	              SELECT ?, ?, ?, ?, ?, ? FROM DUAL
	              WHERE NOT EXISTS (
	                  SELECT 1 FROM waitlist_entries WHERE booking_id = ? AND status = 'waiting')`
	res, err := tx.ExecContext(ctx, insQ, e.RestaurantID, e.BookingID, e.CustomerID, e.PartySize, e.Position, e.Status, e.BookingID)
	if err != nil {
		return err
	}
	if n, err := res.RowsAffected(); err != nil {
		return err
	} else if n == 0 {
		return ErrBookingAlreadyQueued
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	e.ID = uint64(id)

	const sel = `SELECT joined_at, updated_at FROM waitlist_entries WHERE id = ?`
	if err := tx.QueryRowContext(ctx, sel, e.ID).Scan(&e.JoinedAt, &e.UpdatedAt); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	committed = true
	return nil
}

// GetByID returns a single entry or ErrWaitlistEntryNotFound.
func (r *WaitlistRepo) GetByID(ctx context.Context, id uint64) (*model.WaitlistEntry, error) {
	const q = `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE id = ?`
	e, err := scanWaitlistEntry(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrWaitlistEntryNotFound
		}
		return nil, err
	}
	return e, nil
}

// ActiveByBooking returns the waiting entry linked to a booking, or nil
// when the booking is not currently queued.
func (r *WaitlistRepo) ActiveByBooking(ctx context.Context, bookingID uint64) (*model.WaitlistEntry, error) {
	const q = `SELECT ` + waitlistColumns + ` FROM waitlist_entries WHERE booking_id = ? AND status = 'waiting'`
	e, err := scanWaitlistEntry(r.db.QueryRowContext(ctx, q, bookingID))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return e, nil
}

// ListWaiting returns the waiting entries for a restaurant in position
// order, optionally capped at limit (0 means no cap). Promotion scans
// this list front to back.
func (r *WaitlistRepo) ListWaiting(ctx context.Context, restaurantID uint64, limit int) ([]model.WaitlistEntry, error) {
	q := `SELECT ` + waitlistColumns + ` FROM waitlist_entries
	      WHERE restaurant_id = ? AND status = 'waiting' ORDER BY position`
	args := []interface{}{restaurantID}
	if limit > 0 {
		q += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := make([]model.WaitlistEntry, 0)
	for rows.Next() {
		e, err := scanWaitlistEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return entries, nil
}

// setStatus performs a guarded waiting -> next transition. The guard on
// the current status makes claims atomic: of two promoters racing for
// the same entry, exactly one sees a row affected.
func (r *WaitlistRepo) setStatus(ctx context.Context, id uint64, from, to model.WaitlistStatus) error {
	const q = `UPDATE waitlist_entries SET status = ? WHERE id = ? AND status = ?`
	res, err := r.db.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrWaitlistEntryNotFound
	}
	return nil
}

// MarkPromoted claims a waiting entry for promotion.
func (r *WaitlistRepo) MarkPromoted(ctx context.Context, id uint64) error {
	return r.setStatus(ctx, id, model.WaitlistWaiting, model.WaitlistPromoted)
}

// MarkCancelled removes a waiting entry from the queue logically.
// Positions of later entries are left untouched.
func (r *WaitlistRepo) MarkCancelled(ctx context.Context, id uint64) error {
	return r.setStatus(ctx, id, model.WaitlistWaiting, model.WaitlistCancelled)
}

// Requeue reverts a promotion claim after the paired booking update
// failed, returning the entry to the waiting pool with its original
// position.
func (r *WaitlistRepo) Requeue(ctx context.Context, id uint64) error {
	return r.setStatus(ctx, id, model.WaitlistPromoted, model.WaitlistWaiting)
}

// DiscardPromoted cancels a claimed entry whose linked booking turned
// out to be dead (reached a terminal status while queued).
func (r *WaitlistRepo) DiscardPromoted(ctx context.Context, id uint64) error {
	return r.setStatus(ctx, id, model.WaitlistPromoted, model.WaitlistCancelled)
}
