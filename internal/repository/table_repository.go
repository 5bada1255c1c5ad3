package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"strings"

	"github.com/forkline/table-reservation/internal/model"
)

// TableRepo provides data access to the tables table. Status flips that
// belong to the booking flow happen inside booking transactions (see
// BookingRepo); the methods here cover table management and the manual
// staff transitions. All timestamps are stored in UTC.
type TableRepo struct {
	db *sql.DB
}

// NewTableRepo returns a new TableRepo bound to the given database.
func NewTableRepo(db *sql.DB) *TableRepo { return &TableRepo{db: db} }

const tableColumns = `id, restaurant_id, table_number, capacity, status, location, features, created_at, updated_at`

func scanTable(row interface {
	Scan(dest ...interface{}) error
}) (*model.Table, error) {
	var t model.Table
	var location sql.NullString
	var features []byte
	err := row.Scan(
		&t.ID, &t.RestaurantID, &t.TableNumber, &t.Capacity, &t.Status,
		&location, &features, &t.CreatedAt, &t.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if location.Valid {
		loc := location.String
		t.Location = &loc
	}
	t.Features = []string{}
	if len(features) > 0 {
		if err := json.Unmarshal(features, &t.Features); err != nil {
			return nil, err
		}
	}
	return &t, nil
}

// Create inserts a new table. The (restaurant_id, table_number) pair is
// covered by a unique index; duplicate inserts surface the driver error
// to the caller. The new table always starts as available.
func (r *TableRepo) Create(ctx context.Context, t *model.Table) error {
	features, err := json.Marshal(t.Features)
	if err != nil {
		return err
	}
	const q = `INSERT INTO tables (restaurant_id, table_number, capacity, status, location, features)
	           VALUES (?, ?, ?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, q, t.RestaurantID, t.TableNumber, t.Capacity, model.TableAvailable, t.Location, features)
	if err != nil {
		return err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return err
	}
	t.ID = uint64(id)
	t.Status = model.TableAvailable
	// Read back timestamps populated by the database.
	const sel = `SELECT created_at, updated_at FROM tables WHERE id = ?`
	return r.db.QueryRowContext(ctx, sel, t.ID).Scan(&t.CreatedAt, &t.UpdatedAt)
}

// GetByID returns a single table or ErrTableNotFound.
func (r *TableRepo) GetByID(ctx context.Context, id uint64) (*model.Table, error) {
	const q = `SELECT ` + tableColumns + ` FROM tables WHERE id = ?`
	t, err := scanTable(r.db.QueryRowContext(ctx, q, id))
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrTableNotFound
		}
		return nil, err
	}
	return t, nil
}

// TableFilter narrows List results. Zero values mean "no filter".
type TableFilter struct {
	RestaurantID uint64
	Status       model.TableStatus
	MinCapacity  uint32
	Feature      string
}

// List returns tables for a restaurant with optional filters, ordered by
// table number, along with the total count before pagination.
func (r *TableRepo) List(ctx context.Context, f TableFilter, p Pagination) ([]model.Table, int64, error) {
	where := []string{"restaurant_id = ?"}
	args := []interface{}{f.RestaurantID}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.MinCapacity > 0 {
		where = append(where, "capacity >= ?")
		args = append(args, f.MinCapacity)
	}
	if f.Feature != "" {
		// features is a JSON array of strings
		where = append(where, "JSON_CONTAINS(features, JSON_QUOTE(?))")
		args = append(args, f.Feature)
	}
	cond := strings.Join(where, " AND ")

	var total int64
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM tables WHERE `+cond, args...).Scan(&total); err != nil {
		return nil, 0, err
	}

	q := `SELECT ` + tableColumns + ` FROM tables WHERE ` + cond + ` ORDER BY table_number LIMIT ? OFFSET ?`
	args = append(args, p.Limit(), p.Offset())
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	tables := make([]model.Table, 0)
	for rows.Next() {
		t, err := scanTable(rows)
		if err != nil {
			return nil, 0, err
		}
		tables = append(tables, *t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return tables, total, nil
}

// SetManualStatus flips a table between the staff-managed states
// (available, cleaning, maintenance). The update is refused with
// ErrStaleStatus when the table currently sits in a booking-owned state
// (reserved or occupied) so staff can never yank a table out from under
// a live booking.
func (r *TableRepo) SetManualStatus(ctx context.Context, id uint64, to model.TableStatus) error {
	const q = `UPDATE tables SET status = ?
	           WHERE id = ? AND status IN ('available', 'cleaning', 'maintenance')`
	res, err := r.db.ExecContext(ctx, q, to, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		// Zero rows can mean a missing table, a booking-owned state, or
		// a same-status no-op (MySQL reports unchanged rows as zero).
		var current model.TableStatus
		if err := r.db.QueryRowContext(ctx, `SELECT status FROM tables WHERE id = ?`, id).Scan(&current); err != nil {
			if err == sql.ErrNoRows {
				return ErrTableNotFound
			}
			return err
		}
		if current == to {
			return nil
		}
		return ErrStaleStatus
	}
	return nil
}
