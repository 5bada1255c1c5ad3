package repository

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/forkline/table-reservation/internal/model"
)

// StatsRepo derives restaurant-level booking metrics with aggregation
// queries over committed rows. It never writes.
type StatsRepo struct {
	db *sql.DB
}

// NewStatsRepo returns a new StatsRepo bound to the given database.
func NewStatsRepo(db *sql.DB) *StatsRepo { return &StatsRepo{db: db} }

func statsRange(restaurantID uint64, from, to time.Time) (string, []interface{}) {
	where := []string{"restaurant_id = ?"}
	args := []interface{}{restaurantID}
	if !from.IsZero() {
		where = append(where, "booking_date >= ?")
		args = append(args, from.UTC().Format("2006-01-02"))
	}
	if !to.IsZero() {
		where = append(where, "booking_date <= ?")
		args = append(args, to.UTC().Format("2006-01-02"))
	}
	return strings.Join(where, " AND "), args
}

// Totals returns the headline counters and average party size for the
// restaurant over the date range.
func (r *StatsRepo) Totals(ctx context.Context, restaurantID uint64, from, to time.Time) (total, confirmed, cancelled, noShows int64, avgParty float64, err error) {
	cond, args := statsRange(restaurantID, from, to)
	q := `SELECT COUNT(*),
	             COALESCE(SUM(status = 'confirmed'), 0),
	             COALESCE(SUM(status = 'cancelled'), 0),
	             COALESCE(SUM(status = 'no_show'), 0),
	             COALESCE(AVG(party_size), 0)
	      FROM bookings WHERE ` + cond
	err = r.db.QueryRowContext(ctx, q, args...).Scan(&total, &confirmed, &cancelled, &noShows, &avgParty)
	return
}

func (r *StatsRepo) countsBy(ctx context.Context, column, cond string, args []interface{}) (map[string]int64, error) {
	q := `SELECT ` + column + `, COUNT(*) FROM bookings WHERE ` + cond + ` GROUP BY ` + column
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]int64)
	for rows.Next() {
		var key string
		var count int64
		if err := rows.Scan(&key, &count); err != nil {
			return nil, err
		}
		out[key] = count
	}
	return out, rows.Err()
}

// CountsByStatus groups bookings by status over the range.
func (r *StatsRepo) CountsByStatus(ctx context.Context, restaurantID uint64, from, to time.Time) (map[string]int64, error) {
	cond, args := statsRange(restaurantID, from, to)
	return r.countsBy(ctx, "status", cond, args)
}

// CountsByType groups bookings by booking type over the range.
func (r *StatsRepo) CountsByType(ctx context.Context, restaurantID uint64, from, to time.Time) (map[string]int64, error) {
	cond, args := statsRange(restaurantID, from, to)
	return r.countsBy(ctx, "booking_type", cond, args)
}

// PeakHours returns the hourly histogram of slot start times, ordered by
// hour of day ascending.
func (r *StatsRepo) PeakHours(ctx context.Context, restaurantID uint64, from, to time.Time) ([]model.HourCount, error) {
	cond, args := statsRange(restaurantID, from, to)
	q := `SELECT HOUR(start_time), COUNT(*) FROM bookings WHERE ` + cond + `
	      GROUP BY HOUR(start_time) ORDER BY HOUR(start_time)`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	hours := make([]model.HourCount, 0)
	for rows.Next() {
		var h model.HourCount
		if err := rows.Scan(&h.Hour, &h.Count); err != nil {
			return nil, err
		}
		hours = append(hours, h)
	}
	return hours, rows.Err()
}

// PopularTables returns the ten most-booked tables over the range,
// busiest first.
func (r *StatsRepo) PopularTables(ctx context.Context, restaurantID uint64, from, to time.Time) ([]model.TableCount, error) {
	cond, args := statsRange(restaurantID, from, to)
	q := `SELECT table_id, COUNT(*) AS cnt FROM bookings WHERE ` + cond + `
	      GROUP BY table_id ORDER BY cnt DESC LIMIT 10`
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	tables := make([]model.TableCount, 0)
	for rows.Next() {
		var t model.TableCount
		if err := rows.Scan(&t.TableID, &t.Count); err != nil {
			return nil, err
		}
		tables = append(tables, t)
	}
	return tables, rows.Err()
}

// WaitlistSummary reports the current waiting count and the average time
// spent waiting so far, measured against the clock at query time.
func (r *StatsRepo) WaitlistSummary(ctx context.Context, restaurantID uint64) (*model.WaitlistStats, error) {
	const q = `SELECT COUNT(*),
	                  COALESCE(AVG(TIMESTAMPDIFF(SECOND, joined_at, UTC_TIMESTAMP())), 0)
	           FROM waitlist_entries WHERE restaurant_id = ? AND status = 'waiting'`
	var s model.WaitlistStats
	if err := r.db.QueryRowContext(ctx, q, restaurantID).Scan(&s.TotalWaiting, &s.AvgWaitSeconds); err != nil {
		if err == sql.ErrNoRows {
			return &model.WaitlistStats{}, nil
		}
		return nil, err
	}
	return &s, nil
}
