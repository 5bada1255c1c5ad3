package service

import (
	"context"
	"time"

	"github.com/forkline/table-reservation/internal/model"
)

// StatsStore is the read-only aggregation surface implemented by
// repository.StatsRepo.
type StatsStore interface {
	Totals(ctx context.Context, restaurantID uint64, from, to time.Time) (total, confirmed, cancelled, noShows int64, avgParty float64, err error)
	CountsByStatus(ctx context.Context, restaurantID uint64, from, to time.Time) (map[string]int64, error)
	CountsByType(ctx context.Context, restaurantID uint64, from, to time.Time) (map[string]int64, error)
	PeakHours(ctx context.Context, restaurantID uint64, from, to time.Time) ([]model.HourCount, error)
	PopularTables(ctx context.Context, restaurantID uint64, from, to time.Time) ([]model.TableCount, error)
	WaitlistSummary(ctx context.Context, restaurantID uint64) (*model.WaitlistStats, error)
}

// StatsService assembles restaurant booking metrics from committed
// state. Read-only; the only failures it can produce are store access
// errors.
type StatsService struct {
	stats StatsStore
}

// NewStatsService constructs the aggregator.
func NewStatsService(stats StatsStore) *StatsService { return &StatsService{stats: stats} }

// ComputeStats aggregates bookings for the restaurant over [from, to]
// (either bound may be zero for an open range) plus a snapshot of the
// live waitlist.
func (s *StatsService) ComputeStats(ctx context.Context, restaurantID uint64, from, to time.Time) (*model.BookingStats, error) {
	total, confirmed, cancelled, noShows, avgParty, err := s.stats.Totals(ctx, restaurantID, from, to)
	if err != nil {
		return nil, err
	}
	out := &model.BookingStats{
		TotalBookings:     total,
		ConfirmedBookings: confirmed,
		CancelledBookings: cancelled,
		NoShows:           noShows,
		AveragePartySize:  avgParty,
		BookingsByStatus:  map[string]int64{},
		BookingsByType:    map[string]int64{},
		PeakHours:         []model.HourCount{},
		PopularTables:     []model.TableCount{},
	}
	if total > 0 {
		if out.BookingsByStatus, err = s.stats.CountsByStatus(ctx, restaurantID, from, to); err != nil {
			return nil, err
		}
		if out.BookingsByType, err = s.stats.CountsByType(ctx, restaurantID, from, to); err != nil {
			return nil, err
		}
		if out.PeakHours, err = s.stats.PeakHours(ctx, restaurantID, from, to); err != nil {
			return nil, err
		}
		if out.PopularTables, err = s.stats.PopularTables(ctx, restaurantID, from, to); err != nil {
			return nil, err
		}
	}
	if out.Waitlist, err = s.stats.WaitlistSummary(ctx, restaurantID); err != nil {
		return nil, err
	}
	return out, nil
}
