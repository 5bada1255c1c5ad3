package service

// In-memory stands-ins for the repositories, mirroring the conditional
// write semantics of the SQL layer: guarded status transitions, the
// available -> reserved flip on create, and atomic position allocation.

import (
	"context"
	"sync"
	"time"

	"github.com/forkline/table-reservation/internal/model"
	q "github.com/forkline/table-reservation/internal/queue"
	"github.com/forkline/table-reservation/internal/repository"
)

type fakeTables struct {
	mu sync.Mutex
	m  map[uint64]*model.Table
}

func newFakeTables() *fakeTables { return &fakeTables{m: make(map[uint64]*model.Table)} }

func (f *fakeTables) add(t *model.Table) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.m[t.ID] = t
}

func (f *fakeTables) GetByID(_ context.Context, id uint64) (*model.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.m[id]
	if !ok {
		return nil, repository.ErrTableNotFound
	}
	cp := *t
	return &cp, nil
}

func (f *fakeTables) status(id uint64) model.TableStatus {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.m[id].Status
}

type fakeBookingStore struct {
	mu     sync.Mutex
	nextID uint64
	m      map[uint64]*model.Booking
	tables *fakeTables
}

func newFakeBookingStore(tables *fakeTables) *fakeBookingStore {
	return &fakeBookingStore{m: make(map[uint64]*model.Booking), tables: tables}
}

func (f *fakeBookingStore) conflictsLocked(tableID uint64, date, start, end time.Time, excludeID uint64) bool {
	for _, b := range f.m {
		if b.TableID != tableID || b.ID == excludeID {
			continue
		}
		if b.Status != model.BookingConfirmed && b.Status != model.BookingSeated {
			continue
		}
		if b.BookingDate.Format("2006-01-02") != date.Format("2006-01-02") {
			continue
		}
		if model.Overlaps(b.StartTime, b.EndTime, start, end) {
			return true
		}
	}
	return false
}

func (f *fakeBookingStore) CreateConfirmed(_ context.Context, b *model.Booking) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables.mu.Lock()
	defer f.tables.mu.Unlock()

	table, ok := f.tables.m[b.TableID]
	if !ok {
		return repository.ErrTableNotFound
	}
	if table.Status != model.TableAvailable {
		return repository.ErrTableUnavailable
	}
	if f.conflictsLocked(b.TableID, b.BookingDate, b.StartTime, b.EndTime, 0) {
		return repository.ErrSlotConflict
	}

	f.nextID++
	now := time.Now().UTC()
	b.ID = f.nextID
	b.Status = model.BookingConfirmed
	b.ConfirmedAt = &now
	b.CreatedAt = now
	b.UpdatedAt = now
	cp := *b
	f.m[b.ID] = &cp
	table.Status = model.TableReserved
	return nil
}

func (f *fakeBookingStore) GetByID(_ context.Context, id uint64) (*model.Booking, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.m[id]
	if !ok {
		return nil, repository.ErrBookingNotFound
	}
	cp := *b
	return &cp, nil
}

func (f *fakeBookingStore) List(_ context.Context, flt repository.BookingFilter, p repository.Pagination) ([]model.Booking, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.Booking
	for _, b := range f.m {
		if flt.RestaurantID != 0 && b.RestaurantID != flt.RestaurantID {
			continue
		}
		if flt.CustomerID != 0 && b.CustomerID != flt.CustomerID {
			continue
		}
		if flt.Status != "" && b.Status != flt.Status {
			continue
		}
		out = append(out, *b)
	}
	return out, int64(len(out)), nil
}

func (f *fakeBookingStore) HasConflict(_ context.Context, tableID uint64, date, start, end time.Time, excludeID uint64) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.conflictsLocked(tableID, date, start, end, excludeID), nil
}

func (f *fakeBookingStore) TransitionStatus(_ context.Context, id uint64, from, to model.BookingStatus, reason *string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.m[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.Status != from {
		return repository.ErrStaleStatus
	}
	b.Status = to
	now := time.Now().UTC()
	b.UpdatedAt = now
	switch to {
	case model.BookingSeated:
		b.SeatedAt = &now
	case model.BookingCompleted:
		b.CompletedAt = &now
	case model.BookingCancelled:
		b.CancelledAt = &now
		if reason != nil {
			b.CancellationReason = reason
		}
	case model.BookingNoShow:
		b.NoShowAt = &now
	}

	f.tables.mu.Lock()
	defer f.tables.mu.Unlock()
	if table, ok := f.tables.m[b.TableID]; ok {
		switch to {
		case model.BookingSeated:
			table.Status = model.TableOccupied
		case model.BookingCompleted:
			table.Status = model.TableCleaning
		case model.BookingCancelled, model.BookingNoShow:
			table.Status = model.TableAvailable
		}
	}
	return nil
}

func (f *fakeBookingStore) ConfirmOntoTable(_ context.Context, bookingID, tableID uint64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.tables.mu.Lock()
	defer f.tables.mu.Unlock()

	table, ok := f.tables.m[tableID]
	if !ok {
		return repository.ErrTableNotFound
	}
	if table.Status != model.TableAvailable {
		return repository.ErrTableUnavailable
	}
	b, ok := f.m[bookingID]
	if !ok {
		return repository.ErrBookingNotFound
	}
	if b.Status != model.BookingPending && b.Status != model.BookingConfirmed {
		return repository.ErrStaleStatus
	}
	table.Status = model.TableReserved
	now := time.Now().UTC()
	b.TableID = tableID
	b.Status = model.BookingConfirmed
	b.ConfirmedAt = &now
	b.UpdatedAt = now
	return nil
}

func (f *fakeBookingStore) SetWaitlistInfo(_ context.Context, id uint64, position uint32, joinedAt time.Time) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	b, ok := f.m[id]
	if !ok {
		return repository.ErrBookingNotFound
	}
	b.WaitlistPosition = &position
	b.WaitlistJoinedAt = &joinedAt
	return nil
}

// seed inserts a booking directly, bypassing the create path.
func (f *fakeBookingStore) seed(b *model.Booking) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	b.ID = f.nextID
	cp := *b
	f.m[b.ID] = &cp
}

type fakeWaitlistStore struct {
	mu       sync.Mutex
	nextID   uint64
	counters map[uint64]uint32
	m        map[uint64]*model.WaitlistEntry
}

func newFakeWaitlistStore() *fakeWaitlistStore {
	return &fakeWaitlistStore{counters: make(map[uint64]uint32), m: make(map[uint64]*model.WaitlistEntry)}
}

func (f *fakeWaitlistStore) Enqueue(_ context.Context, e *model.WaitlistEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, ex := range f.m {
		if ex.BookingID == e.BookingID && ex.Status == model.WaitlistWaiting {
			return repository.ErrBookingAlreadyQueued
		}
	}
	f.counters[e.RestaurantID]++
	f.nextID++
	e.ID = f.nextID
	e.Position = f.counters[e.RestaurantID]
	e.Status = model.WaitlistWaiting
	e.JoinedAt = time.Now().UTC()
	cp := *e
	f.m[e.ID] = &cp
	return nil
}

func (f *fakeWaitlistStore) GetByID(_ context.Context, id uint64) (*model.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.m[id]
	if !ok {
		return nil, repository.ErrWaitlistEntryNotFound
	}
	cp := *e
	return &cp, nil
}

func (f *fakeWaitlistStore) ActiveByBooking(_ context.Context, bookingID uint64) (*model.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, e := range f.m {
		if e.BookingID == bookingID && e.Status == model.WaitlistWaiting {
			cp := *e
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeWaitlistStore) ListWaiting(_ context.Context, restaurantID uint64, limit int) ([]model.WaitlistEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.WaitlistEntry
	for _, e := range f.m {
		if e.RestaurantID == restaurantID && e.Status == model.WaitlistWaiting {
			out = append(out, *e)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].Position < out[i].Position {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (f *fakeWaitlistStore) setStatus(id uint64, from, to model.WaitlistStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	e, ok := f.m[id]
	if !ok || e.Status != from {
		return repository.ErrWaitlistEntryNotFound
	}
	e.Status = to
	e.UpdatedAt = time.Now().UTC()
	return nil
}

func (f *fakeWaitlistStore) MarkPromoted(_ context.Context, id uint64) error {
	return f.setStatus(id, model.WaitlistWaiting, model.WaitlistPromoted)
}

func (f *fakeWaitlistStore) MarkCancelled(_ context.Context, id uint64) error {
	return f.setStatus(id, model.WaitlistWaiting, model.WaitlistCancelled)
}

func (f *fakeWaitlistStore) Requeue(_ context.Context, id uint64) error {
	return f.setStatus(id, model.WaitlistPromoted, model.WaitlistWaiting)
}

func (f *fakeWaitlistStore) DiscardPromoted(_ context.Context, id uint64) error {
	return f.setStatus(id, model.WaitlistPromoted, model.WaitlistCancelled)
}

type fakeEvents struct {
	mu        sync.Mutex
	confirmed []uint64
	cancelled []uint64
	promoted  []uint64
}

func (f *fakeEvents) BookingConfirmed(_ context.Context, ev q.BookingConfirmedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.confirmed = append(f.confirmed, ev.BookingID)
	return nil
}

func (f *fakeEvents) BookingCancelled(_ context.Context, ev q.BookingCancelledEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, ev.BookingID)
	return nil
}

func (f *fakeEvents) WaitlistPromoted(_ context.Context, ev q.WaitlistPromotedEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.promoted = append(f.promoted, ev.EntryID)
	return nil
}
