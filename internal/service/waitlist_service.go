package service

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/forkline/table-reservation/internal/model"
	q "github.com/forkline/table-reservation/internal/queue"
	"github.com/forkline/table-reservation/internal/repository"
)

// WaitlistStore is the persistence surface of the coordinator.
// Implemented by repository.WaitlistRepo. Enqueue allocates the
// position atomically inside the store; the status markers are guarded
// conditional writes, so a claim is won by exactly one caller.
type WaitlistStore interface {
	Enqueue(ctx context.Context, e *model.WaitlistEntry) error
	GetByID(ctx context.Context, id uint64) (*model.WaitlistEntry, error)
	ActiveByBooking(ctx context.Context, bookingID uint64) (*model.WaitlistEntry, error)
	ListWaiting(ctx context.Context, restaurantID uint64, limit int) ([]model.WaitlistEntry, error)
	MarkPromoted(ctx context.Context, id uint64) error
	MarkCancelled(ctx context.Context, id uint64) error
	Requeue(ctx context.Context, id uint64) error
	DiscardPromoted(ctx context.Context, id uint64) error
}

// PromotableBookings is the slice of the booking store the coordinator
// uses to re-link a promoted party's booking onto the freed table.
type PromotableBookings interface {
	ConfirmOntoTable(ctx context.Context, bookingID, tableID uint64) error
}

// TableReader provides read access to table rows for capacity checks.
type TableReader interface {
	GetByID(ctx context.Context, id uint64) (*model.Table, error)
}

// WaitlistService coordinates the ordered queue of waiting parties per
// restaurant. It is the only writer of WaitlistEntry.Position and
// Status. Positions reflect join order and are never renumbered when
// the queue front moves, so an entry's displayed position can exceed
// its live rank; that is the documented contract.
type WaitlistService struct {
	entries  WaitlistStore
	bookings PromotableBookings
	tables   TableReader
	events   EventPublisher
}

// NewWaitlistService constructs the coordinator. events may be nil.
func NewWaitlistService(entries WaitlistStore, bookings PromotableBookings, tables TableReader, events EventPublisher) *WaitlistService {
	return &WaitlistService{entries: entries, bookings: bookings, tables: tables, events: events}
}

// Enqueue adds a party to the restaurant's queue and returns the entry
// with its assigned position. A booking may hold at most one waiting
// entry at a time; duplicates fail with ErrAlreadyQueued.
func (s *WaitlistService) Enqueue(ctx context.Context, restaurantID, customerID uint64, partySize uint32, bookingID uint64) (*model.WaitlistEntry, error) {
	existing, err := s.entries.ActiveByBooking(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, ErrAlreadyQueued
	}
	e := &model.WaitlistEntry{
		RestaurantID: restaurantID,
		BookingID:    bookingID,
		CustomerID:   customerID,
		PartySize:    partySize,
	}
	if err := s.entries.Enqueue(ctx, e); err != nil {
		if errors.Is(err, repository.ErrBookingAlreadyQueued) {
			// The pre-check above raced another join for the same
			// booking; the store guard caught it.
			return nil, ErrAlreadyQueued
		}
		return nil, err
	}
	return e, nil
}

// PromoteNext seats the first waiting party that fits the freed table.
// It walks the queue in position order, claims the candidate with a
// guarded status write, then confirms its booking onto the table. When
// the table turns out to be taken the claim is reverted and the pass
// stops; when the candidate's booking died while it waited, the entry
// is discarded and the scan continues. Returns the promoted entry, or
// nil when nobody was promoted.
func (s *WaitlistService) PromoteNext(ctx context.Context, restaurantID, tableID uint64) (*model.WaitlistEntry, error) {
	table, err := s.tables.GetByID(ctx, tableID)
	if err != nil {
		return nil, err
	}
	if table.Status != model.TableAvailable {
		return nil, nil
	}

	waiting, err := s.entries.ListWaiting(ctx, restaurantID, 0)
	if err != nil {
		return nil, err
	}
	for i := range waiting {
		e := &waiting[i]
		if e.PartySize > table.Capacity {
			continue
		}
		if err := s.entries.MarkPromoted(ctx, e.ID); err != nil {
			if errors.Is(err, repository.ErrWaitlistEntryNotFound) {
				// Someone else claimed it first; try the next one.
				continue
			}
			return nil, err
		}
		err := s.bookings.ConfirmOntoTable(ctx, e.BookingID, tableID)
		switch {
		case err == nil:
			e.Status = model.WaitlistPromoted
			s.publishPromoted(ctx, e, tableID)
			return e, nil
		case errors.Is(err, repository.ErrTableUnavailable):
			// The freed table was grabbed concurrently; put the party
			// back at its original position and stop the pass.
			if rqErr := s.entries.Requeue(ctx, e.ID); rqErr != nil {
				log.Printf("waitlist entry %d: requeue after lost table failed: %v", e.ID, rqErr)
			}
			return nil, nil
		case errors.Is(err, repository.ErrStaleStatus):
			// The linked booking reached a terminal state while the
			// party waited; drop the entry and keep scanning.
			if dErr := s.entries.DiscardPromoted(ctx, e.ID); dErr != nil {
				log.Printf("waitlist entry %d: discard of dead booking failed: %v", e.ID, dErr)
			}
			continue
		default:
			// Store failure with the outcome unknown; the claim must not
			// strand the party outside the queue.
			if rqErr := s.entries.Requeue(ctx, e.ID); rqErr != nil {
				log.Printf("waitlist entry %d: requeue after failed confirmation failed: %v", e.ID, rqErr)
			}
			return nil, err
		}
	}
	return nil, nil
}

// Cancel removes a waiting entry from the queue. Later entries keep
// their positions.
func (s *WaitlistService) Cancel(ctx context.Context, entryID uint64) error {
	return s.entries.MarkCancelled(ctx, entryID)
}

// GetEntry returns a waitlist entry by id.
func (s *WaitlistService) GetEntry(ctx context.Context, entryID uint64) (*model.WaitlistEntry, error) {
	return s.entries.GetByID(ctx, entryID)
}

func (s *WaitlistService) publishPromoted(ctx context.Context, e *model.WaitlistEntry, tableID uint64) {
	if s.events == nil {
		return
	}
	ev := q.WaitlistPromotedEvent{
		EntryID:      e.ID,
		BookingID:    e.BookingID,
		RestaurantID: e.RestaurantID,
		TableID:      tableID,
		CustomerID:   e.CustomerID,
		PartySize:    e.PartySize,
		Position:     e.Position,
		PromotedAt:   time.Now().UTC().Format(time.RFC3339),
	}
	if err := s.events.WaitlistPromoted(ctx, ev); err != nil {
		log.Printf("waitlist entry %d: publish promoted event failed: %v", e.ID, err)
	}
}
