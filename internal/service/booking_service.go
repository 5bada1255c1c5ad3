package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/forkline/table-reservation/internal/model"
	q "github.com/forkline/table-reservation/internal/queue"
	"github.com/forkline/table-reservation/internal/repository"
)

// BookingStore is the persistence surface the lifecycle manager needs.
// Implemented by repository.BookingRepo. Every method that pairs a
// booking write with a table flip is atomic inside the store.
type BookingStore interface {
	CreateConfirmed(ctx context.Context, b *model.Booking) error
	GetByID(ctx context.Context, id uint64) (*model.Booking, error)
	List(ctx context.Context, f repository.BookingFilter, p repository.Pagination) ([]model.Booking, int64, error)
	HasConflict(ctx context.Context, tableID uint64, date, start, end time.Time, excludeID uint64) (bool, error)
	TransitionStatus(ctx context.Context, id uint64, from, to model.BookingStatus, reason *string) error
	SetWaitlistInfo(ctx context.Context, id uint64, position uint32, joinedAt time.Time) error
}

// Waitlist is the slice of the coordinator the lifecycle manager calls:
// joining on behalf of a booking, and promoting after a table frees up.
type Waitlist interface {
	Enqueue(ctx context.Context, restaurantID, customerID uint64, partySize uint32, bookingID uint64) (*model.WaitlistEntry, error)
	PromoteNext(ctx context.Context, restaurantID, tableID uint64) (*model.WaitlistEntry, error)
}

// CreateBookingRequest carries the validated-at-the-edge input for a
// new booking. CustomerID comes from the authenticated identity, never
// from the body.
type CreateBookingRequest struct {
	RestaurantID    uint64
	TableID         uint64
	CustomerID      uint64
	BookingType     model.BookingType
	PartySize       uint32
	BookingDate     time.Time
	StartTime       time.Time
	EndTime         time.Time
	SpecialRequests *string
	ContactPhone    string
	ContactEmail    *string
}

// BookingService owns the booking state machine and its paired table
// transitions. It is the only writer of Booking.Status and, through the
// store, of the booking-driven Table.Status flips.
type BookingService struct {
	bookings BookingStore
	waitlist Waitlist
	events   EventPublisher
}

// NewBookingService constructs the lifecycle manager. events may be nil
// when no broker is configured; publishing is then skipped.
func NewBookingService(bookings BookingStore, waitlist Waitlist, events EventPublisher) *BookingService {
	return &BookingService{bookings: bookings, waitlist: waitlist, events: events}
}

func (s *BookingService) validateCreate(req CreateBookingRequest) error {
	if req.PartySize == 0 {
		return fmt.Errorf("%w: party_size must be positive", ErrValidation)
	}
	if !req.EndTime.After(req.StartTime) {
		return fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}
	if req.TableID == 0 || req.RestaurantID == 0 {
		return fmt.Errorf("%w: restaurant_id and table_id are required", ErrValidation)
	}
	if req.ContactPhone == "" {
		return fmt.Errorf("%w: contact_phone is required", ErrValidation)
	}
	return nil
}

// CreateBooking validates the request and commits the booking as
// confirmed together with the table's available -> reserved flip. The
// availability and overlap checks run inside the same store transaction
// as the insert, so two concurrent requests for overlapping slots on
// one table cannot both succeed. A fresh non-conflicting booking
// occupies its slot immediately; it is never persisted as pending.
func (s *BookingService) CreateBooking(ctx context.Context, req CreateBookingRequest) (*model.Booking, error) {
	if err := s.validateCreate(req); err != nil {
		return nil, err
	}
	bookingType := req.BookingType
	if bookingType == "" {
		bookingType = model.TypeRegular
	}
	date := req.BookingDate
	if date.IsZero() {
		date = req.StartTime
	}

	now := time.Now().UTC()
	b := &model.Booking{
		BookingNumber:   model.BookingNumberFor(now, req.CustomerID),
		RestaurantID:    req.RestaurantID,
		TableID:         req.TableID,
		CustomerID:      req.CustomerID,
		BookingType:     bookingType,
		PartySize:       req.PartySize,
		BookingDate:     date.UTC(),
		StartTime:       req.StartTime.UTC(),
		EndTime:         req.EndTime.UTC(),
		SpecialRequests: req.SpecialRequests,
		ContactPhone:    req.ContactPhone,
		ContactEmail:    req.ContactEmail,
	}
	if err := s.bookings.CreateConfirmed(ctx, b); err != nil {
		return nil, err
	}

	if s.events != nil {
		ev := q.BookingConfirmedEvent{
			BookingID:     b.ID,
			BookingNumber: b.BookingNumber,
			RestaurantID:  b.RestaurantID,
			TableID:       b.TableID,
			CustomerID:    b.CustomerID,
			PartySize:     b.PartySize,
			BookingDate:   b.BookingDate.Format("2006-01-02"),
			StartTime:     b.StartTime.Format(time.RFC3339),
			EndTime:       b.EndTime.Format(time.RFC3339),
			ConfirmedAt:   now.Format(time.RFC3339),
		}
		if err := s.events.BookingConfirmed(ctx, ev); err != nil {
			log.Printf("booking %s: publish confirmed event failed: %v", b.BookingNumber, err)
		}
	}
	return b, nil
}

// GetBooking returns a booking by id.
func (s *BookingService) GetBooking(ctx context.Context, id uint64) (*model.Booking, error) {
	return s.bookings.GetByID(ctx, id)
}

// ListBookings returns bookings matching the filter plus the total
// count before pagination.
func (s *BookingService) ListBookings(ctx context.Context, f repository.BookingFilter, p repository.Pagination) ([]model.Booking, int64, error) {
	return s.bookings.List(ctx, f, p)
}

// CheckSlot reports whether the given slot would conflict on the table.
// Preview only; CreateBooking re-checks authoritatively at commit.
func (s *BookingService) CheckSlot(ctx context.Context, tableID uint64, date, start, end time.Time) (bool, error) {
	if !end.After(start) {
		return false, fmt.Errorf("%w: end_time must be after start_time", ErrValidation)
	}
	return s.bookings.HasConflict(ctx, tableID, date, start, end, 0)
}

// UpdateBookingStatus applies one legal transition of the booking state
// machine. The store guards the write on the observed current status,
// so a concurrent transition loses cleanly instead of double-applying.
// Cancellations and no-shows release the table and then run a
// synchronous waitlist promotion pass for the restaurant; promotion
// failures are logged, never surfaced, because the cancellation itself
// has already committed.
func (s *BookingService) UpdateBookingStatus(ctx context.Context, id uint64, next model.BookingStatus, reason *string) (*model.Booking, error) {
	b, err := s.bookings.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !b.Status.CanTransitionTo(next) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, b.Status, next)
	}
	if err := s.bookings.TransitionStatus(ctx, id, b.Status, next, reason); err != nil {
		if errors.Is(err, repository.ErrStaleStatus) {
			return nil, fmt.Errorf("%w: booking status changed concurrently", ErrInvalidTransition)
		}
		return nil, err
	}

	if next == model.BookingCancelled || next == model.BookingNoShow {
		s.afterRelease(ctx, b, next, reason)
	}
	return s.bookings.GetByID(ctx, id)
}

// afterRelease publishes the cancellation event and tries to seat the
// next fitting waitlist party on the freed table.
func (s *BookingService) afterRelease(ctx context.Context, b *model.Booking, next model.BookingStatus, reason *string) {
	if s.events != nil {
		ev := q.BookingCancelledEvent{
			BookingID:     b.ID,
			BookingNumber: b.BookingNumber,
			RestaurantID:  b.RestaurantID,
			TableID:       b.TableID,
			CustomerID:    b.CustomerID,
			Status:        string(next),
			OccurredAt:    time.Now().UTC().Format(time.RFC3339),
		}
		if reason != nil {
			ev.Reason = *reason
		}
		if err := s.events.BookingCancelled(ctx, ev); err != nil {
			log.Printf("booking %s: publish %s event failed: %v", b.BookingNumber, next, err)
		}
	}
	if s.waitlist != nil {
		if _, err := s.waitlist.PromoteNext(ctx, b.RestaurantID, b.TableID); err != nil {
			log.Printf("restaurant %d: waitlist promotion after booking %d release failed: %v", b.RestaurantID, b.ID, err)
		}
	}
}

// JoinWaitlist queues the booking's party for the restaurant. The
// booking must exist, still be live, and not already have a waiting
// entry. Ownership checks happen at the edge. The assigned position is
// stored back on the booking for display.
func (s *BookingService) JoinWaitlist(ctx context.Context, bookingID, customerID uint64) (*model.WaitlistEntry, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if b.Status.Terminal() {
		return nil, fmt.Errorf("%w: booking is %s", ErrInvalidTransition, b.Status)
	}
	entry, err := s.waitlist.Enqueue(ctx, b.RestaurantID, customerID, b.PartySize, b.ID)
	if err != nil {
		return nil, err
	}
	if err := s.bookings.SetWaitlistInfo(ctx, b.ID, entry.Position, entry.JoinedAt); err != nil {
		return nil, err
	}
	return entry, nil
}
