package model

import (
	"fmt"
	"time"
)

// BookingStatus enumerates the lifecycle states of a booking.
// completed, cancelled and no_show are terminal.
type BookingStatus string

const (
	BookingPending   BookingStatus = "pending"
	BookingConfirmed BookingStatus = "confirmed"
	BookingSeated    BookingStatus = "seated"
	BookingCompleted BookingStatus = "completed"
	BookingCancelled BookingStatus = "cancelled"
	BookingNoShow    BookingStatus = "no_show"
)

// BookingType classifies how a booking entered the system.
type BookingType string

const (
	TypeRegular BookingType = "regular"
	TypeWalkIn  BookingType = "walk_in"
	TypeVIP     BookingType = "vip"
	TypeGroup   BookingType = "group"
)

// bookingTransitions is the single source of truth for legal status
// changes. Every status mutation must be validated against this table;
// call sites never encode transition rules themselves.
var bookingTransitions = map[BookingStatus][]BookingStatus{
	BookingPending:   {BookingConfirmed, BookingCancelled},
	BookingConfirmed: {BookingSeated, BookingCancelled, BookingNoShow},
	BookingSeated:    {BookingCompleted, BookingCancelled},
	BookingCompleted: {},
	BookingCancelled: {},
	BookingNoShow:    {},
}

// CanTransitionTo reports whether a booking in status s may move to next.
func (s BookingStatus) CanTransitionTo(next BookingStatus) bool {
	for _, allowed := range bookingTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition is permitted from s.
func (s BookingStatus) Terminal() bool {
	return len(bookingTransitions[s]) == 0
}

// ParseBookingStatus validates a raw status string from a request body.
func ParseBookingStatus(raw string) (BookingStatus, error) {
	s := BookingStatus(raw)
	if _, ok := bookingTransitions[s]; !ok {
		return "", fmt.Errorf("unknown booking status %q", raw)
	}
	return s, nil
}

// ParseBookingType validates a raw booking type string.
func ParseBookingType(raw string) (BookingType, error) {
	switch t := BookingType(raw); t {
	case TypeRegular, TypeWalkIn, TypeVIP, TypeGroup:
		return t, nil
	}
	return "", fmt.Errorf("unknown booking type %q", raw)
}

// Booking records a customer's claim on a table for a time slot.
// BookingNumber is the restaurant-facing identifier; ID is internal.
// The per-status timestamps are set exactly once, when the booking
// first enters the corresponding status.
type Booking struct {
	ID                 uint64        `json:"id"`
	BookingNumber      string        `json:"booking_number"`
	RestaurantID       uint64        `json:"restaurant_id"`
	TableID            uint64        `json:"table_id"`
	CustomerID         uint64        `json:"customer_id"`
	BookingType        BookingType   `json:"booking_type"`
	PartySize          uint32        `json:"party_size"`
	BookingDate        time.Time     `json:"booking_date"`
	StartTime          time.Time     `json:"start_time"`
	EndTime            time.Time     `json:"end_time"`
	Status             BookingStatus `json:"status"`
	SpecialRequests    *string       `json:"special_requests,omitempty"`
	ContactPhone       string        `json:"contact_phone"`
	ContactEmail       *string       `json:"contact_email,omitempty"`
	CancellationReason *string       `json:"cancellation_reason,omitempty"`
	WaitlistPosition   *uint32       `json:"waitlist_position,omitempty"`
	WaitlistJoinedAt   *time.Time    `json:"waitlist_joined_at,omitempty"`
	ConfirmedAt        *time.Time    `json:"confirmed_at,omitempty"`
	SeatedAt           *time.Time    `json:"seated_at,omitempty"`
	CompletedAt        *time.Time    `json:"completed_at,omitempty"`
	CancelledAt        *time.Time    `json:"cancelled_at,omitempty"`
	NoShowAt           *time.Time    `json:"no_show_at,omitempty"`
	CreatedAt          time.Time     `json:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at"`
}

// BookingNumberFor derives the human-readable booking identifier from the
// creation instant and a fragment of the customer id, e.g.
// BK-20250901193000-000042. Uniqueness is enforced by the store.
func BookingNumberFor(createdAt time.Time, customerID uint64) string {
	frag := fmt.Sprintf("%06d", customerID)
	if len(frag) > 6 {
		frag = frag[len(frag)-6:]
	}
	return fmt.Sprintf("BK-%s-%s", createdAt.UTC().Format("20060102150405"), frag)
}
