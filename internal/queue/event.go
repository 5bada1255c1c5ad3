// Package queue defines message payloads exchanged over the message
// broker and the background consumer that records them.
package queue

// Queue names used for booking lifecycle events. Downstream consumers
// (notification service, analytics) bind to these by name.
const (
	BookingConfirmedQueue = "booking.confirmed"
	BookingCancelledQueue = "booking.cancelled"
	WaitlistPromotedQueue = "waitlist.promoted"
)

// BookingConfirmedEvent is published when a booking commits onto a
// table. It carries enough for downstream consumers to notify or log
// without querying the primary database.
type BookingConfirmedEvent struct {
	BookingID     uint64 `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	RestaurantID  uint64 `json:"restaurant_id"`
	TableID       uint64 `json:"table_id"`
	CustomerID    uint64 `json:"customer_id"`
	PartySize     uint32 `json:"party_size"`
	BookingDate   string `json:"booking_date"`
	StartTime     string `json:"start_time"`
	EndTime       string `json:"end_time"`
	ConfirmedAt   string `json:"confirmed_at"`
}

// BookingCancelledEvent is published when a booking is cancelled or
// marked as a no-show and its table is released.
type BookingCancelledEvent struct {
	BookingID     uint64 `json:"booking_id"`
	BookingNumber string `json:"booking_number"`
	RestaurantID  uint64 `json:"restaurant_id"`
	TableID       uint64 `json:"table_id"`
	CustomerID    uint64 `json:"customer_id"`
	Status        string `json:"status"`
	Reason        string `json:"reason,omitempty"`
	OccurredAt    string `json:"occurred_at"`
}

// WaitlistPromotedEvent is published when a waiting party is promoted
// onto a freed table.
type WaitlistPromotedEvent struct {
	EntryID      uint64 `json:"entry_id"`
	BookingID    uint64 `json:"booking_id"`
	RestaurantID uint64 `json:"restaurant_id"`
	TableID      uint64 `json:"table_id"`
	CustomerID   uint64 `json:"customer_id"`
	PartySize    uint32 `json:"party_size"`
	Position     uint32 `json:"position"`
	PromotedAt   string `json:"promoted_at"`
}
