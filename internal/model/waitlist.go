package model

import "time"

// WaitlistStatus enumerates the states of a waitlist entry. An entry
// leaves the queue logically, by status change; rows are never deleted.
type WaitlistStatus string

const (
	WaitlistWaiting   WaitlistStatus = "waiting"
	WaitlistPromoted  WaitlistStatus = "promoted"
	WaitlistCancelled WaitlistStatus = "cancelled"
)

// WaitlistEntry is a party queued for a table at a restaurant. Position
// is allocated from a per-restaurant counter owned by the store and
// reflects join order; it is never renumbered when earlier entries
// leave the queue.
type WaitlistEntry struct {
	ID           uint64         `json:"id"`
	RestaurantID uint64         `json:"restaurant_id"`
	BookingID    uint64         `json:"booking_id"`
	CustomerID   uint64         `json:"customer_id"`
	PartySize    uint32         `json:"party_size"`
	Position     uint32         `json:"position"`
	Status       WaitlistStatus `json:"status"`
	JoinedAt     time.Time      `json:"joined_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}
