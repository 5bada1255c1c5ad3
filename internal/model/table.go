package model

import "time"

// TableStatus enumerates the physical states of a restaurant table.
// Transitions between booking-driven states (available, reserved,
// occupied) are owned by the booking lifecycle; staff may only flip a
// table between available, cleaning and maintenance through the table
// endpoints, and never while a live booking references it.
type TableStatus string

const (
	TableAvailable   TableStatus = "available"
	TableReserved    TableStatus = "reserved"
	TableOccupied    TableStatus = "occupied"
	TableCleaning    TableStatus = "cleaning"
	TableMaintenance TableStatus = "maintenance"
)

// ValidTableStatus reports whether s is one of the known table states.
func ValidTableStatus(s TableStatus) bool {
	switch s {
	case TableAvailable, TableReserved, TableOccupied, TableCleaning, TableMaintenance:
		return true
	}
	return false
}

// ManualTableStatus reports whether staff may set s directly. The
// reserved and occupied states are reachable only through bookings.
func ManualTableStatus(s TableStatus) bool {
	switch s {
	case TableAvailable, TableCleaning, TableMaintenance:
		return true
	}
	return false
}

// Table represents a physical table in a restaurant. The pair
// (RestaurantID, TableNumber) is unique per restaurant.
type Table struct {
	ID           uint64      `json:"id"`
	RestaurantID uint64      `json:"restaurant_id"`
	TableNumber  string      `json:"table_number"`
	Capacity     uint32      `json:"capacity"`
	Status       TableStatus `json:"status"`
	Location     *string     `json:"location,omitempty"`
	Features     []string    `json:"features"`
	CreatedAt    time.Time   `json:"created_at"`
	UpdatedAt    time.Time   `json:"updated_at"`
}
