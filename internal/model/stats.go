package model

// HourCount is one bucket of the peak-hours histogram: the number of
// bookings whose slot starts within the given hour of day (0-23).
type HourCount struct {
	Hour  int   `json:"hour"`
	Count int64 `json:"count"`
}

// TableCount ranks a table by how many bookings it received.
type TableCount struct {
	TableID uint64 `json:"table_id"`
	Count   int64  `json:"count"`
}

// WaitlistStats summarises the live queue of a restaurant. Average wait
// is measured from each waiting entry's join time to now, in seconds.
type WaitlistStats struct {
	TotalWaiting   int64   `json:"total_waiting"`
	AvgWaitSeconds float64 `json:"average_wait_seconds"`
}

// BookingStats aggregates committed booking history for a restaurant
// over a date range. It is derived data only; computing it never
// mutates anything.
type BookingStats struct {
	TotalBookings     int64            `json:"total_bookings"`
	ConfirmedBookings int64            `json:"confirmed_bookings"`
	CancelledBookings int64            `json:"cancelled_bookings"`
	NoShows           int64            `json:"no_shows"`
	AveragePartySize  float64          `json:"average_party_size"`
	BookingsByStatus  map[string]int64 `json:"bookings_by_status"`
	BookingsByType    map[string]int64 `json:"bookings_by_type"`
	PeakHours         []HourCount      `json:"peak_hours"`
	PopularTables     []TableCount     `json:"popular_tables"`
	Waitlist          *WaitlistStats   `json:"waitlist_stats,omitempty"`
}
