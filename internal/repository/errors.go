// Package repository implements MySQL persistence for tables, bookings
// and waitlist entries. This file defines the sentinel errors shared by
// all repositories and the services built on top of them. Handlers
// inspect these with errors.Is to choose an HTTP status; none of them
// is ever swallowed on the way up.
package repository

import "errors"

// ErrTableNotFound is returned when a referenced table row does not exist.
var ErrTableNotFound = errors.New("table not found")

// ErrBookingNotFound is returned when a referenced booking does not exist.
var ErrBookingNotFound = errors.New("booking not found")

// ErrWaitlistEntryNotFound is returned when a waitlist entry does not
// exist or is no longer in the expected status.
var ErrWaitlistEntryNotFound = errors.New("waitlist entry not found")

// ErrTableUnavailable is returned when a booking commit finds the target
// table in any status other than available.
var ErrTableUnavailable = errors.New("table not available")

// ErrSlotConflict is returned when the requested slot overlaps an
// existing confirmed or seated booking on the same table and date.
var ErrSlotConflict = errors.New("time slot not available")

// ErrStaleStatus is returned by conditional writes when the row was not
// in the expected status at commit time, meaning a concurrent writer
// got there first. Services translate it into their own error kinds.
var ErrStaleStatus = errors.New("row status changed concurrently")

// ErrBookingAlreadyQueued is returned by the guarded waitlist insert
// when the booking already holds a waiting entry.
var ErrBookingAlreadyQueued = errors.New("booking already queued")
