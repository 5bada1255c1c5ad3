// Package service holds the business rules of the reservation engine:
// the booking lifecycle manager, the waitlist coordinator and the stats
// aggregator. Services validate against the model state machines and
// delegate every atomic read-modify-write to the store.
package service

import "errors"

// ErrValidation is wrapped around malformed-input failures. Requests
// rejected with it never reach the store.
var ErrValidation = errors.New("invalid request")

// ErrInvalidTransition is returned when a requested status change is
// not permitted from the booking's current state.
var ErrInvalidTransition = errors.New("status transition not permitted")

// ErrAlreadyQueued is returned when a booking already has a waiting
// waitlist entry.
var ErrAlreadyQueued = errors.New("booking already on waitlist")
