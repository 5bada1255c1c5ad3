package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCanTransitionTo(t *testing.T) {
	cases := []struct {
		from, to BookingStatus
		want     bool
	}{
		{BookingPending, BookingConfirmed, true},
		{BookingPending, BookingCancelled, true},
		{BookingPending, BookingSeated, false},
		{BookingConfirmed, BookingSeated, true},
		{BookingConfirmed, BookingCancelled, true},
		{BookingConfirmed, BookingNoShow, true},
		{BookingConfirmed, BookingCompleted, false},
		{BookingSeated, BookingCompleted, true},
		{BookingSeated, BookingCancelled, true},
		{BookingSeated, BookingNoShow, false},
		{BookingCompleted, BookingConfirmed, false},
		{BookingCancelled, BookingConfirmed, false},
		{BookingNoShow, BookingConfirmed, false},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tc.from.CanTransitionTo(tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, BookingPending.Terminal())
	assert.False(t, BookingConfirmed.Terminal())
	assert.False(t, BookingSeated.Terminal())
	assert.True(t, BookingCompleted.Terminal())
	assert.True(t, BookingCancelled.Terminal())
	assert.True(t, BookingNoShow.Terminal())
}

func TestParseBookingStatus(t *testing.T) {
	st, err := ParseBookingStatus("no_show")
	assert.NoError(t, err)
	assert.Equal(t, BookingNoShow, st)

	_, err = ParseBookingStatus("eaten")
	assert.Error(t, err)
}

func TestParseBookingType(t *testing.T) {
	bt, err := ParseBookingType("walk_in")
	assert.NoError(t, err)
	assert.Equal(t, TypeWalkIn, bt)

	_, err = ParseBookingType("takeaway")
	assert.Error(t, err)
}

func TestBookingNumberFor(t *testing.T) {
	at := time.Date(2025, 9, 1, 19, 30, 0, 0, time.UTC)
	assert.Equal(t, "BK-20250901193000-000042", BookingNumberFor(at, 42))
	// Only the last six digits of a long customer id survive.
	assert.Equal(t, "BK-20250901193000-654321", BookingNumberFor(at, 987654321))
}
