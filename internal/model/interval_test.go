package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestOverlaps(t *testing.T) {
	at := func(h, m int) time.Time {
		return time.Date(2025, 9, 1, h, m, 0, 0, time.UTC)
	}

	// Classic overlap: 18:00-19:30 vs 19:00-20:00.
	assert.True(t, Overlaps(at(18, 0), at(19, 30), at(19, 0), at(20, 0)))
	// Containment.
	assert.True(t, Overlaps(at(18, 0), at(22, 0), at(19, 0), at(20, 0)))
	// Identical slots.
	assert.True(t, Overlaps(at(18, 0), at(20, 0), at(18, 0), at(20, 0)))
	// Touching endpoints do not conflict: 18:00-19:30 vs 19:30-20:30.
	assert.False(t, Overlaps(at(18, 0), at(19, 30), at(19, 30), at(20, 30)))
	assert.False(t, Overlaps(at(19, 30), at(20, 30), at(18, 0), at(19, 30)))
	// Disjoint.
	assert.False(t, Overlaps(at(18, 0), at(19, 0), at(20, 0), at(21, 0)))
}
