package model

import "time"

// Overlaps reports whether the half-open slots [aStart, aEnd) and
// [bStart, bEnd) share any instant. A slot ending exactly when the
// other begins does not overlap. The same condition is used verbatim
// in the conflict query; keep the two in sync.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && aEnd.After(bStart)
}
