package slot

import "time"

// Slot times are stored as UTC instants whose clock reads Peru local time.
// The original scheduling data was produced by subtracting a fixed five hours
// rather than doing a zone-aware conversion; PeruOffset names that convention
// so it is applied at exactly one boundary. Peru does not observe DST, so the
// fixed offset is stable.
const PeruOffset = -5 * time.Hour

// DefaultSlotLength is the implied appointment length when a slot has no
// explicit end time.
const DefaultSlotLength = 40 * time.Minute

// PeruNow returns the current wall-clock time in Peru, expressed with the
// same fixed-offset convention the slot store uses.
func PeruNow() time.Time {
	return time.Now().UTC().Add(PeruOffset)
}

// TodayUTC returns today's UTC midnight, the cutoff below which slots are
// considered past and never listed.
func TodayUTC(now time.Time) time.Time {
	y, m, d := now.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
