package slot

import (
	"context"
	"errors"
	"time"
)

var (
	ErrSlotNotFound = errors.New("slot not found")
	ErrSlotExists   = errors.New("slot already available")
	ErrSlotHeld     = errors.New("slot is held by another user")
	ErrHoldNotFound = errors.New("hold not found for this user")
)

// Repository contains all DB interactions needed by the slot service.
type Repository interface {
	// ListAvailable returns future slots, excluding actively held ones, and
	// clears expired holds as a side effect of being read.
	ListAvailable(ctx context.Context, specialty Specialty, now time.Time) ([]StoredSlot, error)

	// DeleteAvailable removes a matching non-held (or hold-expired) slot.
	// ErrSlotNotFound when no such slot exists at call time.
	DeleteAvailable(ctx context.Context, provider string, start, now time.Time) (*StoredSlot, error)

	// Insert re-adds a slot. ErrSlotExists when (provider, start) is taken.
	Insert(ctx context.Context, s StoredSlot) error

	// SetHold claims a slot for a holder until the given time.
	// ErrSlotNotFound when absent, ErrSlotHeld when actively held by someone else.
	SetHold(ctx context.Context, provider string, start time.Time, holder string, until, now time.Time) error

	// ClearHold releases a hold owned by holder. ErrHoldNotFound otherwise.
	ClearHold(ctx context.Context, provider string, start time.Time, holder string) error
}
