package slot

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/taczaangel/MiProyecto/internal/redisclient"
)

var (
	ErrSlotBeingBooked = errors.New("slot is currently being booked, please retry")
)

// Service guards slot mutations with a per-slot distributed lock so that
// concurrent reservations of the same (provider, start) cannot both succeed.
type Service struct {
	repo    Repository
	locker  redisclient.Locker
	holdTTL time.Duration
	now     func() time.Time
}

func NewService(repo Repository, locker redisclient.Locker, holdTTL time.Duration) *Service {
	return &Service{
		repo:    repo,
		locker:  locker,
		holdTTL: holdTTL,
		now:     time.Now,
	}
}

// ListAvailable returns the currently bookable future slots.
func (s *Service) ListAvailable(ctx context.Context, specialty Specialty) ([]StoredSlot, error) {
	slots, err := s.repo.ListAvailable(ctx, specialty, s.now().UTC())
	if err != nil {
		return nil, fmt.Errorf("list slots: %w", err)
	}
	return slots, nil
}

// Reserve atomically removes an available slot. ErrSlotNotFound signals a
// lost race, not a failure.
func (s *Service) Reserve(ctx context.Context, provider string, start time.Time) (*StoredSlot, error) {
	var reserved *StoredSlot

	err := s.locker.WithSlotLock(ctx, provider, start, func(lockCtx context.Context) error {
		deleted, err := s.repo.DeleteAvailable(lockCtx, provider, start.UTC(), s.now().UTC())
		if err != nil {
			if errors.Is(err, ErrSlotNotFound) {
				return err
			}
			return fmt.Errorf("reserve slot: %w", err)
		}
		reserved = deleted
		log.Printf("slot reserved provider=%s start=%s", provider, start.UTC().Format(time.RFC3339))
		return nil
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return nil, ErrSlotBeingBooked
		}
		return nil, err
	}

	return reserved, nil
}

// Release re-adds a slot to the pool. ErrSlotExists when it is already there,
// which prevents duplicate entries from double releases.
func (s *Service) Release(ctx context.Context, sl StoredSlot) error {
	if sl.End.IsZero() {
		sl.End = sl.Start.Add(DefaultSlotLength)
	}
	if sl.Specialty == "" {
		sl.Specialty = SpecialtyFor(sl.Provider)
	}
	if sl.Title == "" {
		sl.Title = DisplayName(sl.Provider)
	}
	// Released slots always come back unheld.
	sl.HeldBy = nil
	sl.HeldUntil = nil

	err := s.locker.WithSlotLock(ctx, sl.Provider, sl.Start, func(lockCtx context.Context) error {
		return s.repo.Insert(lockCtx, sl)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return ErrSlotBeingBooked
		}
		if errors.Is(err, ErrSlotExists) {
			return err
		}
		return fmt.Errorf("release slot: %w", err)
	}

	log.Printf("slot released provider=%s start=%s", sl.Provider, sl.Start.UTC().Format(time.RFC3339))
	return nil
}

// Hold claims a slot for holder for the configured TTL without removing it.
func (s *Service) Hold(ctx context.Context, provider string, start time.Time, holder string) (time.Time, error) {
	now := s.now().UTC()
	until := now.Add(s.holdTTL)

	err := s.locker.WithSlotLock(ctx, provider, start, func(lockCtx context.Context) error {
		return s.repo.SetHold(lockCtx, provider, start.UTC(), holder, until, now)
	})
	if err != nil {
		if errors.Is(err, redisclient.ErrLockNotAcquired) {
			return time.Time{}, ErrSlotBeingBooked
		}
		return time.Time{}, err
	}

	log.Printf("slot held provider=%s start=%s holder=%s until=%s",
		provider, start.UTC().Format(time.RFC3339), holder, until.Format(time.RFC3339))
	return until, nil
}

// Unhold releases a hold owned by holder.
func (s *Service) Unhold(ctx context.Context, provider string, start time.Time, holder string) error {
	err := s.locker.WithSlotLock(ctx, provider, start, func(lockCtx context.Context) error {
		return s.repo.ClearHold(lockCtx, provider, start.UTC(), holder)
	})
	if errors.Is(err, redisclient.ErrLockNotAcquired) {
		return ErrSlotBeingBooked
	}
	return err
}

// CreateMany inserts dashboard-authored slots, skipping exact duplicates.
// Returns how many were actually inserted.
func (s *Service) CreateMany(ctx context.Context, slots []StoredSlot) (int, error) {
	inserted := 0
	for _, sl := range slots {
		if sl.End.IsZero() {
			sl.End = sl.Start.Add(DefaultSlotLength)
		}
		if sl.Specialty == "" {
			sl.Specialty = SpecialtyFor(sl.Provider)
		}
		err := s.repo.Insert(ctx, sl)
		if err != nil {
			if errors.Is(err, ErrSlotExists) {
				continue
			}
			return inserted, fmt.Errorf("create slot: %w", err)
		}
		inserted++
	}
	return inserted, nil
}
