// Package slotcache keeps an in-memory snapshot of normalized availability,
// refreshed from the slot server on a fixed interval so the conversation
// engine never blocks a reply on a remote fetch.
package slotcache

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/taczaangel/MiProyecto/internal/slot"
)

// Fetcher is the subset of the slot server client the cache needs.
type Fetcher interface {
	FetchTurnos(ctx context.Context, specialty slot.Specialty) []slot.RawEntry
}

type Cache struct {
	fetcher  Fetcher
	interval time.Duration
	now      func() time.Time

	mu    sync.RWMutex
	slots []slot.Slot
	last  time.Time
}

func New(fetcher Fetcher, interval time.Duration) *Cache {
	return &Cache{
		fetcher:  fetcher,
		interval: interval,
		now:      time.Now,
	}
}

// Snapshot returns the current cached slots. The returned slice is shared;
// callers must not mutate it.
func (c *Cache) Snapshot() []slot.Slot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.slots
}

// BySpecialty filters the snapshot down to one specialty.
func (c *Cache) BySpecialty(specialty slot.Specialty) []slot.Slot {
	all := c.Snapshot()
	out := make([]slot.Slot, 0, len(all))
	for _, s := range all {
		if s.Specialty == specialty {
			out = append(out, s)
		}
	}
	return out
}

// LastRefresh reports when the cache last replaced its snapshot.
func (c *Cache) LastRefresh() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}

// Refresh fetches availability and replaces the snapshot wholesale. A failed
// or empty fetch still replaces: an empty pool is a valid state and must not
// leave stale slots visible to users.
func (c *Cache) Refresh(ctx context.Context) {
	raw := c.fetcher.FetchTurnos(ctx, "")
	now := c.now()
	slots := slot.Normalize(raw, "", now)

	c.mu.Lock()
	c.slots = slots
	c.last = now
	c.mu.Unlock()
}

// Poll refreshes immediately, then on every tick until ctx is cancelled.
func (c *Cache) Poll(ctx context.Context) {
	log.Printf("slotcache: polling every %s", c.interval)
	c.Refresh(ctx)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("slotcache: poll stopped")
			return
		case <-ticker.C:
			c.Refresh(ctx)
		}
	}
}
