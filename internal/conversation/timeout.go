package conversation

import (
	"sync"
	"time"
)

// TimeoutManager runs the per-chat confirmation countdown. Starting a timer
// for a chat replaces any earlier one, so a re-proposed slot restarts the
// full window instead of inheriting what was left.
type TimeoutManager struct {
	mu     sync.Mutex
	ttl    time.Duration
	timers map[string]*time.Timer
}

func NewTimeoutManager(ttl time.Duration) *TimeoutManager {
	return &TimeoutManager{
		ttl:    ttl,
		timers: make(map[string]*time.Timer),
	}
}

// Start schedules fire to run after the TTL unless Stop is called first.
func (m *TimeoutManager) Start(chatID string, fire func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[chatID]; ok {
		t.Stop()
	}
	m.timers[chatID] = time.AfterFunc(m.ttl, func() {
		m.mu.Lock()
		delete(m.timers, chatID)
		m.mu.Unlock()
		fire()
	})
}

// Stop cancels the chat's pending countdown, if any.
func (m *TimeoutManager) Stop(chatID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if t, ok := m.timers[chatID]; ok {
		t.Stop()
		delete(m.timers, chatID)
	}
}

// Active reports whether a countdown is running for the chat.
func (m *TimeoutManager) Active(chatID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.timers[chatID]
	return ok
}
