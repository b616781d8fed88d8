package conversation

import (
	"sync"

	"github.com/taczaangel/MiProyecto/internal/slot"
)

// PatientData is what the flow collects before a slot is proposed.
type PatientData struct {
	Nombre      string
	DNI         string
	Edad        int
	Consultorio string
	// Preferido is the provider key the user picked, or "" for no
	// preference.
	Preferido string
}

// State is one chat's position in the flow plus everything collected so far.
type State struct {
	Step    Step
	Data    PatientData
	Pending *slot.Slot

	processing bool
}

// Registry holds per-chat conversation state. All access goes through the
// mutex; handler goroutines for the same chat coordinate via the processing
// flag.
type Registry struct {
	mu     sync.Mutex
	states map[string]*State
}

func NewRegistry() *Registry {
	return &Registry{states: make(map[string]*State)}
}

// Get returns the state for chatID, creating an idle one if absent.
func (r *Registry) Get(chatID string) *State {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[chatID]
	if !ok {
		st = &State{Step: StepIdle}
		r.states[chatID] = st
	}
	return st
}

// Peek returns the state for chatID without creating one.
func (r *Registry) Peek(chatID string) (*State, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[chatID]
	return st, ok
}

// Delete drops a chat's state entirely.
func (r *Registry) Delete(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.states, chatID)
}

// TryBeginProcessing marks the chat as busy. It returns false when another
// message for the same chat is still being handled; the caller must then
// drop the message.
func (r *Registry) TryBeginProcessing(chatID string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	st, ok := r.states[chatID]
	if !ok {
		st = &State{Step: StepIdle}
		r.states[chatID] = st
	}
	if st.processing {
		return false
	}
	st.processing = true
	return true
}

// EndProcessing clears the busy flag if the chat still exists.
func (r *Registry) EndProcessing(chatID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st, ok := r.states[chatID]; ok {
		st.processing = false
	}
}
