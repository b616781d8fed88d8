package conversation

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/taczaangel/MiProyecto/internal/slot"
	"github.com/taczaangel/MiProyecto/internal/slotapi"
	"github.com/taczaangel/MiProyecto/internal/wa"
)

const (
	testChat  = "51987654321@c.us"
	testAdmin = "51959634347@c.us"
)

// engineNow is a Friday 08:00 Peru time, inside the booking window.
var engineNow = time.Date(2026, 3, 13, 13, 0, 0, 0, time.UTC)

type fakeAPI struct {
	mu sync.Mutex

	entries      []slot.RawEntry
	citas        map[string]*slotapi.Cita
	reserveFail  bool
	saveFail     bool
	releaseFail  bool
	reserveDelay time.Duration
	saveDelay    time.Duration

	fetchCalls int
	ops        []string
	reserved   []slot.Slot
	released   []slot.Slot
	saved      []slotapi.Cita
	cancelled  []string
}

func (f *fakeAPI) FetchTurnos(context.Context, slot.Specialty) []slot.RawEntry {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fetchCalls++
	return f.entries
}

func (f *fakeAPI) Reserve(_ context.Context, s slot.Slot) bool {
	time.Sleep(f.reserveDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "reserve")
	if f.reserveFail {
		return false
	}
	f.reserved = append(f.reserved, s)
	return true
}

func (f *fakeAPI) Release(_ context.Context, s slot.Slot) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ops = append(f.ops, "release")
	if f.releaseFail {
		return false
	}
	f.released = append(f.released, s)
	return true
}

func (f *fakeAPI) SaveCita(_ context.Context, cita slotapi.Cita) bool {
	time.Sleep(f.saveDelay)
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.saveFail {
		return false
	}
	f.saved = append(f.saved, cita)
	return true
}

func (f *fakeAPI) FindCita(_ context.Context, dni string) *slotapi.Cita {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.citas[dni]
}

func (f *fakeAPI) CancelCita(_ context.Context, dni string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.cancelled = append(f.cancelled, dni)
	return true
}

type recorder struct {
	mu   sync.Mutex
	sent []sentMsg
}

type sentMsg struct {
	chatID string
	text   string
}

func (r *recorder) Send(_ context.Context, chatID, text string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMsg{chatID: chatID, text: text})
	return nil
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.sent)
}

func (r *recorder) last(t *testing.T) sentMsg {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.sent) == 0 {
		t.Fatal("no messages sent")
	}
	return r.sent[len(r.sent)-1]
}

func (r *recorder) lastFor(t *testing.T, chatID string) string {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].chatID == chatID {
			return r.sent[i].text
		}
	}
	t.Fatalf("no messages sent to %s", chatID)
	return ""
}

func newTestEngine(api *fakeAPI, rec *recorder, ttl time.Duration) *Engine {
	e := NewEngine(api, nil, rec, testAdmin, ttl)
	e.now = func() time.Time { return engineNow }
	e.startedAt = engineNow.Add(-time.Hour)
	return e
}

func say(e *Engine, text string) {
	e.HandleMessage(wa.Message{ChatID: testChat, Text: text, Timestamp: engineNow})
}

func generalEntries() []slot.RawEntry {
	return []slot.RawEntry{
		{Profesional: "CD Elio Támara", Fecha: "2026-03-13", HoraInicio: "14:00"},
		{Profesional: "CD Manuel Romani", Fecha: "2026-03-13", HoraInicio: "15:00"},
	}
}

func TestFullBookingFlow(t *testing.T) {
	api := &fakeAPI{entries: generalEntries(), citas: map[string]*slotapi.Cita{}}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)

	say(e, "hola")
	if got := rec.last(t).text; got != msgGreetingAsk {
		t.Fatalf("greeting reply: %q", got)
	}

	say(e, "sí")
	if got := rec.last(t).text; got != msgStartIntroAffirmed {
		t.Fatalf("intent reply: %q", got)
	}

	say(e, "Maria")
	if got := rec.last(t).text; got != msgInvalidName {
		t.Fatalf("single token name accepted: %q", got)
	}

	say(e, "Maria Quispe")
	if got := rec.last(t).text; got != msgAskDNI {
		t.Fatalf("name reply: %q", got)
	}

	say(e, "123")
	if got := rec.last(t).text; got != msgInvalidDNI {
		t.Fatalf("short dni accepted: %q", got)
	}

	say(e, "12345678")
	if got := rec.last(t).text; got != msgAskAge {
		t.Fatalf("dni reply: %q", got)
	}

	say(e, "34")
	if got := rec.last(t).text; !strings.Contains(got, "¿Llevas tratamiento con algún odontólogo?") {
		t.Fatalf("expected the general provider menu, got %q", got)
	}

	say(e, "1")
	if got := rec.last(t).text; !strings.Contains(got, "Has elegido al odontólogo *CD Elio Támara*") {
		t.Fatalf("provider choice reply: %q", got)
	}

	say(e, "si")
	if len(api.reserved) != 1 || api.reserved[0].Provider != slot.ProviderElio {
		t.Fatalf("reserve not called for elio: %+v", api.reserved)
	}
	if !api.reserved[0].Start.Equal(time.Date(2026, 3, 13, 14, 0, 0, 0, time.UTC)) {
		t.Fatalf("earliest slot not chosen: %v", api.reserved[0].Start)
	}
	st, ok := e.reg.Peek(testChat)
	if !ok || st.Step != StepHoldingSlot || st.Pending == nil {
		t.Fatalf("expected a held slot, state %+v", st)
	}
	if !e.timeouts.Active(testChat) {
		t.Fatal("confirmation countdown should be running")
	}
	if got := rec.last(t).text; !strings.Contains(got, "¡Turno reservado temporalmente!") {
		t.Fatalf("hold reply: %q", got)
	}

	say(e, "si")
	if len(api.saved) != 1 {
		t.Fatalf("cita not saved: %+v", api.saved)
	}
	cita := api.saved[0]
	if cita.DNI != "12345678" || cita.Nombre != "Maria Quispe" || cita.Edad != 34 {
		t.Fatalf("unexpected cita: %+v", cita)
	}
	if cita.Consultorio != consultorioGeneral || cita.Status != "confirmada" {
		t.Fatalf("unexpected cita: %+v", cita)
	}
	if cita.StartUTC == nil || !cita.StartUTC.Equal(api.reserved[0].Start) {
		t.Fatalf("start timestamp not persisted: %+v", cita.StartUTC)
	}
	if got := rec.lastFor(t, testChat); !strings.Contains(got, "¡Cita confirmada exitosamente!") {
		t.Fatalf("confirmation reply: %q", got)
	}
	if got := rec.lastFor(t, testAdmin); !strings.Contains(got, "Nueva cita confirmada") {
		t.Fatalf("admin notice: %q", got)
	}
	if _, ok := e.reg.Peek(testChat); ok {
		t.Fatal("state should be forgotten after confirmation")
	}
	if e.timeouts.Active(testChat) {
		t.Fatal("countdown should be cancelled after confirmation")
	}
}

func TestDirectRequestStartsFlowImmediately(t *testing.T) {
	api := &fakeAPI{entries: generalEntries()}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)

	say(e, "quiero sacar una cita")
	if got := rec.last(t).text; got != msgStartIntro {
		t.Fatalf("got %q", got)
	}
	st, _ := e.reg.Peek(testChat)
	if st.Step != StepCollectName {
		t.Fatalf("step = %s", st.Step)
	}
}

func TestGreetingWithNoSlots(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)

	say(e, "hola")
	if got := rec.last(t).text; got != msgGreetingNoSlots {
		t.Fatalf("got %q", got)
	}
	if _, ok := e.reg.Peek(testChat); ok {
		t.Fatal("no-slot greeting should leave no state behind")
	}
}

func TestDuplicateDNIStopsFlow(t *testing.T) {
	api := &fakeAPI{
		entries: generalEntries(),
		citas: map[string]*slotapi.Cita{
			"12345678": {Nombre: "Maria Quispe", DNI: "12345678", Fecha: "13/03/2026", Hora: "14:00", Profesional: "CD Elio Támara"},
		},
	}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)

	say(e, "cita")
	say(e, "Maria Quispe")
	say(e, "12345678")
	if got := rec.last(t).text; !strings.Contains(got, "Ya existe una cita registrada con este DNI") {
		t.Fatalf("got %q", got)
	}
	if _, ok := e.reg.Peek(testChat); ok {
		t.Fatal("duplicate dni should reset the chat")
	}
}

func TestOutOfWindowGetsAutoResponse(t *testing.T) {
	api := &fakeAPI{entries: []slot.RawEntry{
		{Profesional: "CD Elio Támara", Fecha: "2026-03-20", HoraInicio: "14:00"},
	}}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	// Sunday 10:00 Peru time.
	e.now = func() time.Time { return time.Date(2026, 3, 15, 15, 0, 0, 0, time.UTC) }

	say(e, "hola")
	if got := rec.last(t).text; !strings.Contains(got, "Es domingo") {
		t.Fatalf("got %q", got)
	}
	if _, ok := e.reg.Peek(testChat); ok {
		t.Fatal("out-of-window messages must not create state")
	}

	// The admin chat bypasses the window.
	e.HandleMessage(wa.Message{ChatID: testAdmin, Text: "hola", Timestamp: engineNow})
	if got := rec.lastFor(t, testAdmin); got != msgGreetingAsk {
		t.Fatalf("admin bypass reply: %q", got)
	}
}

func TestBusyChatDropsMessage(t *testing.T) {
	api := &fakeAPI{entries: generalEntries()}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)

	if !e.reg.TryBeginProcessing(testChat) {
		t.Fatal("first begin should succeed")
	}
	say(e, "hola")
	if rec.count() != 0 {
		t.Fatalf("busy chat should drop the message, sent %d", rec.count())
	}
	e.reg.EndProcessing(testChat)

	say(e, "hola")
	if rec.count() != 1 {
		t.Fatalf("freed chat should process again, sent %d", rec.count())
	}
}

func TestSelfAndStaleMessagesIgnored(t *testing.T) {
	api := &fakeAPI{entries: generalEntries()}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)

	e.HandleMessage(wa.Message{ChatID: testChat, Text: "hola", FromSelf: true, Timestamp: engineNow})
	e.HandleMessage(wa.Message{ChatID: testChat, Text: "hola", Timestamp: e.startedAt.Add(-time.Minute)})
	if rec.count() != 0 {
		t.Fatalf("sent %d messages, want 0", rec.count())
	}
}

func holdingState(e *Engine, pending slot.Slot) *State {
	st := e.reg.Get(testChat)
	st.Step = StepHoldingSlot
	st.Pending = &pending
	st.Data = PatientData{
		Nombre:      "Maria Quispe",
		DNI:         "12345678",
		Edad:        34,
		Consultorio: consultorioGeneral,
		Preferido:   slot.ProviderElio,
	}
	return st
}

func elioSlot(day, hour int) slot.Slot {
	start := time.Date(2026, 3, day, hour, 0, 0, 0, time.UTC)
	return slot.Slot{
		Provider:  slot.ProviderElio,
		Title:     "CD Elio Támara",
		Specialty: slot.SpecialtyGeneral,
		Start:     start,
		End:       start.Add(slot.DefaultSlotLength),
	}
}

func TestDenyWhileHoldingReleasesSlot(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	held := elioSlot(13, 14)
	holdingState(e, held)

	say(e, "no gracias")
	if len(api.released) != 1 || !api.released[0].Start.Equal(held.Start) {
		t.Fatalf("held slot not released: %+v", api.released)
	}
	if got := rec.last(t).text; got != msgUnderstoodResetShort {
		t.Fatalf("got %q", got)
	}
	if _, ok := e.reg.Peek(testChat); ok {
		t.Fatal("deny should forget the chat")
	}
}

func TestPreferenceSwapReservesBeforeReleasing(t *testing.T) {
	api := &fakeAPI{entries: []slot.RawEntry{
		// Tuesday evening, matching "martes por la tarde".
		{Profesional: "CD Elio Támara", Fecha: "2026-03-17", HoraInicio: "18:30"},
	}}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	held := elioSlot(13, 14)
	holdingState(e, held)

	say(e, "martes por la tarde")

	if want := []string{"reserve", "release"}; len(api.ops) != 2 || api.ops[0] != want[0] || api.ops[1] != want[1] {
		t.Fatalf("swap order = %v, want reserve then release", api.ops)
	}
	if !api.released[0].Start.Equal(held.Start) {
		t.Fatalf("old slot not the one released: %+v", api.released[0])
	}
	st, _ := e.reg.Peek(testChat)
	if st.Pending == nil || !st.Pending.Start.Equal(time.Date(2026, 3, 17, 18, 30, 0, 0, time.UTC)) {
		t.Fatalf("pending not swapped: %+v", st.Pending)
	}
	if got := rec.last(t).text; !strings.Contains(got, "Nuevo turno encontrado") {
		t.Fatalf("got %q", got)
	}
	if !e.timeouts.Active(testChat) {
		t.Fatal("swap should restart the countdown")
	}
}

func TestPreferenceSwapKeepsHoldWhenReserveLost(t *testing.T) {
	api := &fakeAPI{
		entries: []slot.RawEntry{
			{Profesional: "CD Elio Támara", Fecha: "2026-03-17", HoraInicio: "18:30"},
		},
		reserveFail: true,
	}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	held := elioSlot(13, 14)
	holdingState(e, held)

	say(e, "martes por la tarde")

	if len(api.released) != 0 {
		t.Fatal("current hold must survive a lost race")
	}
	st, _ := e.reg.Peek(testChat)
	if st.Pending == nil || !st.Pending.Start.Equal(held.Start) {
		t.Fatalf("pending changed: %+v", st.Pending)
	}
	if got := rec.last(t).text; !strings.Contains(got, "ya fue reservado por otra persona") {
		t.Fatalf("got %q", got)
	}
}

func TestPreferenceWithoutMatchKeepsHold(t *testing.T) {
	api := &fakeAPI{entries: []slot.RawEntry{
		{Profesional: "CD Elio Támara", Fecha: "2026-03-16", HoraInicio: "14:00"},
	}}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	held := elioSlot(13, 14)
	holdingState(e, held)

	say(e, "el sabado por favor")

	if len(api.ops) != 0 {
		t.Fatalf("no slot calls expected, got %v", api.ops)
	}
	st, _ := e.reg.Peek(testChat)
	if st.Step != StepHoldingSlot || st.Pending == nil {
		t.Fatalf("hold abandoned: %+v", st)
	}
	if got := rec.last(t).text; !strings.Contains(got, "Mantengo el turno actual") {
		t.Fatalf("got %q", got)
	}
}

func TestSaveFailureReleasesSlot(t *testing.T) {
	api := &fakeAPI{saveFail: true}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	held := elioSlot(13, 14)
	holdingState(e, held)

	say(e, "si")
	if len(api.released) != 1 || !api.released[0].Start.Equal(held.Start) {
		t.Fatalf("slot not released after save failure: %+v", api.released)
	}
	if got := rec.last(t).text; got != msgSaveFailed {
		t.Fatalf("got %q", got)
	}
	if _, ok := e.reg.Peek(testChat); ok {
		t.Fatal("save failure should reset the chat")
	}
}

func TestHoldExpiryReleasesAndNotifies(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	e := newTestEngine(api, rec, 20*time.Millisecond)
	held := elioSlot(13, 14)
	holdingState(e, held)
	e.startCountdown(testChat)

	deadline := time.Now().Add(2 * time.Second)
	for rec.count() == 0 {
		if time.Now().After(deadline) {
			t.Fatal("hold never expired")
		}
		time.Sleep(5 * time.Millisecond)
	}

	if _, ok := e.reg.Peek(testChat); ok {
		t.Fatal("expiry should forget the chat")
	}
	if len(api.released) != 1 || !api.released[0].Start.Equal(held.Start) {
		t.Fatalf("expired hold not released: %+v", api.released)
	}
	if got := rec.lastFor(t, testChat); got != msgTimeout {
		t.Fatalf("got %q", got)
	}
}

func TestExpiryDefersToSwapInProgress(t *testing.T) {
	api := &fakeAPI{
		entries: []slot.RawEntry{
			{Profesional: "CD Elio Támara", Fecha: "2026-03-17", HoraInicio: "18:30"},
		},
		reserveDelay: 300 * time.Millisecond,
	}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	held := elioSlot(13, 14)
	holdingState(e, held)

	done := make(chan struct{})
	go func() {
		say(e, "martes por la tarde")
		close(done)
	}()

	// Let the handler get inside the slow Reserve call, then fire the
	// expiry the way the countdown timer would.
	time.Sleep(50 * time.Millisecond)
	e.expireHold(testChat)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("swap never finished")
	}
	// Give deferred expiry retries time to run and give up.
	time.Sleep(400 * time.Millisecond)

	if want := []string{"reserve", "release"}; len(api.ops) != 2 || api.ops[0] != want[0] || api.ops[1] != want[1] {
		t.Fatalf("ops = %v, want the swap's reserve then release only", api.ops)
	}
	if len(api.released) != 1 || !api.released[0].Start.Equal(held.Start) {
		t.Fatalf("released = %+v, want only the pre-swap slot", api.released)
	}
	st, ok := e.reg.Peek(testChat)
	if !ok || st.Step != StepHoldingSlot || st.Pending == nil {
		t.Fatalf("swap result lost: %+v", st)
	}
	if !st.Pending.Start.Equal(time.Date(2026, 3, 17, 18, 30, 0, 0, time.UTC)) {
		t.Fatalf("pending = %+v, want the swapped slot", st.Pending)
	}
	if !e.timeouts.Active(testChat) {
		t.Fatal("swapped hold should still have its countdown")
	}
	rec.mu.Lock()
	for _, m := range rec.sent {
		if m.text == msgTimeout || m.text == msgInternalError {
			t.Fatalf("unexpected message during swap: %q", m.text)
		}
	}
	rec.mu.Unlock()
}

func TestExpiryDefersToConfirmationInProgress(t *testing.T) {
	api := &fakeAPI{saveDelay: 300 * time.Millisecond}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	held := elioSlot(13, 14)
	holdingState(e, held)

	done := make(chan struct{})
	go func() {
		say(e, "si")
		close(done)
	}()

	time.Sleep(50 * time.Millisecond)
	e.expireHold(testChat)

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("confirmation never finished")
	}
	time.Sleep(400 * time.Millisecond)

	if len(api.saved) != 1 {
		t.Fatalf("cita not saved: %+v", api.saved)
	}
	if len(api.released) != 0 {
		t.Fatalf("confirmed slot must not be released: %+v", api.released)
	}
	if st, ok := e.reg.Peek(testChat); ok && (st.Step != StepIdle || st.Pending != nil) {
		t.Fatalf("hold survived confirmation: %+v", st)
	}
	rec.mu.Lock()
	for _, m := range rec.sent {
		if m.text == msgTimeout {
			t.Fatal("timeout notice sent for a confirmed booking")
		}
	}
	rec.mu.Unlock()
}

type fixedAvailability struct {
	slots []slot.Slot
}

func (f fixedAvailability) Snapshot() []slot.Slot { return f.slots }

func (f fixedAvailability) BySpecialty(specialty slot.Specialty) []slot.Slot {
	out := make([]slot.Slot, 0, len(f.slots))
	for _, s := range f.slots {
		if s.Specialty == specialty {
			out = append(out, s)
		}
	}
	return out
}

func TestAvailabilityReadsComeFromCache(t *testing.T) {
	api := &fakeAPI{citas: map[string]*slotapi.Cita{}}
	rec := &recorder{}
	manuelStart := time.Date(2026, 3, 13, 15, 0, 0, 0, time.UTC)
	avail := fixedAvailability{slots: []slot.Slot{
		elioSlot(13, 14),
		{
			Provider:  slot.ProviderManuel,
			Title:     "CD Manuel Romani",
			Specialty: slot.SpecialtyGeneral,
			Start:     manuelStart,
			End:       manuelStart.Add(slot.DefaultSlotLength),
		},
	}}
	e := NewEngine(api, avail, rec, testAdmin, 5*time.Minute)
	e.now = func() time.Time { return engineNow }
	e.startedAt = engineNow.Add(-time.Hour)

	say(e, "cita")
	say(e, "Maria Quispe")
	say(e, "12345678")
	say(e, "34")

	if got := rec.last(t).text; !strings.Contains(got, "¿Llevas tratamiento con algún odontólogo?") {
		t.Fatalf("menu not built from cached slots: %q", got)
	}
	if api.fetchCalls != 0 {
		t.Fatalf("engine fetched remotely %d times despite the cache", api.fetchCalls)
	}
}

func TestChangeFlowRebooks(t *testing.T) {
	oldStart := time.Date(2026, 3, 13, 14, 0, 0, 0, time.UTC)
	api := &fakeAPI{
		entries: []slot.RawEntry{
			{Profesional: "CD Manuel Romani", Fecha: "2026-03-16", HoraInicio: "15:00"},
		},
		citas: map[string]*slotapi.Cita{
			"12345678": {
				Nombre:      "Maria Quispe",
				DNI:         "12345678",
				Edad:        34,
				Consultorio: consultorioGeneral,
				Profesional: "CD Elio Támara",
				Fecha:       "13/03/2026",
				Hora:        "14:00",
				StartUTC:    &oldStart,
			},
		},
	}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	st := e.reg.Get(testChat)
	st.Step = StepChangeRequest
	st.Data.DNI = "12345678"

	say(e, "ok")

	if len(api.released) != 1 || !api.released[0].Start.Equal(oldStart) {
		t.Fatalf("old slot not put back: %+v", api.released)
	}
	if api.released[0].Provider != slot.ProviderElio {
		t.Fatalf("old slot provider: %q", api.released[0].Provider)
	}
	if len(api.cancelled) != 1 || api.cancelled[0] != "12345678" {
		t.Fatalf("old cita not cancelled: %v", api.cancelled)
	}
	if len(api.reserved) != 1 || api.reserved[0].Provider != slot.ProviderManuel {
		t.Fatalf("replacement not reserved: %+v", api.reserved)
	}

	st, _ = e.reg.Peek(testChat)
	if st.Step != StepHoldingSlot || st.Pending == nil {
		t.Fatalf("change should end holding a proposal: %+v", st)
	}
	if st.Data.Nombre != "Maria Quispe" || st.Data.Edad != 34 {
		t.Fatalf("record data not adopted: %+v", st.Data)
	}
	if got := rec.last(t).text; !strings.Contains(got, "Nuevo turno propuesto") {
		t.Fatalf("got %q", got)
	}
}

func TestChangeFlowWithoutRecord(t *testing.T) {
	api := &fakeAPI{}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	st := e.reg.Get(testChat)
	st.Step = StepChangeRequest
	st.Data.DNI = "99999999"

	say(e, "ok")
	if got := rec.last(t).text; got != msgChangeNotFound {
		t.Fatalf("got %q", got)
	}
	if _, ok := e.reg.Peek(testChat); ok {
		t.Fatal("missing record should reset the chat")
	}
}

func TestPediatricTrackOffersManuel(t *testing.T) {
	api := &fakeAPI{
		entries: []slot.RawEntry{
			{Profesional: "Esp. CD Jimy Osorio", Fecha: "2026-03-13", HoraInicio: "16:00"},
		},
		citas: map[string]*slotapi.Cita{},
	}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)

	say(e, "cita")
	say(e, "Luis Quispe")
	say(e, "87654321")
	say(e, "7")

	menu := rec.last(t).text
	if !strings.Contains(menu, "Odontopediatría") || !strings.Contains(menu, "tratamiento previo") {
		t.Fatalf("pediatric menu missing sections: %q", menu)
	}

	// Only jimy has slots, so option 2 is Manuel with prior treatment.
	say(e, "2")
	st, _ := e.reg.Peek(testChat)
	if st.Data.Preferido != slot.ProviderManuel || st.Data.Consultorio != consultorioGeneral {
		t.Fatalf("manuel option not applied: %+v", st.Data)
	}
	if got := rec.last(t).text; !strings.Contains(got, "tratamiento previo") {
		t.Fatalf("got %q", got)
	}
}

func TestConfirmProviderFallsBackWhenPreferredEmpty(t *testing.T) {
	api := &fakeAPI{entries: []slot.RawEntry{
		{Profesional: "CD Manuel Romani", Fecha: "2026-03-13", HoraInicio: "15:00"},
	}}
	rec := &recorder{}
	e := newTestEngine(api, rec, 5*time.Minute)
	st := e.reg.Get(testChat)
	st.Step = StepConfirmProvider
	st.Data = PatientData{
		Nombre:      "Maria Quispe",
		DNI:         "12345678",
		Edad:        34,
		Consultorio: consultorioGeneral,
		Preferido:   slot.ProviderElio,
	}

	say(e, "si")

	if len(api.reserved) != 1 || api.reserved[0].Provider != slot.ProviderManuel {
		t.Fatalf("fallback reserve: %+v", api.reserved)
	}
	notices := false
	rec.mu.Lock()
	for _, m := range rec.sent {
		if strings.Contains(m.text, "No hay turnos disponibles con *CD Elio Támara*") {
			notices = true
		}
	}
	rec.mu.Unlock()
	if !notices {
		t.Fatal("fallback notice not sent")
	}
}
