package conversation

import (
	"context"
	"log"
	"strconv"
	"strings"
	"time"

	"github.com/taczaangel/MiProyecto/internal/schedule"
	"github.com/taczaangel/MiProyecto/internal/slot"
	"github.com/taczaangel/MiProyecto/internal/slotapi"
	"github.com/taczaangel/MiProyecto/internal/wa"
)

const (
	consultorioGeneral   = "odontologia general"
	consultorioPediatric = "odontopediatria"
)

// SlotAPI is the slot server surface the engine books against.
type SlotAPI interface {
	FetchTurnos(ctx context.Context, specialty slot.Specialty) []slot.RawEntry
	Reserve(ctx context.Context, s slot.Slot) bool
	Release(ctx context.Context, s slot.Slot) bool
	SaveCita(ctx context.Context, cita slotapi.Cita) bool
	FindCita(ctx context.Context, dni string) *slotapi.Cita
	CancelCita(ctx context.Context, dni string) bool
}

// Availability serves the engine's slot reads from a local snapshot instead
// of a remote fetch per message. Reserve calls still go to the server, which
// settles any staleness as a lost race.
type Availability interface {
	Snapshot() []slot.Slot
	BySpecialty(specialty slot.Specialty) []slot.Slot
}

// Engine drives the whole booking dialogue. One instance serves every chat;
// per-chat state lives in the registry and per-chat countdowns in the
// timeout manager.
type Engine struct {
	api       SlotAPI
	avail     Availability
	messenger wa.Messenger
	reg       *Registry
	timeouts  *TimeoutManager

	adminChatID string
	startedAt   time.Time
	now         func() time.Time
}

// NewEngine builds the dialogue engine. avail may be nil, in which case every
// availability read fetches from the slot server directly.
func NewEngine(api SlotAPI, avail Availability, messenger wa.Messenger, adminChatID string, holdTTL time.Duration) *Engine {
	return &Engine{
		api:         api,
		avail:       avail,
		messenger:   messenger,
		reg:         NewRegistry(),
		timeouts:    NewTimeoutManager(holdTTL),
		adminChatID: adminChatID,
		startedAt:   time.Now(),
		now:         time.Now,
	}
}

// HandleMessage processes one inbound chat message. It implements
// wa.Handler and is safe to call from concurrent webhook goroutines: a chat
// already mid-handling silently drops the new message.
func (e *Engine) HandleMessage(msg wa.Message) {
	if msg.FromSelf {
		return
	}
	if !msg.Timestamp.IsZero() && msg.Timestamp.Before(e.startedAt) {
		return
	}

	chatID := msg.ChatID
	isAdmin := chatID == e.adminChatID
	now := e.now()

	if !isAdmin && !schedule.Active(now) {
		if resp := schedule.AutoResponse(now); resp != "" {
			e.send(chatID, resp)
		}
		return
	}

	raw := strings.TrimSpace(msg.Text)
	if raw == "" {
		return
	}

	if !e.reg.TryBeginProcessing(chatID) {
		log.Printf("conversation: chat=%s busy, message dropped", chatID)
		return
	}
	defer func() {
		if r := recover(); r != nil {
			log.Printf("conversation: chat=%s panic: %v", chatID, r)
			e.send(chatID, msgInternalError)
		}
		e.reg.EndProcessing(chatID)
	}()

	ctx := context.Background()
	st := e.reg.Get(chatID)
	text := strings.ToLower(raw)

	log.Printf("conversation: chat=%s step=%s", chatID, st.Step)

	switch st.Step {
	case StepIdle:
		e.handleIdle(ctx, chatID, st, text)
	case StepConfirmIntent:
		e.handleConfirmIntent(chatID, st, text)
	case StepCollectName:
		e.handleCollectName(chatID, st, raw)
	case StepCollectID:
		e.handleCollectID(ctx, chatID, st, raw)
	case StepCollectAge:
		e.handleCollectAge(ctx, chatID, st, raw)
	case StepChooseGeneralProvider:
		e.handleChooseGeneral(ctx, chatID, st, raw)
	case StepChoosePediatricProvider:
		e.handleChoosePediatric(ctx, chatID, st, raw)
	case StepConfirmProvider:
		e.handleConfirmProvider(ctx, chatID, st, text)
	case StepHoldingSlot:
		e.handleHolding(ctx, chatID, st, raw, text)
	case StepChangeRequest:
		e.handleChange(ctx, chatID, st)
	}
}

func (e *Engine) send(chatID, text string) {
	if err := e.messenger.Send(context.Background(), chatID, text); err != nil {
		log.Printf("conversation: send to %s failed: %v", chatID, err)
	}
}

func (e *Engine) fetch(ctx context.Context, specialty slot.Specialty) []slot.Slot {
	if e.avail != nil {
		if specialty == "" {
			return e.avail.Snapshot()
		}
		return e.avail.BySpecialty(specialty)
	}
	raw := e.api.FetchTurnos(ctx, specialty)
	return slot.Normalize(raw, specialty, e.now())
}

// reset forgets the chat entirely and cancels its countdown. The held slot,
// if any, is NOT released here; callers release first when that is wanted.
func (e *Engine) reset(chatID string) {
	e.timeouts.Stop(chatID)
	e.reg.Delete(chatID)
}

func (e *Engine) startFlow(st *State) {
	st.Step = StepCollectName
	st.Data = PatientData{}
	st.Pending = nil
}

func (e *Engine) handleIdle(ctx context.Context, chatID string, st *State, text string) {
	if IsDirectRequest(text) {
		if len(e.fetch(ctx, "")) == 0 {
			e.send(chatID, msgNoSlots)
			e.reset(chatID)
			return
		}
		if IsChangeRequest(text) && st.Data.DNI != "" {
			st.Step = StepChangeRequest
			e.send(chatID, msgChangeAcknowledged(st.Data.DNI))
			return
		}
		e.startFlow(st)
		e.send(chatID, msgStartIntro)
		return
	}

	if IsGreeting(text) {
		if len(e.fetch(ctx, "")) == 0 {
			e.send(chatID, msgGreetingNoSlots)
			e.reset(chatID)
			return
		}
		st.Step = StepConfirmIntent
		st.Data = PatientData{}
		st.Pending = nil
		e.send(chatID, msgGreetingAsk)
		return
	}
	// Anything else in idle is ignored.
}

func (e *Engine) handleConfirmIntent(chatID string, st *State, text string) {
	switch {
	case IsAffirm(text) || IsDirectRequest(text):
		e.startFlow(st)
		e.send(chatID, msgStartIntroAffirmed)
	case IsDeny(text):
		e.reset(chatID)
		e.send(chatID, msgDeclined)
	default:
		e.send(chatID, msgConfirmIntentRetry)
	}
}

func (e *Engine) handleCollectName(chatID string, st *State, raw string) {
	if !IsValidName(raw) {
		e.send(chatID, msgInvalidName)
		return
	}
	st.Data.Nombre = raw
	st.Step = StepCollectID
	e.send(chatID, msgAskDNI)
}

func (e *Engine) handleCollectID(ctx context.Context, chatID string, st *State, raw string) {
	if !IsValidDNI(raw) {
		e.send(chatID, msgInvalidDNI)
		return
	}

	dni := DNIDigits(raw)
	if existing := e.api.FindCita(ctx, dni); existing != nil {
		e.send(chatID, msgDuplicateCita(existing))
		e.reset(chatID)
		return
	}

	st.Data.DNI = dni
	st.Step = StepCollectAge
	e.send(chatID, msgAskAge)
}

func (e *Engine) handleCollectAge(ctx context.Context, chatID string, st *State, raw string) {
	edad, ok := ParseAge(raw)
	if !ok {
		e.send(chatID, msgInvalidAge)
		return
	}
	st.Data.Edad = edad

	if edad <= 11 {
		available, unavailable := splitByAvailability(e.fetch(ctx, slot.SpecialtyPediatric), slot.PediatricProviders)
		if len(available) == 0 {
			generalAvail, _ := splitByAvailability(e.fetch(ctx, slot.SpecialtyGeneral), slot.GeneralProviders)
			if len(generalAvail) > 0 {
				e.send(chatID, msgNoPediatricButGeneral)
			} else {
				e.send(chatID, msgNoSlotsEither)
			}
			e.reset(chatID)
			return
		}
		st.Step = StepChoosePediatricProvider
		e.send(chatID, buildProviderMenu(true, available, unavailable, true))
		return
	}

	available, unavailable := splitByAvailability(e.fetch(ctx, slot.SpecialtyGeneral), slot.GeneralProviders)
	if len(available) == 0 {
		pediAvail, _ := splitByAvailability(e.fetch(ctx, slot.SpecialtyPediatric), slot.PediatricProviders)
		if len(pediAvail) > 0 {
			e.send(chatID, msgNoGeneralButPediatric)
		} else {
			e.send(chatID, msgNoSlotsEither)
		}
		e.reset(chatID)
		return
	}
	st.Data.Consultorio = consultorioGeneral
	st.Step = StepChooseGeneralProvider
	e.send(chatID, buildProviderMenu(false, available, unavailable, false))
}

func (e *Engine) handleChooseGeneral(ctx context.Context, chatID string, st *State, raw string) {
	text := strings.TrimSpace(raw)

	if IsDeny(strings.ToLower(text)) {
		pediAvail, _ := splitByAvailability(e.fetch(ctx, slot.SpecialtyPediatric), slot.PediatricProviders)
		if len(pediAvail) > 0 {
			e.send(chatID, msgDeniedOfferPediatric)
		} else {
			e.send(chatID, msgUnderstoodReset)
		}
		e.reset(chatID)
		return
	}

	available, unavailable := splitByAvailability(e.fetch(ctx, slot.SpecialtyGeneral), slot.GeneralProviders)
	options := numberOptions(available)
	noPrefOption := strconv.Itoa(len(available) + 1)

	switch {
	case text == options[slot.ProviderElio]:
		st.Data.Preferido = slot.ProviderElio
		st.Step = StepConfirmProvider
		e.send(chatID, msgProviderChosen(st.Data, slot.ProviderElio))
	case text == options[slot.ProviderManuel]:
		st.Data.Preferido = slot.ProviderManuel
		st.Step = StepConfirmProvider
		e.send(chatID, msgProviderChosen(st.Data, slot.ProviderManuel))
	case text == noPrefOption:
		st.Data.Preferido = ""
		st.Step = StepConfirmProvider
		e.send(chatID, msgNoPreference(st.Data, false))
	default:
		e.send(chatID, "❌ Opción inválida.\n\n"+buildProviderMenu(false, available, unavailable, false))
	}
}

func (e *Engine) handleChoosePediatric(ctx context.Context, chatID string, st *State, raw string) {
	text := strings.TrimSpace(raw)

	if IsDeny(strings.ToLower(text)) {
		generalAvail, _ := splitByAvailability(e.fetch(ctx, slot.SpecialtyGeneral), slot.GeneralProviders)
		if len(generalAvail) > 0 {
			e.send(chatID, msgDeniedOfferGeneral)
		} else {
			e.send(chatID, msgUnderstoodReset)
		}
		e.reset(chatID)
		return
	}

	available, unavailable := splitByAvailability(e.fetch(ctx, slot.SpecialtyPediatric), slot.PediatricProviders)
	options := numberOptions(available)
	manuelOption := strconv.Itoa(len(available) + 1)
	noPrefOption := strconv.Itoa(len(available) + 2)

	switch {
	case text == options[slot.ProviderJimy]:
		st.Data.Preferido = slot.ProviderJimy
		st.Data.Consultorio = consultorioPediatric
		st.Step = StepConfirmProvider
		e.send(chatID, msgProviderChosen(st.Data, slot.ProviderJimy))
	case text == options[slot.ProviderFernando]:
		st.Data.Preferido = slot.ProviderFernando
		st.Data.Consultorio = consultorioPediatric
		st.Step = StepConfirmProvider
		e.send(chatID, msgProviderChosen(st.Data, slot.ProviderFernando))
	case text == manuelOption:
		st.Data.Preferido = slot.ProviderManuel
		st.Data.Consultorio = consultorioGeneral
		st.Step = StepConfirmProvider
		e.send(chatID, msgManuelForChild(st.Data))
	case text == noPrefOption:
		st.Data.Preferido = ""
		st.Data.Consultorio = consultorioPediatric
		st.Step = StepConfirmProvider
		e.send(chatID, msgNoPreference(st.Data, true))
	default:
		e.send(chatID, "❌ Opción inválida.\n\n"+buildProviderMenu(true, available, unavailable, true))
	}
}

func (e *Engine) handleConfirmProvider(ctx context.Context, chatID string, st *State, text string) {
	switch {
	case IsAffirm(text):
	case IsDeny(text):
		e.reset(chatID)
		e.send(chatID, msgUnderstoodReset)
		return
	default:
		e.send(chatID, msgConfirmProviderRetry)
		return
	}

	var specialty slot.Specialty
	switch st.Data.Consultorio {
	case consultorioPediatric:
		specialty = slot.SpecialtyPediatric
	case consultorioGeneral:
		specialty = slot.SpecialtyGeneral
	default:
		e.send(chatID, msgUnknownConsultorio)
		e.reset(chatID)
		return
	}
	pediatric := specialty == slot.SpecialtyPediatric

	slots := e.fetch(ctx, specialty)
	if len(slots) == 0 {
		e.send(chatID, msgNoneForSpecialty(pediatric))
		e.reset(chatID)
		return
	}

	chosen, ok := e.pickSlot(chatID, slots, specialty, st.Data.Preferido)
	if !ok {
		e.send(chatID, msgNoneWithAnyProvider(pediatric))
		e.reset(chatID)
		return
	}

	if !e.api.Reserve(ctx, chosen) {
		e.send(chatID, msgRaceLost)
		e.reset(chatID)
		return
	}

	st.Pending = &chosen
	st.Step = StepHoldingSlot
	e.startCountdown(chatID)
	e.send(chatID, msgSlotHeld(st.Data, chosen))
}

// pickSlot selects the earliest eligible slot, honoring a preferred
// provider and falling back to the specialty's other providers with a
// notice when the preferred one has nothing left.
func (e *Engine) pickSlot(chatID string, slots []slot.Slot, specialty slot.Specialty, preferred string) (slot.Slot, bool) {
	eligible := slot.ProvidersFor(specialty)

	if preferred != "" {
		if own := filterByProviders(slots, []string{preferred}); len(own) > 0 {
			return own[0], true
		}
		for _, other := range eligible {
			if other == preferred {
				continue
			}
			if alt := filterByProviders(slots, []string{other}); len(alt) > 0 {
				e.send(chatID, msgFallbackProvider(preferred, alt[0].Title))
				return alt[0], true
			}
		}
		return slot.Slot{}, false
	}

	if any := filterByProviders(slots, eligible); len(any) > 0 {
		return any[0], true
	}
	return slot.Slot{}, false
}

func (e *Engine) handleHolding(ctx context.Context, chatID string, st *State, raw, text string) {
	if IsAffirm(text) {
		pending := st.Pending
		if pending == nil {
			e.send(chatID, msgNoPendingSlot)
			e.reset(chatID)
			return
		}
		e.timeouts.Stop(chatID)

		start := pending.Start
		cita := slotapi.Cita{
			Nombre:      st.Data.Nombre,
			DNI:         st.Data.DNI,
			Edad:        st.Data.Edad,
			Consultorio: st.Data.Consultorio,
			Profesional: pending.Title,
			Fecha:       pending.Fecha(),
			Hora:        pending.Hora(),
			ChatID:      chatID,
			Status:      "confirmada",
			StartUTC:    &start,
		}

		if !e.api.SaveCita(ctx, cita) {
			e.api.Release(ctx, *pending)
			e.send(chatID, msgSaveFailed)
			e.reset(chatID)
			return
		}

		e.send(chatID, msgConfirmed(st.Data, *pending))
		e.send(e.adminChatID, msgAdminNotice(cita))
		e.reset(chatID)
		return
	}

	if pref := ParsePreference(raw, e.now()); pref != nil {
		e.trySwap(ctx, chatID, st, raw, pref)
		return
	}

	if IsDeny(text) {
		if st.Pending != nil {
			e.api.Release(ctx, *st.Pending)
			st.Pending = nil
		}
		e.reset(chatID)
		e.send(chatID, msgUnderstoodResetShort)
		return
	}

	e.send(chatID, msgHoldingRetry)
}

// trySwap looks for a slot matching the user's preference and, only after
// reserving it, releases the currently held one. A failed reservation keeps
// the current hold untouched so the user never ends up with nothing.
func (e *Engine) trySwap(ctx context.Context, chatID string, st *State, raw string, pref *Preference) {
	if st.Pending == nil {
		e.send(chatID, msgNoPendingSlot)
		e.reset(chatID)
		return
	}

	pediatric := st.Data.Consultorio == consultorioPediatric
	specialty := slot.SpecialtyGeneral
	if pediatric {
		specialty = slot.SpecialtyPediatric
	}

	slots := e.fetch(ctx, specialty)
	var candidates []slot.Slot
	if st.Data.Preferido != "" {
		candidates = filterByProviders(slots, []string{st.Data.Preferido})
	} else {
		candidates = filterByProviders(slots, slot.ProvidersFor(specialty))
	}

	newSlot, ok := FirstMatch(candidates, pref)
	if !ok {
		doctorName := "odontólogo seleccionado"
		if pediatric {
			doctorName = "odontopediatra seleccionado"
		}
		if st.Data.Preferido != "" {
			doctorName = slot.DisplayName(st.Data.Preferido)
		}
		e.send(chatID, msgPrefNoMatch(raw, doctorName, *st.Pending))
		return
	}

	if !e.api.Reserve(ctx, newSlot) {
		e.send(chatID, msgPrefRaceLost(raw, *st.Pending))
		return
	}

	e.api.Release(ctx, *st.Pending)
	st.Pending = &newSlot
	e.startCountdown(chatID)
	e.send(chatID, msgPrefSwapped(raw, newSlot))
}

func (e *Engine) handleChange(ctx context.Context, chatID string, st *State) {
	existing := e.api.FindCita(ctx, st.Data.DNI)
	if existing == nil {
		e.send(chatID, msgChangeNotFound)
		e.reset(chatID)
		return
	}

	pediatric := existing.Consultorio == consultorioPediatric
	specialty := slot.SpecialtyGeneral
	if pediatric {
		specialty = slot.SpecialtyPediatric
	}

	oldStart, ok := citaStart(existing)
	if !ok {
		e.send(chatID, msgChangeCancelFailed)
		e.reset(chatID)
		return
	}
	old := slot.Slot{
		Provider:  slot.DetectProviderKey(existing.Profesional),
		Title:     existing.Profesional,
		Specialty: specialty,
		Start:     oldStart,
		End:       oldStart.Add(slot.DefaultSlotLength),
	}

	if !e.api.Release(ctx, old) {
		e.send(chatID, msgChangeCancelFailed)
		e.reset(chatID)
		return
	}
	e.api.CancelCita(ctx, st.Data.DNI)

	consultorio := st.Data.Consultorio
	if consultorio == "" {
		consultorio = existing.Consultorio
	}
	e.send(chatID, msgChangeCancelled(consultorio))

	slots := e.fetch(ctx, specialty)
	candidates := filterByProviders(slots, slot.ProvidersFor(specialty))
	newSlot, ok := FirstMatch(candidates, nil)
	if !ok {
		e.send(chatID, msgChangeNoSlots)
		e.reset(chatID)
		return
	}

	if !e.api.Reserve(ctx, newSlot) {
		e.send(chatID, msgChangeRaceLost)
		e.reset(chatID)
		return
	}

	st.Pending = &newSlot
	st.Data.Nombre = existing.Nombre
	st.Data.Edad = existing.Edad
	st.Data.Consultorio = existing.Consultorio
	st.Step = StepHoldingSlot
	e.startCountdown(chatID)
	e.send(chatID, msgChangeProposed(newSlot))
}

// startCountdown arms (or re-arms) the confirmation window for the chat's
// held slot.
func (e *Engine) startCountdown(chatID string) {
	e.timeouts.Start(chatID, func() { e.expireHold(chatID) })
}

// expiryRetryDelay is how long an expiry backs off when its chat is mid-
// handling. The next attempt re-checks state under the processing flag.
const expiryRetryDelay = 100 * time.Millisecond

// expireHold runs on the timer goroutine, so it takes the same per-chat
// exclusion as HandleMessage before touching state. A chat that is busy gets
// a short retry instead; if by then a fresh countdown is armed (the handler
// swapped or re-proposed a slot), this expiry belongs to a hold that no
// longer exists and must do nothing.
func (e *Engine) expireHold(chatID string) {
	if e.timeouts.Active(chatID) {
		return
	}
	if !e.reg.TryBeginProcessing(chatID) {
		time.AfterFunc(expiryRetryDelay, func() { e.expireHold(chatID) })
		return
	}

	st, ok := e.reg.Peek(chatID)
	if !ok || st.Pending == nil {
		e.reg.EndProcessing(chatID)
		return
	}

	pending := *st.Pending
	st.Pending = nil
	log.Printf("conversation: chat=%s hold expired, releasing slot", chatID)
	e.api.Release(context.Background(), pending)
	e.reset(chatID)
	e.send(chatID, msgTimeout)
}

// citaStart recovers the canonical slot start from a stored record, falling
// back to the display fecha/hora pair for records saved before the start
// timestamp was persisted.
func citaStart(c *slotapi.Cita) (time.Time, bool) {
	if c.StartUTC != nil {
		return c.StartUTC.UTC(), true
	}
	hora := strings.TrimSpace(c.Hora)
	hora = strings.TrimSuffix(hora, " a. m.")
	hora = strings.TrimSuffix(hora, " p. m.")
	if i := strings.IndexByte(hora, ' '); i >= 0 {
		hora = hora[:i]
	}
	t, err := time.Parse("02/01/2006 15:04", c.Fecha+" "+hora)
	if err != nil {
		return time.Time{}, false
	}
	return t.UTC(), true
}

func filterByProviders(slots []slot.Slot, keys []string) []slot.Slot {
	out := make([]slot.Slot, 0, len(slots))
	for _, s := range slots {
		for _, k := range keys {
			if s.Provider == k {
				out = append(out, s)
				break
			}
		}
	}
	return out
}

// splitByAvailability partitions the provider keys into those with at least
// one slot in the list and those with none, preserving key order.
func splitByAvailability(slots []slot.Slot, keys []string) (available, unavailable []string) {
	for _, k := range keys {
		if len(filterByProviders(slots, []string{k})) > 0 {
			available = append(available, k)
		} else {
			unavailable = append(unavailable, k)
		}
	}
	return available, unavailable
}

// numberOptions assigns menu numbers "1", "2", ... to the available
// provider keys in display order.
func numberOptions(available []string) map[string]string {
	out := make(map[string]string, len(available))
	for i, k := range available {
		out[k] = strconv.Itoa(i + 1)
	}
	return out
}
