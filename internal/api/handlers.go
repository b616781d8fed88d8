package api

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/taczaangel/MiProyecto/internal/appointment"
	"github.com/taczaangel/MiProyecto/internal/slot"
)

// SlotService is the slice of slot.Service the handlers need.
type SlotService interface {
	ListAvailable(ctx context.Context, specialty slot.Specialty) ([]slot.StoredSlot, error)
	Reserve(ctx context.Context, provider string, start time.Time) (*slot.StoredSlot, error)
	Release(ctx context.Context, s slot.StoredSlot) error
	Hold(ctx context.Context, provider string, start time.Time, holder string) (time.Time, error)
	Unhold(ctx context.Context, provider string, start time.Time, holder string) error
	CreateMany(ctx context.Context, slots []slot.StoredSlot) (int, error)
}

func listTurnosHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		specialty := slot.Specialty(r.URL.Query().Get("especialidad"))
		if specialty != "" && specialty != slot.SpecialtyGeneral && specialty != slot.SpecialtyPediatric {
			writeError(w, http.StatusBadRequest, "invalid_especialidad", "especialidad must be general or pediatria")
			return
		}

		slots, err := svc.ListAvailable(r.Context(), specialty)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, groupTurnos(slots))
	}
}

// groupTurnos folds stored slots into one entry per provider per day, the
// shape the bot normalizer and the dashboard calendar expect.
func groupTurnos(slots []slot.StoredSlot) []TurnoGroup {
	type key struct {
		title, date string
	}
	grouped := make(map[key]*TurnoGroup)
	order := make([]key, 0)

	for _, s := range slots {
		start := s.Start.UTC()
		k := key{title: s.Title, date: start.Format("2006-01-02")}
		g, ok := grouped[k]
		if !ok {
			g = &TurnoGroup{
				Title:        s.Title,
				Date:         k.date,
				Color:        slot.ColorFor(s.Provider),
				Especialidad: s.Specialty,
			}
			grouped[k] = g
			order = append(order, k)
		}
		end := s.End.UTC()
		g.Slots = append(g.Slots, TurnoRange{
			Start: start.Format("15:04"),
			End:   end.Format("15:04"),
		})
	}

	out := make([]TurnoGroup, 0, len(order))
	for _, k := range order {
		out = append(out, *grouped[k])
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Date != out[j].Date {
			return out[i].Date < out[j].Date
		}
		return out[i].Title < out[j].Title
	})
	return out
}

func saveTurnosHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not read body")
			return
		}

		// The dashboard posts either one slot or an array of them.
		var reqs []SaveTurnoRequest
		if err := json.Unmarshal(body, &reqs); err != nil {
			var single SaveTurnoRequest
			if err := json.Unmarshal(body, &single); err != nil {
				writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
				return
			}
			reqs = []SaveTurnoRequest{single}
		}

		slots := make([]slot.StoredSlot, 0, len(reqs))
		for _, req := range reqs {
			name := req.Profesional
			if name == "" {
				name = req.Title
			}
			if name == "" || req.TurnoInicio.IsZero() {
				continue
			}
			key := slot.DetectProviderKey(name)
			title := req.Title
			if title == "" {
				title = slot.DisplayName(key)
			}
			s := slot.StoredSlot{
				Provider:  key,
				Title:     title,
				Specialty: req.Especialidad,
				Start:     req.TurnoInicio.UTC(),
			}
			if req.TurnoFin != nil {
				s.End = req.TurnoFin.UTC()
			}
			slots = append(slots, s)
		}

		inserted, err := svc.CreateMany(r.Context(), slots)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"message":   "Turnos guardados correctamente",
			"guardados": inserted,
		})
	}
}

func reserveTurnoHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReserveTurnoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Profesional == "" || req.TurnoInicio.IsZero() {
			writeError(w, http.StatusBadRequest, "missing_fields", "profesional and turnoInicio are required")
			return
		}

		key := slot.DetectProviderKey(req.Profesional)
		_, err := svc.Reserve(r.Context(), key, req.TurnoInicio.UTC())
		if err != nil {
			switch {
			case errors.Is(err, slot.ErrSlotNotFound):
				reservationsTotal.WithLabelValues("race_lost").Inc()
				writeError(w, http.StatusNotFound, "turno_not_found", "turno no encontrado (ya reservado?)")
			case errors.Is(err, slot.ErrSlotBeingBooked):
				reservationsTotal.WithLabelValues("contended").Inc()
				writeError(w, http.StatusConflict, "turno_being_booked", "el turno está siendo reservado, reintente")
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		reservationsTotal.WithLabelValues("reserved").Inc()
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Turno reservado correctamente"})
	}
}

func releaseTurnoHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req ReleaseTurnoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Profesional == "" || req.TurnoInicio.IsZero() {
			writeError(w, http.StatusBadRequest, "missing_fields", "profesional and turnoInicio are required")
			return
		}

		key := slot.DetectProviderKey(req.Profesional)
		s := slot.StoredSlot{
			Provider:  key,
			Title:     req.Title,
			Specialty: req.Especialidad,
			Start:     req.TurnoInicio.UTC(),
		}
		if req.TurnoFin != nil {
			s.End = req.TurnoFin.UTC()
		}

		err := svc.Release(r.Context(), s)
		if err != nil {
			switch {
			case errors.Is(err, slot.ErrSlotExists):
				writeError(w, http.StatusConflict, "turno_exists", "turno ya disponible")
			case errors.Is(err, slot.ErrSlotBeingBooked):
				writeError(w, http.StatusConflict, "turno_being_booked", "el turno está siendo modificado, reintente")
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		releasesTotal.Inc()
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Turno liberado correctamente"})
	}
}

func holdTurnoHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HoldTurnoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Profesional == "" || req.TurnoInicio.IsZero() || req.UserJid == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "profesional, turnoInicio and userJid are required")
			return
		}

		key := slot.DetectProviderKey(req.Profesional)
		until, err := svc.Hold(r.Context(), key, req.TurnoInicio.UTC(), req.UserJid)
		if err != nil {
			switch {
			case errors.Is(err, slot.ErrSlotNotFound):
				writeError(w, http.StatusNotFound, "turno_not_found", "slot no encontrado")
			case errors.Is(err, slot.ErrSlotHeld):
				holdsTotal.WithLabelValues("conflict").Inc()
				writeError(w, http.StatusConflict, "turno_held", "slot ya en hold por otro usuario")
			case errors.Is(err, slot.ErrSlotBeingBooked):
				writeError(w, http.StatusConflict, "turno_being_booked", "el turno está siendo modificado, reintente")
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		holdsTotal.WithLabelValues("held").Inc()
		writeJSON(w, http.StatusOK, map[string]any{
			"success":   true,
			"message":   "Hold temporal creado",
			"holdUntil": until.Format(time.RFC3339),
		})
	}
}

func unholdTurnoHandler(svc SlotService) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req HoldTurnoRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Profesional == "" || req.TurnoInicio.IsZero() || req.UserJid == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "profesional, turnoInicio and userJid are required")
			return
		}

		key := slot.DetectProviderKey(req.Profesional)
		err := svc.Unhold(r.Context(), key, req.TurnoInicio.UTC(), req.UserJid)
		if err != nil {
			switch {
			case errors.Is(err, slot.ErrHoldNotFound):
				writeError(w, http.StatusNotFound, "hold_not_found", "hold no encontrado o no pertenece a este usuario")
			case errors.Is(err, slot.ErrSlotBeingBooked):
				writeError(w, http.StatusConflict, "turno_being_booked", "el turno está siendo modificado, reintente")
			default:
				writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			}
			return
		}

		holdsTotal.WithLabelValues("released").Inc()
		writeJSON(w, http.StatusOK, MessageResponse{Message: "Hold liberado correctamente"})
	}
}

func saveCitaHandler(repo appointment.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req SaveCitaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.Nombre == "" || req.DNI == "" {
			writeError(w, http.StatusBadRequest, "missing_fields", "nombre and dni are required")
			return
		}

		status := appointment.Status(req.Status)
		if status == "" {
			status = appointment.StatusConfirmed
		}

		rec := appointment.Record{
			Nombre:      req.Nombre,
			DNI:         req.DNI,
			Edad:        req.Edad,
			Consultorio: req.Consultorio,
			Profesional: req.Profesional,
			Fecha:       req.Fecha,
			Hora:        req.Hora,
			ChatID:      req.ChatID,
			Status:      status,
			StartUTC:    req.StartUTC,
		}

		if _, err := repo.Create(r.Context(), rec); err != nil {
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusCreated, MessageResponse{Message: "Cita guardada correctamente"})
	}
}

func findCitaHandler(repo appointment.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		dni := chi.URLParam(r, "dni")
		if dni == "" {
			writeError(w, http.StatusBadRequest, "missing_dni", "dni is required")
			return
		}

		rec, err := repo.FindActiveByDNI(r.Context(), dni)
		if err != nil {
			if errors.Is(err, appointment.ErrRecordNotFound) {
				writeError(w, http.StatusNotFound, "cita_not_found", "no hay cita activa para este dni")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, CitaResponse{
			Nombre:      rec.Nombre,
			DNI:         rec.DNI,
			Edad:        rec.Edad,
			Consultorio: rec.Consultorio,
			Profesional: rec.Profesional,
			Fecha:       rec.Fecha,
			Hora:        rec.Hora,
			ChatID:      rec.ChatID,
			Status:      string(rec.Status),
			StartUTC:    rec.StartUTC,
		})
	}
}

func cancelCitaHandler(repo appointment.Repository) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req CancelCitaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_request_body", "could not parse JSON")
			return
		}
		if req.DNI == "" {
			writeError(w, http.StatusBadRequest, "missing_dni", "dni is required")
			return
		}

		if _, err := repo.Cancel(r.Context(), req.DNI); err != nil {
			if errors.Is(err, appointment.ErrRecordNotFound) {
				writeError(w, http.StatusNotFound, "cita_not_found", "no hay cita activa para este dni")
				return
			}
			writeError(w, http.StatusInternalServerError, "internal_error", err.Error())
			return
		}

		writeJSON(w, http.StatusOK, MessageResponse{Message: "Cita cancelada correctamente"})
	}
}
