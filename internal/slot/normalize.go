package slot

import (
	"log"
	"sort"
	"time"
)

// RawRange is one time range inside a grouped availability entry.
type RawRange struct {
	Start string `json:"start"`
	End   string `json:"end,omitempty"`
}

// RawEntry is one element of the slot server's availability payload. The
// server historically emitted two shapes: entries grouped by provider and
// date with a Slots list, and flat per-slot records with HoraInicio/HoraFin.
// Normalize accepts both.
type RawEntry struct {
	Profesional  string     `json:"profesional,omitempty"`
	Title        string     `json:"title,omitempty"`
	Date         string     `json:"date,omitempty"`
	Fecha        string     `json:"fecha,omitempty"`
	HoraInicio   string     `json:"hora_inicio,omitempty"`
	HoraFin      string     `json:"hora_fin,omitempty"`
	Slots        []RawRange `json:"slots,omitempty"`
	Especialidad Specialty  `json:"especialidad,omitempty"`
	Color        string     `json:"color,omitempty"`
}

// Normalize converts raw availability entries into a sorted list of future
// slots, optionally filtered to one specialty. Malformed entries are dropped
// with a log line and never produce an error; the rest of the list is
// unaffected.
func Normalize(raw []RawEntry, specialty Specialty, now time.Time) []Slot {
	cutoff := TodayUTC(now)
	out := make([]Slot, 0, len(raw))

	for _, entry := range raw {
		provRaw := entry.Profesional
		if provRaw == "" {
			provRaw = entry.Title
		}
		key := DetectProviderKey(provRaw)

		title := entry.Profesional
		if title == "" {
			title = entry.Title
		}
		if title == "" {
			title = DisplayName(key)
		}

		esp := entry.Especialidad
		if esp == "" {
			esp = SpecialtyFor(key)
		}
		if specialty != "" && esp != specialty {
			continue
		}

		for _, r := range entry.ranges() {
			s, ok := buildSlot(key, title, esp, r.date, r.start, r.end, cutoff)
			if !ok {
				continue
			}
			out = append(out, s)
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].StartEpoch() < out[j].StartEpoch() })
	return out
}

type rawSlotTime struct {
	date, start, end string
}

func (e RawEntry) ranges() []rawSlotTime {
	if len(e.Slots) > 0 {
		date := e.Date
		if date == "" {
			date = e.Fecha
		}
		out := make([]rawSlotTime, 0, len(e.Slots))
		for _, r := range e.Slots {
			out = append(out, rawSlotTime{date: date, start: r.Start, end: r.End})
		}
		return out
	}
	date := e.Fecha
	if date == "" {
		date = e.Date
	}
	return []rawSlotTime{{date: date, start: e.HoraInicio, end: e.HoraFin}}
}

func buildSlot(key, title string, esp Specialty, date, startHM, endHM string, cutoff time.Time) (Slot, bool) {
	if date == "" || startHM == "" {
		log.Printf("normalize: dropping slot with missing date/time provider=%s date=%q start=%q", key, date, startHM)
		return Slot{}, false
	}

	start, err := time.Parse("2006-01-02T15:04", date+"T"+startHM)
	if err != nil {
		log.Printf("normalize: dropping unparsable slot provider=%s date=%q start=%q: %v", key, date, startHM, err)
		return Slot{}, false
	}
	start = start.UTC()
	if start.Before(cutoff) {
		log.Printf("normalize: dropping past slot provider=%s start=%s", key, start.Format(time.RFC3339))
		return Slot{}, false
	}

	end := start.Add(DefaultSlotLength)
	if endHM != "" {
		if e, err := time.Parse("2006-01-02T15:04", date+"T"+endHM); err == nil {
			end = e.UTC()
		}
	}

	return Slot{
		Provider:  key,
		Title:     title,
		Specialty: esp,
		Start:     start,
		End:       end,
	}, true
}
