package slot

import (
	"time"
)

type Specialty string

const (
	SpecialtyGeneral   Specialty = "general"
	SpecialtyPediatric Specialty = "pediatria"
)

// Slot is the normalized, bot-facing view of one bookable unit of provider
// time. Start and End are UTC instants carrying the clinic's fixed-offset
// local clock (see PeruTime).
type Slot struct {
	Provider  string
	Title     string
	Specialty Specialty
	Start     time.Time
	End       time.Time
}

// StartEpoch is used for cheap ordering comparisons.
func (s Slot) StartEpoch() int64 { return s.Start.UnixMilli() }

// Fecha renders the slot date as dd/mm/yyyy, the format patients see.
func (s Slot) Fecha() string { return s.Start.UTC().Format("02/01/2006") }

// Hora renders the start time as HH:MM.
func (s Slot) Hora() string { return s.Start.UTC().Format("15:04") }

// StoredSlot is the persistence-level representation including hold state.
type StoredSlot struct {
	Provider  string
	Title     string
	Specialty Specialty
	Start     time.Time
	End       time.Time
	HeldBy    *string
	HeldUntil *time.Time
}

// HeldAt reports whether the slot carries a hold that has not expired at now.
func (s StoredSlot) HeldAt(now time.Time) bool {
	return s.HeldBy != nil && s.HeldUntil != nil && s.HeldUntil.After(now)
}

func (s StoredSlot) Normalized() Slot {
	return Slot{
		Provider:  s.Provider,
		Title:     s.Title,
		Specialty: s.Specialty,
		Start:     s.Start,
		End:       s.End,
	}
}
