package conversation

import (
	"fmt"
	"regexp"
	"strconv"
	"time"

	"github.com/taczaangel/MiProyecto/internal/slot"
)

// Preference is a free-text scheduling wish: a time of day, a weekday, a
// concrete date, or any combination. All set fields must match together.
type Preference struct {
	TimeOfDay string // "tarde" or "manana", "" when unset
	Weekday   *time.Weekday
	DateISO   string // "2006-01-02", "" when unset
}

var (
	tardeRe  = regexp.MustCompile(`(tarde|por la tarde|en la tarde|horario tarde|turno tarde|de tarde)`)
	mananaRe = regexp.MustCompile(`(manana|por la manana|en la manana|horario manana|turno manana|de manana)`)
	dayRe    = regexp.MustCompile(`(domingo|lunes|martes|miercoles|jueves|viernes|sabado)`)
	dateRe   = regexp.MustCompile(`(\d{1,2})[/\-](\d{1,2})(?:[/\-](\d{2,4}))?`)
)

var weekdayNames = map[string]time.Weekday{
	"domingo":   time.Sunday,
	"lunes":     time.Monday,
	"martes":    time.Tuesday,
	"miercoles": time.Wednesday,
	"jueves":    time.Thursday,
	"viernes":   time.Friday,
	"sabado":    time.Saturday,
}

// ParsePreference extracts a scheduling preference from free text, or nil
// when the text carries none.
func ParsePreference(text string, now time.Time) *Preference {
	folded := foldText(text)
	if folded == "" {
		return nil
	}

	pref := &Preference{}

	switch {
	case tardeRe.MatchString(folded):
		pref.TimeOfDay = "tarde"
	case mananaRe.MatchString(folded):
		pref.TimeOfDay = "manana"
	}

	if m := dayRe.FindStringSubmatch(folded); m != nil {
		wd := weekdayNames[m[1]]
		pref.Weekday = &wd
	}

	if m := dateRe.FindStringSubmatch(folded); m != nil {
		dd, _ := strconv.Atoi(m[1])
		mm, _ := strconv.Atoi(m[2])
		yy := now.Year()
		if m[3] != "" {
			yy, _ = strconv.Atoi(m[3])
			if yy < 100 {
				yy += 2000
			}
		}
		pref.DateISO = fmt.Sprintf("%04d-%02d-%02d", yy, mm, dd)
	}

	if pref.TimeOfDay == "" && pref.Weekday == nil && pref.DateISO == "" {
		return nil
	}
	return pref
}

// Matches checks a slot against every set field of the preference.
// "tarde" means hour >= 18 and "manana" means hour in [12, 17), both on the
// slot's stored hour.
func (p *Preference) Matches(s slot.Slot) bool {
	start := s.Start.UTC()

	if p.DateISO != "" && start.Format("2006-01-02") != p.DateISO {
		return false
	}
	if p.Weekday != nil && start.Weekday() != *p.Weekday {
		return false
	}
	if p.TimeOfDay != "" {
		hour := start.Hour()
		switch p.TimeOfDay {
		case "tarde":
			if hour < 18 {
				return false
			}
		case "manana":
			if hour < 12 || hour >= 17 {
				return false
			}
		}
	}
	return true
}

// FirstMatch returns the earliest slot satisfying the preference, or the
// earliest slot overall when pref is nil. Candidates must already be sorted
// ascending by start.
func FirstMatch(candidates []slot.Slot, pref *Preference) (slot.Slot, bool) {
	if len(candidates) == 0 {
		return slot.Slot{}, false
	}
	if pref == nil {
		return candidates[0], true
	}
	for _, s := range candidates {
		if pref.Matches(s) {
			return s, true
		}
	}
	return slot.Slot{}, false
}
