package conversation

import (
	"testing"
	"time"

	"github.com/taczaangel/MiProyecto/internal/slot"
)

var prefNow = time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)

func TestParsePreference(t *testing.T) {
	t.Run("time of day", func(t *testing.T) {
		p := ParsePreference("mejor por la tarde", prefNow)
		if p == nil || p.TimeOfDay != "tarde" {
			t.Fatalf("got %+v", p)
		}
		p = ParsePreference("en la mañana por favor", prefNow)
		if p == nil || p.TimeOfDay != "manana" {
			t.Fatalf("got %+v", p)
		}
	})

	t.Run("weekday including sunday", func(t *testing.T) {
		p := ParsePreference("prefiero el miércoles", prefNow)
		if p == nil || p.Weekday == nil || *p.Weekday != time.Wednesday {
			t.Fatalf("got %+v", p)
		}
		p = ParsePreference("el domingo", prefNow)
		if p == nil || p.Weekday == nil || *p.Weekday != time.Sunday {
			t.Fatalf("domingo should parse, got %+v", p)
		}
	})

	t.Run("dates", func(t *testing.T) {
		p := ParsePreference("el 13/03", prefNow)
		if p == nil || p.DateISO != "2026-03-13" {
			t.Fatalf("got %+v", p)
		}
		p = ParsePreference("para el 13-03-27", prefNow)
		if p == nil || p.DateISO != "2027-03-13" {
			t.Fatalf("got %+v", p)
		}
		p = ParsePreference("el 13/03/2026", prefNow)
		if p == nil || p.DateISO != "2026-03-13" {
			t.Fatalf("got %+v", p)
		}
	})

	t.Run("combined fields", func(t *testing.T) {
		p := ParsePreference("el viernes por la tarde", prefNow)
		if p == nil || p.TimeOfDay != "tarde" || p.Weekday == nil || *p.Weekday != time.Friday {
			t.Fatalf("got %+v", p)
		}
	})

	t.Run("no signal", func(t *testing.T) {
		for _, s := range []string{"si quiero", "gracias", ""} {
			if p := ParsePreference(s, prefNow); p != nil {
				t.Fatalf("ParsePreference(%q) = %+v, want nil", s, p)
			}
		}
	})
}

func TestPreferenceMatchesIsConjunctive(t *testing.T) {
	// Friday 2026-03-13 at 18:30.
	s := slot.Slot{Start: time.Date(2026, 3, 13, 18, 30, 0, 0, time.UTC)}

	wd := time.Friday
	p := &Preference{TimeOfDay: "tarde", Weekday: &wd}
	if !p.Matches(s) {
		t.Fatal("friday tarde slot should match")
	}

	morning := slot.Slot{Start: time.Date(2026, 3, 13, 14, 0, 0, 0, time.UTC)}
	if p.Matches(morning) {
		t.Fatal("14:00 is not tarde")
	}

	p = &Preference{TimeOfDay: "manana"}
	if !p.Matches(morning) {
		t.Fatal("14:00 counts as manana")
	}
	if p.Matches(slot.Slot{Start: time.Date(2026, 3, 13, 17, 0, 0, 0, time.UTC)}) {
		t.Fatal("17:00 is outside manana")
	}

	p = &Preference{DateISO: "2026-03-20"}
	if p.Matches(s) {
		t.Fatal("wrong date should not match")
	}
}

func TestFirstMatch(t *testing.T) {
	slots := []slot.Slot{
		{Start: time.Date(2026, 3, 12, 14, 0, 0, 0, time.UTC)}, // Thursday
		{Start: time.Date(2026, 3, 13, 14, 0, 0, 0, time.UTC)}, // Friday morning
		{Start: time.Date(2026, 3, 13, 18, 0, 0, 0, time.UTC)}, // Friday tarde
	}

	got, ok := FirstMatch(slots, nil)
	if !ok || !got.Start.Equal(slots[0].Start) {
		t.Fatalf("nil pref should pick the earliest, got %+v", got)
	}

	wd := time.Friday
	got, ok = FirstMatch(slots, &Preference{Weekday: &wd, TimeOfDay: "tarde"})
	if !ok || !got.Start.Equal(slots[2].Start) {
		t.Fatalf("expected the friday 18:00 slot, got %+v", got)
	}

	sat := time.Saturday
	if _, ok = FirstMatch(slots, &Preference{Weekday: &sat}); ok {
		t.Fatal("no saturday slot exists")
	}

	if _, ok = FirstMatch(nil, nil); ok {
		t.Fatal("empty candidates should not match")
	}
}
