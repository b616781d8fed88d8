// Package schedule decides whether the booking assistant is attending and,
// when it is not, which out-of-hours reply to send.
package schedule

import (
	"fmt"
	"time"

	"github.com/taczaangel/MiProyecto/internal/slot"
)

// The attention window runs Fridays 07:30 to 11:00, Peru time.
const (
	windowStartMinute = 7*60 + 30
	windowEndMinute   = 11 * 60
)

func peruClock(now time.Time) (day time.Weekday, minuteOfDay int, hour int) {
	p := now.UTC().Add(slot.PeruOffset)
	return p.Weekday(), p.Hour()*60 + p.Minute(), p.Hour()
}

// Active reports whether the booking window is open at now.
func Active(now time.Time) bool {
	day, minute, _ := peruClock(now)
	return day == time.Friday && minute >= windowStartMinute && minute < windowEndMinute
}

// Greeting returns the time-of-day salutation for now, Peru time.
func Greeting(now time.Time) string {
	_, _, hour := peruClock(now)
	switch {
	case hour >= 5 && hour < 12:
		return "Buenos días"
	case hour >= 12 && hour < 19:
		return "Buenas tardes"
	default:
		return "Buenas noches"
	}
}

// AutoResponse returns the long-form out-of-hours reply for now, or "" when
// the window is open and the main bot should handle the conversation itself.
func AutoResponse(now time.Time) string {
	day, minute, _ := peruClock(now)
	saludo := Greeting(now)

	if day == time.Friday {
		switch {
		case minute >= windowStartMinute && minute < windowEndMinute:
			return ""
		case minute < windowStartMinute:
			return fmt.Sprintf("%s 🌅\n\n¡Ya falta poco para asignar las citas!\n\nPor favor, reenvíe su mensaje a las *7:30 a. m. en punto*. ⏰", saludo)
		default:
			return fmt.Sprintf("%s 😔\n\nLos cupos de atención se agotaron el día de hoy.\n\nLa próxima vez, por favor escríbanos más temprano, *exactamente a las 7:30 a. m.* 📅", saludo)
		}
	}

	switch day {
	case time.Thursday:
		return fmt.Sprintf("%s 😊\n\nLas citas se asignarán *mañana viernes a las 7:30 a. m.* hasta agotar los cupos.\n\nPor favor, escríbanos mañana a esa hora. 📅⏰", saludo)
	case time.Saturday:
		return fmt.Sprintf("%s 🌟\n\nAyer viernes en la mañana a las *7:30 a. m.* se programaron las citas.\n\nPor favor, escríbenos el *próximo viernes* para agendar su cita. 📅", saludo)
	case time.Sunday:
		return fmt.Sprintf("%s 😴\n\nEs domingo, deje descansar.\n\nLas citas se asignan únicamente los días *viernes a partir de las 7:30 a. m.* hasta agotar los cupos. 📅", saludo)
	default:
		return fmt.Sprintf("%s 😊\n\nLas citas se asignan únicamente los días *viernes a partir de las 7:30 a. m.* hasta agotar los cupos.\n\nPor favor, escríbanos el próximo viernes a esa hora. 📅⏰", saludo)
	}
}

// ShortAutoResponse is the terse variant used by the standalone 24/7
// auto-reply process.
func ShortAutoResponse(now time.Time) string {
	day, minute, _ := peruClock(now)

	if day == time.Friday {
		switch {
		case minute >= windowStartMinute && minute < windowEndMinute:
			return ""
		case minute < windowStartMinute:
			return "Buenos días, escríbanos por favor en nuestro horario de atención exactamente a las *7:30 a. m.* ⏰"
		default:
			return "Los cupos de atención ya se agotaron para hoy. 😔\n\nPor favor, escríbenos el próximo *viernes a partir de las 7:30 a. m.* 📅"
		}
	}

	return "Las citas se asignan únicamente los días *viernes desde las 7:30 a. m. hasta las 11:00 a. m.* 📅⏰\n\nPor favor, escríbenos el próximo viernes en ese horario."
}
