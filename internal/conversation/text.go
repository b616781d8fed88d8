package conversation

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// stripAccents folds "miércoles" to "miercoles" so keyword matching works
// however the user types it.
var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

func foldText(s string) string {
	out, _, err := transform.String(stripAccents, strings.ToLower(s))
	if err != nil {
		return strings.ToLower(s)
	}
	return out
}

var (
	nameTokenRe = regexp.MustCompile(`^[A-Za-zÁÉÍÓÚáéíóúñÑ]+$`)
	nonDigitRe  = regexp.MustCompile(`\D`)

	greetingRe      = regexp.MustCompile(`(hola|buenas|buenos dias|buen dia|buenas tardes|buenas noches|hi|hl|saludos)`)
	directRequestRe = regexp.MustCompile(`(cita|turno|reservar|quiero cita|quiero turno|deseo cita|necesito cita|tengo que sacar cita|agendar|solicitar cita)`)
	affirmRe        = regexp.MustCompile(`(^|\b)(si|ok|claro|confirmo|confirmar|dale|yes|yep|afirmativo|correcto|exacto)(\b|$)`)
	denyRe          = regexp.MustCompile(`(^|\b)(no|cancelar|nunca|negativo|no gracias|nope|stop|rechazar)(\b|$)`)
	changeRe        = regexp.MustCompile(`(cambiar|cambia|modificar|otro turno|otro dia|otro horario|diferente|prefiero otro|quiero otro)`)
)

// IsValidName accepts at least two tokens made up only of letters, Spanish
// accents and ñ included.
func IsValidName(text string) bool {
	tokens := strings.Fields(strings.TrimSpace(text))
	if len(tokens) < 2 {
		return false
	}
	for _, t := range tokens {
		if !nameTokenRe.MatchString(t) {
			return false
		}
	}
	return true
}

// DNIDigits strips everything but digits.
func DNIDigits(text string) string {
	return nonDigitRe.ReplaceAllString(text, "")
}

// IsValidDNI requires exactly eight digits after stripping separators.
func IsValidDNI(text string) bool {
	return len(DNIDigits(text)) == 8
}

// ParseAge returns the age and whether it falls in the accepted 1..119
// range. Leading digits are enough, so "25 años" parses as 25.
func ParseAge(text string) (int, bool) {
	s := strings.TrimSpace(text)
	i := 0
	for i < len(s) && s[i] >= '0' && s[i] <= '9' {
		i++
	}
	if i == 0 {
		return 0, false
	}
	n, err := strconv.Atoi(s[:i])
	if err != nil || n <= 0 || n >= 120 {
		return 0, false
	}
	return n, true
}

func IsGreeting(text string) bool { return greetingRe.MatchString(foldText(text)) }

func IsDirectRequest(text string) bool { return directRequestRe.MatchString(foldText(text)) }

func IsAffirm(text string) bool { return affirmRe.MatchString(foldText(text)) }

func IsDeny(text string) bool { return denyRe.MatchString(foldText(text)) }

func IsChangeRequest(text string) bool { return changeRe.MatchString(foldText(text)) }
