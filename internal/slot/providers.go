package slot

import "strings"

// Provider keys form a closed set. Unrecognized provider strings map to
// ProviderOther so detection is total.
const (
	ProviderElio     = "elio"
	ProviderManuel   = "manuel"
	ProviderJimy     = "jimy"
	ProviderFernando = "fernando"
	ProviderOther    = "otro"
)

var displayNames = map[string]string{
	ProviderElio:     "CD Elio Támara",
	ProviderManuel:   "CD Manuel Romani",
	ProviderJimy:     "Esp. CD Jimy Osorio",
	ProviderFernando: "Esp. CD Fernando Bustamante",
}

var providerColors = map[string]string{
	ProviderElio:     "#007bff",
	ProviderManuel:   "#28a745",
	ProviderJimy:     "#dc3545",
	ProviderFernando: "#ffc107",
}

// GeneralProviders and PediatricProviders are the eligible subsets per
// specialty, in menu order.
var (
	GeneralProviders   = []string{ProviderElio, ProviderManuel}
	PediatricProviders = []string{ProviderJimy, ProviderFernando}
)

// DetectProviderKey fuzzy-matches a free-form provider string (full title,
// surname, bare key) against the known providers. A string mentioning
// pediatrics maps to the primary pediatric provider.
func DetectProviderKey(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	switch {
	case strings.Contains(s, "elio"), strings.Contains(s, "támara"), strings.Contains(s, "tamara"):
		return ProviderElio
	case strings.Contains(s, "manuel"), strings.Contains(s, "romani"):
		return ProviderManuel
	case strings.Contains(s, "jimy"), strings.Contains(s, "osorio"):
		return ProviderJimy
	case strings.Contains(s, "fernando"), strings.Contains(s, "bustamante"):
		return ProviderFernando
	}
	if strings.Contains(s, "pediatr") {
		return ProviderJimy
	}
	return ProviderOther
}

// DisplayName returns the patient-facing title for a provider key.
func DisplayName(key string) string {
	if d, ok := displayNames[key]; ok {
		return d
	}
	return key
}

// ColorFor returns the calendar color associated with a provider key.
func ColorFor(key string) string {
	if c, ok := providerColors[key]; ok {
		return c
	}
	return "#6c757d"
}

// SpecialtyFor infers the specialty a provider attends when a slot carries
// none explicitly.
func SpecialtyFor(key string) Specialty {
	switch key {
	case ProviderJimy, ProviderFernando:
		return SpecialtyPediatric
	default:
		return SpecialtyGeneral
	}
}

// ProvidersFor returns the eligible provider subset for a specialty.
func ProvidersFor(sp Specialty) []string {
	if sp == SpecialtyPediatric {
		return PediatricProviders
	}
	return GeneralProviders
}
