package model

import "strings"

// NormalizePhone converts a Kenyan mobile number to the gateway's canonical
// 12-digit form (254 + 9 digits). It accepts local "07XXXXXXXX" style input
// or an already-international "2547XXXXXXXX". Every boundary that takes a
// phone number must go through this function so the layers cannot diverge.
func NormalizePhone(raw string) (string, bool) {
	var b strings.Builder
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	cleaned := b.String()

	var normalized string
	switch {
	case strings.HasPrefix(cleaned, "0"):
		normalized = "254" + cleaned[1:]
	case strings.HasPrefix(cleaned, "254"):
		normalized = cleaned
	default:
		return "", false
	}
	if len(normalized) != 12 {
		return "", false
	}
	return normalized, true
}
