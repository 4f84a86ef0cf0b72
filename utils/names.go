package utils

import "strings"

// DisplayNameFromEmail derives a human-readable name from the local part of
// an address when the sender gave none: split on '.', '_' and '-', capitalize
// each word, join with spaces. "j.doe@x.com" -> "J Doe".
func DisplayNameFromEmail(email string) string {
	local := email
	if at := strings.Index(email, "@"); at >= 0 {
		local = email[:at]
	}

	parts := strings.FieldsFunc(local, func(r rune) bool {
		return r == '.' || r == '_' || r == '-'
	})

	words := make([]string, 0, len(parts))
	for _, p := range parts {
		words = append(words, capitalize(p))
	}
	if len(words) == 0 {
		return local
	}
	return strings.Join(words, " ")
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
