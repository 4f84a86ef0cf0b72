package parser

import (
	"strings"
	"unicode"
)

// Priority is the ordinal urgency derived from an email. The classifier
// always returns a concrete value; normal is the universal default, there is
// no absent state.
type Priority string

const (
	PriorityUrgent Priority = "urgent"
	PriorityHigh   Priority = "high"
	PriorityNormal Priority = "normal"
	PriorityLow    Priority = "low"
)

// ExtractPriority classifies subject+body into a priority. Rules run in
// strict order; the first match wins.
func ExtractPriority(subject, body string) Priority {
	text := strings.ToLower(subject + " " + body)

	urgentWords := []string{"urgent", "asap", "emergency", "critical"}
	if containsAny(text, urgentWords) || strings.Contains(subject, "!!!") || isAllCaps(subject) {
		return PriorityUrgent
	}

	highWords := []string{"high priority", "important", "priority: high"}
	if containsAny(text, highWords) || strings.Contains(subject, "!!") {
		return PriorityHigh
	}

	lowWords := []string{"low priority", "priority: low", "when you get a chance", "no rush"}
	if containsAny(text, lowWords) {
		return PriorityLow
	}

	return PriorityNormal
}

// isAllCaps reports whether s equals its own upper-cased form and contains at
// least one letter. Subjects with no letters ("123!?") never count as
// shouting, and neither do short acronym subjects like "FYI".
func isAllCaps(s string) bool {
	if len(s) <= 3 || s != strings.ToUpper(s) {
		return false
	}
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func containsAny(text string, phrases []string) bool {
	for _, p := range phrases {
		if strings.Contains(text, p) {
			return true
		}
	}
	return false
}
