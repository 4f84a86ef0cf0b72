package parser

import "strings"

// The two signal vocabularies are deliberately independent: an email can look
// like both an idea and a task, or like neither. Disambiguation is the
// router's job, not this package's.
var (
	ideaSignals = []string{
		"what if",
		"suggestion",
		"could we",
		"would be cool",
		"feature request",
		"brainstorm",
		"proposal",
		"we should consider",
		"food for thought",
	}

	taskSignals = []string{
		"please",
		"need",
		"must",
		"action item",
		"to-do",
		"todo",
		"implement",
		"fix",
		"complete",
		"finish",
		"deadline",
		"don't forget",
	}
)

// DetectIsIdea reports whether any idea-signal phrase appears in text.
func DetectIsIdea(text string) bool {
	return containsAny(strings.ToLower(text), ideaSignals)
}

// DetectIsTask reports whether any task-signal phrase appears in text.
func DetectIsTask(text string) bool {
	return containsAny(strings.ToLower(text), taskSignals)
}
