// Package parser implements the shared inbound-email extraction engine:
// hashtags, @-mentions, due dates, priority and idea/task signals. The same
// package backs both the ingestion endpoint and the parse-preview endpoint so
// the keyword lists can never diverge.
//
// All functions are pure and safe for concurrent use.
package parser

import "time"

// ParsedMetadata is everything the extractors derive from one email. It is
// stored as a JSON blob on the inbound email record, never as its own row.
type ParsedMetadata struct {
	Tags      []string   `json:"tags"`
	Assignees []string   `json:"assignees"`
	DueDate   *time.Time `json:"due_date,omitempty"`
	Priority  Priority   `json:"priority"`
	IsIdea    bool       `json:"is_idea"`
	IsTask    bool       `json:"is_task"`
}

// Parse runs all four extractors over the subject and body. now anchors the
// relative date phrases ("tomorrow", "in 3 days") so callers and tests share
// one reference clock.
func Parse(subject, body string, now time.Time) ParsedMetadata {
	text := subject + " " + body

	return ParsedMetadata{
		Tags:      ExtractHashtags(text),
		Assignees: ExtractMentions(text),
		DueDate:   ExtractDueDate(text, now),
		Priority:  ExtractPriority(subject, body),
		IsIdea:    DetectIsIdea(text),
		IsTask:    DetectIsTask(text),
	}
}
