package moderation

import (
	"strings"

	goaway "github.com/TwiN/go-away"

	"github.com/yanqian/echo-chat/internal/domain/conversation"
)

// DefaultAllowList holds mild words that stay visible in an enterprise setting.
var DefaultAllowList = []string{"damn", "hell"}

// Config adjusts the stock dictionary.
type Config struct {
	AllowList []string
	Extra     []string
}

// Filter censors profanity with asterisks using the go-away detector.
type Filter struct {
	detector *goaway.ProfanityDetector
}

// NewFilter builds a filter from the default dictionary minus the allow list plus extra words.
func NewFilter(cfg Config) *Filter {
	profanities := buildDictionary(goaway.DefaultProfanities, cfg.AllowList, cfg.Extra)
	detector := goaway.NewProfanityDetector().WithCustomDictionary(
		profanities,
		goaway.DefaultFalsePositives,
		goaway.DefaultFalseNegatives,
	)
	return &Filter{detector: detector}
}

// Clean returns text with disallowed words masked.
func (f *Filter) Clean(text string) string {
	if strings.TrimSpace(text) == "" {
		return text
	}
	return f.detector.Censor(text)
}

// IsProfane reports whether text contains a disallowed word.
func (f *Filter) IsProfane(text string) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	return f.detector.IsProfane(text)
}

func buildDictionary(base, allow, extra []string) []string {
	skip := make(map[string]struct{}, len(allow))
	for _, word := range allow {
		skip[strings.ToLower(strings.TrimSpace(word))] = struct{}{}
	}
	out := make([]string, 0, len(base)+len(extra))
	seen := make(map[string]struct{}, len(base)+len(extra))
	for _, word := range append(append([]string(nil), base...), extra...) {
		word = strings.ToLower(strings.TrimSpace(word))
		if word == "" {
			continue
		}
		if _, ok := skip[word]; ok {
			continue
		}
		if _, ok := seen[word]; ok {
			continue
		}
		seen[word] = struct{}{}
		out = append(out, word)
	}
	return out
}

var _ conversation.Moderator = (*Filter)(nil)
