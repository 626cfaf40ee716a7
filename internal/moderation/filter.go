// Package moderation provides content screening for room chat. It flags
// messages that breach community guidelines so the moderator worker can
// silence repeat offenders.
package moderation

import (
	"strings"
	"unicode"
)

// FilterResult describes the outcome of screening one message.
type FilterResult struct {
	Blocked bool   // whether the message should be acted on
	Reason  string // "blocked_keyword" or "spam_pattern"
	Term    string // the matched keyword or pattern name
}

// defaultTerms is the built-in keyword list. Deployments extend it via
// NewFilterWithTerms; phrases (terms containing spaces) are matched as
// substrings of the lowercased text, single words as whole tokens.
var defaultTerms = []string{
	"kill yourself",
	"kys",
	"go die",
}

// Filter screens chat text against a keyword list and flood heuristics.
// It is immutable after construction and safe for concurrent use.
type Filter struct {
	words   map[string]bool
	phrases []string
}

// NewFilter creates a Filter with the built-in term list.
func NewFilter() *Filter {
	return NewFilterWithTerms(defaultTerms)
}

// NewFilterWithTerms creates a Filter with a custom term list. Terms are
// lowercased; terms containing whitespace are treated as phrases.
func NewFilterWithTerms(terms []string) *Filter {
	f := &Filter{words: make(map[string]bool)}
	for _, t := range terms {
		t = strings.ToLower(strings.TrimSpace(t))
		if t == "" {
			continue
		}
		if strings.ContainsAny(t, " \t") {
			f.phrases = append(f.phrases, t)
		} else {
			f.words[t] = true
		}
	}
	return f
}

// Check screens text and returns a blocking result on the first keyword or
// spam-pattern match. Clean text returns a zero FilterResult.
func (f *Filter) Check(text string) FilterResult {
	lower := strings.ToLower(text)

	for _, phrase := range f.phrases {
		if strings.Contains(lower, phrase) {
			return FilterResult{Blocked: true, Reason: "blocked_keyword", Term: phrase}
		}
	}

	// Whole-token match so "badword" does not flag "badwording".
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, tok := range tokens {
		if f.words[tok] {
			return FilterResult{Blocked: true, Reason: "blocked_keyword", Term: tok}
		}
	}

	return f.checkSpamPatterns(text)
}
