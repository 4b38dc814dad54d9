// Package ahocorasick finds which known names occur in a piece of text in a
// single pass, using an Aho-Corasick automaton.
package ahocorasick

import (
	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Matcher reports the keywords that occur as whole words in a text. Keywords
// and text are expected to be lookup keys already: lower-case words separated
// by single spaces.
type Matcher struct {
	automaton aho.AhoCorasick
	keywords  []string
}

// NewMatcher compiles the automaton. Empty keywords are dropped.
func NewMatcher(keywords []string) *Matcher {
	kws := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		if kw != "" {
			kws = append(kws, kw)
		}
	}
	m := &Matcher{keywords: kws}
	if len(kws) > 0 {
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			DFA: true,
		})
		m.automaton = builder.Build(kws)
	}
	return m
}

// Match returns each keyword found in text, once, in order of first
// occurrence. Overlapping keywords all match: "caixa" and "caixa grande"
// both hit "caixa grande".
func (m *Matcher) Match(text string) []string {
	if len(m.keywords) == 0 || text == "" {
		return nil
	}
	content := []byte(text)
	iter := m.automaton.IterOverlappingByte(content)

	seen := make(map[int]bool)
	var result []string
	for next := iter.Next(); next != nil; next = iter.Next() {
		hit := *next
		if seen[hit.Pattern()] || !wholeWord(content, hit.Start(), hit.End()) {
			continue
		}
		seen[hit.Pattern()] = true
		result = append(result, m.keywords[hit.Pattern()])
	}
	return result
}

// Len returns the number of keywords in the automaton.
func (m *Matcher) Len() int {
	return len(m.keywords)
}

func wholeWord(content []byte, start, end int) bool {
	if start > 0 && content[start-1] != ' ' {
		return false
	}
	return end == len(content) || content[end] == ' '
}
