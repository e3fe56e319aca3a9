// Package ahocorasick provides multi-pattern string matching using an Aho-Corasick automaton.
// It wraps the petar-dambovaliev/aho-corasick library for O(n + m + z) matching.
package ahocorasick

import (
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/corey/gbsearch/internal/ports"
	aho "github.com/petar-dambovaliev/aho-corasick"
)

// Scanner finds indexed keywords mentioned in free text, as whole words and
// regardless of case. Rebuild compiles an automaton; Scan runs one pass over
// the text. Safe for concurrent use.
type Scanner struct {
	mu        sync.RWMutex
	automaton aho.AhoCorasick
	// patterns are the distinct lowercased keywords, index-aligned with the
	// automaton. spellings maps each to the keywords as given to Rebuild.
	patterns  []string
	spellings [][]string
}

var _ ports.KeywordScanner = (*Scanner)(nil)

// NewScanner builds a scanner over keywords.
func NewScanner(keywords []string) *Scanner {
	s := &Scanner{}
	s.Rebuild(keywords)
	return s
}

// Rebuild replaces the automaton with a new set of keywords.
func (s *Scanner) Rebuild(keywords []string) {
	index := make(map[string]int, len(keywords))
	var patterns []string
	var spellings [][]string
	for _, kw := range keywords {
		if kw == "" {
			continue
		}
		folded := strings.ToLower(kw)
		i, ok := index[folded]
		if !ok {
			i = len(patterns)
			index[folded] = i
			patterns = append(patterns, folded)
			spellings = append(spellings, nil)
		}
		if !contains(spellings[i], kw) {
			spellings[i] = append(spellings[i], kw)
		}
	}

	var automaton aho.AhoCorasick
	if len(patterns) > 0 {
		// Overlapping iteration requires standard match semantics.
		builder := aho.NewAhoCorasickBuilder(aho.Opts{
			MatchKind: aho.StandardMatch,
			DFA:       true,
		})
		automaton = builder.Build(patterns)
	}

	s.mu.Lock()
	s.automaton = automaton
	s.patterns = patterns
	s.spellings = spellings
	s.mu.Unlock()
}

// Scan returns the distinct keywords occurring in text as whole words, in
// order of first occurrence. Keywords differing only in case are all
// returned when their folded form matches.
func (s *Scanner) Scan(text string) []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if len(s.patterns) == 0 || text == "" {
		return nil
	}

	folded := []byte(strings.ToLower(text))
	seen := make([]bool, len(s.patterns))
	var result []string

	iter := s.automaton.IterOverlappingByte(folded)
	for next := iter.Next(); next != nil; next = iter.Next() {
		m := *next
		p := m.Pattern()
		if p >= len(s.patterns) || seen[p] {
			continue
		}
		if !isWordBoundary(folded, m.Start(), m.End()) {
			continue
		}
		seen[p] = true
		result = append(result, s.spellings[p]...)
	}
	return result
}

// KeywordCount returns the number of distinct case-folded keywords.
func (s *Scanner) KeywordCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.patterns)
}

// isWordBoundary reports whether text[start:end] is not flanked by word
// characters.
func isWordBoundary(text []byte, start, end int) bool {
	if start > 0 {
		r, _ := utf8.DecodeLastRune(text[:start])
		if isWordRune(r) {
			return false
		}
	}
	if end < len(text) {
		r, _ := utf8.DecodeRune(text[end:])
		if isWordRune(r) {
			return false
		}
	}
	return true
}

func isWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r)
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}
