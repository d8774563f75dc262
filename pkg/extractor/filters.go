package extractor

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"
)

// Keywords must be longer than MinKeywordRunes runes.
const MinKeywordRunes = 1

// NormalizeKeyword trims and NFC-normalizes a candidate and reports whether it
// is acceptable as a keyword.
func NormalizeKeyword(candidate string) (string, bool) {
	kw := norm.NFC.String(strings.TrimSpace(candidate))
	if utf8.RuneCountInString(kw) <= MinKeywordRunes {
		return "", false
	}
	return kw, true
}

// keywordSet accumulates unique keywords in insertion order up to a limit.
type keywordSet struct {
	limit int
	seen  map[string]struct{}
	items []string
}

func newKeywordSet(limit int) *keywordSet {
	return &keywordSet{
		limit: limit,
		seen:  make(map[string]struct{}, limit),
		items: make([]string, 0, limit),
	}
}

// Offer adds candidate if it is acceptable, unseen, and the set is not full.
// It reports whether the candidate was added.
func (s *keywordSet) Offer(candidate string) bool {
	if s.Full() {
		return false
	}
	kw, ok := NormalizeKeyword(candidate)
	if !ok {
		return false
	}
	if _, dup := s.seen[kw]; dup {
		return false
	}
	s.seen[kw] = struct{}{}
	s.items = append(s.items, kw)
	return true
}

func (s *keywordSet) Full() bool {
	return len(s.items) >= s.limit
}

func (s *keywordSet) Len() int {
	return len(s.items)
}

func (s *keywordSet) Keywords() []string {
	return s.items
}
