package activation

import (
	"regexp"
	"strings"
)

// Matcher decides whether a key occurs in scanned text.
type Matcher struct {
	CaseSensitive bool
	WholeWords    bool
}

func (m Matcher) Fold(s string) string {
	if m.CaseSensitive {
		return s
	}
	return strings.ToLower(s)
}

// Match reports whether needle occurs in haystack. With whole-word matching
// a single-word needle must sit between word boundaries; a needle with
// several words is always matched as a substring.
func (m Matcher) Match(haystack, needle string) bool {
	return newScanner(m).match(m.Fold(haystack), needle)
}

// scanner matches keys against already folded text and remembers the
// word patterns it compiled.
type scanner struct {
	Matcher
	patterns map[string]*regexp.Regexp
}

func newScanner(m Matcher) *scanner {
	return &scanner{Matcher: m, patterns: make(map[string]*regexp.Regexp)}
}

func (s *scanner) match(haystack, needle string) bool {
	needle = s.Fold(needle)
	if needle == "" {
		return false
	}
	if !s.WholeWords || len(strings.Fields(needle)) > 1 {
		return strings.Contains(haystack, needle)
	}
	re, ok := s.patterns[needle]
	if !ok {
		re = regexp.MustCompile(`\b` + regexp.QuoteMeta(needle) + `\b`)
		s.patterns[needle] = re
	}
	return re.MatchString(haystack)
}
