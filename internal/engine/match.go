package engine

import (
	"regexp"
	"strings"
)

const shortTokenMaxLen = 4

// term is a normalized pattern. Short alphanumeric tokens match as whole
// words so acronyms like "fsc" or "pu" do not fire inside longer words;
// anything else matches as a substring.
type term struct {
	text string
	word *regexp.Regexp
}

func newTerm(raw string) (term, bool) {
	t := Normalize(raw)
	if t == "" {
		return term{}, false
	}
	if isShortToken(t) {
		return term{text: t, word: regexp.MustCompile(`\b` + regexp.QuoteMeta(t) + `\b`)}, true
	}
	return term{text: t}, true
}

func isShortToken(s string) bool {
	if len(s) > shortTokenMaxLen {
		return false
	}
	for _, r := range s {
		if (r < 'a' || r > 'z') && (r < '0' || r > '9') {
			return false
		}
	}
	return true
}

func (t term) in(text string) bool {
	return t.index(text) >= 0
}

// index returns the byte offset of the first match in text, or -1.
func (t term) index(text string) int {
	if t.word != nil {
		loc := t.word.FindStringIndex(text)
		if loc == nil {
			return -1
		}
		return loc[0]
	}
	return strings.Index(text, t.text)
}

type terms []term

func compileTerms(raw []string) terms {
	out := make(terms, 0, len(raw))
	for _, r := range raw {
		if t, ok := newTerm(r); ok {
			out = append(out, t)
		}
	}
	return out
}

func (ts terms) anyIn(text string) bool {
	for _, t := range ts {
		if t.in(text) {
			return true
		}
	}
	return false
}

func (ts terms) allIn(text string) bool {
	for _, t := range ts {
		if !t.in(text) {
			return false
		}
	}
	return true
}

// first returns the first term present in text.
func (ts terms) first(text string) (term, int, bool) {
	for _, t := range ts {
		if i := t.index(text); i >= 0 {
			return t, i, true
		}
	}
	return term{}, -1, false
}

// hits counts the terms present in text.
func (ts terms) hits(text string) int {
	n := 0
	for _, t := range ts {
		if t.in(text) {
			n++
		}
	}
	return n
}
