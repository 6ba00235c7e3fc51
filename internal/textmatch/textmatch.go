// Package textmatch finds whole-word phrases in text.
//
// Matching is case-insensitive and Unicode aware: accented letters count as
// word characters, so "peru" never matches inside "operaciones" and "ia"
// never matches inside "ingeniería". A boundary is only required on a side
// of the phrase that ends in a word character, which keeps terms such as
// "C++", "C#" or "CI/CD" matchable.
package textmatch

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// Phrase is a compiled search term. The zero value matches nothing.
type Phrase struct {
	text       string
	checkStart bool
	checkEnd   bool
}

// Compile lower-cases and trims term.
func Compile(term string) Phrase {
	t := strings.ToLower(strings.TrimSpace(term))
	if t == "" {
		return Phrase{}
	}
	first, _ := utf8.DecodeRuneInString(t)
	last, _ := utf8.DecodeLastRuneInString(t)
	return Phrase{
		text:       t,
		checkStart: IsWordRune(first),
		checkEnd:   IsWordRune(last),
	}
}

// CompileAll compiles every term, dropping blanks.
func CompileAll(terms []string) []Phrase {
	out := make([]Phrase, 0, len(terms))
	for _, t := range terms {
		p := Compile(t)
		if p.text == "" {
			continue
		}
		out = append(out, p)
	}
	return out
}

// Text returns the lower-cased term.
func (p Phrase) Text() string { return p.text }

// Lower prepares text for In and Count. Callers matching many phrases against
// the same text should lower it once.
func Lower(s string) string { return strings.ToLower(s) }

// In reports whether the phrase occurs as a whole word in lowered text.
func (p Phrase) In(lowered string) bool {
	_, ok := p.next(lowered, 0)
	return ok
}

// Count returns the number of non-overlapping whole-word occurrences of the
// phrase in lowered text, scanning left to right.
func (p Phrase) Count(lowered string) int {
	n := 0
	from := 0
	for {
		end, ok := p.next(lowered, from)
		if !ok {
			return n
		}
		n++
		from = end
	}
}

// next finds the first valid occurrence at or after from and returns the
// byte offset just past it.
func (p Phrase) next(s string, from int) (int, bool) {
	if p.text == "" {
		return 0, false
	}
	for from <= len(s)-len(p.text) {
		i := strings.Index(s[from:], p.text)
		if i < 0 {
			return 0, false
		}
		start := from + i
		end := start + len(p.text)
		if p.boundaryOK(s, start, end) {
			return end, true
		}
		_, size := utf8.DecodeRuneInString(s[start:])
		from = start + size
	}
	return 0, false
}

func (p Phrase) boundaryOK(s string, start, end int) bool {
	if p.checkStart && start > 0 {
		r, _ := utf8.DecodeLastRuneInString(s[:start])
		if IsWordRune(r) {
			return false
		}
	}
	if p.checkEnd && end < len(s) {
		r, _ := utf8.DecodeRuneInString(s[end:])
		if IsWordRune(r) {
			return false
		}
	}
	return true
}

// IsWordRune reports whether r is part of a word: letters (any script),
// digits, combining marks and underscore.
func IsWordRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r)
}
