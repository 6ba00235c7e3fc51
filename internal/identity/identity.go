package identity

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/amishk599/jobpipe/internal/textmatch"
)

// GenerateKey returns the MD5 hex digest of the lower-cased, trimmed
// concatenation platform+title+company+location. Records sharing all four
// values get the same key; that collision is how duplicates are found when a
// source has no native id.
func GenerateKey(platform, title, company, location string) string {
	base := strings.ToLower(strings.TrimSpace(platform + title + company + location))
	sum := md5.Sum([]byte(base))
	return hex.EncodeToString(sum[:])
}

// KeyFor returns the identity key for a record. A native id, when the source
// supplies one, takes precedence: the key becomes "<platform>:<id>", unique per
// (platform, native id) pair. Otherwise it falls back to GenerateKey.
func KeyFor(platform, nativeID, title, company, location string) string {
	if id := strings.TrimSpace(nativeID); id != "" {
		return strings.ToLower(strings.TrimSpace(platform)) + ":" + id
	}
	return GenerateKey(platform, title, company, location)
}

// Splitter separates "<role> <sep> <company>" titles into role and company.
type Splitter struct {
	separators   []string
	placeholders map[string]bool
}

// NewSplitter builds a splitter for the given separator words ("at", "en")
// and company placeholder values ("Empresa", "Jobs").
func NewSplitter(separators, placeholders []string) *Splitter {
	s := &Splitter{placeholders: make(map[string]bool, len(placeholders))}
	for _, sep := range separators {
		sep = strings.ToLower(strings.TrimSpace(sep))
		if sep != "" {
			s.separators = append(s.separators, " "+sep+" ")
		}
	}
	for _, p := range placeholders {
		s.placeholders[strings.ToLower(strings.TrimSpace(p))] = true
	}
	return s
}

// IsPlaceholder reports whether company is blank or a stand-in value such as
// "Empresa no especificada".
func (s *Splitter) IsPlaceholder(company string) bool {
	c := strings.ToLower(strings.TrimSpace(company))
	return c == "" || s.placeholders[c]
}

// Split returns the role and company for a title/company pair. The title is
// cut at the earliest separator when the company is missing, a placeholder,
// or names the same organisation as the text after the separator: equal to
// it, or one containing the other as whole words ("Globant" and
// "Globant S.A."). A known company is kept over the suffix. A role that
// itself contains a separator word ("Ingeniero en Sistemas") stays whole
// unless the company matches that way.
func (s *Splitter) Split(title, company string) (string, string) {
	i, sep := s.firstSeparator(title)
	if i < 0 {
		return title, company
	}
	role := strings.TrimSpace(title[:i])
	suffix := strings.TrimSpace(title[i+len(sep):])
	if role == "" || suffix == "" {
		return title, company
	}
	company = strings.TrimSpace(company)
	switch {
	case s.IsPlaceholder(company), strings.EqualFold(company, suffix):
		return role, suffix
	case sameOrganisation(company, suffix):
		return role, company
	}
	return title, company
}

func sameOrganisation(company, suffix string) bool {
	return textmatch.Compile(suffix).In(textmatch.Lower(company)) ||
		textmatch.Compile(company).In(textmatch.Lower(suffix))
}

func (s *Splitter) firstSeparator(title string) (int, string) {
	haystack := strings.ToLower(title)
	if len(haystack) != len(title) {
		// Lower-casing changed byte offsets; fall back to exact matching.
		haystack = title
	}
	best, bestSep := -1, ""
	for _, sep := range s.separators {
		if i := strings.Index(haystack, sep); i >= 0 && (best < 0 || i < best) {
			best, bestSep = i, sep
		}
	}
	return best, bestSep
}
