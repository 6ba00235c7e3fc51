// Package skills finds taxonomy skills mentioned in posting text.
package skills

import (
	"slices"

	"github.com/amishk599/jobpipe/internal/taxonomy"
	"github.com/amishk599/jobpipe/internal/textmatch"
)

type term struct {
	phrase textmatch.Phrase
	name   string
}

// Extractor matches every skill name and alias as a whole word.
type Extractor struct {
	terms []term
}

// NewExtractor compiles the skill list of tax.
func NewExtractor(tax *taxonomy.Taxonomy) *Extractor {
	e := &Extractor{}
	for _, s := range tax.Skills {
		for _, p := range textmatch.CompileAll(append([]string{s.Name}, s.Aliases...)) {
			e.terms = append(e.terms, term{phrase: p, name: s.Name})
		}
	}
	return e
}

// Extract returns the canonical names of the skills found in text, sorted and
// without duplicates. Empty text yields nil.
func (e *Extractor) Extract(text string) []string {
	if text == "" {
		return nil
	}
	lowered := textmatch.Lower(text)
	var found []string
	for _, t := range e.terms {
		if t.phrase.In(lowered) {
			found = append(found, t.name)
		}
	}
	slices.Sort(found)
	return slices.Compact(found)
}
