package seniority

import (
	"github.com/amishk599/jobpipe/internal/taxonomy"
	"github.com/amishk599/jobpipe/internal/textmatch"
)

type rule struct {
	tier     string
	keywords []textmatch.Phrase
}

// Resolver maps a job title to a seniority tier using ordered keyword rules.
type Resolver struct {
	rules []rule
	def   string
}

// NewResolver compiles the seniority rules of tax in declaration order.
func NewResolver(tax *taxonomy.Taxonomy) *Resolver {
	r := &Resolver{def: tax.DefaultSeniority}
	for _, sr := range tax.SeniorityRules {
		r.rules = append(r.rules, rule{tier: sr.Tier, keywords: textmatch.CompileAll(sr.Keywords)})
	}
	return r
}

// Resolve returns the tier of the first rule with a whole-word keyword hit in
// title, or the default tier. With the built-in rules Senior is checked before
// Junior, so "Senior/Junior Developer" is Senior.
func (r *Resolver) Resolve(title string) string {
	lowered := textmatch.Lower(title)
	for _, rl := range r.rules {
		for _, k := range rl.keywords {
			if k.In(lowered) {
				return rl.tier
			}
		}
	}
	return r.def
}
