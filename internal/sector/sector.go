// Package sector assigns a posting to one business sector by keyword score.
package sector

import (
	"github.com/amishk599/jobpipe/internal/model"
	"github.com/amishk599/jobpipe/internal/taxonomy"
	"github.com/amishk599/jobpipe/internal/textmatch"
)

type compiled struct {
	name     string
	triggers []textmatch.Phrase
}

// Classifier scores text against every sector's triggers.
type Classifier struct {
	sectors []compiled
}

// Score is one sector's evidence count.
type Score struct {
	Sector string
	Points int
}

// NewClassifier compiles the sector list of tax, keeping declaration order.
func NewClassifier(tax *taxonomy.Taxonomy) *Classifier {
	c := &Classifier{sectors: make([]compiled, 0, len(tax.Sectors))}
	for _, s := range tax.Sectors {
		c.sectors = append(c.sectors, compiled{name: s.Name, triggers: textmatch.CompileAll(s.Triggers)})
	}
	return c
}

// Classify returns the sector with the strictly highest score over title,
// description and company. Equal scores go to the sector declared first.
// When nothing matches the result is model.SectorOther.
func (c *Classifier) Classify(title, description, company string) string {
	best, bestPoints := model.SectorOther, 0
	for _, s := range c.Scores(title, description, company) {
		if s.Points > bestPoints {
			best, bestPoints = s.Sector, s.Points
		}
	}
	return best
}

// Scores returns every sector's score in declaration order. Each trigger
// contributes its number of non-overlapping whole-word occurrences.
func (c *Classifier) Scores(title, description, company string) []Score {
	text := textmatch.Lower(title + " " + description + " " + company)
	out := make([]Score, len(c.sectors))
	for i, s := range c.sectors {
		out[i].Sector = s.name
		for _, t := range s.triggers {
			out[i].Points += t.Count(text)
		}
	}
	return out
}
