// Package merge collapses records that share an identity key and scores
// data completeness.
package merge

import (
	"slices"
	"strings"

	"github.com/amishk599/jobpipe/internal/model"
)

// Points awarded by Score.
const (
	descriptionPoints = 50
	salaryPoints      = 50
)

type group struct {
	winner model.CanonicalJob
	skills []string
}

// Merge groups jobs by IdentityKey. Within a group the job with the latest
// CapturedAt supplies every scalar field; on equal timestamps the one later in
// the input wins. Skills are the union over the group. Jobs with a blank title
// are dropped. The result is sorted by key.
func Merge(jobs []model.CanonicalJob) []model.CanonicalJob {
	groups := make(map[string]*group, len(jobs))
	for _, j := range jobs {
		if strings.TrimSpace(j.Title) == "" {
			continue
		}
		g, ok := groups[j.IdentityKey]
		if !ok {
			groups[j.IdentityKey] = &group{winner: j, skills: slices.Clone(j.Skills)}
			continue
		}
		if !j.CapturedAt.Before(g.winner.CapturedAt) {
			g.winner = j
		}
		g.skills = append(g.skills, j.Skills...)
	}

	out := make([]model.CanonicalJob, 0, len(groups))
	for _, g := range groups {
		j := g.winner
		slices.Sort(g.skills)
		j.Skills = slices.Compact(g.skills)
		j.QualityScore = Score(j)
		out = append(out, j)
	}
	slices.SortFunc(out, func(a, b model.CanonicalJob) int {
		return strings.Compare(a.IdentityKey, b.IdentityKey)
	})
	return out
}

// Score rates completeness from 0 to 100: half for a description, half for a
// disclosed salary.
func Score(j model.CanonicalJob) int {
	score := 0
	if j.Description != "" {
		score += descriptionPoints
	}
	if j.HasSalary() {
		score += salaryPoints
	}
	return score
}

// SourceQuality aggregates completeness per source platform, sorted by
// platform name.
func SourceQuality(jobs []model.CanonicalJob) []model.SourceQuality {
	type acc struct {
		n, desc, salary, score int
	}
	byPlatform := make(map[string]*acc)
	for _, j := range jobs {
		a, ok := byPlatform[j.SourcePlatform]
		if !ok {
			a = &acc{}
			byPlatform[j.SourcePlatform] = a
		}
		a.n++
		if j.Description != "" {
			a.desc++
		}
		if j.HasSalary() {
			a.salary++
		}
		a.score += Score(j)
	}

	out := make([]model.SourceQuality, 0, len(byPlatform))
	for platform, a := range byPlatform {
		n := float64(a.n)
		out = append(out, model.SourceQuality{
			Platform:     platform,
			Jobs:         a.n,
			DescRate:     100 * float64(a.desc) / n,
			SalaryRate:   100 * float64(a.salary) / n,
			AverageScore: float64(a.score) / n,
		})
	}
	slices.SortFunc(out, func(a, b model.SourceQuality) int {
		return strings.Compare(a.Platform, b.Platform)
	})
	return out
}
