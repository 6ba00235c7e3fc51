// Package taxonomy holds the reference data behind classification: the skill
// list, sector triggers, the location gazetteer, URL routing rules and
// seniority keywords. A Taxonomy is loaded once per process and never
// modified afterwards.
package taxonomy

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/amishk599/jobpipe/internal/model"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalid is returned (wrapped) when reference data is missing or
// malformed. Nothing can be classified without it, so callers treat it as fatal.
var ErrInvalid = errors.New("invalid taxonomy")

// Skill categories.
const (
	CategoryLanguage  = "Programming Language"
	CategoryFramework = "Framework"
	CategoryDatabase  = "Database"
	CategoryCloud     = "Cloud/DevOps"
	CategoryData      = "Data & AI"
	CategoryOther     = "Other"
)

var categories = []string{
	CategoryLanguage, CategoryFramework, CategoryDatabase,
	CategoryCloud, CategoryData, CategoryOther,
}

// Kind orders gazetteer entries by specificity.
type Kind string

const (
	KindCity    Kind = "city"
	KindCountry Kind = "country"
	KindRegion  Kind = "region"
)

// Rank is the position of the kind in lookup order. Lower is checked first.
func (k Kind) Rank() int {
	switch k {
	case KindCity:
		return 0
	case KindCountry:
		return 1
	case KindRegion:
		return 2
	}
	return -1
}

// Skill is a canonical skill name plus alternative spellings that map to it.
type Skill struct {
	Name     string   `yaml:"name"`
	Category string   `yaml:"category"`
	Aliases  []string `yaml:"aliases"`
}

// Sector is a named sector and the phrases that count as evidence for it.
type Sector struct {
	Name     string   `yaml:"name"`
	Triggers []string `yaml:"triggers"`
}

// Place maps a location keyword to a canonical country.
type Place struct {
	Keyword string `yaml:"keyword"`
	Country string `yaml:"country"`
	Kind    Kind   `yaml:"kind"`
}

// URLRule routes a source URL to a country. Host is matched as a prefix of the
// URL host with any "www." removed; Path as a substring of path and query.
// When both are set both must match.
type URLRule struct {
	Host    string `yaml:"host"`
	Path    string `yaml:"path"`
	Country string `yaml:"country"`
}

// SeniorityRule assigns Tier when any keyword occurs in a title.
type SeniorityRule struct {
	Tier     string   `yaml:"tier"`
	Keywords []string `yaml:"keywords"`
}

// Taxonomy is the full reference data set.
type Taxonomy struct {
	Skills              []Skill
	Sectors             []Sector
	Gazetteer           []Place
	URLRules            []URLRule
	SeniorityRules      []SeniorityRule
	DefaultSeniority    string
	TitleSeparators     []string
	CompanyPlaceholders []string
	SalaryPlaceholders  []string
}

type rawTaxonomy struct {
	Skills    []Skill   `yaml:"skills"`
	Sectors   []Sector  `yaml:"sectors"`
	Gazetteer []Place   `yaml:"gazetteer"`
	URLRules  []URLRule `yaml:"url_rules"`
	Seniority struct {
		Default string          `yaml:"default"`
		Rules   []SeniorityRule `yaml:"rules"`
	} `yaml:"seniority"`
	TitleSeparators     []string `yaml:"title_separators"`
	CompanyPlaceholders []string `yaml:"company_placeholders"`
	SalaryPlaceholders  []string `yaml:"salary_placeholders"`
}

// Default returns the built-in taxonomy.
func Default() (*Taxonomy, error) {
	t, err := Parse(defaultYAML)
	if err != nil {
		return nil, fmt.Errorf("built-in taxonomy: %w", err)
	}
	return t, nil
}

// Load reads the taxonomy at path. An empty path selects the built-in one.
func Load(path string) (*Taxonomy, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %w", ErrInvalid, path, err)
	}
	t, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return t, nil
}

// Parse decodes and validates a taxonomy document.
func Parse(data []byte) (*Taxonomy, error) {
	var raw rawTaxonomy
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("%w: parse: %w", ErrInvalid, err)
	}

	t := &Taxonomy{
		Skills:              raw.Skills,
		Sectors:             raw.Sectors,
		Gazetteer:           raw.Gazetteer,
		URLRules:            raw.URLRules,
		SeniorityRules:      raw.Seniority.Rules,
		DefaultSeniority:    raw.Seniority.Default,
		TitleSeparators:     raw.TitleSeparators,
		CompanyPlaceholders: raw.CompanyPlaceholders,
		SalaryPlaceholders:  raw.SalaryPlaceholders,
	}
	if t.DefaultSeniority == "" {
		t.DefaultSeniority = model.SeniorityMid
	}
	for i := range t.Skills {
		if t.Skills[i].Category == "" {
			t.Skills[i].Category = CategoryOther
		}
	}

	if err := t.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Validate reports whether t is usable for classification. Errors wrap
// ErrInvalid.
func (t *Taxonomy) Validate() error {
	if t == nil {
		return fmt.Errorf("%w: no taxonomy loaded", ErrInvalid)
	}
	if err := validate(t); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalid, err)
	}
	return nil
}

func validate(t *Taxonomy) error {
	if len(t.Skills) == 0 {
		return errors.New("skills must not be empty")
	}
	terms := make(map[string]string)
	for i, s := range t.Skills {
		if strings.TrimSpace(s.Name) == "" {
			return fmt.Errorf("skills[%d]: name is required", i)
		}
		if !slices.Contains(categories, s.Category) {
			return fmt.Errorf("skill %q: unknown category %q", s.Name, s.Category)
		}
		for _, term := range append([]string{s.Name}, s.Aliases...) {
			key := strings.ToLower(strings.TrimSpace(term))
			if key == "" {
				return fmt.Errorf("skill %q: blank alias", s.Name)
			}
			if owner, dup := terms[key]; dup {
				return fmt.Errorf("skill %q: term %q already belongs to %q", s.Name, term, owner)
			}
			terms[key] = s.Name
		}
	}

	if len(t.Sectors) == 0 {
		return errors.New("sectors must not be empty")
	}
	seen := make(map[string]bool)
	for i, s := range t.Sectors {
		name := strings.TrimSpace(s.Name)
		if name == "" {
			return fmt.Errorf("sectors[%d]: name is required", i)
		}
		if strings.EqualFold(name, model.SectorOther) {
			return fmt.Errorf("sector %q is reserved for unclassified jobs", name)
		}
		if seen[strings.ToLower(name)] {
			return fmt.Errorf("sector %q declared twice", name)
		}
		seen[strings.ToLower(name)] = true
		if len(s.Triggers) == 0 {
			return fmt.Errorf("sector %q has no triggers", name)
		}
	}

	if len(t.Gazetteer) == 0 {
		return errors.New("gazetteer must not be empty")
	}
	for i, p := range t.Gazetteer {
		if strings.TrimSpace(p.Keyword) == "" || strings.TrimSpace(p.Country) == "" {
			return fmt.Errorf("gazetteer[%d]: keyword and country are required", i)
		}
		if p.Kind.Rank() < 0 {
			return fmt.Errorf("gazetteer[%d] %q: unknown kind %q", i, p.Keyword, p.Kind)
		}
	}

	for i, r := range t.URLRules {
		if r.Host == "" && r.Path == "" {
			return fmt.Errorf("url_rules[%d]: host or path is required", i)
		}
		if strings.TrimSpace(r.Country) == "" {
			return fmt.Errorf("url_rules[%d]: country is required", i)
		}
	}

	tiers := []string{model.SeniorityJunior, model.SeniorityMid, model.SenioritySenior}
	if len(t.SeniorityRules) == 0 {
		return errors.New("seniority rules must not be empty")
	}
	for i, r := range t.SeniorityRules {
		if !slices.Contains(tiers, r.Tier) {
			return fmt.Errorf("seniority.rules[%d]: unknown tier %q", i, r.Tier)
		}
		if len(r.Keywords) == 0 {
			return fmt.Errorf("seniority.rules[%d]: keywords must not be empty", i)
		}
	}
	if !slices.Contains(tiers, t.DefaultSeniority) {
		return fmt.Errorf("seniority.default: unknown tier %q", t.DefaultSeniority)
	}

	for i, s := range t.TitleSeparators {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("title_separators[%d] is blank", i)
		}
	}
	return nil
}

// Countries returns every canonical country the taxonomy can produce,
// including the unknown sentinel.
func (t *Taxonomy) Countries() []string {
	set := map[string]bool{model.CountryUnknown: true}
	for _, p := range t.Gazetteer {
		set[p.Country] = true
	}
	for _, r := range t.URLRules {
		set[r.Country] = true
	}
	out := make([]string, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// SkillCategories maps canonical skill names to their category.
func (t *Taxonomy) SkillCategories() map[string]string {
	m := make(map[string]string, len(t.Skills))
	for _, s := range t.Skills {
		m[s.Name] = s.Category
	}
	return m
}

// SectorNames returns sector names in declaration order.
func (t *Taxonomy) SectorNames() []string {
	out := make([]string, len(t.Sectors))
	for i, s := range t.Sectors {
		out[i] = s.Name
	}
	return out
}
