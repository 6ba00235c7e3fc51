package taxonomy

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/amishk599/jobpipe/internal/model"
)

func TestDefault_IsValid(t *testing.T) {
	tax, err := Default()
	if err != nil {
		t.Fatalf("Default: %v", err)
	}
	if len(tax.Skills) != 63 {
		t.Errorf("len(Skills) = %d, want 63", len(tax.Skills))
	}
	wantSectors := []string{
		"EdTech", "Fintech", "AI & Machine Learning", "E-commerce",
		"Cybersecurity", "Future of Work", "HealthTech",
	}
	if got := tax.SectorNames(); !slices.Equal(got, wantSectors) {
		t.Errorf("SectorNames = %v, want %v", got, wantSectors)
	}
	if tax.DefaultSeniority != model.SeniorityMid {
		t.Errorf("DefaultSeniority = %q", tax.DefaultSeniority)
	}
	if !slices.Contains(tax.Countries(), model.CountryUnknown) {
		t.Error("Countries must include the unknown sentinel")
	}
	if cat := tax.SkillCategories()["PostgreSQL"]; cat != CategoryDatabase {
		t.Errorf("PostgreSQL category = %q, want %q", cat, CategoryDatabase)
	}
}

func TestLoad_EmptyPathUsesDefault(t *testing.T) {
	tax, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(tax.Sectors) == 0 {
		t.Error("expected built-in sectors")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if !errors.Is(err, ErrInvalid) {
		t.Fatalf("Load error = %v, want ErrInvalid", err)
	}
}

func TestLoad_CustomFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "taxonomy.yaml")
	content := `
skills:
  - { name: Go, aliases: [golang] }
sectors:
  - { name: Fintech, triggers: [bank] }
gazetteer:
  - { keyword: lima, country: Peru, kind: city }
seniority:
  rules:
    - { tier: Senior, keywords: [senior] }
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	tax, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if tax.Skills[0].Category != CategoryOther {
		t.Errorf("missing category should default to Other, got %q", tax.Skills[0].Category)
	}
	if tax.DefaultSeniority != model.SeniorityMid {
		t.Errorf("DefaultSeniority = %q, want Mid", tax.DefaultSeniority)
	}
}

func TestParse_Invalid(t *testing.T) {
	base := `
sectors:
  - { name: Fintech, triggers: [bank] }
gazetteer:
  - { keyword: lima, country: Peru, kind: city }
seniority:
  rules:
    - { tier: Senior, keywords: [senior] }
`
	tests := []struct {
		name string
		doc  string
	}{
		{"broken yaml", "skills: [unclosed"},
		{"no skills", base},
		{"duplicate skill", "skills: [{name: Go}, {name: go}]\n" + base},
		{"alias collides with skill", "skills: [{name: Go, aliases: [rust]}, {name: Rust}]\n" + base},
		{"unknown category", "skills: [{name: Go, category: Tools}]\n" + base},
		{"sector without triggers", `
skills: [{name: Go}]
sectors: [{name: Fintech}]
gazetteer: [{keyword: lima, country: Peru, kind: city}]
seniority: {rules: [{tier: Senior, keywords: [senior]}]}
`},
		{"reserved sector", `
skills: [{name: Go}]
sectors: [{name: Other, triggers: [x]}]
gazetteer: [{keyword: lima, country: Peru, kind: city}]
seniority: {rules: [{tier: Senior, keywords: [senior]}]}
`},
		{"unknown gazetteer kind", `
skills: [{name: Go}]
sectors: [{name: Fintech, triggers: [bank]}]
gazetteer: [{keyword: lima, country: Peru, kind: district}]
seniority: {rules: [{tier: Senior, keywords: [senior]}]}
`},
		{"url rule without pattern", `
skills: [{name: Go}]
sectors: [{name: Fintech, triggers: [bank]}]
gazetteer: [{keyword: lima, country: Peru, kind: city}]
url_rules: [{country: Peru}]
seniority: {rules: [{tier: Senior, keywords: [senior]}]}
`},
		{"unknown tier", `
skills: [{name: Go}]
sectors: [{name: Fintech, triggers: [bank]}]
gazetteer: [{keyword: lima, country: Peru, kind: city}]
seniority: {rules: [{tier: Principal, keywords: [principal]}]}
`},
		{"no seniority rules", `
skills: [{name: Go}]
sectors: [{name: Fintech, triggers: [bank]}]
gazetteer: [{keyword: lima, country: Peru, kind: city}]
`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("Parse error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestKind_Rank(t *testing.T) {
	if !(KindCity.Rank() < KindCountry.Rank() && KindCountry.Rank() < KindRegion.Rank()) {
		t.Error("kinds must rank city < country < region")
	}
	if Kind("planet").Rank() != -1 {
		t.Error("unknown kind must rank -1")
	}
}

func TestValidate_Nil(t *testing.T) {
	var tax *Taxonomy
	if err := tax.Validate(); !errors.Is(err, ErrInvalid) {
		t.Errorf("Validate(nil) = %v, want ErrInvalid", err)
	}
}
