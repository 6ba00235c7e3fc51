package browse

import (
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/amishk599/jobpipe/internal/model"
	"github.com/amishk599/jobpipe/internal/store"
)

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "tab":
		return tea.KeyMsg{Type: tea.KeyTab}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func sampleJobs() []model.CanonicalJob {
	return []model.CanonicalJob{
		{IdentityKey: "a", Title: "Go Developer", Company: "Acme", Country: "Peru",
			Description: "Go and AWS", SalaryRange: "S/ 8000", Seniority: model.SeniorityMid},
		{IdentityKey: "b", Title: "Data Analyst", Company: "Beta", Country: "Chile",
			SalaryRange: model.SalaryNotDisclosed, Seniority: model.SeniorityJunior},
		{IdentityKey: "c", Title: "QA Lead", Company: "Gamma", Country: "Mexico",
			Description: "Testing", SalaryRange: model.SalaryNotDisclosed, Seniority: model.SenioritySenior},
	}
}

func TestPickerSelection(t *testing.T) {
	sectors := []store.Count{{Name: "Fintech", Jobs: 2}, {Name: "EdTech", Jobs: 1}}

	tests := []struct {
		name       string
		keys       []string
		wantSector string
		wantOK     bool
	}{
		{"all sectors", []string{"enter"}, "", true},
		{"second entry", []string{"down", "enter"}, "Fintech", true},
		{"cursor stops at end", []string{"j", "j", "j", "j", "enter"}, "EdTech", true},
		{"cursor stops at top", []string{"up", "k", "enter"}, "", true},
		{"quit", []string{"q"}, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var m tea.Model = pickerModel{total: 3, sectors: sectors, chosen: -1}
			for _, k := range tt.keys {
				m, _ = m.Update(key(k))
			}
			sector, ok := m.(pickerModel).selection()
			if sector != tt.wantSector || ok != tt.wantOK {
				t.Errorf("selection = %q, %v; want %q, %v", sector, ok, tt.wantSector, tt.wantOK)
			}
		})
	}
}

func TestPickerView(t *testing.T) {
	m := pickerModel{total: 3, sectors: []store.Count{{Name: "Fintech", Jobs: 2}}, chosen: -1}
	v := m.View()
	if !strings.Contains(v, "All sectors (3)") || !strings.Contains(v, "Fintech (2)") {
		t.Errorf("View missing entries:\n%s", v)
	}
}

func TestCompleteJobs(t *testing.T) {
	got := completeJobs(sampleJobs())
	if len(got) != 1 || got[0].IdentityKey != "a" {
		t.Errorf("completeJobs = %+v, want only job a", got)
	}
}

func TestBrowseModel_NavigateAndOpenDetail(t *testing.T) {
	var m tea.Model = newBrowseModel("All sectors", sampleJobs())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})

	for _, k := range []string{"down", "down", "down"} {
		m, _ = m.Update(key(k))
	}
	bm := m.(browseModel)
	if bm.leftCursor != 2 {
		t.Fatalf("leftCursor = %d, want clamped to 2", bm.leftCursor)
	}

	m, _ = m.Update(key("enter"))
	bm = m.(browseModel)
	if bm.view != viewDetail || bm.detailJob.IdentityKey != "c" {
		t.Fatalf("expected detail view of job c, got view=%v job=%q", bm.view, bm.detailJob.IdentityKey)
	}
	if !strings.Contains(bm.renderDetail(), "QA Lead") {
		t.Error("detail does not show the title")
	}

	m, _ = m.Update(key("r"))
	if !m.(browseModel).showDescription {
		t.Error("r should toggle the description on")
	}
	if !strings.Contains(m.(browseModel).renderDetail(), "Testing") {
		t.Error("description not rendered after r")
	}

	m, _ = m.Update(key("esc"))
	if m.(browseModel).view != viewList {
		t.Error("esc should return to the list")
	}
}

func TestBrowseModel_SwitchPane(t *testing.T) {
	var m tea.Model = newBrowseModel("All sectors", sampleJobs())
	m, _ = m.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	m, _ = m.Update(key("tab"))
	m, _ = m.Update(key("enter"))

	bm := m.(browseModel)
	if bm.activePane != 1 || bm.detailJob.IdentityKey != "a" {
		t.Errorf("expected detail of the only complete job, got pane=%d job=%q", bm.activePane, bm.detailJob.IdentityKey)
	}
}

func TestBrowseModel_QuitVersusBack(t *testing.T) {
	var m tea.Model = newBrowseModel("x", nil)
	m, _ = m.Update(tea.WindowSizeMsg{Width: 80, Height: 24})

	quit, cmd := m.Update(key("q"))
	if !quit.(browseModel).wantQuit || cmd == nil {
		t.Error("q should quit the program")
	}
	back, cmd := m.Update(key("esc"))
	if back.(browseModel).wantQuit || cmd == nil {
		t.Error("esc should leave without quitting")
	}
}

func TestRenderJobs_Empty(t *testing.T) {
	if got := renderJobs(nil, 0, true); got != "  (no jobs)" {
		t.Errorf("renderJobs(nil) = %q", got)
	}
}

func TestWordWrap(t *testing.T) {
	got := wordWrap("uno dos tres cuatro", 8)
	want := "uno dos\ntres\ncuatro"
	if got != want {
		t.Errorf("wordWrap = %q, want %q", got, want)
	}
	if wordWrap("   ", 10) != "" {
		t.Error("wordWrap of blanks should be empty")
	}
}
