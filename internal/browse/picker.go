package browse

import (
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/amishk599/jobpipe/internal/store"
)

var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				Padding(1, 0, 1, 2)

	pickerItemStyle = lipgloss.NewStyle().
			Padding(0, 0, 0, 4)

	pickerSelectedStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("39")).
				Bold(true).
				Padding(0, 0, 0, 2)

	pickerHintStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Padding(1, 0, 0, 2)
)

// pickerModel lists "All sectors" followed by one entry per sector.
type pickerModel struct {
	total   int
	sectors []store.Count
	cursor  int
	chosen  int // -1 = no choice yet, -2 = quit
}

func (m pickerModel) Init() tea.Cmd {
	return nil
}

func (m pickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.chosen = -2
			return m, tea.Quit
		case "up", "k":
			if m.cursor > 0 {
				m.cursor--
			}
		case "down", "j":
			if m.cursor < len(m.sectors) {
				m.cursor++
			}
		case "enter":
			m.chosen = m.cursor
			return m, tea.Quit
		}
	}
	return m, nil
}

func (m pickerModel) View() string {
	s := pickerTitleStyle.Render("Browse jobs: select a sector")
	s += "\n"

	labels := make([]string, 0, len(m.sectors)+1)
	labels = append(labels, fmt.Sprintf("All sectors (%d)", m.total))
	for _, c := range m.sectors {
		labels = append(labels, fmt.Sprintf("%s (%d)", c.Name, c.Jobs))
	}
	for i, label := range labels {
		if i == m.cursor {
			s += pickerSelectedStyle.Render("> "+label) + "\n"
		} else {
			s += pickerItemStyle.Render(label) + "\n"
		}
	}

	s += pickerHintStyle.Render("↑/↓/j/k navigate  enter select  q quit")
	return s
}

// selection maps the picker result to a sector filter. ok is false when the
// user quit.
func (m pickerModel) selection() (sector string, ok bool) {
	switch {
	case m.chosen < 0:
		return "", false
	case m.chosen == 0:
		return "", true
	default:
		return m.sectors[m.chosen-1].Name, true
	}
}

// RunSectorPicker shows an interactive sector selector. It returns the chosen
// sector ("" for all sectors), or ok=false if the user quit.
func RunSectorPicker(total int, sectors []store.Count) (sector string, ok bool, err error) {
	m := pickerModel{
		total:   total,
		sectors: sectors,
		chosen:  -1,
	}

	p := tea.NewProgram(m)
	result, err := p.Run()
	if err != nil {
		return "", false, err
	}

	sector, ok = result.(pickerModel).selection()
	return sector, ok, nil
}
