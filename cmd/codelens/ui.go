// # cmd/codelens/ui.go
package main

import (
	"fmt"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"codelens/internal/core/ports"
	"codelens/internal/engine/outline"
)

var (
	titleStyle = lipgloss.NewStyle().
			MarginLeft(2).
			Foreground(lipgloss.Color("#3B82F6")).
			Bold(true).
			Render

	docStyle = lipgloss.NewStyle().Margin(1, 2)

	exportedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#10B981")).
			Bold(true)

	fallbackStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FBBF24")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#64748B")).
			Italic(true)
)

type item struct {
	entry outline.Entry
}

func (i item) Title() string {
	marker := ""
	if i.entry.Exported {
		marker = exportedStyle.Render(" *")
	}
	return fmt.Sprintf("%s %s%s", i.entry.Kind, i.entry.Name, marker)
}

func (i item) Description() string {
	return fmt.Sprintf("L%d-%d  %s", i.entry.StartLine, i.entry.EndLine, i.entry.Signature)
}

func (i item) FilterValue() string {
	return i.entry.Name + " " + string(i.entry.Kind)
}

type model struct {
	list   list.Model
	report ports.OutlineReport
}

func (m model) Init() tea.Cmd {
	return nil
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" || msg.String() == "q" {
			return m, tea.Quit
		}
	case tea.WindowSizeMsg:
		h, v := docStyle.GetFrameSize()
		m.list.SetSize(msg.Width-h, msg.Height-v-3)
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m model) View() string {
	source := "syntax tree"
	if m.report.Fallback {
		source = fallbackStyle.Render("regex fallback")
	}
	status := statusStyle.Render(fmt.Sprintf("%s | %s | %d declarations | %s",
		m.report.File, m.report.Language, m.report.Count, source))

	header := fmt.Sprintf("%s\n%s\n", titleStyle("Outline Browser"), status)
	return docStyle.Render(header + "\n" + m.list.View())
}

func runOutlineUI(report ports.OutlineReport) error {
	items := make([]list.Item, 0, len(report.Outline))
	for _, e := range report.Outline {
		items = append(items, item{entry: e})
	}

	l := list.New(items, list.NewDefaultDelegate(), 0, 0)
	l.Title = "Declarations"
	l.SetShowStatusBar(false)
	l.SetFilteringEnabled(true)

	p := tea.NewProgram(model{list: l, report: report}, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
