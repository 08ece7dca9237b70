// ABOUTME: Terminal User Interface using bubbletea framework
// ABOUTME: Read-only browser for the local webhook delivery journal
package tui

import (
	"fmt"

	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/avriosolutions/gehn/db"
)

const deliveryPageSize = 100

// Model is the main bubbletea model.
type Model struct {
	journal *db.Journal
	table   table.Model
	err     error
	width   int
	height  int
}

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("170")).
			MarginBottom(1)

	baseStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.NormalBorder()).
			BorderForeground(lipgloss.Color("240"))

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))
)

// NewModel creates the journal browser model.
func NewModel(journal *db.Journal) Model {
	columns := []table.Column{
		{Title: "Received", Width: 19},
		{Title: "Resource", Width: 12},
		{Title: "Key", Width: 24},
		{Title: "Action", Width: 10},
		{Title: "Status", Width: 10},
		{Title: "Error", Width: 40},
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(20),
	)

	m := Model{journal: journal, table: t, width: 80, height: 24}
	m.reload()
	return m
}

func (m *Model) reload() {
	deliveries, err := m.journal.ListDeliveries(deliveryPageSize)
	if err != nil {
		m.err = err
		return
	}
	rows := make([]table.Row, 0, len(deliveries))
	for _, d := range deliveries {
		rows = append(rows, table.Row{
			d.ReceivedAt.Format("2006-01-02 15:04:05"),
			d.ResourceType,
			d.ResourceKey,
			d.ActionType,
			d.Status,
			d.Error,
		})
	}
	m.table.SetRows(rows)
	m.err = nil
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc", "ctrl+c":
			return m, tea.Quit
		case "r":
			m.reload()
			return m, nil
		}
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table.SetHeight(msg.Height - 6)
		return m, nil
	}

	var cmd tea.Cmd
	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if m.err != nil {
		return titleStyle.Render("Webhook Deliveries") + "\n" +
			fmt.Sprintf("error loading journal: %v", m.err) + "\n" +
			statusStyle.Render("q: quit  r: retry")
	}
	return titleStyle.Render("Webhook Deliveries") + "\n" +
		baseStyle.Render(m.table.View()) + "\n" +
		statusStyle.Render("q: quit  r: reload  ↑/↓: navigate")
}

// Run starts the journal browser.
func Run(journal *db.Journal) error {
	p := tea.NewProgram(NewModel(journal), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
