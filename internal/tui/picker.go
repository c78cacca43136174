// Package tui provides terminal user interface components for devenv-ctl
package tui

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/devenv"
	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/health"
)

// Action represents the action to take after picker selection
type Action int

const (
	ActionNone Action = iota
	ActionShell
	ActionStatus
	ActionDestroy
	ActionQuit
)

// PickerResult holds the result of the picker
type PickerResult struct {
	Action Action
	Record *devenv.Record
}

// envItem implements list.Item for environment display
type envItem struct {
	record devenv.Record
	status health.Status
	age    string
}

func (i envItem) Title() string {
	return i.record.ID
}

func (i envItem) Description() string {
	ip := i.record.IP
	if ip == "" {
		ip = "-"
	}
	return fmt.Sprintf("%s %s | %s | %s | %s",
		statusIcon(i.status),
		i.record.ProjectID,
		ip,
		i.age,
		truncatePath(i.record.Distro, 30),
	)
}

func (i envItem) FilterValue() string {
	return i.record.ID + " " + i.record.ProjectName
}

func statusIcon(status health.Status) string {
	switch status {
	case health.StatusHealthy:
		return "✓"
	case health.StatusNotBootstrapped, health.StatusNoAddress:
		return "⚠"
	case health.StatusMissing:
		return "✗"
	default:
		return "●"
	}
}

func truncatePath(path string, maxLen int) string {
	if len(path) <= maxLen {
		return path
	}
	return "..." + path[len(path)-maxLen+3:]
}

// Styles
var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("39")).
			MarginBottom(1)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241")).
			MarginTop(1)

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)
)

// Model is the bubbletea model for the environment picker
type Model struct {
	list     list.Model
	result   PickerResult
	quitting bool
	width    int
	height   int
}

// NewPicker creates a picker over the given records.
func NewPicker(records []devenv.Record, bootstrapVersion int, now time.Time) Model {
	items := buildGroupedItems(records, bootstrapVersion, now)

	l := list.New(items, newGroupedDelegate(), 80, 20)
	l.Title = "Dev Environments"
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = titleStyle
	skipHeaders(&l, 1)

	return Model{list: l}
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.list.SetSize(msg.Width, msg.Height-4)
		return m, nil

	case tea.KeyMsg:
		if m.list.FilterState() == list.Filtering {
			break
		}

		switch msg.String() {
		case "enter":
			return m.choose(ActionShell)
		case "i":
			return m.choose(ActionStatus)
		case "d":
			return m.choose(ActionDestroy)
		case "q", "esc":
			m.result = PickerResult{Action: ActionQuit}
			m.quitting = true
			return m, tea.Quit
		}

		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		skipHeaders(&m.list, navigationDirection(msg))
		return m, cmd
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) choose(action Action) (tea.Model, tea.Cmd) {
	item, ok := m.list.SelectedItem().(envItem)
	if !ok {
		return m, nil
	}
	rec := item.record
	m.result = PickerResult{Action: action, Record: &rec}
	m.quitting = true
	return m, tea.Quit
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	help := helpStyle.Render("[enter] Shell  [i] Status  [d] Destroy  [/] Filter  [q] Quit")

	return m.list.View() + "\n" + help
}

// Result returns the picker result
func (m Model) Result() PickerResult {
	return m.result
}

// RunPicker runs the interactive environment picker
func RunPicker(records []devenv.Record, bootstrapVersion int) (PickerResult, error) {
	if len(records) == 0 {
		return PickerResult{Action: ActionQuit}, nil
	}

	m := NewPicker(records, bootstrapVersion, time.Now())
	p := tea.NewProgram(m, tea.WithAltScreen())

	finalModel, err := p.Run()
	if err != nil {
		return PickerResult{}, err
	}

	return finalModel.(Model).Result(), nil
}

// SimplePicker is a non-interactive listing used when stdout is not a terminal.
func SimplePicker(records []devenv.Record, bootstrapVersion int) string {
	var sb strings.Builder

	sb.WriteString("Dev Environments\n")
	sb.WriteString(strings.Repeat("─", 60) + "\n\n")

	if len(records) == 0 {
		sb.WriteString("No environments found.\n")
		sb.WriteString("Create one with: devenv-ctl ensure\n")
		return sb.String()
	}

	for i, rec := range records {
		status := health.GetSummary(rec, bootstrapVersion)
		sb.WriteString(fmt.Sprintf("%d. %s %s (%s)\n",
			i+1, statusIcon(status), rec.ID, rec.ProjectID))
		sb.WriteString(fmt.Sprintf("   IP: %s | Worktree: %s\n\n",
			rec.IP, truncatePath(rec.Worktree, 40)))
	}

	return sb.String()
}
