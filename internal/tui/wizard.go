package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/firefly-engineering/firefly-forage/packages/devenv-ctl/internal/config"
)

// overrideField identifies an input in the overrides form.
type overrideField int

const (
	fieldDistro overrideField = iota
	fieldMachineName
	fieldUser
	fieldInternalPort
	fieldCount
)

var fieldLabels = [fieldCount]string{
	fieldDistro:       "Distro",
	fieldMachineName:  "Machine name",
	fieldUser:         "User",
	fieldInternalPort: "Internal port",
}

// wizardModel collects per-call ensure overrides. Blank fields keep the
// configured value.
type wizardModel struct {
	inputs   [fieldCount]textinput.Model
	cursor   overrideField
	err      string
	done     bool
	canceled bool
	result   *config.Config
}

// wizardStyles
var (
	wizardTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39")).
				MarginBottom(1)

	wizardLabelStyle = lipgloss.NewStyle().
				Bold(true)

	wizardActiveLabelStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("39"))

	wizardDimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	wizardErrorStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("196"))
)

func newWizardModel(current *config.Config) wizardModel {
	var w wizardModel
	placeholders := [fieldCount]string{
		fieldDistro:       config.DefaultDistro,
		fieldMachineName:  "opencode-<project>",
		fieldUser:         "root",
		fieldInternalPort: "3000",
	}
	for i := range w.inputs {
		ti := textinput.New()
		ti.Placeholder = placeholders[i]
		ti.CharLimit = 128
		ti.Width = 50
		w.inputs[i] = ti
	}
	if current != nil {
		w.inputs[fieldDistro].SetValue(current.Distro)
		w.inputs[fieldMachineName].SetValue(current.MachineName)
		w.inputs[fieldUser].SetValue(current.User)
		if current.InternalPort > 0 {
			w.inputs[fieldInternalPort].SetValue(strconv.Itoa(current.InternalPort))
		}
	}
	w.inputs[fieldDistro].Focus()
	return w
}

func (w wizardModel) Init() tea.Cmd {
	return textinput.Blink
}

func (w wizardModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		switch keyMsg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			w.canceled = true
			w.done = true
			return w, tea.Quit
		case tea.KeyUp, tea.KeyShiftTab:
			cmd := w.focus(w.cursor - 1)
			return w, cmd
		case tea.KeyDown, tea.KeyTab:
			cmd := w.focus(w.cursor + 1)
			return w, cmd
		case tea.KeyEnter:
			if w.cursor < fieldCount-1 {
				cmd := w.focus(w.cursor + 1)
				return w, cmd
			}
			cfg, err := w.overrides()
			if err != nil {
				w.err = err.Error()
				return w, nil
			}
			w.result = cfg
			w.done = true
			return w, tea.Quit
		}
	}

	var cmd tea.Cmd
	w.inputs[w.cursor], cmd = w.inputs[w.cursor].Update(msg)
	return w, cmd
}

func (w *wizardModel) focus(field overrideField) tea.Cmd {
	if field < 0 {
		field = fieldCount - 1
	}
	if field >= fieldCount {
		field = 0
	}
	w.inputs[w.cursor].Blur()
	w.cursor = field
	return w.inputs[field].Focus()
}

// overrides builds the override config from the form values.
func (w wizardModel) overrides() (*config.Config, error) {
	cfg := &config.Config{
		Distro:      strings.TrimSpace(w.inputs[fieldDistro].Value()),
		MachineName: strings.TrimSpace(w.inputs[fieldMachineName].Value()),
		User:        strings.TrimSpace(w.inputs[fieldUser].Value()),
	}
	if raw := strings.TrimSpace(w.inputs[fieldInternalPort].Value()); raw != "" {
		port, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("internal port must be a number")
		}
		cfg.InternalPort = port
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (w wizardModel) View() string {
	if w.done {
		return ""
	}

	var b strings.Builder
	b.WriteString(wizardTitleStyle.Render("Ensure Dev Environment"))
	b.WriteString("\n")
	for i := range w.inputs {
		label := wizardLabelStyle
		if overrideField(i) == w.cursor {
			label = wizardActiveLabelStyle
		}
		b.WriteString(label.Render(fmt.Sprintf("%-14s", fieldLabels[i])))
		b.WriteString(" ")
		b.WriteString(w.inputs[i].View())
		b.WriteString("\n")
	}
	if w.err != "" {
		b.WriteString("\n")
		b.WriteString(wizardErrorStyle.Render(w.err))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(wizardDimStyle.Render("Tab/Enter to move, Enter on the last field to ensure, Esc to cancel."))
	return b.String()
}

// RunOverrides prompts for ensure overrides, prefilled from current. A nil
// config with nil error means the user canceled.
func RunOverrides(current *config.Config) (*config.Config, error) {
	p := tea.NewProgram(newWizardModel(current))
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	w := finalModel.(wizardModel)
	if w.canceled {
		return nil, nil
	}
	return w.result, nil
}
