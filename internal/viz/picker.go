package viz

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/jarsim/internal/jar"
)

// Opener builds a jar for a preset name.
type Opener func(name string) (*jar.Jar, error)

// Picker lists presets and hands the chosen one to a live Model.
type Picker struct {
	names    []string
	describe func(string) string
	open     Opener
	cursor   int
	err      error
	live     *Model
}

func NewPicker(names []string, describe func(string) string, open Opener) *Picker {
	return &Picker{names: names, describe: describe, open: open}
}

func (p *Picker) Init() tea.Cmd { return nil }

func (p *Picker) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	if p.live != nil {
		next, cmd := p.live.Update(msg)
		lm := next.(Model)
		p.live = &lm
		return p, cmd
	}

	key, ok := msg.(tea.KeyMsg)
	if !ok {
		return p, nil
	}
	switch key.String() {
	case "q", "ctrl+c", "esc":
		return p, tea.Quit
	case "up", "k":
		if p.cursor > 0 {
			p.cursor--
		}
	case "down", "j":
		if p.cursor < len(p.names)-1 {
			p.cursor++
		}
	case "enter", " ":
		if len(p.names) == 0 {
			return p, nil
		}
		name := p.names[p.cursor]
		j, err := p.open(name)
		if err != nil {
			p.err = err
			return p, nil
		}
		m := NewModel(j, name)
		p.live = &m
		return p, m.Init()
	}
	return p, nil
}

func (p *Picker) View() string {
	if p.live != nil {
		return p.live.View()
	}
	th := Themes[0]
	var s strings.Builder
	s.WriteString(headerStyle.Foreground(th.Accent).Render("JARSIM") + "\n")
	for i, name := range p.names {
		line := fmt.Sprintf("%-8s %s", name, p.describe(name))
		if i == p.cursor {
			s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(th.Fill).Render("> "+line) + "\n")
		} else {
			s.WriteString("  " + lipgloss.NewStyle().Foreground(th.Muted).Render(line) + "\n")
		}
	}
	if p.err != nil {
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(th.Alert).Render(p.err.Error()) + "\n")
	}
	s.WriteString(keyHintStyle.Render("↑↓:Select Enter:Open Q:Quit"))
	return panelStyle.Render(s.String())
}

// RunMenu starts on the preset menu and blocks until the user quits.
func RunMenu(names []string, describe func(string) string, open Opener) error {
	p := NewPicker(names, describe, open)
	_, err := tea.NewProgram(p, tea.WithAltScreen()).Run()
	if p.live != nil {
		p.live.jar.Close()
	}
	return err
}
