package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/jarsim/internal/config"
	"github.com/san-kum/jarsim/internal/jar"
)

func newTestModel(t *testing.T) Model {
	t.Helper()
	j, err := jar.New(config.DefaultConfig(), jar.WithSeed(1))
	if err != nil {
		t.Fatalf("jar: %v", err)
	}
	return NewModel(j, "test")
}

func key(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func send(m Model, msg tea.Msg) (Model, tea.Cmd) {
	next, cmd := m.Update(msg)
	return next.(Model), cmd
}

func TestLiveModelTicks(t *testing.T) {
	m := newTestModel(t)
	start := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		var cmd tea.Cmd
		m, cmd = send(m, TickMsg(start.Add(time.Duration(i)*100*time.Millisecond)))
		if cmd == nil {
			t.Fatal("expected next tick scheduled")
		}
	}
	if m.sample.Frame != 10 {
		t.Errorf("expected 10 frames, got %d", m.sample.Frame)
	}
	if m.sample.Live == 0 {
		t.Error("expected particles after 10 ticks")
	}
	if len(m.live) != 10 {
		t.Errorf("expected 10 history points, got %d", len(m.live))
	}
	if !strings.Contains(m.View(), "Live") {
		t.Error("expected stats panel in view")
	}
}

func TestLiveModelPause(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, key(" "))
	if m.running {
		t.Fatal("expected paused")
	}
	m, _ = send(m, TickMsg(time.Unix(1, 0)))
	if m.sample.Frame != 0 {
		t.Errorf("expected no frame while paused, got %d", m.sample.Frame)
	}
	if !strings.Contains(m.View(), "PAUSED") {
		t.Error("expected paused status")
	}
}

func TestLiveModelKeys(t *testing.T) {
	m := newTestModel(t)

	m, _ = send(m, key("t"))
	if !m.tilt.Tilting {
		t.Error("expected tilt triggered")
	}

	m, _ = send(m, key("a"))
	if m.active {
		t.Error("expected active toggled off")
	}

	yaw := m.camera.Yaw
	m, _ = send(m, tea.KeyMsg{Type: tea.KeyRight})
	if m.camera.Yaw <= yaw {
		t.Error("expected camera to orbit right")
	}

	name := m.theme.Name
	m, _ = send(m, key("c"))
	if m.theme.Name == name {
		t.Error("expected theme to change")
	}

	m, cmd := send(m, key("q"))
	if cmd == nil {
		t.Error("expected quit command")
	}
	if !m.jar.Closed() {
		t.Error("expected jar closed on quit")
	}
}

func TestLiveModelReset(t *testing.T) {
	m := newTestModel(t)
	start := time.Unix(0, 0)
	for i := 0; i < 10; i++ {
		m, _ = send(m, TickMsg(start.Add(time.Duration(i)*100*time.Millisecond)))
	}
	if m.sample.Live == 0 {
		t.Fatal("expected particles before reset")
	}
	m, _ = send(m, key("r"))
	m, _ = send(m, TickMsg(start.Add(time.Second)))
	if m.jar.Live() > 1 {
		t.Errorf("expected jar emptied by reset, got %d live", m.jar.Live())
	}
}

func TestLiveModelResize(t *testing.T) {
	m := newTestModel(t)
	m, _ = send(m, tea.WindowSizeMsg{Width: 150, Height: 40})
	if m.canvas.Width != 100 || m.canvas.Height != 36 {
		t.Errorf("expected 100x36 canvas, got %dx%d", m.canvas.Width, m.canvas.Height)
	}
}

func TestPickerOpensModel(t *testing.T) {
	opened := ""
	p := NewPicker([]string{"calm", "dense"}, func(string) string { return "" }, func(name string) (*jar.Jar, error) {
		opened = name
		return jar.New(config.DefaultConfig())
	})
	p.Update(tea.KeyMsg{Type: tea.KeyDown})
	_, cmd := p.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if opened != "dense" {
		t.Fatalf("expected dense opened, got %q", opened)
	}
	if cmd == nil || p.live == nil {
		t.Fatal("expected live model started")
	}
	if !strings.Contains(p.View(), "DENSE") {
		t.Error("expected live view titled DENSE")
	}
}
