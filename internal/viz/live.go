package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/go-gl/mathgl/mgl32"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/jarsim/internal/dynamo"
	"github.com/san-kum/jarsim/internal/jar"
	"github.com/san-kum/jarsim/internal/shapes"
	"github.com/san-kum/jarsim/internal/tilt"
)

const (
	canvasWidth     = 60
	canvasHeight    = 24
	historyCapacity = 300
	frameInterval   = time.Second / 60
	maxFrameDt      = 0.25
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(frameInterval, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// Model is the terminal live view of one jar.
type Model struct {
	jar      *jar.Jar
	name     string
	tilt     *tilt.State
	canvas   *Canvas
	camera   *Camera
	theme    Theme
	running  bool
	active   bool
	showHelp bool
	last     time.Time
	sample   dynamo.Sample
	live     []float64
	energy   []float64
	sleeping []float64
	uploads  int
}

func NewModel(j *jar.Jar, name string) Model {
	c := j.Container()
	return Model{
		jar:     j,
		name:    name,
		tilt:    &tilt.State{},
		canvas:  NewCanvas(canvasWidth, canvasHeight),
		camera:  NewCamera(mgl64.Vec3{0, c.YOffset, 0}),
		theme:   Themes[0],
		running: true,
		active:  true,
		live:    make([]float64, 0, historyCapacity),
		energy:  make([]float64, 0, historyCapacity),
	}
}

func (m Model) Init() tea.Cmd { return tick() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			m.jar.Close()
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "t":
			m.jar.TriggerTilt(m.tilt)
		case "r":
			m.jar.RequestReset()
		case "a":
			m.active = !m.active
		case "c":
			m.theme = nextTheme(m.theme.Name)
		case "left", "h":
			m.camera.Orbit(-0.15, 0)
		case "right", "l":
			m.camera.Orbit(0.15, 0)
		case "up", "k":
			m.camera.Orbit(0, 0.1)
		case "down", "j":
			m.camera.Orbit(0, -0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "?":
			m.showHelp = !m.showHelp
		}
	case tea.WindowSizeMsg:
		w := min(max(msg.Width-50, 20), 120)
		h := min(max(msg.Height-4, 10), 60)
		m.canvas.Resize(w, h)
	case TickMsg:
		now := time.Time(msg)
		dt := frameInterval.Seconds()
		if !m.last.IsZero() {
			dt = math.Min(now.Sub(m.last).Seconds(), maxFrameDt)
		}
		m.last = now
		if m.running {
			m.step(dt)
		}
		return m, tick()
	}
	return m, nil
}

// step advances the jar one frame and records the history series.
func (m *Model) step(dt float64) {
	m.sample = m.jar.Update(dt, jar.Input{Active: m.active, Tilt: m.tilt})
	m.uploads = m.jar.Flush(nil)
	m.live = pushHistory(m.live, float64(m.sample.Live))
	m.energy = pushHistory(m.energy, m.sample.KineticEnergy)
	frac := 0.0
	if m.sample.Live > 0 {
		frac = float64(m.sample.Sleeping) / float64(m.sample.Live)
	}
	m.sleeping = pushHistory(m.sleeping, frac)
}

func pushHistory(h []float64, v float64) []float64 {
	if len(h) >= historyCapacity {
		copy(h, h[1:])
		h = h[:len(h)-1]
	}
	return append(h, v)
}

// draw renders the glass and every visible particle onto the canvas.
func (m *Model) draw() {
	m.canvas.Clear()
	c := m.jar.Container()
	wf := JarWireframe(c, c.Segments, 6)
	wf.Transform(m.jar.Mesh().Rotation, mgl64.Vec3{})
	Render3D(m.canvas, wf, m.camera)

	sw, sh := m.canvas.Dots()
	eye := m.camera.Eye()
	m.jar.Positions(func(_ shapes.Key, _ uint64, p mgl32.Vec3) {
		pos := mgl64.Vec3{float64(p[0]), float64(p[1]), float64(p[2])}
		x, y, _, ok := m.camera.Project(pos, sw, sh)
		if !ok {
			return
		}
		// nearer half of the jar gets bigger dots
		r := 0
		if eye.Sub(pos).Len() < m.camera.Distance {
			r = 1
		}
		m.canvas.Dot(x, y, r)
	})
}

// Canvas draws the current frame and returns the canvas.
func (m *Model) Canvas() *Canvas {
	m.draw()
	return m.canvas
}

func (m Model) View() string {
	m.draw()
	th := m.theme
	canvasView := lipgloss.NewStyle().Foreground(th.Glass).Padding(1, 2).Render(m.canvas.String())

	var s strings.Builder
	title := strings.ToUpper(m.name)
	if title == "" {
		title = "JAR"
	}
	s.WriteString(headerStyle.Foreground(th.Accent).Render(title) + "\n")

	status := "RUNNING"
	color := th.Accent
	switch {
	case m.jar.Closed():
		status, color = "CLOSED", th.Alert
	case !m.running:
		status, color = "PAUSED", th.Alert
	case m.sample.Tilting:
		status = "TILTING"
	}
	s.WriteString(lipgloss.NewStyle().Bold(true).Foreground(color).Render(status) + "\n\n")

	maxObjects := m.jar.Config().Stream.MaxObjects
	fill := 0.0
	if maxObjects > 0 {
		fill = float64(m.sample.Live) / float64(maxObjects)
	}
	s.WriteString(row("Time", fmt.Sprintf("%.2fs", m.sample.Time), th.Fill))
	s.WriteString(row("Live", fmt.Sprintf("%d / %d", m.sample.Live, maxObjects), th.Fill))
	s.WriteString(labelStyle.Render("") + ProgressBar(fill, 20) + "\n")
	s.WriteString(row("Sleeping", fmt.Sprintf("%d", m.sample.Sleeping), th.Fill))
	s.WriteString(row("Contacts", fmt.Sprintf("%d", m.sample.Contacts), th.Fill))
	s.WriteString(row("Sub-steps", fmt.Sprintf("%d", m.sample.SubSteps), th.Fill))
	s.WriteString(row("Energy", fmt.Sprintf("%.4f", m.sample.KineticEnergy), th.Fill))
	s.WriteString(row("Gravity", fmt.Sprintf("%+.3f %+.3f", m.sample.GravityX, m.sample.GravityY), th.Fill))
	s.WriteString(row("Uploads", fmt.Sprintf("%d", m.uploads), th.Fill))
	s.WriteString(row("Active", fmt.Sprintf("%t", m.active), th.Fill))
	s.WriteString(labelStyle.Render("Rest") + lipgloss.NewStyle().Foreground(th.Muted).Render(Sparkline(m.sleeping, 20)) + "\n")

	if len(m.live) > 1 {
		chart := asciigraph.Plot(m.live,
			asciigraph.Height(5),
			asciigraph.Width(30),
			asciigraph.LowerBound(0),
			asciigraph.Caption("live particles"))
		s.WriteString("\n" + lipgloss.NewStyle().Foreground(th.Accent).Render(chart) + "\n")
	}

	s.WriteString(keyHintStyle.Foreground(th.Muted).Render("T:Tilt R:Reset SP:Pause A:Active\n←→↑↓:Orbit +/-:Zoom C:Theme ?:Help Q:Quit"))
	stats := panelStyle.BorderForeground(th.Muted).Render(s.String())
	body := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, stats)

	if m.showHelp {
		return helpText + "\n" + body
	}
	return body
}

const helpText = `
  t        tilt the jar
  r        reset (clears every particle next frame)
  space    pause or resume
  a        toggle the idle sway
  arrows   orbit the camera
  + / -    zoom
  c        cycle color theme
  q        quit
`

// Run starts the live view on j and blocks until the user quits.
func Run(j *jar.Jar, name string) error {
	_, err := tea.NewProgram(NewModel(j, name), tea.WithAltScreen()).Run()
	return err
}
