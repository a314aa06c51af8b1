package viz

import (
	"fmt"
	"math"
	"sort"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/rigidsim/internal/dynamo"
	"github.com/san-kum/rigidsim/internal/physics"
	"github.com/san-kum/rigidsim/internal/units"
	"gonum.org/v1/gonum/mat"
)

const (
	width           = 80
	height          = 24
	historyCapacity = 600
	trailCapacity   = 2000
	frameRate       = 60
)

// Stepper advances a simulation one time step at a time.
type Stepper interface {
	Step(t float64) error
	State() *dynamo.SysState
}

// Tuner is a Stepper whose controller parameters can be changed live.
type Tuner interface {
	Params() map[string]float64
	SetParam(name string, value float64)
}

// Builder returns a fresh Stepper at its initial state.
type Builder func() (Stepper, error)

type TickMsg time.Time

// nedToDisplay flips y and z so north-east-down states draw with z up.
var nedToDisplay = mat.NewDiagDense(3, []float64{1, -1, -1})

// Model contains simulation state, visualization buffers, and UI context.
type Model struct {
	build    Builder
	stepper  Stepper
	name     string
	t, dt    float64
	canvas   *Canvas
	camera   *Camera
	trail    []Vec3
	selected int
	series   []float64
	running  bool
	showHelp bool
	err      error
	// Live controller tuning, empty when the stepper is not a Tuner.
	paramKeys []string
	paramSel  int
}

// NewModel builds the first Stepper and prepares the view.
func NewModel(name string, dt float64, build Builder) (Model, error) {
	if dt <= 0 {
		return Model{}, fmt.Errorf("invalid time step: %g", dt)
	}
	s, err := build()
	if err != nil {
		return Model{}, err
	}
	m := Model{
		build:   build,
		stepper: s,
		name:    name,
		dt:      dt,
		canvas:  NewCanvas(width, height),
		camera:  NewCamera(),
		trail:   make([]Vec3, 0, trailCapacity),
		series:  make([]float64, 0, historyCapacity),
		running: true,
	}
	m.loadParams()
	return m, nil
}

func tick() tea.Cmd {
	return tea.Tick(time.Second/frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Model) Init() tea.Cmd { return tick() }

// Update handles input events and steps the simulation.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.reset()
		case "t":
			NextTheme()
		case "?":
			m.showHelp = !m.showHelp
		case "tab":
			if n := m.stepper.State().Size(); n > 0 {
				m.selected = (m.selected + 1) % n
				m.series = m.series[:0]
			}
		case "left", "h":
			m.camera.Orbit(-0.1, 0)
		case "right", "l":
			m.camera.Orbit(0.1, 0)
		case "up", "k":
			m.camera.Orbit(0, 0.1)
		case "down", "j":
			m.camera.Orbit(0, -0.1)
		case "+", "=":
			m.camera.ZoomIn()
		case "-", "_":
			m.camera.ZoomOut()
		case "p":
			if len(m.paramKeys) > 0 {
				m.paramSel = (m.paramSel + 1) % len(m.paramKeys)
			}
		case "[":
			m.nudgeParam(-1)
		case "]":
			m.nudgeParam(1)
		}
	case TickMsg:
		if m.running && m.err == nil {
			m.advance(max(1, int(math.Round(1.0/(frameRate*m.dt)))))
		}
		return m, tick()
	}
	return m, nil
}

// advance runs n model steps and records the trail and the plotted series.
func (m *Model) advance(n int) {
	for i := 0; i < n; i++ {
		if err := m.stepper.Step(m.t); err != nil {
			m.err = err
			m.running = false
			return
		}
		m.t += m.dt
		if !m.stepper.State().IsValid() {
			m.err = fmt.Errorf("state diverged at t=%.3f", m.t)
			m.running = false
			return
		}
	}

	state := m.stepper.State()
	if p, ok := position(state); ok {
		m.trail = append(m.trail, p)
		if len(m.trail) > trailCapacity {
			m.trail = m.trail[1:]
		}
	}
	if m.selected < state.Size() {
		m.series = append(m.series, state.At(m.selected))
		if len(m.series) > historyCapacity {
			m.series = m.series[1:]
		}
	}
}

func (m *Model) loadParams() {
	m.paramKeys, m.paramSel = nil, 0
	tuner, ok := m.stepper.(Tuner)
	if !ok {
		return
	}
	for k := range tuner.Params() {
		m.paramKeys = append(m.paramKeys, k)
	}
	sort.Strings(m.paramKeys)
}

// nudgeParam moves the selected parameter by 10% in direction dir, or by
// 0.1 when it is zero.
func (m *Model) nudgeParam(dir float64) {
	tuner, ok := m.stepper.(Tuner)
	if !ok || len(m.paramKeys) == 0 {
		return
	}
	name := m.paramKeys[m.paramSel]
	v := tuner.Params()[name]
	step := 0.1 * math.Abs(v)
	if step == 0 {
		step = 0.1
	}
	tuner.SetParam(name, v+dir*step)
}

// Param returns the current value of a live parameter.
func (m Model) Param(name string) (float64, bool) {
	tuner, ok := m.stepper.(Tuner)
	if !ok {
		return 0, false
	}
	v, ok := tuner.Params()[name]
	return v, ok
}

func (m *Model) reset() {
	s, err := m.build()
	if err != nil {
		m.err = err
		return
	}
	m.stepper = s
	m.t = 0
	m.err = nil
	m.trail = m.trail[:0]
	m.series = m.series[:0]
	m.running = true
	m.loadParams()
}

// Time returns the simulated time.
func (m Model) Time() float64 { return m.t }

// Running reports whether the simulation advances on each tick.
func (m Model) Running() bool { return m.running }

// Err returns the error that stopped the simulation, if any.
func (m Model) Err() error { return m.err }

// position returns the display-frame position of a planar or NED state.
func position(s *dynamo.SysState) (Vec3, bool) {
	if x, err := s.Get("X"); err == nil {
		y, err := s.Get("Y")
		if err != nil {
			return Vec3{}, false
		}
		return Vec3{X: x, Y: y}, true
	}
	var p [3]float64
	for i, name := range []string{"x", "y", "z"} {
		v, err := s.Get(name)
		if err != nil {
			return Vec3{}, false
		}
		p[i] = v
	}
	return Vec3{p[0], -p[1], -p[2]}, true
}

func isAttitudeState(s *dynamo.SysState) bool {
	for _, name := range []string{"phi", "theta", "psi"} {
		if _, err := s.Get(name); err != nil {
			return false
		}
	}
	return true
}

func (m *Model) draw() {
	m.canvas.Clear()
	state := m.stepper.State()
	switch {
	case isAttitudeState(state):
		m.drawQuadrotor(state)
	default:
		m.drawPlanar(state)
	}
}

// drawPlanar draws the trail and a heading arrow in a viewport that follows
// the whole trail.
func (m *Model) drawPlanar(state *dynamo.SysState) {
	if len(m.trail) == 0 {
		return
	}
	xs := make([]float64, len(m.trail))
	ys := make([]float64, len(m.trail))
	for i, p := range m.trail {
		xs[i], ys[i] = p.X, p.Y
	}
	view := FitViewport(xs, ys, 0.1)
	m.canvas.Path(view, xs, ys)

	theta, err := state.Get("Theta")
	if err != nil {
		return
	}
	head := m.trail[len(m.trail)-1]
	size := 0.05 * math.Max(view.MaxX-view.MinX, view.MaxY-view.MinY)
	tipX, tipY := head.X+size*math.Cos(theta), head.Y+size*math.Sin(theta)
	m.canvas.Line(view, head.X, head.Y, tipX, tipY)
	for _, side := range []float64{-1, 1} {
		back := theta + math.Pi - side*math.Pi/6
		m.canvas.Line(view, tipX, tipY, tipX+0.5*size*math.Cos(back), tipY+0.5*size*math.Sin(back))
	}
}

func (m *Model) drawQuadrotor(state *dynamo.SysState) {
	pos, ok := position(state)
	if !ok {
		return
	}
	phi, _ := state.Get("phi")
	theta, _ := state.Get("theta")
	psi, _ := state.Get("psi")

	body := mat.NewDense(3, 3, nil)
	physics.EulerRotation(body, phi, theta, psi)
	var R mat.Dense
	R.Mul(nedToDisplay, body)

	m.camera.Target = pos
	scene := GroundGrid(math.Round(pos.X), math.Round(pos.Y), 2, 0.5)
	scene.Append(CreateAxesWireframe(0.5))
	for _, p := range m.trail {
		scene.AddPoint(p)
	}
	scene.Append(QuadrotorWireframe(pos, &R, 0.25))
	Render3D(m.canvas, scene, m.camera)
}

// View renders the TUI interface.
func (m Model) View() string {
	m.draw()
	theme := CurrentTheme
	canvasStyle := lipgloss.NewStyle().Padding(1, 2).Foreground(theme.Secondary)
	statsStyle := lipgloss.NewStyle().Border(lipgloss.NormalBorder(), false, false, false, true).
		BorderForeground(theme.Muted).Padding(1, 2).Width(45)
	headerStyle := lipgloss.NewStyle().Foreground(theme.Primary).Bold(true).MarginBottom(1)
	labelStyle := lipgloss.NewStyle().Foreground(theme.Muted).Width(12)
	valueStyle := lipgloss.NewStyle().Foreground(theme.Text)
	graphStyle := lipgloss.NewStyle().Foreground(theme.Accent).Padding(1, 0)
	helpStyle := lipgloss.NewStyle().Foreground(theme.Muted).MarginTop(1)

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.name)) + "\n")
	status := "RUNNING"
	switch {
	case m.err != nil:
		status = lipgloss.NewStyle().Foreground(theme.Error).Render("STOPPED: " + m.err.Error())
	case !m.running:
		status = "PAUSED"
	}
	s.WriteString(status + "\n\n")

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs", m.t)) + "\n")
	state := m.stepper.State()
	for i, name := range state.Names() {
		label := name
		if i == m.selected {
			label = "> " + name
		}
		value := fmt.Sprintf("%+.4f", state.At(i))
		if physics.IsAngle(name) {
			value += fmt.Sprintf(" (%+.1f°)", units.RadToDegrees(state.At(i)))
		}
		s.WriteString(labelStyle.Render(label) + valueStyle.Render(value) + "\n")
	}

	if len(m.series) > 1 && m.selected < state.Size() {
		chart := asciigraph.Plot(m.series, asciigraph.Height(4), asciigraph.Width(30),
			asciigraph.Caption(state.Names()[m.selected]))
		s.WriteString(graphStyle.Render(chart) + "\n")
	}

	help := "SP:Pause R:Reset Q:Quit\nT:Theme Tab:Plot ?:Help"
	if len(m.paramKeys) > 0 {
		name := m.paramKeys[m.paramSel]
		v, _ := m.Param(name)
		s.WriteString("\n" + labelStyle.Render("Tune") + valueStyle.Render(fmt.Sprintf("%s = %.4g", name, v)) + "\n")
		help += "\nP:Param [/]:Tune"
	}
	s.WriteString(helpStyle.Render(help))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasStyle.Render(m.canvas.String()), statsStyle.Render(s.String()))
	if m.showHelp {
		return helpText + "\n\n" + mainView
	}
	return mainView
}

const helpText = `
╔══════════════════════════════════════╗
║           KEYBOARD SHORTCUTS         ║
╠══════════════════════════════════════╣
║  Space    - Pause/Resume simulation  ║
║  R        - Reset simulation         ║
║  Q        - Quit                     ║
║  Tab      - Cycle plotted variable   ║
║  Arrows   - Orbit camera (3D)        ║
║  +/-      - Zoom (3D)                ║
║  T        - Cycle themes             ║
║  P        - Select controller param  ║
║  [ / ]    - Decrease/increase param  ║
║  ?        - Toggle this help         ║
╚══════════════════════════════════════╝`
