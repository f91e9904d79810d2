package main

import (
	"fmt"
	"strconv"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/dustin/go-humanize"

	"github.com/NimbleMarkets/ntcharts/canvas/runes"
	"github.com/NimbleMarkets/ntcharts/linechart/streamlinechart"

	"github.com/gwillem/portstest/pkg/input"
	"github.com/gwillem/portstest/pkg/robot"
	"github.com/gwillem/portstest/pkg/telemetry"
	"github.com/gwillem/portstest/pkg/teleop"
)

const (
	headerHeight = 2 // title + blank line
	legendHeight = 2 // legend row + blank
	footerHeight = 7 // log box height
	maxLogs      = 5 // number of log messages to show
	borderSize   = 2 // chart border
	tableWidth   = 44
)

// Series colors, assigned to bounded motors in config order.
var palette = []string{"196", "208", "226", "46", "51", "201", "99", "231"}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12"))
	chartStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(lipgloss.Color("240"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errorStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("9"))
)

type runModel struct {
	ctrl    *teleop.Controller
	gate    *teleop.Switch
	keys    *input.Keyboard
	frames  *telemetry.Buffer
	done    <-chan error
	motors  []string // bounded motors, charted
	colors  map[string]string
	chart   *streamlinechart.Model
	lines   map[string]string // latest value per caption
	order   []string          // captions in first-seen order
	width   int
	height  int
	logs    []string
	last    map[string]float64
	stopped bool
	err     error
}

// Messages from the controller
type frameMsg telemetry.Frame
type logMsg string
type doneMsg struct{ err error }

func waitForFrame(frames *telemetry.Buffer) tea.Cmd {
	return func() tea.Msg {
		return frameMsg(<-frames.Frames())
	}
}

func waitForLog(ctrl *teleop.Controller) tea.Cmd {
	return func() tea.Msg {
		return logMsg(<-ctrl.Logs())
	}
}

func waitForDone(done <-chan error) tea.Cmd {
	return func() tea.Msg {
		return doneMsg{<-done}
	}
}

func newRunModel(ctrl *teleop.Controller, cfg *robot.Config, gate *teleop.Switch, keys *input.Keyboard, frames *telemetry.Buffer, done <-chan error) runModel {
	motors := cfg.BoundedMotors()
	reg, _ := cfg.Registry()

	// Y range covers every motor's bounds plus a margin for overshoot
	lo, hi := 0.0, 1.0
	for _, name := range motors {
		if b, err := reg.Motor(name); err == nil {
			lo = min(lo, float64(b.Lower), float64(b.Upper))
			hi = max(hi, float64(b.Lower), float64(b.Upper))
		}
	}
	margin := (hi - lo) * 0.1
	chart := streamlinechart.New(80, 20,
		streamlinechart.WithYRange(lo-margin, hi+margin),
	)

	colors := make(map[string]string, len(motors))
	for i, name := range motors {
		color := palette[i%len(palette)]
		colors[name] = color
		style := lipgloss.NewStyle().Foreground(lipgloss.Color(color))
		chart.SetDataSetStyles(name, runes.ThinLineStyle, style)
	}

	return runModel{
		ctrl:   ctrl,
		gate:   gate,
		keys:   keys,
		frames: frames,
		done:   done,
		motors: motors,
		colors: colors,
		chart:  &chart,
		lines:  make(map[string]string),
	}
}

func (m *runModel) addLog(msg string) {
	m.logs = append(m.logs, msg)
	if len(m.logs) > maxLogs {
		m.logs = m.logs[len(m.logs)-maxLogs:]
	}
}

// chartSize calculates the size of the chart based on terminal dimensions
func (m *runModel) chartSize() (width, height int) {
	if m.width == 0 || m.height == 0 {
		return 80, 20 // default size before we know terminal size
	}
	width = m.width - tableWidth - borderSize - 2
	if width < 40 {
		width = 40
	}
	height = m.height - headerHeight - legendHeight - footerHeight - borderSize
	if height < 10 {
		height = 10
	}
	return width, height
}

// push plots positions from f. The chart freezes while nothing moves.
func (m *runModel) push(f telemetry.Frame) {
	positions := make(map[string]float64, len(m.motors))
	for _, name := range m.motors {
		v, ok := f.Get("Current " + name + " position")
		if !ok {
			continue
		}
		pos, err := strconv.ParseFloat(v, 64)
		if err != nil {
			continue
		}
		positions[name] = pos
	}
	if len(positions) == 0 {
		return
	}

	moved := m.last == nil
	for name, pos := range positions {
		if last, ok := m.last[name]; !ok || last != pos {
			moved = true
		}
	}
	if !moved {
		return
	}
	for name, pos := range positions {
		m.chart.PushDataSet(name, pos)
	}
	m.chart.DrawAll()
	m.last = positions
}

func (m runModel) Init() tea.Cmd {
	return tea.Batch(
		waitForFrame(m.frames),
		waitForLog(m.ctrl),
		waitForDone(m.done),
	)
}

func (m runModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		w, h := m.chartSize()
		m.chart.Resize(w, h)
		return m, nil

	case tea.KeyMsg:
		if m.stopped {
			return m, tea.Quit
		}
		switch msg.String() {
		case "s", "enter":
			m.gate.Start()
		case "x":
			m.keys.PressLow(input.AllGroups)
		case "y":
			m.keys.PressHigh(input.AllGroups)
		case "q", "ctrl+c":
			// The session exits on its next tick; doneMsg quits
			m.gate.Stop()
		}
		return m, nil

	case frameMsg:
		f := telemetry.Frame(msg)
		for _, l := range f.Lines {
			if _, ok := m.lines[l.Caption]; !ok {
				m.order = append(m.order, l.Caption)
			}
			m.lines[l.Caption] = l.Value
		}
		m.push(f)
		return m, waitForFrame(m.frames)

	case logMsg:
		m.addLog(string(msg))
		return m, waitForLog(m.ctrl)

	case doneMsg:
		m.stopped = true
		m.err = msg.err
		if msg.err == nil {
			return m, tea.Quit
		}
		m.addLog(errorStyle.Render("Session aborted: " + msg.err.Error()))
		return m, nil
	}

	return m, nil
}

func (m runModel) View() string {
	var sb strings.Builder

	// Header
	sb.WriteString(titleStyle.Render("Port test"))
	sb.WriteString(fmt.Sprintf(" - %d Hz - %s", m.ctrl.Hz(), groupNames(m.ctrl.Groups())))
	sb.WriteString(statusStyle.Render(fmt.Sprintf("  %s ticks  %s", humanize.Comma(int64(m.ctrl.Ticks())), m.state())))
	sb.WriteString("\n\n")

	// Chart next to the telemetry table
	body := lipgloss.JoinHorizontal(lipgloss.Top,
		chartStyle.Render(m.chart.View()),
		" ",
		m.renderTable(),
	)
	sb.WriteString(body)
	sb.WriteString("\n")

	sb.WriteString(m.renderLegend())
	sb.WriteString("\n")

	// Log box
	logStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("240")).
		Width(max(m.width-4, 20))

	var logLines string
	if len(m.logs) == 0 {
		logLines = statusStyle.Render(m.help())
	} else {
		logLines = strings.Join(m.logs, "\n")
	}
	sb.WriteString(logStyle.Render(logLines))
	sb.WriteString("\n")

	return sb.String()
}

func (m runModel) state() string {
	switch {
	case m.stopped:
		return "stopped, press any key to exit"
	case m.gate.StopRequested():
		return "stopping"
	case m.gate.Started():
		return "running"
	default:
		return "waiting for start"
	}
}

func (m runModel) help() string {
	if !m.gate.Started() {
		return "Press 's' to start, 'q' to quit"
	}
	return "'x' low trigger, 'y' high trigger, 'q' to stop"
}

func (m runModel) renderTable() string {
	rows := make([][]string, 0, len(m.order))
	for _, caption := range m.order {
		rows = append(rows, []string{caption, m.lines[caption]})
	}

	captionStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("14")).Padding(0, 1)
	valueStyle := lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Padding(0, 1)
	headerStyle := lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("12")).Padding(0, 1)

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(dimStyle).
		Headers("Telemetry", "Value").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if col == 0 {
				return captionStyle
			}
			return valueStyle
		})
	return t.Render()
}

func (m runModel) renderLegend() string {
	var items []string
	for _, name := range m.motors {
		colorStyle := lipgloss.NewStyle().Foreground(lipgloss.Color(m.colors[name])).Bold(true)
		items = append(items, colorStyle.Render("━━")+" "+name)
	}
	return strings.Join(items, "  ")
}

func groupNames(groups []robot.Group) string {
	names := make([]string, len(groups))
	for i, g := range groups {
		names[i] = g.Name
	}
	return strings.Join(names, ", ")
}
