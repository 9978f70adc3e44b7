// Package tui plays the simulation in the terminal. The arrow keys and enter
// drive the keyboard controlled agent; every other agent follows its automation.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"logistics/agent"
	"logistics/environment"
	"logistics/grid_world"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"
)

type tickMsg time.Time

// Model owns the environment while the program runs: ticks and key presses
// are both handled on the bubbletea goroutine.
type Model struct {
	env   *environment.Environment
	input *agent.Input
	rate  time.Duration

	paused   bool
	quitting bool
	lastKey  string
	// onTick, if set, receives the snapshot after every tick.
	onTick func(environment.Snapshot)
}

// New returns a model ticking env every rate. input may be nil, in which
// case keys other than the controls are ignored.
func New(env *environment.Environment, input *agent.Input, rate time.Duration) *Model {
	return &Model{
		env:   env,
		input: input,
		rate:  rate,
	}
}

// OnTick registers fn to receive every post-tick snapshot.
func (m *Model) OnTick(fn func(environment.Snapshot)) *Model {
	m.onTick = fn
	return m
}

// Run starts the program and blocks until the user quits or ctx ends.
func (m *Model) Run(ctx context.Context) error {
	_, err := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx)).Run()
	if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
		return nil
	}
	return err
}

func (m *Model) Init() tea.Cmd {
	return m.tick()
}

func (m *Model) tick() tea.Cmd {
	return tea.Tick(m.rate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch key := msg.String(); key {
		case "q", "ctrl+c", "esc":
			m.quitting = true
			return m, tea.Quit
		case " ", "space", "p":
			m.paused = !m.paused
		case "r":
			m.env.Reset()
		default:
			if m.input != nil && m.input.Press(agent.Key(key)) {
				m.lastKey = key
			}
		}
		return m, nil

	case tickMsg:
		if !m.paused {
			m.step()
		}
		return m, m.tick()
	}
	return m, nil
}

func (m *Model) step() {
	m.env.Tick()
	if m.env.Terminal() {
		m.env.Reset()
	}
	if m.onTick != nil {
		m.onTick(m.env.Snapshot())
	}
}

var (
	titleStyle    = lipgloss.NewStyle().Bold(true)
	helpStyle     = lipgloss.NewStyle().Faint(true)
	floorStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	spawnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	pickupStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("220"))
	deliveryStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
	crashStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	boardStyle    = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
)

// agent background colors, cycled by id
var agentColors = []string{"27", "208", "35", "161", "93", "130", "37", "178"}

func agentStyle(id int) lipgloss.Style {
	return lipgloss.NewStyle().
		Background(lipgloss.Color(agentColors[id%len(agentColors)])).
		Foreground(lipgloss.Color("15")).
		Bold(true)
}

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	snap := m.env.Snapshot()

	status := fmt.Sprintf("episode %d  tick %s  deliveries %d  crashes %d  pending %d",
		snap.Episode,
		humanize.Comma(int64(snap.Tick)),
		snap.Summary.Deliveries,
		snap.Summary.Crashes,
		snap.Pending)
	if m.paused {
		status += "  [paused]"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		titleStyle.Render(status),
		boardStyle.Render(renderBoard(snap)),
		renderAgents(snap),
		helpStyle.Render("arrows/enter: drive  space: pause  r: reset  q: quit  last key: "+m.lastKey),
	)
}

// renderBoard draws two columns per cell so the grid looks square.
func renderBoard(snap environment.Snapshot) string {
	styles := make([][]string, snap.Height)
	for y := range styles {
		styles[y] = make([]string, snap.Width)
		for x := range styles[y] {
			styles[y][x] = floorStyle.Render(" .")
		}
	}
	mark := func(points []grid_world.Point, style lipgloss.Style, glyph string) {
		for _, pt := range points {
			if pt.Y >= 0 && pt.Y < snap.Height && pt.X >= 0 && pt.X < snap.Width {
				styles[pt.Y][pt.X] = style.Render(glyph)
			}
		}
	}
	mark(snap.Spawns, spawnStyle, " S")
	mark(snap.Pickups, pickupStyle, " P")
	mark(snap.Delivery, deliveryStyle, " D")

	for _, as := range snap.Agents {
		if !as.Placed || as.Y < 0 || as.Y >= snap.Height || as.X < 0 || as.X >= snap.Width {
			continue
		}
		label := fmt.Sprintf("%2d", as.ID%100)
		if as.Carrying {
			label = fmt.Sprintf("%d*", as.ID%10)
		}
		styles[as.Y][as.X] = agentStyle(as.ID).Render(label)
	}

	rows := make([]string, len(styles))
	for y, row := range styles {
		rows[y] = strings.Join(row, "")
	}
	return strings.Join(rows, "\n")
}

func renderAgents(snap environment.Snapshot) string {
	lines := make([]string, 0, len(snap.Agents))
	for _, as := range snap.Agents {
		task := "-"
		if as.HasTask {
			task = "(" + strconv.Itoa(as.TargetX) + "," + strconv.Itoa(as.TargetY) + ")"
		}
		line := fmt.Sprintf("%s %-10s %-9s %-5s %.2f  task %-8s delivered %d",
			agentStyle(as.ID).Render(fmt.Sprintf("%2d", as.ID)),
			as.Automation,
			as.State,
			as.Action,
			as.Intensity,
			task,
			as.Deliveries)
		if as.State == agent.DESTROYED.String() {
			line = crashStyle.Render(line)
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}
