package tui

import (
	"testing"
	"time"

	"logistics/agent"
	"logistics/environment"

	tea "github.com/charmbracelet/bubbletea"
	. "github.com/smartystreets/goconvey/convey"
)

func newTestModel() (*Model, *environment.Environment) {
	cfg := environment.DefaultConfig()
	cfg.Agents = []environment.AgentConfig{
		{Automation: environment.AUTOMATION_INPUT},
		{Automation: environment.AUTOMATION_MANHATTAN},
	}
	env, err := environment.New(cfg)
	if err != nil {
		panic(err)
	}
	input, ok := env.Input(0)
	if !ok {
		panic("agent 0 has no input")
	}
	return New(env, input, time.Millisecond), env
}

func TestModel(t *testing.T) {
	Convey("Given a terminal model", t, func() {
		m, env := newTestModel()
		input, _ := env.Input(0)

		Convey("Arrow keys queue input for the keyboard agent", func() {
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyLeft})
			So(cmd, ShouldBeNil)
			So(input.Pending(), ShouldEqual, 1)
			So(m.lastKey, ShouldEqual, "left")

			_, cmd = m.Update(tickMsg(time.Now()))
			So(cmd, ShouldNotBeNil)
			So(env.CurrentTick(), ShouldEqual, 1)
			So(input.Pending(), ShouldEqual, 0)
			So(env.Agents()[0].Stats().Actions, ShouldEqual, 1)
		})

		Convey("Unmapped keys are ignored", func() {
			m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'x'}})
			So(input.Pending(), ShouldEqual, 0)
		})

		Convey("Pausing stops ticks", func() {
			m.Update(tea.KeyMsg{Type: tea.KeySpace})
			So(m.paused, ShouldBeTrue)
			m.Update(tickMsg(time.Now()))
			So(env.CurrentTick(), ShouldEqual, 0)
			So(m.View(), ShouldContainSubstring, "[paused]")
		})

		Convey("Snapshots are forwarded after each tick", func() {
			var ticks []int
			m.OnTick(func(snap environment.Snapshot) {
				ticks = append(ticks, snap.Tick)
			})
			m.Update(tickMsg(time.Now()))
			m.Update(tickMsg(time.Now()))
			So(ticks, ShouldResemble, []int{1, 2})
		})

		Convey("q quits", func() {
			_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{'q'}})
			So(cmd, ShouldNotBeNil)
			So(cmd(), ShouldResemble, tea.QuitMsg{})
			So(m.View(), ShouldEqual, "")
		})

		Convey("The view shows the episode and every agent", func() {
			view := m.View()
			So(view, ShouldContainSubstring, "episode 1")
			So(view, ShouldContainSubstring, environment.AUTOMATION_MANHATTAN)
			So(view, ShouldContainSubstring, agent.IDLE.String())
		})
	})
}
