package environment

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"logistics/agent"

	. "github.com/smartystreets/goconvey/convey"
)

func writeConfig(t *testing.T, contents string) string {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestFromYaml(t *testing.T) {
	Convey("When reading a simulation config", t, func() {
		Convey("Given a valid definition", func() {
			path := writeConfig(t, `
kind: simulation
def:
  taxiControl: constant_acceleration
  tickRatio: 0.5
  agents:
    - automation: learner
    - automation: manhattan
  tasks: 3
  episodeTicks: 50
  tickRate: 10ms
  deadline:
    duration: 1s
`)
			cfg, err := FromYaml(path)
			So(err, ShouldBeNil)
			So(cfg.TaxiControl, ShouldEqual, agent.CONSTANT_ACCELERATION)
			So(cfg.TickRatio, ShouldEqual, 0.5)
			So(cfg.Agents, ShouldResemble, []AgentConfig{
				{Automation: AUTOMATION_LEARNER},
				{Automation: AUTOMATION_MANHATTAN},
			})
			So(cfg.Tasks, ShouldEqual, 3)
			So(cfg.EpisodeTicks, ShouldEqual, 50)

			rate, err := cfg.GetTickRate()
			So(err, ShouldBeNil)
			So(rate, ShouldEqual, 10*time.Millisecond)

			Convey("Unset fields keep their defaults", func() {
				So(cfg.Layout, ShouldNotBeEmpty)
				So(cfg.Respawn, ShouldBeTrue)
				So(cfg.Storage.Kind, ShouldEqual, "memory")
			})

			Convey("The deadline bounds the context", func() {
				ctx, cancel, err := cfg.WithDeadline(context.Background())
				So(err, ShouldBeNil)
				defer cancel()
				_, hasDeadline := ctx.Deadline()
				So(hasDeadline, ShouldBeTrue)
			})
		})

		Convey("Given the wrong kind", func() {
			path := writeConfig(t, "kind: training\ndef:\n  tasks: 1\n")
			cfg, err := FromYaml(path)
			So(cfg, ShouldBeNil)
			So(errors.Is(err, ErrWrongKind), ShouldBeTrue)
		})

		Convey("Given an unknown control profile", func() {
			path := writeConfig(t, "kind: simulation\ndef:\n  taxiControl: warp\n")
			cfg, err := FromYaml(path)
			So(cfg, ShouldBeNil)
			So(errors.Is(err, agent.ErrUnknownProfile), ShouldBeTrue)
		})

		Convey("Given a missing file", func() {
			_, err := FromYaml(filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldNotBeNil)
		})
	})
}

func TestValidate(t *testing.T) {
	Convey("When validating configs", t, func() {
		So(DefaultConfig().Validate(), ShouldBeNil)

		cfg := DefaultConfig()
		cfg.Agents = nil
		So(cfg.Validate(), ShouldEqual, ErrNoAgents)

		cfg = DefaultConfig()
		cfg.Agents = []AgentConfig{{Automation: AUTOMATION_LEARNER}, {Automation: AUTOMATION_LEARNER}}
		So(cfg.Validate(), ShouldEqual, ErrMultiLearner)

		cfg = DefaultConfig()
		cfg.Agents = []AgentConfig{{Automation: "teleport"}}
		So(cfg.Validate(), ShouldNotBeNil)

		cfg = DefaultConfig()
		cfg.TickRatio = 0
		So(cfg.Validate(), ShouldNotBeNil)

		cfg = DefaultConfig()
		cfg.TickRate = "fast"
		So(cfg.Validate(), ShouldNotBeNil)

		cfg = DefaultConfig()
		cfg.TickRate = ""
		rate, err := cfg.GetTickRate()
		So(err, ShouldBeNil)
		So(rate, ShouldEqual, DEFAULT_TICK_RATE)
	})
}
