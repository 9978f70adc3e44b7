package main

import (
	"os"
	"path/filepath"
	"testing"

	"logistics/environment"

	. "github.com/smartystreets/goconvey/convey"
)

func TestLoadConfig(t *testing.T) {
	Convey("When loading the app config", t, func() {
		Convey("A missing file falls back to the defaults", func() {
			cfg, err := loadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
			So(err, ShouldBeNil)
			So(cfg, ShouldResemble, environment.DefaultConfig())
		})

		Convey("A broken file is an error", func() {
			path := filepath.Join(t.TempDir(), "config.yaml")
			So(os.WriteFile(path, []byte("kind: simulation\ndef:\n  tickRatio: -1\n"), 0o644), ShouldBeNil)
			_, err := loadConfig(path)
			So(err, ShouldNotBeNil)
		})

		Convey("The shipped config is valid", func() {
			cfg, err := loadConfig("config.yaml")
			So(err, ShouldBeNil)
			env, err := environment.New(cfg)
			So(err, ShouldBeNil)
			So(keyboardInput(env), ShouldNotBeNil)
		})
	})
}

func TestToRecord(t *testing.T) {
	Convey("Episode summaries become store records", t, func() {
		record := toRecord("run", environment.EpisodeSummary{Episode: 3, Ticks: 10, Deliveries: 2, Reward: 1.5})
		So(record.RunID, ShouldEqual, "run")
		So(record.Episode, ShouldEqual, 3)
		So(record.Ticks, ShouldEqual, 10)
		So(record.Deliveries, ShouldEqual, 2)
		So(record.Reward, ShouldEqual, 1.5)
		So(record.FinishedAt.IsZero(), ShouldBeFalse)
	})
}
