/*
Logistics is a grid world taxi simulation: agents drive between pickup and
delivery points on a warehouse floor, crashing into walls and each other when
they misjudge. The simulation runs headless at a fixed tick rate, or in the
terminal with -play where the arrow keys drive the keyboard agent. Either way
a page served on -host:-port shows the floor live and accepts the same keys.
*/

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log"
	"os"
	"os/signal"
	"time"

	"logistics/agent"
	"logistics/environment"
	"logistics/grid_world"
	"logistics/server"
	"logistics/storage"
	"logistics/tui"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/dustin/go-humanize"
	channerics "github.com/niceyeti/channerics/channels"
	"golang.org/x/sync/errgroup"
)

const REPORT_PERIOD = 5 * time.Second

var (
	configPath = flag.String("config", "./config.yaml", "path to the simulation config")
	play       = flag.Bool("play", false, "play in the terminal instead of running headless")
	dbg        = flag.Bool("debug", false, "debug mode: small layout and occupancy checks every tick")
	host       = flag.String("host", "", "The host ip")
	port       = flag.String("port", "8080", "The host port")
)

// loadConfig reads the config file, falling back to the defaults when it does not exist.
func loadConfig(path string) (*environment.SimulationConfig, error) {
	cfg, err := environment.FromYaml(path)
	if errors.Is(err, fs.ErrNotExist) {
		log.Printf("%s not found, using the default config", path)
		return environment.DefaultConfig(), nil
	}
	return cfg, err
}

func toRecord(runID string, summary environment.EpisodeSummary) storage.EpisodeRecord {
	return storage.EpisodeRecord{
		RunID:      runID,
		Episode:    summary.Episode,
		Ticks:      summary.Ticks,
		Agents:     summary.Agents,
		Crashes:    summary.Crashes,
		Pickups:    summary.Pickups,
		Deliveries: summary.Deliveries,
		Pending:    summary.Pending,
		Reward:     summary.Reward,
		FinishedAt: time.Now(),
	}
}

// keyboardInput returns the input of the first keyboard driven agent.
func keyboardInput(env *environment.Environment) *agent.Input {
	for _, a := range env.Agents() {
		if input, ok := env.Input(a.ID()); ok {
			return input
		}
	}
	return nil
}

// report logs the learner's running reward until done.
func report(ctx context.Context, env *environment.Environment) error {
	ticker := channerics.NewTicker(ctx.Done(), REPORT_PERIOD)
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker:
			log.Printf("episode %s, reward %.2f", humanize.Comma(int64(env.Episode())), env.EpisodeReward())
		}
	}
}

func runApp() (err error) {
	if *play {
		// The terminal belongs to the tui while it runs.
		var logFile *os.File
		if logFile, err = tea.LogToFile("logistics.log", "logistics"); err != nil {
			return
		}
		defer logFile.Close()
	}

	var cfg *environment.SimulationConfig
	if cfg, err = loadConfig(*configPath); err != nil {
		return
	}
	if *dbg {
		cfg.Layout = grid_world.DebugLayout
		cfg.Agents = cfg.Agents[:min(len(cfg.Agents), 2)]
	}

	var env *environment.Environment
	if env, err = environment.New(cfg); err != nil {
		return
	}
	env.SetDebug(*dbg)

	appCtx, appCancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer appCancel()
	runCtx, runCancel, err := cfg.WithDeadline(appCtx)
	if err != nil {
		return
	}
	defer runCancel()

	store, err := storage.NewStore(cfg.Storage.Kind, cfg.Storage.Path)
	if err != nil {
		return
	}
	if err = store.Init(runCtx); err != nil {
		return
	}
	defer storage.CloseIfSupported(store)

	runID := storage.NewRunID()
	log.Println("run", runID)
	env.OnEpisode(func(summary environment.EpisodeSummary) {
		// Uses a fresh context so the final episode is saved after cancellation.
		if saveErr := store.SaveEpisode(context.Background(), toRecord(runID, summary)); saveErr != nil {
			log.Println("save episode:", saveErr)
		}
	})

	rate, err := cfg.GetTickRate()
	if err != nil {
		return
	}

	input := keyboardInput(env)
	snapshots := make(chan environment.Snapshot)
	srv := server.NewServer(runCtx, *host+":"+*port, env.Snapshot(), snapshots).
		WithStore(store, runID)
	if input != nil {
		srv.WithKeys(input.Press)
	}

	group, groupCtx := errgroup.WithContext(runCtx)
	group.Go(func() error {
		return srv.Serve(groupCtx)
	})

	if *play {
		group.Go(func() error {
			defer runCancel()
			return tui.New(env, input, rate).
				OnTick(func(snap environment.Snapshot) {
					select {
					case snapshots <- snap:
					default:
					}
				}).
				Run(groupCtx)
		})
	} else {
		group.Go(func() error {
			return env.Run(groupCtx, snapshots)
		})
		group.Go(func() error {
			return report(groupCtx, env)
		})
	}

	err = group.Wait()
	return
}

func main() {
	flag.Parse()
	if err := runApp(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
