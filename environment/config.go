package environment

import (
	"context"
	"errors"
	"fmt"
	"time"

	"logistics/agent"
	"logistics/grid_world"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

// OuterConfig is the versioned envelope of every config file: a kind selector
// and an opaque definition decoded according to it.
type OuterConfig struct {
	Kind string      `mapstructure:"kind"`
	Def  interface{} `mapstructure:"def"`
}

const SIMULATION_KIND = "simulation"

// Automation names for AgentConfig.
const (
	AUTOMATION_MANHATTAN = "manhattan"
	AUTOMATION_INPUT     = "input"
	AUTOMATION_IDLE      = "idle"
	AUTOMATION_LEARNER   = "learner"
)

// AgentConfig describes one taxi.
type AgentConfig struct {
	// Automation is one of manhattan, input, idle or learner. At most one
	// agent may be the learner, which is driven through Step.
	Automation string `yaml:"automation"`
}

// StorageConfig selects where episode summaries are kept.
type StorageConfig struct {
	Kind string `yaml:"kind"`
	Path string `yaml:"path"`
}

// SimulationConfig holds everything needed to build an Environment.
// Viper lowercases every key it reads, so yaml tags here are lowercase while
// config files are free to use camelCase.
type SimulationConfig struct {
	// Layout rows; see grid_world.FromLayout. Empty selects the warehouse layout.
	Layout []string `yaml:"layout"`
	// TaxiControl is the control profile name shared by all agents.
	TaxiControl string `yaml:"taxicontrol"`
	// TickRatio is the fraction of a cell crossed per tick at full intensity.
	TickRatio    float64       `yaml:"tickratio"`
	SensorRadius int           `yaml:"sensorradius"`
	Agents       []AgentConfig `yaml:"agents"`
	// Tasks is the number of pickup/delivery tasks queued per episode.
	Tasks int `yaml:"tasks"`
	// EpisodeTicks bounds an episode; zero means unbounded.
	EpisodeTicks int `yaml:"episodeticks"`
	// Respawn re-spawns crashed non-learner agents once they go inactive.
	Respawn bool `yaml:"respawn"`
	// TickRate is the wall clock period of Run, as a duration string.
	TickRate string `yaml:"tickrate"`
	Seed     int64  `yaml:"seed"`
	// Deadline optionally bounds the whole run, e.g. {duration: 10m}.
	Deadline map[string]string `yaml:"deadline"`
	Storage  StorageConfig     `yaml:"storage"`
}

const (
	DEFAULT_TICK_RATIO    = 1.0
	DEFAULT_TICK_RATE     = 100 * time.Millisecond
	DEFAULT_EPISODE_TICKS = 1000
)

var (
	ErrWrongKind     error = errors.New("config kind is not " + SIMULATION_KIND)
	ErrNoAgents      error = errors.New("config lists no agents")
	ErrTooManyAgents error = errors.New("more agents than spawn points")
	ErrMultiLearner  error = errors.New("more than one learner agent")
	ErrNoDeliveries  error = errors.New("tasks requested but layout has no pickup or delivery points")
)

// DefaultConfig returns a small runnable configuration on the warehouse layout.
func DefaultConfig() *SimulationConfig {
	return &SimulationConfig{
		Layout:       append([]string(nil), grid_world.WarehouseLayout...),
		TaxiControl:  agent.CONSTANT,
		TickRatio:    DEFAULT_TICK_RATIO,
		SensorRadius: agent.DEFAULT_SENSOR_RADIUS,
		Agents: []AgentConfig{
			{Automation: AUTOMATION_MANHATTAN},
			{Automation: AUTOMATION_MANHATTAN},
			{Automation: AUTOMATION_MANHATTAN},
		},
		Tasks:        20,
		EpisodeTicks: DEFAULT_EPISODE_TICKS,
		Respawn:      true,
		TickRate:     DEFAULT_TICK_RATE.String(),
		Seed:         1,
		Storage:      StorageConfig{Kind: "memory"},
	}
}

// FromYaml reads a simulation config file. The outer envelope is read with
// viper, and the definition round-tripped through yaml into the typed config.
func FromYaml(path string) (*SimulationConfig, error) {
	vp := viper.New()
	vp.SetConfigFile(path)
	vp.SetConfigType("yaml")
	var err error
	if err = vp.ReadInConfig(); err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	outerConfig := &OuterConfig{}
	if err = vp.Unmarshal(outerConfig); err != nil {
		return nil, err
	}
	if outerConfig.Kind != SIMULATION_KIND {
		return nil, fmt.Errorf("%s has kind %q: %w", path, outerConfig.Kind, ErrWrongKind)
	}

	var def []byte
	if def, err = yaml.Marshal(outerConfig.Def); err != nil {
		return nil, err
	}

	innerConfig := DefaultConfig()
	if err = yaml.Unmarshal(def, innerConfig); err != nil {
		return nil, err
	}
	if err = innerConfig.Validate(); err != nil {
		return nil, err
	}
	return innerConfig, nil
}

// Validate checks the config for errors that must abort startup.
func (cfg *SimulationConfig) Validate() error {
	if _, err := agent.ParseProfile(cfg.TaxiControl); err != nil {
		return err
	}
	if len(cfg.Agents) == 0 {
		return ErrNoAgents
	}
	learners := 0
	for i, ac := range cfg.Agents {
		switch ac.Automation {
		case AUTOMATION_MANHATTAN, AUTOMATION_INPUT, AUTOMATION_IDLE:
		case AUTOMATION_LEARNER:
			learners++
		default:
			return fmt.Errorf("agent %d: unknown automation %q", i, ac.Automation)
		}
	}
	if learners > 1 {
		return ErrMultiLearner
	}
	if cfg.TickRatio <= 0 {
		return fmt.Errorf("tickRatio must be positive, got %f", cfg.TickRatio)
	}
	if _, err := cfg.GetTickRate(); err != nil {
		return err
	}
	return nil
}

// GetTickRate parses TickRate, falling back to DEFAULT_TICK_RATE when unset.
func (cfg *SimulationConfig) GetTickRate() (time.Duration, error) {
	if cfg.TickRate == "" {
		return DEFAULT_TICK_RATE, nil
	}
	rate, err := time.ParseDuration(cfg.TickRate)
	if err != nil {
		return 0, fmt.Errorf("tickRate: %w", err)
	}
	if rate <= 0 {
		return 0, fmt.Errorf("tickRate must be positive, got %s", rate)
	}
	return rate, nil
}

// WithDeadline returns a context extended by the run deadline, if one is specified.
func (cfg *SimulationConfig) WithDeadline(
	ctx context.Context,
) (context.Context, context.CancelFunc, error) {
	if val, ok := cfg.Deadline["duration"]; ok {
		duration, err := time.ParseDuration(val)
		if err != nil {
			return nil, nil, err
		}
		innerCtx, cancel := context.WithTimeout(ctx, duration)
		return innerCtx, cancel, nil
	}
	defaultCtx, cancel := context.WithCancel(ctx)
	return defaultCtx, cancel, nil
}
