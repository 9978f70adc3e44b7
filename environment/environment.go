// Package environment hosts the taxi agents: it owns the grid, the id
// allocator and the task queue, advances every agent once per tick in a fixed
// order, and exposes a step interface for an external learner.
package environment

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"time"

	"logistics/action_space"
	"logistics/agent"
	"logistics/atomic_float"
	"logistics/grid_world"

	"github.com/dustin/go-humanize"
	channerics "github.com/niceyeti/channerics/channels"
)

// Learner rewards
const (
	STEP_REWARD     = -0.01
	CRASH_REWARD    = -1.0
	PICKUP_REWARD   = 0.5
	DELIVERY_REWARD = 1.0
)

// EpisodeSummary is published whenever an episode ends.
type EpisodeSummary struct {
	Episode    int
	Ticks      int
	Agents     int
	Crashes    int
	Pickups    int
	Deliveries int
	// Pending is the number of tasks left unassigned at the end.
	Pending int
	// Reward is the learner's cumulative reward, zero without a learner.
	Reward float64
}

// pilot pairs an agent with the policy that drives it.
type pilot struct {
	agent      *agent.Agent
	automation agent.Automation
	name       string
	spawn      grid_world.Point
}

// learnerControl feeds one externally chosen action into the tick.
type learnerControl struct {
	next action_space.Action
}

func (lc *learnerControl) NextAction(*agent.Agent) (action action_space.Action) {
	action, lc.next = lc.next, action_space.NOOP
	return
}

// Environment is single threaded: Tick, Step, Reset and Run must be called
// from one goroutine. Only EpisodeReward and Episode are safe to read elsewhere.
type Environment struct {
	cfg       *SimulationConfig
	layout    *grid_world.Layout
	profile   agent.Profile
	tickRatio float64
	scheduler *QueueScheduler
	ids       agent.IDAllocator
	rng       *rand.Rand

	// pilots are kept in creation order, which is also ascending id order.
	pilots  []*pilot
	learner *pilot

	episode    int
	tick       int
	summary    EpisodeSummary
	lastReward float64
	reward     *atomic_float.AtomicFloat64
	published  *atomic_float.AtomicFloat64
	debug      bool
	onEpisode  []func(EpisodeSummary)
}

var (
	ErrNoLearner   error = errors.New("environment has no learner agent")
	ErrNoFreeSpawn error = errors.New("no free spawn point")
)

// New builds an environment from the config and resets it to the first episode.
func New(cfg *SimulationConfig) (*Environment, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	rows := cfg.Layout
	if len(rows) == 0 {
		rows = grid_world.WarehouseLayout
	}
	layout, err := grid_world.FromLayout(rows)
	if err != nil {
		return nil, fmt.Errorf("layout: %w", err)
	}
	if len(cfg.Agents) > len(layout.Spawns) {
		return nil, fmt.Errorf("%d agents, %d spawn points: %w", len(cfg.Agents), len(layout.Spawns), ErrTooManyAgents)
	}
	if cfg.Tasks > 0 && (len(layout.Pickups) == 0 || len(layout.Delivery) == 0) {
		return nil, ErrNoDeliveries
	}

	profile, err := agent.ParseProfile(cfg.TaxiControl)
	if err != nil {
		return nil, err
	}

	env := &Environment{
		cfg:       cfg,
		layout:    layout,
		profile:   profile,
		tickRatio: cfg.TickRatio,
		scheduler: NewQueueScheduler(),
		rng:       rand.New(rand.NewSource(cfg.Seed)),
		reward:    atomic_float.NewAtomicFloat64(0),
		published: atomic_float.NewAtomicFloat64(0),
	}

	for _, ac := range cfg.Agents {
		var automation agent.Automation
		switch ac.Automation {
		case AUTOMATION_MANHATTAN:
			automation = agent.Manhattan{}
		case AUTOMATION_INPUT:
			automation = agent.NewInput()
		case AUTOMATION_IDLE:
			automation = agent.Idle{}
		case AUTOMATION_LEARNER:
			automation = &learnerControl{}
		}
		if _, err := env.AddAgent(automation, ac.Automation); err != nil {
			return nil, err
		}
	}

	env.Reset()
	return env, nil
}

func (env *Environment) Grid() *grid_world.Grid         { return env.layout.Grid }
func (env *Environment) Layout() *grid_world.Layout     { return env.layout }
func (env *Environment) TickRatio() float64             { return env.tickRatio }
func (env *Environment) Scheduler() agent.Scheduler     { return env.scheduler }
func (env *Environment) TaskQueue() *QueueScheduler     { return env.scheduler }
func (env *Environment) Config() *SimulationConfig      { return env.cfg }
func (env *Environment) CurrentTick() int               { return env.tick }
func (env *Environment) CurrentSummary() EpisodeSummary { return env.summary }

// Episode is the number of the episode in progress. Safe for concurrent readers.
func (env *Environment) Episode() int {
	return int(env.published.AtomicRead())
}

// EpisodeReward is the learner's reward so far this episode. Safe for concurrent readers.
func (env *Environment) EpisodeReward() float64 {
	return env.reward.AtomicRead()
}

// SetDebug enables a full occupancy check after every tick.
func (env *Environment) SetDebug(debug bool) {
	env.debug = debug
}

// OnEpisode registers a hook run with the summary of every finished episode.
func (env *Environment) OnEpisode(fn func(EpisodeSummary)) {
	env.onEpisode = append(env.onEpisode, fn)
}

// Agents returns the agents in tick order.
func (env *Environment) Agents() []*agent.Agent {
	agents := make([]*agent.Agent, len(env.pilots))
	for i, p := range env.pilots {
		agents[i] = p.agent
	}
	return agents
}

// Input returns the key input automation driving the agent, if it has one.
func (env *Environment) Input(id int) (*agent.Input, bool) {
	for _, p := range env.pilots {
		if p.agent.ID() == id {
			in, ok := p.automation.(*agent.Input)
			return in, ok
		}
	}
	return nil, false
}

// Learner returns the agent driven through Step.
func (env *Environment) Learner() (*agent.Agent, bool) {
	if env.learner == nil {
		return nil, false
	}
	return env.learner.agent, true
}

// AddAgent creates an agent with the next id. Each agent is bound to the
// spawn point matching its creation index; during an episode it spawns at once.
func (env *Environment) AddAgent(automation agent.Automation, name string) (*agent.Agent, error) {
	if len(env.pilots) >= len(env.layout.Spawns) {
		return nil, ErrTooManyAgents
	}
	if _, isLearner := automation.(*learnerControl); isLearner && env.learner != nil {
		return nil, ErrMultiLearner
	}

	p := &pilot{
		agent:      agent.New(env.ids.Next(), env, env.profile, env.cfg.SensorRadius),
		automation: automation,
		name:       name,
		spawn:      env.layout.Spawns[len(env.pilots)],
	}
	if _, isLearner := automation.(*learnerControl); isLearner {
		env.learner = p
	}
	env.pilots = append(env.pilots, p)

	if env.episode > 0 {
		if err := env.spawn(p); err != nil {
			return nil, err
		}
	}
	return p.agent, nil
}

// spawn places the pilot's agent on its own spawn point, or the first free one.
func (env *Environment) spawn(p *pilot) error {
	candidates := append([]grid_world.Point{p.spawn}, env.layout.Spawns...)
	for _, pt := range candidates {
		if cell, ok := env.Grid().Cell(pt.X, pt.Y); ok && !cell.IsOccupied() {
			p.agent.Spawn(pt)
			return nil
		}
	}
	return ErrNoFreeSpawn
}

// Reset ends the episode in progress, if any ticks were run, and starts a new
// one: agents back on their spawn points and a fresh task queue.
func (env *Environment) Reset() Observation {
	if env.tick > 0 {
		env.endEpisode()
	}

	env.Grid().Reset()
	for _, p := range env.pilots {
		p.agent.Despawn()
	}
	env.scheduler.Reset()
	env.scheduler.Fill(env.rng, env.cfg.Tasks, env.layout.Pickups, env.layout.Delivery)
	for _, p := range env.pilots {
		p.agent.Spawn(p.spawn)
	}

	env.episode++
	env.published.AtomicSet(float64(env.episode))
	env.tick = 0
	env.lastReward = 0
	env.reward.AtomicSet(0)
	env.summary = EpisodeSummary{Episode: env.episode, Agents: len(env.pilots)}
	return env.observe()
}

func (env *Environment) endEpisode() {
	env.summary.Ticks = env.tick
	env.summary.Pending = env.scheduler.Pending()
	env.summary.Reward = env.reward.AtomicRead()
	log.Printf("episode %d finished: %s ticks, %d deliveries, %d crashes, reward %.2f",
		env.summary.Episode,
		humanize.Comma(int64(env.summary.Ticks)),
		env.summary.Deliveries,
		env.summary.Crashes,
		env.summary.Reward)

	for _, fn := range env.onEpisode {
		fn(env.summary)
	}
}

// Tick advances the simulation once: every agent, in ascending id order,
// requests work if it has none, runs its automation and updates. An agent
// crashed by another agent earlier in the same tick skips its update, so it
// remains DESTROYED until the next tick.
func (env *Environment) Tick() {
	env.tick++
	env.respawn()

	destroyedBefore := map[int]bool{}
	for _, p := range env.pilots {
		if p.agent.State() == agent.DESTROYED {
			destroyedBefore[p.agent.ID()] = true
		}
	}

	reward := STEP_REWARD
	for _, p := range env.pilots {
		a := p.agent
		if a.Task() == nil {
			a.RequestTask()
		}
		if _, err := agent.Automate(a, p.automation); err != nil {
			log.Printf("agent %d (%s): %v", a.ID(), p.name, err)
		}

		if a.State() == agent.DESTROYED && !destroyedBefore[a.ID()] {
			continue
		}
		a.Update()

		stage, advanced := env.scheduler.advance(a)
		if !advanced {
			continue
		}
		switch stage {
		case IN_TRANSIT:
			env.summary.Pickups++
			if p == env.learner {
				reward += PICKUP_REWARD
			}
		case DELIVERED:
			env.summary.Deliveries++
			if p == env.learner {
				reward += DELIVERY_REWARD
			}
		}
	}

	for _, p := range env.pilots {
		if p.agent.State() == agent.DESTROYED && !destroyedBefore[p.agent.ID()] {
			env.summary.Crashes++
			if p == env.learner {
				reward += CRASH_REWARD
			}
		}
	}

	if env.learner != nil {
		env.lastReward = reward
		env.reward.Accumulate(reward)
	}

	if env.debug {
		if err := env.Grid().Validate(); err != nil {
			panic(fmt.Errorf("tick %d: %w", env.tick, err))
		}
	}
}

// respawn returns inactive non-learner agents to the grid when enabled.
func (env *Environment) respawn() {
	if !env.cfg.Respawn {
		return
	}
	for _, p := range env.pilots {
		if p == env.learner || p.agent.State() != agent.INACTIVE {
			continue
		}
		// A blocked spawn is retried on the next tick.
		_ = env.spawn(p)
	}
}

// Terminal reports whether the episode is over: the learner is out of play,
// or the tick budget is spent.
func (env *Environment) Terminal() bool {
	if env.learner != nil && env.learner.agent.IsTerminal() {
		return true
	}
	return env.cfg.EpisodeTicks > 0 && env.tick >= env.cfg.EpisodeTicks
}

// Step applies the learner's action for one tick and returns the resulting
// observation, the tick's reward and whether the episode is over.
func (env *Environment) Step(action action_space.Action) (Observation, float64, bool, error) {
	if env.learner == nil {
		return Observation{}, 0, false, ErrNoLearner
	}
	if err := action_space.Validate(action); err != nil {
		return Observation{}, 0, false, err
	}

	env.learner.automation.(*learnerControl).next = action
	env.Tick()
	return env.observe(), env.lastReward, env.Terminal(), nil
}

// Run ticks the environment at the configured rate until the context ends,
// resetting on terminal episodes. A snapshot is offered after every tick and
// dropped if the receiver is not ready.
func (env *Environment) Run(ctx context.Context, snapshots chan<- Snapshot) error {
	rate, err := env.cfg.GetTickRate()
	if err != nil {
		return err
	}

	start := time.Now()
	ticker := channerics.NewTicker(ctx.Done(), rate)
	for running := true; running; {
		select {
		case <-ctx.Done():
			running = false
			continue
		case <-ticker:
		}

		env.Tick()
		if env.Terminal() {
			env.Reset()
		}

		if snapshots != nil {
			select {
			case snapshots <- env.Snapshot():
			default:
			}
		}
	}

	if env.tick > 0 {
		env.endEpisode()
		env.tick = 0
	}
	log.Printf("simulation stopped after %s", humanize.RelTime(start, time.Now(), "", ""))
	return nil
}
