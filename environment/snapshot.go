package environment

import (
	"logistics/action_space"
	"logistics/agent"
	"logistics/grid_world"
)

// Observation is what the learner sees after a step.
type Observation struct {
	Cell      grid_world.Point
	Placed    bool
	Target    grid_world.Point
	HasTask   bool
	Carrying  bool
	State     agent.State
	Action    action_space.Action
	Intensity float64
	Sensors   [4]int
}

// Vector flattens the observation into a fixed width feature vector:
// position, target, task flags, state, held action, intensity, then the
// four sensor readings.
func (obs Observation) Vector() []float64 {
	vec := []float64{
		float64(obs.Cell.X),
		float64(obs.Cell.Y),
		float64(obs.Target.X),
		float64(obs.Target.Y),
		boolToFloat(obs.HasTask),
		boolToFloat(obs.Carrying),
		float64(obs.State),
		float64(obs.Action),
		obs.Intensity,
	}
	for _, reading := range obs.Sensors {
		vec = append(vec, float64(reading))
	}
	return vec
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

func observeAgent(a *agent.Agent) (obs Observation) {
	obs.Cell, obs.Placed = a.Cell()
	obs.State = a.State()
	obs.Action = a.Action()
	obs.Intensity = a.Intensity()
	obs.Sensors = a.ProximitySensors()
	if task := a.Task(); task != nil {
		obs.HasTask = true
		obs.Target = task.Coordinates()
		if t, ok := task.(*Task); ok {
			obs.Carrying = t.Stage() == IN_TRANSIT
		}
	}
	return
}

// observe returns the learner's observation, or the zero value without one.
func (env *Environment) observe() Observation {
	if env.learner == nil {
		return Observation{}
	}
	return observeAgent(env.learner.agent)
}

// AgentSnapshot is a serializable view of one agent.
type AgentSnapshot struct {
	ID         int     `json:"id"`
	Automation string  `json:"automation"`
	X          int     `json:"x"`
	Y          int     `json:"y"`
	Placed     bool    `json:"placed"`
	State      string  `json:"state"`
	Action     string  `json:"action"`
	Intensity  float64 `json:"intensity"`
	Progress   float64 `json:"progress"`
	HasTask    bool    `json:"hasTask"`
	Carrying   bool    `json:"carrying"`
	TargetX    int     `json:"targetX"`
	TargetY    int     `json:"targetY"`
	Sensors    [4]int  `json:"sensors"`
	Actions    int     `json:"actions"`
	Pickups    int     `json:"pickups"`
	Deliveries int     `json:"deliveries"`
}

// Snapshot is a copy of the simulation state after a tick, safe to hand to
// other goroutines.
type Snapshot struct {
	Episode  int                `json:"episode"`
	Tick     int                `json:"tick"`
	Width    int                `json:"width"`
	Height   int                `json:"height"`
	Spawns   []grid_world.Point `json:"spawns"`
	Pickups  []grid_world.Point `json:"pickups"`
	Delivery []grid_world.Point `json:"delivery"`
	Agents   []AgentSnapshot    `json:"agents"`
	Pending  int                `json:"pending"`
	Summary  EpisodeSummary     `json:"summary"`
	Reward   float64            `json:"reward"`
}

// Snapshot captures the current tick.
func (env *Environment) Snapshot() Snapshot {
	grid := env.Grid()
	snap := Snapshot{
		Episode:  env.episode,
		Tick:     env.tick,
		Width:    grid.Width(),
		Height:   grid.Height(),
		Spawns:   append([]grid_world.Point(nil), env.layout.Spawns...),
		Pickups:  append([]grid_world.Point(nil), env.layout.Pickups...),
		Delivery: append([]grid_world.Point(nil), env.layout.Delivery...),
		Agents:   make([]AgentSnapshot, 0, len(env.pilots)),
		Pending:  env.scheduler.Pending(),
		Summary:  env.summary,
		Reward:   env.reward.AtomicRead(),
	}

	for _, p := range env.pilots {
		a := p.agent
		obs := observeAgent(a)
		stats := a.Stats()
		snap.Agents = append(snap.Agents, AgentSnapshot{
			ID:         a.ID(),
			Automation: p.name,
			X:          obs.Cell.X,
			Y:          obs.Cell.Y,
			Placed:     obs.Placed,
			State:      obs.State.String(),
			Action:     obs.Action.String(),
			Intensity:  obs.Intensity,
			Progress:   a.Progress(),
			HasTask:    obs.HasTask,
			Carrying:   obs.Carrying,
			TargetX:    obs.Target.X,
			TargetY:    obs.Target.Y,
			Sensors:    obs.Sensors,
			Actions:    stats.Actions,
			Pickups:    stats.Pickups,
			Deliveries: stats.Deliveries,
		})
	}
	return snap
}
