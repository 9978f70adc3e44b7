// Package agent implements the taxi state machine: thrust dynamics, the
// conversion of accumulated progress into whole grid steps, collision
// handling and proximity sensing.
package agent

import (
	"fmt"
	"math"

	"logistics/action_space"
	"logistics/grid_world"
)

// State is the agent's lifecycle state.
type State int

const (
	INACTIVE State = iota
	IDLE
	MOVING
	PICKUP
	DELIVERY
	DESTROYED
)

func (s State) String() string {
	switch s {
	case INACTIVE:
		return "inactive"
	case IDLE:
		return "idle"
	case MOVING:
		return "moving"
	case PICKUP:
		return "pickup"
	case DELIVERY:
		return "delivery"
	case DESTROYED:
		return "destroyed"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Task is a unit of work owned by the scheduler.
type Task interface {
	// Coordinates is the cell the agent should currently drive to.
	Coordinates() grid_world.Point
	// Abort notifies the task that its agent was destroyed.
	Abort()
}

// Scheduler hands out tasks. GiveTask either calls SetTask on the agent or does nothing.
type Scheduler interface {
	GiveTask(agent *Agent)
}

// Environment supplies the shared grid, the tick-to-distance ratio and the
// scheduler. Agents never own these.
type Environment interface {
	Grid() *grid_world.Grid
	// TickRatio is the fraction of a cell crossed at full intensity during one tick.
	TickRatio() float64
	Scheduler() Scheduler
}

// Stats are per-spawn counters.
type Stats struct {
	Actions    int
	Pickups    int
	Deliveries int
}

const DEFAULT_SENSOR_RADIUS = 2

// Agent is a single taxi. It embeds its grid placement, which only the grid
// writes; every occupancy change goes through Grid.
type Agent struct {
	grid_world.Placement

	id           int
	env          Environment
	profile      Profile
	sensorRadius int

	state State
	// action is the held direction; NOOP means no action is held.
	action    action_space.Action
	intensity float64
	progress  float64
	task      Task
	stats     Stats
}

// New returns an inactive agent. A non-positive sensor radius selects
// DEFAULT_SENSOR_RADIUS.
func New(id int, env Environment, profile Profile, sensorRadius int) *Agent {
	if sensorRadius <= 0 {
		sensorRadius = DEFAULT_SENSOR_RADIUS
	}
	return &Agent{
		id:           id,
		env:          env,
		profile:      profile,
		sensorRadius: sensorRadius,
		state:        INACTIVE,
		action:       action_space.NOOP,
	}
}

func (a *Agent) ID() int                     { return a.id }
func (a *Agent) State() State                { return a.state }
func (a *Agent) Action() action_space.Action { return a.action }
func (a *Agent) Intensity() float64          { return a.intensity }
func (a *Agent) Progress() float64           { return a.progress }
func (a *Agent) Profile() Profile            { return a.profile }
func (a *Agent) Task() Task                  { return a.task }
func (a *Agent) Stats() Stats                { return a.stats }

// SetTask is called by the scheduler to assign work.
func (a *Agent) SetTask(task Task) {
	a.task = task
}

// IsTerminal is true while the agent cannot be controlled.
func (a *Agent) IsTerminal() bool {
	return a.state == DESTROYED || a.state == INACTIVE
}

// Spawn places the agent at the point and makes it IDLE. The point must be
// free and in bounds; anything else is a caller bug.
func (a *Agent) Spawn(point grid_world.Point) {
	if res := a.env.Grid().Move(a, point.X, point.Y); res != grid_world.MOVE_OK {
		panic(fmt.Sprintf("agent %d spawn at %v: %v", a.id, point, res))
	}
	a.state = IDLE
	a.stats = Stats{}
}

// Despawn aborts and releases the held task and removes the agent from the
// simulation. Safe to repeat.
func (a *Agent) Despawn() {
	a.releaseTask()
	a.resetAction()
	a.env.Grid().Remove(a)
	a.state = INACTIVE
}

// Crash aborts and releases the held task, removes the agent from the grid
// and marks it DESTROYED until its next update.
func (a *Agent) Crash() {
	a.releaseTask()
	a.resetAction()
	a.env.Grid().Remove(a)
	a.state = DESTROYED
}

// RequestTask asks the scheduler for work.
func (a *Agent) RequestTask() {
	if a.IsTerminal() {
		return
	}
	if scheduler := a.env.Scheduler(); scheduler != nil {
		scheduler.GiveTask(a)
	}
}

// Pickup records the collection of the task's cargo.
func (a *Agent) Pickup() {
	if a.IsTerminal() {
		return
	}
	a.stats.Pickups++
	a.state = PICKUP
}

// Deliver records the completion of the held task and releases it.
func (a *Agent) Deliver() {
	if a.IsTerminal() {
		return
	}
	a.stats.Deliveries++
	a.task = nil
	a.state = DELIVERY
}

func (a *Agent) releaseTask() {
	if a.task != nil {
		a.task.Abort()
	}
	a.task = nil
}

func (a *Agent) resetAction() {
	a.action = action_space.NOOP
	a.intensity = 0
}

// DoAction applies a control input for this tick. Repeating the held action
// accelerates; a different action replaces it only while IDLE.
func (a *Agent) DoAction(action action_space.Action) error {
	a.stats.Actions++

	if a.IsTerminal() {
		return nil
	}
	if err := action_space.Validate(action); err != nil {
		return err
	}
	if action == action_space.NOOP {
		return nil
	}

	if a.action == action_space.NOOP {
		a.action = action
	}

	switch {
	case a.action != action && a.state == IDLE:
		a.action = action
	case a.action != action:
		// Switching direction while in motion is ignored rather than
		// decelerating the agent. Known gap, see DESIGN.md.
	default:
		a.increaseAcceleration()
	}
	return nil
}

// Update advances the agent by one tick.
func (a *Agent) Update() {
	switch {
	case a.state == INACTIVE:
		return
	case a.state == DESTROYED:
		// Observers get one tick to see the crash before the agent goes inactive.
		a.state = INACTIVE
		return
	case a.action == action_space.NOOP:
		return
	}

	action := a.action
	dir, err := action_space.DirectionOf(action)
	if err != nil {
		panic(err)
	}

	a.progress += a.intensity * a.env.TickRatio()
	steps := int(a.progress)
	a.progress -= float64(steps)
	if a.progress < 0 || a.progress >= 1 {
		panic(fmt.Sprintf("agent %d progress accumulator out of range: %f", a.id, a.progress))
	}

	dx, dy := dir.Scale(steps)
	grid := a.env.Grid()
	res := grid.MoveRelative(a, dx, dy)
	a.state = MOVING

	switch res {
	case grid_world.MOVE_WALL_COLLISION:
		a.Crash()
		return
	case grid_world.MOVE_AGENT_COLLISION:
		if cell, ok := grid.RelativeCell(a, dx, dy); ok {
			if other, ok := cell.Occupant().(interface{ Crash() }); ok {
				other.Crash()
			}
		}
		a.Crash()
		return
	}

	a.decreaseAcceleration()
	if a.intensity == 0 {
		a.state = IDLE
	}
}

func (a *Agent) increaseAcceleration() {
	a.intensity = math.Min(a.profile.MaxSpeed, a.intensity+a.profile.Acceleration)
}

func (a *Agent) decreaseAcceleration() {
	a.intensity = math.Max(0, a.intensity-a.profile.Deceleration)
}
