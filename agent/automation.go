package agent

import (
	"errors"
	"sync"

	"logistics/action_space"
)

// Automation chooses the next action for an agent. Implementations are pure
// policies; the caller applies the result with DoAction.
type Automation interface {
	NextAction(agent *Agent) action_space.Action
}

// BatchAutomation is an Automation that may produce several actions in one
// tick, such as every key pressed since the last tick.
type BatchAutomation interface {
	Automation
	NextActions(agent *Agent) []action_space.Action
}

// Automate asks the policy for its action and applies it, returning the
// action taken. Batch policies have every action applied in order and the
// last one is returned; an empty batch applies NOOP.
func Automate(agent *Agent, policy Automation) (action_space.Action, error) {
	batcher, ok := policy.(BatchAutomation)
	if !ok {
		action := policy.NextAction(agent)
		return action, agent.DoAction(action)
	}

	actions := batcher.NextActions(agent)
	if len(actions) == 0 {
		return action_space.NOOP, agent.DoAction(action_space.NOOP)
	}
	var errs []error
	for _, action := range actions {
		if err := agent.DoAction(action); err != nil {
			errs = append(errs, err)
		}
	}
	return actions[len(actions)-1], errors.Join(errs...)
}

// Idle never acts. Useful for parked or externally driven agents.
type Idle struct{}

func (Idle) NextAction(*Agent) action_space.Action {
	return action_space.NOOP
}

// Manhattan drives toward the current task target, closing the horizontal
// gap first and the vertical gap second.
type Manhattan struct{}

func (Manhattan) NextAction(agent *Agent) action_space.Action {
	task := agent.Task()
	if task == nil {
		return action_space.NOOP
	}
	cur, placed := agent.Cell()
	if !placed {
		return action_space.NOOP
	}

	target := task.Coordinates()
	dx := cur.X - target.X
	dy := cur.Y - target.Y
	switch {
	case dx > 0:
		return action_space.LEFT
	case dx < 0:
		return action_space.RIGHT
	case dy > 0:
		return action_space.UP
	case dy < 0:
		return action_space.DOWN
	}
	return action_space.NOOP
}

// Key names, matching the terminal key names delivered by the tui.
type Key string

const (
	KEY_LEFT  Key = "left"
	KEY_RIGHT Key = "right"
	KEY_UP    Key = "up"
	KEY_DOWN  Key = "down"
	KEY_ENTER Key = "enter"
)

var keyActions = map[Key]action_space.Action{
	KEY_LEFT:  action_space.LEFT,
	KEY_RIGHT: action_space.RIGHT,
	KEY_UP:    action_space.UP,
	KEY_DOWN:  action_space.DOWN,
	KEY_ENTER: action_space.NOOP,
}

// Input maps key presses to actions. Presses may arrive from any goroutine.
// Automate applies every press queued since the last tick; NextAction
// consumes them one at a time.
type Input struct {
	mu        sync.Mutex
	pending   []Key
	callbacks []func(Key)
}

func NewInput() *Input {
	return &Input{}
}

// OnKey registers a callback run for every consumed key press.
func (in *Input) OnKey(cb func(Key)) {
	in.mu.Lock()
	defer in.mu.Unlock()
	in.callbacks = append(in.callbacks, cb)
}

// Press queues a key. Keys without an action mapping are dropped and false is returned.
func (in *Input) Press(key Key) bool {
	if _, ok := keyActions[key]; !ok {
		return false
	}
	in.mu.Lock()
	defer in.mu.Unlock()
	in.pending = append(in.pending, key)
	return true
}

// Pending returns the number of queued presses.
func (in *Input) Pending() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.pending)
}

// NextActions consumes every pending press, running the callbacks for each.
func (in *Input) NextActions(*Agent) []action_space.Action {
	in.mu.Lock()
	keys := in.pending
	in.pending = nil
	callbacks := append([]func(Key){}, in.callbacks...)
	in.mu.Unlock()

	actions := make([]action_space.Action, 0, len(keys))
	for _, key := range keys {
		for _, cb := range callbacks {
			cb(key)
		}
		actions = append(actions, keyActions[key])
	}
	return actions
}

func (in *Input) NextAction(*Agent) action_space.Action {
	in.mu.Lock()
	if len(in.pending) == 0 {
		in.mu.Unlock()
		return action_space.NOOP
	}
	key := in.pending[0]
	in.pending = in.pending[1:]
	callbacks := append([]func(Key){}, in.callbacks...)
	in.mu.Unlock()

	for _, cb := range callbacks {
		cb(key)
	}
	return keyActions[key]
}
