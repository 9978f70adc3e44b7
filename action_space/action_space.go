package action_space

import (
	"errors"
	"fmt"
)

// Action is a discrete movement command.
type Action int

const (
	NOOP Action = iota
	UP
	DOWN
	LEFT
	RIGHT

	N_ACTIONS = 5
)

// Direction is a unit vector in grid coordinates. Positive y points down,
// the same orientation used to print the grid.
type Direction struct {
	Dx, Dy int
}

// Scale multiplies the direction by a whole number of steps.
func (d Direction) Scale(steps int) (dx, dy int) {
	return d.Dx * steps, d.Dy * steps
}

var directions = [N_ACTIONS]Direction{
	NOOP:  {0, 0},
	UP:    {0, -1},
	DOWN:  {0, 1},
	LEFT:  {-1, 0},
	RIGHT: {1, 0},
}

var names = [N_ACTIONS]string{
	NOOP:  "noop",
	UP:    "up",
	DOWN:  "down",
	LEFT:  "left",
	RIGHT: "right",
}

// ErrInvalidAction is returned for values outside [0, N_ACTIONS).
var ErrInvalidAction error = errors.New("action out of action space bounds")

// Validate returns ErrInvalidAction if the action is not in the action space.
func Validate(action Action) error {
	if action < 0 || action >= N_ACTIONS {
		return fmt.Errorf("%w 0 => %d: %d", ErrInvalidAction, N_ACTIONS, int(action))
	}
	return nil
}

// DirectionOf looks up the unit vector for the action.
func DirectionOf(action Action) (Direction, error) {
	if err := Validate(action); err != nil {
		return Direction{}, err
	}
	return directions[action], nil
}

// All returns every action in id order.
func All() []Action {
	return []Action{NOOP, UP, DOWN, LEFT, RIGHT}
}

func (a Action) String() string {
	if Validate(a) != nil {
		return fmt.Sprintf("Action(%d)", int(a))
	}
	return names[a]
}
