package agent

import (
	"errors"
	"fmt"
)

// Control profile names.
const (
	CONSTANT              = "constant"
	CONSTANT_ACCELERATION = "constant_acceleration"
)

// Profile holds the thrust dynamics of a taxi. Acceleration is added to the
// intensity per repeated action, and Deceleration subtracted per tick of
// completed motion.
type Profile struct {
	Name         string
	Acceleration float64
	Deceleration float64
	MaxSpeed     float64
}

var ErrUnknownProfile error = errors.New("taxi control profile is not implemented")

// ParseProfile returns the named profile. The constant profile jumps straight
// to full intensity and stops dead after one tick of motion.
func ParseProfile(name string) (Profile, error) {
	switch name {
	case CONSTANT:
		return Profile{
			Name:         name,
			Acceleration: 1.0,
			Deceleration: 1.0,
			MaxSpeed:     1.0,
		}, nil
	case CONSTANT_ACCELERATION:
		return Profile{
			Name:         name,
			Acceleration: 0.33,
			Deceleration: 0.25,
			MaxSpeed:     1.0,
		}, nil
	}
	return Profile{}, fmt.Errorf("%q: %w", name, ErrUnknownProfile)
}
