package agent

// Sensor indices into the ProximitySensors result.
const (
	SENSOR_LEFT = iota
	SENSOR_RIGHT
	SENSOR_UP
	SENSOR_DOWN
)

// NO_READING is reported when nothing was sensed along a ray.
const NO_READING = -1

// ProximitySensors scans the four cardinal rays out to the sensor radius and
// returns, per [left, right, up, down], the distance to the nearest occupied
// cell or NO_READING. Off-grid cells read as empty. An agent without a cell
// senses nothing.
func (a *Agent) ProximitySensors() (readings [4]int) {
	for i := range readings {
		readings[i] = NO_READING
	}
	if _, placed := a.Cell(); !placed {
		return
	}

	rays := [4]struct{ dx, dy int }{
		SENSOR_LEFT:  {-1, 0},
		SENSOR_RIGHT: {1, 0},
		SENSOR_UP:    {0, -1},
		SENSOR_DOWN:  {0, 1},
	}
	grid := a.env.Grid()
	for i, ray := range rays {
		for dist := 1; dist <= a.sensorRadius; dist++ {
			cell, ok := grid.RelativeCell(a, ray.dx*dist, ray.dy*dist)
			if ok && cell.IsOccupied() {
				readings[i] = dist
				break
			}
		}
	}
	return
}
