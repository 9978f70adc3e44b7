package grid_world

import (
	"errors"
	"fmt"
)

// Layout cell types
const (
	FLOOR    = '.'
	SPAWN    = 'S'
	PICKUP   = 'P'
	DELIVERY = 'D'
)

// Layout is a parsed map: the grid plus its points of interest, each listed
// in row-major order.
type Layout struct {
	Grid     *Grid
	Spawns   []Point
	Pickups  []Point
	Delivery []Point
}

// The default warehouse floor and a small debug floor for development.
var (
	DebugLayout []string = []string{
		"S.....",
		"......",
		"..P...",
		"......",
		"....D.",
		"S.....",
	}

	WarehouseLayout []string = []string{
		"S.........P.........S",
		".....................",
		"..P.............P....",
		".....................",
		".........D...........",
		".....................",
		"S...................S",
		".....................",
		"....D.........D......",
		".....................",
		"S.........P.........S",
	}
)

var ErrEmptyLayout error = errors.New("layout has no rows")

// FromLayout converts rows of layout runes into a grid. Rows are read top to
// bottom, so row i is y=i and column j is x=j. All rows must be equally wide.
func FromLayout(rows []string) (*Layout, error) {
	if len(rows) == 0 || len(rows[0]) == 0 {
		return nil, ErrEmptyLayout
	}

	width := len(rows[0])
	layout := &Layout{Grid: NewGrid(width, len(rows))}
	for y, row := range rows {
		if len(row) != width {
			return nil, fmt.Errorf("row %d has width %d, expected %d", y, len(row), width)
		}
		for x, r := range row {
			pt := Point{X: x, Y: y}
			switch r {
			case FLOOR:
			case SPAWN:
				layout.Spawns = append(layout.Spawns, pt)
			case PICKUP:
				layout.Pickups = append(layout.Pickups, pt)
			case DELIVERY:
				layout.Delivery = append(layout.Delivery, pt)
			default:
				return nil, fmt.Errorf("unknown layout rune %q at %v", r, pt)
			}
		}
	}
	return layout, nil
}
