package grid_world

import (
	"errors"
	"fmt"
)

// Point is an absolute grid coordinate. The orientation follows the screen:
// (0,0) is the top left cell, x grows rightward and y grows downward.
type Point struct {
	X, Y int
}

// Add returns the point offset by dx and dy.
func (p Point) Add(dx, dy int) Point {
	return Point{X: p.X + dx, Y: p.Y + dy}
}

func (p Point) String() string {
	return fmt.Sprintf("(%d,%d)", p.X, p.Y)
}

// MoveResult is the outcome of a move request.
type MoveResult int

const (
	MOVE_OK MoveResult = iota
	MOVE_WALL_COLLISION
	MOVE_AGENT_COLLISION
)

func (mr MoveResult) String() string {
	switch mr {
	case MOVE_OK:
		return "ok"
	case MOVE_WALL_COLLISION:
		return "wall-collision"
	case MOVE_AGENT_COLLISION:
		return "agent-collision"
	}
	return fmt.Sprintf("MoveResult(%d)", int(mr))
}

// Occupant is anything that can stand in a cell. Only types embedding
// Placement satisfy it, which keeps the cached coordinate writable by the
// Grid alone.
type Occupant interface {
	ID() int
	Cell() (Point, bool)
	place(p Point, placed bool)
}

// Cell is a single grid position and its optional occupant. The grid owns
// cells; the occupant reference is non-owning.
type Cell struct {
	X, Y     int
	occupant Occupant
}

// Occupant returns the cell's occupant, or nil.
func (c *Cell) Occupant() Occupant {
	return c.occupant
}

func (c *Cell) IsOccupied() bool {
	return c.occupant != nil
}

func (c *Cell) Point() Point {
	return Point{X: c.X, Y: c.Y}
}

// ErrNotPlaced is the panic value when a relative move is requested for an
// occupant that has no cell.
var ErrNotPlaced error = errors.New("occupant is not placed on the grid")

// Grid is the exclusive authority over cell occupancy and move legality.
// Cells are stored in an arena indexed by coordinate; occupants only ever
// hold a coordinate, which the grid sets on every successful move.
type Grid struct {
	width, height int
	cells         []Cell
}

// NewGrid returns an empty width by height grid.
func NewGrid(width, height int) *Grid {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("invalid grid dimensions %dx%d", width, height))
	}

	grid := &Grid{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			grid.cells[grid.index(x, y)] = Cell{X: x, Y: y}
		}
	}
	return grid
}

func (grid *Grid) Width() int  { return grid.width }
func (grid *Grid) Height() int { return grid.height }

func (grid *Grid) InBounds(x, y int) bool {
	return x >= 0 && x < grid.width && y >= 0 && y < grid.height
}

func (grid *Grid) index(x, y int) int {
	return y*grid.width + x
}

// Cell returns the cell at (x,y), or false if out of bounds.
func (grid *Grid) Cell(x, y int) (*Cell, bool) {
	if !grid.InBounds(x, y) {
		return nil, false
	}
	return &grid.cells[grid.index(x, y)], true
}

// Move places the occupant at the absolute coordinate (x,y).
// Out of bound targets are wall collisions and targets held by a different
// occupant are agent collisions; neither mutates occupancy. On success the
// previous cell is vacated and the occupant's coordinate updated.
func (grid *Grid) Move(occ Occupant, x, y int) MoveResult {
	target, ok := grid.Cell(x, y)
	if !ok {
		return MOVE_WALL_COLLISION
	}
	if target.occupant != nil && target.occupant != occ {
		return MOVE_AGENT_COLLISION
	}

	grid.vacate(occ)
	target.occupant = occ
	occ.place(target.Point(), true)
	return MOVE_OK
}

// MoveRelative moves the occupant by (dx,dy) from its current cell.
// Panics if the occupant has no cell.
func (grid *Grid) MoveRelative(occ Occupant, dx, dy int) MoveResult {
	cur, ok := occ.Cell()
	if !ok {
		panic(fmt.Errorf("move occupant %d by (%d,%d): %w", occ.ID(), dx, dy, ErrNotPlaced))
	}
	dst := cur.Add(dx, dy)
	return grid.Move(occ, dst.X, dst.Y)
}

// RelativeCell returns the cell at offset (dx,dy) from the occupant's cell.
// Returns false if the occupant has no cell or the offset leaves the grid.
func (grid *Grid) RelativeCell(occ Occupant, dx, dy int) (*Cell, bool) {
	cur, ok := occ.Cell()
	if !ok {
		return nil, false
	}
	dst := cur.Add(dx, dy)
	return grid.Cell(dst.X, dst.Y)
}

// Remove vacates the occupant's cell, if any, and unsets its coordinate.
func (grid *Grid) Remove(occ Occupant) {
	grid.vacate(occ)
	occ.place(Point{}, false)
}

// vacate clears the occupant's current cell, but only if the occupant is
// actually the one recorded there.
func (grid *Grid) vacate(occ Occupant) {
	cur, ok := occ.Cell()
	if !ok {
		return
	}
	if cell, inBounds := grid.Cell(cur.X, cur.Y); inBounds && cell.occupant == occ {
		cell.occupant = nil
	}
}

// Reset empties every cell, unsetting the coordinates of all occupants.
func (grid *Grid) Reset() {
	for i := range grid.cells {
		if occ := grid.cells[i].occupant; occ != nil {
			occ.place(Point{}, false)
			grid.cells[i].occupant = nil
		}
	}
}

// Occupants returns the current occupants in row-major cell order.
func (grid *Grid) Occupants() (occupants []Occupant) {
	for i := range grid.cells {
		if occ := grid.cells[i].occupant; occ != nil {
			occupants = append(occupants, occ)
		}
	}
	return
}

// ErrInconsistentOccupancy is returned by Validate when an occupant's
// coordinate and the grid's record of it disagree.
var ErrInconsistentOccupancy error = errors.New("inconsistent occupancy")

// Validate checks that every occupant is recorded in exactly one cell and
// that its cached coordinate points back at that cell.
func (grid *Grid) Validate() error {
	seen := map[int]Point{}
	for i := range grid.cells {
		cell := &grid.cells[i]
		occ := cell.occupant
		if occ == nil {
			continue
		}
		if prev, dup := seen[occ.ID()]; dup {
			return fmt.Errorf("occupant %d in %v and %v: %w", occ.ID(), prev, cell.Point(), ErrInconsistentOccupancy)
		}
		seen[occ.ID()] = cell.Point()

		if cur, ok := occ.Cell(); !ok || cur != cell.Point() {
			return fmt.Errorf("occupant %d recorded at %v but cached %v (placed=%t): %w",
				occ.ID(), cell.Point(), cur, ok, ErrInconsistentOccupancy)
		}
	}
	return nil
}
