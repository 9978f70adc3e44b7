package grid_world

// Placement caches an occupant's coordinate. Embed it to satisfy Occupant;
// the coordinate is only ever written by the Grid.
type Placement struct {
	cell   Point
	placed bool
}

// Cell returns the cached coordinate, or false when not on the grid.
func (p *Placement) Cell() (Point, bool) {
	return p.cell, p.placed
}

func (p *Placement) place(pt Point, placed bool) {
	p.cell = pt
	p.placed = placed
}
