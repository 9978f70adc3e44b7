package grid_world

import (
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type token struct {
	Placement
	id int
}

func (t *token) ID() int { return t.id }

func TestGridMove(t *testing.T) {
	Convey("Given an empty 4x3 grid", t, func() {
		grid := NewGrid(4, 3)
		a := &token{id: 1}
		b := &token{id: 2}

		Convey("When an occupant is moved in bounds", func() {
			So(grid.Move(a, 1, 2), ShouldEqual, MOVE_OK)

			Convey("Then the cell and the cached coordinate agree", func() {
				cell, ok := grid.Cell(1, 2)
				So(ok, ShouldBeTrue)
				So(cell.Occupant(), ShouldEqual, a)
				pt, placed := a.Cell()
				So(placed, ShouldBeTrue)
				So(pt, ShouldResemble, Point{X: 1, Y: 2})
				So(grid.Validate(), ShouldBeNil)
			})

			Convey("Then moving again vacates the previous cell", func() {
				So(grid.Move(a, 2, 2), ShouldEqual, MOVE_OK)
				prev, _ := grid.Cell(1, 2)
				So(prev.IsOccupied(), ShouldBeFalse)
				So(grid.Occupants(), ShouldHaveLength, 1)
				So(grid.Validate(), ShouldBeNil)
			})

			Convey("Then moving onto its own cell is not a collision", func() {
				So(grid.MoveRelative(a, 0, 0), ShouldEqual, MOVE_OK)
				So(grid.Validate(), ShouldBeNil)
			})
		})

		Convey("When a move targets an occupied cell", func() {
			So(grid.Move(a, 0, 0), ShouldEqual, MOVE_OK)
			So(grid.Move(b, 1, 0), ShouldEqual, MOVE_OK)
			res := grid.MoveRelative(b, -1, 0)

			Convey("Then it is an agent collision and nothing moves", func() {
				So(res, ShouldEqual, MOVE_AGENT_COLLISION)
				pt, _ := b.Cell()
				So(pt, ShouldResemble, Point{X: 1, Y: 0})
				cell, _ := grid.Cell(0, 0)
				So(cell.Occupant(), ShouldEqual, a)
				So(grid.Validate(), ShouldBeNil)
			})
		})

		Convey("When moves target coordinates outside the grid", func() {
			So(grid.Move(a, 3, 2), ShouldEqual, MOVE_OK)
			targets := []Point{{-1, 0}, {4, 0}, {0, -1}, {0, 3}, {100, 100}}

			Convey("Then every one is a wall collision and occupancy is untouched", func() {
				for _, pt := range targets {
					So(grid.Move(b, pt.X, pt.Y), ShouldEqual, MOVE_WALL_COLLISION)
				}
				So(grid.MoveRelative(a, 1, 0), ShouldEqual, MOVE_WALL_COLLISION)
				So(grid.MoveRelative(a, 0, 1), ShouldEqual, MOVE_WALL_COLLISION)
				_, placed := b.Cell()
				So(placed, ShouldBeFalse)
				pt, _ := a.Cell()
				So(pt, ShouldResemble, Point{X: 3, Y: 2})
				So(grid.Occupants(), ShouldHaveLength, 1)
			})
		})

		Convey("When an unplaced occupant is moved relatively", func() {
			Convey("Then it fails fast", func() {
				So(func() { grid.MoveRelative(a, 1, 0) }, ShouldPanic)
			})
		})

		Convey("When looking up relative cells", func() {
			So(grid.Move(a, 0, 0), ShouldEqual, MOVE_OK)

			Convey("Then in bounds offsets resolve and out of bounds ones do not", func() {
				cell, ok := grid.RelativeCell(a, 1, 1)
				So(ok, ShouldBeTrue)
				So(cell.Point(), ShouldResemble, Point{X: 1, Y: 1})
				_, ok = grid.RelativeCell(a, -1, 0)
				So(ok, ShouldBeFalse)
				_, ok = grid.RelativeCell(b, 0, 0)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When occupants are removed or the grid is reset", func() {
			So(grid.Move(a, 0, 0), ShouldEqual, MOVE_OK)
			So(grid.Move(b, 1, 1), ShouldEqual, MOVE_OK)

			grid.Remove(a)
			grid.Remove(a)
			_, placed := a.Cell()
			So(placed, ShouldBeFalse)
			So(grid.Occupants(), ShouldHaveLength, 1)

			grid.Reset()
			_, placed = b.Cell()
			So(placed, ShouldBeFalse)
			So(grid.Occupants(), ShouldBeEmpty)
			So(grid.Validate(), ShouldBeNil)
		})
	})
}

func TestFromLayout(t *testing.T) {
	Convey("When the debug layout is parsed", t, func() {
		layout, err := FromLayout(DebugLayout)
		So(err, ShouldBeNil)

		Convey("Then dimensions and points of interest are read top to bottom", func() {
			So(layout.Grid.Width(), ShouldEqual, 6)
			So(layout.Grid.Height(), ShouldEqual, 6)
			So(layout.Spawns, ShouldResemble, []Point{{0, 0}, {0, 5}})
			So(layout.Pickups, ShouldResemble, []Point{{2, 2}})
			So(layout.Delivery, ShouldResemble, []Point{{4, 4}})
		})
	})

	Convey("When the warehouse layout is parsed", t, func() {
		layout, err := FromLayout(WarehouseLayout)
		So(err, ShouldBeNil)
		So(layout.Spawns, ShouldHaveLength, 6)
	})

	Convey("When layouts are malformed", t, func() {
		_, err := FromLayout(nil)
		So(err, ShouldEqual, ErrEmptyLayout)
		_, err = FromLayout([]string{"...", ".."})
		So(err, ShouldNotBeNil)
		_, err = FromLayout([]string{"..W"})
		So(err, ShouldNotBeNil)
	})
}
