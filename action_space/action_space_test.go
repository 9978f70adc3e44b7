package action_space

import (
	"errors"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestDirectionOf(t *testing.T) {
	Convey("When looking up directions", t, func() {
		Convey("Then every action maps to a unit vector", func() {
			for _, action := range All() {
				dir, err := DirectionOf(action)
				So(err, ShouldBeNil)
				manhattan := abs(dir.Dx) + abs(dir.Dy)
				if action == NOOP {
					So(manhattan, ShouldEqual, 0)
				} else {
					So(manhattan, ShouldEqual, 1)
				}
			}
		})

		Convey("Then up and down are opposite on the y axis", func() {
			up, _ := DirectionOf(UP)
			down, _ := DirectionOf(DOWN)
			So(up, ShouldResemble, Direction{0, -1})
			So(down, ShouldResemble, Direction{0, 1})
			dx, dy := down.Scale(3)
			So(dx, ShouldEqual, 0)
			So(dy, ShouldEqual, 3)
		})

		Convey("Then out of range values are invalid actions", func() {
			for _, action := range []Action{-1, N_ACTIONS, 42} {
				_, err := DirectionOf(action)
				So(errors.Is(err, ErrInvalidAction), ShouldBeTrue)
			}
			So(Action(9).String(), ShouldEqual, "Action(9)")
			So(LEFT.String(), ShouldEqual, "left")
		})
	})
}

func abs(i int) int {
	if i < 0 {
		return -i
	}
	return i
}
