// cell_views contains views derived from the Board view-model.
package cell_views

import (
	"fmt"
	"strconv"

	"logistics/agent"
	"logistics/environment"
	"logistics/grid_world"

	"github.com/dustin/go-humanize"
)

// Cell is one grid square ready for templating: its fill and the label of the
// agent standing on it, if any. Cell fields are used directly as view parameters.
type Cell struct {
	X, Y  int
	Fill  string
	Label string
}

// AgentRow is one line of the agent status table.
type AgentRow struct {
	ID         int
	Automation string
	State      string
	Action     string
	Intensity  string
	Task       string
	Deliveries string
	Crashed    bool
}

// Board is the view-model of a simulation snapshot. Cells is indexed [y][x],
// so ranging over it yields the rows in screen order.
type Board struct {
	Header string
	Width  int
	Height int
	Cells  [][]Cell
	Agents []AgentRow
}

const (
	FLOOR_FILL    = "white"
	SPAWN_FILL    = "lightblue"
	PICKUP_FILL   = "lightyellow"
	DELIVERY_FILL = "lightgreen"
)

// agent colors, cycled by id
var palette = []string{"royalblue", "darkorange", "seagreen", "crimson", "purple", "saddlebrown", "teal", "goldenrod"}

func agentFill(id int) string {
	return palette[id%len(palette)]
}

// Convert transforms a snapshot into a Board.
func Convert(snap environment.Snapshot) Board {
	board := Board{
		Header: fmt.Sprintf("episode %d, tick %s, %d deliveries, %d crashes, %d tasks pending, reward %.2f",
			snap.Episode,
			humanize.Comma(int64(snap.Tick)),
			snap.Summary.Deliveries,
			snap.Summary.Crashes,
			snap.Pending,
			snap.Reward),
		Width:  snap.Width,
		Height: snap.Height,
		Cells:  make([][]Cell, snap.Height),
	}
	for y := range board.Cells {
		board.Cells[y] = make([]Cell, snap.Width)
		for x := range board.Cells[y] {
			board.Cells[y][x] = Cell{X: x, Y: y, Fill: FLOOR_FILL}
		}
	}

	paint := func(points []grid_world.Point, fill string) {
		for _, pt := range points {
			if board.inBounds(pt.X, pt.Y) {
				board.Cells[pt.Y][pt.X].Fill = fill
			}
		}
	}
	paint(snap.Spawns, SPAWN_FILL)
	paint(snap.Pickups, PICKUP_FILL)
	paint(snap.Delivery, DELIVERY_FILL)

	for _, as := range snap.Agents {
		if as.Placed && board.inBounds(as.X, as.Y) {
			cell := &board.Cells[as.Y][as.X]
			cell.Fill = agentFill(as.ID)
			cell.Label = strconv.Itoa(as.ID)
			if as.Carrying {
				cell.Label += "*"
			}
		}
		board.Agents = append(board.Agents, toRow(as))
	}
	return board
}

func (board *Board) inBounds(x, y int) bool {
	return x >= 0 && x < board.Width && y >= 0 && y < board.Height
}

func toRow(as environment.AgentSnapshot) AgentRow {
	task := "-"
	if as.HasTask {
		leg := "pickup"
		if as.Carrying {
			leg = "delivery"
		}
		task = fmt.Sprintf("%s at (%d,%d)", leg, as.TargetX, as.TargetY)
	}
	return AgentRow{
		ID:         as.ID,
		Automation: as.Automation,
		State:      as.State,
		Action:     as.Action,
		Intensity:  strconv.FormatFloat(as.Intensity, 'f', 2, 64),
		Task:       task,
		Deliveries: strconv.Itoa(as.Deliveries),
		Crashed:    as.State == agent.DESTROYED.String(),
	}
}
