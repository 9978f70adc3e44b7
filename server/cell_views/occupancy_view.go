package cell_views

import (
	"fmt"
	"html/template"

	"logistics/server/fastview"

	channerics "github.com/niceyeti/channerics/channels"
)

// CELL_PX is the rendered size of one grid square.
const CELL_PX = 32

// OccupancyGrid draws the warehouse floor as an svg of squares, one per cell,
// colored by cell type or by the agent standing on it.
type OccupancyGrid struct {
	id      string
	updates <-chan []fastview.EleUpdate
}

func NewOccupancyGrid(
	done <-chan struct{},
	boards <-chan Board,
) (og *OccupancyGrid) {
	og = &OccupancyGrid{id: "occupancygrid"}
	og.updates = channerics.Convert(done, boards, og.onUpdate)
	return
}

func (og *OccupancyGrid) Updates() <-chan []fastview.EleUpdate {
	return og.updates
}

func cellId(x, y int) string {
	return fmt.Sprintf("cell-%d-%d", x, y)
}

func labelId(x, y int) string {
	return fmt.Sprintf("label-%d-%d", x, y)
}

const headerId = "board-header"

// onUpdate repaints every cell. Unchanged cells are deduplicated downstream.
func (og *OccupancyGrid) onUpdate(board Board) (ops []fastview.EleUpdate) {
	ops = append(ops, fastview.TextContent(headerId, board.Header))
	for _, row := range board.Cells {
		for _, cell := range row {
			ops = append(ops,
				fastview.Attr(cellId(cell.X, cell.Y), "fill", cell.Fill),
				fastview.TextContent(labelId(cell.X, cell.Y), cell.Label))
		}
	}
	return
}

// Parse defines the grid's svg. The parent must supply the add and mult funcs.
func (og *OccupancyGrid) Parse(
	t *template.Template,
) (name string, err error) {
	name = og.id
	px := fmt.Sprintf("%d", CELL_PX)
	half := fmt.Sprintf("%d", CELL_PX/2)
	_, err = t.Parse(
		`{{ define "` + name + `" }}
		<div style="padding:20px;">
			<h3 id="` + headerId + `">{{ .Header }}</h3>
			<svg id="` + og.id + `" xmlns='http://www.w3.org/2000/svg'
				width="{{ mult .Width ` + px + ` }}px"
				height="{{ mult .Height ` + px + ` }}px"
				style="shape-rendering: crispEdges; stroke: lightgrey; stroke-width: 1;">
				{{ range $row := .Cells }}
					{{ range $cell := $row }}
						<rect id="cell-{{ $cell.X }}-{{ $cell.Y }}"
							x="{{ mult $cell.X ` + px + ` }}" y="{{ mult $cell.Y ` + px + ` }}"
							width="` + px + `" height="` + px + `"
							fill="{{ $cell.Fill }}" />
						<text id="label-{{ $cell.X }}-{{ $cell.Y }}"
							x="{{ add (mult $cell.X ` + px + `) ` + half + ` }}"
							y="{{ add (mult $cell.Y ` + px + `) ` + half + ` }}"
							text-anchor="middle" dominant-baseline="central"
							style="stroke: none; fill: white; font-family: monospace;">{{ $cell.Label }}</text>
					{{ end }}
				{{ end }}
			</svg>
		</div>
		{{ end }}`)
	return
}
