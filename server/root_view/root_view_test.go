package root_view

import (
	"context"
	"html/template"
	"strings"
	"testing"
	"time"

	"logistics/environment"
	"logistics/server/cell_views"
	"logistics/server/fastview"

	. "github.com/smartystreets/goconvey/convey"
)

func receive(updates <-chan []fastview.EleUpdate) []fastview.EleUpdate {
	select {
	case batch := <-updates:
		return batch
	case <-time.After(time.Second):
		return nil
	}
}

func TestRootView(t *testing.T) {
	Convey("Given a root view over a snapshot stream", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		snapshots := make(chan environment.Snapshot)
		rv := NewRootView(ctx, snapshots)

		Convey("Snapshots become element updates", func() {
			snapshots <- environment.Snapshot{
				Episode: 1,
				Width:   2,
				Height:  1,
				Agents: []environment.AgentSnapshot{
					{ID: 0, X: 0, Y: 0, Placed: true, State: "idle", Action: "NOOP"},
				},
			}
			// The two views may land in separate batches.
			ids := map[string]bool{}
			for len(ids) < 3 {
				batch := receive(rv.Updates())
				if batch == nil {
					break
				}
				for _, update := range batch {
					switch update.EleId {
					case "board-header", "cell-1-0", "agent-0-state":
						ids[update.EleId] = true
					}
				}
			}
			So(ids["board-header"], ShouldBeTrue)
			So(ids["cell-1-0"], ShouldBeTrue)
			So(ids["agent-0-state"], ShouldBeTrue)
		})

		Convey("The page wires the websocket and both views", func() {
			page := template.New("index.html")
			name, err := rv.Parse(page)
			So(err, ShouldBeNil)
			So(name, ShouldEqual, "mainpage")
			_, err = page.Parse(`{{ template "mainpage" . }}`)
			So(err, ShouldBeNil)

			var sb strings.Builder
			err = page.Execute(&sb, cell_views.Board{Header: "empty"})
			So(err, ShouldBeNil)
			So(sb.String(), ShouldContainSubstring, "/ws")
			So(sb.String(), ShouldContainSubstring, `id="occupancygrid"`)
			So(sb.String(), ShouldContainSubstring, `id="agenttable"`)
		})
	})
}
