package root_view

import (
	"context"
	"html/template"
	"log"

	"logistics/environment"
	"logistics/server/cell_views"
	"logistics/server/fastview"
)

const PAGE_NAME = "mainpage"

// RootView is the main page: the container of every view component, their
// channel wiring and the websocket bootstrap script.
type RootView struct {
	views   []fastview.ViewComponent
	updates <-chan []fastview.EleUpdate
}

// NewRootView builds the page's views over a stream of simulation snapshots.
func NewRootView(
	ctx context.Context,
	snapshots <-chan environment.Snapshot,
) *RootView {
	views, err := fastview.NewViewBuilder[environment.Snapshot, cell_views.Board]().
		WithContext(ctx).
		WithModel(snapshots, cell_views.Convert).
		WithView(func(
			done <-chan struct{},
			boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewOccupancyGrid(done, boards)
		}).
		WithView(func(
			done <-chan struct{},
			boards <-chan cell_views.Board) fastview.ViewComponent {
			return cell_views.NewAgentTable(done, boards)
		}).
		Build()

	if err != nil {
		log.Fatal(err)
	}

	return &RootView{
		views:   views,
		updates: fastview.FanIn(ctx.Done(), views),
	}
}

// Updates returns the merged ele-updates of all the views.
func (rv *RootView) Updates() <-chan []fastview.EleUpdate {
	return rv.updates
}

// Parse defines the page template on parent and returns its name. The
// func-map installed here is shared by every child view.
func (rv *RootView) Parse(
	parent *template.Template,
) (name string, err error) {
	rt := parent.Funcs(
		template.FuncMap{
			"add":  func(i, j int) int { return i + j },
			"sub":  func(i, j int) int { return i - j },
			"mult": func(i, j int) int { return i * j },
		})

	views := `{{ define "views" }}`
	for _, vc := range rv.views {
		tname, parseErr := vc.Parse(rt)
		if parseErr != nil {
			err = parseErr
			return
		}
		views += `{{ template "` + tname + `" . }}`
	}
	views += `{{ end }}`

	if _, err = rt.Parse(views); err != nil {
		return
	}
	if _, err = rt.Parse(pageTemplate); err != nil {
		return
	}
	name = PAGE_NAME
	return
}

// The page applies pushed ele-updates by element id, and sends the arrow keys
// and enter back up the socket for the keyboard driven agent.
const pageTemplate = `
{{ define "` + PAGE_NAME + `" }}
<!DOCTYPE html>
<html>
	<head>
		<link rel="icon" href="data:,">
		<script>
			const ws = new WebSocket("ws://" + location.host + "/ws");
			ws.onopen = () => console.log("websocket opened");
			ws.onerror = (event) => console.log("websocket error:", event);

			ws.onmessage = function (event) {
				for (const update of JSON.parse(event.data)) {
					const ele = document.getElementById(update.EleId);
					if (ele === null) {
						continue;
					}
					for (const op of update.Ops) {
						if (op.Key === "textContent") {
							ele.textContent = op.Value;
						} else {
							ele.setAttribute(op.Key, op.Value);
						}
					}
				}
			};

			const keys = {ArrowLeft: "left", ArrowRight: "right", ArrowUp: "up", ArrowDown: "down", Enter: "enter"};
			document.addEventListener("keydown", function (event) {
				const key = keys[event.key];
				if (key !== undefined && ws.readyState === WebSocket.OPEN) {
					event.preventDefault();
					ws.send(key);
				}
			});
		</script>
	</head>
	<body>
	{{ template "views" . }}
	</body>
</html>
{{ end }}
`
