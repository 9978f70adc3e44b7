package fastview

import (
	"context"
	"html/template"
	"strconv"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

// textView publishes its view-model as the text of a single element.
type textView struct {
	id      string
	updates <-chan []EleUpdate
}

func newTextView(id string) ViewBuilderFunc[string] {
	return func(done <-chan struct{}, models <-chan string) ViewComponent {
		updates := make(chan []EleUpdate)
		go func() {
			defer close(updates)
			for model := range models {
				select {
				case updates <- []EleUpdate{TextContent(id, model)}:
				case <-done:
					return
				}
			}
		}()
		return &textView{id: id, updates: updates}
	}
}

func (tv *textView) Updates() <-chan []EleUpdate { return tv.updates }

func (tv *textView) Parse(t *template.Template) (string, error) {
	_, err := t.Parse(`{{ define "` + tv.id + `" }}<p id="` + tv.id + `">{{ . }}</p>{{ end }}`)
	return tv.id, err
}

func next(updates <-chan []EleUpdate) []EleUpdate {
	select {
	case update := <-updates:
		return update
	case <-time.After(time.Second):
		return nil
	}
}

func TestViewBuilder(t *testing.T) {
	Convey("When building views", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		Convey("Every view receives each converted item", func() {
			input := make(chan int)
			views, err := NewViewBuilder[int, string]().
				WithContext(ctx).
				WithModel(input, strconv.Itoa).
				WithView(newTextView("first")).
				WithView(newTextView("second")).
				Build()
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 2)

			go func() { input <- 42 }()
			So(next(views[0].Updates()), ShouldResemble, []EleUpdate{TextContent("first", "42")})
			So(next(views[1].Updates()), ShouldResemble, []EleUpdate{TextContent("second", "42")})
		})

		Convey("Missing views, models or sources are errors", func() {
			_, err := NewViewBuilder[int, string]().
				WithModel(make(chan int), strconv.Itoa).
				Build()
			So(err, ShouldEqual, ErrNoViews)

			_, err = NewViewBuilder[int, string]().
				WithView(newTextView("x")).
				Build()
			So(err, ShouldEqual, ErrNoModel)

			_, err = NewViewBuilder[int, string]().
				WithModel(nil, strconv.Itoa).
				WithView(newTextView("x")).
				Build()
			So(err, ShouldEqual, ErrNoSource)
		})
	})
}

func TestUpdateHelpers(t *testing.T) {
	Convey("Update helpers build single-op updates", t, func() {
		So(TextContent("a", "b"), ShouldResemble, EleUpdate{EleId: "a", Ops: []Op{{Key: "textContent", Value: "b"}}})
		So(Attr("a", "fill", "red"), ShouldResemble, EleUpdate{EleId: "a", Ops: []Op{{Key: "fill", Value: "red"}}})
	})
}
