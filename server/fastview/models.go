// fastview builds server side views that are pushed to the browser as small
// element updates: a data model is converted to a view-model, multiplexed to
// one or more views, and each view emits the attribute changes for its elements.
package fastview

import (
	"html/template"
)

// EleUpdate is an element id and the operations to apply to it.
type EleUpdate struct {
	EleId string
	// Op keys are attribute names, or 'textContent' to set the element text.
	Ops []Op
}

// Op sets Key to Value.
type Op struct {
	Key   string
	Value string
}

// ViewComponent is a view that renders its initial form via Parse and
// publishes its subsequent changes on Updates.
type ViewComponent interface {
	Updates() <-chan []EleUpdate
	// Parse adds the view's template to the parent, inheriting its func-map,
	// and returns the name under which it was defined.
	Parse(*template.Template) (string, error)
}

// TextContent is shorthand for an update that sets an element's text.
func TextContent(eleId, text string) EleUpdate {
	return EleUpdate{
		EleId: eleId,
		Ops:   []Op{{Key: "textContent", Value: text}},
	}
}

// Attr is shorthand for an update that sets a single attribute.
func Attr(eleId, key, value string) EleUpdate {
	return EleUpdate{
		EleId: eleId,
		Ops:   []Op{{Key: key, Value: value}},
	}
}
