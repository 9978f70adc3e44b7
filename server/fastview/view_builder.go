package fastview

import (
	"context"
	"errors"

	channerics "github.com/niceyeti/channerics/channels"
)

// ViewBuilder wires several views to one shared view-model. Build converts
// each source item once and broadcasts the result to every view.
type ViewBuilder[DataModel any, ViewModel any] struct {
	source      <-chan DataModel
	viewModelFn func(DataModel) ViewModel
	builderFns  []ViewBuilderFunc[ViewModel]
	// nil done is allowed; the views then live as long as the source.
	done <-chan struct{}
}

// ViewBuilderFunc builds a view from its view-model channel and a done channel.
type ViewBuilderFunc[ViewModel any] func(<-chan struct{}, <-chan ViewModel) ViewComponent

func NewViewBuilder[DataModel any, ViewModel any]() *ViewBuilder[DataModel, ViewModel] {
	return &ViewBuilder[DataModel, ViewModel]{}
}

// WithModel sets the source channel and its view-model conversion.
func (vb *ViewBuilder[DataModel, ViewModel]) WithModel(
	input <-chan DataModel,
	convert func(DataModel) ViewModel,
) *ViewBuilder[DataModel, ViewModel] {
	vb.source = input
	vb.viewModelFn = convert
	return vb
}

// WithView appends a view. Build returns views in the order they were added.
func (vb *ViewBuilder[DataModel, ViewModel]) WithView(
	builderFn ViewBuilderFunc[ViewModel],
) *ViewBuilder[DataModel, ViewModel] {
	vb.builderFns = append(vb.builderFns, builderFn)
	return vb
}

// WithContext stops every downstream channel when ctx is cancelled.
func (vb *ViewBuilder[DataModel, ViewModel]) WithContext(
	ctx context.Context,
) *ViewBuilder[DataModel, ViewModel] {
	vb.done = ctx.Done()
	return vb
}

var (
	ErrNoViews  error = errors.New("no views to build: WithView must be called")
	ErrNoModel  error = errors.New("no model specified: WithModel must be called")
	ErrNoSource error = errors.New("no source channel: WithModel needs a non-nil input")
)

// Build runs the stored builders against a broadcast of the converted source.
func (vb *ViewBuilder[DataModel, ViewModel]) Build() (views []ViewComponent, err error) {
	if len(vb.builderFns) == 0 {
		return nil, ErrNoViews
	}
	if vb.viewModelFn == nil {
		return nil, ErrNoModel
	}
	if vb.source == nil {
		return nil, ErrNoSource
	}

	vmChan := channerics.Convert(vb.done, vb.source, vb.viewModelFn)
	vmChans := channerics.Broadcast(vb.done, vmChan, len(vb.builderFns))
	for i, build := range vb.builderFns {
		views = append(views, build(vb.done, vmChans[i]))
	}
	return
}
