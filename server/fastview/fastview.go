/*
ViewBuilder implements a builder pattern to implement simple views:
given an input data format, apply a transformation to a view-model,
and then multiplex that data to one or more views.
*/
package fastview

import (
	"context"
	"errors"

	channerics "github.com/niceyeti/channerics/channels"
)

// ErrNoViews is returned when Build() is called before the caller has added any views.
var ErrNoViews error = errors.New("no views to build: WithView must be called")

// ErrNoModel is returned when Build() is called before WithModel() has been called.
var ErrNoModel error = errors.New("no model specified: WithModel must be called")

// ViewBuilder wires a single source channel of DataModel items through a
// conversion function into one or more ViewComponents, broadcasting the
// resulting view-model stream to each.
type ViewBuilder[DataModel any, ViewModel any] struct {
	source      <-chan DataModel
	viewModelFn func(DataModel) ViewModel
	done        <-chan struct{} // okay if nil
	builderFns  []func(<-chan struct{}, <-chan ViewModel) ViewComponent
}

// NewViewBuilder returns an empty builder. Callers chain WithContext,
// WithModel, and one or more WithView calls before calling Build.
func NewViewBuilder[DataModel any, ViewModel any]() *ViewBuilder[DataModel, ViewModel] {
	return &ViewBuilder[DataModel, ViewModel]{}
}

// WithContext ensures that all downstream channels are closed when ctx is
// cancelled.
func (vb *ViewBuilder[DataModel, ViewModel]) WithContext(
	ctx context.Context,
) *ViewBuilder[DataModel, ViewModel] {
	vb.done = ctx.Done()
	return vb
}

// WithModel sets the source channel and the function used to convert its
// items into the target view-model type.
func (vb *ViewBuilder[DataModel, ViewModel]) WithModel(
	source <-chan DataModel,
	convert func(DataModel) ViewModel,
) *ViewBuilder[DataModel, ViewModel] {
	vb.source = source
	vb.viewModelFn = convert
	return vb
}

// WithView registers a view constructor. Views are returned from Build in
// the order they were added.
func (vb *ViewBuilder[DataModel, ViewModel]) WithView(
	builderFn func(<-chan struct{}, <-chan ViewModel) ViewComponent,
) *ViewBuilder[DataModel, ViewModel] {
	vb.builderFns = append(vb.builderFns, builderFn)
	return vb
}

// Build connects the source channel through the conversion function,
// broadcasts the resulting view-model stream to every registered view
// constructor, and returns the constructed views.
func (vb *ViewBuilder[DataModel, ViewModel]) Build() ([]ViewComponent, error) {
	if len(vb.builderFns) == 0 {
		return nil, ErrNoViews
	}
	if vb.viewModelFn == nil {
		return nil, ErrNoModel
	}

	converted := make(chan ViewModel)
	go func() {
		defer close(converted)
		for item := range channerics.OrDone(vb.done, vb.source) {
			select {
			case converted <- vb.viewModelFn(item):
			case <-vb.done:
				return
			}
		}
	}()

	vmChans := vb.broadcast(converted, len(vb.builderFns), vb.done)

	views := make([]ViewComponent, 0, len(vb.builderFns))
	for i, builder := range vb.builderFns {
		views = append(views, builder(vb.done, vmChans[i]))
	}

	return views, nil
}

// broadcast returns n channels, each receiving every item sent on input.
// Items are forwarded one output at a time, not in parallel, so a slow
// consumer can backpressure the others.
func (vb *ViewBuilder[DataModel, ViewModel]) broadcast(
	input <-chan ViewModel,
	n int,
	done <-chan struct{},
) []<-chan ViewModel {
	outChans := make([]chan ViewModel, n)
	outputs := make([]<-chan ViewModel, n)
	for i := 0; i < n; i++ {
		outChans[i] = make(chan ViewModel)
		outputs[i] = outChans[i]
	}

	go func() {
		defer func() {
			for _, ch := range outChans {
				close(ch)
			}
		}()
		for item := range channerics.OrDone(done, input) {
			for _, vmChan := range outChans {
				select {
				case vmChan <- item:
				case <-done:
					return
				}
			}
		}
	}()

	return outputs
}
