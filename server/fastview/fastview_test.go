package fastview

import (
	"context"
	"fmt"
	"html/template"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

type testView struct {
	name    string
	updates chan []EleUpdate
}

func newTestView(done <-chan struct{}, input <-chan string) ViewComponent {
	tv := &testView{name: "testview", updates: make(chan []EleUpdate)}
	go func() {
		defer close(tv.updates)
		for datum := range input {
			select {
			case tv.updates <- []EleUpdate{{EleId: datum, Ops: []Op{{Key: "foo", Value: "bar"}}}}:
			case <-done:
				return
			}
		}
	}()
	return tv
}

func (tv *testView) Updates() <-chan []EleUpdate {
	return tv.updates
}

func (tv *testView) Parse(parent *template.Template) (string, error) {
	return tv.name, nil
}

func TestViewBuilderHappyPath(t *testing.T) {
	Convey("Given a builder with one view registered", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		source := make(chan int)
		views, err := NewViewBuilder[int, string]().
			WithContext(ctx).
			WithModel(source, func(x int) string { return fmt.Sprintf("%d", x) }).
			WithView(newTestView).
			Build()

		Convey("Build succeeds with exactly one view", func() {
			So(err, ShouldBeNil)
			So(len(views), ShouldEqual, 1)
		})

		Convey("A value sent on the source reaches the view as a converted update", func() {
			go func() { source <- 1337 }()
			update := <-views[0].Updates()
			So(len(update), ShouldEqual, 1)
			So(update[0].EleId, ShouldEqual, "1337")
		})
	})
}

func TestBuildWithoutViewsFails(t *testing.T) {
	Convey("Given a builder with a model but no views", t, func() {
		source := make(chan int)
		_, err := NewViewBuilder[int, string]().
			WithModel(source, func(x int) string { return "" }).
			Build()

		Convey("Build returns ErrNoViews", func() {
			So(err, ShouldEqual, ErrNoViews)
		})
	})
}

func TestBuildWithoutModelFails(t *testing.T) {
	Convey("Given a builder with a view but no model", t, func() {
		_, err := NewViewBuilder[int, string]().
			WithView(newTestView).
			Build()

		Convey("Build returns ErrNoModel", func() {
			So(err, ShouldEqual, ErrNoModel)
		})
	})
}

func TestBroadcastFansOutToEveryView(t *testing.T) {
	Convey("Given a builder with two views registered", t, func() {
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()

		source := make(chan int)
		views, err := NewViewBuilder[int, string]().
			WithContext(ctx).
			WithModel(source, func(x int) string { return fmt.Sprintf("%d", x) }).
			WithView(newTestView).
			WithView(newTestView).
			Build()
		So(err, ShouldBeNil)

		go func() { source <- 7 }()

		Convey("Both views receive the same converted value", func() {
			u0 := <-views[0].Updates()
			u1 := <-views[1].Updates()
			So(u0[0].EleId, ShouldEqual, "7")
			So(u1[0].EleId, ShouldEqual, "7")
		})
	})
}
