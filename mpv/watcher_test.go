package mpv

import (
	"errors"
	"testing"

	"github.com/mpvctl-cli/mpvctl/protocol"
	. "github.com/smartystreets/goconvey/convey"
)

func eventFrame(name string, fields map[string]any) *protocol.Frame {
	if fields == nil {
		fields = map[string]any{}
	}
	fields["event"] = name
	return &protocol.Frame{Event: protocol.Event{Name: name, Fields: fields}}
}

func responseFrame(id int64) *protocol.Frame {
	return &protocol.Frame{IsResponse: true, RequestID: id, Error: protocol.ErrorSuccess}
}

func loadSpec() watchSpec {
	return watchSpec{
		start:   protocol.EventStartFile,
		success: []string{protocol.EventFileLoaded},
		failure: []string{protocol.EventEndFile},
	}
}

func TestWatcher(t *testing.T) {
	Convey("Given a watcher for a load operation", t, func() {
		w := newWatcher(loadSpec(), "clip.mp4")

		Convey("When the start event is followed by the success event", func() {
			So(w.observe(eventFrame(protocol.EventStartFile, nil)), ShouldBeFalse)
			So(w.observe(eventFrame(protocol.EventFileLoaded, nil)), ShouldBeTrue)

			Convey("Then it succeeds", func() {
				So(<-w.done, ShouldBeNil)
			})
		})

		Convey("When the start event is followed by a failure event", func() {
			So(w.observe(eventFrame(protocol.EventStartFile, nil)), ShouldBeFalse)
			So(w.observe(eventFrame(protocol.EventEndFile, map[string]any{"reason": "error"})), ShouldBeTrue)

			Convey("Then it fails with a load error naming the source", func() {
				err := <-w.done

				var loadErr *LoadError
				So(errors.As(err, &loadErr), ShouldBeTrue)
				So(loadErr.Source, ShouldEqual, "clip.mp4")
				So(loadErr.Reason, ShouldEqual, "error")
			})
		})

		Convey("When a success event arrives before the start event", func() {
			So(w.observe(eventFrame(protocol.EventFileLoaded, nil)), ShouldBeFalse)

			Convey("Then it stays non-terminal until armed", func() {
				So(w.started, ShouldBeFalse)
				So(w.observe(eventFrame(protocol.EventStartFile, nil)), ShouldBeFalse)
				So(w.observe(eventFrame(protocol.EventFileLoaded, nil)), ShouldBeTrue)
				So(<-w.done, ShouldBeNil)
			})
		})

		Convey("When a failure event arrives before the start event", func() {
			Convey("Then it is ignored", func() {
				So(w.observe(eventFrame(protocol.EventEndFile, nil)), ShouldBeFalse)
				So(w.observe(eventFrame(protocol.EventStartFile, nil)), ShouldBeFalse)
				So(w.observe(eventFrame(protocol.EventFileLoaded, nil)), ShouldBeTrue)
				So(<-w.done, ShouldBeNil)
			})
		})

		Convey("When the tick budget is exhausted by unrelated frames", func() {
			terminal := false
			for i := 0; i < watchBudget; i++ {
				terminal = w.observe(responseFrame(int64(i)))
			}

			Convey("Then it times out", func() {
				So(terminal, ShouldBeTrue)

				err := <-w.done
				So(errors.Is(err, ErrOperationTimeout), ShouldBeTrue)
				So(err.Error(), ShouldContainSubstring, "clip.mp4")
			})
		})

		Convey("When responses interleave with the state transitions", func() {
			So(w.observe(responseFrame(1)), ShouldBeFalse)
			So(w.observe(eventFrame(protocol.EventStartFile, nil)), ShouldBeFalse)
			So(w.observe(responseFrame(2)), ShouldBeFalse)

			Convey("Then only events drive transitions, every frame ticks", func() {
				So(w.ticks, ShouldEqual, 3)
				So(w.observe(eventFrame(protocol.EventFileLoaded, nil)), ShouldBeTrue)
				So(<-w.done, ShouldBeNil)
			})
		})

		Convey("When the watcher is aborted", func() {
			w.abort(ErrNotRunning)

			Convey("Then the pending wait resolves with the abort reason", func() {
				So(errors.Is(<-w.done, ErrNotRunning), ShouldBeTrue)
			})
		})
	})

	Convey("Given a watcher with several success events", t, func() {
		w := newWatcher(watchSpec{
			start:   protocol.EventStartFile,
			success: []string{protocol.EventFileLoaded, protocol.EventPlaybackRestart},
			failure: []string{protocol.EventEndFile},
		}, "playlist-next")

		Convey("When any of them arrives after the start event", func() {
			So(w.observe(eventFrame(protocol.EventStartFile, nil)), ShouldBeFalse)
			So(w.observe(eventFrame(protocol.EventPlaybackRestart, nil)), ShouldBeTrue)

			Convey("Then it succeeds", func() {
				So(<-w.done, ShouldBeNil)
			})
		})
	})
}
