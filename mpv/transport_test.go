package mpv

import (
	"bufio"
	"encoding/json"
	"errors"
	"net"
	"testing"
	"time"

	"github.com/mpvctl-cli/mpvctl/protocol"
	. "github.com/smartystreets/goconvey/convey"
)

func TestConn(t *testing.T) {
	Convey("Given a connection over an in-memory pipe", t, func() {
		peer, local := net.Pipe()
		conn := &Conn{c: local}

		frames := make(chan *protocol.Frame, 16)
		closes := make(chan error, 16)
		conn.Listen(
			func(f *protocol.Frame) { frames <- f },
			func(err error) { closes <- err },
		)

		Reset(func() {
			_ = peer.Close()
			_ = conn.Close()
		})

		Convey("When several frames arrive in one write", func() {
			_, err := peer.Write([]byte(
				`{"request_id":1,"error":"success","data":50}` + "\n" +
					"\n" +
					`{"event":"seek"}` + "\n",
			))
			So(err, ShouldBeNil)

			Convey("Then each frame is delivered separately, empty lines skipped", func() {
				first := <-frames
				So(first.IsResponse, ShouldBeTrue)
				So(first.RequestID, ShouldEqual, 1)
				So(first.Data, ShouldEqual, 50.0)

				second := <-frames
				So(second.IsResponse, ShouldBeFalse)
				So(second.Event.Name, ShouldEqual, protocol.EventSeek)

				So(len(frames), ShouldEqual, 0)
			})
		})

		Convey("When the peer emits a malformed frame", func() {
			_, err := peer.Write([]byte("not json\n"))
			So(err, ShouldBeNil)

			Convey("Then the connection tears down with a desync error, once", func() {
				So(errors.Is(<-closes, ErrProtocolDesync), ShouldBeTrue)

				_ = conn.Close()
				So(len(closes), ShouldEqual, 0)
			})
		})

		Convey("When a request is sent", func() {
			lines := make(chan string, 1)
			go func() {
				scanner := bufio.NewScanner(peer)
				if scanner.Scan() {
					lines <- scanner.Text()
				}
			}()

			err := conn.Send(protocol.Request{
				Command:   []any{"get_property", "volume"},
				RequestID: 7,
			})

			Convey("Then one delimited frame reaches the peer", func() {
				So(err, ShouldBeNil)

				var req protocol.Request
				So(json.Unmarshal([]byte(<-lines), &req), ShouldBeNil)
				So(req.RequestID, ShouldEqual, 7)
				So(req.Command, ShouldResemble, []any{"get_property", "volume"})
			})
		})

		Convey("When the connection is closed locally", func() {
			So(conn.Close(), ShouldBeNil)

			Convey("Then the close notification fires exactly once", func() {
				So(<-closes, ShouldBeNil)

				_ = conn.Close()
				select {
				case <-closes:
					t.Fatal("second close notification")
				case <-time.After(50 * time.Millisecond):
				}
			})

			Convey("Then further sends fail", func() {
				<-closes
				err := conn.Send(protocol.Request{Command: []any{"quit"}})
				So(errors.Is(err, ErrSendFailure), ShouldBeTrue)
			})
		})
	})
}
