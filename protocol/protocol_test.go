package protocol

import (
	"encoding/json"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
)

func TestEncode(t *testing.T) {
	Convey("Request.Encode", t, func() {
		Convey("Should produce a delimited positional command array", func() {
			req := Request{Command: []any{"get_property", "volume"}, RequestID: 3}
			data, err := req.Encode()
			So(err, ShouldBeNil)
			So(data[len(data)-1], ShouldEqual, byte(Delimiter))

			var decoded map[string]any
			So(json.Unmarshal(data[:len(data)-1], &decoded), ShouldBeNil)
			So(decoded["request_id"], ShouldEqual, 3)
			So(decoded["command"], ShouldResemble, []any{"get_property", "volume"})
		})

		Convey("Request id zero is still present on the wire", func() {
			req := Request{Command: []any{"quit"}}
			data, err := req.Encode()
			So(err, ShouldBeNil)
			So(string(data), ShouldContainSubstring, `"request_id":0`)
		})
	})
}

func TestParse(t *testing.T) {
	Convey("Parse", t, func() {
		Convey("Classifies a response frame", func() {
			frame, err := Parse([]byte(`{"request_id":7,"error":"success","data":50}`))
			So(err, ShouldBeNil)
			So(frame.IsResponse, ShouldBeTrue)
			So(frame.RequestID, ShouldEqual, 7)
			So(frame.Succeeded(), ShouldBeTrue)
			So(frame.Data, ShouldEqual, 50.0)
		})

		Convey("Classifies an error response", func() {
			frame, err := Parse([]byte(`{"request_id":1,"error":"property unavailable"}`))
			So(err, ShouldBeNil)
			So(frame.IsResponse, ShouldBeTrue)
			So(frame.Succeeded(), ShouldBeFalse)
		})

		Convey("Classifies an event frame", func() {
			frame, err := Parse([]byte(`{"event":"property-change","id":2,"name":"pause","data":true}`))
			So(err, ShouldBeNil)
			So(frame.IsResponse, ShouldBeFalse)
			So(frame.Event.Name, ShouldEqual, EventPropertyChange)
			So(frame.Event.Property(), ShouldEqual, "pause")
			So(frame.Event.Data(), ShouldEqual, true)
		})

		Convey("Carries the end-file reason", func() {
			frame, err := Parse([]byte(`{"event":"end-file","reason":"error","file_error":"loading failed"}`))
			So(err, ShouldBeNil)
			So(frame.Event.Reason(), ShouldEqual, "error")
		})

		Convey("Rejects malformed JSON", func() {
			_, err := Parse([]byte(`{"event":`))
			So(err, ShouldNotBeNil)
		})

		Convey("Rejects a frame that is neither response nor event", func() {
			_, err := Parse([]byte(`{"name":"pause"}`))
			So(err, ShouldNotBeNil)
		})
	})
}
