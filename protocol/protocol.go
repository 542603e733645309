// Package protocol implements mpv's newline-delimited JSON IPC wire format.
//
// Outbound messages are positional command arrays tagged with a request id.
// Inbound lines are either responses (carrying a request_id) or unsolicited
// events; exactly one of the two shapes per decoded line.
// See https://mpv.io/manual/stable/#json-ipc
package protocol

import (
	"encoding/json"
	"fmt"
)

// Delimiter separates frames on the wire.
const Delimiter = '\n'

// ErrorSuccess is the error field value the peer uses to signal a successful response.
const ErrorSuccess = "success"

// Peer-originated event names the engine reacts to.
const (
	EventStartFile       = "start-file"
	EventEndFile         = "end-file"
	EventFileLoaded      = "file-loaded"
	EventSeek            = "seek"
	EventPlaybackRestart = "playback-restart"
	EventTracksChanged   = "tracks-changed"
	EventPropertyChange  = "property-change"
)

// Locally synthesized event names, published through the same stream as peer events.
const (
	EventCrashed      = "crashed"
	EventTimePosition = "time-position"
)

// PropertyTimePos is the high-frequency playback position property, observed
// with the reserved subscription id 0 and intercepted before generic dispatch.
const PropertyTimePos = "time-pos"

// Request is the outbound command envelope.
type Request struct {
	Command   []any `json:"command"`
	RequestID int64 `json:"request_id"`
}

// Encode serializes a request followed by the frame delimiter.
func (r Request) Encode() ([]byte, error) {
	payload, err := json.Marshal(r)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	return append(payload, Delimiter), nil
}

// Event is an unsolicited peer notification (or a locally synthesized one).
type Event struct {
	Name   string
	Fields map[string]any
}

// Property returns the property name of a property-change event.
func (e Event) Property() string {
	name, _ := e.Fields["name"].(string)
	return name
}

// Data returns the payload value carried by the event, if any.
func (e Event) Data() any {
	return e.Fields["data"]
}

// Reason returns the reason field of an end-file event.
func (e Event) Reason() string {
	reason, _ := e.Fields["reason"].(string)
	return reason
}

// Frame is one decoded inbound message: either a response or an event.
type Frame struct {
	IsResponse bool
	RequestID  int64
	Error      string
	Data       any
	Event      Event
}

// Succeeded reports whether a response frame carries a successful outcome.
func (f *Frame) Succeeded() bool {
	return f.Error == ErrorSuccess
}

// Parse decodes a single inbound line and classifies it.
// A line that is neither a response nor an event indicates protocol
// desynchronization and is returned as an error.
func Parse(line []byte) (*Frame, error) {
	var raw map[string]any
	if err := json.Unmarshal(line, &raw); err != nil {
		return nil, fmt.Errorf("decode frame: %w", err)
	}

	if id, ok := raw["request_id"]; ok {
		num, ok := id.(float64)
		if !ok {
			return nil, fmt.Errorf("decode frame: request_id is %T, not a number", id)
		}
		errField, _ := raw["error"].(string)
		return &Frame{
			IsResponse: true,
			RequestID:  int64(num),
			Error:      errField,
			Data:       raw["data"],
		}, nil
	}

	name, ok := raw["event"].(string)
	if !ok {
		return nil, fmt.Errorf("decode frame: no request_id and no event name")
	}
	return &Frame{Event: Event{Name: name, Fields: raw}}, nil
}
