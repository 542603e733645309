// Package mpv implements the client side of mpv's JSON-IPC protocol: a
// single-connection engine that correlates commands with responses,
// demultiplexes the unsolicited event stream, and layers bounded
// wait-for-state-transition primitives on top of it.
package mpv

import (
	"errors"
	"fmt"
)

// Sentinel conditions surfaced by the engine.
var (
	// ErrNotRunning is returned when an operation is issued while no session is active.
	ErrNotRunning = errors.New("player is not running")

	// ErrAlreadyRunning is returned when a start is requested on an active session.
	ErrAlreadyRunning = errors.New("player is already running")

	// ErrUnsupportedSource is returned when a load target carries a scheme outside the allow-list.
	ErrUnsupportedSource = errors.New("unsupported source scheme")

	// ErrOperationTimeout is returned when a watcher exhausts its tick budget.
	ErrOperationTimeout = errors.New("timed out waiting for player state transition")

	// ErrBindFailure is returned when the spawned player never binds its IPC endpoint.
	ErrBindFailure = errors.New("player could not bind its IPC endpoint")

	// ErrSendFailure is returned when a write to a dead or absent connection fails.
	ErrSendFailure = errors.New("write to player connection failed")

	// ErrProtocolDesync is returned when the peer emits a malformed frame.
	// The peer is trusted to emit well-formed JSON, so this is fatal to the connection.
	ErrProtocolDesync = errors.New("malformed frame from player")
)

// LoadError reports that the peer abandoned a file before reaching the
// expected playback state. It carries the identity of the failed source.
type LoadError struct {
	Source string
	Reason string
}

func (e *LoadError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("failed to load %s: %s", e.Source, e.Reason)
	}
	return fmt.Sprintf("failed to load %s", e.Source)
}

// CommandError is a peer-reported command failure, carrying the error
// string from the response frame.
type CommandError struct {
	Reason string
}

func (e *CommandError) Error() string {
	return "mpv: " + e.Reason
}
