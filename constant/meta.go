// Package constant defines immutable application-level identifiers and configuration defaults.
package constant

const (
	// Mpvctl is the canonical application identifier used for filesystem paths and CLI branding.
	Mpvctl = "mpvctl"

	// Version is the current application semantic version string.
	Version = "0.1.0"

	// DefaultPlayerBinary is the executable looked up on PATH when no override is configured.
	DefaultPlayerBinary = "mpv"
)

// Build metadata, injected at link time by the release pipeline.
var (
	BuiltAt  = "unknown"
	BuiltBy  = "unknown"
	Revision = "unknown"
)
