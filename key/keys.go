// Package key defines the canonical set of configuration identifiers used for centralized settings management.
package key

// Player Process - these keys govern how the mpv process is spawned and supervised.
const (
	PlayerPath               = "player.path"
	PlayerAudioOnly          = "player.audio_only"
	PlayerExtraArgs          = "player.extra_args"
	PlayerAutoRestart        = "player.auto_restart"
	PlayerTimeUpdateInterval = "player.time_update_interval"
	PlayerSocketDir          = "player.socket_dir"
)

// Recently Played - these keys configure the persistence of playback sources.
const (
	RecentEnable      = "recent.enable"
	RecentSuggestions = "recent.suggestions"
)

// Iconography - these keys manage the visual rendering of UI symbols.
const (
	IconsVariant = "icons.variant"
)

// Logging Infrastructure - these keys manage the application's internal diagnostics and auditing system.
const (
	LogsWrite = "logs.write"
	LogsLevel = "logs.level"
	LogsJson  = "logs.json"
)

// CLI Execution Environment - these flags and settings govern general CLI behavior.
const (
	CliColored      = "cli.colored"
	CliVersionCheck = "cli.version_check"
)
