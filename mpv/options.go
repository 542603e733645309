package mpv

import (
	"time"

	"github.com/mpvctl-cli/mpvctl/constant"
	"github.com/mpvctl-cli/mpvctl/key"
	"github.com/mpvctl-cli/mpvctl/where"
	"github.com/spf13/viper"
)

// Options carries the externally supplied session configuration. The
// engine uses the resulting values as-is; parsing and validation happen
// at the configuration surface.
type Options struct {
	// Path overrides the player binary; empty means look up "mpv" on PATH.
	Path string

	// AudioOnly starts the player without a video output.
	AudioOnly bool

	// ExtraArgs are appended verbatim to the computed argument list.
	ExtraArgs []string

	// SocketDir is the directory for the session's IPC socket file.
	SocketDir string

	// AutoRestart transparently restarts the session after a crash.
	AutoRestart bool

	// TimeUpdateInterval is the period of the time-position emitter.
	TimeUpdateInterval time.Duration
}

// OptionsFromConfig builds session options from the global configuration.
func OptionsFromConfig() Options {
	return Options{
		Path:               viper.GetString(key.PlayerPath),
		AudioOnly:          viper.GetBool(key.PlayerAudioOnly),
		ExtraArgs:          viper.GetStringSlice(key.PlayerExtraArgs),
		SocketDir:          viper.GetString(key.PlayerSocketDir),
		AutoRestart:        viper.GetBool(key.PlayerAutoRestart),
		TimeUpdateInterval: time.Duration(viper.GetInt(key.PlayerTimeUpdateInterval)) * time.Second,
	}
}

func (o *Options) withDefaults() {
	if o.Path == "" {
		o.Path = constant.DefaultPlayerBinary
	}
	if o.SocketDir == "" {
		o.SocketDir = where.Sockets()
	}
	if o.TimeUpdateInterval <= 0 {
		o.TimeUpdateInterval = time.Second
	}
}
