package mpv

import (
	"crypto/rand"
	"fmt"
	"path/filepath"

	"github.com/mpvctl-cli/mpvctl/constant"
)

// newSocketPath generates a randomized socket path inside dir.
// Randomization keeps concurrent sessions apart and prevents symlink
// attacks on a predictable name.
func newSocketPath(dir string) (string, error) {
	buf := make([]byte, 4)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate socket name: %w", err)
	}
	return filepath.Join(dir, fmt.Sprintf("%s-%x.sock", constant.Mpvctl, buf)), nil
}

// buildArgs computes the player's command line for one session.
// Only the flags the engine depends on are passed; everything else is
// left to the user's mpv.conf and the configured extra arguments.
func buildArgs(o Options, socketPath string) []string {
	args := []string{
		"--idle=yes",
		// The bound/bind-failed startup markers log on the ipc prefix;
		// raise its verbosity so the supervisor can sniff them.
		"--msg-level=ipc=v",
		fmt.Sprintf("--input-ipc-server=%s", socketPath),
	}

	if o.AudioOnly {
		args = append(args, "--no-video")
	}

	return append(args, o.ExtraArgs...)
}
