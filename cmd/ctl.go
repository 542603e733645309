// Package cmd implements the command-line interface for mpvctl.
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	levenshtein "github.com/ka-weihe/fast-levenshtein"
	"github.com/mpvctl-cli/mpvctl/color"
	"github.com/mpvctl-cli/mpvctl/icon"
	"github.com/mpvctl-cli/mpvctl/mpv"
	"github.com/mpvctl-cli/mpvctl/style"
	"github.com/mpvctl-cli/mpvctl/where"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// commonProperties is the vocabulary used for shell completion and
// typo suggestions. mpv accepts many more; these are the ones the
// controller surface is built around.
var commonProperties = []string{
	"pause", "volume", "mute", "speed", "duration", "time-pos",
	"percent-pos", "media-title", "path", "playlist-count",
	"playlist-pos", "loop-file", "loop-playlist", "chapter",
	"sub-delay", "audio-delay",
}

func suggestProperty(name string) string {
	closest := lo.MinBy(commonProperties, func(a string, b string) bool {
		return levenshtein.Distance(name, a) < levenshtein.Distance(name, b)
	})
	return fmt.Sprintf(
		"%s (did you mean %s?)",
		style.Fg(color.Red)(name),
		style.Fg(color.Yellow)(closest),
	)
}

func completionProperties(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
	return commonProperties, cobra.ShellCompDirectiveNoFileComp
}

// attachPlayer connects to a running session, either through the
// --socket flag or by discovering a socket file in the sockets dir.
func attachPlayer(cmd *cobra.Command) *mpv.Player {
	socket := lo.Must(cmd.Flags().GetString("socket"))

	if socket == "" {
		matches, err := filepath.Glob(filepath.Join(where.Sockets(), "*.sock"))
		handleErr(err)
		if len(matches) == 0 {
			handleErr(errors.New("no running session found, pass --socket or start one with play --detach"))
		}
		socket = matches[0]
	}

	player := mpv.New(mpv.OptionsFromConfig())
	handleErr(player.Attach(socket))
	return player
}

// parseValue interprets a property value the way mpv would: booleans
// and numbers when they parse, a string otherwise.
func parseValue(raw string) any {
	if b, err := strconv.ParseBool(raw); err == nil {
		return b
	}
	if f, err := strconv.ParseFloat(raw, 64); err == nil {
		return f
	}
	return raw
}

func init() {
	rootCmd.AddCommand(ctlCmd)
	ctlCmd.PersistentFlags().StringP("socket", "s", "", "IPC socket of the session to control")
}

// ctlCmd is the parent command for controlling a running session.
var ctlCmd = &cobra.Command{
	Use:   "ctl",
	Short: "Control a running mpv session over its IPC socket",
}

func init() {
	ctlCmd.AddCommand(ctlGetCmd)
}

var ctlGetCmd = &cobra.Command{
	Use:               "get <property>",
	Short:             "Retrieve the current value of a player property",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionProperties,
	Run: func(cmd *cobra.Command, args []string) {
		player := attachPlayer(cmd)

		value, err := player.GetProperty(args[0])
		if err != nil {
			var cmdErr *mpv.CommandError
			if errors.As(err, &cmdErr) {
				handleErr(fmt.Errorf("%s: %s", cmdErr.Reason, suggestProperty(args[0])))
			}
			handleErr(err)
		}

		fmt.Println(value)
	},
}

func init() {
	ctlCmd.AddCommand(ctlSetCmd)
}

var ctlSetCmd = &cobra.Command{
	Use:               "set <property> <value>",
	Short:             "Assign a player property",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionProperties,
	Run: func(cmd *cobra.Command, args []string) {
		player := attachPlayer(cmd)
		handleErr(player.SetProperty(args[0], parseValue(args[1])))

		fmt.Printf(
			"%s set %s to %s\n",
			style.Fg(color.Green)(icon.Get(icon.Success)),
			style.Fg(color.Purple)(args[0]),
			style.Fg(color.Yellow)(args[1]),
		)
	},
}

func init() {
	ctlCmd.AddCommand(ctlCycleCmd)
}

var ctlCycleCmd = &cobra.Command{
	Use:               "cycle <property>",
	Short:             "Step a player property through its value cycle",
	Args:              cobra.ExactArgs(1),
	ValidArgsFunction: completionProperties,
	Run: func(cmd *cobra.Command, args []string) {
		player := attachPlayer(cmd)
		handleErr(player.CycleProperty(args[0]))
	},
}

func init() {
	ctlCmd.AddCommand(ctlAddCmd)
}

var ctlAddCmd = &cobra.Command{
	Use:               "add <property> <delta>",
	Short:             "Add a delta to a numeric player property",
	Args:              cobra.ExactArgs(2),
	ValidArgsFunction: completionProperties,
	Run: func(cmd *cobra.Command, args []string) {
		player := attachPlayer(cmd)
		handleErr(player.AddProperty(args[0], parseValue(args[1])))
	},
}

func init() {
	ctlCmd.AddCommand(ctlSeekCmd)
	ctlSeekCmd.Flags().BoolP("absolute", "a", false, "Interpret the offset as an absolute position in seconds")
}

var ctlSeekCmd = &cobra.Command{
	Use:   "seek <offset>",
	Short: "Move the playback position",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		offset, err := strconv.ParseFloat(args[0], 64)
		handleErr(err)

		mode := mpv.SeekRelative
		if lo.Must(cmd.Flags().GetBool("absolute")) {
			mode = mpv.SeekAbsolute
		}

		player := attachPlayer(cmd)
		handleErr(player.Seek(offset, mode))
	},
}

func init() {
	ctlCmd.AddCommand(ctlNextCmd, ctlPrevCmd)
	ctlNextCmd.Flags().BoolP("force", "f", false, "Terminate playback if there is no next entry")
	ctlPrevCmd.Flags().BoolP("force", "f", false, "Terminate playback if there is no previous entry")
}

func navMode(cmd *cobra.Command) mpv.NavMode {
	if lo.Must(cmd.Flags().GetBool("force")) {
		return mpv.NavForce
	}
	return mpv.NavWeak
}

var ctlNextCmd = &cobra.Command{
	Use:   "next",
	Short: "Advance to the next playlist entry",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		player := attachPlayer(cmd)
		handleErr(player.PlaylistNext(navMode(cmd)))
	},
}

var ctlPrevCmd = &cobra.Command{
	Use:   "prev",
	Short: "Return to the previous playlist entry",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		player := attachPlayer(cmd)
		handleErr(player.PlaylistPrev(navMode(cmd)))
	},
}

func init() {
	ctlCmd.AddCommand(ctlJumpCmd)
}

var ctlJumpCmd = &cobra.Command{
	Use:   "jump <index>",
	Short: "Start playback of the playlist entry at the given index",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		index, err := strconv.Atoi(args[0])
		handleErr(err)

		player := attachPlayer(cmd)
		handleErr(player.PlaylistJump(index))
	},
}

func init() {
	ctlCmd.AddCommand(ctlToggleCmd)
}

var ctlToggleCmd = &cobra.Command{
	Use:     "toggle",
	Short:   "Toggle between paused and playing",
	Aliases: []string{"pause"},
	Args:    cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		player := attachPlayer(cmd)
		handleErr(player.TogglePause())
	},
}

func init() {
	ctlCmd.AddCommand(ctlLoadCmd)
	ctlLoadCmd.Flags().String("mode", "replace", "Load mode: replace, append or append-play")
	ctlLoadCmd.Flags().Bool("playlist", false, "Treat the source as a playlist file")
}

var ctlLoadCmd = &cobra.Command{
	Use:   "load <source>",
	Short: "Load a file or URL into the running session",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		mode := mpv.LoadMode(lo.Must(cmd.Flags().GetString("mode")))
		player := attachPlayer(cmd)

		if lo.Must(cmd.Flags().GetBool("playlist")) {
			handleErr(player.LoadPlaylist(args[0], mode))
		} else {
			handleErr(player.Load(args[0], mode))
		}
	},
}

func init() {
	ctlCmd.AddCommand(ctlShowTextCmd)
	ctlShowTextCmd.Flags().IntP("duration", "d", 3000, "How long to display the text, in milliseconds")
}

var ctlShowTextCmd = &cobra.Command{
	Use:   "show-text <text>",
	Short: "Display a message on the player's on-screen display",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		player := attachPlayer(cmd)
		handleErr(player.ShowText(strings.Join(args, " "), lo.Must(cmd.Flags().GetInt("duration"))))
	},
}

func init() {
	ctlCmd.AddCommand(ctlQuitCmd)
}

var ctlQuitCmd = &cobra.Command{
	Use:   "quit",
	Short: "Terminate the running session",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		player := attachPlayer(cmd)
		handleErr(player.Quit())
	},
}
