// Package cmd implements the command-line interface for mpvctl.
package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/AlecAivazis/survey/v2"
	"github.com/mpvctl-cli/mpvctl/filesystem"
	"github.com/mpvctl-cli/mpvctl/icon"
	"github.com/mpvctl-cli/mpvctl/key"
	"github.com/mpvctl-cli/mpvctl/log"
	"github.com/mpvctl-cli/mpvctl/mpv"
	"github.com/mpvctl-cli/mpvctl/protocol"
	"github.com/mpvctl-cli/mpvctl/recent"
	"github.com/mpvctl-cli/mpvctl/script"
	"github.com/mpvctl-cli/mpvctl/style"
	"github.com/mpvctl-cli/mpvctl/ui"
	"github.com/samber/lo"
	"github.com/samber/mo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().BoolP("audio-only", "a", false, "Start the player without a video output")
	lo.Must0(viper.BindPFlag(key.PlayerAudioOnly, playCmd.Flags().Lookup("audio-only")))

	playCmd.Flags().BoolP("auto-restart", "r", false, "Restart the player session after an unexpected crash")
	lo.Must0(viper.BindPFlag(key.PlayerAutoRestart, playCmd.Flags().Lookup("auto-restart")))

	playCmd.Flags().StringP("hook", "H", "", "Lua script receiving every player event")
	playCmd.Flags().BoolP("detach", "d", false, "Start playback and leave the player running in the background")
}

// playCmd spawns a player session and loads the requested sources.
var playCmd = &cobra.Command{
	Use:   "play [sources...]",
	Short: "Spawn mpv and play the given files or URLs",
	Args:  cobra.ArbitraryArgs,
	Run: func(cmd *cobra.Command, args []string) {
		sources := args
		if len(sources) == 0 {
			choices := recent.List()
			if len(choices) == 0 {
				handleErr(errors.New("no sources given and the recently played registry is empty"))
			}

			var picked string
			handleErr(survey.AskOne(&survey.Select{
				Message: "Play a recent source",
				Options: choices,
			}, &picked))
			sources = []string{picked}
		}

		player := mpv.New(mpv.OptionsFromConfig())
		handleErr(player.Start())

		if hookPath := lo.Must(cmd.Flags().GetString("hook")); hookPath != "" {
			hook, err := script.Load(hookPath)
			handleErr(err)
			defer hook.Close()

			player.Subscribe(func(ev protocol.Event) {
				if err := hook.OnEvent(ev.Name, ev.Fields); err != nil {
					log.Warn(err)
				}
			})
		}

		for i, source := range sources {
			if suggestion, ok := suggestFor(source).Get(); ok {
				replace := false
				err := survey.AskOne(&survey.Confirm{
					Message: fmt.Sprintf("%s does not exist, play %s instead?", source, suggestion),
					Default: true,
				}, &replace)
				if err == nil && replace {
					source = suggestion
				}
			}

			mode := mpv.LoadAppend
			if i == 0 {
				mode = mpv.LoadReplace
			}

			if err := player.Load(source, mode); err != nil {
				_ = player.Close()
				handleErr(err)
			}

			if err := recent.Remember(source, 1); err != nil {
				log.Warn(err)
			}
		}

		if lo.Must(cmd.Flags().GetBool("detach")) {
			fmt.Printf(
				"%s playing %s\n%s\n",
				icon.Get(icon.Play),
				style.Bold(sources[0]),
				style.Faint("socket: "+player.Socket()),
			)
			return
		}

		handleErr(ui.Run(player, filepath.Base(sources[0])))
		handleErr(player.Close())
	},
}

// suggestFor returns a recently played replacement for a local source
// that is missing on disk. URLs pass through untouched.
func suggestFor(source string) mo.Option[string] {
	if strings.Contains(source, "://") {
		return mo.None[string]()
	}

	if exists, err := filesystem.API().Exists(source); err == nil && exists {
		return mo.None[string]()
	}

	return recent.Suggest(source)
}
