// Package cmd implements the command-line interface for mpvctl.
package cmd

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/invopop/jsonschema"
	"github.com/mpvctl-cli/mpvctl/icon"
	"github.com/mpvctl-cli/mpvctl/mpv"
	"github.com/mpvctl-cli/mpvctl/style"
	"github.com/mpvctl-cli/mpvctl/util"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
)

// sessionStatus is the snapshot of a running session reported by the
// status command.
type sessionStatus struct {
	Socket        string  `json:"socket"`
	Path          string  `json:"path,omitempty" jsonschema:"description=Path or URL of the current media"`
	MediaTitle    string  `json:"media_title,omitempty"`
	Paused        bool    `json:"paused"`
	TimePos       float64 `json:"time_pos"`
	Duration      float64 `json:"duration"`
	Volume        float64 `json:"volume"`
	PlaylistPos   int     `json:"playlist_pos"`
	PlaylistCount int     `json:"playlist_count"`
}

func init() {
	rootCmd.AddCommand(statusCmd)
	statusCmd.Flags().StringP("socket", "s", "", "IPC socket of the session to inspect")
	statusCmd.Flags().BoolP("json", "j", false, "Format the output as a JSON string")
	statusCmd.Flags().Bool("schema", false, "Print the JSON schema of the status output and exit")
	statusCmd.SetOut(os.Stdout)
}

// statusCmd reports a snapshot of the running session.
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Display a snapshot of the running mpv session",
	Run: func(cmd *cobra.Command, args []string) {
		if lo.Must(cmd.Flags().GetBool("schema")) {
			schema := jsonschema.Reflect(&sessionStatus{})
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(schema))
			return
		}

		player := attachPlayer(cmd)
		status := collectStatus(player)

		if lo.Must(cmd.Flags().GetBool("json")) {
			encoder := json.NewEncoder(cmd.OutOrStdout())
			encoder.SetIndent("", "  ")
			handleErr(encoder.Encode(status))
			return
		}

		state := icon.Get(icon.Play)
		if status.Paused {
			state = icon.Get(icon.Pause)
		}

		title := status.MediaTitle
		if title == "" {
			title = status.Path
		}
		if title == "" {
			title = "(nothing loaded)"
		}

		cmd.Printf("%s %s\n", state, style.Bold(title))
		cmd.Printf(
			"%s / %s  %s\n",
			util.FormatTime(status.TimePos),
			util.FormatTime(status.Duration),
			style.Faint(fmt.Sprintf("volume %.0f%%", status.Volume)),
		)
		cmd.Printf(
			"%s\n",
			style.Faint(fmt.Sprintf(
				"entry %d of %s, socket %s",
				status.PlaylistPos+1,
				util.Quantify(status.PlaylistCount, "entry", "entries"),
				status.Socket,
			)),
		)
	},
}

// collectStatus polls the session for each reported property. Absent
// values (nothing loaded yet) are left at their zero value.
func collectStatus(player *mpv.Player) sessionStatus {
	status := sessionStatus{Socket: player.Socket()}

	if v, err := player.GetProperty("path"); err == nil {
		status.Path, _ = v.(string)
	}
	if v, err := player.GetProperty("media-title"); err == nil {
		status.MediaTitle, _ = v.(string)
	}
	if v, err := player.GetPausedStatus(); err == nil {
		status.Paused = v
	}
	if v, err := player.GetTimePos(); err == nil {
		status.TimePos = v
	}
	if v, err := player.GetDuration(); err == nil {
		status.Duration = v
	}
	if v, err := player.GetProperty("volume"); err == nil {
		status.Volume, _ = v.(float64)
	}
	if v, err := player.GetProperty("playlist-pos"); err == nil {
		if pos, ok := v.(float64); ok {
			status.PlaylistPos = int(pos)
		}
	}
	if v, err := player.GetProperty("playlist-count"); err == nil {
		if count, ok := v.(float64); ok {
			status.PlaylistCount = int(count)
		}
	}

	return status
}
