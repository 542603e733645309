// Package ui implements the interactive now-playing terminal interface.
package ui

import (
	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/mpvctl-cli/mpvctl/mpv"
	"github.com/mpvctl-cli/mpvctl/protocol"
	"github.com/mpvctl-cli/mpvctl/util"
)

// model is the now-playing view: one session, one media title, a
// position bar fed by the player's periodic time updates.
type model struct {
	player *mpv.Player
	keymap *keymap

	progressC progress.Model
	spinnerC  spinner.Model
	helpC     help.Model

	title    string
	paused   bool
	loading  bool
	position float64
	duration float64
	err      error
	width    int
}

type playerEventMsg struct {
	event protocol.Event
}

type statusMsg struct {
	paused   bool
	duration float64
}

type opDoneMsg struct {
	err error
}

func newModel(player *mpv.Player, title string) *model {
	m := &model{
		player: player,
		keymap: newKeymap(),
		title:  title,
	}

	m.progressC = progress.New(progress.WithDefaultGradient())
	m.helpC = help.New()

	m.spinnerC = spinner.New()
	m.spinnerC.Spinner = spinner.Dot
	m.spinnerC.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	if w, _, err := util.TerminalSize(); err == nil {
		m.resize(w)
	}

	return m
}

func (m *model) resize(width int) {
	m.width = width
	m.progressC.Width = util.Min(width-20, 60)
	m.helpC.Width = width
}

// Run displays the now-playing view for an active session and blocks
// until the user quits it or the session dies.
func Run(player *mpv.Player, title string) error {
	m := newModel(player, title)
	program := tea.NewProgram(m)

	sub := player.Subscribe(func(ev protocol.Event) {
		program.Send(playerEventMsg{event: ev})
	})
	defer player.Unsubscribe(sub)

	_, err := program.Run()
	if err != nil {
		return err
	}
	return m.err
}
