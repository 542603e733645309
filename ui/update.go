package ui

import (
	"errors"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/mpvctl-cli/mpvctl/mpv"
	"github.com/mpvctl-cli/mpvctl/protocol"
)

func (m *model) Init() tea.Cmd {
	return tea.Batch(m.spinnerC.Tick, m.refreshStatus)
}

// refreshStatus polls the player for the facts the view cannot derive
// from the event stream alone.
func (m *model) refreshStatus() tea.Msg {
	paused, err := m.player.GetPausedStatus()
	if err != nil {
		return opDoneMsg{err: err}
	}

	// duration is unavailable while nothing is loaded; keep the old value.
	duration, err := m.player.GetDuration()
	if err != nil {
		duration = m.duration
	}

	return statusMsg{paused: paused, duration: duration}
}

// op runs one blocking player operation off the update loop.
func (m *model) op(run func() error) tea.Cmd {
	return func() tea.Msg {
		return opDoneMsg{err: run()}
	}
}

func (m *model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)

	case playerEventMsg:
		return m.handleEvent(msg.event)

	case statusMsg:
		m.paused = msg.paused
		if msg.duration > 0 {
			m.duration = msg.duration
		}
		return m, nil

	case opDoneMsg:
		if msg.err != nil {
			if errors.Is(msg.err, mpv.ErrNotRunning) {
				return m, tea.Quit
			}
			m.err = msg.err
			return m, tea.Quit
		}
		return m, m.refreshStatus

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinnerC, cmd = m.spinnerC.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m *model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch {
	case key.Matches(msg, m.keymap.quit), key.Matches(msg, m.keymap.forceQuit):
		return m, tea.Quit

	case key.Matches(msg, m.keymap.playPause):
		return m, m.op(m.player.TogglePause)

	case key.Matches(msg, m.keymap.seekBack):
		return m, m.op(func() error { return m.player.Seek(-5, mpv.SeekRelative) })

	case key.Matches(msg, m.keymap.seekForward):
		return m, m.op(func() error { return m.player.Seek(5, mpv.SeekRelative) })

	case key.Matches(msg, m.keymap.next):
		m.loading = true
		return m, m.op(func() error { return m.player.PlaylistNext(mpv.NavWeak) })

	case key.Matches(msg, m.keymap.prev):
		m.loading = true
		return m, m.op(func() error { return m.player.PlaylistPrev(mpv.NavWeak) })
	}

	return m, nil
}

func (m *model) handleEvent(ev protocol.Event) (tea.Model, tea.Cmd) {
	switch ev.Name {
	case protocol.EventTimePosition:
		if pos, ok := ev.Data().(float64); ok {
			m.position = pos
		}
		return m, nil

	case protocol.EventStartFile:
		m.loading = true
		m.position = 0
		return m, nil

	case protocol.EventFileLoaded:
		m.loading = false
		return m, m.refreshStatus

	case protocol.EventCrashed:
		m.err = mpv.ErrNotRunning
		return m, tea.Quit
	}

	return m, nil
}
