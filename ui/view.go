package ui

import (
	"fmt"
	"strings"

	"github.com/mpvctl-cli/mpvctl/icon"
	"github.com/mpvctl-cli/mpvctl/style"
	"github.com/mpvctl-cli/mpvctl/util"
	"github.com/muesli/reflow/truncate"
)

func (m *model) View() string {
	var b strings.Builder

	status := icon.Get(icon.Play)
	if m.paused {
		status = icon.Get(icon.Pause)
	}

	title := m.title
	if m.width > 4 {
		title = truncate.StringWithTail(title, uint(m.width-4), "…")
	}

	if m.loading {
		b.WriteString(fmt.Sprintf("%s Loading %s\n", m.spinnerC.View(), style.Bold(title)))
	} else {
		b.WriteString(fmt.Sprintf("%s %s\n", status, style.Bold(title)))
	}

	var percent float64
	if m.duration > 0 {
		percent = util.Min(m.position/m.duration, 1)
	}

	b.WriteString(fmt.Sprintf(
		"%s %s %s\n",
		style.Faint(util.FormatTime(m.position)),
		m.progressC.ViewAs(percent),
		style.Faint(util.FormatTime(m.duration)),
	))

	b.WriteString(m.helpC.View(m.keymap))
	b.WriteString("\n")

	return b.String()
}
