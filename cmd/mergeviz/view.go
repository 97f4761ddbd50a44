package main

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/dd0wney/kway-mergeviz/pkg/merge"
	"github.com/dd0wney/kway-mergeviz/pkg/playback"
	"github.com/dd0wney/kway-mergeviz/pkg/streams"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FF00FF")).
			MarginLeft(2).
			MarginTop(1)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginLeft(2)

	boardStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#00FFFF")).
			Padding(0, 1).
			MarginLeft(2)

	outputStyle = lipgloss.NewStyle().
			BorderStyle(lipgloss.DoubleBorder()).
			BorderForeground(lipgloss.Color("#FFFF00")).
			Padding(0, 1).
			MarginLeft(2)

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FFFF"))

	poppedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#555555"))

	lastStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	headStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#FF00FF"))

	pendingStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#DDDDDD"))

	autoStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("#00FF00"))

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)

	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#00FF00")).
			Bold(true)

	helpStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			MarginTop(1).
			MarginLeft(2)
)

// cellWidth is the rendered width of one element, including its separator.
const cellWidth = 4

func (m model) View() string {
	if m.width == 0 {
		return "Initializing..."
	}

	var s strings.Builder
	snap := m.snap.Engine

	s.WriteString(titleStyle.Render("K-way Merge Visualizer"))
	s.WriteString("\n")
	s.WriteString(m.renderInfo())
	s.WriteString("\n\n")

	s.WriteString(boardStyle.Render(renderStreams(snap)))
	s.WriteString("\n")
	s.WriteString(outputStyle.Render(m.renderOutput()))
	s.WriteString("\n\n")

	s.WriteString(infoStyle.Render(fmt.Sprintf("Comparisons: %d", snap.Comparisons)))
	s.WriteString("\n")
	if m.statusErr {
		s.WriteString(infoStyle.Render(errorStyle.Render("✗ " + m.status)))
	} else {
		s.WriteString(infoStyle.Render(successStyle.Render(m.status)))
	}
	s.WriteString("\n")

	if m.editing {
		s.WriteString("\n")
		s.WriteString(infoStyle.Render(m.seedInput.View()))
		s.WriteString("\n")
		s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.editHelp())))
	} else {
		s.WriteString(helpStyle.Render(m.help.ShortHelpView(m.keys.ShortHelp())))
	}
	return s.String()
}

func (m model) renderInfo() string {
	snap := m.snap.Engine
	mode := "Manual"
	if m.snap.Mode == playback.Auto {
		mode = autoStyle.Render("Auto")
	}

	session := snap.Session
	if len(session) > 8 {
		session = session[:8]
	}

	return infoStyle.Render(fmt.Sprintf("Seed %d · K=%d · Length %d · %s · Mode %s · Speed %s · Session %s",
		snap.Config.Seed,
		len(snap.Streams),
		snap.Config.StreamLength,
		snap.State,
		mode,
		m.snap.Speed,
		session,
	))
}

func renderStreams(snap merge.Snapshot) string {
	if len(snap.Streams) == 0 {
		return "No streams"
	}

	rows := make([]string, 0, len(snap.Streams))
	for _, st := range snap.Streams {
		var row strings.Builder
		row.WriteString(labelStyle.Render(fmt.Sprintf("S%-2d", st.ID)))
		row.WriteString(" │")
		for i, v := range st.Data {
			cell := fmt.Sprintf("%*d", cellWidth-1, v)
			switch {
			case isLast(snap.Last, st, i):
				cell = lastStyle.Render(cell)
			case i < st.HeadIndex:
				cell = poppedStyle.Render(cell)
			case i == st.HeadIndex:
				cell = headStyle.Render(cell)
			default:
				cell = pendingStyle.Render(cell)
			}
			row.WriteString(" ")
			row.WriteString(cell)
		}
		row.WriteString("  head: ")
		row.WriteString(st.Head().String())
		rows = append(rows, row.String())
	}
	return lipgloss.JoinVertical(lipgloss.Left, rows...)
}

func isLast(last *merge.StepRecord, st streams.Stream, i int) bool {
	return last != nil && last.StreamID == st.ID && i == st.HeadIndex-1
}

// renderOutput shows the tail of the output that fits the terminal, so the
// latest element is always visible.
func (m model) renderOutput() string {
	out := m.snap.Engine.Output
	label := labelStyle.Render("Output") + " │"

	fit := (m.width - 16) / cellWidth
	if fit < 4 {
		fit = 4
	}

	var s strings.Builder
	s.WriteString(label)
	if len(out) == 0 {
		s.WriteString(" (empty)")
		return s.String()
	}
	if len(out) > fit {
		s.WriteString(" …")
		out = out[len(out)-fit:]
	}
	for _, v := range out {
		s.WriteString(fmt.Sprintf(" %*d", cellWidth-1, v))
	}
	return s.String()
}
