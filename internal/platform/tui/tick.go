// Package tui provides the Bubble Tea scrubber for recordings, locally and
// over SSH via Wish.
package tui

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"
)

// PlayMsg advances playback by one frame. Messages from an earlier playback
// run carry a stale Gen and are dropped.
type PlayMsg struct {
	Gen  int
	Time time.Time
}

// playCmd returns a Bubble Tea command that sends a PlayMsg after one frame
// at the given rate.
func playCmd(rate, gen int) tea.Cmd {
	interval := time.Second / time.Duration(rate)
	return tea.Tick(interval, func(t time.Time) tea.Msg {
		return PlayMsg{Gen: gen, Time: t}
	})
}
