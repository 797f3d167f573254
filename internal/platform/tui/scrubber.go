package tui

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tickrec/internal/config"
	"github.com/vovakirdan/tickrec/internal/model"
	"github.com/vovakirdan/tickrec/internal/replay"
)

// Scrubber layout constants
const (
	minWidthForSideBySide = 100 // map and table side by side from this width
	chromeHeight          = 8   // title, status, help and margins
)

var (
	titleStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("229"))
	statusStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("252"))
	errorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	helpStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	panelStyle  = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("240"))
)

// ScrubberModel is the Bubble Tea model for stepping through a recording.
// It owns rec's window; give each model its own Clone.
type ScrubberModel struct {
	rec     *replay.Recording
	cps     []replay.Checkpoint
	cfg     config.ViewerConfig
	title   string
	cursor  int
	state   *model.State
	err     error
	pending string // digits typed for a go-to

	playing bool
	playGen int

	table    table.Model
	help     help.Model
	keys     KeyMap
	width    int
	height   int
	quitting bool
}

// NewScrubberModel creates a scrubber positioned on the first frame.
func NewScrubberModel(rec *replay.Recording, cfg config.ViewerConfig, title string) ScrubberModel {
	h := help.New()
	h.ShowAll = false

	m := ScrubberModel{
		rec:    rec,
		cps:    rec.Checkpoints(),
		cfg:    cfg,
		title:  title,
		help:   h,
		keys:   DefaultKeyMap(),
		width:  80,
		height: 24,
	}
	m.table = m.createTable()
	m.seek(0)
	return m
}

// createTable creates the slot table.
func (m *ScrubberModel) createTable() table.Model {
	columns := []table.Column{
		{Title: "Slot", Width: 5},
		{Title: "Kind", Width: 5},
		{Title: "X", Width: 7},
		{Title: "Z", Width: 7},
		{Title: "HP", Width: 6},
		{Title: "Flags", Width: 9},
		{Title: "State", Width: 9},
	}

	height := m.height - chromeHeight
	if m.width < minWidthForSideBySide {
		height -= m.cfg.MapHeight + 2
	}
	if height < 3 {
		height = 3
	}

	t := table.New(
		table.WithColumns(columns),
		table.WithFocused(true),
		table.WithHeight(height),
	)

	s := table.DefaultStyles()
	s.Header = s.Header.
		BorderStyle(lipgloss.NormalBorder()).
		BorderForeground(lipgloss.Color("240")).
		BorderBottom(true).
		Bold(true)
	s.Selected = s.Selected.
		Foreground(lipgloss.Color("229")).
		Background(lipgloss.Color("57")).
		Bold(false)
	t.SetStyles(s)

	return t
}

// slotRows lists the populated slots of st, characters first.
func slotRows(st *model.State) []table.Row {
	if st == nil {
		return nil
	}
	var rows []table.Row
	add := func(prefix string, i int, a *model.Actor) {
		c := a.Center()
		rows = append(rows, table.Row{
			fmt.Sprintf("%s%d", prefix, i),
			strconv.Itoa(int(a.Kind)),
			strconv.Itoa(int(c.X)),
			strconv.Itoa(int(c.Z)),
			strconv.Itoa(int(a.Health)),
			fmt.Sprintf("%08x", a.Flags),
			fmt.Sprintf("%x", a.State[:]),
		})
	}
	for i, a := range st.Characters {
		if a != nil {
			add("c", i, a)
		}
	}
	for i, a := range st.Objects {
		if a != nil {
			add("o", i, a)
		}
	}
	return rows
}

// seek moves to frame i. On failure the prior frame and state stay on
// screen and the error is shown in the status line.
func (m *ScrubberModel) seek(i int) {
	st, err := m.rec.Seek(i)
	if err != nil {
		m.err = err
		return
	}
	m.err = nil
	m.cursor = i
	m.state = st
	m.table.SetRows(slotRows(st))
}

// step moves by delta frames, clamped to the recording.
func (m *ScrubberModel) step(delta int) {
	if m.rec.Len() == 0 {
		m.seek(0)
		return
	}
	m.seek(max(0, min(m.cursor+delta, m.rec.Len()-1)))
}

// Init initializes the scrubber model.
func (m ScrubberModel) Init() tea.Cmd {
	return nil
}

// Update handles messages for the scrubber.
func (m ScrubberModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)

	case PlayMsg:
		if !m.playing || msg.Gen != m.playGen {
			return m, nil
		}
		if m.cursor+1 >= m.rec.Len() {
			m.playing = false
			return m, nil
		}
		m.step(1)
		if m.err != nil {
			m.playing = false
			return m, nil
		}
		return m, playCmd(m.cfg.PlayRate, m.playGen)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.table = m.createTable()
		m.table.SetRows(slotRows(m.state))
		m.help.Width = msg.Width
		return m, nil
	}

	m.table, cmd = m.table.Update(msg)
	return m, cmd
}

// handleKey processes keyboard input.
func (m ScrubberModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if s := msg.String(); len(s) == 1 && s[0] >= '0' && s[0] <= '9' {
		m.pending += s
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Next):
		m.step(1)
	case key.Matches(msg, m.keys.Prev):
		m.step(-1)
	case key.Matches(msg, m.keys.PageFwd):
		m.step(m.cfg.LargeStep)
	case key.Matches(msg, m.keys.PageBack):
		m.step(-m.cfg.LargeStep)
	case key.Matches(msg, m.keys.First):
		m.seek(0)
	case key.Matches(msg, m.keys.Last):
		m.seek(m.rec.Len() - 1)

	case key.Matches(msg, m.keys.NextRun):
		if k := m.rec.CheckpointFor(m.cursor) + 1; k < len(m.cps) {
			m.seek(m.cps[k].Frame)
		}
	case key.Matches(msg, m.keys.PrevRun):
		k := m.rec.CheckpointFor(m.cursor)
		if k > 0 && m.cps[k].Frame == m.cursor {
			k--
		}
		if k >= 0 {
			m.seek(m.cps[k].Frame)
		}

	case key.Matches(msg, m.keys.Goto):
		if m.pending != "" {
			i, err := strconv.Atoi(m.pending)
			m.pending = ""
			if err != nil {
				m.err = err
				return m, nil
			}
			m.seek(i)
		}
	case key.Matches(msg, m.keys.Cancel):
		m.pending = ""
		m.err = nil

	case key.Matches(msg, m.keys.Play):
		m.playing = !m.playing
		if m.playing {
			m.playGen++
			return m, playCmd(m.cfg.PlayRate, m.playGen)
		}

	case key.Matches(msg, m.keys.Help):
		m.help.ShowAll = !m.help.ShowAll

	case key.Matches(msg, m.keys.Up), key.Matches(msg, m.keys.Down):
		m.table, cmd = m.table.Update(msg)
		return m, cmd
	}

	return m, nil
}

// statusLine describes the current frame.
func (m ScrubberModel) statusLine() string {
	if m.state == nil || !m.state.Initialized() {
		return "no frame"
	}
	g := m.state.Game
	cp := m.rec.CheckpointFor(m.cursor)

	parts := []string{
		fmt.Sprintf("frame %d/%d", m.cursor, m.rec.Len()-1),
		fmt.Sprintf("room %d-%02d p%d", g.Room.Stage, g.Room.Room, g.Room.Player),
		fmt.Sprintf("rf %d", m.state.RoomFrame),
		fmt.Sprintf("run %d/%d", cp+1, len(m.cps)),
		fmt.Sprintf("igt %02d:%02d.%02d", g.IgtSeconds/60, g.IgtSeconds%60, g.IgtFrames),
		fmt.Sprintf("rng %04x rolls %d", g.Rng, g.RollCount),
		fmt.Sprintf("chars %d objs %d", m.state.CharacterCount(), m.state.ObjectCount()),
		"in " + g.Input.String(),
	}
	if g.NewGame {
		parts = append(parts, "NEW GAME")
	}
	if m.playing {
		parts = append(parts, "playing")
	}
	return strings.Join(parts, "  ")
}

// View renders the scrubber.
func (m ScrubberModel) View() string {
	if m.quitting {
		return ""
	}

	var b strings.Builder

	b.WriteString(titleStyle.Render(m.title))
	b.WriteString("\n")
	b.WriteString(statusStyle.Render(m.statusLine()))
	b.WriteString("\n")
	if m.pending != "" {
		b.WriteString(statusStyle.Render("go to " + m.pending))
		b.WriteString("\n")
	}
	if m.err != nil {
		b.WriteString(errorStyle.Render("error: " + m.err.Error()))
		b.WriteString("\n")
	}

	mapView := panelStyle.Render(renderGrid(plotState(m.state, m.cfg.MapWidth, m.cfg.MapHeight, m.cfg.WorldScale)))
	tableView := panelStyle.Render(m.table.View())
	if m.width >= minWidthForSideBySide {
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, mapView, " ", tableView))
	} else {
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, mapView, tableView))
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render(m.help.View(m.keys)))

	return b.String()
}

// Cursor returns the index of the displayed frame.
func (m ScrubberModel) Cursor() int {
	return m.cursor
}

// State returns the displayed State, or nil before the first successful seek.
func (m ScrubberModel) State() *model.State {
	return m.state
}

// Err returns the error of the last failed seek, or nil.
func (m ScrubberModel) Err() error {
	return m.err
}

// Playing reports whether playback is running.
func (m ScrubberModel) Playing() bool {
	return m.playing
}

// IsQuitting returns true if the user asked to quit.
func (m ScrubberModel) IsQuitting() bool {
	return m.quitting
}

// Run starts the scrubber on rec in the local terminal.
func Run(rec *replay.Recording, cfg config.ViewerConfig, title string) error {
	p := tea.NewProgram(
		NewScrubberModel(rec, cfg, title),
		tea.WithAltScreen(),
	)

	_, err := p.Run()
	return err
}
