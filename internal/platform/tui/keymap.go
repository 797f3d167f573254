package tui

import "github.com/charmbracelet/bubbles/key"

// KeyMap defines the key bindings of the scrubber.
type KeyMap struct {
	Next     key.Binding
	Prev     key.Binding
	PageFwd  key.Binding
	PageBack key.Binding
	NextRun  key.Binding
	PrevRun  key.Binding
	First    key.Binding
	Last     key.Binding
	Play     key.Binding
	Goto     key.Binding
	Cancel   key.Binding
	Up       key.Binding
	Down     key.Binding
	Help     key.Binding
	Quit     key.Binding
}

// ShortHelp returns key bindings for the short help view.
func (k KeyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.Prev, k.Next, k.PrevRun, k.NextRun, k.Play, k.Help, k.Quit}
}

// FullHelp returns key bindings for the full help view.
func (k KeyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.Prev, k.Next, k.PageBack, k.PageFwd},
		{k.PrevRun, k.NextRun, k.First, k.Last},
		{k.Play, k.Goto, k.Cancel},
		{k.Up, k.Down, k.Help, k.Quit},
	}
}

// DefaultKeyMap returns default key bindings.
func DefaultKeyMap() KeyMap {
	return KeyMap{
		Next: key.NewBinding(
			key.WithKeys("right", "l"),
			key.WithHelp("right/l", "next frame"),
		),
		Prev: key.NewBinding(
			key.WithKeys("left", "h"),
			key.WithHelp("left/h", "prev frame"),
		),
		PageFwd: key.NewBinding(
			key.WithKeys("pgdown", "L"),
			key.WithHelp("pgdn/L", "skip forward"),
		),
		PageBack: key.NewBinding(
			key.WithKeys("pgup", "H"),
			key.WithHelp("pgup/H", "skip back"),
		),
		NextRun: key.NewBinding(
			key.WithKeys("]", "n"),
			key.WithHelp("]/n", "next room"),
		),
		PrevRun: key.NewBinding(
			key.WithKeys("[", "p"),
			key.WithHelp("[/p", "room start"),
		),
		First: key.NewBinding(
			key.WithKeys("home", "g"),
			key.WithHelp("home/g", "first frame"),
		),
		Last: key.NewBinding(
			key.WithKeys("end", "G"),
			key.WithHelp("end/G", "last frame"),
		),
		Play: key.NewBinding(
			key.WithKeys(" "),
			key.WithHelp("space", "play/pause"),
		),
		Goto: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("0-9 enter", "go to frame"),
		),
		Cancel: key.NewBinding(
			key.WithKeys("esc"),
			key.WithHelp("esc", "clear input"),
		),
		Up: key.NewBinding(
			key.WithKeys("up", "k"),
			key.WithHelp("up/k", "slot up"),
		),
		Down: key.NewBinding(
			key.WithKeys("down", "j"),
			key.WithHelp("down/j", "slot down"),
		),
		Help: key.NewBinding(
			key.WithKeys("?"),
			key.WithHelp("?", "help"),
		),
		Quit: key.NewBinding(
			key.WithKeys("q", "ctrl+c"),
			key.WithHelp("q", "quit"),
		),
	}
}
