package core

import "strings"

// Buttons is the host's controller bitmask as recorded each tick.
type Buttons uint32

// Button bits as laid out by the host input register.
const (
	ButtonUp Buttons = 1 << iota
	ButtonRight
	ButtonDown
	ButtonLeft
	ButtonAim
	ButtonAction
	ButtonRun
	ButtonMenu
	ButtonMap
	ButtonStart
	ButtonSelect
	ButtonQuickTurn
)

var buttonNames = []struct {
	bit  Buttons
	name string
}{
	{ButtonUp, "Up"},
	{ButtonRight, "Right"},
	{ButtonDown, "Down"},
	{ButtonLeft, "Left"},
	{ButtonAim, "Aim"},
	{ButtonAction, "Action"},
	{ButtonRun, "Run"},
	{ButtonMenu, "Menu"},
	{ButtonMap, "Map"},
	{ButtonStart, "Start"},
	{ButtonSelect, "Select"},
	{ButtonQuickTurn, "QuickTurn"},
}

// Has reports whether every bit of b2 is set in b.
func (b Buttons) Has(b2 Buttons) bool {
	return b&b2 == b2
}

// Names returns the names of the set buttons in bit order.
// Unknown bits are ignored.
func (b Buttons) Names() []string {
	var names []string
	for _, bn := range buttonNames {
		if b&bn.bit != 0 {
			names = append(names, bn.name)
		}
	}
	return names
}

// String returns a human-readable list of held buttons.
func (b Buttons) String() string {
	if b == 0 {
		return "None"
	}
	names := b.Names()
	if len(names) == 0 {
		return "Unknown"
	}
	return strings.Join(names, "+")
}
