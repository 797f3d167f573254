package tui

import (
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vovakirdan/tickrec/internal/core"
	"github.com/vovakirdan/tickrec/internal/model"
)

// glyph is the content of one map cell.
type glyph uint8

const (
	glyphEmpty glyph = iota
	glyphTrail
	glyphObject
	glyphCharacter
	glyphDead
	glyphPlayer
)

var glyphRunes = map[glyph]rune{
	glyphEmpty:     ' ',
	glyphTrail:     '.',
	glyphObject:    'o',
	glyphCharacter: '&',
	glyphDead:      'x',
	glyphPlayer:    '@',
}

var glyphStyles = map[glyph]lipgloss.Style{
	glyphEmpty:     lipgloss.NewStyle(),
	glyphTrail:     lipgloss.NewStyle().Foreground(lipgloss.Color("240")),
	glyphObject:    lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
	glyphCharacter: lipgloss.NewStyle().Foreground(lipgloss.Color("9")),
	glyphDead:      lipgloss.NewStyle().Foreground(lipgloss.Color("245")),
	glyphPlayer:    lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true),
}

// grid is a top-down cell buffer of one State.
type grid struct {
	width  int
	height int
	cells  [][]glyph
}

func newGrid(width, height int) *grid {
	g := &grid{width: width, height: height}
	g.cells = make([][]glyph, height)
	for y := range g.cells {
		g.cells[y] = make([]glyph, width)
	}
	return g
}

// set places a glyph, ignoring out-of-bounds cells and never painting a
// lower-priority glyph over a higher one.
func (g *grid) set(x, y int, v glyph) {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return
	}
	if v > g.cells[y][x] {
		g.cells[y][x] = v
	}
}

func (g *grid) get(x, y int) glyph {
	if x < 0 || x >= g.width || y < 0 || y >= g.height {
		return glyphEmpty
	}
	return g.cells[y][x]
}

// String returns the grid without styling.
func (g *grid) String() string {
	var sb strings.Builder
	sb.Grow((g.width + 1) * g.height)
	for y := range g.height {
		if y > 0 {
			sb.WriteByte('\n')
		}
		for x := range g.width {
			sb.WriteRune(glyphRunes[g.cells[y][x]])
		}
	}
	return sb.String()
}

// projection maps world coordinates onto grid cells around an origin.
type projection struct {
	origin        core.Vec2
	scale         int
	width, height int
}

func (p projection) cell(v core.Vec2) (x, y int) {
	x = p.width/2 + floorDiv(int(v.X-p.origin.X), p.scale)
	y = p.height/2 - floorDiv(int(v.Z-p.origin.Z), p.scale)
	return x, y
}

func floorDiv(a, b int) int {
	q := a / b
	if (a%b != 0) && ((a < 0) != (b < 0)) {
		q--
	}
	return q
}

// plotState draws st centered on the player slot, or on the world origin
// when the player slot is empty.
func plotState(st *model.State, width, height, scale int) *grid {
	g := newGrid(width, height)
	if st == nil {
		return g
	}

	p := projection{scale: scale, width: width, height: height}
	if player := st.Characters[0]; player != nil {
		p.origin = player.Center()
	}

	for _, a := range st.Objects {
		if a != nil {
			x, y := p.cell(a.Center())
			g.set(x, y, glyphObject)
		}
	}
	for i, a := range st.Characters {
		if a == nil {
			continue
		}
		x, y := p.cell(a.Center())
		if px, py := p.cell(a.PrevCenter); px != x || py != y {
			g.set(px, py, glyphTrail)
		}
		switch {
		case i == 0:
			g.set(x, y, glyphPlayer)
		case a.Health <= 0:
			g.set(x, y, glyphDead)
		default:
			g.set(x, y, glyphCharacter)
		}
	}
	return g
}

// renderGrid converts a grid to a styled string for display.
// Groups adjacent cells with the same glyph to minimize ANSI escape sequences.
func renderGrid(g *grid) string {
	var sb strings.Builder
	sb.Grow(g.width*g.height*2 + g.height)

	for y := range g.height {
		if y > 0 {
			sb.WriteRune('\n')
		}

		x := 0
		for x < g.width {
			start := g.get(x, y)

			var run strings.Builder
			for x < g.width && g.get(x, y) == start {
				run.WriteRune(glyphRunes[start])
				x++
			}
			sb.WriteString(glyphStyles[start].Render(run.String()))
		}
	}
	return sb.String()
}
