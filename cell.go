package cellgfx

import "unicode"

// Cell stores the character, colors, and opacity for one grid position.
// Cells that are not opaque are skipped entirely when drawing: neither their
// background nor their glyph is rendered.
type Cell struct {
	Char   rune
	Fg     Color
	Bg     Color
	Opaque bool
}

// NewCell creates an opaque cell holding a space, white on black.
func NewCell() Cell {
	return Cell{
		Char:   ' ',
		Fg:     White,
		Bg:     Black,
		Opaque: true,
	}
}

// Reset restores the default state (opaque space, white on black).
func (c *Cell) Reset() {
	*c = NewCell()
}

// IsBlank reports whether the cell has no glyph to draw.
func (c *Cell) IsBlank() bool {
	return isWhitespace(c.Char)
}

// isWhitespace treats the zero rune like a space.
func isWhitespace(r rune) bool {
	return r == 0 || unicode.IsSpace(r)
}
