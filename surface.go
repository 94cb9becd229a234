package cellgfx

import (
	"errors"
	"fmt"
	"image"
)

var (
	// ErrOutOfBounds is returned for coordinates outside a surface.
	ErrOutOfBounds = errors.New("cellgfx: coordinates out of bounds")

	// ErrWideRune is returned when a rune needs two columns and cannot fit one cell.
	ErrWideRune = errors.New("cellgfx: rune is wider than one cell")
)

// Surface stores a 2D grid of cells in row-major order, origin at the top-left.
// Every row has the same width. Surfaces hold data only; drawing is done by
// [RowBatcher] and [Graphics].
type Surface struct {
	width  int
	height int
	cells  []Cell
}

// NewSurface creates a surface of the given size filled with [NewCell] cells.
func NewSurface(width, height int) (*Surface, error) {
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("cellgfx: invalid surface size %dx%d", width, height)
	}

	s := &Surface{
		width:  width,
		height: height,
		cells:  make([]Cell, width*height),
	}
	s.Clear()
	return s, nil
}

// Width returns the surface width in cells.
func (s *Surface) Width() int {
	return s.width
}

// Height returns the surface height in cells.
func (s *Surface) Height() int {
	return s.height
}

// Bounds returns the surface rectangle in cell coordinates.
func (s *Surface) Bounds() image.Rectangle {
	return image.Rect(0, 0, s.width, s.height)
}

// InBounds reports whether (x, y) addresses a cell.
func (s *Surface) InBounds(x, y int) bool {
	return x >= 0 && x < s.width && y >= 0 && y < s.height
}

func (s *Surface) index(x, y int) (int, error) {
	if !s.InBounds(x, y) {
		return 0, fmt.Errorf("%w: (%d, %d) in %dx%d", ErrOutOfBounds, x, y, s.width, s.height)
	}
	return y*s.width + x, nil
}

// at returns the cell without bounds checking; callers iterate within Bounds.
func (s *Surface) at(x, y int) *Cell {
	return &s.cells[y*s.width+x]
}

// Cell returns a copy of the cell at (x, y).
func (s *Surface) Cell(x, y int) (Cell, error) {
	i, err := s.index(x, y)
	if err != nil {
		return Cell{}, err
	}
	return s.cells[i], nil
}

// SetCell replaces the cell at (x, y).
func (s *Surface) SetCell(x, y int, c Cell) error {
	i, err := s.index(x, y)
	if err != nil {
		return err
	}
	s.cells[i] = c
	return nil
}

// Character returns the character at (x, y).
func (s *Surface) Character(x, y int) (rune, error) {
	i, err := s.index(x, y)
	if err != nil {
		return 0, err
	}
	return s.cells[i].Char, nil
}

// SetCharacter sets the character at (x, y).
func (s *Surface) SetCharacter(x, y int, r rune) error {
	i, err := s.index(x, y)
	if err != nil {
		return err
	}
	s.cells[i].Char = r
	return nil
}

// ForegroundColor returns the character color at (x, y).
func (s *Surface) ForegroundColor(x, y int) (Color, error) {
	i, err := s.index(x, y)
	if err != nil {
		return Color{}, err
	}
	return s.cells[i].Fg, nil
}

// SetForegroundColor sets the character color at (x, y).
func (s *Surface) SetForegroundColor(x, y int, c Color) error {
	i, err := s.index(x, y)
	if err != nil {
		return err
	}
	s.cells[i].Fg = c
	return nil
}

// BackgroundColor returns the background color at (x, y).
func (s *Surface) BackgroundColor(x, y int) (Color, error) {
	i, err := s.index(x, y)
	if err != nil {
		return Color{}, err
	}
	return s.cells[i].Bg, nil
}

// SetBackgroundColor sets the background color at (x, y).
func (s *Surface) SetBackgroundColor(x, y int, c Color) error {
	i, err := s.index(x, y)
	if err != nil {
		return err
	}
	s.cells[i].Bg = c
	return nil
}

// IsCellOpaque reports whether the cell at (x, y) is drawn.
func (s *Surface) IsCellOpaque(x, y int) (bool, error) {
	i, err := s.index(x, y)
	if err != nil {
		return false, err
	}
	return s.cells[i].Opaque, nil
}

// SetCellOpacity marks the cell at (x, y) opaque or transparent.
func (s *Surface) SetCellOpacity(x, y int, opaque bool) error {
	i, err := s.index(x, y)
	if err != nil {
		return err
	}
	s.cells[i].Opaque = opaque
	return nil
}

// Clear resets every cell to its default state.
func (s *Surface) Clear() {
	for i := range s.cells {
		s.cells[i].Reset()
	}
}

// clip intersects rect with the surface, failing if nothing remains.
func (s *Surface) clip(rect image.Rectangle) (image.Rectangle, error) {
	r := rect.Canon().Intersect(s.Bounds())
	if r.Empty() {
		return r, fmt.Errorf("%w: %v in %dx%d", ErrOutOfBounds, rect, s.width, s.height)
	}
	return r, nil
}

// FillBackground sets the background color of every cell in rect.
func (s *Surface) FillBackground(rect image.Rectangle, c Color) error {
	r, err := s.clip(rect)
	if err != nil {
		return err
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s.at(x, y).Bg = c
		}
	}
	return nil
}

// FillCharacter sets the character of every cell in rect.
func (s *Surface) FillCharacter(rect image.Rectangle, ch rune) error {
	r, err := s.clip(rect)
	if err != nil {
		return err
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s.at(x, y).Char = ch
		}
	}
	return nil
}

// SetOpacity marks every cell in rect opaque or transparent.
func (s *Surface) SetOpacity(rect image.Rectangle, opaque bool) error {
	r, err := s.clip(rect)
	if err != nil {
		return err
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			s.at(x, y).Opaque = opaque
		}
	}
	return nil
}

// PrintString writes s starting at (x, y) in color fg, one rune per cell.
// Text past the right edge is dropped. Returns the number of cells written.
// A rune two columns wide stops printing with ErrWideRune.
func (s *Surface) PrintString(x, y int, str string, fg Color) (int, error) {
	if _, err := s.index(x, y); err != nil {
		return 0, err
	}

	n := 0
	for _, r := range str {
		if x+n >= s.width {
			break
		}
		if !FitsCell(r) {
			return n, fmt.Errorf("%w: %q", ErrWideRune, r)
		}
		c := s.at(x+n, y)
		c.Char = r
		c.Fg = fg
		n++
	}
	return n, nil
}

// Blit copies the opaque cells of src onto s with src's origin at (x, y).
// Cells falling outside s are dropped. src may be s itself.
func (s *Surface) Blit(src *Surface, x, y int) {
	if src == s {
		src = s.Copy()
	}
	for sy := 0; sy < src.height; sy++ {
		for sx := 0; sx < src.width; sx++ {
			dx, dy := x+sx, y+sy
			if !s.InBounds(dx, dy) {
				continue
			}
			c := src.at(sx, sy)
			if c.Opaque {
				*s.at(dx, dy) = *c
			}
		}
	}
}

// Copy returns a deep copy of the surface.
func (s *Surface) Copy() *Surface {
	cells := make([]Cell, len(s.cells))
	copy(cells, s.cells)
	return &Surface{
		width:  s.width,
		height: s.height,
		cells:  cells,
	}
}

// Row returns a copy of row y.
func (s *Surface) Row(y int) ([]Cell, error) {
	if _, err := s.index(0, y); err != nil {
		return nil, err
	}
	row := make([]Cell, s.width)
	copy(row, s.cells[y*s.width:(y+1)*s.width])
	return row, nil
}

// String returns the characters of the surface, one line per row.
func (s *Surface) String() string {
	buf := make([]rune, 0, (s.width+1)*s.height)
	for y := 0; y < s.height; y++ {
		for x := 0; x < s.width; x++ {
			r := s.at(x, y).Char
			if r == 0 {
				r = ' '
			}
			buf = append(buf, r)
		}
		if y < s.height-1 {
			buf = append(buf, '\n')
		}
	}
	return string(buf)
}
