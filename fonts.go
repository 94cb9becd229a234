package cellgfx

import (
	"fmt"
	"image"
)

// namedFont is a font registered through WithFont.
type namedFont struct {
	name       string
	rasterizer Rasterizer
}

// cellFonts assigns font names to the destination cells of the primary grid.
// Cells without a name, and cells outside the grid, use fallback.
type cellFonts struct {
	width    int
	height   int
	names    []string
	fallback string
}

var _ FontSelector = (*cellFonts)(nil)

func newCellFonts(width, height int) *cellFonts {
	return &cellFonts{
		width:  width,
		height: height,
		names:  make([]string, width*height),
	}
}

// FontAt returns the font name for destination cell (x, y).
func (f *cellFonts) FontAt(x, y int) string {
	if x >= 0 && y >= 0 && x < f.width && y < f.height {
		if name := f.names[y*f.width+x]; name != "" {
			return name
		}
	}
	return f.fallback
}

// --- Fonts ---

// AddFont registers r under name so cells can be drawn with it, replacing
// any font registered with that name. A scalable rasterizer is brought to
// the current scale and follows later scale changes.
func (g *Graphics) AddFont(name string, r Rasterizer) error {
	if sr, ok := r.(ScalableRasterizer); ok {
		if err := sr.SetScale(g.Scale()); err != nil {
			return fmt.Errorf("add font %q: %w", name, err)
		}
	}
	if err := g.glyphs.AddFont(name, r); err != nil {
		return err
	}
	g.batcher.resetWarnings()
	return nil
}

// UnloadFont unregisters name. Cells still assigned to it are skipped, with
// a logged warning, until they get another font.
func (g *Graphics) UnloadFont(name string) {
	g.glyphs.RemoveFont(name)
}

// UnloadAllFonts unregisters every named font. The base rasterizer stays.
func (g *Graphics) UnloadAllFonts() {
	g.glyphs.RemoveAllFonts()
}

// Fonts returns the registered font names in sorted order.
func (g *Graphics) Fonts() []string {
	return g.glyphs.Fonts()
}

// SetDefaultFont sets the font for cells without a font of their own. The
// empty name selects the base rasterizer.
func (g *Graphics) SetDefaultFont(name string) {
	g.fonts.fallback = name
}

// DefaultFont returns the font used for cells without a font of their own.
func (g *Graphics) DefaultFont() string {
	return g.fonts.fallback
}

// SetCellFont draws the cells of rect with the named font. The rectangle is
// in cells of the primary grid and applies to every surface drawn over
// those cells. The empty name reverts the cells to the default font.
func (g *Graphics) SetCellFont(rect image.Rectangle, name string) error {
	r, err := g.surface.clip(rect)
	if err != nil {
		return err
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		for x := r.Min.X; x < r.Max.X; x++ {
			g.fonts.names[y*g.fonts.width+x] = name
		}
	}
	return nil
}

// ClearCellFonts reverts every cell to the default font.
func (g *Graphics) ClearCellFonts() {
	clear(g.fonts.names)
}

// CellFont returns the font that cell (x, y) is drawn with.
func (g *Graphics) CellFont(x, y int) (string, error) {
	if !g.surface.InBounds(x, y) {
		return "", fmt.Errorf("%w: (%d, %d)", ErrOutOfBounds, x, y)
	}
	return g.fonts.FontAt(x, y), nil
}
