package cellgfx

import (
	"errors"
	"fmt"
	"image"
	"log"
	"slices"
	"strings"
)

// Metrics maps cell coordinates to window pixels.
type Metrics struct {
	// CellWidth and CellHeight are the unscaled cell size in pixels.
	CellWidth  int
	CellHeight int
	// Scale multiplies the cell size.
	Scale float64
	// Origin is the pixel position of cell (0, 0).
	Origin image.Point
}

// ScaledCell returns the on-screen cell size.
func (m Metrics) ScaledCell() (width, height int) {
	return scaled(m.CellWidth, m.Scale), scaled(m.CellHeight, m.Scale)
}

// CellRect returns the pixel rectangle covering n cells starting at (x, y).
func (m Metrics) CellRect(x, y, n int) image.Rectangle {
	w, h := m.ScaledCell()
	min := m.Origin.Add(image.Pt(x*w, y*h))
	return image.Rectangle{Min: min, Max: min.Add(image.Pt(n*w, h))}
}

// FontSelector picks the font for a destination cell. The empty name selects
// the base rasterizer of the glyph cache.
type FontSelector interface {
	FontAt(x, y int) string
}

// RowBatcher turns surfaces into draw commands, batching adjacent cells that
// share drawing attributes into a single command.
//
// Each row is scanned twice, left to right. The background pass emits one
// fill per run of opaque cells with the same background color. The
// foreground pass chains opaque, non-whitespace cells with the same
// foreground color and font into one text run drawn from the glyph cache;
// whitespace and transparent cells end a run. Characters with a special table entry get
// their flair drawn immediately and contribute their base character to the run.
type RowBatcher struct {
	renderer Renderer
	glyphs   *GlyphCache
	special  *SpecialCharTable
	atlas    Atlas
	fonts    FontSelector
	logger   *log.Logger
	metrics  Metrics

	run         []rune
	warned      map[string]bool
	encountered map[rune]struct{}
}

// NewRowBatcher creates a batcher drawing to renderer. special and atlas may be nil
// when no combo characters are used.
func NewRowBatcher(renderer Renderer, glyphs *GlyphCache, special *SpecialCharTable, atlas Atlas, logger *log.Logger) *RowBatcher {
	return &RowBatcher{
		renderer: renderer,
		glyphs:   glyphs,
		special:  special,
		atlas:    atlas,
		logger:   orDiscard(logger),
		metrics:  Metrics{CellWidth: 1, CellHeight: 1, Scale: 1},
		warned:   make(map[string]bool),
	}
}

// SetMetrics sets the cell geometry used by subsequent draws.
func (b *RowBatcher) SetMetrics(m Metrics) {
	b.metrics = m
}

// SetFontSelector sets the per-cell font lookup. Nil draws every cell in the base font.
func (b *RowBatcher) SetFontSelector(fonts FontSelector) {
	b.fonts = fonts
}

// Metrics returns the current cell geometry.
func (b *RowBatcher) Metrics() Metrics {
	return b.metrics
}

// EnableDiagnostics starts recording every character drawn.
func (b *RowBatcher) EnableDiagnostics() {
	if b.encountered == nil {
		b.encountered = make(map[rune]struct{})
	}
}

// EncounteredCharacters returns the characters drawn since diagnostics were
// enabled, in codepoint order. Nil when diagnostics are off.
func (b *RowBatcher) EncounteredCharacters() []rune {
	if b.encountered == nil {
		return nil
	}
	out := make([]rune, 0, len(b.encountered))
	for r := range b.encountered {
		out = append(out, r)
	}
	slices.Sort(out)
	return out
}

// DrawSurface draws s with its top-left cell at cell (x, y): every background
// first, then every glyph.
func (b *RowBatcher) DrawSurface(s *Surface, x, y int) {
	for row := 0; row < s.height; row++ {
		b.drawBackgrounds(s, row, x, y)
	}
	for row := 0; row < s.height; row++ {
		b.drawCharacters(s, row, x, y)
	}
}

func (b *RowBatcher) drawBackgrounds(s *Surface, row, x, y int) {
	col := 0
	for col < s.width {
		if !s.at(col, row).Opaque {
			col++
			continue
		}

		start := col
		bg := s.at(col, row).Bg
		for col < s.width {
			c := s.at(col, row)
			if !c.Opaque || c.Bg != bg {
				break
			}
			col++
		}

		b.renderer.FillRect(b.metrics.CellRect(x+start, y+row, col-start), bg)
	}
}

func (b *RowBatcher) drawCharacters(s *Surface, row, x, y int) {
	col := 0
	for col < s.width {
		c := s.at(col, row)
		if !c.Opaque || c.IsBlank() {
			col++
			continue
		}

		start := col
		fg := c.Fg
		font := b.fontAt(x+col, y+row)
		b.run = b.run[:0]
		for col < s.width {
			c := s.at(col, row)
			if !c.Opaque || c.IsBlank() || c.Fg != fg || b.fontAt(x+col, y+row) != font {
				break
			}

			r := c.Char
			b.note(r)
			if combo, ok := b.lookup(r); ok {
				b.drawFlair(combo, x+col, y+row, fg)
				r = combo.Base
			}
			b.run = append(b.run, r)
			col++
		}

		b.drawRun(font, string(b.run), fg, x+start, y+row, col-start)
	}
}

func (b *RowBatcher) fontAt(x, y int) string {
	if b.fonts == nil {
		return ""
	}
	return b.fonts.FontAt(x, y)
}

func (b *RowBatcher) lookup(r rune) (ComboChar, bool) {
	if b.special == nil || !b.special.Loaded() {
		return ComboChar{}, false
	}
	return b.special.Lookup(r)
}

func (b *RowBatcher) note(r rune) {
	if b.encountered != nil {
		b.encountered[r] = struct{}{}
	}
}

// drawRun draws a chained text run covering n cells.
func (b *RowBatcher) drawRun(font, text string, fg Color, x, y, n int) {
	// Runs made only of flairs with no printable base have nothing left to draw.
	if strings.TrimSpace(text) == "" {
		return
	}

	tex, err := b.glyphs.GetOrRenderFont(font, text, fg)
	if errors.Is(err, ErrUnknownFont) {
		b.warnOnce("font:"+font, "skipping text in unknown font %q", font)
		return
	}
	if err != nil {
		b.warnOnce("glyph:"+err.Error(), "skipping text run: %v", err)
		return
	}
	b.renderer.DrawTexture(tex, image.Rectangle{}, b.metrics.CellRect(x, y, n), NoModulation())
}

// drawFlair draws the flair tile of combo over cell (x, y), tinted fg.
func (b *RowBatcher) drawFlair(combo ComboChar, x, y int, fg Color) {
	if b.atlas == nil {
		b.warnOnce("flair:atlas", "skipping flair: no atlas")
		return
	}

	key := b.special.AtlasKey()
	tex, ok := b.atlas.Texture(key)
	if !ok {
		b.warnOnce("flair:"+key, "skipping flair: texture %q not loaded", key)
		return
	}
	src, ok := b.atlas.Tile(key, combo.FlairIndex)
	if !ok {
		b.warnOnce(fmt.Sprintf("flair:%s:%d", key, combo.FlairIndex), "skipping flair: no tile %d in %q", combo.FlairIndex, key)
		return
	}

	dst := b.metrics.CellRect(x, y, 1).Add(image.Pt(0, scaled(combo.FlairOffset, b.metrics.Scale)))
	b.renderer.DrawTexture(tex, src, dst, fg)
}

// warnOnce logs a draw-time failure the first time it happens for id, since
// the same failure repeats every frame.
func (b *RowBatcher) warnOnce(id, format string, args ...any) {
	if b.warned[id] {
		return
	}
	b.warned[id] = true
	b.logger.Printf(format, args...)
}

// resetWarnings lets failures be reported again after the cache or table changed.
func (b *RowBatcher) resetWarnings() {
	clear(b.warned)
}
