package cellgfx

import (
	"errors"
	"fmt"
	"slices"
)

// ErrUnknownFont is returned when text is requested in a font that was never registered.
var ErrUnknownFont = errors.New("cellgfx: unknown font")

// glyphKey identifies one rendered text run. An empty font is the base rasterizer.
type glyphKey struct {
	font  string
	text  string
	color Color
}

// GlyphCacheStats reports cache effectiveness.
type GlyphCacheStats struct {
	Hits    uint64
	Misses  uint64
	Entries int
}

// GlyphCache memoizes rendered text-run textures keyed by (font, text, color).
//
// Entries stay valid until the font size, the font asset or the display scale
// changes; callers must then call InvalidateAll, since every cached bitmap is
// specific to the pixel size it was rendered at. The cache owns its textures
// and never evicts on its own.
//
// Besides the base rasterizer, named fonts can be registered with AddFont and
// requested through GetOrRenderFont.
type GlyphCache struct {
	renderer   Renderer
	rasterizer Rasterizer
	fonts      map[string]Rasterizer
	entries    map[glyphKey]Texture

	hits   uint64
	misses uint64
}

// NewGlyphCache creates an empty cache rasterizing with rasterizer and uploading to renderer.
func NewGlyphCache(renderer Renderer, rasterizer Rasterizer) *GlyphCache {
	return &GlyphCache{
		renderer:   renderer,
		rasterizer: rasterizer,
		fonts:      make(map[string]Rasterizer),
		entries:    make(map[glyphKey]Texture),
	}
}

// GetOrRender returns the texture for text drawn in c with the base
// rasterizer, rasterizing and uploading it on the first request.
func (g *GlyphCache) GetOrRender(text string, c Color) (Texture, error) {
	return g.GetOrRenderFont("", text, c)
}

// GetOrRenderFont is GetOrRender for the named font. The empty name selects
// the base rasterizer; other names must have been registered with AddFont.
func (g *GlyphCache) GetOrRenderFont(font, text string, c Color) (Texture, error) {
	key := glyphKey{font: font, text: text, color: c}
	if tex, ok := g.entries[key]; ok {
		g.hits++
		return tex, nil
	}
	g.misses++

	r, err := g.rasterizerFor(font)
	if err != nil {
		return nil, fmt.Errorf("render glyphs %q: %w", text, err)
	}
	img, err := r.Rasterize(text, c)
	if err != nil {
		return nil, fmt.Errorf("rasterize %q: %w", text, err)
	}
	tex, err := g.renderer.NewTexture(img)
	if err != nil {
		return nil, fmt.Errorf("upload glyphs %q: %w", text, err)
	}

	g.entries[key] = tex
	return tex, nil
}

func (g *GlyphCache) rasterizerFor(font string) (Rasterizer, error) {
	if font == "" {
		if g.rasterizer == nil {
			return nil, errors.New("no rasterizer")
		}
		return g.rasterizer, nil
	}
	r, ok := g.fonts[font]
	if !ok {
		return nil, fmt.Errorf("%w %q", ErrUnknownFont, font)
	}
	return r, nil
}

// AddFont registers r under name, replacing and invalidating any font
// already registered with that name.
func (g *GlyphCache) AddFont(name string, r Rasterizer) error {
	if name == "" {
		return errors.New("cellgfx: font name must not be empty")
	}
	if r == nil {
		return fmt.Errorf("cellgfx: font %q has no rasterizer", name)
	}
	g.invalidateFont(name)
	g.fonts[name] = r
	return nil
}

// RemoveFont unregisters name and destroys its cached textures.
func (g *GlyphCache) RemoveFont(name string) {
	g.invalidateFont(name)
	delete(g.fonts, name)
}

// RemoveAllFonts unregisters every named font. The base rasterizer stays.
func (g *GlyphCache) RemoveAllFonts() {
	for name := range g.fonts {
		g.RemoveFont(name)
	}
}

// Font returns the rasterizer registered under name.
func (g *GlyphCache) Font(name string) (Rasterizer, bool) {
	r, ok := g.fonts[name]
	return r, ok
}

// Fonts returns the registered font names in sorted order.
func (g *GlyphCache) Fonts() []string {
	names := make([]string, 0, len(g.fonts))
	for name := range g.fonts {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (g *GlyphCache) invalidateFont(name string) {
	for key, tex := range g.entries {
		if key.font == name {
			g.renderer.DestroyTexture(tex)
			delete(g.entries, key)
		}
	}
}

// SetScale applies scale to the base rasterizer and every named font that
// implements ScalableRasterizer, then invalidates the cache. Fonts that
// cannot scale keep their size and are stretched by the renderer.
func (g *GlyphCache) SetScale(scale float64) error {
	defer g.InvalidateAll()

	if sr, ok := g.rasterizer.(ScalableRasterizer); ok {
		if err := sr.SetScale(scale); err != nil {
			return fmt.Errorf("scale base font: %w", err)
		}
	}
	for _, name := range g.Fonts() {
		if sr, ok := g.fonts[name].(ScalableRasterizer); ok {
			if err := sr.SetScale(scale); err != nil {
				return fmt.Errorf("scale font %q: %w", name, err)
			}
		}
	}
	return nil
}

// InvalidateAll destroys every cached texture and empties the cache.
func (g *GlyphCache) InvalidateAll() {
	for key, tex := range g.entries {
		g.renderer.DestroyTexture(tex)
		delete(g.entries, key)
	}
}

// SetRasterizer replaces the base rasterizer and invalidates every entry.
func (g *GlyphCache) SetRasterizer(r Rasterizer) {
	g.rasterizer = r
	g.InvalidateAll()
}

// Len returns the number of cached textures.
func (g *GlyphCache) Len() int {
	return len(g.entries)
}

// Stats returns hit/miss counters since creation.
func (g *GlyphCache) Stats() GlyphCacheStats {
	return GlyphCacheStats{
		Hits:    g.hits,
		Misses:  g.misses,
		Entries: len(g.entries),
	}
}
