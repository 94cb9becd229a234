package cellgfx

import (
	"errors"
	"fmt"
	"image"
	"log"
	"slices"
)

// ErrNoRenderer is returned by New when no renderer was configured.
var ErrNoRenderer = errors.New("cellgfx: no renderer")

const (
	// DEFAULT_WIDTH is the default buffer width in cells.
	DEFAULT_WIDTH = 80
	// DEFAULT_HEIGHT is the default buffer height in cells.
	DEFAULT_HEIGHT = 25
	// DEFAULT_CELL_WIDTH is the default cell width in pixels, the width of basicfont.Face7x13.
	DEFAULT_CELL_WIDTH = 7
	// DEFAULT_CELL_HEIGHT is the default cell height in pixels.
	DEFAULT_CELL_HEIGHT = 13
)

// placedImage is an atlas texture pinned at a cell position.
type placedImage struct {
	texture string
	x, y    int
}

// queuedSurface is a foreground surface waiting for the next Update.
type queuedSurface struct {
	surface *Surface
	x, y    int
}

// Graphics composes a primary cell grid, sprite images and transient
// foreground grids into one frame per Update.
//
// Draw order per frame:
//  1. clear to the background color
//  2. background images, unless hidden
//  3. the primary surface at (0, 0)
//  4. foreground images, unless hidden
//  5. surfaces queued with DrawForegroundSurface, in queue order
//
// The queue is emptied after every frame. Graphics is not safe for
// concurrent use.
type Graphics struct {
	// Dimensions
	width      int
	height     int
	cellWidth  int
	cellHeight int

	// Providers
	renderer   Renderer
	display    Display
	rasterizer Rasterizer
	atlas      Atlas
	logger     *log.Logger

	// Drawing state
	surface  *Surface
	glyphs   *GlyphCache
	fonts    *cellFonts
	special  *SpecialCharTable
	batcher  *RowBatcher
	queue    []queuedSurface
	bgImages map[string]placedImage
	fgImages map[string]placedImage
	hidden   bool

	// Window state
	title        string
	background   Color
	fullscreen   bool
	displayIndex int
	scaleOptions []float64
	scaleOption  int
	scales       *ScaleManager

	specialPath string
	diagnostics bool
	extraFonts  []namedFont
	defaultFont string
}

// Option configures Graphics during construction.
type Option func(*Graphics)

// WithBufferSize sets the primary surface size in cells.
func WithBufferSize(width, height int) Option {
	return func(g *Graphics) {
		g.width = width
		g.height = height
	}
}

// WithCellSize sets the unscaled cell size in pixels.
func WithCellSize(width, height int) Option {
	return func(g *Graphics) {
		g.cellWidth = width
		g.cellHeight = height
	}
}

// WithScaleOptions sets the ordered scale factors the display can use.
func WithScaleOptions(options ...float64) Option {
	return func(g *Graphics) {
		g.scaleOptions = slices.Clone(options)
	}
}

// WithScaleOption sets the index of the desired scale option.
func WithScaleOption(index int) Option {
	return func(g *Graphics) {
		g.scaleOption = index
	}
}

// WithFullscreen starts in fullscreen mode.
func WithFullscreen(fullscreen bool) Option {
	return func(g *Graphics) {
		g.fullscreen = fullscreen
	}
}

// WithBackgroundColor sets the color the frame is cleared to.
func WithBackgroundColor(c Color) Option {
	return func(g *Graphics) {
		g.background = c
	}
}

// WithRenderer sets the renderer. Required. When it also implements Display
// it is used as the display unless WithDisplay is given.
func WithRenderer(r Renderer) Option {
	return func(g *Graphics) {
		g.renderer = r
	}
}

// WithDisplay sets the window/monitor provider.
func WithDisplay(d Display) Option {
	return func(g *Graphics) {
		g.display = d
	}
}

// WithRasterizer sets the text rasterizer. Defaults to basicfont.Face7x13.
func WithRasterizer(r Rasterizer) Option {
	return func(g *Graphics) {
		g.rasterizer = r
	}
}

// WithFont registers r as the named font during construction, see AddFont.
func WithFont(name string, r Rasterizer) Option {
	return func(g *Graphics) {
		g.extraFonts = append(g.extraFonts, namedFont{name: name, rasterizer: r})
	}
}

// WithDefaultFont sets the font for cells without their own, see SetDefaultFont.
func WithDefaultFont(name string) Option {
	return func(g *Graphics) {
		g.defaultFont = name
	}
}

// WithAtlas sets the texture atlas used for images and the flair sheet.
// Defaults to an ImageAtlas with cell-sized tiles.
func WithAtlas(a Atlas) Option {
	return func(g *Graphics) {
		g.atlas = a
	}
}

// WithLogger sets the logger for non-fatal problems. Nil discards them.
func WithLogger(l *log.Logger) Option {
	return func(g *Graphics) {
		g.logger = orDiscard(l)
	}
}

// WithSpecialCharTable loads the special character table at path during construction.
func WithSpecialCharTable(path string) Option {
	return func(g *Graphics) {
		g.specialPath = path
	}
}

// WithCharacterDiagnostics records every character drawn, see EncounteredCharacters.
func WithCharacterDiagnostics() Option {
	return func(g *Graphics) {
		g.diagnostics = true
	}
}

// WithTitle sets the window title on displays that support one.
func WithTitle(title string) Option {
	return func(g *Graphics) {
		g.title = title
	}
}

// titler is implemented by displays with a window title.
type titler interface {
	SetTitle(title string)
}

// New creates a Graphics with the given options.
func New(opts ...Option) (*Graphics, error) {
	g := &Graphics{
		width:        DEFAULT_WIDTH,
		height:       DEFAULT_HEIGHT,
		cellWidth:    DEFAULT_CELL_WIDTH,
		cellHeight:   DEFAULT_CELL_HEIGHT,
		logger:       DefaultLogger(),
		background:   Black,
		scaleOptions: []float64{1},
		bgImages:     make(map[string]placedImage),
		fgImages:     make(map[string]placedImage),
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.renderer == nil {
		return nil, ErrNoRenderer
	}
	if g.cellWidth <= 0 || g.cellHeight <= 0 {
		return nil, fmt.Errorf("invalid cell size %dx%d", g.cellWidth, g.cellHeight)
	}

	surface, err := NewSurface(g.width, g.height)
	if err != nil {
		return nil, fmt.Errorf("create primary surface: %w", err)
	}
	g.surface = surface

	scales, err := NewScaleManager(g.scaleOptions, g.scaleOption)
	if err != nil {
		return nil, err
	}
	g.scales = scales

	for _, f := range g.extraFonts {
		if f.name == "" || f.rasterizer == nil {
			return nil, fmt.Errorf("invalid font %q", f.name)
		}
	}

	if ri, ok := g.renderer.(RendererInitializer); ok {
		if err := ri.Init(); err != nil {
			return nil, fmt.Errorf("init renderer: %w", err)
		}
	}

	if g.display == nil {
		if d, ok := g.renderer.(Display); ok {
			g.display = d
		} else {
			// Off-screen: a monitor exactly large enough for the desired scale.
			w, h := g.drawResolutionAt(g.scaleOptions[g.scaleOption])
			g.display = NewFixedDisplay(w, h)
		}
	}
	if g.rasterizer == nil {
		g.rasterizer = NewFaceRasterizer(nil, g.cellWidth, g.cellHeight)
	}
	if g.atlas == nil {
		g.atlas = NewImageAtlas(g.renderer, g.cellWidth, g.cellHeight)
	}

	g.glyphs = NewGlyphCache(g.renderer, g.rasterizer)
	for _, f := range g.extraFonts {
		if err := g.glyphs.AddFont(f.name, f.rasterizer); err != nil {
			return nil, err
		}
	}
	g.fonts = newCellFonts(g.width, g.height)
	g.fonts.fallback = g.defaultFont

	g.special = NewSpecialCharTable(g.atlas, g.logger)
	g.batcher = NewRowBatcher(g.renderer, g.glyphs, g.special, g.atlas, g.logger)
	g.batcher.SetFontSelector(g.fonts)
	if g.diagnostics {
		g.batcher.EnableDiagnostics()
	}

	if g.title != "" {
		if t, ok := g.display.(titler); ok {
			t.SetTitle(g.title)
		}
	}

	g.displayIndex = g.currentDisplayIndex()
	if err := g.ApplyClosestScaleOption(g.scaleOption); err != nil {
		if !errors.Is(err, ErrNoScaleFits) {
			return nil, err
		}
		// Nothing fits yet; start at the smallest option.
		if err := g.applyScale(g.scales.Smallest(), g.displayIndex); err != nil {
			return nil, err
		}
	}

	if g.specialPath != "" {
		g.LoadSpecialCharTable(g.specialPath)
	}

	return g, nil
}

// Surface returns the primary surface, drawn at (0, 0) every frame.
func (g *Graphics) Surface() *Surface {
	return g.surface
}

// Atlas returns the atlas images and the flair sheet are loaded into.
func (g *Graphics) Atlas() Atlas {
	return g.atlas
}

// Title returns the window title.
func (g *Graphics) Title() string {
	return g.title
}

// --- Frame ---

// Update draws one frame and presents it.
func (g *Graphics) Update() error {
	g.checkDisplayChange()
	g.batcher.SetMetrics(g.metrics())

	g.renderer.Clear(g.background)

	if !g.hidden {
		g.drawImages(g.bgImages)
	}

	g.batcher.DrawSurface(g.surface, 0, 0)

	if !g.hidden {
		g.drawImages(g.fgImages)
	}

	for _, q := range g.queue {
		g.batcher.DrawSurface(q.surface, q.x, q.y)
	}
	clear(g.queue)
	g.queue = g.queue[:0]

	if err := g.renderer.Present(); err != nil {
		return fmt.Errorf("present frame: %w", err)
	}
	return nil
}

// DrawForegroundSurface queues s to be drawn over everything else at cell
// (x, y) during the next Update only. s must not change before then.
func (g *Graphics) DrawForegroundSurface(s *Surface, x, y int) {
	if s == nil {
		return
	}
	g.queue = append(g.queue, queuedSurface{surface: s, x: x, y: y})
}

// QueuedSurfaces returns the number of foreground surfaces waiting for the next Update.
func (g *Graphics) QueuedSurfaces() int {
	return len(g.queue)
}

// checkDisplayChange rescales when the window moved to another monitor.
func (g *Graphics) checkDisplayChange() {
	index := g.currentDisplayIndex()
	if index == g.displayIndex {
		return
	}

	g.logger.Printf("display changed from %d to %d", g.displayIndex, index)
	g.displayIndex = index
	if err := g.ApplyClosestScaleOption(g.scales.Desired()); err != nil {
		g.logger.Printf("rescale for display %d: %v", index, err)
	}
}

func (g *Graphics) currentDisplayIndex() int {
	index, err := g.display.DisplayIndex()
	if err != nil {
		g.batcher.warnOnce("display-index", "query display index: %v", err)
		return g.displayIndex
	}
	return index
}

// --- Images ---

// AddBackgroundImage places the atlas texture textureKey under the primary
// surface at cell (x, y), replacing any image registered as key.
func (g *Graphics) AddBackgroundImage(key, textureKey string, x, y int) {
	g.bgImages[key] = placedImage{texture: textureKey, x: x, y: y}
}

// RemoveBackgroundImage removes the background image registered as key.
func (g *Graphics) RemoveBackgroundImage(key string) {
	delete(g.bgImages, key)
}

// AddForegroundImage places the atlas texture textureKey over the primary
// surface at cell (x, y), replacing any image registered as key.
func (g *Graphics) AddForegroundImage(key, textureKey string, x, y int) {
	g.fgImages[key] = placedImage{texture: textureKey, x: x, y: y}
}

// RemoveForegroundImage removes the foreground image registered as key.
func (g *Graphics) RemoveForegroundImage(key string) {
	delete(g.fgImages, key)
}

// ClearImages removes every background and foreground image.
func (g *Graphics) ClearImages() {
	clear(g.bgImages)
	clear(g.fgImages)
}

// HideImages stops drawing images until ShowImages.
func (g *Graphics) HideImages() {
	g.hidden = true
}

// ShowImages resumes drawing images.
func (g *Graphics) ShowImages() {
	g.hidden = false
}

// ImagesHidden reports whether images are hidden.
func (g *Graphics) ImagesHidden() bool {
	return g.hidden
}

// LoadTexture loads an image file into the atlas under key for use by
// AddBackgroundImage and AddForegroundImage.
func (g *Graphics) LoadTexture(key, path string) error {
	if key == FlairAtlasKey {
		return fmt.Errorf("load texture: key %q is reserved", key)
	}
	return g.atlas.Load(key, path)
}

// drawImages draws images in key order, sized by texture size × scale.
func (g *Graphics) drawImages(images map[string]placedImage) {
	keys := make([]string, 0, len(images))
	for k := range images {
		keys = append(keys, k)
	}
	slices.Sort(keys)

	m := g.batcher.Metrics()
	for _, k := range keys {
		p := images[k]
		tex, ok := g.atlas.Texture(p.texture)
		if !ok {
			g.batcher.warnOnce("image:"+k+":"+p.texture, "skipping image %q: %v %q", k, ErrUnknownTexture, p.texture)
			continue
		}

		w, h := tex.Size()
		pos := m.CellRect(p.x, p.y, 0).Min
		dst := image.Rectangle{Min: pos, Max: pos.Add(image.Pt(scaled(w, m.Scale), scaled(h, m.Scale)))}
		g.renderer.DrawTexture(tex, image.Rectangle{}, dst, NoModulation())
	}
}

// --- Fullscreen & scale ---

// SetFullscreen switches fullscreen mode and reselects the scale for the display.
func (g *Graphics) SetFullscreen(fullscreen bool) error {
	g.fullscreen = fullscreen
	return g.ApplyClosestScaleOption(g.scales.Desired())
}

// ToggleFullscreen flips fullscreen mode.
func (g *Graphics) ToggleFullscreen() error {
	return g.SetFullscreen(!g.fullscreen)
}

// Fullscreen reports whether fullscreen mode is on.
func (g *Graphics) Fullscreen() bool {
	return g.fullscreen
}

// ApplyClosestScaleOption remembers index as the desired scale option and
// applies the largest option not larger than it that fits the monitor
// currently showing the window. When nothing fits the current scale is kept
// and ErrNoScaleFits returned.
func (g *Graphics) ApplyClosestScaleOption(index int) error {
	if err := g.scales.setDesired(index); err != nil {
		return err
	}

	displayIndex := g.currentDisplayIndex()
	resW, resH, err := g.display.DisplayResolution(displayIndex)
	if err != nil {
		return fmt.Errorf("query resolution of display %d: %w", displayIndex, err)
	}

	best, ok := g.scales.Closest(index, g.drawResolutionAt, resW, resH)
	if !ok {
		g.logger.Printf("no scale option up to %v fits display %d (%dx%d), keeping scale %v",
			g.scaleOptions[index], displayIndex, resW, resH, g.scales.Scale())
		return fmt.Errorf("%w: display %d is %dx%d", ErrNoScaleFits, displayIndex, resW, resH)
	}

	return g.applyScale(best, displayIndex)
}

// applyScale switches to scale option index: every font and the glyph cache
// follow the new size and the window is resized and centered on the display.
func (g *Graphics) applyScale(index, displayIndex int) error {
	scale := g.scaleOptions[index]

	if err := g.glyphs.SetScale(scale); err != nil {
		return fmt.Errorf("apply scale %v: %w", scale, err)
	}
	g.batcher.resetWarnings()
	g.scales.setCurrent(index)
	g.displayIndex = displayIndex

	w, h := g.DrawResolution()
	g.display.SetWindowSize(w, h)
	g.display.CenterWindow(displayIndex)
	if err := g.display.SetFullscreen(g.fullscreen); err != nil {
		return fmt.Errorf("set fullscreen %v: %w", g.fullscreen, err)
	}

	g.checkSize()
	return nil
}

// checkSize warns when a windowed display did not take the requested size.
func (g *Graphics) checkSize() {
	if g.fullscreen {
		return
	}
	want := image.Pt(g.DrawResolution())
	got := image.Pt(g.display.WindowSize())
	if got != want {
		g.logger.Printf("warning: window is %dx%d, expected %dx%d", got.X, got.Y, want.X, want.Y)
	}
}

// Scale returns the applied scale factor.
func (g *Graphics) Scale() float64 {
	return g.scales.Scale()
}

// ScaleOption returns the index of the applied scale option.
func (g *Graphics) ScaleOption() int {
	return g.scales.Current()
}

// ScaleOptions returns the scale factors.
func (g *Graphics) ScaleOptions() []float64 {
	return g.scales.Options()
}

// --- Geometry ---

// CellSize returns the unscaled cell size in pixels.
func (g *Graphics) CellSize() (width, height int) {
	return g.cellWidth, g.cellHeight
}

// DrawResolution returns the pixel size of the primary surface at the applied scale.
func (g *Graphics) DrawResolution() (width, height int) {
	return g.drawResolutionAt(g.scales.Scale())
}

func (g *Graphics) drawResolutionAt(scale float64) (int, int) {
	return g.width * scaled(g.cellWidth, scale), g.height * scaled(g.cellHeight, scale)
}

// DrawOrigin returns the pixel position of cell (0, 0). The frame is
// centered when the window is larger than the draw resolution.
func (g *Graphics) DrawOrigin() image.Point {
	ww, wh := g.display.WindowSize()
	dw, dh := g.DrawResolution()
	return image.Pt(max(0, (ww-dw)/2), max(0, (wh-dh)/2))
}

func (g *Graphics) metrics() Metrics {
	return Metrics{
		CellWidth:  g.cellWidth,
		CellHeight: g.cellHeight,
		Scale:      g.scales.Scale(),
		Origin:     g.DrawOrigin(),
	}
}

// CellToPixel returns the window pixel of the top-left corner of cell (x, y).
func (g *Graphics) CellToPixel(x, y int) image.Point {
	return g.metrics().CellRect(x, y, 1).Min
}

// PixelToCell returns the cell under window pixel p and whether it lies on
// the primary surface.
func (g *Graphics) PixelToCell(p image.Point) (x, y int, ok bool) {
	m := g.metrics()
	w, h := m.ScaledCell()
	p = p.Sub(m.Origin)
	if p.X < 0 || p.Y < 0 || w <= 0 || h <= 0 {
		return -1, -1, false
	}
	x, y = p.X/w, p.Y/h
	return x, y, g.surface.InBounds(x, y)
}

// --- Special characters ---

// LoadSpecialCharTable replaces the special character table with the one at
// path. On failure the problem is logged and no table is active.
func (g *Graphics) LoadSpecialCharTable(path string) {
	if err := g.special.Load(path); err != nil {
		g.logger.Printf("special characters disabled: %v", err)
	}
	g.batcher.resetWarnings()
}

// DisposeSpecialCharTable unloads the special character table.
func (g *Graphics) DisposeSpecialCharTable() {
	g.special.Dispose()
}

// SpecialCharTable returns the active special character table.
func (g *Graphics) SpecialCharTable() *SpecialCharTable {
	return g.special
}

// --- Diagnostics ---

// EncounteredCharacters returns every character drawn so far, in codepoint
// order, when WithCharacterDiagnostics was given.
func (g *Graphics) EncounteredCharacters() []rune {
	return g.batcher.EncounteredCharacters()
}

// GlyphCacheStats returns glyph cache counters.
func (g *Graphics) GlyphCacheStats() GlyphCacheStats {
	return g.glyphs.Stats()
}

// Dispose releases the glyph cache, the special character table and images,
// then closes the renderer when it holds platform resources.
func (g *Graphics) Dispose() error {
	g.glyphs.InvalidateAll()
	g.glyphs.RemoveAllFonts()
	g.special.Dispose()
	g.ClearImages()
	g.queue = nil

	if c, ok := g.atlas.(interface{ Clear() }); ok {
		c.Clear()
	}
	if c, ok := g.renderer.(RendererCloser); ok {
		if err := c.Close(); err != nil {
			return fmt.Errorf("close renderer: %w", err)
		}
	}
	return nil
}
