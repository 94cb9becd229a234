package cellgfx

import (
	"bytes"
	"errors"
	"image"
	"log"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// switchingDisplay is a FixedDisplay whose monitors and active index can change.
type switchingDisplay struct {
	FixedDisplay
	index       int
	resolutions [][2]int
	centered    []int
	title       string
}

func (d *switchingDisplay) DisplayIndex() (int, error) { return d.index, nil }

func (d *switchingDisplay) DisplayResolution(index int) (int, int, error) {
	if index < 0 || index >= len(d.resolutions) {
		return 0, 0, errors.New("no such display")
	}
	return d.resolutions[index][0], d.resolutions[index][1], nil
}

func (d *switchingDisplay) CenterWindow(index int) {
	d.centered = append(d.centered, index)
}

func (d *switchingDisplay) SetTitle(title string) {
	d.title = title
}

func newTestGraphics(t *testing.T, opts ...Option) (*Graphics, *RecordingRenderer) {
	t.Helper()
	rec := NewRecordingRenderer()
	base := []Option{
		WithRenderer(rec),
		WithRasterizer(TextRasterizer{CellWidth: 8, CellHeight: 12}),
		WithCellSize(8, 12),
		WithBufferSize(10, 5),
		WithLogger(nil),
	}
	g, err := New(append(base, opts...)...)
	require.NoError(t, err)
	return g, rec
}

func TestNewDefaults(t *testing.T) {
	g, err := New(WithRenderer(NewRecordingRenderer()), WithLogger(nil))
	require.NoError(t, err)

	assert.Equal(t, DEFAULT_WIDTH, g.Surface().Width())
	assert.Equal(t, DEFAULT_HEIGHT, g.Surface().Height())
	w, h := g.CellSize()
	assert.Equal(t, DEFAULT_CELL_WIDTH, w)
	assert.Equal(t, DEFAULT_CELL_HEIGHT, h)
	assert.Equal(t, 1.0, g.Scale())
	assert.False(t, g.Fullscreen())
}

func TestNewErrors(t *testing.T) {
	tests := []struct {
		name string
		opts []Option
	}{
		{"no renderer", nil},
		{"bad buffer", []Option{WithRenderer(NewRecordingRenderer()), WithBufferSize(0, 5)}},
		{"bad cell", []Option{WithRenderer(NewRecordingRenderer()), WithCellSize(8, 0)}},
		{"no scale options", []Option{WithRenderer(NewRecordingRenderer()), WithScaleOptions()}},
		{"bad scale index", []Option{WithRenderer(NewRecordingRenderer()), WithScaleOptions(1, 2), WithScaleOption(2)}},
		{"unnamed font", []Option{WithRenderer(NewRecordingRenderer()), WithFont("", TextRasterizer{})}},
		{"nil font", []Option{WithRenderer(NewRecordingRenderer()), WithFont("big", nil)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New(append(tt.opts, WithLogger(nil))...)
			assert.Error(t, err)
		})
	}

	_, err := New()
	assert.ErrorIs(t, err, ErrNoRenderer)
}

type failingInitRenderer struct {
	*RecordingRenderer
}

func (failingInitRenderer) Init() error { return errors.New("no gpu") }

func TestNewRendererInitFailure(t *testing.T) {
	_, err := New(WithRenderer(failingInitRenderer{NewRecordingRenderer()}), WithLogger(nil))
	assert.ErrorContains(t, err, "no gpu")
}

func TestUpdateDrawOrder(t *testing.T) {
	g, rec := newTestGraphics(t)
	atlas := g.Atlas().(*ImageAtlas)
	require.NoError(t, atlas.Add("bg", image.NewRGBA(image.Rect(0, 0, 4, 4))))
	require.NoError(t, atlas.Add("fg", image.NewRGBA(image.Rect(0, 0, 2, 2))))

	g.AddBackgroundImage("back", "bg", 1, 1)
	g.AddForegroundImage("front", "fg", 2, 2)
	g.Surface().PrintString(0, 0, "main", White)

	over := mustSurface(t, 3, 1)
	over.PrintString(0, 0, "top", Yellow)
	g.DrawForegroundSurface(over, 4, 4)

	require.NoError(t, g.Update())

	cmds := rec.Commands()
	require.NotEmpty(t, cmds)
	assert.Equal(t, CommandClear, cmds[0].Kind)
	assert.Equal(t, Black, cmds[0].Color)
	assert.Equal(t, CommandPresent, cmds[len(cmds)-1].Kind)

	// Background image, then the primary surface, then the foreground image,
	// then the queued surface.
	var order []string
	for _, c := range cmds {
		switch {
		case c.IsText():
			order = append(order, c.Text)
		case c.Kind == CommandTexture:
			order = append(order, "image")
		}
	}
	assert.Equal(t, []string{"image", "main", "image", "top"}, order)

	texts := rec.Texts()
	assert.Equal(t, image.Rect(32, 48, 56, 60), texts[1].Rect)
}

func TestUpdateClearsForegroundQueue(t *testing.T) {
	g, rec := newTestGraphics(t)

	for i := 0; i < 3; i++ {
		s := mustSurface(t, 1, 1)
		s.PrintString(0, 0, "q", Red)
		g.DrawForegroundSurface(s, i, 0)
	}
	assert.Equal(t, 3, g.QueuedSurfaces())

	require.NoError(t, g.Update())
	assert.Equal(t, 0, g.QueuedSurfaces())
	assert.Len(t, rec.Texts(), 3)

	rec.Reset()
	require.NoError(t, g.Update())
	assert.Equal(t, 0, g.QueuedSurfaces())
	assert.Empty(t, rec.Texts())
}

func TestImagesHiddenAndRemoved(t *testing.T) {
	g, rec := newTestGraphics(t)
	atlas := g.Atlas().(*ImageAtlas)
	require.NoError(t, atlas.Add("tex", image.NewRGBA(image.Rect(0, 0, 8, 12))))

	g.AddBackgroundImage("a", "tex", 0, 0)
	g.AddForegroundImage("b", "tex", 1, 0)

	g.HideImages()
	assert.True(t, g.ImagesHidden())
	require.NoError(t, g.Update())
	assert.Empty(t, rec.Filter(CommandTexture))

	g.ShowImages()
	rec.Reset()
	require.NoError(t, g.Update())
	assert.Len(t, rec.Filter(CommandTexture), 2)

	g.RemoveBackgroundImage("a")
	rec.Reset()
	require.NoError(t, g.Update())
	assert.Len(t, rec.Filter(CommandTexture), 1)

	g.RemoveForegroundImage("b")
	rec.Reset()
	require.NoError(t, g.Update())
	assert.Empty(t, rec.Filter(CommandTexture))
}

func TestImagesDrawnInKeyOrder(t *testing.T) {
	g, rec := newTestGraphics(t)
	atlas := g.Atlas().(*ImageAtlas)
	require.NoError(t, atlas.Add("tex", image.NewRGBA(image.Rect(0, 0, 8, 12))))

	g.AddBackgroundImage("c", "tex", 2, 0)
	g.AddBackgroundImage("a", "tex", 0, 0)
	g.AddBackgroundImage("b", "tex", 1, 0)
	require.NoError(t, g.Update())

	images := rec.Filter(CommandTexture)
	require.Len(t, images, 3)
	assert.Equal(t, 0, images[0].Rect.Min.X)
	assert.Equal(t, 8, images[1].Rect.Min.X)
	assert.Equal(t, 16, images[2].Rect.Min.X)

	g.ClearImages()
	rec.Reset()
	require.NoError(t, g.Update())
	assert.Empty(t, rec.Filter(CommandTexture))
}

func TestUnknownImageTextureIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	g, rec := newTestGraphics(t, WithLogger(log.New(&buf, "", 0)))

	g.AddForegroundImage("ghost", "missing", 0, 0)
	require.NoError(t, g.Update())
	require.NoError(t, g.Update())

	assert.Empty(t, rec.Filter(CommandTexture))
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte("skipping image")))
}

func TestLoadTextureReservedKey(t *testing.T) {
	g, _ := newTestGraphics(t)
	assert.Error(t, g.LoadTexture(FlairAtlasKey, "whatever.png"))
}

func TestApplyClosestScaleOptionFallsBack(t *testing.T) {
	// 10x5 cells of 8x12: 80x60 at 1x, 160x120 at 2x, 240x180 at 3x.
	r := NewImageRenderer(200, 150)
	g, err := New(
		WithRenderer(r),
		WithRasterizer(TextRasterizer{CellWidth: 8, CellHeight: 12}),
		WithCellSize(8, 12),
		WithBufferSize(10, 5),
		WithScaleOptions(1, 2, 3),
		WithScaleOption(2),
		WithLogger(nil),
	)
	require.NoError(t, err)

	assert.Equal(t, 2.0, g.Scale())
	assert.Equal(t, 1, g.ScaleOption())
	w, h := g.DrawResolution()
	assert.Equal(t, 160, w)
	assert.Equal(t, 120, h)

	ww, wh := r.WindowSize()
	assert.Equal(t, 160, ww)
	assert.Equal(t, 120, wh)

	require.NoError(t, g.ApplyClosestScaleOption(0))
	assert.Equal(t, 1.0, g.Scale())
}

func TestApplyClosestScaleOptionNothingFits(t *testing.T) {
	var buf bytes.Buffer
	display := &switchingDisplay{resolutions: [][2]int{{1000, 1000}, {50, 50}}}
	g, _ := newTestGraphics(t,
		WithDisplay(display),
		WithScaleOptions(1, 2),
		WithScaleOption(1),
		WithLogger(log.New(&buf, "", 0)),
	)
	require.Equal(t, 2.0, g.Scale())

	display.index = 1
	err := g.ApplyClosestScaleOption(1)
	assert.ErrorIs(t, err, ErrNoScaleFits)
	assert.Equal(t, 2.0, g.Scale())
	assert.Contains(t, buf.String(), "no scale option")

	assert.Error(t, g.ApplyClosestScaleOption(5))
}

func TestApplyClosestScaleOptionInvalidatesGlyphs(t *testing.T) {
	g, rec := newTestGraphics(t, WithScaleOptions(1, 2), WithScaleOption(1),
		WithDisplay(&switchingDisplay{resolutions: [][2]int{{1000, 1000}}}))

	g.Surface().PrintString(0, 0, "abc", White)
	require.NoError(t, g.Update())
	assert.Equal(t, 1, g.GlyphCacheStats().Entries)

	require.NoError(t, g.ApplyClosestScaleOption(0))
	assert.Equal(t, 0, g.GlyphCacheStats().Entries)
	assert.Equal(t, 0, rec.LiveTextures())

	rec.Reset()
	require.NoError(t, g.Update())
	texts := rec.Texts()
	require.Len(t, texts, 1)
	assert.Equal(t, image.Rect(0, 0, 24, 12), texts[0].Rect)
}

func TestDisplayChangeRescales(t *testing.T) {
	var buf bytes.Buffer
	display := &switchingDisplay{resolutions: [][2]int{{1000, 1000}, {200, 150}}}
	g, _ := newTestGraphics(t,
		WithDisplay(display),
		WithScaleOptions(1, 2, 3),
		WithScaleOption(2),
		WithTitle("rogue"),
		WithLogger(log.New(&buf, "", 0)),
	)
	assert.Equal(t, 3.0, g.Scale())
	assert.Equal(t, "rogue", display.title)

	display.index = 1
	require.NoError(t, g.Update())

	assert.Equal(t, 2.0, g.Scale())
	assert.Equal(t, 2, g.scales.Desired())
	assert.Equal(t, 1, display.centered[len(display.centered)-1])
	assert.Contains(t, buf.String(), "display changed from 0 to 1")

	// Moving back restores the desired scale.
	display.index = 0
	require.NoError(t, g.Update())
	assert.Equal(t, 3.0, g.Scale())
}

func TestFullscreenCentersFrame(t *testing.T) {
	r := NewImageRenderer(200, 100)
	g, err := New(
		WithRenderer(r),
		WithRasterizer(TextRasterizer{CellWidth: 8, CellHeight: 12}),
		WithCellSize(8, 12),
		WithBufferSize(10, 5),
		WithLogger(nil),
	)
	require.NoError(t, err)
	assert.Equal(t, image.Point{}, g.DrawOrigin())

	require.NoError(t, g.ToggleFullscreen())
	assert.True(t, g.Fullscreen())
	assert.True(t, r.Fullscreen())
	// 80x60 frame centered in 200x100.
	assert.Equal(t, image.Pt(60, 20), g.DrawOrigin())
	assert.Equal(t, image.Pt(68, 32), g.CellToPixel(1, 1))

	x, y, ok := g.PixelToCell(image.Pt(69, 33))
	assert.True(t, ok)
	assert.Equal(t, 1, x)
	assert.Equal(t, 1, y)

	_, _, ok = g.PixelToCell(image.Pt(10, 10))
	assert.False(t, ok)

	require.NoError(t, g.SetFullscreen(false))
	assert.False(t, r.Fullscreen())
	assert.Equal(t, image.Point{}, g.DrawOrigin())
}

func TestWindowSizeMismatchWarns(t *testing.T) {
	var buf bytes.Buffer
	_, _ = newTestGraphics(t,
		WithDisplay(&stubbornDisplay{FixedDisplay{Width: 1000, Height: 1000}}),
		WithLogger(log.New(&buf, "", 0)),
	)
	assert.Contains(t, buf.String(), "warning: window is 640x480, expected 80x60")
}

// stubbornDisplay ignores resize requests.
type stubbornDisplay struct {
	FixedDisplay
}

func (d *stubbornDisplay) WindowSize() (int, int)          { return 640, 480 }
func (d *stubbornDisplay) SetWindowSize(width, height int) {}

func TestGraphicsSpecialCharTable(t *testing.T) {
	dir := t.TempDir()
	sheet := writeFlairSheet(t, dir)
	path := writeTable(t, dir, sheet+"\né e 1\n")

	g, rec := newTestGraphics(t, WithSpecialCharTable(path), WithCharacterDiagnostics())
	require.True(t, g.SpecialCharTable().Loaded())

	require.NoError(t, g.Surface().SetCharacter(0, 0, 'é'))
	require.NoError(t, g.Update())

	texts := rec.Texts()
	require.Len(t, texts, 1)
	assert.Equal(t, "e", texts[0].Text)
	assert.Len(t, rec.Filter(CommandTexture), 2)
	assert.Equal(t, []rune{'é'}, g.EncounteredCharacters())

	g.DisposeSpecialCharTable()
	assert.False(t, g.SpecialCharTable().Loaded())

	rec.Reset()
	require.NoError(t, g.Update())
	texts = rec.Texts()
	require.Len(t, texts, 1)
	assert.Equal(t, "é", texts[0].Text)
}

func TestGraphicsLoadSpecialCharTableMissing(t *testing.T) {
	var buf bytes.Buffer
	g, _ := newTestGraphics(t, WithLogger(log.New(&buf, "", 0)))

	g.LoadSpecialCharTable(filepath.Join(t.TempDir(), "missing.txt"))
	assert.False(t, g.SpecialCharTable().Loaded())
	assert.Contains(t, buf.String(), "special characters disabled")
}

func TestGraphicsDispose(t *testing.T) {
	dir := t.TempDir()
	sheet := writeFlairSheet(t, dir)
	path := writeTable(t, dir, sheet+"\né e 1\n")

	g, rec := newTestGraphics(t, WithSpecialCharTable(path))
	g.Surface().PrintString(0, 0, "abc", White)
	require.NoError(t, g.Update())
	require.NotZero(t, rec.LiveTextures())

	require.NoError(t, g.Dispose())
	assert.Equal(t, 0, rec.LiveTextures())
}

func TestGraphicsRendersPixels(t *testing.T) {
	r := NewImageRenderer(640, 480)
	g, err := New(
		WithRenderer(r),
		WithBufferSize(4, 2),
		WithBackgroundColor(Magenta),
		WithLogger(nil),
	)
	require.NoError(t, err)

	require.NoError(t, g.Surface().FillBackground(image.Rect(0, 0, 2, 1), Blue))
	require.NoError(t, g.Surface().SetOpacity(image.Rect(3, 1, 4, 2), false))
	g.Surface().PrintString(0, 1, "#", BrightWhite)
	require.NoError(t, g.Update())

	frame := r.Frame()
	require.NotNil(t, frame)
	cw, ch := g.CellSize()
	assert.Equal(t, Blue.RGBA(), frame.RGBAAt(cw, ch/2))
	assert.Equal(t, Black.RGBA(), frame.RGBAAt(2*cw+1, 1))
	// The transparent cell shows the clear color.
	assert.Equal(t, Magenta.RGBA(), frame.RGBAAt(3*cw+1, ch+1))

	// The glyph left some foreground pixels in its cell.
	lit := 0
	for y := ch; y < 2*ch; y++ {
		for x := 0; x < cw; x++ {
			if frame.RGBAAt(x, y) == BrightWhite.RGBA() {
				lit++
			}
		}
	}
	assert.NotZero(t, lit)
}

func runTexts(rec *RecordingRenderer) []string {
	var out []string
	for _, cmd := range rec.Texts() {
		out = append(out, cmd.Text)
	}
	return out
}

func TestGraphicsCellFonts(t *testing.T) {
	big := &countingRasterizer{TextRasterizer: TextRasterizer{CellWidth: 8, CellHeight: 12}}
	g, rec := newTestGraphics(t, WithFont("big", big))
	assert.Equal(t, []string{"big"}, g.Fonts())

	require.NoError(t, g.SetCellFont(image.Rect(0, 0, 2, 1), "big"))
	g.Surface().PrintString(0, 0, "abcd", White)

	font, err := g.CellFont(1, 0)
	require.NoError(t, err)
	assert.Equal(t, "big", font)
	font, err = g.CellFont(2, 0)
	require.NoError(t, err)
	assert.Equal(t, "", font)

	require.NoError(t, g.Update())
	assert.Equal(t, []string{"ab", "cd"}, runTexts(rec))
	assert.Equal(t, 1, big.calls)

	g.ClearCellFonts()
	rec.Reset()
	require.NoError(t, g.Update())
	assert.Equal(t, []string{"abcd"}, runTexts(rec))

	assert.ErrorIs(t, g.SetCellFont(image.Rect(20, 20, 30, 30), "big"), ErrOutOfBounds)
	_, err = g.CellFont(-1, 0)
	assert.ErrorIs(t, err, ErrOutOfBounds)
}

func TestGraphicsDefaultFont(t *testing.T) {
	var buf bytes.Buffer
	g, rec := newTestGraphics(t,
		WithFont("ui", TextRasterizer{CellWidth: 8, CellHeight: 12}),
		WithDefaultFont("ui"),
		WithLogger(log.New(&buf, "", 0)),
	)
	assert.Equal(t, "ui", g.DefaultFont())
	font, _ := g.CellFont(0, 0)
	assert.Equal(t, "ui", font)

	g.Surface().PrintString(0, 0, "hi", White)
	require.NoError(t, g.Update())
	assert.Equal(t, []string{"hi"}, runTexts(rec))

	// Unloading the default font skips its cells with a single warning.
	g.UnloadFont("ui")
	rec.Reset()
	require.NoError(t, g.Update())
	require.NoError(t, g.Update())
	assert.Empty(t, rec.Texts())
	assert.Len(t, rec.Filter(CommandPresent), 2)
	assert.Equal(t, 1, bytes.Count(buf.Bytes(), []byte(`unknown font "ui"`)))

	// The base rasterizer takes over once the default is reset.
	g.SetDefaultFont("")
	rec.Reset()
	require.NoError(t, g.Update())
	assert.Equal(t, []string{"hi"}, runTexts(rec))
}

func TestGraphicsFontsFollowScale(t *testing.T) {
	early := &scalingRasterizer{scale: 1}
	g, _ := newTestGraphics(t,
		WithFont("early", early),
		WithScaleOptions(1, 2),
		WithScaleOption(1),
	)
	require.Equal(t, 2.0, g.Scale())
	assert.Equal(t, 2.0, early.scale)

	late := &scalingRasterizer{scale: 1}
	require.NoError(t, g.AddFont("late", late))
	assert.Equal(t, 2.0, late.scale)

	require.NoError(t, g.ApplyClosestScaleOption(0))
	assert.Equal(t, 1.0, early.scale)
	assert.Equal(t, 1.0, late.scale)

	g.UnloadAllFonts()
	assert.Empty(t, g.Fonts())
}
