// Package tcellbackend draws cellgfx frames into a terminal through tcell.
//
// A window pixel rectangle maps onto the terminal cells it covers, using a
// fixed pixel size per terminal cell. Text runs become runes, fills become
// cell backgrounds and image textures are sampled once per terminal cell.
//
// Example:
//
//	ts, _ := tcell.NewScreen()
//	screen := tcellbackend.New(ts, 7, 13)
//	g, err := cellgfx.New(
//		cellgfx.WithRenderer(screen),
//		cellgfx.WithRasterizer(cellgfx.TextRasterizer{CellWidth: 7, CellHeight: 13}),
//		cellgfx.WithCellSize(7, 13),
//	)
package tcellbackend

import (
	"errors"
	"image"
	"unicode/utf8"

	"github.com/danielgatis/go-cellgfx"
	"github.com/gdamore/tcell/v2"
)

// texture is either a text run or a sampled image.
type texture struct {
	width  int
	height int

	text  string
	color cellgfx.Color

	img image.Image
}

func (t *texture) Size() (int, int) {
	return t.width, t.height
}

// Screen is a cellgfx Renderer and Display over a tcell.Screen.
// The terminal is the only monitor; its resolution is the terminal size
// times the pixel size of one terminal cell.
type Screen struct {
	screen     tcell.Screen
	cellWidth  int
	cellHeight int

	windowWidth  int
	windowHeight int
	fullscreen   bool
	title        string
}

// Ensure Screen satisfies its interfaces
var (
	_ cellgfx.Renderer            = (*Screen)(nil)
	_ cellgfx.Display             = (*Screen)(nil)
	_ cellgfx.RendererInitializer = (*Screen)(nil)
	_ cellgfx.RendererCloser      = (*Screen)(nil)
)

// New wraps s. cellWidth and cellHeight are the window pixels covered by one
// terminal cell, normally the cellgfx cell size.
func New(s tcell.Screen, cellWidth, cellHeight int) *Screen {
	if cellWidth <= 0 {
		cellWidth = 1
	}
	if cellHeight <= 0 {
		cellHeight = 1
	}
	return &Screen{
		screen:     s,
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
	}
}

// Init initializes the terminal.
func (s *Screen) Init() error {
	return s.screen.Init()
}

// Close restores the terminal.
func (s *Screen) Close() error {
	s.screen.Fini()
	return nil
}

// Screen returns the wrapped tcell screen.
func (s *Screen) Screen() tcell.Screen {
	return s.screen
}

// --- Renderer ---

// NewTexture keeps text runs as text and other images for sampling.
func (s *Screen) NewTexture(img image.Image) (cellgfx.Texture, error) {
	if img == nil {
		return nil, errors.New("new texture: nil image")
	}
	b := img.Bounds()
	t := &texture{width: b.Dx(), height: b.Dy()}
	if ti, ok := img.(*cellgfx.TextImage); ok {
		t.text = ti.Text
		t.color = ti.Color
	} else {
		t.img = img
	}
	return t, nil
}

func (s *Screen) DestroyTexture(t cellgfx.Texture) {}

// Clear fills the terminal with blanks on c.
func (s *Screen) Clear(c cellgfx.Color) {
	s.screen.Fill(' ', tcell.StyleDefault.Background(toColor(c)))
}

// FillRect blanks the terminal cells covered by rect and sets their background to c.
func (s *Screen) FillRect(rect image.Rectangle, c cellgfx.Color) {
	cells := s.cells(rect)
	style := tcell.StyleDefault.Background(toColor(c))
	for y := cells.Min.Y; y < cells.Max.Y; y++ {
		for x := cells.Min.X; x < cells.Max.X; x++ {
			s.screen.SetContent(x, y, ' ', nil, style)
		}
	}
}

// DrawTexture writes text runs rune by rune over the existing background.
// Image textures set the background of each covered cell to the modulated
// texel under the cell center, skipping transparent texels.
func (s *Screen) DrawTexture(t cellgfx.Texture, src, dst image.Rectangle, mod cellgfx.Color) {
	tex, ok := t.(*texture)
	if !ok || dst.Empty() {
		return
	}
	if tex.img != nil {
		s.drawImage(tex, src, dst, mod)
		return
	}

	n := utf8.RuneCountInString(tex.text)
	if n == 0 {
		return
	}
	y := dst.Min.Y / s.cellHeight
	step := dst.Dx() / n
	i := 0
	for _, r := range tex.text {
		x := (dst.Min.X + i*step) / s.cellWidth
		i++
		if r == ' ' {
			continue
		}
		_, _, style, _ := s.screen.GetContent(x, y)
		s.screen.SetContent(x, y, r, nil, style.Foreground(toColor(modulate(tex.color, mod))))
	}
}

func (s *Screen) drawImage(tex *texture, src, dst image.Rectangle, mod cellgfx.Color) {
	if src.Empty() {
		src = tex.img.Bounds()
	}
	cells := s.cells(dst)
	for y := cells.Min.Y; y < cells.Max.Y; y++ {
		for x := cells.Min.X; x < cells.Max.X; x++ {
			// Cell center in window pixels, mapped back into src.
			px := x*s.cellWidth + s.cellWidth/2
			py := y*s.cellHeight + s.cellHeight/2
			sx := src.Min.X + (px-dst.Min.X)*src.Dx()/dst.Dx()
			sy := src.Min.Y + (py-dst.Min.Y)*src.Dy()/dst.Dy()
			if !(image.Point{X: sx, Y: sy}).In(src) {
				continue
			}

			_, _, _, a := tex.img.At(sx, sy).RGBA()
			if a == 0 {
				continue
			}
			c := modulate(cellgfx.FromColor(tex.img.At(sx, sy)), mod)
			r, comb, style, _ := s.screen.GetContent(x, y)
			s.screen.SetContent(x, y, r, comb, style.Background(toColor(c)))
		}
	}
}

// Present shows the frame.
func (s *Screen) Present() error {
	s.screen.Show()
	return nil
}

// cells returns the terminal cells covered by a window pixel rectangle.
func (s *Screen) cells(rect image.Rectangle) image.Rectangle {
	r := image.Rect(
		floorDiv(rect.Min.X, s.cellWidth),
		floorDiv(rect.Min.Y, s.cellHeight),
		ceilDiv(rect.Max.X, s.cellWidth),
		ceilDiv(rect.Max.Y, s.cellHeight),
	)
	w, h := s.screen.Size()
	return r.Intersect(image.Rect(0, 0, w, h))
}

// --- Display ---

func (s *Screen) DisplayIndex() (int, error) { return 0, nil }

// DisplayResolution returns the terminal size in window pixels.
func (s *Screen) DisplayResolution(index int) (int, int, error) {
	if index != 0 {
		return 0, 0, errors.New("tcellbackend: no such display")
	}
	w, h := s.screen.Size()
	return w * s.cellWidth, h * s.cellHeight, nil
}

func (s *Screen) WindowSize() (int, int) {
	if s.fullscreen {
		w, h, _ := s.DisplayResolution(0)
		return w, h
	}
	return s.windowWidth, s.windowHeight
}

func (s *Screen) SetWindowSize(width, height int) {
	s.windowWidth, s.windowHeight = width, height
}

func (s *Screen) CenterWindow(index int) {}

func (s *Screen) SetFullscreen(fullscreen bool) error {
	s.fullscreen = fullscreen
	return nil
}

// SetTitle sets the terminal window title.
func (s *Screen) SetTitle(title string) {
	s.title = title
	s.screen.SetTitle(title)
}

// Title returns the last title set.
func (s *Screen) Title() string {
	return s.title
}

func toColor(c cellgfx.Color) tcell.Color {
	return tcell.NewRGBColor(int32(c.R), int32(c.G), int32(c.B))
}

func modulate(c, mod cellgfx.Color) cellgfx.Color {
	return cellgfx.Color{
		R: uint8(uint16(c.R) * uint16(mod.R) / 255),
		G: uint8(uint16(c.G) * uint16(mod.G) / 255),
		B: uint8(uint16(c.B) * uint16(mod.B) / 255),
	}
}

func floorDiv(a, b int) int {
	q := a / b
	if a%b != 0 && a < 0 {
		q--
	}
	return q
}

func ceilDiv(a, b int) int {
	return -floorDiv(-a, b)
}
