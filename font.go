package cellgfx

import (
	"errors"
	"fmt"
	"image"
	"io"
	"math"
	"os"
	"unicode/utf8"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/font/opentype"
	"golang.org/x/image/math/fixed"
)

// FaceRasterizer renders text runs with an x/image font face, one rune per
// fixed-width cell. Faces loaded from TrueType/OpenType data are rebuilt at
// the display scale; bitmap faces keep their size and are scaled by the renderer.
type FaceRasterizer struct {
	font  *opentype.Font
	size  float64
	face  font.Face
	scale float64

	cellWidth  int
	cellHeight int
}

// Ensure FaceRasterizer satisfies ScalableRasterizer
var _ ScalableRasterizer = (*FaceRasterizer)(nil)

// NewFaceRasterizer wraps a fixed face. A nil face uses basicfont.Face7x13.
// Zero cell dimensions are derived from the face metrics.
func NewFaceRasterizer(face font.Face, cellWidth, cellHeight int) *FaceRasterizer {
	if face == nil {
		face = basicfont.Face7x13
	}
	cellWidth, cellHeight = cellSizeFor(face, cellWidth, cellHeight)
	return &FaceRasterizer{
		face:       face,
		scale:      1,
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
	}
}

// LoadFaceRasterizer loads a TrueType or OpenType font from a file path.
func LoadFaceRasterizer(path string, size float64, cellWidth, cellHeight int) (*FaceRasterizer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return LoadFaceRasterizerFromReader(f, size, cellWidth, cellHeight)
}

// LoadFaceRasterizerFromReader loads a TrueType or OpenType font from an io.Reader.
func LoadFaceRasterizerFromReader(r io.Reader, size float64, cellWidth, cellHeight int) (*FaceRasterizer, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	return LoadFaceRasterizerFromBytes(data, size, cellWidth, cellHeight)
}

// LoadFaceRasterizerFromBytes loads a TrueType or OpenType font from raw bytes.
func LoadFaceRasterizerFromBytes(data []byte, size float64, cellWidth, cellHeight int) (*FaceRasterizer, error) {
	if size <= 0 {
		return nil, fmt.Errorf("invalid font size %v", size)
	}

	ft, err := opentype.Parse(data)
	if err != nil {
		return nil, err
	}

	face, err := newFace(ft, size)
	if err != nil {
		return nil, err
	}

	cellWidth, cellHeight = cellSizeFor(face, cellWidth, cellHeight)
	return &FaceRasterizer{
		font:       ft,
		size:       size,
		face:       face,
		scale:      1,
		cellWidth:  cellWidth,
		cellHeight: cellHeight,
	}, nil
}

func newFace(ft *opentype.Font, size float64) (font.Face, error) {
	return opentype.NewFace(ft, &opentype.FaceOptions{
		Size:    size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
}

// cellSizeFor fills zero cell dimensions from the face metrics.
func cellSizeFor(face font.Face, cellWidth, cellHeight int) (int, int) {
	if cellWidth == 0 {
		adv, _ := face.GlyphAdvance('M')
		cellWidth = adv.Ceil()
		if cellWidth == 0 {
			cellWidth = 7 // fallback for basicfont
		}
	}
	if cellHeight == 0 {
		cellHeight = face.Metrics().Height.Ceil()
	}
	return cellWidth, cellHeight
}

// CellSize returns the unscaled cell size the face was set up for.
func (f *FaceRasterizer) CellSize() (width, height int) {
	return f.cellWidth, f.cellHeight
}

// Scale returns the current scale factor.
func (f *FaceRasterizer) Scale() float64 {
	return f.scale
}

// SetScale rebuilds scalable faces at size × scale.
func (f *FaceRasterizer) SetScale(scale float64) error {
	if scale <= 0 {
		return fmt.Errorf("invalid scale %v", scale)
	}
	if f.font != nil && scale != f.scale {
		face, err := newFace(f.font, f.size*scale)
		if err != nil {
			return fmt.Errorf("rebuild font face at scale %v: %w", scale, err)
		}
		if f.face != nil {
			f.face.Close()
		}
		f.face = face
	}
	f.scale = scale
	return nil
}

// Rasterize draws text in c onto a transparent image, one cell per rune.
func (f *FaceRasterizer) Rasterize(text string, c Color) (image.Image, error) {
	n := utf8.RuneCountInString(text)
	if n == 0 {
		return nil, errors.New("rasterize: empty text")
	}

	cw, ch := f.cellWidth, f.cellHeight
	if f.font != nil {
		cw = scaled(cw, f.scale)
		ch = scaled(ch, f.scale)
	}

	img := image.NewRGBA(image.Rect(0, 0, cw*n, ch))
	metrics := f.face.Metrics()

	// Center the face's line box vertically within the cell
	lineHeight := metrics.Height.Ceil()
	baseline := (ch-lineHeight)/2 + metrics.Ascent.Ceil()

	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c.RGBA()),
		Face: f.face,
	}

	col := 0
	for _, r := range text {
		if !isWhitespace(r) {
			d.Dot = fixed.P(col*cw, baseline)
			d.DrawString(string(r))
		}
		col++
	}

	return img, nil
}

// scaled multiplies a pixel length by scale, rounding to the nearest pixel.
func scaled(v int, scale float64) int {
	return int(math.Round(float64(v) * scale))
}
