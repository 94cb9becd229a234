package cellgfx

import (
	"errors"
	"image"
	"image/color"
	"unicode/utf8"
)

// TextImage is a glyph-less image that remembers the text and color it stands
// for. Backends that draw characters rather than pixels (terminals, recorders)
// read Text and Color back instead of sampling pixels. Every pixel is transparent.
type TextImage struct {
	Text  string
	Color Color

	cellWidth  int
	cellHeight int
}

// Ensure TextImage satisfies image.Image
var _ image.Image = (*TextImage)(nil)

func (t *TextImage) ColorModel() color.Model {
	return color.RGBAModel
}

func (t *TextImage) Bounds() image.Rectangle {
	return image.Rect(0, 0, t.cellWidth*utf8.RuneCountInString(t.Text), t.cellHeight)
}

func (t *TextImage) At(x, y int) color.Color {
	return color.RGBA{}
}

// TextRasterizer produces TextImages sized in cells of the given pixel size.
type TextRasterizer struct {
	CellWidth  int
	CellHeight int
}

// Ensure TextRasterizer satisfies Rasterizer
var _ Rasterizer = TextRasterizer{}

// Rasterize returns a *TextImage for text.
func (r TextRasterizer) Rasterize(text string, c Color) (image.Image, error) {
	if text == "" {
		return nil, errors.New("rasterize: empty text")
	}
	cw, ch := r.CellWidth, r.CellHeight
	if cw <= 0 {
		cw = 1
	}
	if ch <= 0 {
		ch = 1
	}
	return &TextImage{Text: text, Color: c, cellWidth: cw, cellHeight: ch}, nil
}
