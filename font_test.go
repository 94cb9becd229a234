package cellgfx

import (
	"bytes"
	"image"
	"testing"

	"golang.org/x/image/font/gofont/gomono"
)

// litColumns reports which cells of a rasterized run have any opaque pixel.
func litColumns(img image.Image, cellWidth, n int) []bool {
	lit := make([]bool, n)
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if _, _, _, a := img.At(x, y).RGBA(); a > 0 {
				lit[(x-b.Min.X)/cellWidth] = true
			}
		}
	}
	return lit
}

func TestFaceRasterizerBasicFont(t *testing.T) {
	r := NewFaceRasterizer(nil, 0, 0)

	cw, ch := r.CellSize()
	if cw != 7 || ch != 13 {
		t.Fatalf("expected 7x13 cells, got %dx%d", cw, ch)
	}

	img, err := r.Rasterize("a b", BrightWhite)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 21, 13) {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}

	lit := litColumns(img, cw, 3)
	if !lit[0] || lit[1] || !lit[2] {
		t.Errorf("expected glyphs in cells 0 and 2 only, got %v", lit)
	}

	if _, err := r.Rasterize("", White); err == nil {
		t.Error("expected error for empty text")
	}
}

func TestFaceRasterizerColor(t *testing.T) {
	r := NewFaceRasterizer(nil, 7, 13)

	img, _ := r.Rasterize("#", Red)
	found := false
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y && !found; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if FromColor(img.At(x, y)) == Red {
				found = true
				break
			}
		}
	}
	if !found {
		t.Error("expected pixels in the requested color")
	}
}

func TestFaceRasterizerBitmapScale(t *testing.T) {
	r := NewFaceRasterizer(nil, 7, 13)

	if err := r.SetScale(2); err != nil {
		t.Fatal(err)
	}
	if r.Scale() != 2 {
		t.Errorf("Scale() = %v", r.Scale())
	}
	// Bitmap faces are scaled by the renderer, not rebuilt.
	img, _ := r.Rasterize("x", White)
	if img.Bounds() != image.Rect(0, 0, 7, 13) {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}

	if err := r.SetScale(0); err == nil {
		t.Error("expected error for zero scale")
	}
}

func TestFaceRasterizerOpenType(t *testing.T) {
	r, err := LoadFaceRasterizerFromReader(bytes.NewReader(gomono.TTF), 12, 8, 14)
	if err != nil {
		t.Fatal(err)
	}

	img, err := r.Rasterize("ok", White)
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds() != image.Rect(0, 0, 16, 14) {
		t.Errorf("unexpected bounds %v", img.Bounds())
	}

	if err := r.SetScale(2); err != nil {
		t.Fatal(err)
	}
	img, _ = r.Rasterize("ok", White)
	if img.Bounds() != image.Rect(0, 0, 32, 28) {
		t.Errorf("unexpected bounds at 2x %v", img.Bounds())
	}
	lit := litColumns(img, 16, 2)
	if !lit[0] || !lit[1] {
		t.Errorf("expected both glyphs drawn, got %v", lit)
	}
}

func TestLoadFaceRasterizerErrors(t *testing.T) {
	if _, err := LoadFaceRasterizerFromBytes(gomono.TTF, 0, 8, 14); err == nil {
		t.Error("expected error for zero size")
	}
	if _, err := LoadFaceRasterizerFromBytes([]byte("not a font"), 12, 8, 14); err == nil {
		t.Error("expected error for invalid data")
	}
	if _, err := LoadFaceRasterizer("does-not-exist.ttf", 12, 0, 0); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestTextRasterizer(t *testing.T) {
	img, err := TextRasterizer{CellWidth: 8, CellHeight: 12}.Rasterize("héllo", Green)
	if err != nil {
		t.Fatal(err)
	}
	ti, ok := img.(*TextImage)
	if !ok {
		t.Fatalf("expected *TextImage, got %T", img)
	}
	if ti.Text != "héllo" || ti.Color != Green {
		t.Errorf("unexpected text image %+v", ti)
	}
	if ti.Bounds() != image.Rect(0, 0, 40, 12) {
		t.Errorf("unexpected bounds %v", ti.Bounds())
	}
	if _, _, _, a := ti.At(0, 0).RGBA(); a != 0 {
		t.Error("text images should be transparent")
	}
}
