package cellgfx

import (
	"errors"
	"image"
	"image/png"
	"io"

	xdraw "golang.org/x/image/draw"
)

// imageTexture is a texture held in memory as RGBA pixels.
type imageTexture struct {
	img *image.RGBA
}

func (t *imageTexture) Size() (int, int) {
	b := t.img.Bounds()
	return b.Dx(), b.Dy()
}

// ImageRenderer is a headless window: a Renderer drawing into an in-memory
// RGBA canvas sized like the window, and the Display that window lives on.
// Each Present snapshots the canvas as the current frame.
type ImageRenderer struct {
	FixedDisplay

	canvas   *image.RGBA
	frame    *image.RGBA
	frames   int
	textures map[*imageTexture]struct{}
}

// Ensure ImageRenderer satisfies its interfaces
var (
	_ Renderer = (*ImageRenderer)(nil)
	_ Display  = (*ImageRenderer)(nil)
)

// NewImageRenderer creates a headless window on a monitor of the given resolution.
func NewImageRenderer(displayWidth, displayHeight int) *ImageRenderer {
	r := &ImageRenderer{
		FixedDisplay: FixedDisplay{Width: displayWidth, Height: displayHeight},
		textures:     make(map[*imageTexture]struct{}),
	}
	r.resizeCanvas()
	return r
}

func (r *ImageRenderer) resizeCanvas() {
	w, h := r.WindowSize()
	if r.canvas != nil && r.canvas.Bounds().Dx() == w && r.canvas.Bounds().Dy() == h {
		return
	}
	r.canvas = image.NewRGBA(image.Rect(0, 0, w, h))
}

// SetWindowSize resizes the window and its canvas.
func (r *ImageRenderer) SetWindowSize(width, height int) {
	r.FixedDisplay.SetWindowSize(width, height)
	r.resizeCanvas()
}

// SetFullscreen resizes the canvas to the monitor when fullscreen.
func (r *ImageRenderer) SetFullscreen(fullscreen bool) error {
	if err := r.FixedDisplay.SetFullscreen(fullscreen); err != nil {
		return err
	}
	r.resizeCanvas()
	return nil
}

// NewTexture copies img into a new RGBA texture.
func (r *ImageRenderer) NewTexture(img image.Image) (Texture, error) {
	if img == nil {
		return nil, errors.New("new texture: nil image")
	}
	b := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	xdraw.Draw(rgba, rgba.Bounds(), img, b.Min, xdraw.Src)

	t := &imageTexture{img: rgba}
	r.textures[t] = struct{}{}
	return t, nil
}

// DestroyTexture forgets a texture created by this renderer.
func (r *ImageRenderer) DestroyTexture(t Texture) {
	if tex, ok := t.(*imageTexture); ok {
		delete(r.textures, tex)
	}
}

// LiveTextures returns the number of textures created and not yet destroyed.
func (r *ImageRenderer) LiveTextures() int {
	return len(r.textures)
}

// Clear fills the canvas with c.
func (r *ImageRenderer) Clear(c Color) {
	xdraw.Draw(r.canvas, r.canvas.Bounds(), image.NewUniform(c.RGBA()), image.Point{}, xdraw.Src)
}

// FillRect fills rect with c.
func (r *ImageRenderer) FillRect(rect image.Rectangle, c Color) {
	xdraw.Draw(r.canvas, rect, image.NewUniform(c.RGBA()), image.Point{}, xdraw.Src)
}

// DrawTexture scales the src region of t into dst with nearest-neighbor
// sampling, modulating texels by mod. Textures from other renderers are ignored.
func (r *ImageRenderer) DrawTexture(t Texture, src, dst image.Rectangle, mod Color) {
	tex, ok := t.(*imageTexture)
	if !ok || dst.Empty() {
		return
	}
	if src.Empty() {
		src = tex.img.Bounds()
	}

	var img image.Image = tex.img
	if mod.modulates() {
		img, src = modulate(tex.img, src, mod), image.Rect(0, 0, src.Dx(), src.Dy())
	}
	xdraw.NearestNeighbor.Scale(r.canvas, dst, img, src, xdraw.Over, nil)
}

// modulate returns the src region of img with each channel multiplied by mod.
func modulate(img *image.RGBA, src image.Rectangle, mod Color) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, src.Dx(), src.Dy()))
	for y := 0; y < src.Dy(); y++ {
		for x := 0; x < src.Dx(); x++ {
			c := img.RGBAAt(src.Min.X+x, src.Min.Y+y)
			c.R = uint8(uint16(c.R) * uint16(mod.R) / 255)
			c.G = uint8(uint16(c.G) * uint16(mod.G) / 255)
			c.B = uint8(uint16(c.B) * uint16(mod.B) / 255)
			out.SetRGBA(x, y, c)
		}
	}
	return out
}

// Present snapshots the canvas as the current frame.
func (r *ImageRenderer) Present() error {
	frame := image.NewRGBA(r.canvas.Bounds())
	copy(frame.Pix, r.canvas.Pix)
	r.frame = frame
	r.frames++
	return nil
}

// Frame returns the last presented frame, or nil before the first Present.
func (r *ImageRenderer) Frame() *image.RGBA {
	return r.frame
}

// Frames returns how many frames were presented.
func (r *ImageRenderer) Frames() int {
	return r.frames
}

// WritePNG encodes the last presented frame as PNG.
func (r *ImageRenderer) WritePNG(w io.Writer) error {
	if r.frame == nil {
		return errors.New("write png: no frame presented")
	}
	return png.Encode(w, r.frame)
}
