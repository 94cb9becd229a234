package cellgfx

import (
	"errors"
	"image"
)

// ErrUnknownTexture is returned when a texture key is not loaded.
var ErrUnknownTexture = errors.New("cellgfx: unknown texture")

// Texture is an opaque, renderer-owned image handle.
type Texture interface {
	// Size returns the texture dimensions in pixels.
	Size() (width, height int)
}

// --- Renderer ---

// Renderer is the drawing surface of a window. Coordinates are window pixels.
type Renderer interface {
	// NewTexture uploads an image and returns a handle owned by the caller.
	NewTexture(img image.Image) (Texture, error)
	// DestroyTexture releases a texture created by NewTexture.
	DestroyTexture(t Texture)
	// Clear fills the whole window with c.
	Clear(c Color)
	// FillRect fills r with c.
	FillRect(r image.Rectangle, c Color)
	// DrawTexture copies the src region of t (the whole texture when src is empty)
	// into dst, scaling as needed, with every texel multiplied by mod.
	DrawTexture(t Texture, src, dst image.Rectangle, mod Color)
	// Present shows the frame drawn since the last Present.
	Present() error
}

// RendererInitializer is implemented by renderers that need setup before the first frame.
// A failing Init is fatal for [New].
type RendererInitializer interface {
	Init() error
}

// RendererCloser is implemented by renderers that hold platform resources.
type RendererCloser interface {
	Close() error
}

// --- Rasterizer ---

// Rasterizer renders a run of text in a color into a bitmap.
type Rasterizer interface {
	Rasterize(text string, c Color) (image.Image, error)
}

// ScalableRasterizer is implemented by rasterizers whose glyph size follows the display scale.
// SetScale is called before the glyph cache is invalidated.
type ScalableRasterizer interface {
	Rasterizer
	SetScale(scale float64) error
}

// --- Atlas ---

// Atlas loads images from files into textures and cuts them into fixed-size tiles.
type Atlas interface {
	// Load reads the image at path and stores it under key, replacing any previous texture.
	Load(key, path string) error
	// Texture returns the texture stored under key.
	Texture(key string) (Texture, bool)
	// Tile returns the pixel rectangle of tile index within the texture stored under key.
	Tile(key string, index int) (image.Rectangle, bool)
	// Unload destroys the texture stored under key.
	Unload(key string)
}

// --- Display ---

// Display is the window and the monitors it can be shown on.
type Display interface {
	// DisplayIndex returns the index of the monitor showing the window.
	DisplayIndex() (int, error)
	// DisplayResolution returns the native resolution of a monitor.
	DisplayResolution(index int) (width, height int, err error)
	// WindowSize returns the current window size in pixels.
	WindowSize() (width, height int)
	// SetWindowSize resizes the window.
	SetWindowSize(width, height int)
	// CenterWindow moves the window to the center of a monitor.
	CenterWindow(index int)
	// SetFullscreen switches between desktop fullscreen and windowed mode.
	SetFullscreen(fullscreen bool) error
}

// FixedDisplay is a single monitor of fixed resolution whose window takes any size.
// Useful when rendering off-screen.
type FixedDisplay struct {
	Width, Height int

	windowWidth, windowHeight int
	fullscreen                bool
}

// NewFixedDisplay creates a display with one monitor of the given resolution.
func NewFixedDisplay(width, height int) *FixedDisplay {
	return &FixedDisplay{Width: width, Height: height}
}

func (d *FixedDisplay) DisplayIndex() (int, error) { return 0, nil }

func (d *FixedDisplay) DisplayResolution(index int) (int, int, error) {
	if index != 0 {
		return 0, 0, errors.New("cellgfx: no such display")
	}
	return d.Width, d.Height, nil
}

func (d *FixedDisplay) WindowSize() (int, int) {
	if d.fullscreen {
		return d.Width, d.Height
	}
	return d.windowWidth, d.windowHeight
}

func (d *FixedDisplay) SetWindowSize(width, height int) {
	d.windowWidth, d.windowHeight = width, height
}

func (d *FixedDisplay) CenterWindow(index int) {}

func (d *FixedDisplay) SetFullscreen(fullscreen bool) error {
	d.fullscreen = fullscreen
	return nil
}

// Fullscreen reports the last fullscreen state set.
func (d *FixedDisplay) Fullscreen() bool {
	return d.fullscreen
}

// Ensure implementations satisfy their interfaces
var _ Display = (*FixedDisplay)(nil)
