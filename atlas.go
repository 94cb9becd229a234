package cellgfx

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"os"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ImageAtlas loads image files (PNG, GIF, JPEG, BMP, WebP) into renderer
// textures and addresses them as grids of fixed-size tiles, row-major.
type ImageAtlas struct {
	renderer   Renderer
	tileWidth  int
	tileHeight int
	textures   map[string]Texture
}

// Ensure ImageAtlas satisfies Atlas
var _ Atlas = (*ImageAtlas)(nil)

// NewImageAtlas creates an atlas whose tiles are tileWidth × tileHeight pixels,
// normally the unscaled cell size.
func NewImageAtlas(renderer Renderer, tileWidth, tileHeight int) *ImageAtlas {
	return &ImageAtlas{
		renderer:   renderer,
		tileWidth:  tileWidth,
		tileHeight: tileHeight,
		textures:   make(map[string]Texture),
	}
}

// Load decodes the image file at path and stores it under key.
func (a *ImageAtlas) Load(key, path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("load texture %q: %w", key, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return fmt.Errorf("decode texture %q from %s: %w", key, path, err)
	}
	return a.Add(key, img)
}

// Add uploads an in-memory image under key, replacing any previous texture.
func (a *ImageAtlas) Add(key string, img image.Image) error {
	tex, err := a.renderer.NewTexture(img)
	if err != nil {
		return fmt.Errorf("upload texture %q: %w", key, err)
	}
	a.Unload(key)
	a.textures[key] = tex
	return nil
}

// Texture returns the texture stored under key.
func (a *ImageAtlas) Texture(key string) (Texture, bool) {
	t, ok := a.textures[key]
	return t, ok
}

// Tile returns the rectangle of tile index, counting left to right, top to bottom.
func (a *ImageAtlas) Tile(key string, index int) (image.Rectangle, bool) {
	t, ok := a.textures[key]
	if !ok || a.tileWidth <= 0 || a.tileHeight <= 0 || index < 0 {
		return image.Rectangle{}, false
	}

	w, h := t.Size()
	cols, rows := w/a.tileWidth, h/a.tileHeight
	if index >= cols*rows {
		return image.Rectangle{}, false
	}

	x := index % cols * a.tileWidth
	y := index / cols * a.tileHeight
	return image.Rect(x, y, x+a.tileWidth, y+a.tileHeight), true
}

// Unload destroys the texture stored under key, if any.
func (a *ImageAtlas) Unload(key string) {
	if t, ok := a.textures[key]; ok {
		a.renderer.DestroyTexture(t)
		delete(a.textures, key)
	}
}

// Clear destroys every texture.
func (a *ImageAtlas) Clear() {
	for key := range a.textures {
		a.Unload(key)
	}
}

// Len returns the number of stored textures.
func (a *ImageAtlas) Len() int {
	return len(a.textures)
}
