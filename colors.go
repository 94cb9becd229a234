package cellgfx

import (
	"fmt"
	"image/color"

	colorful "github.com/lucasb-eyer/go-colorful"
)

// Alpha is the opacity applied to every color drawn by the package.
const Alpha uint8 = 255

// Color is an opaque RGB color. Colors compare by value.
type Color struct {
	R, G, B uint8
}

// The 16 console colors (0-15), in ANSI order.
var (
	Black         = Color{0, 0, 0}
	Red           = Color{205, 49, 49}
	Green         = Color{13, 188, 121}
	Yellow        = Color{229, 229, 16}
	Blue          = Color{36, 114, 200}
	Magenta       = Color{188, 63, 188}
	Cyan          = Color{17, 168, 205}
	White         = Color{229, 229, 229}
	BrightBlack   = Color{102, 102, 102}
	BrightRed     = Color{241, 76, 76}
	BrightGreen   = Color{35, 209, 139}
	BrightYellow  = Color{245, 245, 67}
	BrightBlue    = Color{59, 142, 234}
	BrightMagenta = Color{214, 112, 214}
	BrightCyan    = Color{41, 184, 219}
	BrightWhite   = Color{255, 255, 255}
)

// ConsolePalette indexes the 16 console colors the way ANSI SGR codes do.
var ConsolePalette = [16]Color{
	Black, Red, Green, Yellow, Blue, Magenta, Cyan, White,
	BrightBlack, BrightRed, BrightGreen, BrightYellow, BrightBlue, BrightMagenta, BrightCyan, BrightWhite,
}

// NoModulation returns pure white. Modulation multiplies each texel channel
// by mod/255, so white leaves texture colors untouched.
func NoModulation() Color {
	return Color{255, 255, 255}
}

// modulates reports whether drawing with c as modulation changes any texel.
func (c Color) modulates() bool {
	return c.R != 255 || c.G != 255 || c.B != 255
}

// RGBA returns the color with the global alpha applied.
func (c Color) RGBA() color.RGBA {
	return color.RGBA{R: c.R, G: c.G, B: c.B, A: Alpha}
}

// Hex formats the color as #rrggbb.
func (c Color) Hex() string {
	return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
}

func (c Color) String() string {
	return c.Hex()
}

// FromColor converts any color.Color, dropping its alpha channel.
func FromColor(c color.Color) Color {
	r, g, b, _ := c.RGBA()
	return Color{R: uint8(r >> 8), G: uint8(g >> 8), B: uint8(b >> 8)}
}

// ParseColor parses a #rrggbb or #rgb hex string.
func ParseColor(s string) (Color, error) {
	c, err := colorful.Hex(s)
	if err != nil {
		return Color{}, fmt.Errorf("parse color %q: %w", s, err)
	}
	r, g, b := c.RGB255()
	return Color{R: r, G: g, B: b}, nil
}

// indexedColor resolves an xterm 256-color index: 16 console colors, the 6x6x6 cube
// (16-231) and the 24-step grayscale ramp (232-255).
func indexedColor(index int) Color {
	switch {
	case index < 0:
		return White
	case index < 16:
		return ConsolePalette[index]
	case index < 232:
		i := index - 16
		return Color{R: uint8(i / 36 * 51), G: uint8(i / 6 % 6 * 51), B: uint8(i % 6 * 51)}
	case index < 256:
		gray := uint8(8 + (index-232)*10)
		return Color{gray, gray, gray}
	default:
		return White
	}
}
