// Package cellgfx renders grids of colored character cells onto a graphical
// window, the way a terminal or a roguelike draws its screen.
//
// # Quick Start
//
// Create a Graphics over a renderer, write to its primary surface and draw:
//
//	r := cellgfx.NewImageRenderer(1920, 1080)
//	g, err := cellgfx.New(cellgfx.WithRenderer(r), cellgfx.WithBufferSize(40, 12))
//	if err != nil {
//		log.Fatal(err)
//	}
//	g.Surface().PrintString(1, 1, "Hello", cellgfx.BrightGreen)
//	g.Update()
//	r.WritePNG(f)
//
// # Architecture
//
//   - [Surface]: a fixed-size grid of [Cell] values (character, colors, opacity)
//   - [GlyphCache]: rendered text-run textures keyed by text and color
//   - [SpecialCharTable]: codepoints drawn as a base character plus a sprite overlay
//   - [RowBatcher]: turns a surface into few draw commands by chaining runs of cells
//   - [ScaleManager]: picks the largest scale option that fits the monitor
//   - [Graphics]: the compositor tying them together, one frame per Update
//
// # Frames
//
// Each [Graphics.Update] clears the window, draws background images, the
// primary surface, foreground images and then every surface queued with
// [Graphics.DrawForegroundSurface] since the last frame, in queue order.
// The queue is empty again once Update returns.
//
// # Providers
//
// Graphics talks to the platform through small interfaces:
//
//   - [Renderer]: textures, fills and frame presentation
//   - [Display]: window size, monitors, fullscreen
//   - [Rasterizer]: turns text into bitmaps
//   - [Atlas]: image files cut into tiles
//
// The package ships [ImageRenderer] (off-screen RGBA), [RecordingRenderer]
// (captures draw commands), [FaceRasterizer] (x/image fonts),
// [TextRasterizer] (text only, for character backends) and [ImageAtlas].
// The tcellbackend sub-package draws into a terminal.
//
// # Fonts
//
// Text is rasterized with the base rasterizer unless a cell region picks a
// named font:
//
//	g.AddFont("title", titleFace)
//	g.SetCellFont(image.Rect(0, 0, 20, 1), "title")
//
// Cell fonts belong to destination cells, so foreground surfaces drawn over
// the region use them too. Text in a font that is not registered is skipped
// and logged once.
//
// # Special Characters
//
// Glyphs missing from the font can be drawn as a base character plus a
// "flair" tile from a sprite sheet. The table file lists the sprite sheet
// path on its first line, then one record per line:
//
//	content/flair.png
//	é e 0
//	ŵ w 1 -2
//	☼ NONE 2
//
// A record is the character, its base character (NONE for none), the tile
// index and an optional vertical offset in unscaled pixels.
package cellgfx
