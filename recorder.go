package cellgfx

import (
	"errors"
	"fmt"
	"image"
)

// CommandKind identifies a recorded draw command.
type CommandKind uint8

const (
	CommandClear CommandKind = iota
	CommandFill
	CommandTexture
	CommandPresent
)

func (k CommandKind) String() string {
	switch k {
	case CommandClear:
		return "clear"
	case CommandFill:
		return "fill"
	case CommandTexture:
		return "texture"
	case CommandPresent:
		return "present"
	default:
		return fmt.Sprintf("CommandKind(%d)", k)
	}
}

// Command is one call made on a RecordingRenderer.
type Command struct {
	Kind CommandKind
	// Rect is the filled or destination rectangle.
	Rect image.Rectangle
	// Src is the source region of a texture draw, empty for the whole texture.
	Src image.Rectangle
	// Color is the clear/fill color or the texture modulation.
	Color Color
	// TextureID identifies the drawn texture.
	TextureID int
	// Text and TextColor are set when the texture was made from a TextImage.
	Text      string
	TextColor Color
}

// IsText reports whether the command draws a text run.
func (c Command) IsText() bool {
	return c.Kind == CommandTexture && c.Text != ""
}

// recordedTexture is the handle type of RecordingRenderer.
type recordedTexture struct {
	id     int
	width  int
	height int
	text   string
	color  Color
}

func (t *recordedTexture) Size() (int, int) {
	return t.width, t.height
}

// RecordingRenderer records every draw command instead of drawing.
// Textures made from a *TextImage keep their text, so tests can assert
// which runs were drawn.
//
// Example:
//
//	rec := cellgfx.NewRecordingRenderer()
//	g, _ := cellgfx.New(cellgfx.WithRenderer(rec), cellgfx.WithRasterizer(cellgfx.TextRasterizer{}))
//	g.Update()
//	for _, cmd := range rec.Commands() { ... }
type RecordingRenderer struct {
	commands  []Command
	nextID    int
	live      map[int]*recordedTexture
	created   int
	destroyed int
}

// Ensure RecordingRenderer satisfies Renderer
var _ Renderer = (*RecordingRenderer)(nil)

// NewRecordingRenderer creates an empty recorder.
func NewRecordingRenderer() *RecordingRenderer {
	return &RecordingRenderer{
		live: make(map[int]*recordedTexture),
	}
}

func (r *RecordingRenderer) NewTexture(img image.Image) (Texture, error) {
	if img == nil {
		return nil, errors.New("new texture: nil image")
	}
	r.nextID++
	b := img.Bounds()
	t := &recordedTexture{id: r.nextID, width: b.Dx(), height: b.Dy()}
	if ti, ok := img.(*TextImage); ok {
		t.text = ti.Text
		t.color = ti.Color
	}
	r.live[t.id] = t
	r.created++
	return t, nil
}

func (r *RecordingRenderer) DestroyTexture(t Texture) {
	if tex, ok := t.(*recordedTexture); ok {
		if _, live := r.live[tex.id]; live {
			delete(r.live, tex.id)
			r.destroyed++
		}
	}
}

func (r *RecordingRenderer) Clear(c Color) {
	r.commands = append(r.commands, Command{Kind: CommandClear, Color: c})
}

func (r *RecordingRenderer) FillRect(rect image.Rectangle, c Color) {
	r.commands = append(r.commands, Command{Kind: CommandFill, Rect: rect, Color: c})
}

func (r *RecordingRenderer) DrawTexture(t Texture, src, dst image.Rectangle, mod Color) {
	cmd := Command{Kind: CommandTexture, Rect: dst, Src: src, Color: mod}
	if tex, ok := t.(*recordedTexture); ok {
		cmd.TextureID = tex.id
		cmd.Text = tex.text
		cmd.TextColor = tex.color
	}
	r.commands = append(r.commands, cmd)
}

func (r *RecordingRenderer) Present() error {
	r.commands = append(r.commands, Command{Kind: CommandPresent})
	return nil
}

// Commands returns every command recorded since the last Reset.
func (r *RecordingRenderer) Commands() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// Filter returns the recorded commands of one kind.
func (r *RecordingRenderer) Filter(kind CommandKind) []Command {
	var out []Command
	for _, c := range r.commands {
		if c.Kind == kind {
			out = append(out, c)
		}
	}
	return out
}

// Texts returns the recorded text-run draws.
func (r *RecordingRenderer) Texts() []Command {
	var out []Command
	for _, c := range r.commands {
		if c.IsText() {
			out = append(out, c)
		}
	}
	return out
}

// Reset discards the recorded commands. Textures stay alive.
func (r *RecordingRenderer) Reset() {
	r.commands = nil
}

// LiveTextures returns the number of textures not yet destroyed.
func (r *RecordingRenderer) LiveTextures() int {
	return len(r.live)
}

// TexturesCreated returns how many textures were ever created.
func (r *RecordingRenderer) TexturesCreated() int {
	return r.created
}
