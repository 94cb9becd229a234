package cellgfx

import (
	"image/color"

	"github.com/danielgatis/go-ansicode"
)

// ansiWriter decodes ANSI text into a surface region. Only printing, line
// movement, cursor motion and SGR colors affect the surface; every other
// control sequence is accepted and ignored.
type ansiWriter struct {
	surface *Surface
	originX int
	originY int
	x, y    int

	fg      Color
	bg      *Color
	reverse bool
}

// Ensure ansiWriter implements ansicode.Handler
var _ ansicode.Handler = (*ansiWriter)(nil)

// WriteANSI decodes data, which may carry SGR color sequences, into cells
// starting at (x, y). A line feed moves to column x of the next row and a
// carriage return back to column x. Text outside the surface is dropped.
// Written cells become opaque; cells keep their background unless an SGR
// background color is active.
//
//	s.WriteANSI(0, 0, []byte("\x1b[31mHP\x1b[0m 10/10"))
func (s *Surface) WriteANSI(x, y int, data []byte) (int, error) {
	if _, err := s.index(x, y); err != nil {
		return 0, err
	}

	w := &ansiWriter{
		surface: s,
		originX: x,
		originY: y,
		x:       x,
		y:       y,
		fg:      White,
	}
	return ansicode.NewDecoder(w).Write(data)
}

func (w *ansiWriter) Input(r rune) {
	if w.surface.InBounds(w.x, w.y) {
		if !FitsCell(r) {
			r = '?'
		}
		c := w.surface.at(w.x, w.y)
		fg := w.fg
		bg := c.Bg
		if w.bg != nil {
			bg = *w.bg
		}
		if w.reverse {
			fg, bg = bg, fg
		}
		c.Char = r
		c.Fg = fg
		c.Bg = bg
		c.Opaque = true
	}
	w.x++
}

func (w *ansiWriter) LineFeed() {
	w.y++
	w.x = w.originX
}

func (w *ansiWriter) CarriageReturn() {
	w.x = w.originX
}

func (w *ansiWriter) Backspace() {
	if w.x > w.originX {
		w.x--
	}
}

func (w *ansiWriter) Tab(n int) {
	for i := 0; i < n; i++ {
		w.x = w.originX + ((w.x-w.originX)/8+1)*8
	}
}

func (w *ansiWriter) Goto(row, col int) {
	w.y = w.originY + row
	w.x = w.originX + col
}

func (w *ansiWriter) GotoLine(row int) {
	w.y = w.originY + row
}

func (w *ansiWriter) GotoCol(col int) {
	w.x = w.originX + col
}

func (w *ansiWriter) MoveUp(n int) {
	w.y -= n
}

func (w *ansiWriter) MoveDown(n int) {
	w.y += n
}

func (w *ansiWriter) MoveForward(n int) {
	w.x += n
}

func (w *ansiWriter) MoveBackward(n int) {
	w.x -= n
	if w.x < w.originX {
		w.x = w.originX
	}
}

func (w *ansiWriter) MoveUpCr(n int) {
	w.MoveUp(n)
	w.CarriageReturn()
}

func (w *ansiWriter) MoveDownCr(n int) {
	w.MoveDown(n)
	w.CarriageReturn()
}

func (w *ansiWriter) ResetState() {
	w.fg = White
	w.bg = nil
	w.reverse = false
	w.x, w.y = w.originX, w.originY
}

// SetTerminalCharAttribute applies the SGR colors and reverse video; other attributes have no cell representation.
func (w *ansiWriter) SetTerminalCharAttribute(attr ansicode.TerminalCharAttribute) {
	switch attr.Attr {
	case ansicode.CharAttributeReset:
		w.fg = White
		w.bg = nil
		w.reverse = false

	case ansicode.CharAttributeReverse:
		w.reverse = true

	case ansicode.CharAttributeCancelReverse:
		w.reverse = false

	case ansicode.CharAttributeForeground:
		if c, ok := resolveANSIColor(attr); ok {
			w.fg = c
		} else {
			w.fg = White
		}

	case ansicode.CharAttributeBackground:
		if c, ok := resolveANSIColor(attr); ok {
			w.bg = &c
		} else {
			w.bg = nil
		}
	}
}

// resolveANSIColor returns false when the attribute selects the default color.
func resolveANSIColor(attr ansicode.TerminalCharAttribute) (Color, bool) {
	if attr.RGBColor != nil {
		return Color{R: attr.RGBColor.R, G: attr.RGBColor.G, B: attr.RGBColor.B}, true
	}

	if attr.IndexedColor != nil {
		return indexedColor(int(attr.IndexedColor.Index)), true
	}

	if attr.NamedColor != nil {
		name := int(*attr.NamedColor)
		if name >= 0 && name < len(ConsolePalette) {
			return ConsolePalette[name], true
		}
	}

	return Color{}, false
}

// Sequences without a cell representation.

func (w *ansiWriter) ApplicationCommandReceived(data []byte)                                             {}
func (w *ansiWriter) Bell()                                                                              {}
func (w *ansiWriter) ClearLine(mode ansicode.LineClearMode)                                              {}
func (w *ansiWriter) ClearScreen(mode ansicode.ClearMode)                                                {}
func (w *ansiWriter) ClearTabs(mode ansicode.TabulationClearMode)                                        {}
func (w *ansiWriter) ClipboardLoad(clipboard byte, terminator string)                                    {}
func (w *ansiWriter) ClipboardStore(clipboard byte, data []byte)                                         {}
func (w *ansiWriter) ConfigureCharset(index ansicode.CharsetIndex, charset ansicode.Charset)             {}
func (w *ansiWriter) Decaln()                                                                            {}
func (w *ansiWriter) DeleteChars(n int)                                                                  {}
func (w *ansiWriter) DeleteLines(n int)                                                                  {}
func (w *ansiWriter) DeviceStatus(n int)                                                                 {}
func (w *ansiWriter) EraseChars(n int)                                                                   {}
func (w *ansiWriter) HorizontalTabSet()                                                                  {}
func (w *ansiWriter) IdentifyTerminal(b byte)                                                            {}
func (w *ansiWriter) InsertBlank(n int)                                                                  {}
func (w *ansiWriter) InsertBlankLines(n int)                                                             {}
func (w *ansiWriter) MoveBackwardTabs(n int)                                                             {}
func (w *ansiWriter) MoveForwardTabs(n int)                                                              {}
func (w *ansiWriter) PopKeyboardMode(n int)                                                              {}
func (w *ansiWriter) PopTitle()                                                                          {}
func (w *ansiWriter) PrivacyMessageReceived(data []byte)                                                 {}
func (w *ansiWriter) PushKeyboardMode(mode ansicode.KeyboardMode)                                        {}
func (w *ansiWriter) PushTitle()                                                                         {}
func (w *ansiWriter) ReportKeyboardMode()                                                                {}
func (w *ansiWriter) ReportModifyOtherKeys()                                                             {}
func (w *ansiWriter) ResetColor(i int)                                                                   {}
func (w *ansiWriter) RestoreCursorPosition()                                                             {}
func (w *ansiWriter) ReverseIndex()                                                                      {}
func (w *ansiWriter) SaveCursorPosition()                                                                {}
func (w *ansiWriter) ScrollDown(n int)                                                                   {}
func (w *ansiWriter) ScrollUp(n int)                                                                     {}
func (w *ansiWriter) SetActiveCharset(n int)                                                             {}
func (w *ansiWriter) SetColor(index int, c color.Color)                                                  {}
func (w *ansiWriter) SetCursorStyle(style ansicode.CursorStyle)                                          {}
func (w *ansiWriter) SetDynamicColor(prefix string, index int, terminator string)                        {}
func (w *ansiWriter) SetHyperlink(hyperlink *ansicode.Hyperlink)                                         {}
func (w *ansiWriter) SetKeyboardMode(mode ansicode.KeyboardMode, behavior ansicode.KeyboardModeBehavior) {}
func (w *ansiWriter) SetKeypadApplicationMode()                                                          {}
func (w *ansiWriter) SetMode(mode ansicode.TerminalMode)                                                 {}
func (w *ansiWriter) SetModifyOtherKeys(modify ansicode.ModifyOtherKeys)                                 {}
func (w *ansiWriter) SetScrollingRegion(top, bottom int)                                                 {}
func (w *ansiWriter) SetTitle(title string)                                                              {}
func (w *ansiWriter) StartOfStringReceived(data []byte)                                                  {}
func (w *ansiWriter) Substitute()                                                                        {}
func (w *ansiWriter) TextAreaSizeChars()                                                                 {}
func (w *ansiWriter) TextAreaSizePixels()                                                                {}
func (w *ansiWriter) UnsetKeypadApplicationMode()                                                        {}
func (w *ansiWriter) UnsetMode(mode ansicode.TerminalMode)                                               {}
