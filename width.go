package cellgfx

import "github.com/unilibs/uniwidth"

// FitsCell reports whether r can be drawn in one fixed-width cell.
// CJK ideographs, fullwidth forms and most emoji need two columns and do not fit.
func FitsCell(r rune) bool {
	return uniwidth.RuneWidth(r) < 2
}

// TextColumns returns how many terminal columns s would occupy. A result
// larger than the rune count means s holds runes that FitsCell rejects.
func TextColumns(s string) int {
	return uniwidth.StringWidth(s)
}
