package cellgfx

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strconv"
	"strings"
	"unicode/utf8"
)

// FlairAtlasKey is the atlas key reserved for the flair sprite sheet of the special character table.
const FlairAtlasKey = "__special_chars_flair__"

// noBase marks a record whose glyph is drawn by the flair alone.
const noBase = "NONE"

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ComboChar draws a codepoint the base font lacks as a base character plus a
// sprite ("flair") from the flair sheet.
type ComboChar struct {
	// Base is drawn in place of the codepoint; a space when the record has no printable base.
	Base rune
	// FlairIndex is the tile index in the flair sheet.
	FlairIndex int
	// FlairOffset shifts the flair vertically, in unscaled pixels.
	FlairOffset int
}

// SpecialCharTable maps codepoints to combo characters. A table is loaded and
// replaced as a unit: loading disposes the previous flair texture and mapping.
//
// File format (UTF-8, a leading byte order mark is stripped with a warning):
//
//	<path to flair sprite sheet>
//	<char> <base char|NONE> <flair index> [y offset]
//	...
type SpecialCharTable struct {
	atlas   Atlas
	logger  *log.Logger
	entries map[rune]ComboChar
	sheet   string
	loaded  bool
}

// NewSpecialCharTable creates an empty table loading its flair sheet into atlas.
func NewSpecialCharTable(atlas Atlas, logger *log.Logger) *SpecialCharTable {
	return &SpecialCharTable{
		atlas:   atlas,
		logger:  orDiscard(logger),
		entries: make(map[rune]ComboChar),
	}
}

// Load replaces the table with the one described by the file at path.
// On error the table is left empty.
func (t *SpecialCharTable) Load(path string) error {
	t.Dispose()

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("load special character table: %w", err)
	}

	sheet, entries, err := parseSpecialChars(data, path, t.logger)
	if err != nil {
		return err
	}

	if t.atlas == nil {
		return fmt.Errorf("load special character table %s: no atlas", path)
	}
	if err := t.atlas.Load(FlairAtlasKey, sheet); err != nil {
		return fmt.Errorf("load flair sheet %s: %w", sheet, err)
	}

	t.entries = entries
	t.sheet = sheet
	t.loaded = true
	return nil
}

// Dispose unloads the flair texture and clears the mapping.
func (t *SpecialCharTable) Dispose() {
	if t.loaded && t.atlas != nil {
		t.atlas.Unload(FlairAtlasKey)
	}
	t.entries = make(map[rune]ComboChar)
	t.sheet = ""
	t.loaded = false
}

// Lookup returns the combo character registered for r.
func (t *SpecialCharTable) Lookup(r rune) (ComboChar, bool) {
	c, ok := t.entries[r]
	return c, ok
}

// Loaded reports whether a table is currently loaded.
func (t *SpecialCharTable) Loaded() bool {
	return t.loaded
}

// Len returns the number of mapped codepoints.
func (t *SpecialCharTable) Len() int {
	return len(t.entries)
}

// SheetPath returns the flair sheet path of the loaded table.
func (t *SpecialCharTable) SheetPath() string {
	return t.sheet
}

// AtlasKey returns the atlas key holding the flair sheet.
func (t *SpecialCharTable) AtlasKey() string {
	return FlairAtlasKey
}

// ParseSpecialCharTable reads a table without loading its flair sheet.
// Malformed records are logged to logger and skipped.
func ParseSpecialCharTable(r io.Reader, logger *log.Logger) (sheet string, entries map[rune]ComboChar, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", nil, fmt.Errorf("read special character table: %w", err)
	}
	return parseSpecialChars(data, "<reader>", orDiscard(logger))
}

func parseSpecialChars(data []byte, name string, logger *log.Logger) (string, map[rune]ComboChar, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		logger.Printf("warning: %s contains a UTF-8 byte order mark", name)
		data = data[len(utf8BOM):]
	}
	if !utf8.Valid(data) {
		return "", nil, fmt.Errorf("special character table %s: invalid UTF-8", name)
	}

	var sheet string
	entries := make(map[rune]ComboChar)

	for i, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}

		if sheet == "" {
			sheet = strings.TrimSpace(line)
			continue
		}

		r, combo, err := parseComboRecord(line)
		if err != nil {
			logger.Printf("%s:%d: skipping record: %v", name, i+1, err)
			continue
		}
		entries[r] = combo
	}

	if sheet == "" {
		return "", nil, fmt.Errorf("special character table %s: missing flair sheet path", name)
	}
	return sheet, entries, nil
}

var errShortRecord = errors.New("expected <char> <base|NONE> <flair index> [y offset]")

// parseComboRecord parses "<char> <base|NONE> <flair index> [y offset]".
func parseComboRecord(line string) (rune, ComboChar, error) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return 0, ComboChar{}, fmt.Errorf("%w, got %d fields", errShortRecord, len(fields))
	}

	r, _ := utf8.DecodeRuneInString(fields[0])

	base := ' '
	if fields[1] != noBase && utf8.RuneCountInString(fields[1]) == 1 {
		base, _ = utf8.DecodeRuneInString(fields[1])
	}

	index, err := strconv.Atoi(fields[2])
	if err != nil {
		return 0, ComboChar{}, fmt.Errorf("flair index %q: %w", fields[2], err)
	}

	offset := 0
	if len(fields) > 3 {
		offset, err = strconv.Atoi(fields[3])
		if err != nil {
			return 0, ComboChar{}, fmt.Errorf("y offset %q: %w", fields[3], err)
		}
	}

	return r, ComboChar{Base: base, FlairIndex: index, FlairOffset: offset}, nil
}
