package cellgfx

import (
	"fmt"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
)

// Config is the TOML form of the construction options. Providers such as the
// renderer are not configurable from a file and are passed as extra options.
//
//	title = "game"
//	buffer_width = 80
//	buffer_height = 25
//	cell_width = 8
//	cell_height = 12
//	scale_options = [1.0, 2.0, 3.0]
//	scale_option = 1
//	fullscreen = false
//	background = "#000000"
//	font = "fonts/mono.ttf"
//	font_size = 12.0
//	special_chars = "content/special_chars.txt"
//	default_font = ""
//
//	[fonts.title]
//	path = "fonts/title.ttf"
//	size = 24.0
type Config struct {
	Title        string    `toml:"title"`
	BufferWidth  int       `toml:"buffer_width"`
	BufferHeight int       `toml:"buffer_height"`
	CellWidth    int       `toml:"cell_width"`
	CellHeight   int       `toml:"cell_height"`
	ScaleOptions []float64 `toml:"scale_options"`
	ScaleOption  int       `toml:"scale_option"`
	Fullscreen   bool      `toml:"fullscreen"`
	Background   string    `toml:"background"`
	Font         string    `toml:"font"`
	FontSize     float64   `toml:"font_size"`
	SpecialChars string    `toml:"special_chars"`
	DefaultFont  string    `toml:"default_font"`

	Fonts map[string]FontConfig `toml:"fonts"`
}

// FontConfig describes a named font file.
type FontConfig struct {
	Path string  `toml:"path"`
	Size float64 `toml:"size"`
}

// DefaultConfig returns the configuration New uses without options.
func DefaultConfig() Config {
	return Config{
		BufferWidth:  DEFAULT_WIDTH,
		BufferHeight: DEFAULT_HEIGHT,
		CellWidth:    DEFAULT_CELL_WIDTH,
		CellHeight:   DEFAULT_CELL_HEIGHT,
		ScaleOptions: []float64{1},
		Background:   Black.Hex(),
		FontSize:     12,
	}
}

// LoadConfig reads a TOML file over DefaultConfig. Unknown keys are an error.
func LoadConfig(path string) (Config, error) {
	cfg := DefaultConfig()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Config{}, fmt.Errorf("load config %s: unknown keys %s", path, strings.Join(keys, ", "))
	}
	return cfg, nil
}

// Options converts the configuration into options for New. The base font and
// the named fonts, when set, are loaded here.
func (c Config) Options() ([]Option, error) {
	bg, err := ParseColor(c.Background)
	if err != nil {
		return nil, fmt.Errorf("config background: %w", err)
	}

	opts := []Option{
		WithBufferSize(c.BufferWidth, c.BufferHeight),
		WithCellSize(c.CellWidth, c.CellHeight),
		WithScaleOptions(c.ScaleOptions...),
		WithScaleOption(c.ScaleOption),
		WithFullscreen(c.Fullscreen),
		WithBackgroundColor(bg),
	}

	if c.Title != "" {
		opts = append(opts, WithTitle(c.Title))
	}
	if c.Font != "" {
		r, err := LoadFaceRasterizer(c.Font, c.FontSize, c.CellWidth, c.CellHeight)
		if err != nil {
			return nil, fmt.Errorf("config font: %w", err)
		}
		opts = append(opts, WithRasterizer(r))
	}
	if c.SpecialChars != "" {
		opts = append(opts, WithSpecialCharTable(c.SpecialChars))
	}

	names := make([]string, 0, len(c.Fonts))
	for name := range c.Fonts {
		names = append(names, name)
	}
	slices.Sort(names)
	for _, name := range names {
		f := c.Fonts[name]
		r, err := LoadFaceRasterizer(f.Path, f.Size, c.CellWidth, c.CellHeight)
		if err != nil {
			return nil, fmt.Errorf("config font %q: %w", name, err)
		}
		opts = append(opts, WithFont(name, r))
	}
	if c.DefaultFont != "" {
		opts = append(opts, WithDefaultFont(c.DefaultFont))
	}

	return opts, nil
}
