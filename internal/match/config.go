package match

import (
	"fmt"
	"strings"
)

// MapStyle is a cosmetic preset. It never changes the rules.
type MapStyle string

const (
	StyleClassic MapStyle = "classic"
	StyleRed     MapStyle = "red"
	StyleNeon    MapStyle = "neon"
)

func ParseMapStyle(s string) (MapStyle, error) {
	style := MapStyle(strings.ToLower(strings.TrimSpace(s)))
	if !style.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidMapStyle, s)
	}
	return style, nil
}

func (s MapStyle) Valid() bool {
	switch s {
	case StyleClassic, StyleRed, StyleNeon:
		return true
	}
	return false
}

// Soundtrack names the background track the host plays for the style.
func (s MapStyle) Soundtrack() string {
	switch s {
	case StyleRed:
		return "Envy"
	case StyleNeon:
		return "Arcadewave"
	default:
		return "Force"
	}
}

// Palette is the set of colors offered by the match lobby.
var Palette = []string{"#FF0000", "#00FF00", "#0000FF", "#FFFF00", "#FF00FF", "#00FFFF"}

// Config is fixed for the lifetime of a match. Changing any field means
// tearing the session down and building a new one.
type Config struct {
	Paddle1Color string   `json:"paddle1_color" yaml:"paddle1_color"`
	Paddle2Color string   `json:"paddle2_color" yaml:"paddle2_color"`
	MapStyle     MapStyle `json:"map_style" yaml:"map_style"`
}

// Resolved is a validated Config with parsed colors.
type Resolved struct {
	Paddle1 Color
	Paddle2 Color
	Style   MapStyle
}

// Validate checks colors and style. It does not require distinct colors;
// the lobby enforces that with ValidateDistinct.
func (c Config) Validate() error {
	_, err := c.Resolve()
	return err
}

func (c Config) Resolve() (Resolved, error) {
	p1, err := ParseHex(c.Paddle1Color)
	if err != nil {
		return Resolved{}, fmt.Errorf("paddle1: %w", err)
	}
	p2, err := ParseHex(c.Paddle2Color)
	if err != nil {
		return Resolved{}, fmt.Errorf("paddle2: %w", err)
	}
	if !c.MapStyle.Valid() {
		return Resolved{}, fmt.Errorf("%w: %q", ErrInvalidMapStyle, string(c.MapStyle))
	}
	return Resolved{Paddle1: p1, Paddle2: p2, Style: c.MapStyle}, nil
}

// ValidateDistinct is the lobby rule: both colors from the palette and
// different from each other.
func (c Config) ValidateDistinct() error {
	if err := c.Validate(); err != nil {
		return err
	}
	for _, col := range []string{c.Paddle1Color, c.Paddle2Color} {
		if !inPalette(col) {
			return fmt.Errorf("%w: %s", ErrColorNotInPalette, col)
		}
	}
	if strings.EqualFold(c.Paddle1Color, c.Paddle2Color) {
		return ErrColorsNotUnique
	}
	return nil
}

func inPalette(hex string) bool {
	for _, p := range Palette {
		if strings.EqualFold(p, hex) {
			return true
		}
	}
	return false
}
