package style

import (
	"errors"
	"fmt"
)

type Preset string

const (
	PresetBottomCentered Preset = "bottom-centered"
	PresetTopBar         Preset = "top-bar"
	PresetKaraoke        Preset = "karaoke"
)

type Position string

const (
	PositionTop    Position = "top"
	PositionBottom Position = "bottom"
	PositionCenter Position = "center"
)

type Alignment string

const (
	AlignLeft   Alignment = "left"
	AlignCenter Alignment = "center"
	AlignRight  Alignment = "right"
)

// Config holds the rendering parameters of one caption style.
type Config struct {
	Preset            Preset    `json:"preset" yaml:"preset"`
	Position          Position  `json:"position" yaml:"position"`
	Alignment         Alignment `json:"alignment" yaml:"alignment"`
	BackgroundColor   Color     `json:"background_color" yaml:"background_color"`
	TextColor         Color     `json:"text_color" yaml:"text_color"`
	BorderRadius      float64   `json:"border_radius" yaml:"border_radius"`
	HorizontalPadding float64   `json:"horizontal_padding" yaml:"horizontal_padding"`
	VerticalPadding   float64   `json:"vertical_padding" yaml:"vertical_padding"`
	MaxLines          int       `json:"max_lines" yaml:"max_lines"`
	MaxFontSize       float64   `json:"max_font_size" yaml:"max_font_size"`
	FontWeight        int       `json:"font_weight" yaml:"font_weight"`
	// BoxWidth fixes the caption box width in pixels; 0 means unset.
	BoxWidth       float64 `json:"box_width,omitempty" yaml:"box_width,omitempty"`
	HighlightColor *Color  `json:"highlight_color,omitempty" yaml:"highlight_color,omitempty"`
}

// DefaultHighlightColor is used by karaoke styles without a highlight color.
var DefaultHighlightColor = Color{R: 0xff, G: 0x6b, B: 0x6b, A: 1}

// Clone returns a deep copy that shares nothing with c.
func (c Config) Clone() Config {
	if c.HighlightColor != nil {
		hc := *c.HighlightColor
		c.HighlightColor = &hc
	}
	return c
}

func (c Config) IsKaraoke() bool {
	return c.Preset == PresetKaraoke
}

// IsFullWidthBar reports whether the background spans the whole frame width.
func (c Config) IsFullWidthBar() bool {
	return c.Preset == PresetTopBar
}

func (c Config) Highlight() Color {
	if c.HighlightColor != nil {
		return *c.HighlightColor
	}
	return DefaultHighlightColor
}

// Validate checks documented ranges. The layout engine clamps instead of
// failing, so Validate is for inputs that should be rejected at the edge.
func (c Config) Validate() error {
	var errs []error
	switch c.Position {
	case PositionTop, PositionBottom, PositionCenter:
	default:
		errs = append(errs, fmt.Errorf("invalid position %q", c.Position))
	}
	switch c.Alignment {
	case AlignLeft, AlignCenter, AlignRight:
	default:
		errs = append(errs, fmt.Errorf("invalid alignment %q", c.Alignment))
	}
	if c.BorderRadius < 0 {
		errs = append(errs, fmt.Errorf("border_radius must be >= 0"))
	}
	if c.HorizontalPadding < 0 || c.VerticalPadding < 0 {
		errs = append(errs, fmt.Errorf("padding must be >= 0"))
	}
	if c.MaxLines < 1 {
		errs = append(errs, fmt.Errorf("max_lines must be >= 1"))
	}
	if c.MaxFontSize <= 0 {
		errs = append(errs, fmt.Errorf("max_font_size must be > 0"))
	}
	if c.FontWeight < 100 || c.FontWeight > 900 {
		errs = append(errs, fmt.Errorf("font_weight must be within [100, 900]"))
	}
	if c.BoxWidth < 0 {
		errs = append(errs, fmt.Errorf("box_width must be >= 0"))
	}
	return errors.Join(errs...)
}
