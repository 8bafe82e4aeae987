package style

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Color is an sRGB color with alpha in [0, 1].
type Color struct {
	R, G, B uint8
	A       float64
}

var (
	White = Color{R: 255, G: 255, B: 255, A: 1}
	Black = Color{A: 1}
)

var funcColorRe = regexp.MustCompile(`^rgba?\(\s*([^)]*)\)$`)

// ParseColor accepts "#rgb", "#rrggbb", "#rrggbbaa", "rgb(r, g, b)" and
// "rgba(r, g, b, a)".
func ParseColor(s string) (Color, error) {
	s = strings.TrimSpace(strings.ToLower(s))
	if strings.HasPrefix(s, "#") {
		return parseHex(s[1:])
	}
	if m := funcColorRe.FindStringSubmatch(s); m != nil {
		return parseFunc(strings.HasPrefix(s, "rgba"), m[1])
	}
	return Color{}, fmt.Errorf("unsupported color %q", s)
}

// MustParseColor is ParseColor for constants.
func MustParseColor(s string) Color {
	c, err := ParseColor(s)
	if err != nil {
		panic(err)
	}
	return c
}

func parseHex(hex string) (Color, error) {
	switch len(hex) {
	case 3:
		hex = string([]byte{hex[0], hex[0], hex[1], hex[1], hex[2], hex[2]})
	case 6, 8:
	default:
		return Color{}, fmt.Errorf("invalid hex color #%s", hex)
	}

	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil {
		return Color{}, fmt.Errorf("invalid hex color #%s: %w", hex, err)
	}

	c := Color{A: 1}
	if len(hex) == 8 {
		c.A = float64(v&0xff) / 255
		v >>= 8
	}
	c.R = uint8(v >> 16)
	c.G = uint8(v >> 8)
	c.B = uint8(v)
	return c, nil
}

func parseFunc(hasAlpha bool, body string) (Color, error) {
	fields := strings.Split(body, ",")
	want := 3
	if hasAlpha {
		want = 4
	}
	if len(fields) != want {
		return Color{}, fmt.Errorf("expected %d color components, got %d", want, len(fields))
	}

	var rgb [3]uint8
	for i := range 3 {
		n, err := strconv.Atoi(strings.TrimSpace(fields[i]))
		if err != nil || n < 0 || n > 255 {
			return Color{}, fmt.Errorf("color component %q out of range [0, 255]", fields[i])
		}
		rgb[i] = uint8(n)
	}

	c := Color{R: rgb[0], G: rgb[1], B: rgb[2], A: 1}
	if hasAlpha {
		a, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
		if err != nil || a < 0 || a > 1 {
			return Color{}, fmt.Errorf("alpha %q out of range [0, 1]", fields[3])
		}
		c.A = a
	}
	return c, nil
}

// String renders opaque colors as "#rrggbb" and translucent ones as rgba().
func (c Color) String() string {
	if c.A >= 1 {
		return fmt.Sprintf("#%02x%02x%02x", c.R, c.G, c.B)
	}
	return fmt.Sprintf("rgba(%d, %d, %d, %s)", c.R, c.G, c.B,
		strconv.FormatFloat(c.A, 'f', -1, 64))
}

func (c Color) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

func (c *Color) UnmarshalText(text []byte) error {
	parsed, err := ParseColor(string(text))
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}
