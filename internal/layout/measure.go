package layout

import (
	"unicode"

	"golang.org/x/text/width"
)

// Measurer reports the rendered width of a text run in pixels.
// Implementations must scale linearly with fontSize.
type Measurer interface {
	Width(text string, fontSize float64, fontWeight int) float64
}

// EmMeasurer approximates glyph advances in em units without loading a
// font. East Asian wide and fullwidth runes take a full em, combining marks
// take none.
type EmMeasurer struct{}

func (EmMeasurer) Width(text string, fontSize float64, fontWeight int) float64 {
	var ems float64
	for _, r := range text {
		ems += advance(r)
	}
	return ems * fontSize * weightFactor(fontWeight)
}

func advance(r rune) float64 {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 1.0
	}
	switch {
	case unicode.Is(unicode.Mn, r), unicode.Is(unicode.Me, r):
		return 0
	case unicode.IsSpace(r):
		return 0.28
	case unicode.IsUpper(r):
		return 0.68
	case unicode.IsDigit(r):
		return 0.56
	case unicode.IsPunct(r):
		return 0.33
	default:
		return 0.55
	}
}

// weightFactor widens bold text by 2% per 100 weight units above 400.
func weightFactor(fontWeight int) float64 {
	if fontWeight <= 0 {
		fontWeight = 400
	}
	return 1 + float64(fontWeight-400)/100*0.02
}
