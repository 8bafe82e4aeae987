package layout

import (
	"math"
	"strings"

	"github.com/MimeLyc/caption-studio/internal/caption"
)

// Progress is the elapsed fraction of iv at tMs, clamped to [0, 1].
// A zero-length interval is complete as soon as it starts.
func Progress(iv caption.Interval, tMs int64) float64 {
	d := iv.Duration()
	if d <= 0 {
		if tMs >= iv.StartMs {
			return 1
		}
		return 0
	}
	p := float64(tMs-iv.StartMs) / float64(d)
	return math.Max(0, math.Min(1, p))
}

// HighlightWords marks the first floor(words*p) words of line.
func HighlightWords(line string, p float64) []Word {
	fields := strings.Fields(line)
	n := int(math.Floor(float64(len(fields)) * p))

	words := make([]Word, len(fields))
	for i, f := range fields {
		words[i] = Word{Text: f, Highlighted: i < n}
	}
	return words
}
