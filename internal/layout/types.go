package layout

import (
	"github.com/MimeLyc/caption-studio/internal/caption"
	"github.com/MimeLyc/caption-studio/internal/style"
)

// Viewport is the video frame size in pixels.
type Viewport struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Panel is the rounded background drawn behind the caption text.
type Panel struct {
	Rect   `json:"rect"`
	Radius float64     `json:"radius"`
	Fill   style.Color `json:"fill"`
}

type Word struct {
	Text        string `json:"text"`
	Highlighted bool   `json:"highlighted"`
}

type Line struct {
	Text string `json:"text"`
	Rect Rect   `json:"rect"`
	// Words is only populated for karaoke styles.
	Words []Word `json:"words,omitempty"`
}

// Frame is everything needed to draw one caption at one instant.
type Frame struct {
	Caption    caption.Interval `json:"caption"`
	Preset     style.Preset     `json:"preset"`
	FontSize   float64          `json:"font_size"`
	FontWeight int              `json:"font_weight"`
	TextColor  style.Color      `json:"text_color"`
	Lines      []Line           `json:"lines"`
	Panel      Panel            `json:"panel"`
	// Progress and HighlightColor are set for karaoke styles only.
	Progress       *float64     `json:"progress,omitempty"`
	HighlightColor *style.Color `json:"highlight_color,omitempty"`
}

// HighlightedWords counts highlighted words across all lines.
func (f Frame) HighlightedWords() int {
	n := 0
	for _, line := range f.Lines {
		for _, w := range line.Words {
			if w.Highlighted {
				n++
			}
		}
	}
	return n
}
