package layout

import (
	"testing"

	"github.com/MimeLyc/caption-studio/internal/caption"
	"github.com/stretchr/testify/assert"
)

func TestProgress(t *testing.T) {
	iv := caption.Interval{StartMs: 1000, EndMs: 3000}
	tests := []struct {
		name string
		t    int64
		want float64
	}{
		{name: "before start", t: 0, want: 0},
		{name: "at start", t: 1000, want: 0},
		{name: "quarter", t: 1500, want: 0.25},
		{name: "at end", t: 3000, want: 1},
		{name: "after end", t: 9000, want: 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Progress(iv, tt.t))
		})
	}
}

func TestProgress_ZeroLength(t *testing.T) {
	iv := caption.Interval{StartMs: 1000, EndMs: 1000}
	assert.Equal(t, 0.0, Progress(iv, 999))
	assert.Equal(t, 1.0, Progress(iv, 1000))
}

func TestHighlightWords(t *testing.T) {
	assert.Empty(t, HighlightWords("", 0.5))

	words := HighlightWords("a  b c", 0.99)
	assert.Len(t, words, 3)
	assert.True(t, words[0].Highlighted)
	assert.True(t, words[1].Highlighted)
	assert.False(t, words[2].Highlighted)
}
