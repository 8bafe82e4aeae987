package style

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultRegistry_Presets(t *testing.T) {
	r := DefaultRegistry()

	assert.Equal(t, []Preset{PresetBottomCentered, PresetTopBar, PresetKaraoke}, r.Presets())
	assert.Equal(t, PresetBottomCentered, r.Default().Preset)

	bottom, ok := r.Get(PresetBottomCentered)
	require.True(t, ok)
	assert.Equal(t, PositionBottom, bottom.Position)
	assert.Equal(t, AlignCenter, bottom.Alignment)
	assert.Equal(t, 2, bottom.MaxLines)
	assert.Equal(t, 28.0, bottom.MaxFontSize)
	assert.Equal(t, 20.0, bottom.BorderRadius)
	assert.InDelta(t, 0.7, bottom.BackgroundColor.A, 1e-9)
	assert.Zero(t, bottom.BoxWidth)
	assert.Nil(t, bottom.HighlightColor)

	bar, ok := r.Get(PresetTopBar)
	require.True(t, ok)
	assert.True(t, bar.IsFullWidthBar())
	assert.Equal(t, PositionTop, bar.Position)
	assert.Equal(t, AlignLeft, bar.Alignment)
	assert.Equal(t, 1280.0, bar.BoxWidth)
	assert.Equal(t, 600, bar.FontWeight)

	karaoke, ok := r.Get(PresetKaraoke)
	require.True(t, ok)
	assert.True(t, karaoke.IsKaraoke())
	require.NotNil(t, karaoke.HighlightColor)
	assert.Equal(t, "#ff6b6b", karaoke.HighlightColor.String())

	_, ok = r.Get("neon")
	assert.False(t, ok)
}

func TestRegistry_GetReturnsIndependentCopies(t *testing.T) {
	r := DefaultRegistry()

	first, _ := r.Get(PresetKaraoke)
	first.MaxLines = 9
	first.HighlightColor.R = 1

	second, _ := r.Get(PresetKaraoke)
	assert.Equal(t, 2, second.MaxLines)
	assert.Equal(t, uint8(0xff), second.HighlightColor.R)
}

func TestParseRegistry_Rejects(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{name: "empty", data: "[]"},
		{name: "not yaml list", data: "preset: x"},
		{name: "missing id", data: "- position: top"},
		{name: "invalid config", data: "- preset: x\n  position: sideways\n  alignment: left\n  max_lines: 1\n  max_font_size: 10\n  font_weight: 400\n  background_color: \"#000\"\n  text_color: \"#fff\""},
		{name: "bad color", data: "- preset: x\n  background_color: \"blurple\""},
		{name: "duplicate", data: "- preset: x\n  position: top\n  alignment: left\n  max_lines: 1\n  max_font_size: 10\n  font_weight: 400\n- preset: x\n  position: top\n  alignment: left\n  max_lines: 1\n  max_font_size: 10\n  font_weight: 400"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRegistry([]byte(tt.data))
			assert.Error(t, err)
		})
	}
}

func TestConfig_Validate(t *testing.T) {
	cfg := DefaultRegistry().Default()
	require.NoError(t, cfg.Validate())

	bad := cfg.Clone()
	bad.HorizontalPadding = -1
	bad.MaxLines = 0
	bad.Alignment = "justify"
	err := bad.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "padding")
	assert.Contains(t, err.Error(), "max_lines")
	assert.Contains(t, err.Error(), "alignment")
}

func TestConfig_Highlight(t *testing.T) {
	cfg := DefaultRegistry().Default()
	assert.Equal(t, DefaultHighlightColor, cfg.Highlight())

	custom := MustParseColor("#00ff00")
	cfg.HighlightColor = &custom
	assert.Equal(t, custom, cfg.Highlight())
}
