package layout

import (
	"math"
	"strings"

	"github.com/MimeLyc/caption-studio/internal/caption"
	"github.com/MimeLyc/caption-studio/internal/style"
)

const (
	// MinFontSize is the smallest font size the fitter will try.
	MinFontSize = 8.0
	// LineHeight is the line box height as a multiple of the font size.
	LineHeight = 1.2
	// DefaultMargin keeps the panel away from the frame edges.
	DefaultMargin = 32.0

	autoBoxRatio   = 0.9
	fitIterations  = 24
	fontSizeFactor = 100
)

// Engine lays out captions. It holds no per-frame state and is safe for
// concurrent use.
type Engine struct {
	measurer    Measurer
	margin      float64
	minFontSize float64
}

type Option func(*Engine)

func WithMeasurer(m Measurer) Option {
	return func(e *Engine) {
		if m != nil {
			e.measurer = m
		}
	}
}

func WithMargin(margin float64) Option {
	return func(e *Engine) {
		e.margin = math.Max(0, margin)
	}
}

func WithMinFontSize(size float64) Option {
	return func(e *Engine) {
		if size > 0 {
			e.minFontSize = size
		}
	}
}

func NewEngine(opts ...Option) *Engine {
	e := &Engine{
		measurer:    EmMeasurer{},
		margin:      DefaultMargin,
		minFontSize: MinFontSize,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Render selects the caption active at tMs and lays it out. It reports
// false when no caption covers tMs.
func (e *Engine) Render(track caption.Track, cfg style.Config, tMs int64, vp Viewport) (Frame, bool) {
	iv, ok := track.Active(tMs)
	if !ok {
		return Frame{}, false
	}
	return e.Layout(iv, cfg, tMs, vp), true
}

// Layout fits one caption into the frame and computes highlight state.
// Out-of-range style values are clamped, never rejected.
func (e *Engine) Layout(iv caption.Interval, cfg style.Config, tMs int64, vp Viewport) Frame {
	cfg = sanitize(cfg, e.minFontSize)
	vp.Width = nonNegative(vp.Width)
	vp.Height = nonNegative(vp.Height)

	boxWidth := vp.Width * autoBoxRatio
	if cfg.BoxWidth > 0 {
		boxWidth = math.Min(cfg.BoxWidth, vp.Width)
	}
	innerWidth := boxWidth - 2*cfg.HorizontalPadding

	fontSize, texts := e.fit(
		strings.Fields(iv.Text),
		innerWidth,
		cfg.MaxLines,
		cfg.MaxFontSize,
		cfg.FontWeight,
	)

	frame := Frame{
		Caption:    iv,
		Preset:     cfg.Preset,
		FontSize:   fontSize,
		FontWeight: cfg.FontWeight,
		TextColor:  cfg.TextColor,
	}

	var progress *float64
	if cfg.IsKaraoke() && iv.AnchorMs != nil {
		p := Progress(iv, tMs)
		progress = &p
		hc := cfg.Highlight()
		frame.Progress = progress
		frame.HighlightColor = &hc
	}

	frame.Lines, frame.Panel = e.place(texts, cfg, fontSize, vp)
	if progress != nil {
		for i := range frame.Lines {
			frame.Lines[i].Words = HighlightWords(frame.Lines[i].Text, *progress)
		}
	}
	return frame
}

// fit returns the largest font size not above maxFont whose greedy wrap
// uses at most maxLines lines, together with the wrapped lines.
func (e *Engine) fit(words []string, maxWidth float64, maxLines int, maxFont float64, weight int) (float64, []string) {
	if len(words) == 0 {
		return maxFont, nil
	}

	lo := math.Min(e.minFontSize, maxFont)
	hi := maxFont

	if lines := e.wrap(words, maxWidth, hi, weight); len(lines) <= maxLines {
		return hi, lines
	}
	if lines := e.wrap(words, maxWidth, lo, weight); len(lines) > maxLines {
		return lo, mergeOverflow(lines, maxLines)
	}

	for range fitIterations {
		mid := (lo + hi) / 2
		if len(e.wrap(words, maxWidth, mid, weight)) <= maxLines {
			lo = mid
		} else {
			hi = mid
		}
	}

	size := math.Floor(lo*fontSizeFactor) / fontSizeFactor
	return size, e.wrap(words, maxWidth, size, weight)
}

// wrap breaks words greedily at whitespace. A word wider than maxWidth
// still gets a line of its own.
func (e *Engine) wrap(words []string, maxWidth, fontSize float64, weight int) []string {
	lines := make([]string, 0, 2)
	current := words[0]
	for _, w := range words[1:] {
		candidate := current + " " + w
		if e.measurer.Width(candidate, fontSize, weight) <= maxWidth {
			current = candidate
			continue
		}
		lines = append(lines, current)
		current = w
	}
	return append(lines, current)
}

func mergeOverflow(lines []string, maxLines int) []string {
	if len(lines) <= maxLines {
		return lines
	}
	merged := append([]string(nil), lines[:maxLines-1]...)
	return append(merged, strings.Join(lines[maxLines-1:], " "))
}

func (e *Engine) place(texts []string, cfg style.Config, fontSize float64, vp Viewport) ([]Line, Panel) {
	n := len(texts)
	lineBoxHeight := fontSize * LineHeight
	if n > 0 {
		lineBoxHeight += 2 * cfg.VerticalPadding / float64(n)
	}

	widths := make([]float64, n)
	var longest float64
	for i, text := range texts {
		widths[i] = e.measurer.Width(text, fontSize, cfg.FontWeight)
		longest = math.Max(longest, widths[i])
	}

	panel := Panel{
		Rect: Rect{
			Width:  longest + 2*cfg.HorizontalPadding,
			Height: lineBoxHeight * float64(n),
		},
		Fill: cfg.BackgroundColor,
	}
	if cfg.IsFullWidthBar() {
		panel.Width = vp.Width
		panel.X = 0
	} else {
		panel.X = alignX(cfg.Alignment, vp.Width, panel.Width, e.margin)
	}
	panel.Y = anchorY(cfg.Position, vp.Height, panel.Height, e.margin)
	panel.Radius = math.Min(cfg.BorderRadius, math.Min(panel.Width, panel.Height)/2)

	lines := make([]Line, n)
	for i, text := range texts {
		var x float64
		switch cfg.Alignment {
		case style.AlignLeft:
			x = panel.X + cfg.HorizontalPadding
		case style.AlignRight:
			x = panel.X + panel.Width - cfg.HorizontalPadding - widths[i]
		default:
			x = panel.X + (panel.Width-widths[i])/2
		}
		lines[i] = Line{
			Text: text,
			Rect: Rect{
				X:      x,
				Y:      panel.Y + float64(i)*lineBoxHeight,
				Width:  widths[i],
				Height: lineBoxHeight,
			},
		}
	}
	return lines, panel
}

func alignX(a style.Alignment, frameWidth, boxWidth, margin float64) float64 {
	switch a {
	case style.AlignLeft:
		return margin
	case style.AlignRight:
		return frameWidth - margin - boxWidth
	default:
		return (frameWidth - boxWidth) / 2
	}
}

func anchorY(p style.Position, frameHeight, boxHeight, margin float64) float64 {
	switch p {
	case style.PositionTop:
		return margin
	case style.PositionCenter:
		return (frameHeight - boxHeight) / 2
	default:
		return frameHeight - margin - boxHeight
	}
}

func sanitize(cfg style.Config, minFontSize float64) style.Config {
	cfg.BorderRadius = nonNegative(cfg.BorderRadius)
	cfg.HorizontalPadding = nonNegative(cfg.HorizontalPadding)
	cfg.VerticalPadding = nonNegative(cfg.VerticalPadding)
	cfg.BoxWidth = nonNegative(cfg.BoxWidth)
	cfg.MaxLines = max(1, cfg.MaxLines)
	if cfg.MaxFontSize <= 0 || !isFinite(cfg.MaxFontSize) {
		cfg.MaxFontSize = minFontSize
	}
	if cfg.FontWeight == 0 {
		cfg.FontWeight = 400
	}
	cfg.FontWeight = min(max(cfg.FontWeight, 100), 900)
	switch cfg.Position {
	case style.PositionTop, style.PositionBottom, style.PositionCenter:
	default:
		cfg.Position = style.PositionBottom
	}
	switch cfg.Alignment {
	case style.AlignLeft, style.AlignCenter, style.AlignRight:
	default:
		cfg.Alignment = style.AlignCenter
	}
	return cfg
}

// nonNegative clamps v to [0, +Inf); NaN and infinities become 0.
func nonNegative(v float64) float64 {
	if !isFinite(v) {
		return 0
	}
	return math.Max(0, v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
