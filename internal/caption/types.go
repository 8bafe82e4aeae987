package caption

import "golang.org/x/text/language"

// Record is one entry of a whisper-cli JSON transcription.
type Record struct {
	Timestamps Timestamps `json:"timestamps"`
	Offsets    *Offsets   `json:"offsets,omitempty"`
	Text       string     `json:"text"`
}

// Timestamps holds the human-readable "HH:MM:SS,mmm" pair.
type Timestamps struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// Offsets holds the fine-grained millisecond pair.
type Offsets struct {
	From int64 `json:"from"`
	To   int64 `json:"to"`
}

// Interval is one timed caption phrase.
type Interval struct {
	Text    string `json:"text"`
	StartMs int64  `json:"start_ms"`
	EndMs   int64  `json:"end_ms"`
	// AnchorMs is the peak timestamp driving progressive effects.
	// nil means the interval carries no anchor.
	AnchorMs *int64 `json:"anchor_ms,omitempty"`
}

// Contains reports whether t lies in [StartMs, EndMs].
func (iv Interval) Contains(t int64) bool {
	return iv.StartMs <= t && t <= iv.EndMs
}

func (iv Interval) Duration() int64 {
	return iv.EndMs - iv.StartMs
}

// Track is the caption sequence derived from one transcript.
// It is replaced as a whole, never modified.
type Track struct {
	Intervals []Interval   `json:"intervals"`
	Language  language.Tag `json:"language"`
}

func (t Track) Len() int {
	return len(t.Intervals)
}

// Active returns the caption shown at t.
func (t Track) Active(ms int64) (Interval, bool) {
	return Active(t.Intervals, ms)
}
