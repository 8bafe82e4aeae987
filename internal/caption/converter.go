package caption

import (
	"fmt"
	"strings"

	"github.com/MimeLyc/caption-studio/pkg/log"
)

// Convert turns raw transcript records into a caption track.
//
// Records whose timestamps do not parse, whose start is after their end, or
// whose text is blank are skipped. Survivors keep their input order; the
// input is expected to be time-ordered already and is not re-sorted.
func Convert(records []Record) Track {
	if len(records) == 0 {
		return Track{Intervals: []Interval{}}
	}

	intervals := make([]Interval, 0, len(records))
	skipped := 0
	for i, rec := range records {
		iv, err := convertRecord(rec)
		if err != nil {
			skipped++
			log.Warn("Skip transcript record %d: %v", i, err)
			continue
		}
		intervals = append(intervals, iv)
	}

	if skipped > 0 {
		log.Info("Converted %d captions, skipped %d malformed records", len(intervals), skipped)
	} else {
		log.Debug("Converted %d captions", len(intervals))
	}

	return Track{
		Intervals: intervals,
		Language:  DetectLanguage(intervals),
	}
}

func convertRecord(rec Record) (Interval, error) {
	startMs, err := ParseTimestamp(rec.Timestamps.From)
	if err != nil {
		return Interval{}, fmt.Errorf("start: %w", err)
	}
	endMs, err := ParseTimestamp(rec.Timestamps.To)
	if err != nil {
		return Interval{}, fmt.Errorf("end: %w", err)
	}
	if startMs > endMs {
		return Interval{}, fmt.Errorf("start %d after end %d", startMs, endMs)
	}

	text := strings.TrimSpace(rec.Text)
	if text == "" {
		return Interval{}, fmt.Errorf("empty text")
	}

	anchor := (startMs + endMs) / 2
	if rec.Offsets != nil {
		anchor = (rec.Offsets.From + rec.Offsets.To) / 2
	}
	anchor = min(max(anchor, startMs), endMs)

	return Interval{
		Text:     text,
		StartMs:  startMs,
		EndMs:    endMs,
		AnchorMs: &anchor,
	}, nil
}
