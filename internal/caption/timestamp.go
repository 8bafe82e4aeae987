package caption

import (
	"fmt"
	"regexp"
	"strconv"
)

var timestampRe = regexp.MustCompile(`^\s*(\d+):(\d+):(\d+),(\d+)\s*$`)

// maxComponent bounds every field so the millisecond sum cannot overflow.
const maxComponent = 1_000_000_000

// ParseTimestamp converts "HH:MM:SS,mmm" into milliseconds as
// ((h*3600 + m*60 + s) * 1000) + ms.
func ParseTimestamp(s string) (int64, error) {
	matches := timestampRe.FindStringSubmatch(s)
	if len(matches) != 5 {
		return 0, fmt.Errorf("invalid timestamp format: %q", s)
	}

	parts := make([]int64, 4)
	for i, raw := range matches[1:] {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid timestamp component %q: %w", raw, err)
		}
		if n > maxComponent {
			return 0, fmt.Errorf("timestamp component %q out of range", raw)
		}
		parts[i] = n
	}
	h, m, sec, ms := parts[0], parts[1], parts[2], parts[3]

	return (h*3600+m*60+sec)*1000 + ms, nil
}

// FormatTimestamp renders milliseconds as "HH:MM:SS,mmm".
func FormatTimestamp(ms int64) string {
	if ms < 0 {
		ms = 0
	}
	hours := ms / 3_600_000
	minutes := ms / 60_000 % 60
	seconds := ms / 1000 % 60
	millis := ms % 1000

	return fmt.Sprintf("%02d:%02d:%02d,%03d", hours, minutes, seconds, millis)
}
