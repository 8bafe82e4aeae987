package caption

// Active returns the first interval, in sequence order, whose closed range
// contains t. Overlapping intervals resolve to the earliest start because
// sequences are ordered by start time.
func Active(intervals []Interval, t int64) (Interval, bool) {
	for _, iv := range intervals {
		if iv.Contains(t) {
			return iv, true
		}
	}
	return Interval{}, false
}
