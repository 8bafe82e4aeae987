package caption

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func intervals() []Interval {
	return []Interval{
		{Text: "first", StartMs: 0, EndMs: 1000},
		{Text: "second", StartMs: 1500, EndMs: 3000},
		{Text: "overlap", StartMs: 2500, EndMs: 4000},
	}
}

func TestActive(t *testing.T) {
	tests := []struct {
		name   string
		t      int64
		want   string
		wantOK bool
	}{
		{name: "start boundary inclusive", t: 0, want: "first", wantOK: true},
		{name: "end boundary inclusive", t: 1000, want: "first", wantOK: true},
		{name: "gap", t: 1200, wantOK: false},
		{name: "overlap earliest start wins", t: 2700, want: "second", wantOK: true},
		{name: "after overlap", t: 3500, want: "overlap", wantOK: true},
		{name: "before everything", t: -1, wantOK: false},
		{name: "after everything", t: 5000, wantOK: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Active(intervals(), tt.t)
			require.Equal(t, tt.wantOK, ok)
			if ok {
				assert.Equal(t, tt.want, got.Text)
			}
		})
	}
}

func TestActive_StableWithinInterval(t *testing.T) {
	track := Track{Intervals: intervals()}
	for ts := int64(1500); ts < 2500; ts += 10 {
		a, okA := track.Active(ts)
		b, okB := track.Active(ts + 5)
		require.True(t, okA)
		require.True(t, okB)
		assert.Equal(t, a, b)

		again, _ := track.Active(ts)
		assert.Equal(t, a, again)
	}
}

func TestActive_Empty(t *testing.T) {
	_, ok := Active(nil, 0)
	assert.False(t, ok)
}
