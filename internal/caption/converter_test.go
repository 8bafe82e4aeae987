package caption

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func record(from, to, text string) Record {
	return Record{Timestamps: Timestamps{From: from, To: to}, Text: text}
}

func TestConvert_HelloWorld(t *testing.T) {
	track := Convert([]Record{record("00:00:01,000", "00:00:03,500", "hello world")})

	require.Len(t, track.Intervals, 1)
	iv := track.Intervals[0]
	assert.Equal(t, "hello world", iv.Text)
	assert.Equal(t, int64(1000), iv.StartMs)
	assert.Equal(t, int64(3500), iv.EndMs)
	require.NotNil(t, iv.AnchorMs)
	assert.Equal(t, int64(2250), *iv.AnchorMs)
}

func TestConvert_AnchorFromOffsets(t *testing.T) {
	rec := record("00:00:01,000", "00:00:03,000", "hi")
	rec.Offsets = &Offsets{From: 1000, To: 2000}

	track := Convert([]Record{rec})

	require.Len(t, track.Intervals, 1)
	require.NotNil(t, track.Intervals[0].AnchorMs)
	assert.Equal(t, int64(1500), *track.Intervals[0].AnchorMs)
}

func TestConvert_AnchorClampedIntoInterval(t *testing.T) {
	rec := record("00:00:01,000", "00:00:02,000", "hi")
	rec.Offsets = &Offsets{From: 5000, To: 7000}

	track := Convert([]Record{rec})

	require.Len(t, track.Intervals, 1)
	assert.Equal(t, int64(2000), *track.Intervals[0].AnchorMs)
}

func TestConvert_DropsMalformedAndKeepsOrder(t *testing.T) {
	records := []Record{
		record("00:00:00,000", "00:00:01,000", "one"),
		record("bad", "00:00:02,000", "broken start"),
		record("00:00:02,000", "00:00:03,000", "two"),
		record("00:00:03,000", "00:00:03", "missing millis"),
		record("00:00:05,000", "00:00:04,000", "reversed"),
		record("00:00:06,000", "00:00:07,000", "   "),
		record("00:00:08,000", "00:00:09,000", "three"),
	}

	track := Convert(records)

	require.Len(t, track.Intervals, 3)
	texts := make([]string, 0, 3)
	for _, iv := range track.Intervals {
		texts = append(texts, iv.Text)
	}
	assert.Equal(t, []string{"one", "two", "three"}, texts)
}

func TestConvert_DoesNotResort(t *testing.T) {
	track := Convert([]Record{
		record("00:00:05,000", "00:00:06,000", "late"),
		record("00:00:01,000", "00:00:02,000", "early"),
	})

	require.Len(t, track.Intervals, 2)
	assert.Equal(t, "late", track.Intervals[0].Text)
	assert.Equal(t, "early", track.Intervals[1].Text)
}

func TestConvert_EmptyInput(t *testing.T) {
	for _, in := range [][]Record{nil, {}} {
		track := Convert(in)
		assert.NotNil(t, track.Intervals)
		assert.Empty(t, track.Intervals)
	}
}

func TestConvert_AnchorWithinIntervalForWellFormedPairs(t *testing.T) {
	for start := int64(0); start < 5000; start += 737 {
		for length := int64(0); length < 4000; length += 333 {
			end := start + length
			track := Convert([]Record{record(FormatTimestamp(start), FormatTimestamp(end), "x")})

			require.Len(t, track.Intervals, 1, "start=%d end=%d", start, end)
			iv := track.Intervals[0]
			assert.Equal(t, start, iv.StartMs)
			assert.Equal(t, end, iv.EndMs)
			assert.LessOrEqual(t, iv.StartMs, *iv.AnchorMs)
			assert.LessOrEqual(t, *iv.AnchorMs, iv.EndMs)
		}
	}
}

func TestConvert_SurvivorCount(t *testing.T) {
	const total = 20
	records := make([]Record, 0, total)
	malformed := 0
	for i := range total {
		from := FormatTimestamp(int64(i) * 1000)
		if i%3 == 0 {
			from = fmt.Sprintf("%d seconds", i)
			malformed++
		}
		records = append(records, record(from, FormatTimestamp(int64(i)*1000+900), fmt.Sprintf("w%d", i)))
	}

	track := Convert(records)

	assert.Len(t, track.Intervals, total-malformed)
}
