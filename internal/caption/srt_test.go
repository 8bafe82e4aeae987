package caption

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteSRT(t *testing.T) {
	track := Track{Intervals: []Interval{
		{Text: "hello world", StartMs: 1000, EndMs: 3500},
		{Text: "bye", StartMs: 3723004, EndMs: 3724000},
	}}

	var buf bytes.Buffer
	require.NoError(t, WriteSRT(&buf, track))

	want := "1\n00:00:01,000 --> 00:00:03,500\nhello world\n\n" +
		"2\n01:02:03,004 --> 01:02:04,000\nbye\n\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteSRT_Empty(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSRT(&buf, Track{}))
	assert.Empty(t, buf.String())
}
