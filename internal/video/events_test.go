package video

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEventBus_SinceAndTrim(t *testing.T) {
	bus := NewEventBus(2)
	bus.Publish(Event{Type: EventStatus, Message: "one"})
	bus.Publish(Event{Type: EventStatus, Message: "two"})
	third := bus.Publish(Event{Type: EventError, Message: "three"})

	assert.Equal(t, int64(3), third.Seq)
	assert.False(t, third.Timestamp.IsZero())
	assert.Equal(t, int64(3), bus.LastSeq())

	all := bus.Since(0)
	require.Len(t, all, 2)
	assert.Equal(t, "two", all[0].Message)
	assert.Equal(t, "three", all[1].Message)

	assert.Len(t, bus.Since(2), 1)
	assert.Empty(t, bus.Since(3))
}

type recorder struct{ events []Event }

func (r *recorder) Notify(e Event) { r.events = append(r.events, e) }

func TestNotifiers_FanOut(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	Notifiers{a, nil, b}.Notify(Event{Type: EventImported, VideoID: "k"})

	assert.Len(t, a.events, 1)
	assert.Len(t, b.events, 1)
}
