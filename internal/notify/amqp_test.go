package notify

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MimeLyc/caption-studio/internal/video"
)

type published struct {
	exchange string
	key      string
	msg      amqp.Publishing
}

type fakeChannel struct {
	declared   []string
	kind       string
	published  []published
	publishErr error
	closed     bool
}

func (f *fakeChannel) ExchangeDeclare(name, kind string, _, _, _, _ bool, _ amqp.Table) error {
	f.declared = append(f.declared, name)
	f.kind = kind
	return nil
}

func (f *fakeChannel) PublishWithContext(_ context.Context, exchange, key string, _, _ bool, msg amqp.Publishing) error {
	if f.publishErr != nil {
		return f.publishErr
	}
	f.published = append(f.published, published{exchange: exchange, key: key, msg: msg})
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

type fakeConn struct{ closed bool }

func (f *fakeConn) Close() error {
	f.closed = true
	return nil
}

func TestRoutingKey(t *testing.T) {
	assert.Equal(t, "video.status.transcribed", RoutingKey(video.Event{Type: video.EventStatus, Status: video.StatusTranscribed}))
	assert.Equal(t, "video.error.error", RoutingKey(video.Event{Type: video.EventError, Status: video.StatusError}))
	assert.Equal(t, "video.error", RoutingKey(video.Event{Type: video.EventError}))
}

func TestPublisher_Notify(t *testing.T) {
	ch := &fakeChannel{}
	p, err := newPublisher(ch, &fakeConn{}, "")
	require.NoError(t, err)
	assert.Equal(t, []string{DefaultExchange}, ch.declared)
	assert.Equal(t, amqp.ExchangeTopic, ch.kind)

	ts := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	p.Notify(video.Event{Seq: 3, Timestamp: ts, VideoID: "uploads/videos/a.mp4", Type: video.EventStatus, Status: video.StatusProcessing})

	require.Len(t, ch.published, 1)
	got := ch.published[0]
	assert.Equal(t, DefaultExchange, got.exchange)
	assert.Equal(t, "video.status.processing", got.key)
	assert.Equal(t, "application/json", got.msg.ContentType)
	assert.Equal(t, "uploads/videos/a.mp4", got.msg.MessageId)
	assert.Equal(t, ts, got.msg.Timestamp)

	var decoded video.Event
	require.NoError(t, json.Unmarshal(got.msg.Body, &decoded))
	assert.Equal(t, video.StatusProcessing, decoded.Status)
}

func TestPublisher_FailuresAreDropped(t *testing.T) {
	ch := &fakeChannel{publishErr: errors.New("channel/connection is not open")}
	p, err := newPublisher(ch, &fakeConn{}, "x")
	require.NoError(t, err)

	assert.NotPanics(t, func() { p.Notify(video.Event{Type: video.EventImported}) })
	assert.Error(t, p.Publish(context.Background(), video.Event{Type: video.EventImported}))
}

func TestPublisher_Close(t *testing.T) {
	ch := &fakeChannel{}
	conn := &fakeConn{}
	p, err := newPublisher(ch, conn, "x")
	require.NoError(t, err)

	require.NoError(t, p.Close())
	assert.True(t, ch.closed)
	assert.True(t, conn.closed)
	assert.Error(t, p.Publish(context.Background(), video.Event{Type: video.EventStatus}))
}
