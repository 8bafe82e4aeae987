package video

import (
	"context"
	"io"

	"github.com/MimeLyc/caption-studio/internal/caption"
	"github.com/MimeLyc/caption-studio/internal/storage"
)

type Storage interface {
	RequestUploadTarget(ctx context.Context) (storage.UploadTarget, error)
	PutObject(ctx context.Context, uploadURL string, body io.Reader, size int64, contentType string) error
	SignedPlaybackURL(ctx context.Context, key string) (string, error)
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

type AudioExtractor interface {
	// ExtractAudio returns a local path to mono 16 kHz PCM audio for the
	// video stored at objectKey.
	ExtractAudio(ctx context.Context, objectKey string) (string, error)
}

type Transcriber interface {
	Transcribe(ctx context.Context, audioPath string) ([]caption.Record, error)
}

type Notifier interface {
	Notify(event Event)
}

// Notifiers fans one event out to several notifiers in order.
type Notifiers []Notifier

func (ns Notifiers) Notify(event Event) {
	for _, n := range ns {
		if n != nil {
			n.Notify(event)
		}
	}
}
