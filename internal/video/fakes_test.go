package video

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"sync/atomic"

	"github.com/MimeLyc/caption-studio/internal/caption"
	"github.com/MimeLyc/caption-studio/internal/storage"
)

type fakeStorage struct {
	mu        sync.Mutex
	nextID    int
	uploaded  map[string]string
	targetErr error
	putErr    error
	signErr   error
	signCalls atomic.Int32
	// signGate, when set, blocks SignedPlaybackURL until closed.
	signGate chan struct{}
	objects  []string
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{uploaded: make(map[string]string)}
}

func (s *fakeStorage) RequestUploadTarget(_ context.Context) (storage.UploadTarget, error) {
	if s.targetErr != nil {
		return storage.UploadTarget{}, s.targetErr
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	key := fmt.Sprintf("uploads/videos/v%d.mp4", s.nextID)
	return storage.UploadTarget{Key: key, URL: "https://upload/" + key}, nil
}

func (s *fakeStorage) PutObject(_ context.Context, uploadURL string, body io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	data, err := io.ReadAll(body)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.uploaded[uploadURL] = string(data)
	s.mu.Unlock()
	return nil
}

func (s *fakeStorage) SignedPlaybackURL(_ context.Context, key string) (string, error) {
	s.signCalls.Add(1)
	if s.signGate != nil {
		<-s.signGate
	}
	if s.signErr != nil {
		return "", s.signErr
	}
	return "https://cdn/" + key + "?sig=1", nil
}

func (s *fakeStorage) ListObjects(_ context.Context, _ string) ([]string, error) {
	return s.objects, nil
}

type fakeExtractor struct {
	calls atomic.Int32
	err   error
}

func (e *fakeExtractor) ExtractAudio(_ context.Context, objectKey string) (string, error) {
	e.calls.Add(1)
	if e.err != nil {
		return "", e.err
	}
	return "/tmp/" + objectKey + ".wav", nil
}

type fakeTranscriber struct {
	calls   atomic.Int32
	err     error
	records []caption.Record
	gotPath string
	// started is signalled on entry; release unblocks the call.
	started chan struct{}
	release chan struct{}
}

func (tr *fakeTranscriber) Transcribe(_ context.Context, audioPath string) ([]caption.Record, error) {
	tr.calls.Add(1)
	tr.gotPath = audioPath
	if tr.started != nil {
		tr.started <- struct{}{}
	}
	if tr.release != nil {
		<-tr.release
	}
	if tr.err != nil {
		return nil, tr.err
	}
	return tr.records, nil
}

var errBoom = errors.New("boom")

func sampleRecords() []caption.Record {
	return []caption.Record{
		{Timestamps: caption.Timestamps{From: "00:00:01,000", To: "00:00:03,500"}, Text: " namaste duniya"},
		{Timestamps: caption.Timestamps{From: "00:00:04,000", To: "00:00:05,000"}, Text: "second line"},
	}
}
