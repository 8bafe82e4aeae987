package httpapi

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/MimeLyc/caption-studio/internal/caption"
	"github.com/MimeLyc/caption-studio/internal/catalog"
	"github.com/MimeLyc/caption-studio/internal/config"
	"github.com/MimeLyc/caption-studio/internal/storage"
)

var errBoom = errors.New("boom")

type fakeStorage struct {
	mu     sync.Mutex
	nextID int
	putErr error
}

func (s *fakeStorage) RequestUploadTarget(_ context.Context) (storage.UploadTarget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	key := fmt.Sprintf("uploads/videos/v%d.mp4", s.nextID)
	return storage.UploadTarget{Key: key, URL: "https://upload/" + key}, nil
}

func (s *fakeStorage) PutObject(_ context.Context, _ string, body io.Reader, _ int64, _ string) error {
	if s.putErr != nil {
		return s.putErr
	}
	_, err := io.Copy(io.Discard, body)
	return err
}

func (s *fakeStorage) SignedPlaybackURL(_ context.Context, key string) (string, error) {
	return "https://cdn/" + key + "?sig=1", nil
}

func (s *fakeStorage) ListObjects(_ context.Context, _ string) ([]string, error) {
	return nil, nil
}

type fakeExtractor struct {
	err error
}

func (e *fakeExtractor) ExtractAudio(_ context.Context, objectKey string) (string, error) {
	if e.err != nil {
		return "", e.err
	}
	return "/tmp/" + objectKey + ".wav", nil
}

type fakeTranscriber struct{}

func (fakeTranscriber) Transcribe(_ context.Context, _ string) ([]caption.Record, error) {
	return []caption.Record{
		{Timestamps: caption.Timestamps{From: "00:00:01,000", To: "00:00:03,500"}, Text: " namaste duniya"},
		{Timestamps: caption.Timestamps{From: "00:00:04,000", To: "00:00:05,000"}, Text: "second line"},
	}, nil
}

type fakeSettingsStore struct {
	mu      sync.Mutex
	current config.RuntimeSettings
}

func (s *fakeSettingsStore) GetRuntimeSettings() (config.RuntimeSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.current, nil
}

func (s *fakeSettingsStore) UpdateRuntimeSettings(next config.RuntimeSettings) (config.RuntimeSettings, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = next
	return next, nil
}

type fakeSyncer struct {
	result catalog.Result
	err    error
	calls  int
}

func (f *fakeSyncer) Sync(_ context.Context) (catalog.Result, error) {
	f.calls++
	return f.result, f.err
}

func (f *fakeSyncer) Status(_ time.Time) (catalog.Status, error) {
	return catalog.Status{Last: &f.result}, nil
}
