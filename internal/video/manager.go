package video

import (
	"context"
	"fmt"
	"path"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/caption-studio/internal/caption"
	"github.com/MimeLyc/caption-studio/internal/style"
	"github.com/MimeLyc/caption-studio/pkg/log"
)

// Manager owns the in-memory video list, the current selection and the
// active caption style, and drives the upload and captioning sequences.
type Manager struct {
	storage     Storage
	extractor   AudioExtractor
	transcriber Transcriber
	notifier    Notifier
	registry    *style.Registry
	now         func() time.Time

	mu        sync.RWMutex
	videos    []*Video
	index     map[string]int
	currentID string

	style      atomic.Pointer[style.Config]
	generating atomic.Bool
	uploading  atomic.Int32
	urls       singleflight.Group
}

type Option func(*Manager)

func WithNotifier(n Notifier) Option {
	return func(m *Manager) {
		if n != nil {
			m.notifier = n
		}
	}
}

func WithRegistry(r *style.Registry) Option {
	return func(m *Manager) {
		if r != nil {
			m.registry = r
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

type discard struct{}

func (discard) Notify(Event) {}

func NewManager(storage Storage, extractor AudioExtractor, transcriber Transcriber, opts ...Option) *Manager {
	m := &Manager{
		storage:     storage,
		extractor:   extractor,
		transcriber: transcriber,
		notifier:    discard{},
		registry:    style.DefaultRegistry(),
		now:         time.Now,
		index:       make(map[string]int),
	}
	for _, opt := range opts {
		opt(m)
	}
	initial := m.registry.Default()
	m.style.Store(&initial)
	return m
}

// RegisterVideo uploads a local file and appends it as the current video.
// Nothing is added when storage fails.
func (m *Manager) RegisterVideo(ctx context.Context, up Upload) (Video, error) {
	if up.Body == nil || up.Name == "" {
		return Video{}, NewError(ErrValidation, "upload needs a file name and body")
	}

	m.uploading.Add(1)
	defer m.uploading.Add(-1)
	m.notify(Event{Type: EventStatus, Status: StatusUploading, Message: fmt.Sprintf("Uploading %s", up.Name)})

	target, err := m.storage.RequestUploadTarget(ctx)
	if err != nil {
		return Video{}, m.uploadFailed(up, err)
	}
	if err := m.storage.PutObject(ctx, target.URL, up.Body, up.Size, up.MimeType); err != nil {
		return Video{}, m.uploadFailed(up, err)
	}

	now := m.now()
	v := &Video{
		ID:   target.Key,
		Name: up.Name,
		File: FileMetadata{
			Name:     up.Name,
			Size:     up.Size,
			MimeType: up.MimeType,
		},
		Status:     StatusUploaded,
		ResumeFrom: StatusUploaded,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	m.mu.Lock()
	m.put(v)
	m.currentID = v.ID
	snapshot := cloneVideo(v)
	m.mu.Unlock()

	log.Info("Registered video %s (%s, %d bytes)", v.ID, up.Name, up.Size)
	m.notify(Event{VideoID: v.ID, Type: EventStatus, Status: StatusUploaded, Message: fmt.Sprintf("Uploaded %s", up.Name)})
	return snapshot, nil
}

func (m *Manager) uploadFailed(up Upload, cause error) error {
	err := WrapError(cause, ErrCollaborator, "upload failed").
		WithContext("step", StepUpload).
		WithContext("file", up.Name)
	log.Error("Upload of %s failed: %v", up.Name, cause)
	m.notify(Event{Type: EventError, Message: err.Message, Advice: Advice(err)})
	return err
}

// put appends v or replaces the entry with the same id. Caller holds mu.
func (m *Manager) put(v *Video) {
	if i, ok := m.index[v.ID]; ok {
		m.videos[i] = v
		return
	}
	m.index[v.ID] = len(m.videos)
	m.videos = append(m.videos, v)
}

// SelectCurrent makes id the current video. An empty or unknown id clears
// the selection.
func (m *Manager) SelectCurrent(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.index[id]; ok {
		m.currentID = id
		return
	}
	m.currentID = ""
}

// GenerateCaptions runs extraction and transcription for the current video.
// It reports false without error when another run is in flight, nothing is
// selected, or the current video is not in a startable state.
func (m *Manager) GenerateCaptions(ctx context.Context) (bool, error) {
	if !m.generating.CompareAndSwap(false, true) {
		return false, nil
	}
	defer m.generating.Store(false)

	v, ok := m.startable()
	if !ok {
		return false, nil
	}
	log.Info("Generating captions for %s (resume from %s)", v.ID, v.ResumeFrom)

	audioPath := v.AudioPath
	if v.ResumeFrom != StatusProcessing || audioPath == "" {
		var err error
		audioPath, err = m.extractor.ExtractAudio(ctx, v.ID)
		if err != nil {
			return true, m.fail(v.ID, StepExtract, err)
		}
		m.update(v.ID, StatusProcessing, func(v *Video) {
			v.AudioPath = audioPath
			v.ResumeFrom = StatusProcessing
		})
	} else {
		m.update(v.ID, StatusProcessing, nil)
	}

	records, err := m.transcriber.Transcribe(ctx, audioPath)
	if err != nil {
		return true, m.fail(v.ID, StepTranscribe, err)
	}
	track := caption.Convert(records)

	m.update(v.ID, StatusTranscribed, func(v *Video) {
		v.Transcript = records
		v.Captions = track
		v.ResumeFrom = StatusTranscribed
	})
	log.Info("Captions ready for %s: %d intervals from %d records", v.ID, track.Len(), len(records))
	return true, nil
}

func (m *Manager) startable() (Video, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[m.currentID]
	if !ok {
		return Video{}, false
	}
	v := m.videos[i]
	switch v.Status {
	case StatusUploaded:
		return cloneVideo(v), true
	case StatusError:
		if v.ResumeFrom == StatusUploaded || v.ResumeFrom == StatusProcessing {
			return cloneVideo(v), true
		}
	}
	return Video{}, false
}

// update applies mutate and moves the video to status when the transition
// is allowed. Videos removed meanwhile are ignored.
func (m *Manager) update(id string, status Status, mutate func(*Video)) {
	m.mu.Lock()
	i, ok := m.index[id]
	if !ok {
		m.mu.Unlock()
		return
	}
	next := cloneVideo(m.videos[i])
	if next.Status != status && !isValidTransition(next.Status, status) {
		m.mu.Unlock()
		log.Warn("Ignoring transition %s -> %s for %s", next.Status, status, id)
		return
	}
	if mutate != nil {
		mutate(&next)
	}
	next.Status = status
	if status != StatusError {
		next.Error = ""
	}
	next.UpdatedAt = m.now()
	m.videos[i] = &next
	m.mu.Unlock()

	m.notify(Event{VideoID: id, Type: EventStatus, Status: status, Message: next.Error})
}

func (m *Manager) fail(id, step string, cause error) error {
	err := WrapError(cause, ErrCollaborator, step+" failed").
		WithContext("step", step).
		WithContext("video", id)
	log.Error("Caption generation for %s failed: %v", id, err)

	m.update(id, StatusError, func(v *Video) {
		v.Error = fmt.Sprintf("%s: %v", err.Message, cause)
	})
	m.notify(Event{VideoID: id, Type: EventError, Status: StatusError, Message: err.Message, Advice: Advice(err)})
	return err
}

// ResolvePlaybackURL fetches a signed playback URL for id and stores it on
// the video. Concurrent calls for one id share a single storage request.
func (m *Manager) ResolvePlaybackURL(ctx context.Context, id string) (string, error) {
	if _, ok := m.Video(id); !ok {
		return "", NewError(ErrValidation, "unknown video").WithContext("video", id)
	}

	res, err, _ := m.urls.Do(id, func() (any, error) {
		return m.storage.SignedPlaybackURL(ctx, id)
	})
	if err != nil {
		return "", WrapError(err, ErrCollaborator, "signing playback url failed").
			WithContext("step", StepPlayback).
			WithContext("video", id)
	}
	url := res.(string)

	m.mu.Lock()
	if i, ok := m.index[id]; ok {
		next := cloneVideo(m.videos[i])
		next.RemoteURL = url
		m.videos[i] = &next
	}
	m.mu.Unlock()
	return url, nil
}

// ImportObjects registers storage keys that are not known yet as uploaded
// videos. The current selection is left alone.
func (m *Manager) ImportObjects(keys []string) int {
	now := m.now()
	var added []string

	m.mu.Lock()
	for _, key := range keys {
		if key == "" {
			continue
		}
		if _, ok := m.index[key]; ok {
			continue
		}
		name := path.Base(key)
		m.put(&Video{
			ID:         key,
			Name:       name,
			File:       FileMetadata{Name: name, Size: -1, MimeType: "video/mp4"},
			Status:     StatusUploaded,
			ResumeFrom: StatusUploaded,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
		added = append(added, key)
	}
	m.mu.Unlock()

	for _, key := range added {
		m.notify(Event{VideoID: key, Type: EventImported, Status: StatusUploaded})
	}
	return len(added)
}

// SetStyle validates cfg and makes it the active style.
func (m *Manager) SetStyle(cfg style.Config) error {
	if err := cfg.Validate(); err != nil {
		return WrapError(err, ErrValidation, "invalid caption style")
	}
	next := cfg.Clone()
	m.style.Store(&next)
	return nil
}

// SetStylePreset activates a copy of a registered preset.
func (m *Manager) SetStylePreset(p style.Preset) error {
	cfg, ok := m.registry.Get(p)
	if !ok {
		return NewError(ErrValidation, "unknown style preset").WithContext("preset", string(p))
	}
	m.style.Store(&cfg)
	return nil
}

func (m *Manager) Style() style.Config {
	return m.style.Load().Clone()
}

func (m *Manager) Registry() *style.Registry {
	return m.registry
}

func (m *Manager) Videos() []Video {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]Video, len(m.videos))
	for i, v := range m.videos {
		out[i] = cloneVideo(v)
	}
	return out
}

func (m *Manager) Video(id string) (Video, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.index[id]
	if !ok {
		return Video{}, false
	}
	return cloneVideo(m.videos[i]), true
}

// Captions returns the caption track of a transcribed video.
func (m *Manager) Captions(id string) (caption.Track, error) {
	v, ok := m.Video(id)
	if !ok {
		return caption.Track{}, NewError(ErrValidation, "unknown video").WithContext("video", id)
	}
	if v.Status != StatusTranscribed {
		return caption.Track{}, NewError(ErrPrecondition, "captions are not ready").
			WithContext("video", id).
			WithContext("status", string(v.Status))
	}
	return v.Captions, nil
}

func (m *Manager) Current() (Video, bool) {
	m.mu.RLock()
	id := m.currentID
	m.mu.RUnlock()
	if id == "" {
		return Video{}, false
	}
	return m.Video(id)
}

func (m *Manager) CurrentID() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.currentID
}

func (m *Manager) Loaders() Loaders {
	return Loaders{
		Uploading:  m.uploading.Load() > 0,
		Captioning: m.generating.Load(),
	}
}

func (m *Manager) notify(event Event) {
	if event.Timestamp.IsZero() {
		event.Timestamp = m.now().UTC()
	}
	m.notifier.Notify(event)
}

// isValidTransition enforces forward-only progress. Any non-terminal state
// may fail, and a failed video re-enters at the state it had completed.
func isValidTransition(from, to Status) bool {
	if to == StatusError {
		return from != StatusTranscribed
	}
	switch from {
	case StatusIdle:
		return to == StatusUploading
	case StatusUploading:
		return to == StatusUploaded
	case StatusUploaded:
		return to == StatusProcessing
	case StatusProcessing:
		return to == StatusTranscribed
	case StatusError:
		return to == StatusProcessing || to == StatusTranscribed
	default:
		return false
	}
}
