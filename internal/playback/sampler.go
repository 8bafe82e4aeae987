package playback

import (
	"context"
	"sync"
	"time"

	"github.com/MimeLyc/caption-studio/internal/layout"
	"github.com/MimeLyc/caption-studio/internal/style"
	"github.com/MimeLyc/caption-studio/internal/video"
	"github.com/MimeLyc/caption-studio/pkg/log"
)

const DefaultInterval = 100 * time.Millisecond

var DefaultViewport = layout.Viewport{Width: 1280, Height: 720}

// Source supplies the current video and the active style.
type Source interface {
	Current() (video.Video, bool)
	Style() style.Config
}

// Sample is the caption state at one sampled instant. Frame is nil when no
// caption is active.
type Sample struct {
	Seq     int64         `json:"seq"`
	TimeMs  int64         `json:"time_ms"`
	VideoID string        `json:"video_id,omitempty"`
	Frame   *layout.Frame `json:"frame,omitempty"`
}

// Sampler polls the playback position on a fixed interval, lays out the
// active caption and publishes the result to subscribers. Subscribers only
// ever see the latest sample; slow readers skip intermediate ones.
type Sampler struct {
	source   Source
	clock    *Position
	engine   *layout.Engine
	interval time.Duration
	logger   *log.Logger

	reset chan struct{}

	mu       sync.RWMutex
	viewport layout.Viewport
	latest   Sample
	seq      int64
	nextSub  int
	subs     map[int]chan Sample
}

type SamplerOption func(*Sampler)

func WithInterval(d time.Duration) SamplerOption {
	return func(s *Sampler) {
		if d > 0 {
			s.interval = d
		}
	}
}

func WithViewport(vp layout.Viewport) SamplerOption {
	return func(s *Sampler) {
		s.viewport = vp
	}
}

func WithLogger(l *log.Logger) SamplerOption {
	return func(s *Sampler) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSampler(source Source, clock *Position, engine *layout.Engine, opts ...SamplerOption) *Sampler {
	s := &Sampler{
		source:   source,
		clock:    clock,
		engine:   engine,
		interval: DefaultInterval,
		logger:   log.GetLogger().With("sampler"),
		viewport: DefaultViewport,
		reset:    make(chan struct{}, 1),
		subs:     make(map[int]chan Sample),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Sampler) SetViewport(vp layout.Viewport) {
	if vp.Width <= 0 || vp.Height <= 0 {
		return
	}
	s.mu.Lock()
	s.viewport = vp
	s.mu.Unlock()
}

func (s *Sampler) Viewport() layout.Viewport {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.viewport
}

// SetInterval changes the sampling period of a running sampler.
func (s *Sampler) SetInterval(d time.Duration) {
	if d <= 0 {
		return
	}
	s.mu.Lock()
	s.interval = d
	s.mu.Unlock()
	select {
	case s.reset <- struct{}{}:
	default:
	}
}

func (s *Sampler) Interval() time.Duration {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.interval
}

// Run samples until ctx is cancelled.
func (s *Sampler) Run(ctx context.Context) error {
	interval := s.Interval()
	s.logger.Info("Caption sampler started, interval %s", interval)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Caption sampler stopped")
			return ctx.Err()
		case <-s.reset:
			interval = s.Interval()
			ticker.Reset(interval)
			s.logger.Info("Caption sampler interval changed to %s", interval)
		case <-ticker.C:
			s.Tick()
		}
	}
}

// Tick takes one sample and publishes it.
func (s *Sampler) Tick() Sample {
	sample := s.SampleAt(s.clock.CurrentTimeMs())

	s.mu.Lock()
	s.seq++
	sample.Seq = s.seq
	s.latest = sample
	for _, ch := range s.subs {
		select {
		case <-ch:
		default:
		}
		ch <- sample
	}
	s.mu.Unlock()
	return sample
}

// SampleAt lays out the current video's caption at tMs without publishing.
func (s *Sampler) SampleAt(tMs int64) Sample {
	sample := Sample{TimeMs: tMs}
	v, ok := s.source.Current()
	if !ok {
		return sample
	}
	sample.VideoID = v.ID

	frame, ok := s.engine.Render(v.Captions, s.source.Style(), tMs, s.Viewport())
	if ok {
		sample.Frame = &frame
	}
	return sample
}

func (s *Sampler) Latest() Sample {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.latest
}

// Subscribe returns a channel receiving the latest samples and a function
// that closes it.
func (s *Sampler) Subscribe() (<-chan Sample, func()) {
	ch := make(chan Sample, 1)

	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.mu.Lock()
			delete(s.subs, id)
			close(ch)
			s.mu.Unlock()
		})
	}
}
