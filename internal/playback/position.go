package playback

import (
	"sync"
	"time"
)

// Position tracks the player's reported time. While playing, the time is
// extrapolated from the last report with the wall clock.
type Position struct {
	mu       sync.RWMutex
	ms       int64
	playing  bool
	rate     float64
	reported time.Time
	now      func() time.Time
}

func NewPosition(now func() time.Time) *Position {
	if now == nil {
		now = time.Now
	}
	return &Position{rate: 1, now: now}
}

// Report records the player time. A negative time is treated as 0.
func (p *Position) Report(ms int64, playing bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.ms = max(ms, 0)
	p.playing = playing
	p.reported = p.now()
}

// SetRate sets the playback speed used for extrapolation.
func (p *Position) SetRate(rate float64) {
	if rate <= 0 {
		return
	}
	p.mu.Lock()
	p.ms = p.currentLocked()
	p.reported = p.now()
	p.rate = rate
	p.mu.Unlock()
}

func (p *Position) CurrentTimeMs() int64 {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.currentLocked()
}

func (p *Position) currentLocked() int64 {
	if !p.playing || p.reported.IsZero() {
		return p.ms
	}
	elapsed := p.now().Sub(p.reported)
	return p.ms + int64(float64(elapsed.Milliseconds())*p.rate)
}

func (p *Position) Playing() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.playing
}
