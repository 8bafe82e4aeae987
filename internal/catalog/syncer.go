package catalog

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/MimeLyc/caption-studio/pkg/icron"
	"github.com/MimeLyc/caption-studio/pkg/log"
)

const DefaultSchedule = "*/10 * * * *"

type Lister interface {
	ListObjects(ctx context.Context, prefix string) ([]string, error)
}

type Importer interface {
	ImportObjects(keys []string) int
}

// URLResolver pre-signs playback URLs for imported videos.
type URLResolver interface {
	ResolvePlaybackURL(ctx context.Context, id string) (string, error)
}

// Result describes one sync run.
type Result struct {
	Listed   int       `json:"listed"`
	Imported int       `json:"imported"`
	Signed   int       `json:"signed"`
	Started  time.Time `json:"started"`
	Duration string    `json:"duration"`
	Error    string    `json:"error,omitempty"`
}

// Syncer imports videos already present in storage, on demand and on a cron
// schedule. Overlapping runs share one execution.
type Syncer struct {
	lister      Lister
	importer    Importer
	resolver    URLResolver
	prefix      string
	concurrency int
	cron        *cron.Cron
	logger      *log.Logger

	group singleflight.Group

	mu       sync.Mutex
	schedule string
	entryID  cron.EntryID
	last     atomic.Pointer[Result]
}

type Option func(*Syncer)

func WithResolver(r URLResolver) Option {
	return func(s *Syncer) {
		s.resolver = r
	}
}

func WithConcurrency(n int) Option {
	return func(s *Syncer) {
		if n > 0 {
			s.concurrency = n
		}
	}
}

func WithSchedule(expr string) Option {
	return func(s *Syncer) {
		if expr != "" {
			s.schedule = expr
		}
	}
}

func WithLogger(l *log.Logger) Option {
	return func(s *Syncer) {
		if l != nil {
			s.logger = l
		}
	}
}

func NewSyncer(lister Lister, importer Importer, prefix string, cronEngine *cron.Cron, opts ...Option) *Syncer {
	s := &Syncer{
		lister:      lister,
		importer:    importer,
		prefix:      prefix,
		concurrency: 4,
		cron:        cronEngine,
		schedule:    DefaultSchedule,
		logger:      log.GetLogger().With("catalog"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Schedule registers the periodic sync with the cron engine.
func (s *Syncer) Schedule(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scheduleLocked(ctx, s.schedule)
}

// Reschedule replaces the cron entry with expr.
func (s *Syncer) Reschedule(ctx context.Context, expr string) error {
	if err := icron.Validate(expr); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if expr == s.schedule && s.entryID != 0 {
		return nil
	}
	return s.scheduleLocked(ctx, expr)
}

func (s *Syncer) scheduleLocked(ctx context.Context, expr string) error {
	id, err := s.cron.AddFunc(expr, func() {
		if _, err := s.Sync(ctx); err != nil {
			s.logger.Error("Scheduled catalog sync failed: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("schedule catalog sync %q: %w", expr, err)
	}
	if s.entryID != 0 {
		s.cron.Remove(s.entryID)
	}
	s.entryID = id
	s.schedule = expr
	s.logger.Info("Catalog sync scheduled with %q", expr)
	return nil
}

func (s *Syncer) ScheduleExpr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.schedule
}

// Sync lists the storage prefix and imports unknown objects.
func (s *Syncer) Sync(ctx context.Context) (Result, error) {
	v, err, shared := s.group.Do("sync", func() (any, error) {
		return s.run(ctx)
	})
	if shared {
		s.logger.Debug("Joined in-flight catalog sync")
	}
	return v.(Result), err
}

func (s *Syncer) run(ctx context.Context) (Result, error) {
	res := Result{Started: time.Now()}
	defer func() {
		res.Duration = time.Since(res.Started).Round(time.Millisecond).String()
		stored := res
		s.last.Store(&stored)
	}()

	keys, err := s.lister.ListObjects(ctx, s.prefix)
	if err != nil {
		res.Error = err.Error()
		return res, fmt.Errorf("list %q: %w", s.prefix, err)
	}
	res.Listed = len(keys)
	res.Imported = s.importer.ImportObjects(keys)

	if s.resolver != nil && len(keys) > 0 {
		signed, err := s.resolveAll(ctx, keys)
		res.Signed = signed
		if err != nil {
			res.Error = err.Error()
			s.logger.Warn("Catalog sync could not sign every playback url: %v", err)
		}
	}

	s.logger.Info("Catalog sync: %d listed, %d imported, %d signed", res.Listed, res.Imported, res.Signed)
	return res, nil
}

func (s *Syncer) resolveAll(ctx context.Context, keys []string) (int, error) {
	var (
		signed atomic.Int32
		mu     sync.Mutex
		errs   []error
	)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for _, key := range keys {
		g.Go(func() error {
			if _, err := s.resolver.ResolvePlaybackURL(gctx, key); err != nil {
				mu.Lock()
				errs = append(errs, fmt.Errorf("%s: %w", key, err))
				mu.Unlock()
				return nil
			}
			signed.Add(1)
			return nil
		})
	}
	_ = g.Wait()
	return int(signed.Load()), errors.Join(errs...)
}

// Last returns the most recent run, if any.
func (s *Syncer) Last() (Result, bool) {
	r := s.last.Load()
	if r == nil {
		return Result{}, false
	}
	return *r, true
}

// Status reports the schedule and the last run.
type Status struct {
	Trigger icron.TriggerInfo `json:"trigger"`
	Last    *Result           `json:"last,omitempty"`
}

func (s *Syncer) Status(now time.Time) (Status, error) {
	info, err := icron.GetTriggerInfo(s.ScheduleExpr(), now)
	if err != nil {
		return Status{}, err
	}
	return Status{Trigger: info, Last: s.last.Load()}, nil
}
