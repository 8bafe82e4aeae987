package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/MimeLyc/caption-studio/internal/catalog"
	"github.com/MimeLyc/caption-studio/internal/config"
	"github.com/MimeLyc/caption-studio/internal/httpapi"
	"github.com/MimeLyc/caption-studio/internal/layout"
	"github.com/MimeLyc/caption-studio/internal/media"
	"github.com/MimeLyc/caption-studio/internal/notify"
	"github.com/MimeLyc/caption-studio/internal/playback"
	"github.com/MimeLyc/caption-studio/internal/storage"
	"github.com/MimeLyc/caption-studio/internal/style"
	"github.com/MimeLyc/caption-studio/internal/transcribe"
	"github.com/MimeLyc/caption-studio/internal/video"
	"github.com/MimeLyc/caption-studio/pkg/file"
	"github.com/MimeLyc/caption-studio/pkg/log"
)

// app owns the long-lived components and their background work.
type app struct {
	cfg *config.Config

	cron      *cron.Cron
	videos    *video.Manager
	events    *video.EventBus
	sampler   *playback.Sampler
	whisper   *transcribe.Whisper
	extractor *media.AudioExtractor
	syncer    *catalog.Syncer
	publisher *notify.AMQPPublisher
	http      *httpapi.Server
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	store, err := storage.New(ctx, storage.Config{
		Region:           cfg.Storage.Region,
		AccessKeyID:      cfg.Storage.AccessKeyID,
		SecretAccessKey:  cfg.Storage.SecretAccessKey,
		Bucket:           cfg.Storage.Bucket,
		Endpoint:         cfg.Storage.Endpoint,
		VideoPrefix:      cfg.Storage.VideoPrefix,
		TranscriptPrefix: cfg.Storage.TranscriptPrefix,
		URLExpiry:        cfg.Storage.URLExpiry,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: %w", err)
	}

	a := &app{
		cfg:    cfg,
		cron:   cron.New(),
		events: video.NewEventBus(0),
	}

	a.extractor = media.NewAudioExtractor(store,
		media.WithFFmpeg(cfg.Media.FFmpegPath),
		media.WithFFprobe(cfg.Media.FFprobePath),
		media.WithTempDir(cfg.Media.TmpDir),
	)

	whisperOpts := []transcribe.Option{
		transcribe.WithCLI(cfg.Transcribe.CLI),
		transcribe.WithModel(cfg.Transcribe.ModelPath),
		transcribe.WithLanguage(cfg.Transcribe.Language),
	}
	if cfg.Storage.ArchiveTranscripts {
		whisperOpts = append(whisperOpts, transcribe.WithArchiver(store))
	}
	a.whisper = transcribe.NewWhisper(whisperOpts...)

	notifiers := video.Notifiers{a.events}
	if cfg.Notify.Enabled() {
		a.publisher, err = notify.DialAMQP(cfg.Notify.AMQPURL, cfg.Notify.Exchange)
		if err != nil {
			return nil, err
		}
		notifiers = append(notifiers, a.publisher)
	}

	a.videos = video.NewManager(store, a.extractor, a.whisper, video.WithNotifier(notifiers))
	if err := a.videos.SetStylePreset(style.Preset(cfg.Playback.StylePreset)); err != nil {
		a.Close()
		return nil, err
	}

	engine := layout.NewEngine()
	position := playback.NewPosition(nil)
	a.sampler = playback.NewSampler(a.videos, position, engine,
		playback.WithInterval(cfg.Playback.SampleInterval),
		playback.WithViewport(layout.Viewport{
			Width:  cfg.Playback.ViewportWidth,
			Height: cfg.Playback.ViewportHeight,
		}),
	)

	settings, err := config.NewRuntimeSettingsStore(cfg.System.SettingsFile, cfg.RuntimeSettings())
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("runtime settings: %w", err)
	}

	httpOpts := []httpapi.Option{
		httpapi.WithUI(cfg.HTTP.UIStaticDir, cfg.HTTP.UIEnabled),
		httpapi.WithMaxUploadBytes(cfg.HTTP.MaxUploadBytes),
		httpapi.WithRuntimeSettingsStore(settings),
		httpapi.WithRuntimeSettingsApplier(func(next config.RuntimeSettings) error {
			return a.applySettings(ctx, next)
		}),
	}
	if cfg.Sync.Enabled {
		a.syncer = catalog.NewSyncer(store, a.videos, store.VideoPrefix(), a.cron,
			catalog.WithResolver(a.videos),
			catalog.WithConcurrency(cfg.Sync.Concurrency),
			catalog.WithSchedule(cfg.Sync.CronExpr),
		)
		httpOpts = append(httpOpts, httpapi.WithSyncer(a.syncer))
	}
	a.http = httpapi.NewServer(a.videos, a.events, engine, position, a.sampler, httpOpts...)
	return a, nil
}

// Schedule registers the cron jobs and starts the sampler. The initial
// catalog sync runs in the background.
func (a *app) Schedule(ctx context.Context) error {
	if a.syncer != nil {
		if err := a.syncer.Schedule(ctx); err != nil {
			return err
		}
		go func() {
			if _, err := a.syncer.Sync(ctx); err != nil {
				log.Warn("Initial catalog sync failed: %v", err)
			}
		}()
	}

	if _, err := a.cron.AddFunc(a.cfg.Media.CleanupCron, a.cleanupTemp); err != nil {
		return fmt.Errorf("schedule temp cleanup %q: %w", a.cfg.Media.CleanupCron, err)
	}

	go func() {
		if err := a.sampler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("Caption sampler stopped: %v", err)
		}
	}()
	return nil
}

func (a *app) cleanupTemp() {
	cutoff := time.Now().Add(-a.cfg.Media.TmpRetention)
	removed, err := file.RemoveOlderThan(a.extractor.TempDir(), cutoff)
	if err != nil {
		log.Warn("Temp cleanup in %s failed: %v", a.extractor.TempDir(), err)
	}
	if len(removed) > 0 {
		log.Info("Removed %d stale temp files", len(removed))
	}
}

// applySettings pushes updated runtime settings into the running
// components.
func (a *app) applySettings(ctx context.Context, next config.RuntimeSettings) error {
	if a.syncer != nil {
		if err := a.syncer.Reschedule(ctx, next.SyncCron); err != nil {
			return err
		}
	}
	if err := a.videos.SetStylePreset(style.Preset(next.StylePreset)); err != nil {
		return err
	}
	a.sampler.SetInterval(time.Duration(next.SampleIntervalMs) * time.Millisecond)

	tag, err := next.Language()
	if err != nil {
		return err
	}
	a.whisper.SetLanguage(tag)
	log.Info("Applied runtime settings: sync=%q preset=%s interval=%dms language=%s",
		next.SyncCron, next.StylePreset, next.SampleIntervalMs, next.TranscribeLanguage)
	return nil
}

func (a *app) Close() {
	if a.publisher == nil {
		return
	}
	if err := a.publisher.Close(); err != nil {
		log.Warn("Closing AMQP publisher: %v", err)
	}
}
