package httpapi

import (
	"context"
	"net/http"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/MimeLyc/caption-studio/internal/catalog"
	"github.com/MimeLyc/caption-studio/internal/config"
	"github.com/MimeLyc/caption-studio/internal/layout"
	"github.com/MimeLyc/caption-studio/internal/playback"
	"github.com/MimeLyc/caption-studio/internal/video"
)

type runtimeSettingsStore interface {
	GetRuntimeSettings() (config.RuntimeSettings, error)
	UpdateRuntimeSettings(next config.RuntimeSettings) (config.RuntimeSettings, error)
}

type runtimeSettingsApplier func(next config.RuntimeSettings) error

type catalogSyncer interface {
	Sync(ctx context.Context) (catalog.Result, error)
	Status(now time.Time) (catalog.Status, error)
}

type Server struct {
	videos   *video.Manager
	events   *video.EventBus
	engine   *layout.Engine
	position *playback.Position
	sampler  *playback.Sampler
	syncer   catalogSyncer
	settings runtimeSettingsStore
	apply    runtimeSettingsApplier

	maxUploadBytes int64
	eventPoll      time.Duration

	uiEnabled   bool
	uiStaticDir string

	mux    *http.ServeMux
	server *http.Server
}

type Option func(*Server)

func WithUI(staticDir string, enabled bool) Option {
	return func(s *Server) {
		s.uiStaticDir = staticDir
		s.uiEnabled = enabled
	}
}

func WithRuntimeSettingsStore(store runtimeSettingsStore) Option {
	return func(s *Server) {
		s.settings = store
	}
}

func WithRuntimeSettingsApplier(apply runtimeSettingsApplier) Option {
	return func(s *Server) {
		s.apply = apply
	}
}

func WithSyncer(syncer catalogSyncer) Option {
	return func(s *Server) {
		s.syncer = syncer
	}
}

func WithMaxUploadBytes(n int64) Option {
	return func(s *Server) {
		if n > 0 {
			s.maxUploadBytes = n
		}
	}
}

// WithEventPoll sets how often the event stream checks for new events.
func WithEventPoll(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.eventPoll = d
		}
	}
}

func NewServer(
	videos *video.Manager,
	events *video.EventBus,
	engine *layout.Engine,
	position *playback.Position,
	sampler *playback.Sampler,
	opts ...Option,
) *Server {
	s := &Server{
		videos:         videos,
		events:         events,
		engine:         engine,
		position:       position,
		sampler:        sampler,
		maxUploadBytes: 512 << 20,
		eventPoll:      500 * time.Millisecond,
		mux:            http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.mux
}

func (s *Server) ListenAndServe(addr string) error {
	s.server = &http.Server{
		Addr:              addr,
		Handler:           s.mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/health", s.handleHealth)
	s.mux.HandleFunc("/api/videos", s.handleVideos)
	s.mux.HandleFunc("/api/videos/current", s.handleSelectCurrent)
	s.mux.HandleFunc("/api/videos/", s.handleVideoResource)
	s.mux.HandleFunc("/api/captions/generate", s.handleGenerate)
	s.mux.HandleFunc("/api/style", s.handleStyle)
	s.mux.HandleFunc("/api/style/presets", s.handleStylePresets)
	s.mux.HandleFunc("/api/render", s.handleRender)
	s.mux.HandleFunc("/api/playback", s.handlePlayback)
	s.mux.HandleFunc("/api/playback/stream", s.handlePlaybackStream)
	s.mux.HandleFunc("/api/events/stream", s.handleEventStream)
	s.mux.HandleFunc("/api/sync", s.handleSync)
	s.mux.HandleFunc("/api/settings", s.handleSettings)
	s.mux.HandleFunc("/", s.handleStatic)
}

func (s *Server) handleStatic(w http.ResponseWriter, r *http.Request) {
	if !s.uiEnabled || s.uiStaticDir == "" {
		http.NotFound(w, r)
		return
	}

	rel := strings.TrimPrefix(path.Clean(r.URL.Path), "/")
	indexPath := filepath.Join(s.uiStaticDir, "index.html")

	if rel == "" || !strings.Contains(filepath.Base(rel), ".") {
		http.ServeFile(w, r, indexPath)
		return
	}

	filePath := filepath.Join(s.uiStaticDir, rel)
	if _, err := os.Stat(filePath); err != nil {
		// unknown asset paths fall back to the player page
		http.ServeFile(w, r, indexPath)
		return
	}
	http.ServeFile(w, r, filePath)
}
