package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"golang.org/x/text/language"

	"github.com/MimeLyc/caption-studio/internal/style"
)

const (
	DefaultRuntimeSettingsFile = "/app/config/settings.json"
	MinSampleInterval          = 10 * time.Millisecond
)

// RuntimeSettings are the knobs that can change without a restart.
type RuntimeSettings struct {
	SyncCron           string `json:"sync_cron"`
	StylePreset        string `json:"style_preset"`
	SampleIntervalMs   int    `json:"sample_interval_ms"`
	TranscribeLanguage string `json:"transcribe_language"`
}

func RuntimeSettingsFilePath() string {
	return getEnvString("SETTINGS_FILE", DefaultRuntimeSettingsFile)
}

func (s RuntimeSettings) Validate() error {
	if strings.TrimSpace(s.SyncCron) == "" {
		return fmt.Errorf("sync_cron is required")
	}
	if _, err := cron.ParseStandard(s.SyncCron); err != nil {
		return fmt.Errorf("invalid sync_cron: %w", err)
	}
	if _, ok := style.DefaultRegistry().Get(style.Preset(s.StylePreset)); !ok {
		return fmt.Errorf("unknown style_preset %q", s.StylePreset)
	}
	if time.Duration(s.SampleIntervalMs)*time.Millisecond < MinSampleInterval {
		return fmt.Errorf("sample_interval_ms must be at least %d", MinSampleInterval.Milliseconds())
	}
	if strings.TrimSpace(s.TranscribeLanguage) == "" {
		return fmt.Errorf("transcribe_language is required")
	}
	if _, err := parseLanguage(s.TranscribeLanguage); err != nil {
		return fmt.Errorf("invalid transcribe_language: %w", err)
	}
	return nil
}

// Language parses TranscribeLanguage; "auto" yields language.Und.
func (s RuntimeSettings) Language() (language.Tag, error) {
	return parseLanguage(s.TranscribeLanguage)
}

func (c *Config) RuntimeSettings() RuntimeSettings {
	lang := c.Transcribe.Language.String()
	if lang == "und" {
		lang = "auto"
	}
	return RuntimeSettings{
		SyncCron:           c.Sync.CronExpr,
		StylePreset:        c.Playback.StylePreset,
		SampleIntervalMs:   int(c.Playback.SampleInterval.Milliseconds()),
		TranscribeLanguage: lang,
	}
}

// WithRuntimeSettings overrides the environment with the non-empty fields
// of settings.
func WithRuntimeSettings(settings RuntimeSettings) Option {
	return func(c *Config) {
		if strings.TrimSpace(settings.SyncCron) != "" {
			c.Sync.CronExpr = settings.SyncCron
		}
		if strings.TrimSpace(settings.StylePreset) != "" {
			c.Playback.StylePreset = settings.StylePreset
		}
		if settings.SampleIntervalMs > 0 {
			c.Playback.SampleInterval = time.Duration(settings.SampleIntervalMs) * time.Millisecond
		}
		if tag, err := parseLanguage(settings.TranscribeLanguage); err == nil && settings.TranscribeLanguage != "" {
			c.Transcribe.Language = tag
		}
	}
}

func LoadRuntimeSettingsFile(path string) (RuntimeSettings, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return RuntimeSettings{}, err
	}
	var settings RuntimeSettings
	if err := json.Unmarshal(data, &settings); err != nil {
		return RuntimeSettings{}, fmt.Errorf("invalid settings file: %w", err)
	}
	return settings, nil
}

func WriteRuntimeSettingsFile(path string, settings RuntimeSettings) error {
	if err := settings.Validate(); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if dir != "" && dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}

	content, err := json.MarshalIndent(settings, "", "  ")
	if err != nil {
		return err
	}
	content = append(content, '\n')

	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, content, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpPath, path)
}

// RuntimeSettingsStore keeps the current settings and persists updates.
type RuntimeSettingsStore struct {
	path string

	mu      sync.RWMutex
	current RuntimeSettings
}

func NewRuntimeSettingsStore(path string, initial RuntimeSettings) (*RuntimeSettingsStore, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("settings file path is required")
	}
	if err := initial.Validate(); err != nil {
		return nil, err
	}
	return &RuntimeSettingsStore{
		path:    path,
		current: initial,
	}, nil
}

func (s *RuntimeSettingsStore) GetRuntimeSettings() (RuntimeSettings, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current, nil
}

func (s *RuntimeSettingsStore) UpdateRuntimeSettings(next RuntimeSettings) (RuntimeSettings, error) {
	if err := next.Validate(); err != nil {
		return RuntimeSettings{}, err
	}
	if err := WriteRuntimeSettingsFile(s.path, next); err != nil {
		return RuntimeSettings{}, err
	}

	s.mu.Lock()
	s.current = next
	s.mu.Unlock()
	return next, nil
}
