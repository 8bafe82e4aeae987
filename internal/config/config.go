package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/text/language"

	"github.com/MimeLyc/caption-studio/pkg/log"
)

// Config holds all application configuration, read from environment
// variables with defaults.
//
// Storage:
// - AWS_REGION (default: ap-south-1)
// - AWS_ACCESS_KEY_ID, AWS_SECRET_ACCESS_KEY (required)
// - AWS_BUCKET_NAME (default: whisper-remotion)
// - S3_ENDPOINT: custom endpoint, path-style addressing (optional)
// - VIDEO_PREFIX (default: uploads/videos/)
// - TRANSCRIPT_PREFIX (default: transcripts/)
// - URL_EXPIRY_SECONDS (default: 3600)
// - ARCHIVE_TRANSCRIPTS (default: true)
//
// Media:
// - FFMPEG_PATH, FFPROBE_PATH (default: looked up on PATH)
// - TMP_DIR (default: os.TempDir())
// - TMP_RETENTION_HOURS (default: 24)
// - CLEANUP_CRON (default: @hourly)
//
// Transcription:
// - WHISPER_CLI (default: whisper-cli)
// - MODEL_PATH (default: /app/models/ggml-base.bin)
// - TRANSCRIBE_LANGUAGE (default: hi, "auto" lets whisper detect)
//
// Server and playback:
// - HTTP_ADDR (default: :8080)
// - MAX_UPLOAD_MB (default: 512)
// - UI_STATIC_DIR (default: /app/web)
// - UI_ENABLED (default: true)
// - SAMPLE_INTERVAL_MS (default: 100)
// - VIEWPORT_WIDTH, VIEWPORT_HEIGHT (default: 1280x720)
// - STYLE_PRESET (default: bottom-centered)
//
// Catalog sync and notifications:
// - SYNC_CRON (default: */10 * * * *)
// - SYNC_ENABLED (default: true)
// - SYNC_CONCURRENCY (default: 4)
// - AMQP_URL: RabbitMQ URL, publishing is disabled when empty
// - AMQP_EXCHANGE (default: caption-studio.events)
//
// System:
// - LOG_LEVEL (default: info)
// - SETTINGS_FILE (default: /app/config/settings.json)
type Config struct {
	Storage    StorageConfig    `json:"storage"`
	Media      MediaConfig      `json:"media"`
	Transcribe TranscribeConfig `json:"transcribe"`
	HTTP       HTTPConfig       `json:"http"`
	Playback   PlaybackConfig   `json:"playback"`
	Sync       SyncConfig       `json:"sync"`
	Notify     NotifyConfig     `json:"notify"`
	System     SystemConfig     `json:"system"`
}

type StorageConfig struct {
	Region             string        `json:"region"`
	AccessKeyID        string        `json:"-"`
	SecretAccessKey    string        `json:"-"`
	Bucket             string        `json:"bucket"`
	Endpoint           string        `json:"endpoint"`
	VideoPrefix        string        `json:"video_prefix"`
	TranscriptPrefix   string        `json:"transcript_prefix"`
	URLExpiry          time.Duration `json:"url_expiry"`
	ArchiveTranscripts bool          `json:"archive_transcripts"`
}

type MediaConfig struct {
	FFmpegPath   string        `json:"ffmpeg_path"`
	FFprobePath  string        `json:"ffprobe_path"`
	TmpDir       string        `json:"tmp_dir"`
	TmpRetention time.Duration `json:"tmp_retention"`
	CleanupCron  string        `json:"cleanup_cron"`
}

type TranscribeConfig struct {
	CLI       string       `json:"cli"`
	ModelPath string       `json:"model_path"`
	Language  language.Tag `json:"language"`
}

type HTTPConfig struct {
	Addr           string `json:"addr"`
	MaxUploadBytes int64  `json:"max_upload_bytes"`
	UIStaticDir    string `json:"ui_static_dir"`
	UIEnabled      bool   `json:"ui_enabled"`
}

type PlaybackConfig struct {
	SampleInterval time.Duration `json:"sample_interval"`
	ViewportWidth  float64       `json:"viewport_width"`
	ViewportHeight float64       `json:"viewport_height"`
	StylePreset    string        `json:"style_preset"`
}

type SyncConfig struct {
	CronExpr    string `json:"cron_expr"`
	Enabled     bool   `json:"enabled"`
	Concurrency int    `json:"concurrency"`
}

type NotifyConfig struct {
	AMQPURL  string `json:"-"`
	Exchange string `json:"exchange"`
}

func (c NotifyConfig) Enabled() bool {
	return c.AMQPURL != ""
}

type SystemConfig struct {
	LogLevel     string `json:"log_level"`
	SettingsFile string `json:"settings_file"`
}

// Option is a function type for configuring Config
type Option func(*Config)

// Load reads an optional .env file from the working directory and then
// builds the configuration from the environment. Variables already set in
// the environment win over the file.
func Load(opts ...Option) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}
	return NewFromEnv(opts...)
}

// NewFromEnv creates a new Config instance with values from environment variables and options
func NewFromEnv(opts ...Option) (*Config, error) {
	config := &Config{
		Storage: StorageConfig{
			Region:             getEnvString("AWS_REGION", "ap-south-1"),
			AccessKeyID:        getEnvString("AWS_ACCESS_KEY_ID", ""),
			SecretAccessKey:    getEnvString("AWS_SECRET_ACCESS_KEY", ""),
			Bucket:             getEnvString("AWS_BUCKET_NAME", "whisper-remotion"),
			Endpoint:           getEnvString("S3_ENDPOINT", ""),
			VideoPrefix:        getEnvString("VIDEO_PREFIX", "uploads/videos/"),
			TranscriptPrefix:   getEnvString("TRANSCRIPT_PREFIX", "transcripts/"),
			URLExpiry:          time.Duration(getEnvInt("URL_EXPIRY_SECONDS", 3600)) * time.Second,
			ArchiveTranscripts: getEnvBool("ARCHIVE_TRANSCRIPTS", true),
		},
		Media: MediaConfig{
			FFmpegPath:   getEnvString("FFMPEG_PATH", "ffmpeg"),
			FFprobePath:  getEnvString("FFPROBE_PATH", "ffprobe"),
			TmpDir:       getEnvString("TMP_DIR", os.TempDir()),
			TmpRetention: time.Duration(getEnvInt("TMP_RETENTION_HOURS", 24)) * time.Hour,
			CleanupCron:  getEnvString("CLEANUP_CRON", "@hourly"),
		},
		Transcribe: TranscribeConfig{
			CLI:       getEnvString("WHISPER_CLI", "whisper-cli"),
			ModelPath: getEnvString("MODEL_PATH", "/app/models/ggml-base.bin"),
			Language:  getEnvLanguage("TRANSCRIBE_LANGUAGE", language.Hindi),
		},
		HTTP: HTTPConfig{
			Addr:           getEnvString("HTTP_ADDR", ":8080"),
			MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 512)) << 20,
			UIStaticDir:    getEnvString("UI_STATIC_DIR", "/app/web"),
			UIEnabled:      getEnvBool("UI_ENABLED", true),
		},
		Playback: PlaybackConfig{
			SampleInterval: time.Duration(getEnvInt("SAMPLE_INTERVAL_MS", 100)) * time.Millisecond,
			ViewportWidth:  getEnvFloat("VIEWPORT_WIDTH", 1280),
			ViewportHeight: getEnvFloat("VIEWPORT_HEIGHT", 720),
			StylePreset:    getEnvString("STYLE_PRESET", "bottom-centered"),
		},
		Sync: SyncConfig{
			CronExpr:    getEnvString("SYNC_CRON", "*/10 * * * *"),
			Enabled:     getEnvBool("SYNC_ENABLED", true),
			Concurrency: getEnvInt("SYNC_CONCURRENCY", 4),
		},
		Notify: NotifyConfig{
			AMQPURL:  getEnvString("AMQP_URL", ""),
			Exchange: getEnvString("AMQP_EXCHANGE", "caption-studio.events"),
		},
		System: SystemConfig{
			LogLevel:     getEnvString("LOG_LEVEL", "info"),
			SettingsFile: getEnvString("SETTINGS_FILE", DefaultRuntimeSettingsFile),
		},
	}

	// Apply custom options
	for _, opt := range opts {
		opt(config)
	}

	if err := config.validate(); err != nil {
		return nil, err
	}

	log.Info("Config: region=%s bucket=%s endpoint=%q http=%s language=%s sync=%q amqp=%t",
		config.Storage.Region, config.Storage.Bucket, config.Storage.Endpoint, config.HTTP.Addr,
		config.Transcribe.Language, config.Sync.CronExpr, config.Notify.Enabled())
	return config, nil
}

// validate checks if all required configuration is properly set
func (c *Config) validate() error {
	var errs []error
	if c.Storage.AccessKeyID == "" {
		errs = append(errs, errors.New("AWS_ACCESS_KEY_ID is required"))
	}
	if c.Storage.SecretAccessKey == "" {
		errs = append(errs, errors.New("AWS_SECRET_ACCESS_KEY is required"))
	}
	if c.Storage.Bucket == "" {
		errs = append(errs, errors.New("AWS_BUCKET_NAME is required"))
	}
	if c.Storage.URLExpiry <= 0 {
		errs = append(errs, errors.New("URL_EXPIRY_SECONDS must be positive"))
	}
	if c.Playback.SampleInterval < MinSampleInterval {
		errs = append(errs, fmt.Errorf("SAMPLE_INTERVAL_MS must be at least %d", MinSampleInterval.Milliseconds()))
	}
	return errors.Join(errs...)
}

// getEnvString gets a string value from environment variables with default
func getEnvString(key, defaultValue string) string {
	if value := strings.TrimSpace(os.Getenv(key)); value != "" {
		return value
	}
	return defaultValue
}

// getEnvInt gets an integer value from environment variables with default
func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
		log.Warn("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

// getEnvFloat gets a float value from environment variables with default
func getEnvFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatValue, err := strconv.ParseFloat(value, 64); err == nil {
			return floatValue
		}
		log.Warn("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
		log.Warn("Ignoring invalid %s=%q", key, value)
	}
	return defaultValue
}

// getEnvLanguage parses a BCP 47 tag; "auto" maps to language.Und.
func getEnvLanguage(key string, defaultValue language.Tag) language.Tag {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	tag, err := parseLanguage(value)
	if err != nil {
		log.Warn("Ignoring invalid %s=%q: %v", key, value, err)
		return defaultValue
	}
	return tag
}

func parseLanguage(s string) (language.Tag, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "auto") {
		return language.Und, nil
	}
	return language.Parse(s)
}
