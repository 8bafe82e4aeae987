package transcribe

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"sync"

	"golang.org/x/text/language"

	"github.com/MimeLyc/caption-studio/internal/caption"
	"github.com/MimeLyc/caption-studio/pkg/log"
)

const (
	DefaultCLI   = "whisper-cli"
	DefaultModel = "/app/models/ggml-base.bin"
	// maxSegmentLen caps characters per whisper segment.
	maxSegmentLen = "100"
)

// Archiver stores the raw transcript JSON.
type Archiver interface {
	TranscriptKey() string
	PutJSON(ctx context.Context, key string, v any) error
}

// Whisper runs whisper.cpp's CLI on a WAV file and reads back its JSON
// output.
type Whisper struct {
	cli      string
	model    string
	archiver Archiver

	mu   sync.RWMutex
	lang language.Tag
}

type Option func(*Whisper)

func WithCLI(path string) Option {
	return func(w *Whisper) {
		if path != "" {
			w.cli = path
		}
	}
}

func WithModel(path string) Option {
	return func(w *Whisper) {
		if path != "" {
			w.model = path
		}
	}
}

// WithLanguage sets the spoken language; language.Und lets whisper detect
// it.
func WithLanguage(tag language.Tag) Option {
	return func(w *Whisper) {
		w.lang = tag
	}
}

func WithArchiver(a Archiver) Option {
	return func(w *Whisper) {
		w.archiver = a
	}
}

func NewWhisper(opts ...Option) *Whisper {
	w := &Whisper{
		cli:   DefaultCLI,
		model: DefaultModel,
		lang:  language.Hindi,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// SetLanguage changes the language used by later transcriptions.
func (w *Whisper) SetLanguage(tag language.Tag) {
	w.mu.Lock()
	w.lang = tag
	w.mu.Unlock()
}

func (w *Whisper) Language() language.Tag {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.lang
}

type output struct {
	Result struct {
		Language string `json:"language"`
	} `json:"result"`
	Transcription []json.RawMessage `json:"transcription"`
}

func (w *Whisper) Transcribe(ctx context.Context, audioPath string) ([]caption.Record, error) {
	cmdPath, err := exec.LookPath(w.cli)
	if err != nil {
		return nil, err
	}

	base := strings.TrimSuffix(audioPath, filepath.Ext(audioPath))
	jsonPath := base + ".json"
	lang := w.Language()
	cmd := exec.CommandContext(ctx, cmdPath, w.args(audioPath, base, lang)...)

	log.Info("Transcribing %s (language %s)", audioPath, langCode(lang))
	if out, err := cmd.CombinedOutput(); err != nil {
		return nil, fmt.Errorf("whisper-cli: %w: %s", err, lastLine(out))
	}

	raw, err := os.ReadFile(jsonPath)
	if err != nil {
		return nil, fmt.Errorf("read whisper output: %w", err)
	}
	defer os.Remove(jsonPath)

	var parsed output
	if err := json.Unmarshal(raw, &parsed); err != nil {
		return nil, fmt.Errorf("parse whisper output: %w", err)
	}
	records := decodeRecords(parsed.Transcription)
	log.Info("Whisper produced %d segments, %d usable (language %q)",
		len(parsed.Transcription), len(records), parsed.Result.Language)

	w.archive(ctx, raw)
	return records, nil
}

// decodeRecords decodes each segment on its own so a malformed segment is
// skipped instead of failing the transcript.
func decodeRecords(segments []json.RawMessage) []caption.Record {
	records := make([]caption.Record, 0, len(segments))
	for i, seg := range segments {
		var rec caption.Record
		if err := json.Unmarshal(seg, &rec); err != nil {
			log.Warn("Skipping malformed whisper segment %d: %v", i, err)
			continue
		}
		records = append(records, rec)
	}
	return records
}

// archive uploads the raw output. Failures only cost the archive copy.
func (w *Whisper) archive(ctx context.Context, raw []byte) {
	if w.archiver == nil {
		return
	}
	key := w.archiver.TranscriptKey()
	if err := w.archiver.PutJSON(ctx, key, json.RawMessage(raw)); err != nil {
		log.Warn("Failed to archive transcript to %s: %v", key, err)
		return
	}
	log.Debug("Archived transcript to %s", key)
}

func (w *Whisper) args(audioPath, outputBase string, lang language.Tag) []string {
	return []string{
		"-m", w.model,
		"-f", audioPath,
		"-of", outputBase,
		"-l", langCode(lang),
		"-sow",
		"-ml", maxSegmentLen,
		"-oj",
		"-ng",
		"-nfa",
	}
}

func langCode(tag language.Tag) string {
	if tag == language.Und {
		return "auto"
	}
	base, _ := tag.Base()
	return base.String()
}

func lastLine(out []byte) string {
	lines := strings.Split(string(bytes.TrimSpace(out)), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
