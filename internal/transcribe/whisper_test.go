package transcribe

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/text/language"

	"github.com/MimeLyc/caption-studio/internal/caption"
)

const whisperJSON = `{
  "result": {"language": "hi"},
  "transcription": [
    {"timestamps": {"from": "00:00:00,000", "to": "00:00:01,200"}, "offsets": {"from": 0, "to": 1200}, "text": " namaste"},
    {"timestamps": {"from": "00:00:01,200", "to": "00:00:02,000"}, "offsets": {"from": 1200, "to": 2000}, "text": " duniya"}
  ]
}`

// installWhisper writes a whisper-cli mock that records its arguments and,
// unless exitCode is non-zero, writes body to the "-of" base plus ".json".
func installWhisper(t *testing.T, body string, exitCode string) string {
	t.Helper()
	dir := t.TempDir()
	script := "#!/bin/sh\n" +
		"echo \"$@\" > " + filepath.Join(dir, "args") + "\n" +
		"if [ \"" + exitCode + "\" != \"0\" ]; then echo 'error: failed to load model' >&2; exit " + exitCode + "; fi\n" +
		"while [ $# -gt 0 ]; do\n" +
		"  if [ \"$1\" = \"-of\" ]; then out=\"$2\"; fi\n" +
		"  shift\n" +
		"done\n" +
		"cat > \"$out.json\" <<'JSON'\n" + body + "\nJSON\n"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "whisper-cli"), []byte(script), 0o755))
	t.Setenv("PATH", dir+string(os.PathListSeparator)+os.Getenv("PATH"))
	return dir
}

type fakeArchiver struct {
	key  string
	got  map[string]json.RawMessage
	fail bool
}

func (a *fakeArchiver) TranscriptKey() string { return a.key }

func (a *fakeArchiver) PutJSON(_ context.Context, key string, v any) error {
	if a.fail {
		return errors.New("access denied")
	}
	if a.got == nil {
		a.got = make(map[string]json.RawMessage)
	}
	a.got[key] = v.(json.RawMessage)
	return nil
}

func TestWhisper_Transcribe(t *testing.T) {
	mockDir := installWhisper(t, whisperJSON, "0")
	audio := filepath.Join(t.TempDir(), "caption-studio-audio-1.wav")
	archiver := &fakeArchiver{key: "transcripts/t.json"}
	w := NewWhisper(WithModel("/models/base.bin"), WithArchiver(archiver))

	records, err := w.Transcribe(context.Background(), audio)
	require.NoError(t, err)

	require.Len(t, records, 2)
	assert.Equal(t, caption.Record{
		Timestamps: caption.Timestamps{From: "00:00:00,000", To: "00:00:01,200"},
		Offsets:    &caption.Offsets{From: 0, To: 1200},
		Text:       " namaste",
	}, records[0])

	args, err := os.ReadFile(filepath.Join(mockDir, "args"))
	require.NoError(t, err)
	base := strings.TrimSuffix(audio, ".wav")
	assert.Equal(t,
		"-m /models/base.bin -f "+audio+" -of "+base+" -l hi -sow -ml 100 -oj -ng -nfa",
		strings.TrimSpace(string(args)))

	_, err = os.Stat(base + ".json")
	assert.True(t, os.IsNotExist(err), "whisper output is cleaned up")
	assert.Contains(t, string(archiver.got["transcripts/t.json"]), "namaste")
}

func TestWhisper_ArchiveFailureIsNotFatal(t *testing.T) {
	installWhisper(t, whisperJSON, "0")
	w := NewWhisper(WithArchiver(&fakeArchiver{key: "k", fail: true}))

	records, err := w.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"))

	require.NoError(t, err)
	assert.Len(t, records, 2)
}

func TestWhisper_Failures(t *testing.T) {
	t.Run("non-zero exit", func(t *testing.T) {
		installWhisper(t, whisperJSON, "3")
		_, err := NewWhisper().Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "failed to load model")
	})

	t.Run("malformed output", func(t *testing.T) {
		installWhisper(t, `{"transcription": [`, "0")
		_, err := NewWhisper().Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "parse whisper output")
	})

	t.Run("missing binary", func(t *testing.T) {
		_, err := NewWhisper(WithCLI("no-such-whisper")).Transcribe(context.Background(), "a.wav")
		assert.Error(t, err)
	})
}

func TestLangCode(t *testing.T) {
	assert.Equal(t, "hi", langCode(language.Hindi))
	assert.Equal(t, "en", langCode(language.MustParse("en-US")))
	assert.Equal(t, "auto", langCode(language.Und))
}

func TestWhisper_SetLanguage(t *testing.T) {
	mockDir := installWhisper(t, whisperJSON, "0")
	w := NewWhisper()
	w.SetLanguage(language.Und)

	_, err := w.Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"))
	require.NoError(t, err)

	args, err := os.ReadFile(filepath.Join(mockDir, "args"))
	require.NoError(t, err)
	assert.Contains(t, string(args), "-l auto ")
	assert.Equal(t, language.Und, w.Language())
}

func TestWhisper_SkipsMalformedSegments(t *testing.T) {
	body := `{
  "result": {"language": "hi"},
  "transcription": [
    {"timestamps": {"from": "00:00:00,000", "to": "00:00:01,000"}, "offsets": {"from": 0, "to": 1000}, "text": " one"},
    {"timestamps": {"from": "00:00:01,000", "to": "00:00:02,000"}, "offsets": {"from": "x", "to": 2000}, "text": " two"},
    {"timestamps": {"from": "00:00:02,000", "to": "00:00:03,000"}, "offsets": {"from": 2000, "to": 3000}, "text": " three"}
  ]
}`
	installWhisper(t, body, "0")

	records, err := NewWhisper().Transcribe(context.Background(), filepath.Join(t.TempDir(), "a.wav"))

	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, " one", records[0].Text)
	assert.Equal(t, " three", records[1].Text)
}
