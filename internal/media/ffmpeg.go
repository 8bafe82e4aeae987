package media

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path"
	"strings"

	"github.com/MimeLyc/caption-studio/pkg/file"
	"github.com/MimeLyc/caption-studio/pkg/log"
)

var ErrNoAudio = errors.New("no audio stream")

// Downloader fetches a stored object.
type Downloader interface {
	Download(ctx context.Context, key string, w io.Writer) error
}

// Stream is one entry of ffprobe's stream listing.
type Stream struct {
	Index     int    `json:"index"`
	CodecType string `json:"codec_type"`
	CodecName string `json:"codec_name"`
	Tags      struct {
		Language string `json:"language"`
	} `json:"tags"`
}

// AudioExtractor downloads a stored video and converts its audio track to
// the mono 16 kHz PCM WAV that whisper-cli expects.
type AudioExtractor struct {
	ffmpegCmd  string
	ffprobeCmd string
	tmpDir     string
	downloader Downloader
}

type Option func(*AudioExtractor)

func WithFFmpeg(cmd string) Option {
	return func(x *AudioExtractor) {
		if cmd != "" {
			x.ffmpegCmd = cmd
		}
	}
}

func WithFFprobe(cmd string) Option {
	return func(x *AudioExtractor) {
		if cmd != "" {
			x.ffprobeCmd = cmd
		}
	}
}

func WithTempDir(dir string) Option {
	return func(x *AudioExtractor) {
		if dir != "" {
			x.tmpDir = dir
		}
	}
}

func NewAudioExtractor(d Downloader, opts ...Option) *AudioExtractor {
	x := &AudioExtractor{
		ffmpegCmd:  "ffmpeg",
		ffprobeCmd: "ffprobe",
		tmpDir:     os.TempDir(),
		downloader: d,
	}
	for _, opt := range opts {
		opt(x)
	}
	return x
}

func (x *AudioExtractor) TempDir() string { return x.tmpDir }

// ExtractAudio returns the path of a WAV file holding the audio of the
// video stored at objectKey. The downloaded video is removed afterwards.
func (x *AudioExtractor) ExtractAudio(ctx context.Context, objectKey string) (string, error) {
	ext := path.Ext(objectKey)
	if ext == "" {
		ext = ".mp4"
	}
	videoPath := file.TempArtifact(x.tmpDir, "video", ext)
	if err := x.download(ctx, objectKey, videoPath); err != nil {
		return "", err
	}
	defer os.Remove(videoPath)

	streams, err := x.ProbeStreams(ctx, videoPath)
	if err != nil {
		return "", err
	}
	if !hasAudio(streams) {
		return "", fmt.Errorf("%s: %w", objectKey, ErrNoAudio)
	}

	audioPath := file.TempArtifact(x.tmpDir, "audio", ".wav")
	if err := x.ExtractLocal(ctx, videoPath, audioPath); err != nil {
		return "", err
	}
	log.Info("Extracted audio of %s to %s", objectKey, audioPath)
	return audioPath, nil
}

func (x *AudioExtractor) download(ctx context.Context, key, dst string) error {
	f, err := os.Create(dst)
	if err != nil {
		return fmt.Errorf("create %s: %w", dst, err)
	}
	if err := x.downloader.Download(ctx, key, f); err != nil {
		f.Close()
		os.Remove(dst)
		return fmt.Errorf("download %s: %w", key, err)
	}
	if err := f.Close(); err != nil {
		os.Remove(dst)
		return fmt.Errorf("close %s: %w", dst, err)
	}
	return nil
}

// ExtractLocal converts the audio of a local media file into output.
func (x *AudioExtractor) ExtractLocal(ctx context.Context, input, output string) error {
	cmdPath, err := exec.LookPath(x.ffmpegCmd)
	if err != nil {
		return err
	}
	cmd := exec.CommandContext(ctx, cmdPath, extractAudioArgs(input, output)...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		os.Remove(output)
		return fmt.Errorf("ffmpeg: %w: %s", err, tail(out, 400))
	}
	return nil
}

// ProbeStreams lists the streams of a media file. A non-zero exit is
// tolerated when ffprobe still printed a stream list.
func (x *AudioExtractor) ProbeStreams(ctx context.Context, mediaPath string) ([]Stream, error) {
	cmdPath, err := exec.LookPath(x.ffprobeCmd)
	if err != nil {
		return nil, err
	}
	output, runErr := exec.CommandContext(ctx, cmdPath, probeArgs(mediaPath)...).Output()

	var probe struct {
		Streams []Stream `json:"streams"`
	}
	if err := json.Unmarshal(output, &probe); err != nil {
		if runErr != nil {
			return nil, fmt.Errorf("ffprobe: %w", runErr)
		}
		return nil, fmt.Errorf("parse ffprobe output: %w", err)
	}
	if runErr != nil {
		if len(probe.Streams) == 0 {
			return nil, fmt.Errorf("ffprobe: %w", runErr)
		}
		log.Warn("ffprobe exited with %v, using partial output", runErr)
	}
	return probe.Streams, nil
}

func hasAudio(streams []Stream) bool {
	for _, s := range streams {
		if s.CodecType == "audio" {
			return true
		}
	}
	return false
}

func probeArgs(path string) []string {
	return []string{
		"-v", "quiet",
		"-print_format", "json",
		"-show_streams",
		path,
	}
}

func extractAudioArgs(input, output string) []string {
	return []string{
		"-y",
		"-i", input,
		"-vn",
		"-acodec", "pcm_s16le",
		"-ar", "16000",
		"-ac", "1",
		output,
	}
}

func tail(out []byte, n int) string {
	out = bytes.TrimSpace(out)
	if len(out) > n {
		out = out[len(out)-n:]
	}
	return strings.TrimSpace(string(out))
}
