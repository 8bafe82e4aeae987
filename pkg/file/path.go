package file

import (
	"path/filepath"
	"strings"

	"github.com/google/uuid"
)

// ArtifactPrefix marks temporary files created by this process so that
// stale ones can be found again by RemoveOlderThan.
const ArtifactPrefix = "caption-studio-"

func ReplaceExt(path, ext string) string {
	if path == "" {
		return path
	}

	dir := filepath.Dir(path)
	filename := filepath.Base(path)

	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	lastDot := strings.LastIndex(filename, ".")
	if lastDot <= 0 {
		return filepath.Join(dir, filename+ext)
	}
	return filepath.Join(dir, filename[:lastDot]+ext)
}

// TempArtifact returns a unique path inside dir such as
// "<dir>/caption-studio-audio-<uuid>.wav". Nothing is created on disk.
func TempArtifact(dir, kind, ext string) string {
	if ext != "" && !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return filepath.Join(dir, ArtifactPrefix+kind+"-"+uuid.NewString()+ext)
}
