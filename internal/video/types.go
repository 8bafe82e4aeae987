package video

import (
	"io"
	"time"

	"github.com/MimeLyc/caption-studio/internal/caption"
)

type Status string

const (
	StatusIdle        Status = "idle"
	StatusUploading   Status = "uploading"
	StatusUploaded    Status = "uploaded"
	StatusProcessing  Status = "processing"
	StatusTranscribed Status = "transcribed"
	StatusError       Status = "error"
)

type FileMetadata struct {
	Name     string `json:"name"`
	Size     int64  `json:"size"`
	MimeType string `json:"mime_type"`
}

// Video is one uploaded clip and everything derived from it. The ID is the
// storage object key.
type Video struct {
	ID         string           `json:"id"`
	Name       string           `json:"name"`
	File       FileMetadata     `json:"file"`
	RemoteURL  string           `json:"remote_url,omitempty"`
	AudioPath  string           `json:"audio_path,omitempty"`
	Transcript []caption.Record `json:"transcript,omitempty"`
	Captions   caption.Track    `json:"captions"`
	Status     Status           `json:"status"`
	// ResumeFrom is the last state the caption sequence completed. A retry
	// after an error continues from here.
	ResumeFrom Status    `json:"resume_from,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// Upload is a local file handed to RegisterVideo.
type Upload struct {
	Name     string
	Size     int64
	MimeType string
	Body     io.Reader
}

// Loaders reports which long-running operations are in flight.
type Loaders struct {
	Uploading  bool `json:"uploading"`
	Captioning bool `json:"captioning"`
}

func cloneVideo(v *Video) Video {
	out := *v
	return out
}
