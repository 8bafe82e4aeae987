package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/MimeLyc/caption-studio/internal/caption"
	"github.com/MimeLyc/caption-studio/internal/config"
	"github.com/MimeLyc/caption-studio/internal/video"
	"github.com/MimeLyc/caption-studio/pkg/log"
)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}

type videosResponse struct {
	Videos    []video.Video `json:"videos"`
	CurrentID string        `json:"current_id"`
	Loaders   video.Loaders `json:"loaders"`
}

func (s *Server) handleVideos(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, videosResponse{
			Videos:    s.videos.Videos(),
			CurrentID: s.videos.CurrentID(),
			Loaders:   s.videos.Loaders(),
		})
	case http.MethodPost:
		s.handleUpload(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > s.maxUploadBytes {
		writeError(w, http.StatusRequestEntityTooLarge, "video is too large")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeError(w, http.StatusRequestEntityTooLarge, "video is too large")
			return
		}
		writeError(w, http.StatusBadRequest, "invalid multipart body")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "file is required")
		return
	}
	defer file.Close()

	mimeType := header.Header.Get("Content-Type")
	if mimeType == "" {
		mimeType = "video/mp4"
	}
	v, err := s.videos.RegisterVideo(r.Context(), video.Upload{
		Name:     header.Filename,
		Size:     header.Size,
		MimeType: mimeType,
		Body:     file,
	})
	if err != nil {
		writeVideoError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, v)
}

type selectCurrentRequest struct {
	ID string `json:"id"`
}

func (s *Server) handleSelectCurrent(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	var req selectCurrentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid json body")
		return
	}
	s.videos.SelectCurrent(req.ID)
	writeJSON(w, http.StatusOK, map[string]any{"current_id": s.videos.CurrentID()})
}

// handleVideoResource serves /api/videos/{id}/signed-url and
// /api/videos/{id}/captions[.srt]. Ids are storage keys and may contain
// slashes.
func (s *Server) handleVideoResource(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	rest := strings.TrimPrefix(r.URL.Path, "/api/videos/")
	if id, ok := strings.CutSuffix(rest, "/signed-url"); ok {
		s.handleSignedURL(w, r, unescapeID(id))
		return
	}
	if id, ok := strings.CutSuffix(rest, "/captions.srt"); ok {
		s.handleCaptions(w, unescapeID(id), true)
		return
	}
	if id, ok := strings.CutSuffix(rest, "/captions"); ok {
		s.handleCaptions(w, unescapeID(id), false)
		return
	}
	writeError(w, http.StatusNotFound, "not found")
}

func unescapeID(id string) string {
	id = strings.Trim(id, "/")
	if decoded, err := url.PathUnescape(id); err == nil {
		return decoded
	}
	return id
}

func (s *Server) handleSignedURL(w http.ResponseWriter, r *http.Request, id string) {
	signed, err := s.videos.ResolvePlaybackURL(r.Context(), id)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"id": id, "url": signed})
}

func (s *Server) handleCaptions(w http.ResponseWriter, id string, srt bool) {
	if _, ok := s.videos.Video(id); !ok {
		writeError(w, http.StatusNotFound, "unknown video")
		return
	}
	track, err := s.videos.Captions(id)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	if !srt {
		writeJSON(w, http.StatusOK, track)
		return
	}
	w.Header().Set("Content-Type", "application/x-subrip; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	if err := caption.WriteSRT(w, track); err != nil {
		log.Error("Failed to write srt for %s: %v", id, err)
	}
}

func (s *Server) handleGenerate(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	// Generation finishes for the video it started on even if the client
	// goes away.
	ctx := context.WithoutCancel(r.Context())
	started, err := s.videos.GenerateCaptions(ctx)
	if err != nil {
		writeVideoError(w, err)
		return
	}
	if !started {
		writeJSON(w, http.StatusConflict, map[string]any{
			"started": false,
			"loaders": s.videos.Loaders(),
		})
		return
	}
	current, _ := s.videos.Current()
	writeJSON(w, http.StatusAccepted, map[string]any{
		"started": true,
		"video":   current,
	})
}

func (s *Server) handleSync(w http.ResponseWriter, r *http.Request) {
	if s.syncer == nil {
		writeError(w, http.StatusNotImplemented, "catalog sync is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		status, err := s.syncer.Status(time.Now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, status)
	case http.MethodPost:
		res, err := s.syncer.Sync(r.Context())
		if err != nil {
			writeJSON(w, http.StatusBadGateway, map[string]any{
				"error":  err.Error(),
				"result": res,
			})
			return
		}
		writeJSON(w, http.StatusOK, res)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleSettings(w http.ResponseWriter, r *http.Request) {
	if s.settings == nil {
		writeError(w, http.StatusNotImplemented, "settings store is not configured")
		return
	}

	switch r.Method {
	case http.MethodGet:
		settings, err := s.settings.GetRuntimeSettings()
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		writeJSON(w, http.StatusOK, settings)
	case http.MethodPut:
		var req config.RuntimeSettings
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if err := req.Validate(); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		saved, err := s.settings.UpdateRuntimeSettings(req)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		if s.apply != nil {
			if err := s.apply(saved); err != nil {
				writeError(w, http.StatusInternalServerError, err.Error())
				return
			}
		}
		writeJSON(w, http.StatusOK, saved)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		log.Error("Failed to encode response: %v", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]any{
		"error": msg,
	})
}

// writeVideoError maps the lifecycle error taxonomy onto status codes.
func writeVideoError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	switch {
	case video.IsErrorType(err, video.ErrValidation):
		status = http.StatusBadRequest
	case video.IsErrorType(err, video.ErrPrecondition):
		status = http.StatusConflict
	case video.IsErrorType(err, video.ErrCollaborator):
		status = http.StatusBadGateway
	}
	writeJSON(w, status, map[string]any{
		"error":  err.Error(),
		"advice": video.Advice(err),
	})
}
