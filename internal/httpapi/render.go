package httpapi

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"net/http"
	"strconv"

	"github.com/MimeLyc/caption-studio/internal/layout"
	"github.com/MimeLyc/caption-studio/internal/style"
)

type presetRequest struct {
	Preset style.Preset `json:"preset"`
}

func (s *Server) handleStyle(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.videos.Style())
	case http.MethodPut:
		body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid body")
			return
		}

		// A body naming only a preset selects it; anything else is a full
		// style configuration.
		var fields map[string]json.RawMessage
		if err := json.Unmarshal(body, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if _, ok := fields["preset"]; ok && len(fields) == 1 {
			var req presetRequest
			if err := json.Unmarshal(body, &req); err != nil {
				writeError(w, http.StatusBadRequest, "invalid json body")
				return
			}
			if err := s.videos.SetStylePreset(req.Preset); err != nil {
				writeVideoError(w, err)
				return
			}
			writeJSON(w, http.StatusOK, s.videos.Style())
			return
		}

		var cfg style.Config
		dec := json.NewDecoder(bytes.NewReader(body))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&cfg); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		if err := s.videos.SetStyle(cfg); err != nil {
			writeVideoError(w, err)
			return
		}
		writeJSON(w, http.StatusOK, s.videos.Style())
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func (s *Server) handleStylePresets(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"presets": s.videos.Registry().All(),
	})
}

type renderResponse struct {
	TimeMs  int64         `json:"time_ms"`
	VideoID string        `json:"video_id"`
	Active  bool          `json:"active"`
	Frame   *layout.Frame `json:"frame,omitempty"`
}

func (s *Server) handleRender(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	q := r.URL.Query()
	tMs, err := queryInt(q.Get("t"), s.position.CurrentTimeMs())
	if err != nil {
		writeError(w, http.StatusBadRequest, "t must be an integer millisecond offset")
		return
	}
	vp := s.sampler.Viewport()
	if vp.Width, err = queryFloat(q.Get("w"), vp.Width); err != nil {
		writeError(w, http.StatusBadRequest, "w must be a number")
		return
	}
	if vp.Height, err = queryFloat(q.Get("h"), vp.Height); err != nil {
		writeError(w, http.StatusBadRequest, "h must be a number")
		return
	}

	current, ok := s.videos.Current()
	if !ok {
		writeError(w, http.StatusNotFound, "no current video")
		return
	}

	resp := renderResponse{TimeMs: tMs, VideoID: current.ID}
	if frame, ok := s.engine.Render(current.Captions, s.videos.Style(), tMs, vp); ok {
		resp.Active = true
		resp.Frame = &frame
	}
	writeJSON(w, http.StatusOK, resp)
}

type playbackRequest struct {
	TimeMs  int64   `json:"time_ms"`
	Playing bool    `json:"playing"`
	Width   float64 `json:"width"`
	Height  float64 `json:"height"`
	Rate    float64 `json:"rate"`
}

func (s *Server) handlePlayback(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, s.sampler.Latest())
	case http.MethodPost:
		var req playbackRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid json body")
			return
		}
		if req.Rate > 0 {
			s.position.SetRate(req.Rate)
		}
		s.position.Report(req.TimeMs, req.Playing)
		s.sampler.SetViewport(layout.Viewport{Width: req.Width, Height: req.Height})
		writeJSON(w, http.StatusOK, s.sampler.SampleAt(s.position.CurrentTimeMs()))
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

func queryInt(raw string, def int64) (int64, error) {
	if raw == "" {
		return def, nil
	}
	return strconv.ParseInt(raw, 10, 64)
}

func queryFloat(raw string, def float64) (float64, error) {
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", raw)
	}
	return v, nil
}
