package httpapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"
)

func startStream(w http.ResponseWriter) (http.Flusher, bool) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming not supported")
		return nil, false
	}
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()
	return flusher, true
}

func writeEvent(w http.ResponseWriter, flusher http.Flusher, id int64, data any) bool {
	payload, err := json.Marshal(data)
	if err != nil {
		return false
	}
	if id > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", id); err != nil {
			return false
		}
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", payload); err != nil {
		return false
	}
	flusher.Flush()
	return true
}

// handlePlaybackStream pushes every sampled caption frame to the client.
func (s *Server) handlePlaybackStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	samples, cancel := s.sampler.Subscribe()
	defer cancel()

	flusher, ok := startStream(w)
	if !ok {
		return
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case sample, open := <-samples:
			if !open {
				return
			}
			if !writeEvent(w, flusher, sample.Seq, sample) {
				return
			}
		}
	}
}

// handleEventStream replays buffered lifecycle events after Last-Event-ID
// (or the since query parameter) and then polls for new ones.
func (s *Server) handleEventStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}

	cursor := int64(0)
	lastID := r.Header.Get("Last-Event-ID")
	if lastID == "" {
		lastID = r.URL.Query().Get("since")
	}
	if lastID != "" {
		seq, err := strconv.ParseInt(lastID, 10, 64)
		if err != nil || seq < 0 {
			writeError(w, http.StatusBadRequest, "invalid event id")
			return
		}
		cursor = seq
	}

	flusher, ok := startStream(w)
	if !ok {
		return
	}

	send := func() bool {
		for _, event := range s.events.Since(cursor) {
			if !writeEvent(w, flusher, event.Seq, event) {
				return false
			}
			cursor = event.Seq
		}
		return true
	}

	if !send() {
		return
	}

	ticker := time.NewTicker(s.eventPoll)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if !send() {
				return
			}
		}
	}
}
