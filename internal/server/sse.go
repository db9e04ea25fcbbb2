package server

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
)

// sseWriter frames events for text/event-stream. Tool events arrive from
// parallel goroutines, so writes are serialized.
type sseWriter struct {
	mu sync.Mutex
	w  http.ResponseWriter
	rc *http.ResponseController
}

func newSSEWriter(w http.ResponseWriter) *sseWriter {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	return &sseWriter{
		w:  w,
		rc: http.NewResponseController(w),
	}
}

func (s *sseWriter) send(event string, data any) {
	b, err := json.Marshal(data)
	if err != nil {
		slog.Warn("sse: encoding event", "event", event, "error", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, b)
	if err := s.rc.Flush(); err != nil {
		slog.Debug("sse: flush", "error", err)
	}
}
