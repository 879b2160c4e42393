package server

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/dshills/quorum/internal/progress"
)

// handleEvents streams a run's progress as Server-Sent Events: a replay
// of everything already emitted, then live events until the terminal
// event closes the stream.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	run, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run id")
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	replay, live, detach := run.Attach()
	defer detach()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	for _, ev := range replay {
		if err := writeSSE(w, ev); err != nil {
			return
		}
	}
	flusher.Flush()

	for {
		select {
		case ev, open := <-live:
			if !open {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
		case <-r.Context().Done():
			return
		}
	}
}

// writeSSE renders one event in SSE framing. The bus sequence number
// doubles as the SSE id so clients can spot gaps.
func writeSSE(w io.Writer, ev progress.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(w, "id: %d\nevent: %s\ndata: %s\n\n", ev.Seq, ev.Stage, data)
	return err
}
