package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/dshills/quorum/internal/progress"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024 * 16,
	WriteBufferSize: 1024 * 16,
	CheckOrigin: func(r *http.Request) bool {
		return true // the server binds to loopback by default
	},
}

// wsEnvelope wraps each progress event on the socket.
type wsEnvelope struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

// handleWS streams a run's progress over a WebSocket: the same replay
// plus live sequence as the SSE endpoint, one JSON envelope per event,
// then a normal close once the run finishes.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	run, ok := s.store.Get(r.PathValue("id"))
	if !ok {
		writeError(w, http.StatusNotFound, "unknown run id")
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Printf("websocket upgrade: %v", err)
		return
	}
	defer conn.Close()

	replay, live, detach := run.Attach()
	defer detach()

	// Clients send nothing; reads only surface disconnects.
	disconnect := make(chan struct{})
	go func() {
		defer close(disconnect)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for _, ev := range replay {
		if err := writeWSEvent(conn, ev); err != nil {
			return
		}
	}

	for {
		select {
		case ev, open := <-live:
			if !open {
				deadline := time.Now().Add(time.Second)
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, "run complete"), deadline)
				return
			}
			if err := writeWSEvent(conn, ev); err != nil {
				return
			}
		case <-disconnect:
			return
		}
	}
}

func writeWSEvent(conn *websocket.Conn, ev progress.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return conn.WriteJSON(wsEnvelope{Type: "progress", Data: data})
}
