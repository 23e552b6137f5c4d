package server

import (
	"net/http"
	"strings"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Token auth already ran in the middleware chain; origins are open the
	// same way the CORS policy is.
	CheckOrigin: func(r *http.Request) bool { return true },
}

// handleLogStream upgrades GET /api/logs/{connectionId} to a websocket and
// streams the connection's mutation events until the client goes away.
func (s *Server) handleLogStream(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "Method not allowed"})
		return
	}

	connectionID := strings.TrimPrefix(r.URL.Path, "/api/logs/")
	if connectionID == "" || strings.Contains(connectionID, "/") {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Connection id required"})
		return
	}

	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", zap.Error(err))
		return
	}
	defer ws.Close()

	events, cancel := s.events.Subscribe(connectionID)
	defer cancel()

	s.logger.Debug("log stream opened", zap.String("connection_id", connectionID))

	// Drain client frames so close messages and pings are processed; the
	// read error doubles as the disconnect signal.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			if _, _, err := ws.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-done:
			return
		case <-r.Context().Done():
			return
		case ev, ok := <-events:
			if !ok {
				return
			}
			if err := ws.WriteJSON(ev); err != nil {
				s.logger.Debug("log stream write failed",
					zap.String("connection_id", connectionID),
					zap.Error(err))
				return
			}
		}
	}
}
