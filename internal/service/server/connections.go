package server

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/domain"
)

// handleConnections serves POST (create) and GET (list) on /api/connections.
func (s *Server) handleConnections(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodPost:
		s.createConnection(w, r)
	case http.MethodGet:
		s.listConnections(w, r)
	default:
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "Method not allowed"})
	}
}

func (s *Server) createConnection(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Label    string `json:"label"`
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
		RootDir  string `json:"rootDir"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Host == "" || req.Username == "" {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "host and username are required"})
		return
	}

	conn := &domain.Connection{
		ID:       uuid.NewString(),
		Label:    req.Label,
		Host:     req.Host,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
		RootDir:  req.RootDir,
	}
	if err := s.conns.CreateConnection(conn); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("connection created",
		zap.String("connection_id", conn.ID),
		zap.String("host", conn.Host))
	writeJSON(w, http.StatusCreated, struct {
		envelope
		ID string `json:"id"`
	}{envelope{Success: true}, conn.ID})
}

func (s *Server) listConnections(w http.ResponseWriter, r *http.Request) {
	conns, err := s.conns.ListConnections()
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	redacted := make([]domain.Connection, 0, len(conns))
	for _, c := range conns {
		redacted = append(redacted, c.Redacted())
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Connections []domain.Connection `json:"connections"`
	}{envelope{Success: true}, redacted})
}

// handleConnectionByID serves DELETE /api/connections/{id}. Deleting a
// connection also drops its locks, file records, and backups.
func (s *Server) handleConnectionByID(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodDelete {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "Method not allowed"})
		return
	}

	id := strings.TrimPrefix(r.URL.Path, "/api/connections/")
	if id == "" || strings.Contains(id, "/") {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Connection id required"})
		return
	}

	conn, err := s.conns.GetConnection(id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if conn == nil {
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "Connection not found"})
		return
	}

	if err := s.conns.DeleteConnection(id); err != nil {
		s.writeError(w, r, err)
		return
	}

	s.logger.Info("connection deleted", zap.String("connection_id", id))
	writeJSON(w, http.StatusOK, envelope{Success: true})
}
