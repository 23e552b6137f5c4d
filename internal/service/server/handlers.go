package server

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/swimhack/ezedit-gateway/internal/domain"
	"github.com/swimhack/ezedit-gateway/internal/service/gateway"
)

// envelope is the base shape of every JSON response.
type envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError maps a classified error onto a status code and a sanitized
// envelope. Raw error text never reaches the client; only lock, conflict,
// and validation details do.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var le *domain.LockedError
	if errors.As(err, &le) {
		writeJSON(w, http.StatusLocked, struct {
			envelope
			LockedBy string    `json:"lockedBy"`
			Expires  time.Time `json:"expires"`
		}{
			envelope: envelope{Success: false, Message: "File is locked by " + le.Holder},
			LockedBy: le.Holder,
			Expires:  le.ExpiresAt,
		})
		return
	}

	var ce *domain.ConflictError
	if errors.As(err, &ce) {
		writeJSON(w, http.StatusConflict, envelope{
			Success: false,
			Message: "File was modified by someone else. Reload it and apply your changes again.",
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: err.Error()})
		return
	case errors.Is(err, domain.ErrNotFound):
		writeJSON(w, http.StatusNotFound, envelope{Success: false, Message: "Connection not found"})
		return
	case errors.Is(err, domain.ErrFileTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, envelope{Success: false, Message: "File exceeds the maximum upload size"})
		return
	case errors.Is(err, domain.ErrEmptyContent):
		writeJSON(w, http.StatusBadGateway, envelope{Success: false, Message: "Remote file content is empty or unreadable"})
		return
	}

	if te, ok := domain.AsTransfer(err); ok {
		status := http.StatusBadGateway
		if te.Kind == domain.KindTimeout {
			status = http.StatusGatewayTimeout
		}
		writeJSON(w, status, envelope{Success: false, Message: te.UserMessage()})
		return
	}

	s.logger.Error("request failed",
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeJSON(w, http.StatusInternalServerError, envelope{Success: false, Message: "Internal server error"})
}

// decodeJSON parses a POST body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) bool {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "Method not allowed"})
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid JSON body"})
		return false
	}
	return true
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "Method not allowed"})
		return
	}
	if err := s.pinger.Ping(); err != nil {
		s.logger.Error("health check failed", zap.Error(err))
		writeJSON(w, http.StatusServiceUnavailable, envelope{Success: false, Message: "Database connection failed"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleTest(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Host     string `json:"host"`
		Port     int    `json:"port"`
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	err := s.gw.TestConnection(r.Context(), gateway.TestRequest{
		Host:     req.Host,
		Port:     req.Port,
		Username: req.Username,
		Password: req.Password,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true, Message: "Connection successful"})
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectionID string `json:"connectionId"`
		Path         string `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	entries, err := s.gw.List(r.Context(), req.ConnectionID, req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.FileEntry{}
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Files []domain.FileEntry `json:"files"`
	}{envelope{Success: true}, entries})
}

func (s *Server) handleRead(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectionID string `json:"connectionId"`
		Path         string `json:"path"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	content, checksum, err := s.gw.Read(r.Context(), req.ConnectionID, req.Path)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Content  string `json:"content"`
		Checksum string `json:"checksum"`
	}{envelope{Success: true}, string(content), checksum})
}

func (s *Server) handleWrite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectionID     string `json:"connectionId"`
		Path             string `json:"path"`
		Content          string `json:"content"`
		OriginalChecksum string `json:"originalChecksum"`
		Actor            string `json:"actor"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	checksum, err := s.gw.Write(r.Context(), gateway.WriteRequest{
		ConnectionID:     req.ConnectionID,
		Path:             req.Path,
		Content:          []byte(req.Content),
		OriginalChecksum: req.OriginalChecksum,
		Actor:            req.Actor,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Checksum string `json:"checksum"`
	}{envelope{Success: true}, checksum})
}

func (s *Server) handleRename(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectionID string `json:"connectionId"`
		OldPath      string `json:"oldPath"`
		NewPath      string `json:"newPath"`
		Actor        string `json:"actor"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.gw.Rename(r.Context(), req.ConnectionID, req.OldPath, req.NewPath, req.Actor); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectionID string `json:"connectionId"`
		Path         string `json:"path"`
		Actor        string `json:"actor"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.gw.Delete(r.Context(), req.ConnectionID, req.Path, req.Actor); err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, envelope{Success: true})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, envelope{Success: false, Message: "Method not allowed"})
		return
	}
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Invalid multipart form"})
		return
	}

	connectionID := r.FormValue("connectionId")
	dir := r.FormValue("path")

	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Missing file part"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, envelope{Success: false, Message: "Failed to read uploaded file"})
		return
	}

	stored, err := s.gw.Upload(r.Context(), connectionID, dir, header.Filename, content)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Path string `json:"path"`
	}{envelope{Success: true}, stored})
}

func (s *Server) handleLock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ConnectionID string `json:"connectionId"`
		Path         string `json:"path"`
		Actor        string `json:"actor"`
		Minutes      int    `json:"minutes"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	lock, err := s.gw.Lock(r.Context(), req.ConnectionID, req.Path, req.Actor, req.Minutes)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, struct {
		envelope
		Expires time.Time `json:"expires"`
	}{envelope{Success: true}, lock.ExpiresAt})
}
