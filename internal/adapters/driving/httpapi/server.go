package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"github.com/custodia-labs/deskfind/internal/core/domain"
	"github.com/custodia-labs/deskfind/internal/core/ports/driving"
	"github.com/custodia-labs/deskfind/internal/logger"
)

// maxChatBodyBytes bounds the chat request body.
const maxChatBodyBytes = 1 << 16

// Server routes HTTP requests to the core services.
type Server struct {
	search driving.FileSearchService
	files  driving.FileAccessService
	auth   Authenticator
}

// NewServer creates the API server.
func NewServer(search driving.FileSearchService, files driving.FileAccessService, auth Authenticator) *Server {
	return &Server{search: search, files: files, auth: auth}
}

// Handler returns the routed HTTP handler.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/ai/file/chat", s.handleChat)
	mux.HandleFunc("GET /api/ai/file/view/{uuid}", s.handleView)
	mux.HandleFunc("GET /api/ai/file/download/{uuid}", s.handleDownload)
	return mux
}

func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	principal, err := s.auth.Principal(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req domain.ChatRequest
	body := http.MaxBytesReader(w, r.Body, maxChatBodyBytes)
	if err := json.NewDecoder(body).Decode(&req); err != nil {
		s.writeError(w, fmt.Errorf("%w: malformed request body", domain.ErrInvalidInput))
		return
	}

	answer, err := s.search.Chat(r.Context(), principal, req)
	if err != nil {
		s.writeError(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, answer)
}

func (s *Server) handleView(w http.ResponseWriter, r *http.Request) {
	s.streamFile(w, r, false)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	s.streamFile(w, r, true)
}

// streamFile authorizes and streams file content. Download responses carry an
// attachment disposition; view responses render inline.
func (s *Server) streamFile(w http.ResponseWriter, r *http.Request, attachment bool) {
	principal, err := s.auth.Principal(r)
	if err != nil {
		s.writeError(w, err)
		return
	}

	uuid := r.PathValue("uuid")
	blob, err := s.files.Open(r.Context(), uuid, principal)
	if err != nil {
		s.writeError(w, err)
		return
	}
	defer blob.Content.Close()

	w.Header().Set("Content-Type", blob.ContentType)
	if blob.Size >= 0 {
		w.Header().Set("Content-Length", strconv.FormatInt(blob.Size, 10))
	}
	disposition := "inline"
	if attachment {
		disposition = "attachment"
	}
	// FormatMediaType emits an RFC 2231 filename* parameter for Korean names.
	w.Header().Set("Content-Disposition",
		mime.FormatMediaType(disposition, map[string]string{"filename": blob.FileName}))

	if _, err := io.Copy(w, blob.Content); err != nil {
		// Headers are gone; the client sees a truncated body.
		logger.Warn("Streaming file %s aborted: %v", uuid, err)
	}
}

// errorResponse is the JSON error body.
type errorResponse struct {
	Error string `json:"error"`
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	message := "internal error"

	switch {
	case errors.Is(err, domain.ErrUnauthenticated):
		status = http.StatusUnauthorized
		message = "authentication required"
	case errors.Is(err, domain.ErrAccessDenied):
		status = http.StatusForbidden
		message = "access denied"
	case errors.Is(err, domain.ErrNotFound):
		status = http.StatusNotFound
		message = "not found"
	case errors.Is(err, domain.ErrInvalidInput):
		status = http.StatusBadRequest
		message = err.Error()
	default:
		logger.Warn("Request failed: %v", err)
	}

	s.writeJSON(w, status, errorResponse{Error: message})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Encoding response failed: %v", err)
	}
}
