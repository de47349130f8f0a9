package api

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"palette-makeup-server/modules/handle"
	"palette-makeup-server/modules/session"
)

// 업로드 최대 크기 (multipart 메모리 버퍼)
const maxUploadMemory = 32 << 20

type Handler struct {
	sessions *session.Manager
	handles  *handle.Registry
}

func NewHandler(sessions *session.Manager, handles *handle.Registry) *Handler {
	return &Handler{sessions: sessions, handles: handles}
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Printf("❌ Failed to encode response: %v", err)
	}
}

func (h *Handler) lookupSession(w http.ResponseWriter, r *http.Request) (*session.Session, bool) {
	sessionId := mux.Vars(r)["sessionId"]
	s, ok := h.sessions.Get(sessionId)
	if !ok {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "Session not found"})
		return nil, false
	}
	s.Touch()
	return s, true
}

// HealthCheck - GET /, GET /health
func (h *Handler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"service": "palette-makeup-server",
	})
}

// HandleCreateSession - POST /api/sessions
func (h *Handler) HandleCreateSession(w http.ResponseWriter, r *http.Request) {
	s := h.sessions.Create()
	writeJSON(w, http.StatusCreated, CreateSessionResponse{
		SessionId: s.ID(),
		State:     s.Controller().Snapshot(),
	})
}

// HandleGetSession - GET /api/sessions/{sessionId}
func (h *Handler) HandleGetSession(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, s.Controller().Snapshot())
}

// HandleUploadImage - POST /api/sessions/{sessionId}/image (multipart field "image")
// 파일이 없거나 비어 있으면 세션을 빈 상태로 되돌린다
func (h *Handler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	if err := r.ParseMultipartForm(maxUploadMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		log.Printf("❌ [API] Invalid multipart form: %v", err)
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid multipart form"})
		return
	}

	var data []byte
	var mimeType string

	file, header, err := r.FormFile("image")
	switch {
	case err == nil:
		defer file.Close()
		data, err = io.ReadAll(file)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Failed to read image"})
			return
		}
		mimeType = header.Header.Get("Content-Type")
	case errors.Is(err, http.ErrMissingFile), errors.Is(err, http.ErrNotMultipart):
		// 선택 취소
	default:
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: "Invalid image field"})
		return
	}

	log.Printf("📤 [API] Image upload for session %s: %d bytes", s.ID(), len(data))
	snap := s.Controller().Ingest(data, mimeType)
	writeJSON(w, http.StatusAccepted, snap)
}

// HandleGenerate - POST /api/sessions/{sessionId}/generate
func (h *Handler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	s, ok := h.lookupSession(w, r)
	if !ok {
		return
	}

	started, snap := s.Controller().Generate()
	if started {
		h.sessions.RecordGeneration()
	}
	writeJSON(w, http.StatusOK, GenerateResponse{Started: started, State: snap})
}

// HandleMetrics - GET /metrics
func (h *Handler) HandleMetrics(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"server":  h.sessions.Metrics(),
		"handles": h.handles.Count(),
	})
}

// HandleForceCleanup - POST /admin/cleanup (관리자용)
func (h *Handler) HandleForceCleanup(w http.ResponseWriter, r *http.Request) {
	inactive := h.sessions.CleanupInactiveSessions()
	expired := h.sessions.CleanupExpiredSessions()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "Cleanup completed",
		"inactive": inactive,
		"expired":  expired,
	})
}
