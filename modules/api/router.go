package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"palette-makeup-server/modules/handle"
	"palette-makeup-server/modules/session"
)

// CORS 헤더 추가
func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// NewRouter - 전체 라우트 구성
func NewRouter(sessions *session.Manager, handles *handle.Registry) *mux.Router {
	h := NewHandler(sessions, handles)
	blobs := handle.NewHandler(handles)

	r := mux.NewRouter()
	r.Use(enableCORS)

	r.HandleFunc("/", h.HealthCheck).Methods("GET")
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")
	r.HandleFunc("/ws", sessions.HandleWebSocket)
	r.HandleFunc("/metrics", h.HandleMetrics).Methods("GET")
	r.HandleFunc("/admin/cleanup", h.HandleForceCleanup).Methods("POST", "OPTIONS")
	r.HandleFunc("/blobs/{handleId}", blobs.HandleGet).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/sessions", h.HandleCreateSession).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}", h.HandleGetSession).Methods("GET")
	api.HandleFunc("/sessions/{sessionId}/image", h.HandleUploadImage).Methods("POST", "OPTIONS")
	api.HandleFunc("/sessions/{sessionId}/generate", h.HandleGenerate).Methods("POST", "OPTIONS")

	return r
}
