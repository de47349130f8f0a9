package session

import (
	"sync"
	"time"

	"palette-makeup-server/modules/pipeline"
)

// 메시지 타입
const (
	MsgTypeState        = "state"
	MsgTypeGenerate     = "generate"
	MsgTypeRequestState = "request_state"
	MsgTypeUserJoined   = "user_joined"
	MsgTypeUserLeft     = "user_left"
	MsgTypeError        = "error"
)

// Message - WebSocket 메시지
type Message struct {
	Type      string             `json:"type"`
	SessionId string             `json:"sessionId,omitempty"`
	UserId    string             `json:"userId,omitempty"`
	State     *pipeline.Snapshot `json:"state,omitempty"`
	Started   *bool              `json:"started,omitempty"`
	Error     string             `json:"error,omitempty"`
}

// ServerMetrics - 서버 메트릭
type ServerMetrics struct {
	TotalSessions    int       `json:"totalSessions"`
	ActiveSessions   int       `json:"activeSessions"`
	TotalConnections int       `json:"totalConnections"`
	TotalGenerations int       `json:"totalGenerations"`
	StartTime        time.Time `json:"startTime"`
	mutex            sync.RWMutex
}

// SessionInfo - 세션 요약 (메트릭 응답용)
type SessionInfo struct {
	SessionId    string    `json:"sessionId"`
	ClientCount  int       `json:"clientCount"`
	CreatedAt    time.Time `json:"createdAt"`
	LastActivity time.Time `json:"lastActivity"`
	Age          string    `json:"age"`
	Inactive     string    `json:"inactive"`
}

// MetricsSnapshot - /metrics 응답
type MetricsSnapshot struct {
	Uptime           string        `json:"uptime"`
	StartTime        time.Time     `json:"startTime"`
	TotalSessions    int           `json:"totalSessions"`
	ActiveSessions   int           `json:"activeSessions"`
	TotalConnections int           `json:"totalConnections"`
	TotalGenerations int           `json:"totalGenerations"`
	CurrentClients   int           `json:"currentClients"`
	Sessions         []SessionInfo `json:"sessions"`
}
