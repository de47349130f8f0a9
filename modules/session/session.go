package session

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"palette-makeup-server/modules/pipeline"
)

// Session - 파이프라인 컨트롤러 하나와 그 상태를 구독하는 클라이언트들
type Session struct {
	id           string
	ctrl         *pipeline.Controller
	clients      map[string]*Client
	mutex        sync.RWMutex
	createdAt    time.Time
	lastActivity time.Time
	now          func() time.Time
}

func (s *Session) ID() string { return s.id }

// Controller - 세션의 파이프라인 컨트롤러
func (s *Session) Controller() *pipeline.Controller { return s.ctrl }

// Touch - 활동 시간 갱신 (컨트롤러가 들고 있는 핸들도 함께 갱신)
func (s *Session) Touch() {
	s.mutex.Lock()
	s.lastActivity = s.now()
	s.mutex.Unlock()

	s.ctrl.KeepAlive()
}

func (s *Session) ClientCount() int {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	return len(s.clients)
}

func (s *Session) info() SessionInfo {
	s.mutex.RLock()
	defer s.mutex.RUnlock()
	now := s.now()
	return SessionInfo{
		SessionId:    s.id,
		ClientCount:  len(s.clients),
		CreatedAt:    s.createdAt,
		LastActivity: s.lastActivity,
		Age:          now.Sub(s.createdAt).Round(time.Second).String(),
		Inactive:     now.Sub(s.lastActivity).Round(time.Second).String(),
	}
}

// 클라이언트를 세션에 추가
func (s *Session) addClient(client *Client) {
	s.mutex.Lock()
	if old, exists := s.clients[client.userId]; exists {
		close(old.send)
	}
	s.clients[client.userId] = client
	s.lastActivity = s.now()
	clientCount := len(s.clients)
	s.mutex.Unlock()

	log.Printf("👤 Client %s joined session %s (Clients: %d)", client.userId, s.id, clientCount)

	s.broadcastToOthers(client.userId, Message{
		Type:      MsgTypeUserJoined,
		UserId:    client.userId,
		SessionId: s.id,
	})
}

// 클라이언트를 세션에서 제거 (같은 userId 로 재접속한 클라이언트는 건드리지 않음)
func (s *Session) removeClient(client *Client) {
	s.mutex.Lock()
	current, exists := s.clients[client.userId]
	if !exists || current != client {
		s.mutex.Unlock()
		return
	}
	close(client.send)
	delete(s.clients, client.userId)
	s.lastActivity = s.now()
	remaining := len(s.clients)
	s.mutex.Unlock()

	log.Printf("👋 Client %s left session %s (Remaining: %d)", client.userId, s.id, remaining)

	s.broadcastToOthers(client.userId, Message{
		Type:      MsgTypeUserLeft,
		UserId:    client.userId,
		SessionId: s.id,
	})
}

// closeClients - 세션 종료 시 모든 연결 정리
func (s *Session) closeClients() {
	s.mutex.Lock()
	defer s.mutex.Unlock()
	for userId, client := range s.clients {
		close(client.send)
		delete(s.clients, userId)
		log.Printf("🔌 Disconnecting client %s from session %s", userId, s.id)
	}
}

// broadcastState - 컨트롤러 상태 변경을 모든 클라이언트에 전송
func (s *Session) broadcastState(snap pipeline.Snapshot) {
	s.broadcastToAll(Message{Type: MsgTypeState, SessionId: s.id, State: &snap})
}

// 다른 클라이언트들에게 메시지 브로드캐스트
func (s *Session) broadcastToOthers(senderUserId string, message Message) {
	s.broadcast(message, func(userId string) bool { return userId != senderUserId })
}

// 모든 클라이언트에게 메시지 브로드캐스트 (자신 포함)
func (s *Session) broadcastToAll(message Message) {
	s.broadcast(message, func(string) bool { return true })
}

func (s *Session) broadcast(message Message, include func(userId string) bool) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	for userId, client := range s.clients {
		if !include(userId) {
			continue
		}
		select {
		case client.send <- messageBytes:
		default:
			// 버퍼가 가득 찬 느린 클라이언트는 끊는다
			log.Printf("⚠️ Client %s send buffer full, disconnecting", userId)
			close(client.send)
			delete(s.clients, userId)
		}
	}
}

// sendTo - 특정 클라이언트에게만 전송 (이미 제거된 클라이언트면 무시)
func (s *Session) sendTo(client *Client, message Message) {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		log.Printf("Error marshaling message: %v", err)
		return
	}

	s.mutex.RLock()
	defer s.mutex.RUnlock()

	if s.clients[client.userId] != client {
		return
	}
	select {
	case client.send <- messageBytes:
	default:
		log.Printf("⚠️ Dropping message %s for %s: buffer full", message.Type, client.userId)
	}
}
