package session

import (
	"log"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"

	"palette-makeup-server/modules/pipeline"
)

// 세션 최대 수명
const maxSessionAge = 24 * time.Hour

// ControllerFactory - 세션 ID 와 상태 변경 콜백으로 컨트롤러 생성
type ControllerFactory func(sessionId string, onChange func(pipeline.Snapshot)) *pipeline.Controller

// Manager - 세션 매니저
type Manager struct {
	sessions map[string]*Session
	mutex    sync.RWMutex
	metrics  *ServerMetrics
	factory  ControllerFactory
	idleTTL  time.Duration
	now      func() time.Time
	cron     *cron.Cron
}

func NewManager(factory ControllerFactory, idleTTL time.Duration) *Manager {
	return &Manager{
		sessions: make(map[string]*Session),
		metrics:  &ServerMetrics{StartTime: time.Now()},
		factory:  factory,
		idleTTL:  idleTTL,
		now:      time.Now,
	}
}

// Create - 새 세션 생성
func (sm *Manager) Create() *Session {
	return sm.GetOrCreate(uuid.New().String())
}

// Get - 세션 조회
func (sm *Manager) Get(sessionId string) (*Session, bool) {
	sm.mutex.RLock()
	defer sm.mutex.RUnlock()
	s, ok := sm.sessions[sessionId]
	return s, ok
}

// GetOrCreate - 세션 가져오기 또는 생성
func (sm *Manager) GetOrCreate(sessionId string) *Session {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	session, exists := sm.sessions[sessionId]
	if !exists {
		now := sm.now()
		session = &Session{
			id:           sessionId,
			clients:      make(map[string]*Client),
			createdAt:    now,
			lastActivity: now,
			now:          sm.now,
		}
		session.ctrl = sm.factory(sessionId, session.broadcastState)
		sm.sessions[sessionId] = session

		sm.metrics.mutex.Lock()
		sm.metrics.TotalSessions++
		sm.metrics.ActiveSessions++
		total, active := sm.metrics.TotalSessions, sm.metrics.ActiveSessions
		sm.metrics.mutex.Unlock()

		log.Printf("✅ Created new session: %s (Total: %d, Active: %d)", sessionId, total, active)
		return session
	}

	session.Touch()
	return session
}

// RecordConnection - 웹소켓 연결 수 집계
func (sm *Manager) RecordConnection() {
	sm.metrics.mutex.Lock()
	sm.metrics.TotalConnections++
	sm.metrics.mutex.Unlock()
}

// RecordGeneration - 시작된 생성 수 집계
func (sm *Manager) RecordGeneration() {
	sm.metrics.mutex.Lock()
	sm.metrics.TotalGenerations++
	sm.metrics.mutex.Unlock()
}

// removeLocked - 세션 제거 및 컨트롤러 종료 (sm.mutex 보유 상태)
func (sm *Manager) removeLocked(sessionId string, session *Session) {
	session.closeClients()
	session.ctrl.Close()
	delete(sm.sessions, sessionId)

	sm.metrics.mutex.Lock()
	sm.metrics.ActiveSessions--
	sm.metrics.mutex.Unlock()
}

// CleanupInactiveSessions - 클라이언트 없이 idleTTL 이상 방치된 세션 정리
func (sm *Manager) CleanupInactiveSessions() int {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	now := sm.now()
	cleaned := 0
	for sessionId, session := range sm.sessions {
		session.mutex.RLock()
		isInactive := len(session.clients) == 0 && now.Sub(session.lastActivity) > sm.idleTTL
		session.mutex.RUnlock()

		if isInactive {
			sm.removeLocked(sessionId, session)
			cleaned++
			log.Printf("🧹 Cleaned up inactive session: %s", sessionId)
		}
	}

	if cleaned > 0 {
		log.Printf("🗑️  Cleaned up %d inactive sessions (Active: %d)", cleaned, len(sm.sessions))
	}
	return cleaned
}

// CleanupExpiredSessions - 생성 후 24시간이 지난 세션 정리 (연결 중이어도)
func (sm *Manager) CleanupExpiredSessions() int {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	now := sm.now()
	cleaned := 0
	for sessionId, session := range sm.sessions {
		if now.Sub(session.createdAt) > maxSessionAge {
			sm.removeLocked(sessionId, session)
			cleaned++
			log.Printf("⏰ Cleaned up expired session: %s (Age: %v)", sessionId, now.Sub(session.createdAt))
		}
	}

	if cleaned > 0 {
		log.Printf("🧼 Cleaned up %d expired sessions (Active: %d)", cleaned, len(sm.sessions))
	}
	return cleaned
}

// CloseAll - 서버 종료 시 모든 세션 정리
func (sm *Manager) CloseAll() {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()
	for sessionId, session := range sm.sessions {
		sm.removeLocked(sessionId, session)
	}
}

// StartCleanupRoutine - 5분마다 비활성 세션, 30분마다 만료 세션 정리
func (sm *Manager) StartCleanupRoutine() error {
	c := cron.New()
	if _, err := c.AddFunc("@every 5m", func() { sm.CleanupInactiveSessions() }); err != nil {
		return err
	}
	if _, err := c.AddFunc("@every 30m", func() { sm.CleanupExpiredSessions() }); err != nil {
		return err
	}
	c.Start()
	sm.cron = c

	log.Printf("🔄 Started session cleanup routines (Inactive: 5min, Expired: 30min)")
	return nil
}

// StopCleanupRoutine - 정리 루틴 정지
func (sm *Manager) StopCleanupRoutine() {
	if sm.cron != nil {
		<-sm.cron.Stop().Done()
		sm.cron = nil
	}
}

// Metrics - 메트릭 스냅샷
func (sm *Manager) Metrics() MetricsSnapshot {
	sm.metrics.mutex.RLock()
	out := MetricsSnapshot{
		Uptime:           time.Since(sm.metrics.StartTime).Round(time.Second).String(),
		StartTime:        sm.metrics.StartTime,
		TotalSessions:    sm.metrics.TotalSessions,
		ActiveSessions:   sm.metrics.ActiveSessions,
		TotalConnections: sm.metrics.TotalConnections,
		TotalGenerations: sm.metrics.TotalGenerations,
	}
	sm.metrics.mutex.RUnlock()

	sm.mutex.RLock()
	out.Sessions = make([]SessionInfo, 0, len(sm.sessions))
	for _, session := range sm.sessions {
		info := session.info()
		out.CurrentClients += info.ClientCount
		out.Sessions = append(out.Sessions, info)
	}
	sm.mutex.RUnlock()

	sort.Slice(out.Sessions, func(i, j int) bool { return out.Sessions[i].CreatedAt.Before(out.Sessions[j].CreatedAt) })
	return out
}
