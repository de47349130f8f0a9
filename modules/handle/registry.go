package handle

import (
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
)

// URLPrefix - 핸들이 서빙되는 경로
const URLPrefix = "/blobs/"

// Registry - 표시용 핸들 저장소
// 대체되거나 세션이 닫히면 Release 로 해제하고, 마지막 접근 후 TTL 이 지난 것은 스윕이 정리한다
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
	now     func() time.Time
	cron    *cron.Cron
}

func NewRegistry() *Registry {
	return &Registry{
		entries: make(map[string]*entry),
		now:     time.Now,
	}
}

// Issue - 바이너리를 등록하고 핸들 발급
func (r *Registry) Issue(data []byte, mimeType string) Handle {
	id := uuid.New().String()
	h := Handle{
		ID:        id,
		URL:       URLPrefix + id,
		MimeType:  mimeType,
		Size:      len(data),
		CreatedAt: r.now(),
	}

	r.mu.Lock()
	r.entries[id] = &entry{handle: h, data: data, lastAccess: h.CreatedAt}
	r.mu.Unlock()

	log.Printf("📎 [Handle] Issued %s (%s, %d bytes)", id, mimeType, len(data))
	return h
}

// Get - 살아있는 핸들의 바이너리 조회 (접근 시간 갱신)
func (r *Registry) Get(id string) ([]byte, string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if !ok {
		return nil, "", false
	}
	e.lastAccess = r.now()
	return e.data, e.handle.MimeType, true
}

// Touch - 아직 사용 중인 핸들의 접근 시간 갱신
func (r *Registry) Touch(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[id]
	if ok {
		e.lastAccess = r.now()
	}
	return ok
}

// Release - 핸들 해제 (없는 ID 는 무시)
func (r *Registry) Release(id string) bool {
	if id == "" {
		return false
	}
	r.mu.Lock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	r.mu.Unlock()

	if ok {
		log.Printf("🗑️ [Handle] Released %s", id)
	}
	return ok
}

// Count - 현재 보관 중인 핸들 수
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Sweep - 마지막 접근 후 maxAge 가 지난 핸들 정리
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := r.now().Add(-maxAge)

	r.mu.Lock()
	removed := 0
	for id, e := range r.entries {
		if e.lastAccess.Before(cutoff) {
			delete(r.entries, id)
			removed++
		}
	}
	remaining := len(r.entries)
	r.mu.Unlock()

	if removed > 0 {
		log.Printf("🧹 [Handle] Swept %d expired handles, %d remaining", removed, remaining)
	}
	return removed
}

// StartSweeper - 5분마다 TTL 스윕
func (r *Registry) StartSweeper(ttl time.Duration) error {
	c := cron.New()
	if _, err := c.AddFunc("@every 5m", func() { r.Sweep(ttl) }); err != nil {
		return err
	}
	c.Start()

	r.mu.Lock()
	r.cron = c
	r.mu.Unlock()

	log.Printf("⏰ [Handle] Sweeper started (ttl: %v)", ttl)
	return nil
}

// Stop - 스위퍼 정지
func (r *Registry) Stop() {
	r.mu.Lock()
	c := r.cron
	r.cron = nil
	r.mu.Unlock()

	if c != nil {
		<-c.Stop().Done()
	}
}
