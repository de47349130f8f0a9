package pipeline

import (
	"context"
	"log"
	"sync"
	"time"

	"palette-makeup-server/modules/common/utils"
	"palette-makeup-server/modules/handle"
)

// Controller - 세션 하나의 업로드 → 분석 → 생성 상태를 소유
// 모든 상태 변경은 mu 아래에서 일어나고, 단계 작업은 고루틴에서 돌다가
// 토큰이 현재 값과 같을 때만 결과를 반영한다
type Controller struct {
	deps Deps

	mu              sync.Mutex
	version         uint64
	uploadToken     uint64
	generationToken uint64
	analysis        AnalysisState
	generation      GenerationState

	imageData  []byte
	imageMime  string
	image      *handle.Handle
	palette    []utils.RGB
	hexPalette []string
	colorNames []string
	caption    string
	prompt     string
	result     *ResultImage

	analysisErr   string
	generationErr string
	updatedAt     time.Time

	cancelAnalysis   context.CancelFunc
	cancelGeneration context.CancelFunc
	closed           bool

	notifyMu     sync.Mutex
	lastNotified uint64

	wg sync.WaitGroup
}

func NewController(deps Deps) *Controller {
	if deps.ColorCount <= 0 {
		deps.ColorCount = 8
	}
	if deps.Timeout <= 0 {
		deps.Timeout = 120 * time.Second
	}
	return &Controller{
		deps:       deps,
		analysis:   AnalysisEmpty,
		generation: GenerationIdle,
		updatedAt:  time.Now(),
	}
}

// Snapshot - 현재 상태 복사본
func (c *Controller) Snapshot() Snapshot {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.snapshotLocked()
}

// Ingest - 새 이미지 선택
// 이전 업로드의 모든 파생 상태를 버리고, 빈 데이터면 빈 상태로 되돌린다
func (c *Controller) Ingest(data []byte, mimeType string) Snapshot {
	c.mu.Lock()
	if c.closed {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return snap
	}

	c.uploadToken++
	c.generationToken++
	c.resetLocked()

	if len(data) == 0 {
		log.Printf("🔄 [Pipeline %s] Image cleared", c.deps.ID)
		snap := c.touchLocked()
		c.mu.Unlock()
		c.notify(snap)
		return snap
	}

	mimeType = utils.DetectMimeType(data, mimeType)
	h := c.deps.Handles.Issue(data, mimeType)
	c.image = &h
	c.imageData = data
	c.imageMime = mimeType
	c.analysis = AnalysisExtracting

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelAnalysis = cancel
	token := c.uploadToken

	log.Printf("📥 [Pipeline %s] Image ingested (%s, %d bytes, upload #%d)", c.deps.ID, mimeType, len(data), token)
	snap := c.touchLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify(snap)
	go c.runAnalysis(ctx, token, data)
	return snap
}

// Generate - 생성 체인 시작 (게이트가 닫혀 있으면 아무것도 하지 않고 false)
// 진행 중인 체인이 있어도 새 토큰으로 다시 시작한다
func (c *Controller) Generate() (bool, Snapshot) {
	c.mu.Lock()
	if c.closed || !c.canGenerateLocked() {
		snap := c.snapshotLocked()
		c.mu.Unlock()
		return false, snap
	}

	c.generationToken++
	c.clearGenerationLocked()
	c.generation = GenerationCaptioningInFlight

	ctx, cancel := context.WithCancel(context.Background())
	c.cancelGeneration = cancel
	req := chainRequest{
		token:      c.generationToken,
		imageData:  c.imageData,
		imageMime:  c.imageMime,
		hexPalette: append([]string(nil), c.hexPalette...),
		colorNames: append([]string(nil), c.colorNames...),
	}

	log.Printf("🚀 [Pipeline %s] Generation #%d started", c.deps.ID, req.token)
	snap := c.touchLocked()
	c.wg.Add(1)
	c.mu.Unlock()

	c.notify(snap)
	go c.runChain(ctx, req)
	return true, snap
}

// Close - 진행 중인 작업 취소 및 핸들 해제
func (c *Controller) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	c.uploadToken++
	c.generationToken++
	c.resetLocked()
	c.mu.Unlock()

	log.Printf("🛑 [Pipeline %s] Closed", c.deps.ID)
}

// KeepAlive - 현재 업로드/결과 핸들이 스윕되지 않도록 접근 시간 갱신
func (c *Controller) KeepAlive() {
	c.mu.Lock()
	var ids []string
	if c.image != nil {
		ids = append(ids, c.image.ID)
	}
	if c.result != nil && c.result.HandleID != "" {
		ids = append(ids, c.result.HandleID)
	}
	c.mu.Unlock()

	for _, id := range ids {
		c.deps.Handles.Touch(id)
	}
}

// Wait - 실행 중인 단계 고루틴이 모두 끝날 때까지 대기
func (c *Controller) Wait() {
	c.wg.Wait()
}

// resetLocked - 업로드와 모든 파생 상태 초기화
func (c *Controller) resetLocked() {
	if c.cancelAnalysis != nil {
		c.cancelAnalysis()
		c.cancelAnalysis = nil
	}
	c.clearGenerationLocked()

	if c.image != nil {
		c.deps.Handles.Release(c.image.ID)
		c.image = nil
	}
	c.imageData = nil
	c.imageMime = ""
	c.palette = nil
	c.hexPalette = nil
	c.colorNames = nil
	c.analysis = AnalysisEmpty
	c.analysisErr = ""
	c.generation = GenerationIdle
}

// clearGenerationLocked - 캡션/프롬프트/결과 초기화, 이전 체인 취소
func (c *Controller) clearGenerationLocked() {
	if c.cancelGeneration != nil {
		c.cancelGeneration()
		c.cancelGeneration = nil
	}
	if c.result != nil && c.result.HandleID != "" {
		c.deps.Handles.Release(c.result.HandleID)
	}
	c.result = nil
	c.caption = ""
	c.prompt = ""
	c.generationErr = ""
}

// canGenerateLocked - 업로드가 있고 팔레트와 이름이 모두 준비됐는지
func (c *Controller) canGenerateLocked() bool {
	if c.image == nil || c.analysis != AnalysisReady || len(c.hexPalette) == 0 {
		return false
	}
	if c.deps.Namer == nil {
		return true
	}
	return len(c.colorNames) == len(c.hexPalette)
}

func (c *Controller) touchLocked() Snapshot {
	c.version++
	c.updatedAt = time.Now()
	return c.snapshotLocked()
}

func (c *Controller) snapshotLocked() Snapshot {
	snap := Snapshot{
		Version:         c.version,
		UploadToken:     c.uploadToken,
		GenerationToken: c.generationToken,
		Analysis:        c.analysis,
		Generation:      c.generation,
		Palette:         append([]utils.RGB{}, c.palette...),
		HexPalette:      append([]string{}, c.hexPalette...),
		ColorNames:      append([]string{}, c.colorNames...),
		Caption:         c.caption,
		Prompt:          c.prompt,
		AnalysisError:   c.analysisErr,
		GenerationError: c.generationErr,
		Loading:         c.analysis == AnalysisExtracting || c.analysis == AnalysisNaming,
		CanGenerate:     !c.closed && c.canGenerateLocked(),
		UpdatedAt:       c.updatedAt,
	}
	if c.image != nil {
		img := *c.image
		snap.Image = &img
	}
	if c.result != nil {
		res := *c.result
		snap.Result = &res
	}
	return snap
}

// notify - 버전 순서대로만 OnChange 호출 (늦게 도착한 이전 버전은 버림)
func (c *Controller) notify(snap Snapshot) {
	if c.deps.OnChange == nil {
		return
	}
	c.notifyMu.Lock()
	defer c.notifyMu.Unlock()
	if snap.Version <= c.lastNotified {
		return
	}
	c.lastNotified = snap.Version
	c.deps.OnChange(snap)
}
