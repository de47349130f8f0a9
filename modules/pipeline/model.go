package pipeline

import (
	"context"
	"time"

	"palette-makeup-server/modules/caption"
	"palette-makeup-server/modules/common/utils"
	"palette-makeup-server/modules/generation"
	"palette-makeup-server/modules/handle"
	"palette-makeup-server/modules/palette"
)

// GenerationState - 생성 체인 진행 상태
type GenerationState string

const (
	GenerationIdle               GenerationState = "idle"
	GenerationCaptioningInFlight GenerationState = "captioning_in_flight"
	GenerationCaptionReady       GenerationState = "caption_ready"
	GenerationCaptionFailed      GenerationState = "caption_failed"
	GenerationPromptBuilt        GenerationState = "prompt_built"
	GenerationImageInFlight      GenerationState = "image_in_flight"
	GenerationImageReady         GenerationState = "image_ready"
	GenerationImageFailed        GenerationState = "image_failed"
)

// AnalysisState - 업로드 → 팔레트 → 이름 단계 상태
type AnalysisState string

const (
	AnalysisEmpty        AnalysisState = "empty"
	AnalysisExtracting   AnalysisState = "extracting"
	AnalysisNaming       AnalysisState = "naming"
	AnalysisReady        AnalysisState = "ready"
	AnalysisDecodeFailed AnalysisState = "decode_failed"
	AnalysisNamingFailed AnalysisState = "naming_failed"
)

// 사용자에게 보여지는 에러 메시지
const (
	MsgDecodeFailed  = "could not load image"
	MsgNamingFailed  = "could not name colors"
	MsgCaptionFailed = "Failed to generate captions"
	MsgImageFailed   = "Failed to generate image"
)

// ColorNamer - hex 팔레트 → 같은 순서의 이름 목록
type ColorNamer interface {
	NameColors(ctx context.Context, hexPalette []string) ([]string, error)
}

// HandleStore - 표시용 핸들 발급/해제
type HandleStore interface {
	Issue(data []byte, mimeType string) handle.Handle
	Touch(id string) bool
	Release(id string) bool
}

// ResultImage - 생성 결과 표시 정보
type ResultImage struct {
	URL      string `json:"url"`
	HandleID string `json:"handleId,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// ResultEvent - 생성 완료 시 OnResult 로 전달
type ResultEvent struct {
	ControllerID string
	Caption      string
	Prompt       string
	HexPalette   []string
	ColorNames   []string
	Output       *generation.Output
}

// Snapshot - 컨트롤러 상태의 읽기 전용 복사본
type Snapshot struct {
	Version         uint64          `json:"version"`
	UploadToken     uint64          `json:"uploadToken"`
	GenerationToken uint64          `json:"generationToken"`
	Analysis        AnalysisState   `json:"analysis"`
	Generation      GenerationState `json:"generation"`
	Image           *handle.Handle  `json:"image,omitempty"`
	Palette         []utils.RGB     `json:"palette"`
	HexPalette      []string        `json:"hexPalette"`
	ColorNames      []string        `json:"colorNames"`
	Caption         string          `json:"caption"`
	Prompt          string          `json:"prompt"`
	Result          *ResultImage    `json:"result,omitempty"`
	AnalysisError   string          `json:"analysisError,omitempty"`
	GenerationError string          `json:"generationError,omitempty"`
	Loading         bool            `json:"loading"`
	CanGenerate     bool            `json:"canGenerate"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Deps - 컨트롤러 협력자
// Namer 가 nil 이면 이름 조회 없이 팔레트만으로 생성이 가능하다
type Deps struct {
	ID         string
	Extractor  palette.Extractor
	ColorCount int
	Namer      ColorNamer
	Captioner  caption.Captioner
	Generator  generation.Generator
	Handles    HandleStore
	Timeout    time.Duration
	OnChange   func(Snapshot)
	OnResult   func(ResultEvent)
}
