package archive

import (
	"context"
	"time"
)

// 결과 레코드 테이블
const resultsTable = "palette_makeup_results"

// Record - 아카이브된 생성 결과 한 건
type Record struct {
	SessionID   string    `json:"session_id"`
	Caption     string    `json:"caption"`
	Prompt      string    `json:"prompt"`
	HexPalette  []string  `json:"hex_palette"`
	ColorNames  []string  `json:"color_names"`
	FilePath    string    `json:"file_path"`
	FileSize    int       `json:"file_size"`
	FileType    string    `json:"file_type"`
	SourceURL   string    `json:"source_url,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}

// RecordStore - 결과 레코드 저장소
type RecordStore interface {
	InsertRecord(ctx context.Context, rec Record) error
}
