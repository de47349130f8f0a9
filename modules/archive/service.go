package archive

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"

	"palette-makeup-server/modules/common/config"
	"palette-makeup-server/modules/common/database"
	"palette-makeup-server/modules/common/storage"
	"palette-makeup-server/modules/common/utils"
	"palette-makeup-server/modules/pipeline"
)

const webpQuality = 90.0

// Service - 완료된 생성 결과를 Supabase Storage 에 올리고 레코드를 남긴다
type Service struct {
	storage *storage.Client
	store   RecordStore
	timeout time.Duration
}

func NewService(storageClient *storage.Client, store RecordStore, timeout time.Duration) *Service {
	return &Service{
		storage: storageClient,
		store:   store,
		timeout: timeout,
	}
}

// NewFromConfig - ARCHIVE_ENABLED 가 아니면 nil
func NewFromConfig(cfg *config.Config) (*Service, error) {
	if !cfg.ArchiveEnabled {
		log.Println("ℹ️  [Archive] Disabled")
		return nil, nil
	}
	db, err := database.NewClient(cfg.SupabaseURL, cfg.SupabaseServiceKey)
	if err != nil {
		return nil, err
	}
	storageClient := storage.NewClient(cfg.StorageBaseURL(), cfg.SupabaseServiceKey, cfg.SupabaseBucket, cfg.RequestTimeout)
	return NewService(storageClient, &dbStore{db: db}, cfg.RequestTimeout), nil
}

// HandleResult - pipeline OnResult 콜백 (비동기)
func (s *Service) HandleResult(ev pipeline.ResultEvent) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()
		if _, err := s.Archive(ctx, ev); err != nil {
			log.Printf("⚠️ [Archive] Failed to archive result for session %s: %v", ev.ControllerID, err)
		}
	}()
}

// Archive - 이미지 업로드 후 레코드 생성
func (s *Service) Archive(ctx context.Context, ev pipeline.ResultEvent) (*Record, error) {
	if ev.Output == nil {
		return nil, fmt.Errorf("no output to archive")
	}

	data := ev.Output.Data
	if len(data) == 0 {
		if ev.Output.URL == "" {
			return nil, fmt.Errorf("output has neither data nor URL")
		}
		downloaded, err := s.storage.Download(ctx, ev.Output.URL)
		if err != nil {
			return nil, err
		}
		data = downloaded
	}

	// WebP 변환 실패 시 원본 그대로 업로드
	fileType := "image/webp"
	ext := "webp"
	payload, err := utils.ConvertToWebP(data, webpQuality)
	if err != nil {
		log.Printf("⚠️ [Archive] WebP conversion failed, uploading original: %v", err)
		payload = data
		fileType = utils.DetectMimeType(data, ev.Output.MimeType)
		ext = "bin"
		if fileType == "image/png" {
			ext = "png"
		} else if fileType == "image/jpeg" {
			ext = "jpg"
		}
	}

	filePath := fmt.Sprintf("palette-makeup/%s/%s.%s", ev.ControllerID, uuid.New().String(), ext)
	if err := s.storage.Upload(ctx, filePath, payload, fileType); err != nil {
		return nil, err
	}

	rec := Record{
		SessionID:   ev.ControllerID,
		Caption:     ev.Caption,
		Prompt:      ev.Prompt,
		HexPalette:  ev.HexPalette,
		ColorNames:  ev.ColorNames,
		FilePath:    filePath,
		FileSize:    len(payload),
		FileType:    fileType,
		SourceURL:   ev.Output.URL,
		GeneratedAt: time.Now().UTC(),
	}
	if err := s.store.InsertRecord(ctx, rec); err != nil {
		return nil, err
	}

	log.Printf("✅ [Archive] Result archived: %s/%s (%d bytes)", s.storage.Bucket(), filePath, len(payload))
	return &rec, nil
}
