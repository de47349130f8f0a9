package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"palette-makeup-server/modules/api"
	"palette-makeup-server/modules/archive"
	"palette-makeup-server/modules/caption"
	"palette-makeup-server/modules/common/config"
	"palette-makeup-server/modules/common/redis"
	"palette-makeup-server/modules/generation"
	"palette-makeup-server/modules/handle"
	"palette-makeup-server/modules/naming"
	"palette-makeup-server/modules/palette"
	"palette-makeup-server/modules/pipeline"
	"palette-makeup-server/modules/session"
)

func main() {
	// 환경변수 로드
	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("❌ Failed to load config: %v", err)
	}

	extractor, err := palette.NewExtractor(cfg.PaletteMethod, cfg.PaletteSampleSize)
	if err != nil {
		log.Fatalf("❌ Failed to create palette extractor: %v", err)
	}

	captioner, err := caption.New(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create captioner: %v", err)
	}

	generator, err := generation.New(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create generator: %v", err)
	}

	// 색상 이름 조회 (Redis 가 없으면 메모리 캐시)
	var namer pipeline.ColorNamer
	if cfg.NamingEnabled {
		rdb := redis.Connect(cfg)
		if rdb != nil {
			defer rdb.Close()
		}
		namer = naming.NewService(
			naming.NewClient(cfg.NamingAPIURL, cfg.RequestTimeout),
			naming.NewCache(rdb, cfg.NameCacheTTL),
			naming.OptionsFromConfig(cfg),
		)
	} else {
		log.Println("ℹ️  Color naming disabled")
	}

	archiver, err := archive.NewFromConfig(cfg)
	if err != nil {
		log.Fatalf("❌ Failed to create archive service: %v", err)
	}
	var onResult func(pipeline.ResultEvent)
	if archiver != nil {
		onResult = archiver.HandleResult
	}

	handles := handle.NewRegistry()
	if err := handles.StartSweeper(cfg.HandleTTL); err != nil {
		log.Fatalf("❌ Failed to start handle sweeper: %v", err)
	}
	defer handles.Stop()

	sessions := session.NewManager(func(sessionId string, onChange func(pipeline.Snapshot)) *pipeline.Controller {
		return pipeline.NewController(pipeline.Deps{
			ID:         sessionId,
			Extractor:  extractor,
			ColorCount: cfg.PaletteColorCount,
			Namer:      namer,
			Captioner:  captioner,
			Generator:  generator,
			Handles:    handles,
			Timeout:    cfg.RequestTimeout,
			OnChange:   onChange,
			OnResult:   onResult,
		})
	}, cfg.SessionIdleTTL)

	// 정리 루틴 시작
	if err := sessions.StartCleanupRoutine(); err != nil {
		log.Fatalf("❌ Failed to start session cleanup: %v", err)
	}
	defer sessions.StopCleanupRoutine()

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.NewRouter(sessions, handles),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Palette Makeup Server starting on port %s", cfg.Port)
		log.Printf("📡 WebSocket endpoint: ws://localhost:%s/ws", cfg.Port)
		log.Printf("❤️  Health check: http://localhost:%s/health", cfg.Port)
		log.Printf("📊 Metrics: http://localhost:%s/metrics", cfg.Port)
		log.Printf("🧹 Admin cleanup: http://localhost:%s/admin/cleanup", cfg.Port)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Server failed to start: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("⚠️ Server shutdown error: %v", err)
	}
	sessions.CloseAll()
	log.Println("✅ Server stopped")
}
