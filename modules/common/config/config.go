package config

import (
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// 캡션 백엔드
const (
	CaptionBackendHTTP   = "http"
	CaptionBackendGemini = "gemini"
)

// 이미지 생성 응답 형식
const (
	ResponseModeJSON = "json" // {"data": ["<image url>"]}
	ResponseModeBlob = "blob" // raw image bytes
)

// 색상 이름 조회 실패 정책
const (
	NamingPolicyPlaceholder = "placeholder"
	NamingPolicyFail        = "fail"
)

// Config 구조체 - 모든 환경변수를 담음
type Config struct {
	// Server
	Port string

	// Palette
	PaletteColorCount int
	PaletteMethod     string
	PaletteSampleSize int

	// Color Naming
	NamingEnabled       bool
	NamingAPIURL        string
	NamingConcurrency   int
	NamingRatePerSec    float64
	NamingMaxRetries    int
	NamingFailurePolicy string
	NamingPlaceholder   string
	NameCacheTTL        time.Duration

	// Captioning
	CaptionBackend     string
	CaptionEndpointURL string
	CaptionAPIToken    string

	// Image Generation
	GenerationEndpointURL  string
	GenerationAPIToken     string
	GenerationResponseMode string

	// Timeouts / lifetimes
	RequestTimeout time.Duration
	HandleTTL      time.Duration
	SessionIdleTTL time.Duration

	// Redis (비어있으면 in-process 캐시 사용)
	RedisHost     string
	RedisPort     string
	RedisUsername string
	RedisPassword string
	RedisUseTLS   bool

	// Supabase (결과 아카이브용, 선택)
	ArchiveEnabled         bool
	SupabaseURL            string
	SupabaseServiceKey     string
	SupabaseBucket         string
	SupabaseStorageBaseURL string

	// Gemini API (CAPTION_BACKEND=gemini 일 때)
	GeminiAPIKeys []string
	GeminiModel   string
}

// LoadConfig - 환경변수 로드
func LoadConfig() (*Config, error) {
	// .env 파일 로드 (있으면)
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️  .env file not found, using environment variables")
	}

	cfg := fromEnv()

	// 필수 환경변수 검증
	if err := cfg.validate(); err != nil {
		return nil, err
	}

	log.Println("✅ Configuration loaded successfully")
	log.Printf("   Palette: %d colors (method: %s)", cfg.PaletteColorCount, cfg.PaletteMethod)
	log.Printf("   Naming: enabled=%v url=%s concurrency=%d policy=%s",
		cfg.NamingEnabled, cfg.NamingAPIURL, cfg.NamingConcurrency, cfg.NamingFailurePolicy)
	log.Printf("   Caption: backend=%s", cfg.CaptionBackend)
	log.Printf("   Generation: mode=%s", cfg.GenerationResponseMode)
	if cfg.RedisHost != "" {
		log.Printf("   Redis: %s (TLS: %v)", cfg.GetRedisAddr(), cfg.RedisUseTLS)
	}
	if cfg.ArchiveEnabled {
		log.Printf("   Archive: %s (bucket: %s)", cfg.SupabaseURL, cfg.SupabaseBucket)
	}

	return cfg, nil
}

// fromEnv - 환경변수를 Config로 변환 (기본값 포함)
func fromEnv() *Config {
	return &Config{
		Port: getEnv("PORT", "8080"),

		PaletteColorCount: getEnvInt("PALETTE_COLOR_COUNT", 8),
		PaletteMethod:     getEnv("PALETTE_METHOD", "dominantcolor"),
		PaletteSampleSize: getEnvInt("PALETTE_SAMPLE_SIZE", 256),

		NamingEnabled:       getEnvBool("NAMING_ENABLED", true),
		NamingAPIURL:        strings.TrimRight(getEnv("NAMING_API_URL", "https://www.thecolorapi.com"), "/"),
		NamingConcurrency:   getEnvInt("NAMING_CONCURRENCY", 1),
		NamingRatePerSec:    getEnvFloat("NAMING_RATE_PER_SEC", 5),
		NamingMaxRetries:    getEnvInt("NAMING_MAX_RETRIES", 2),
		NamingFailurePolicy: getEnv("NAMING_FAILURE_POLICY", NamingPolicyPlaceholder),
		NamingPlaceholder:   getEnv("NAMING_PLACEHOLDER", "unknown"),
		NameCacheTTL:        getEnvDuration("NAME_CACHE_TTL", 24*time.Hour),

		CaptionBackend:     getEnv("CAPTION_BACKEND", CaptionBackendHTTP),
		CaptionEndpointURL: getEnv("CAPTION_ENDPOINT_URL", ""),
		CaptionAPIToken:    getEnv("CAPTION_API_TOKEN", ""),

		GenerationEndpointURL:  getEnv("GENERATION_ENDPOINT_URL", ""),
		GenerationAPIToken:     getEnv("GENERATION_API_TOKEN", ""),
		GenerationResponseMode: getEnv("GENERATION_RESPONSE_MODE", ResponseModeJSON),

		RequestTimeout: getEnvDuration("REQUEST_TIMEOUT", 120*time.Second),
		HandleTTL:      getEnvDuration("HANDLE_TTL", 2*time.Hour),
		SessionIdleTTL: getEnvDuration("SESSION_IDLE_TTL", 2*time.Hour),

		RedisHost:     getEnv("REDIS_HOST", ""),
		RedisPort:     getEnv("REDIS_PORT", "6379"),
		RedisUsername: getEnv("REDIS_USERNAME", ""),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisUseTLS:   getEnvBool("REDIS_USE_TLS", false),

		ArchiveEnabled:         getEnvBool("ARCHIVE_ENABLED", false),
		SupabaseURL:            strings.TrimRight(getEnv("SUPABASE_URL", ""), "/"),
		SupabaseServiceKey:     getEnv("SUPABASE_SERVICE_KEY", ""),
		SupabaseBucket:         getEnv("SUPABASE_BUCKET", "attachments"),
		SupabaseStorageBaseURL: strings.TrimRight(getEnv("SUPABASE_STORAGE_BASE_URL", ""), "/"),

		GeminiAPIKeys: getEnvList("GEMINI_API_KEYS", getEnv("GEMINI_API_KEY", "")),
		GeminiModel:   getEnv("GEMINI_MODEL", "gemini-2.5-flash"),
	}
}

// validate - 필수 환경변수 검증
func (c *Config) validate() error {
	if c.PaletteColorCount <= 0 {
		return fmt.Errorf("PALETTE_COLOR_COUNT must be positive, got %d", c.PaletteColorCount)
	}

	switch c.CaptionBackend {
	case CaptionBackendHTTP:
		if c.CaptionEndpointURL == "" {
			return fmt.Errorf("CAPTION_ENDPOINT_URL is required")
		}
	case CaptionBackendGemini:
		if len(c.GeminiAPIKeys) == 0 {
			return fmt.Errorf("GEMINI_API_KEY is required when CAPTION_BACKEND=gemini")
		}
	default:
		return fmt.Errorf("unknown CAPTION_BACKEND: %s", c.CaptionBackend)
	}

	if c.GenerationEndpointURL == "" {
		return fmt.Errorf("GENERATION_ENDPOINT_URL is required")
	}
	if c.GenerationResponseMode != ResponseModeJSON && c.GenerationResponseMode != ResponseModeBlob {
		return fmt.Errorf("unknown GENERATION_RESPONSE_MODE: %s", c.GenerationResponseMode)
	}

	if c.NamingFailurePolicy != NamingPolicyPlaceholder && c.NamingFailurePolicy != NamingPolicyFail {
		return fmt.Errorf("unknown NAMING_FAILURE_POLICY: %s", c.NamingFailurePolicy)
	}

	if c.HandleTTL < c.SessionIdleTTL {
		return fmt.Errorf("HANDLE_TTL (%s) must not be shorter than SESSION_IDLE_TTL (%s)", c.HandleTTL, c.SessionIdleTTL)
	}

	if c.ArchiveEnabled {
		if c.SupabaseURL == "" {
			return fmt.Errorf("SUPABASE_URL is required when ARCHIVE_ENABLED=true")
		}
		if c.SupabaseServiceKey == "" {
			return fmt.Errorf("SUPABASE_SERVICE_KEY is required when ARCHIVE_ENABLED=true")
		}
	}
	return nil
}

// getEnv - 환경변수 가져오기 (기본값 지원)
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if s := os.Getenv(key); s != "" {
		if parsed, err := strconv.Atoi(s); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %d", key, s, defaultValue)
	}
	return defaultValue
}

func getEnvFloat(key string, defaultValue float64) float64 {
	if s := os.Getenv(key); s != "" {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, s, defaultValue)
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if s := os.Getenv(key); s != "" {
		if parsed, err := strconv.ParseBool(s); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %v", key, s, defaultValue)
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	if s := os.Getenv(key); s != "" {
		if parsed, err := time.ParseDuration(s); err == nil {
			return parsed
		}
		log.Printf("⚠️  Invalid %s=%q, using default %s", key, s, defaultValue)
	}
	return defaultValue
}

// getEnvList - 콤마 구분 리스트 (GEMINI_API_KEYS=key1,key2)
func getEnvList(key, fallback string) []string {
	raw := getEnv(key, fallback)
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

// StorageBaseURL - Storage API 호스트 (SUPABASE_STORAGE_BASE_URL 미설정 시 SUPABASE_URL)
func (c *Config) StorageBaseURL() string {
	if c.SupabaseStorageBaseURL != "" {
		return c.SupabaseStorageBaseURL
	}
	return c.SupabaseURL
}

// GetRedisAddr - Redis 연결 문자열 생성
func (c *Config) GetRedisAddr() string {
	return fmt.Sprintf("%s:%s", c.RedisHost, c.RedisPort)
}
