package caption

import (
	"fmt"

	"palette-makeup-server/modules/common/config"
)

// New - CAPTION_BACKEND 에 따라 Captioner 생성
func New(cfg *config.Config) (Captioner, error) {
	switch cfg.CaptionBackend {
	case config.CaptionBackendGemini:
		return NewGeminiCaptioner(cfg.GeminiAPIKeys, cfg.GeminiModel)
	case config.CaptionBackendHTTP, "":
		if cfg.CaptionEndpointURL == "" {
			return nil, fmt.Errorf("CAPTION_ENDPOINT_URL not configured")
		}
		return NewHTTPCaptioner(cfg.CaptionEndpointURL, cfg.CaptionAPIToken, cfg.RequestTimeout), nil
	default:
		return nil, fmt.Errorf("unknown caption backend %q", cfg.CaptionBackend)
	}
}
