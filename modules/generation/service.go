package generation

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"palette-makeup-server/modules/common/config"
	"palette-makeup-server/modules/common/fallback"
	"palette-makeup-server/modules/common/utils"
)

// HTTPGenerator - hosted text-to-image 엔드포인트 호출
type HTTPGenerator struct {
	endpoint   string
	token      string
	mode       string
	httpClient *http.Client
}

func NewHTTPGenerator(endpoint, token, mode string, timeout time.Duration) *HTTPGenerator {
	if mode == "" {
		mode = config.ResponseModeJSON
	}
	return &HTTPGenerator{
		endpoint:   endpoint,
		token:      token,
		mode:       mode,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// New - config 로 Generator 생성
func New(cfg *config.Config) (Generator, error) {
	if cfg.GenerationEndpointURL == "" {
		return nil, fmt.Errorf("GENERATION_ENDPOINT_URL not configured")
	}
	switch cfg.GenerationResponseMode {
	case config.ResponseModeJSON, config.ResponseModeBlob, "":
	default:
		return nil, fmt.Errorf("unknown generation response mode %q", cfg.GenerationResponseMode)
	}
	return NewHTTPGenerator(cfg.GenerationEndpointURL, cfg.GenerationAPIToken, cfg.GenerationResponseMode, cfg.RequestTimeout), nil
}

// Generate - 모드에 따라 요청/응답 형식 선택
func (g *HTTPGenerator) Generate(ctx context.Context, prompt string) (*Output, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("prompt is required")
	}

	var payload interface{}
	if g.mode == config.ResponseModeBlob {
		payload = blobRequest{Inputs: prompt}
	} else {
		payload = jsonRequest{Data: []interface{}{prompt}}
	}

	jsonBody, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.token)
	}

	log.Printf("🎨 [Generation] Generating image (mode: %s), prompt: %s", g.mode, utils.TruncateString(prompt, 80))
	startTime := time.Now()

	resp, err := g.httpClient.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("generation API error: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("❌ [Generation] API error: status=%d, body=%s", resp.StatusCode, utils.TruncateString(string(bodyBytes), 200))
		return nil, fmt.Errorf("generation API error: status=%d", resp.StatusCode)
	}

	var out *Output
	if g.mode == config.ResponseModeBlob {
		out, err = parseBlob(bodyBytes, resp.Header.Get("Content-Type"))
	} else {
		out, err = parseJSON(bodyBytes)
	}
	if err != nil {
		return nil, err
	}

	log.Printf("✅ [Generation] Image generated in %v", time.Since(startTime).Round(time.Millisecond))
	return out, nil
}

func parseBlob(body []byte, contentType string) (*Output, error) {
	if len(body) == 0 {
		return nil, fmt.Errorf("empty image response")
	}
	mimeType := utils.DetectMimeType(body, contentType)
	if !strings.HasPrefix(mimeType, "image/") {
		return nil, fmt.Errorf("unexpected response type %s", mimeType)
	}
	return &Output{Data: body, MimeType: mimeType}, nil
}

func parseJSON(body []byte) (*Output, error) {
	var parsed jsonResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != "" {
		return nil, fmt.Errorf("generation API error: %s", parsed.Error)
	}

	if url, ok := fallback.FirstString(parsed.Data); ok {
		return &Output{URL: url}, nil
	}
	// 일부 엔드포인트는 {"data":[{"url":"..."}]} 로 응답
	if len(parsed.Data) > 0 {
		if obj, ok := parsed.Data[0].(map[string]interface{}); ok {
			if url := fallback.SafeString(obj["url"], ""); url != "" {
				return &Output{URL: url}, nil
			}
		}
	}
	return nil, fmt.Errorf("no image URL in response")
}
