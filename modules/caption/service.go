package caption

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"palette-makeup-server/modules/common/fallback"
	"palette-makeup-server/modules/common/utils"
)

// HTTPCaptioner - hosted 캡션 엔드포인트 호출
type HTTPCaptioner struct {
	endpoint   string
	token      string
	httpClient *http.Client
}

func NewHTTPCaptioner(endpoint, token string, timeout time.Duration) *HTTPCaptioner {
	return &HTTPCaptioner{
		endpoint:   endpoint,
		token:      token,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Caption - POST {"data":["data:<mime>;base64,..."]} → 첫 번째 문자열
func (c *HTTPCaptioner) Caption(ctx context.Context, in Input) (string, error) {
	if len(in.Data) == 0 {
		return "", fmt.Errorf("no image to caption")
	}

	jsonBody, err := json.Marshal(inferenceRequest{Data: []interface{}{utils.ToDataURI(in.Data, in.MimeType)}})
	if err != nil {
		return "", fmt.Errorf("failed to marshal request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.token)
	}

	log.Printf("📝 [Caption] Requesting caption (%d bytes image)", len(in.Data))
	startTime := time.Now()

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return "", fmt.Errorf("caption API error: %w", err)
	}
	defer resp.Body.Close()

	bodyBytes, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		log.Printf("❌ [Caption] API error: status=%d, body=%s", resp.StatusCode, utils.TruncateString(string(bodyBytes), 200))
		return "", fmt.Errorf("caption API error: status=%d", resp.StatusCode)
	}

	var parsed inferenceResponse
	if err := json.Unmarshal(bodyBytes, &parsed); err != nil {
		return "", fmt.Errorf("failed to parse response: %w", err)
	}
	if parsed.Error != "" {
		return "", fmt.Errorf("caption API error: %s", parsed.Error)
	}

	text, ok := fallback.FirstString(parsed.Data)
	if !ok {
		return "", fmt.Errorf("no caption in response")
	}

	log.Printf("✅ [Caption] Caption received in %v: %s", time.Since(startTime).Round(time.Millisecond), utils.TruncateString(text, 60))
	return text, nil
}
