package naming

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"

	"palette-makeup-server/modules/common/utils"
)

// Lookuper - 단일 hex 색상 이름 조회
type Lookuper interface {
	Lookup(ctx context.Context, hex string) (string, error)
}

// Client - 색상 이름 API 클라이언트
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient - baseURL 예: https://www.thecolorapi.com
func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Lookup - GET {base}/id?hex=RRGGBB
func (c *Client) Lookup(ctx context.Context, hex string) (string, error) {
	q := url.Values{}
	q.Set("hex", utils.StripHash(hex))
	reqURL := c.baseURL + "/id?" + q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to create request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to call naming API: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		apiErr := fmt.Errorf("naming API error (status %d): %s", resp.StatusCode, utils.TruncateString(string(body), 200))
		// 4xx 는 재시도해도 결과가 같다 (429 제외)
		if resp.StatusCode >= 400 && resp.StatusCode < 500 && resp.StatusCode != http.StatusTooManyRequests {
			return "", backoff.Permanent(apiErr)
		}
		return "", apiErr
	}

	var parsed colorAPIResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return "", backoff.Permanent(fmt.Errorf("failed to parse naming response: %w", err))
	}
	name := strings.TrimSpace(parsed.Name.Value)
	if name == "" {
		return "", backoff.Permanent(fmt.Errorf("naming API returned no name for %s", hex))
	}
	return name, nil
}
