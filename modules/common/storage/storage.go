package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log"
	"net/http"
	"strings"
	"time"

	"palette-makeup-server/modules/common/utils"
)

// Client - Supabase Storage 업로드/다운로드
type Client struct {
	baseURL    string
	serviceKey string
	bucket     string
	httpClient *http.Client
}

// NewClient - Storage 클라이언트 생성
func NewClient(baseURL, serviceKey, bucket string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		bucket:     bucket,
		httpClient: &http.Client{Timeout: timeout},
	}
}

func (c *Client) Bucket() string { return c.bucket }

// ObjectURL - 업로드 API URL
func (c *Client) ObjectURL(filePath string) string {
	return fmt.Sprintf("%s/storage/v1/object/%s/%s", c.baseURL, c.bucket, filePath)
}

// Upload - Supabase Storage에 바이너리 업로드
func (c *Client) Upload(ctx context.Context, filePath string, data []byte, contentType string) error {
	log.Printf("📤 Uploading to storage: %s/%s (%d bytes)", c.bucket, filePath, len(data))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.ObjectURL(filePath), bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to create upload request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("Content-Type", contentType)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to upload image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		body, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("upload failed with status %d: %s", resp.StatusCode, utils.TruncateString(string(body), 200))
	}

	log.Printf("✅ Image uploaded to storage: %s", filePath)
	return nil
}

// Download - URL 에서 이미지 다운로드
func (c *Client) Download(ctx context.Context, imageURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create download request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("failed to download image: status %d", resp.StatusCode)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}

	log.Printf("✅ Image downloaded successfully: %d bytes", len(imageData))
	return imageData, nil
}
