package utils

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/gif"  // GIF 디코더 등록
	_ "image/jpeg" // JPEG 디코더 등록
	_ "image/png"  // PNG 디코더 등록
	"log"
	"net/http"
	"strings"

	"github.com/disintegration/imaging"
	_ "github.com/kolesa-team/go-webp/decoder" // WebP 디코더 등록
	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"
)

// DecodeImage - 업로드 바이너리를 image.Image 로 디코딩 (WebP, PNG, JPEG, GIF 자동 감지)
func DecodeImage(data []byte) (image.Image, string, error) {
	if len(data) == 0 {
		return nil, "", fmt.Errorf("empty image data")
	}
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, "", fmt.Errorf("failed to decode image: %w", err)
	}
	return img, format, nil
}

// DetectMimeType - 선언된 MIME이 이미지가 아니면 바이트에서 추론
func DetectMimeType(data []byte, declared string) string {
	if strings.HasPrefix(declared, "image/") {
		return declared
	}
	return http.DetectContentType(data)
}

// ToDataURI - 이미지 바이너리를 data URI (base64) 로 변환
func ToDataURI(data []byte, mimeType string) string {
	mimeType = DetectMimeType(data, mimeType)
	base64Str := base64.StdEncoding.EncodeToString(data)
	log.Printf("🔄 Image converted to data URI: %d chars (%s)", len(base64Str), mimeType)
	return "data:" + mimeType + ";base64," + base64Str
}

// DownscaleForSampling - 팔레트 샘플링용 축소 (비율 유지, maxDim 이하면 원본 그대로)
func DownscaleForSampling(img image.Image, maxDim int) image.Image {
	if maxDim <= 0 {
		return img
	}
	b := img.Bounds()
	if b.Dx() <= maxDim && b.Dy() <= maxDim {
		return img
	}
	return imaging.Fit(img, maxDim, maxDim, imaging.Box)
}

// ConvertToWebP - 이미지 바이너리를 WebP로 변환
func ConvertToWebP(data []byte, quality float32) ([]byte, error) {
	log.Printf("🔄 Converting image to WebP (quality: %.1f)", quality)

	img, _, err := DecodeImage(data)
	if err != nil {
		return nil, err
	}

	options, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, quality)
	if err != nil {
		return nil, fmt.Errorf("failed to create WebP encoder options: %w", err)
	}

	var webpBuffer bytes.Buffer
	if err := webp.Encode(&webpBuffer, img, options); err != nil {
		return nil, fmt.Errorf("failed to encode WebP: %w", err)
	}

	webpData := webpBuffer.Bytes()
	log.Printf("✅ Image converted to WebP: %d bytes → %d bytes", len(data), len(webpData))
	return webpData, nil
}

// TruncateString - 로그용 문자열 자르기
func TruncateString(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen]) + "..."
}
