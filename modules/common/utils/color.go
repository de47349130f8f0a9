package utils

import (
	"fmt"
	"strings"

	"github.com/lucasb-eyer/go-colorful"
)

// RGB - 팔레트 한 칸 (각 채널 0-255)
type RGB struct {
	R int `json:"r"`
	G int `json:"g"`
	B int `json:"b"`
}

// RGBToHex - RGB 값을 #rrggbb 로 변환
// 채널이 0-255 범위를 벗어나면 잘못된 출력 대신 에러를 반환한다
func RGBToHex(r, g, b int) (string, error) {
	for _, ch := range []struct {
		name  string
		value int
	}{{"r", r}, {"g", g}, {"b", b}} {
		if ch.value < 0 || ch.value > 255 {
			return "", fmt.Errorf("invalid RGB value %s=%d: expected values between 0 and 255", ch.name, ch.value)
		}
	}
	return fmt.Sprintf("#%02x%02x%02x", r, g, b), nil
}

// Hex - RGBToHex 단축
func (c RGB) Hex() (string, error) {
	return RGBToHex(c.R, c.G, c.B)
}

// HexToComponents - #rrggbb (또는 rrggbb) 를 RGB 채널로 분해
func HexToComponents(hex string) (r, g, b int, err error) {
	s := strings.TrimSpace(hex)
	if !strings.HasPrefix(s, "#") {
		s = "#" + s
	}
	if len(s) != 7 {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: expected 6 hex digits", hex)
	}

	c, err := colorful.Hex(s)
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r8, g8, b8 := c.RGB255()
	return int(r8), int(g8), int(b8), nil
}

// HexPalette - 팔레트 전체를 hex 문자열로 변환 (순서 유지)
func HexPalette(palette []RGB) ([]string, error) {
	out := make([]string, 0, len(palette))
	for i, c := range palette {
		hex, err := c.Hex()
		if err != nil {
			return nil, fmt.Errorf("palette entry %d: %w", i, err)
		}
		out = append(out, hex)
	}
	return out, nil
}

// StripHash - 네이밍 API 쿼리용 (# 제거)
func StripHash(hex string) string {
	return strings.TrimPrefix(strings.TrimSpace(hex), "#")
}
