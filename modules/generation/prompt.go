package generation

import (
	"strings"
)

// StyleTokens - 모든 프롬프트 앞에 붙는 고정 스타일
const StyleTokens = "professional makeup look, beauty portrait photography, soft studio lighting, high detail, 8k"

// BuildPrompt - 캡션과 팔레트로 생성 프롬프트 구성 (순수 함수)
func BuildPrompt(caption string, hexPalette []string) string {
	var sb strings.Builder
	sb.WriteString(StyleTokens)

	if c := strings.TrimSpace(caption); c != "" {
		sb.WriteString(", ")
		sb.WriteString(c)
	}

	if len(hexPalette) > 0 {
		sb.WriteString(", makeup using the color palette ")
		sb.WriteString(strings.Join(hexPalette, ","))
	}
	return sb.String()
}
