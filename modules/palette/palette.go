package palette

import (
	"fmt"
	"image"
	"log"

	"palette-makeup-server/modules/common/utils"
)

// Result - 추출 결과 (Colors 와 Hex 는 같은 길이, 같은 순서)
type Result struct {
	Colors []utils.RGB `json:"colors"`
	Hex    []string    `json:"hex"`
}

// Analyze - 팔레트 추출 후 hex 변환
// 채널이 범위를 벗어난 색이 나오면 추출기 결함으로 보고 에러를 반환한다
func Analyze(ex Extractor, img image.Image, count int) (*Result, error) {
	colors, err := ex.Extract(img, count)
	if err != nil {
		return nil, fmt.Errorf("palette extraction (%s) failed: %w", ex.Method(), err)
	}

	hex, err := utils.HexPalette(colors)
	if err != nil {
		log.Printf("❌ [Palette] %s returned an invalid color: %v", ex.Method(), err)
		return nil, err
	}

	log.Printf("🎨 [Palette] Extracted %d colors via %s: %v", len(hex), ex.Method(), hex)
	return &Result{Colors: colors, Hex: hex}, nil
}
