package caption

import (
	"context"
	"fmt"
	"log"

	"google.golang.org/genai"

	"palette-makeup-server/modules/common/gemini"
	"palette-makeup-server/modules/common/utils"
)

const geminiCaptionInstruction = "Describe this image in one short sentence for an image generation prompt. " +
	"Mention the subject, pose and framing. Do not mention colors."

// GeminiCaptioner - Gemini 멀티모달 모델로 캡션 생성
type GeminiCaptioner struct {
	apiKeys []string
	model   string
}

func NewGeminiCaptioner(apiKeys []string, model string) (*GeminiCaptioner, error) {
	if len(apiKeys) == 0 {
		return nil, fmt.Errorf("GEMINI_API_KEY not configured")
	}
	log.Printf("✅ [Caption] Gemini captioner initialized (model: %s, keys: %d)", model, len(apiKeys))
	return &GeminiCaptioner{apiKeys: apiKeys, model: model}, nil
}

func (g *GeminiCaptioner) Caption(ctx context.Context, in Input) (string, error) {
	if len(in.Data) == 0 {
		return "", fmt.Errorf("no image to caption")
	}

	contents := []*genai.Content{
		{
			Role: "user",
			Parts: []*genai.Part{
				{InlineData: &genai.Blob{MIMEType: utils.DetectMimeType(in.Data, in.MimeType), Data: in.Data}},
				genai.NewPartFromText(geminiCaptionInstruction),
			},
		},
	}

	result, err := gemini.GenerateContentWithRetry(ctx, g.apiKeys, g.model, contents, &genai.GenerateContentConfig{})
	if err != nil {
		return "", fmt.Errorf("gemini caption failed: %w", err)
	}

	text := gemini.ExtractText(result)
	if text == "" {
		return "", fmt.Errorf("no caption in gemini response")
	}
	log.Printf("✅ [Caption] Gemini caption: %s", utils.TruncateString(text, 60))
	return text, nil
}
