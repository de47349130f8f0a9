package caption

import "context"

// Input - 캡션 대상 이미지
type Input struct {
	Data     []byte
	MimeType string
}

// Captioner - 이미지를 설명하는 텍스트 생성
type Captioner interface {
	Caption(ctx context.Context, in Input) (string, error)
}

// inferenceRequest - `{"data":[...]}` 형식 요청
type inferenceRequest struct {
	Data []interface{} `json:"data"`
}

// inferenceResponse - `{"data":[...]}` 형식 응답
type inferenceResponse struct {
	Data  []interface{} `json:"data"`
	Error string        `json:"error,omitempty"`
}
