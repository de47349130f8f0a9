package generation

import "context"

// Output - 생성 결과
// json 모드는 URL 만, blob 모드는 Data/MimeType 만 채워진다
type Output struct {
	URL      string
	Data     []byte
	MimeType string
}

// Generator - 프롬프트로 이미지 생성
type Generator interface {
	Generate(ctx context.Context, prompt string) (*Output, error)
}

type jsonRequest struct {
	Data []interface{} `json:"data"`
}

type jsonResponse struct {
	Data  []interface{} `json:"data"`
	Error string        `json:"error,omitempty"`
}

type blobRequest struct {
	Inputs string `json:"inputs"`
}
