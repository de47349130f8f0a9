package api

import "palette-makeup-server/modules/pipeline"

// CreateSessionResponse - POST /api/sessions 응답
type CreateSessionResponse struct {
	SessionId string            `json:"sessionId"`
	State     pipeline.Snapshot `json:"state"`
}

// GenerateResponse - POST /api/sessions/{sessionId}/generate 응답
type GenerateResponse struct {
	Started bool              `json:"started"`
	State   pipeline.Snapshot `json:"state"`
}

// ErrorResponse - 에러 응답
type ErrorResponse struct {
	Error string `json:"error"`
}
