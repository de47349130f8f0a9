package handle

import "time"

// Handle - 메모리에 보관된 이미지 바이너리에 대한 표시용 참조
type Handle struct {
	ID        string    `json:"id"`
	URL       string    `json:"url"`
	MimeType  string    `json:"mimeType"`
	Size      int       `json:"size"`
	CreatedAt time.Time `json:"createdAt"`
}

type entry struct {
	handle     Handle
	data       []byte
	lastAccess time.Time
}
