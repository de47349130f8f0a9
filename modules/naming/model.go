package naming

// colorAPIResponse - thecolorapi.com /id 응답 중 사용하는 필드
type colorAPIResponse struct {
	Name struct {
		Value string `json:"value"`
	} `json:"name"`
}
