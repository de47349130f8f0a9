package fallback

import (
	"strings"
)

// SafeString returns a trimmed string or the provided fallback.
func SafeString(value interface{}, fallback string) string {
	if s, ok := value.(string); ok {
		s = strings.TrimSpace(s)
		if s != "" {
			return s
		}
	}
	return fallback
}

// FirstString returns the first non-empty string of a decoded `{"data":[...]}` array.
// Hosted inference endpoints wrap their outputs this way.
func FirstString(values []interface{}) (string, bool) {
	if len(values) == 0 {
		return "", false
	}
	s := SafeString(values[0], "")
	return s, s != ""
}

// NameOrPlaceholder - 빈 색상 이름을 placeholder 로 대체
func NameOrPlaceholder(name, placeholder string) string {
	return SafeString(name, placeholder)
}
