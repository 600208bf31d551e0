package crawler

import "strings"

var textLikeTypes = map[string]struct{}{
	"application/json":       {},
	"application/xml":        {},
	"application/javascript": {},
}

// IsTextLike reports whether content of the given type should be decoded as
// text. Only the MIME portion before any parameters is considered.
func IsTextLike(contentType string) bool {
	mime, _, _ := strings.Cut(contentType, ";")
	mime = strings.ToLower(strings.TrimSpace(mime))
	if strings.HasPrefix(mime, "text/") {
		return true
	}
	_, ok := textLikeTypes[mime]
	return ok
}

// IsHTML reports whether the content type is text-like and names HTML, which
// is when link extraction runs.
func IsHTML(contentType string) bool {
	return IsTextLike(contentType) && strings.Contains(strings.ToLower(contentType), "html")
}
