package crawler

import "strings"

var (
	knownExtensions = []string{".gif", ".css", ".html", ".json", ".js", ".pdf"}
	nameReplacer    = strings.NewReplacer(":", "_-", "/", "_-")
)

// DeriveName maps a URL onto a flat object name: the scheme is dropped, a
// trailing slash is trimmed, and every ':' and '/' becomes "_-". Names that do
// not already end in a known extension get ".html" appended.
//
//	https://example.com/a/b.json -> example.com_-a_-b.json
//	https://example.com/         -> example.com.html
func DeriveName(rawURL string) string {
	name := strings.TrimSpace(rawURL)
	if _, rest, ok := strings.Cut(name, "://"); ok {
		name = rest
	}
	name = strings.TrimRight(name, "/")
	name = nameReplacer.Replace(name)
	for _, ext := range knownExtensions {
		if strings.HasSuffix(name, ext) {
			return name
		}
	}
	return name + ".html"
}
